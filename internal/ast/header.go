package ast

import "beanstalk/internal/source"

// HeaderKind classifies a top-level declaration for the header pre-pass
// summary (spec.md §6 "front end ... Header").
type HeaderKind uint8

const (
	HeaderFunc HeaderKind = iota
	HeaderStruct
	HeaderStart
)

// Header is the header pre-pass's per-declaration summary: enough to drive
// incremental recompilation without re-walking the full token stream.
// internal/cache does not read Headers: it keys its memoized borrow results
// on cache.FuncContentHash of the built hir.Func.
type Header struct {
	Path         string
	Kind         HeaderKind
	Exported     bool
	Dependencies []string
	Span         source.Span
}

// Headers summarizes a file's top-level declarations as Header records.
func Headers(f *File) []Header {
	out := make([]Header, 0, len(f.Funcs)+len(f.Structs))
	for _, fn := range f.Funcs {
		kind := HeaderFunc
		if fn.Entrypoint {
			kind = HeaderStart
		}
		out = append(out, Header{
			Path:         fn.FQN,
			Kind:         kind,
			Exported:     fn.Exported,
			Dependencies: callDependencies(fn),
			Span:         fn.Span,
		})
	}
	for _, sd := range f.Structs {
		out = append(out, Header{Path: sd.Name, Kind: HeaderStruct, Exported: true, Span: sd.Span})
	}
	return out
}

// callDependencies walks a function body's expression token streams and
// collects the callee names it references, deduplicated in first-seen
// order - the Header.Dependencies a cache invalidates against.
func callDependencies(fn *FuncDecl) []string {
	seen := make(map[string]bool)
	var deps []string
	var walkExpr func(*Expr)
	walkExpr = func(e *Expr) {
		if e == nil {
			return
		}
		for _, t := range e.Toks {
			if t.Kind == TokCall && !seen[t.Callee] {
				seen[t.Callee] = true
				deps = append(deps, t.Callee)
			}
			if t.Kind == TokLoad && t.Place != nil {
				walkPlaceIndex(t.Place, walkExpr)
			}
		}
	}
	var walkStmts func([]Stmt)
	walkStmts = func(stmts []Stmt) {
		for _, s := range stmts {
			switch st := s.(type) {
			case LetStmt:
				walkExpr(st.Init)
			case AssignStmt:
				walkExpr(st.Value)
			case ExprStmt:
				walkExpr(st.Value)
			case IfStmt:
				walkExpr(st.Cond)
				walkStmts(st.Then)
				walkStmts(st.Else)
			case MatchStmt:
				walkExpr(st.Scrutinee)
				for _, arm := range st.Arms {
					walkExpr(arm.Guard)
					walkStmts(arm.Body)
				}
			case LoopStmt:
				walkStmts(st.Body)
			case ReturnStmt:
				walkExpr(st.Value)
			}
		}
	}
	walkStmts(fn.Body)
	return deps
}

func walkPlaceIndex(p *PlaceExpr, walkExpr func(*Expr)) {
	for p != nil {
		if p.Kind == PlaceIndexExpr {
			walkExpr(p.Index)
		}
		p = p.Base
	}
}
