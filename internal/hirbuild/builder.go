// Package hirbuild implements spec.md §4.D's HIR builder: it consumes a
// per-file AST (internal/ast) and an import-binding environment, and
// produces an *hir.Module whose blocks are fully terminated, whose locals
// are regionized, and whose side table is populated.
//
// Grounded on the teacher's hir.Builder (internal/hirlower in the teacher
// repo): a per-function cursor over "the current block", an explicit value
// stack for expression lowering, and accumulate-errors-and-continue failure
// handling (spec.md §4.D "Failure semantics").
package hirbuild

import (
	"fmt"

	"beanstalk/internal/ast"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/host"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// Builder lowers a set of parsed files into one hir.Module. One Builder is
// used for a whole compilation unit so that cross-file function references
// resolve uniformly (spec.md §4.D name resolution's "imported symbols").
type Builder struct {
	Types *types.Interner
	Hosts *host.Registry
	Bag   *diag.Bag

	strings *source.Interner
	paths   *source.PathInterner

	// funcIndex maps a fully-qualified function path to its assigned
	// FunctionID, populated in the builder's first pass so that forward
	// and mutually-recursive references resolve (spec.md §9).
	funcIndex map[string]hir.FunctionID
	funcDecl  map[hir.FunctionID]*ast.FuncDecl
	funcRet   map[hir.FunctionID]types.TypeID

	structIndex map[string]types.TypeID

	nextFunc hir.FunctionID
}

// New creates a Builder. strings/paths back the side table's FQN records;
// typ is pre-seeded with the front end's resolved primitive types.
func New(typ *types.Interner, hosts *host.Registry, strings *source.Interner, paths *source.PathInterner, bag *diag.Bag) *Builder {
	return &Builder{
		Types:       typ,
		Hosts:       hosts,
		Bag:         bag,
		strings:     strings,
		paths:       paths,
		funcIndex:   make(map[string]hir.FunctionID),
		funcDecl:    make(map[hir.FunctionID]*ast.FuncDecl),
		funcRet:     make(map[hir.FunctionID]types.TypeID),
		structIndex: make(map[string]types.TypeID),
	}
}

// Build lowers every file into a single hir.Module. Errors accumulate into
// Bag; a function whose body fails to lower is omitted from the module but
// does not prevent other functions from building (spec.md §4.D).
func (b *Builder) Build(files []*ast.File) *hir.Module {
	mod := hir.NewModule()

	b.registerStructs(files)
	b.registerFuncSignatures(files)

	for _, f := range files {
		for _, fn := range f.Funcs {
			id := b.funcIndex[fn.FQN]
			built, ok := b.buildFunc(mod, fn, id)
			if !ok {
				continue
			}
			mod.Funcs = append(mod.Funcs, built)
			if fn.Entrypoint {
				mod.StartFunction = id
			}
		}
	}
	return mod
}

// registerStructs interns every struct declaration's field layout before
// any function body is lowered, since field access needs the full layout
// to resolve FieldIds and types regardless of declaration order.
func (b *Builder) registerStructs(files []*ast.File) {
	for _, f := range files {
		for _, sd := range f.Structs {
			fields := make([]types.FieldInfo, len(sd.Fields))
			for i, fd := range sd.Fields {
				fields[i] = types.FieldInfo{Name: fd.Name, Type: b.resolveTypeName(fd.Type)}
			}
			tid := b.Types.Intern(types.Type{Kind: types.KindStruct, StructName: sd.Name, Fields: fields})
			b.structIndex[sd.Name] = tid
		}
	}
}

// registerFuncSignatures assigns every function a FunctionID and resolves
// its return type up front, so that call sites (including forward and
// mutually-recursive ones) can resolve CallTarget.Func before that
// function's own body has been built.
func (b *Builder) registerFuncSignatures(files []*ast.File) {
	for _, f := range files {
		for _, fn := range f.Funcs {
			b.nextFunc++
			id := b.nextFunc
			b.funcIndex[fn.FQN] = id
			b.funcDecl[id] = fn
			b.funcRet[id] = b.resolveTypeName(fn.ReturnType)
		}
	}
}

// resolveTypeName maps a front-end-resolved type name to a TypeID. The
// front end has already performed type inference/checking (out of scope
// per spec.md §4.D's Non-goals); this is a lookup, not inference.
func (b *Builder) resolveTypeName(name string) types.TypeID {
	bu := b.Types.Builtins()
	switch name {
	case "", "Unit", "()":
		return bu.Unit
	case "Bool":
		return bu.Bool
	case "Char":
		return bu.Char
	case "Int", "Int32":
		return bu.Int32
	case "Int64":
		return bu.Int64
	case "Float", "Float32":
		return bu.Float32
	case "Float64":
		return bu.Float64
	case "String":
		return bu.String
	default:
		if tid, ok := b.structIndex[name]; ok {
			return tid
		}
		// Unknown struct/collection/option/result spellings fall back to
		// Invalid rather than failing the whole build; a malformed-type
		// diagnostic is the front end's job (spec.md §7 "Type" category),
		// surfaced here only as a defensive fallback.
		return types.NoTypeID
	}
}

func (b *Builder) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	d := diag.NewError(code, sp, fmt.Sprintf(format, args...))
	b.Bag.Add(&d)
}
