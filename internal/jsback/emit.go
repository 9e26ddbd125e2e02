package jsback

import (
	"fmt"
	"strconv"
	"strings"

	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/source"
)

// Options configures the emitter (spec.md §1.2's emit_locations flag, the
// only knob SPEC_FULL.md names for this pass).
type Options struct {
	// EmitLocations annotates every lowered statement with a
	// "// source <file>:<span>" comment, and every structural drop with a
	// "// drop <place>" comment, for mapping emitted JS back to Beanstalk
	// source during debugging.
	EmitLocations bool
}

// Emitter carries the module-wide state shared across every function: the
// string interner (for literal rendering), the global function name table,
// and the diagnostic bag errors accumulate into (unresolvable handles are
// ICE-class - spec.md §7 - since they mean upstream passes produced a
// malformed module, not a user-facing mistake).
type Emitter struct {
	mod  *hir.Module
	strs *source.Interner
	opts Options
	bag  *diag.Bag

	fnNames map[hir.FunctionID]string
}

// EmitModule lowers mod into a single ES module source string. strs backs
// ExprLitString's content; a nil strs is valid for modules with no string
// literals. Diagnostics (malformed handles, not user-facing type errors -
// those are the front end's job per spec.md §4.D) accumulate into the
// returned bag.
func EmitModule(mod *hir.Module, strs *source.Interner, opts Options) (string, *diag.Bag) {
	bag := diag.NewBag(256)
	e := &Emitter{mod: mod, strs: strs, opts: opts, bag: bag, fnNames: make(map[hir.FunctionID]string)}

	globals := newNameTable()
	for _, fn := range mod.Funcs {
		e.fnNames[fn.ID] = globals.name(fmt.Sprintf("fn%d", fn.ID), fn.Name)
	}

	var out strings.Builder
	for _, fn := range mod.Funcs {
		e.emitFunc(&out, fn)
	}
	if mod.StartFunction.IsValid() {
		if name, ok := e.fnNames[mod.StartFunction]; ok {
			fmt.Fprintf(&out, "export { %s as __start };\n", name)
		}
	}
	return out.String(), bag
}

func (e *Emitter) errorf(format string, args ...any) {
	d := diag.NewError(diag.EmissionUnsupportedConstruct, source.Span{}, fmt.Sprintf(format, args...))
	e.bag.Add(&d)
}

// emitFunc renders one function's signature, its hoisted `let` block (every
// non-parameter local, in LocalId order - spec.md §4.H), and its body,
// dispatched by Classify to either recursive structured emission or a
// program-counter state machine.
func (e *Emitter) emitFunc(out *strings.Builder, fn *hir.Func) {
	names := newNameTable()

	isParam := make(map[hir.LocalID]bool, len(fn.Params))
	paramNames := make([]string, len(fn.Params))
	for i, lid := range fn.Params {
		isParam[lid] = true
		info, _ := fn.Registry.Local(lid)
		paramNames[i] = names.name(localKey(lid), info.Name)
	}

	var letNames []string
	for i := 1; i <= fn.Registry.NumLocals(); i++ {
		id := hir.LocalID(i)
		if isParam[id] {
			continue
		}
		info, ok := fn.Registry.Local(id)
		if !ok {
			continue
		}
		letNames = append(letNames, names.name(localKey(id), localDisplayName(info)))
	}

	exportPrefix := ""
	if fn.Exported || fn.Entrypoint {
		exportPrefix = "export "
	}
	fmt.Fprintf(out, "%sfunction %s(%s) {\n", exportPrefix, e.fnNames[fn.ID], strings.Join(paramNames, ", "))
	if len(letNames) > 0 {
		fmt.Fprintf(out, "  let %s;\n", strings.Join(letNames, ", "))
	}

	fe := &funcEmitter{e: e, fn: fn, names: names, out: out, indent: 1, emitted: make(map[hir.BlockID]bool)}
	switch Classify(fn) {
	case Structured:
		fe.emitStructuredFrom(fn.Entry)
	default:
		fe.emitDispatcher()
	}

	fmt.Fprintf(out, "}\n\n")
}

func localKey(id hir.LocalID) string { return "l" + strconv.FormatUint(uint64(id), 10) }

// localDisplayName picks the preferred-but-not-yet-hygienic spelling for a
// local: its source name if it has one, else a generic "t" base so every
// compiler temporary collapses onto t, t_1, t_2, ... via the name table's
// collision suffixing.
func localDisplayName(info hir.LocalInfo) string {
	if info.Name != "" {
		return info.Name
	}
	return "t"
}

// funcEmitter is the per-function recursive-descent emission cursor.
type funcEmitter struct {
	e       *Emitter
	fn      *hir.Func
	names   *nameTable
	out     *strings.Builder
	indent  int
	emitted map[hir.BlockID]bool
}

func (fe *funcEmitter) pad() string { return strings.Repeat("  ", fe.indent) }

func (fe *funcEmitter) localName(id hir.LocalID) string {
	if n := fe.names.get(localKey(id)); n != "" {
		return n
	}
	return fmt.Sprintf("t%d", id)
}

func (fe *funcEmitter) locComment(sp source.Span) string {
	if !fe.e.opts.EmitLocations || sp.Empty() {
		return ""
	}
	return fmt.Sprintf(" // source %s", sp.String())
}

// emitStructuredFrom walks the block chain starting at id, inlining every
// plain fallthrough (Jump) and recursing into If/Match bodies, until it
// hits a block with no following block (a Return/Panic terminator, or a
// block already emitted because an earlier sibling branch already reached
// it - the structured invariant Classify proved guarantees at most one
// live path reaches any given block).
func (fe *funcEmitter) emitStructuredFrom(id hir.BlockID) {
	cur := id
	for cur.IsValid() && !fe.emitted[cur] {
		cur = fe.emitBranchBody(cur)
	}
}

// emitBranchBody emits one block's statements plus its terminator's
// structural content, and returns the block execution falls through to
// afterward (NoBlockID if the branch ended in Return/Panic).
func (fe *funcEmitter) emitBranchBody(id hir.BlockID) hir.BlockID {
	fe.emitted[id] = true
	blk, ok := fe.fn.Block(id)
	if !ok {
		return hir.NoBlockID
	}
	for _, s := range blk.Stmts {
		fe.emitStmt(s)
	}
	switch blk.Terminator.Kind {
	case hir.TermReturn:
		fe.emitReturn(blk.Terminator)
		return hir.NoBlockID
	case hir.TermPanic:
		fe.emitPanic(blk.Terminator)
		return hir.NoBlockID
	case hir.TermJump:
		return blk.Terminator.JumpTarget
	case hir.TermIf:
		return fe.emitIf(blk.Terminator)
	case hir.TermMatch:
		return fe.emitMatch(blk.Terminator)
	default:
		// Loop/Break/Continue never reach here: Classify routes any
		// function containing one to emitDispatcher instead.
		fe.e.errorf("structured emitter encountered %s terminator in block %d", blk.Terminator.Kind, id)
		return hir.NoBlockID
	}
}

func (fe *funcEmitter) emitIf(t hir.Terminator) hir.BlockID {
	fmt.Fprintf(fe.out, "%sif (%s) {%s\n", fe.pad(), fe.expr(t.Cond), fe.locComment(t.Span))
	fe.indent++
	thenNext := fe.emitBranchBody(t.Then)
	fe.indent--
	fmt.Fprintf(fe.out, "%s} else {\n", fe.pad())
	fe.indent++
	elseNext := fe.emitBranchBody(t.Else)
	fe.indent--
	fmt.Fprintf(fe.out, "%s}\n", fe.pad())
	if thenNext.IsValid() {
		return thenNext
	}
	return elseNext
}

func (fe *funcEmitter) emitMatch(t hir.Terminator) hir.BlockID {
	var next hir.BlockID
	for i, arm := range t.Arms {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		if arm.Pattern.Kind == hir.PatternWildcard {
			if i == 0 {
				fmt.Fprintf(fe.out, "%sif (true) {%s\n", fe.pad(), fe.locComment(t.Span))
			} else {
				fmt.Fprintf(fe.out, "%s} else {\n", fe.pad())
			}
		} else {
			cond := fmt.Sprintf("%s === %s", fe.expr(t.Scrutinee), fe.expr(arm.Pattern.Lit))
			if arm.Guard.IsValid() {
				cond = fmt.Sprintf("%s && %s", cond, fe.expr(arm.Guard))
			}
			fmt.Fprintf(fe.out, "%s%s (%s) {\n", fe.pad(), kw, cond)
		}
		fe.indent++
		n := fe.emitBranchBody(arm.Body)
		fe.indent--
		if n.IsValid() && !next.IsValid() {
			next = n
		}
	}
	fmt.Fprintf(fe.out, "%s}\n", fe.pad())
	return next
}

func (fe *funcEmitter) emitReturn(t hir.Terminator) {
	if t.ReturnValue.IsValid() {
		fmt.Fprintf(fe.out, "%sreturn %s;%s\n", fe.pad(), fe.expr(t.ReturnValue), fe.locComment(t.Span))
	} else {
		fmt.Fprintf(fe.out, "%sreturn;%s\n", fe.pad(), fe.locComment(t.Span))
	}
}

func (fe *funcEmitter) emitPanic(t hir.Terminator) {
	msg := "panic"
	if t.Message != source.NoStringID && fe.e.strs != nil {
		if s, ok := fe.e.strs.Lookup(t.Message); ok {
			msg = s
		}
	}
	fmt.Fprintf(fe.out, "%sthrow new Error(%s);%s\n", fe.pad(), strconv.Quote(msg), fe.locComment(t.Span))
}

func (fe *funcEmitter) emitStmt(s hir.Stmt) {
	switch s.Kind {
	case hir.StmtAssign:
		fmt.Fprintf(fe.out, "%s%s = %s;%s\n", fe.pad(), fe.place(s.Target), fe.expr(s.Value), fe.locComment(s.Span))
	case hir.StmtCall:
		call := fe.call(s.Call, s.Args)
		if s.Result.IsValid() {
			fmt.Fprintf(fe.out, "%s%s = %s;%s\n", fe.pad(), fe.localName(s.Result), call, fe.locComment(s.Span))
		} else {
			fmt.Fprintf(fe.out, "%s%s;%s\n", fe.pad(), call, fe.locComment(s.Span))
		}
	case hir.StmtExpr:
		fmt.Fprintf(fe.out, "%s%s;%s\n", fe.pad(), fe.expr(s.ExprVal), fe.locComment(s.Span))
	case hir.StmtDrop:
		// JS is garbage-collected; a structural drop has no runtime effect,
		// but is worth a comment when location tracking is on so the
		// emitted source still mirrors HIR's region-exit points.
		if fe.e.opts.EmitLocations {
			fmt.Fprintf(fe.out, "%s// drop %s\n", fe.pad(), fe.place(s.DropPlace))
		}
	}
}

// place renders an l-value reference: a bare local name, a dotted field
// projection, or a bracketed index projection.
func (fe *funcEmitter) place(id hir.PlaceID) string {
	p, ok := fe.fn.Registry.Place(id)
	if !ok {
		fe.e.errorf("unresolved place %d", id)
		return "undefined"
	}
	switch p.Kind {
	case hir.PlaceLocal:
		return fe.localName(p.Local)
	case hir.PlaceField:
		name := fe.e.mod.SideTable.FieldName[p.Field]
		if name == "" {
			name = fmt.Sprintf("f%d", p.Field)
		}
		return fmt.Sprintf("%s.%s", fe.place(p.Base), sanitize(name))
	case hir.PlaceIndex:
		return fmt.Sprintf("%s[%s]", fe.place(p.Base), fe.expr(p.Index))
	default:
		return "undefined"
	}
}

// expr renders an r-value recursively. Every ExprKind HIR can carry is
// handled, even the struct/collection/option/result constructors the
// current front end (internal/ast has no construction syntax for them yet)
// never actually produces, since the backend contract is the full HIR data
// model, not just today's front end's output.
func (fe *funcEmitter) expr(id hir.ValueID) string {
	e, ok := fe.fn.Expr(id)
	if !ok {
		fe.e.errorf("unresolved value %d", id)
		return "undefined"
	}
	switch e.Kind {
	case hir.ExprLitInt:
		return strconv.FormatInt(e.IntVal, 10)
	case hir.ExprLitFloat:
		return strconv.FormatFloat(e.FloatVal, 'g', -1, 64)
	case hir.ExprLitBool:
		if e.BoolVal {
			return "true"
		}
		return "false"
	case hir.ExprLitChar:
		return strconv.Quote(string(e.CharVal))
	case hir.ExprLitString:
		s := ""
		if fe.e.strs != nil {
			s, _ = fe.e.strs.Lookup(e.StrVal)
		}
		return strconv.Quote(s)
	case hir.ExprLoad:
		return fe.place(e.Place)
	case hir.ExprUnary:
		return fmt.Sprintf("(%s%s)", jsUnaryOp(e.UnOp), fe.expr(e.X))
	case hir.ExprBinary:
		return fmt.Sprintf("(%s %s %s)", fe.expr(e.L), jsBinaryOp(e.BinOp), fe.expr(e.R))
	case hir.ExprCall:
		return fe.call(e.Target, e.Args)
	case hir.ExprRange:
		return fmt.Sprintf("{lo: %s, hi: %s, inclusive: %t}", fe.expr(e.Lo), fe.expr(e.Hi), e.RangeInclusive)
	case hir.ExprCollection, hir.ExprTupleConstruct:
		parts := make([]string, len(e.Elems))
		for i, v := range e.Elems {
			parts[i] = fe.expr(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case hir.ExprStructConstruct:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			name := fe.e.mod.SideTable.FieldName[f.Field]
			if name == "" {
				name = fmt.Sprintf("f%d", f.Field)
			}
			parts[i] = fmt.Sprintf("%s: %s", sanitize(name), fe.expr(f.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case hir.ExprOptionConstruct:
		if e.HasValue {
			return fe.expr(e.Inner)
		}
		return "null"
	case hir.ExprResultConstruct:
		if e.IsOk {
			return fmt.Sprintf("{ok: true, value: %s}", fe.expr(e.Inner))
		}
		return fmt.Sprintf("{ok: false, error: %s}", fe.expr(e.Inner))
	default:
		fe.e.errorf("unhandled expression kind %d in value %d", e.Kind, id)
		return "undefined"
	}
}

func (fe *funcEmitter) call(target hir.CallTarget, args []hir.ValueID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fe.expr(a)
	}
	joined := strings.Join(parts, ", ")
	switch target.Kind {
	case hir.CallHost:
		return fmt.Sprintf("__host.%s(%s)", sanitize(target.Name), joined)
	case hir.CallUser:
		name, ok := fe.e.fnNames[target.Func]
		if !ok {
			fe.e.errorf("call to unknown function %d", target.Func)
			name = "undefined"
		}
		return fmt.Sprintf("%s(%s)", name, joined)
	default:
		return "undefined"
	}
}

func jsUnaryOp(op hir.UnaryOp) string {
	switch op {
	case hir.UnaryNeg:
		return "-"
	case hir.UnaryNot:
		return "!"
	default:
		return "?"
	}
}

func jsBinaryOp(op hir.BinaryOp) string {
	switch op {
	case hir.BinAdd:
		return "+"
	case hir.BinSub:
		return "-"
	case hir.BinMul:
		return "*"
	case hir.BinDiv:
		return "/"
	case hir.BinMod:
		return "%"
	case hir.BinEq:
		return "==="
	case hir.BinNeq:
		return "!=="
	case hir.BinLt:
		return "<"
	case hir.BinLe:
		return "<="
	case hir.BinGt:
		return ">"
	case hir.BinGe:
		return ">="
	case hir.BinAnd:
		return "&&"
	case hir.BinOr:
		return "||"
	default:
		return "?"
	}
}
