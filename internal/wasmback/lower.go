package wasmback

import (
	"beanstalk/internal/cfg"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/lir"
)

// funcLowerer is the per-function lowering cursor: local index tables, the
// open-structured-block frame stack Break/Continue depths are computed
// against (spec.md §4.J.4/J.6), and a memo for the merge-point computation
// shared with internal/jsback's structured emitter via internal/cfg.
type funcLowerer struct {
	wb *Builder
	fn *hir.Func

	paramIdx map[hir.LocalID]uint32
	localIdx map[hir.LocalID]uint32

	// frames is the open-structured-block stack: one entry per Block/Loop/If
	// currently enclosing the code being lowered. A labeled entry (anything
	// other than hir.NoBlockID) is a Loop's Break/Continue target; unlabeled
	// entries from If/Match nesting still count toward Br depth even though
	// nothing branches to them directly.
	frames []hir.BlockID

	mergeMemo map[hir.BlockID]cfg.MergeResult

	nextExtra   uint32
	extraLocals []lir.LocalSlot
}

// lowerFunc lowers one hir.Func to an *lir.Function: local index assignment
// (spec.md §4.J.5, parameters then declared locals then temporaries) followed
// by a structured recursive lowering of the block chain starting at the
// entry block.
func (wb *Builder) lowerFunc(fn *hir.Func) *lir.Function {
	paramIdx := make(map[hir.LocalID]uint32, len(fn.Params))
	paramTypes := make([]lir.NumType, len(fn.Params))
	for i, lid := range fn.Params {
		paramIdx[lid] = uint32(i)
		info, _ := fn.Registry.Local(lid)
		paramTypes[i] = wb.numType(info.Type)
	}

	localIdx := make(map[hir.LocalID]uint32)
	var locals []lir.LocalSlot
	next := uint32(len(fn.Params))
	n := fn.Registry.NumLocals()
	for id := hir.LocalID(1); int(id) <= n; id++ {
		info, ok := fn.Registry.Local(id)
		if !ok || info.IsParam || info.IsTemp {
			continue
		}
		localIdx[id] = next
		next++
		locals = append(locals, lir.LocalSlot{Type: wb.numType(info.Type), Name: info.Name})
	}
	for id := hir.LocalID(1); int(id) <= n; id++ {
		info, ok := fn.Registry.Local(id)
		if !ok || info.IsParam || !info.IsTemp {
			continue
		}
		localIdx[id] = next
		next++
		locals = append(locals, lir.LocalSlot{Type: wb.numType(info.Type)})
	}

	fl := &funcLowerer{
		wb:        wb,
		fn:        fn,
		paramIdx:  paramIdx,
		localIdx:  localIdx,
		mergeMemo: make(map[hir.BlockID]cfg.MergeResult),
		nextExtra: next,
	}

	var body []lir.Instr
	if fn.Entry.IsValid() {
		body = fl.lowerChain(fn.Entry, hir.NoBlockID)
	}
	locals = append(locals, fl.extraLocals...)

	return &lir.Function{
		Name:       fn.Name,
		Exported:   fn.Exported,
		ParamTypes: paramTypes,
		ResultType: wb.resultNumTypes(fn.ReturnType),
		Locals:     locals,
		Body:       body,
	}
}

// lowerChain lowers the block chain starting at id, stopping (without
// lowering its contents) at stopAt - the shared merge point an enclosing
// If/Match already agreed every branch funnels into - or at a block whose
// terminator has no structural fallthrough (Return, Panic, Break, Continue).
// This is the same "branch returns its continuation, caller re-enters"
// pattern internal/jsback's emitStructuredFrom uses, since WASM's
// block/if/end and JS's braces are both linear-fallthrough constructs.
func (fl *funcLowerer) lowerChain(id, stopAt hir.BlockID) []lir.Instr {
	var out []lir.Instr
	cur := id
	for cur.IsValid() && cur != stopAt {
		blk, ok := fl.fn.Block(cur)
		if !ok {
			break
		}
		for _, s := range blk.Stmts {
			fl.lowerStmt(&out, s)
		}
		next := fl.lowerTerm(&out, cur, blk.Terminator)
		if !next.IsValid() {
			return out
		}
		cur = next
	}
	return out
}

func (fl *funcLowerer) lowerTerm(out *[]lir.Instr, blockID hir.BlockID, t hir.Terminator) hir.BlockID {
	switch t.Kind {
	case hir.TermJump:
		return t.JumpTarget
	case hir.TermReturn:
		if t.ReturnValue.IsValid() {
			*out = append(*out, fl.lowerExprPush(t.ReturnValue)...)
		}
		*out = append(*out, lir.Instr{Op: lir.OpReturn})
		return hir.NoBlockID
	case hir.TermPanic:
		*out = append(*out, lir.Instr{Op: lir.OpCall, FuncIndex: fl.wb.trapFuncIdx})
		*out = append(*out, lir.Instr{Op: lir.OpUnreachable})
		return hir.NoBlockID
	case hir.TermIf:
		return fl.lowerIf(out, blockID, t)
	case hir.TermMatch:
		return fl.lowerMatch(out, blockID, t)
	case hir.TermLoop:
		return fl.lowerLoop(out, t)
	case hir.TermBreak, hir.TermContinue:
		*out = append(*out, lir.Instr{Op: lir.OpBr, Depth: fl.frameDepth(t.Target)})
		return hir.NoBlockID
	default:
		return hir.NoBlockID
	}
}

func (fl *funcLowerer) lowerIf(out *[]lir.Instr, blockID hir.BlockID, t hir.Terminator) hir.BlockID {
	merge := cfg.EffectiveMerge(fl.fn, fl.mergeMemo, blockID)
	if !merge.OK {
		fl.wb.errorf(diag.EmissionUnsupportedConstruct, "function %s: if at block %d has no single continuation the WASM lowerer can fall through to", fl.fn.Name, blockID)
		*out = append(*out, lir.Instr{Op: lir.OpUnreachable})
		return hir.NoBlockID
	}
	*out = append(*out, fl.lowerExprPush(t.Cond)...)
	fl.frames = append(fl.frames, hir.NoBlockID)
	thenBody := fl.lowerChain(t.Then, merge.Merge)
	elseBody := fl.lowerChain(t.Else, merge.Merge)
	fl.frames = fl.frames[:len(fl.frames)-1]
	*out = append(*out, lir.Instr{Op: lir.OpIf, Result: lir.BlockVoid, Then: thenBody, Else: elseBody})
	if merge.Terminal {
		return hir.NoBlockID
	}
	return merge.Merge
}

func (fl *funcLowerer) lowerMatch(out *[]lir.Instr, blockID hir.BlockID, t hir.Terminator) hir.BlockID {
	merge := cfg.EffectiveMerge(fl.fn, fl.mergeMemo, blockID)
	if !merge.OK {
		fl.wb.errorf(diag.EmissionUnsupportedConstruct, "function %s: match at block %d has no single continuation the WASM lowerer can fall through to", fl.fn.Name, blockID)
		*out = append(*out, lir.Instr{Op: lir.OpUnreachable})
		return hir.NoBlockID
	}
	*out = append(*out, fl.lowerMatchArms(t.Scrutinee, t.Arms, 0, merge.Merge)...)
	if merge.Terminal {
		return hir.NoBlockID
	}
	return merge.Merge
}

// lowerMatchArms lowers a Match terminator as a chain of nested If/Else
// (spec.md §4.J.4: "Match lowered to a chain of If tests on the scrutinee"),
// one level of nesting per arm after the first. A bare, unguarded wildcard
// needs no test at all; it is always the final arm.
func (fl *funcLowerer) lowerMatchArms(scrutinee hir.ValueID, arms []hir.MatchArm, i int, stopAt hir.BlockID) []lir.Instr {
	if i >= len(arms) {
		return []lir.Instr{{Op: lir.OpUnreachable}}
	}
	arm := arms[i]
	if arm.Pattern.Kind == hir.PatternWildcard && !arm.Guard.IsValid() {
		return fl.lowerChain(arm.Body, stopAt)
	}

	var cond []lir.Instr
	switch arm.Pattern.Kind {
	case hir.PatternLiteral:
		cond = append(cond, fl.lowerExprPush(scrutinee)...)
		cond = append(cond, fl.lowerExprPush(arm.Pattern.Lit)...)
		cond = append(cond, lir.Instr{Op: lir.OpEq, Type: fl.exprType(scrutinee)})
	default:
		cond = append(cond, lir.Instr{Op: lir.OpConst, Type: lir.I32, I32Val: 1})
	}
	if arm.Guard.IsValid() {
		cond = append(cond, fl.lowerExprPush(arm.Guard)...)
		cond = append(cond, lir.Instr{Op: lir.OpAnd, Type: lir.I32})
	}

	fl.frames = append(fl.frames, hir.NoBlockID)
	thenBody := fl.lowerChain(arm.Body, stopAt)
	elseBody := fl.lowerMatchArms(scrutinee, arms, i+1, stopAt)
	fl.frames = fl.frames[:len(fl.frames)-1]

	out := make([]lir.Instr, 0, len(cond)+1)
	out = append(out, cond...)
	out = append(out, lir.Instr{Op: lir.OpIf, Result: lir.BlockVoid, Then: thenBody, Else: elseBody})
	return out
}

// lowerLoop lowers a Loop terminator as `Block { Loop { body } }` (spec.md
// §4.J.4), pushing two frames - the outer Block (Break's target) and the
// inner Loop (Continue's target) - so nested Break/Continue can compute
// their Br depth by scanning the frame stack.
func (fl *funcLowerer) lowerLoop(out *[]lir.Instr, t hir.Terminator) hir.BlockID {
	fl.frames = append(fl.frames, t.BreakTo, t.LoopBody)
	body := fl.lowerChain(t.LoopBody, hir.NoBlockID)
	fl.frames = fl.frames[:len(fl.frames)-2]

	*out = append(*out, lir.Instr{
		Op: lir.OpBlock, Result: lir.BlockVoid,
		Then: []lir.Instr{{Op: lir.OpLoop, Result: lir.BlockVoid, Then: body}},
	})
	if t.BreakTo.IsValid() {
		return t.BreakTo
	}
	return hir.NoBlockID
}

// frameDepth finds how many structured blocks separate the innermost open
// frame from the one labeled target, scanning from the top since the
// nearest enclosing match wins (spec.md §4.J.4: "Labels in HIR map to
// depths in LIR").
func (fl *funcLowerer) frameDepth(target hir.BlockID) uint32 {
	for i := len(fl.frames) - 1; i >= 0; i-- {
		if fl.frames[i] == target {
			return uint32(len(fl.frames) - 1 - i)
		}
	}
	return 0
}
