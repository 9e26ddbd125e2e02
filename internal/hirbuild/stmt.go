package hirbuild

import (
	"beanstalk/internal/ast"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/source"
)

// lowerStmts lowers a statement list into the current block, stopping
// early once a terminator has been set (anything after a break/continue/
// return/panic in the same source block is unreachable).
func (fb *fnBuilder) lowerStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		if fb.terminated[fb.cur] {
			return
		}
		fb.lowerStmt(s)
		if fb.failed {
			return
		}
	}
}

func (fb *fnBuilder) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.LetStmt:
		fb.lowerLet(st)
	case ast.AssignStmt:
		fb.lowerAssign(st)
	case ast.ExprStmt:
		fb.lowerExprStmt(st)
	case ast.IfStmt:
		fb.lowerIf(st)
	case ast.MatchStmt:
		fb.lowerMatch(st)
	case ast.LoopStmt:
		fb.lowerLoop(st)
	case ast.BreakStmt:
		fb.lowerBreak(st)
	case ast.ContinueStmt:
		fb.lowerContinue(st)
	case ast.ReturnStmt:
		fb.lowerReturn(st)
	default:
		fb.error(diag.LowerMalformedStatement, s.SourceSpan(), "unsupported statement kind")
	}
}

func (fb *fnBuilder) lowerLet(st ast.LetStmt) {
	own := ownershipFromString(st.Ownership)
	var initVal hir.ValueID = hir.NoValueID
	if st.Init != nil {
		v, ok := fb.evalExpr(st.Init)
		if !ok {
			return
		}
		initVal = v
	}
	var declType = fb.b.Types.Builtins().Unit
	if initVal.IsValid() {
		ie, _ := fb.fn.Expr(initVal)
		declType = ie.Type
	}
	lid := fb.declareLocal(st.Name, st.Mutable, own, false, false, declType)
	fb.bind(st.Name, lid)
	if initVal.IsValid() {
		place := fb.fn.Registry.InternLocal(lid)
		fb.addStmt(hir.Stmt{Kind: hir.StmtAssign, Target: place, Value: initVal, Span: st.Span})
	}
}

func (fb *fnBuilder) lowerAssign(st ast.AssignStmt) {
	place, _, ok := fb.resolvePlace(st.Target)
	if !ok {
		return
	}
	v, ok := fb.evalExpr(st.Value)
	if !ok {
		return
	}
	fb.addStmt(hir.Stmt{Kind: hir.StmtAssign, Target: place, Value: v, Span: st.Span})
}

func (fb *fnBuilder) lowerExprStmt(st ast.ExprStmt) {
	toks := st.Value.Toks
	if len(toks) > 0 && toks[len(toks)-1].Kind == ast.TokCall {
		target, args, ok := fb.evalCallStmt(st.Value)
		if !ok {
			return
		}
		fb.addStmt(hir.Stmt{Kind: hir.StmtCall, Call: target, Args: args, Result: hir.NoLocalID, Span: st.Span})
		return
	}
	v, ok := fb.evalExpr(st.Value)
	if !ok {
		return
	}
	fb.addStmt(hir.Stmt{Kind: hir.StmtExpr, ExprVal: v, Span: st.Span})
}

func (fb *fnBuilder) lowerIf(st ast.IfStmt) {
	cond, ok := fb.evalExpr(st.Cond)
	if !ok {
		return
	}
	origRegion := fb.curRegion
	pred := fb.cur

	thenRegion := fb.fn.Regions.Push(origRegion)
	thenBlock := fb.newBlock(thenRegion)

	hasElse := len(st.Else) > 0
	var elseRegion hir.RegionID
	var elseBlock hir.BlockID
	if hasElse {
		elseRegion = fb.fn.Regions.Push(origRegion)
		elseBlock = fb.newBlock(elseRegion)
	}
	mergeBlock := fb.newBlock(origRegion)

	elseTarget := mergeBlock
	if hasElse {
		elseTarget = elseBlock
	}
	fb.setTerm(pred, hir.Terminator{Kind: hir.TermIf, Cond: cond, Then: thenBlock, Else: elseTarget, Span: st.Span})

	fb.enterBlock(thenBlock, thenRegion)
	fb.pushScope()
	fb.lowerStmts(st.Then)
	if fb.failed {
		fb.popScope()
		return
	}
	if !fb.terminated[fb.cur] {
		fb.emitRegionDrops(thenRegion)
		fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermJump, JumpTarget: mergeBlock, Span: st.Span})
	}
	fb.popScope()

	if hasElse {
		fb.enterBlock(elseBlock, elseRegion)
		fb.pushScope()
		fb.lowerStmts(st.Else)
		if fb.failed {
			fb.popScope()
			return
		}
		if !fb.terminated[fb.cur] {
			fb.emitRegionDrops(elseRegion)
			fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermJump, JumpTarget: mergeBlock, Span: st.Span})
		}
		fb.popScope()
	}

	fb.enterBlock(mergeBlock, origRegion)
}

func (fb *fnBuilder) lowerMatch(st ast.MatchStmt) {
	scrut, ok := fb.evalExpr(st.Scrutinee)
	if !ok {
		return
	}
	origRegion := fb.curRegion
	pred := fb.cur
	mergeBlock := fb.newBlock(origRegion)

	arms := make([]hir.MatchArm, 0, len(st.Arms))
	for _, arm := range st.Arms {
		fb.enterBlock(pred, origRegion)

		var guardVal hir.ValueID = hir.NoValueID
		if arm.Guard != nil {
			g, ok := fb.evalExpr(arm.Guard)
			if !ok {
				return
			}
			guardVal = g
		}

		var pat hir.MatchPattern
		switch arm.Pattern.Kind {
		case ast.PatLiteral:
			litVal, ok := fb.evalExpr(arm.Pattern.Lit)
			if !ok {
				return
			}
			pat = hir.MatchPattern{Kind: hir.PatternLiteral, Lit: litVal}
		case ast.PatWildcard:
			pat = hir.MatchPattern{Kind: hir.PatternWildcard}
		default:
			fb.error(diag.LowerUnresolvedMatchArm, st.Span, "unsupported match pattern")
			return
		}

		armRegion := fb.fn.Regions.Push(origRegion)
		armBlock := fb.newBlock(armRegion)
		arms = append(arms, hir.MatchArm{Pattern: pat, Guard: guardVal, Body: armBlock})

		fb.enterBlock(armBlock, armRegion)
		fb.pushScope()
		fb.lowerStmts(arm.Body)
		if fb.failed {
			fb.popScope()
			return
		}
		if !fb.terminated[fb.cur] {
			fb.emitRegionDrops(armRegion)
			fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermJump, JumpTarget: mergeBlock, Span: st.Span})
		}
		fb.popScope()
	}

	fb.setTerm(pred, hir.Terminator{Kind: hir.TermMatch, Scrutinee: scrut, Arms: arms, Span: st.Span})
	fb.enterBlock(mergeBlock, origRegion)
}

func (fb *fnBuilder) lowerLoop(st ast.LoopStmt) {
	origRegion := fb.curRegion
	pred := fb.cur

	loopRegion := fb.fn.Regions.Push(origRegion)
	loopBlock := fb.newBlock(loopRegion)
	mergeBlock := fb.newBlock(origRegion)

	fb.setTerm(pred, hir.Terminator{Kind: hir.TermLoop, LoopBody: loopBlock, BreakTo: mergeBlock, Span: st.Span})

	fb.loops = append(fb.loops, loopCtx{breakTarget: mergeBlock, continueTarget: loopBlock, region: loopRegion})
	fb.enterBlock(loopBlock, loopRegion)
	fb.pushScope()
	fb.lowerStmts(st.Body)
	if fb.failed {
		fb.popScope()
		fb.loops = fb.loops[:len(fb.loops)-1]
		return
	}
	if !fb.terminated[fb.cur] {
		fb.emitRegionDrops(loopRegion)
		fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermContinue, Target: loopBlock, Span: st.Span})
	}
	fb.popScope()
	fb.loops = fb.loops[:len(fb.loops)-1]

	fb.enterBlock(mergeBlock, origRegion)
}

func (fb *fnBuilder) lowerBreak(st ast.BreakStmt) {
	if len(fb.loops) == 0 {
		fb.error(diag.LowerBreakOutsideLoop, st.Span, "break outside of a loop")
		return
	}
	lc := fb.loops[len(fb.loops)-1]
	fb.emitCrossingDrops(lc.region, st.Span)
	fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermBreak, Target: lc.breakTarget, Span: st.Span})
}

func (fb *fnBuilder) lowerContinue(st ast.ContinueStmt) {
	if len(fb.loops) == 0 {
		fb.error(diag.LowerContinueOutsideLoop, st.Span, "continue outside of a loop")
		return
	}
	lc := fb.loops[len(fb.loops)-1]
	fb.emitCrossingDrops(lc.region, st.Span)
	fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermContinue, Target: lc.continueTarget, Span: st.Span})
}

// emitCrossingDrops drops every region from the current one up to and
// including boundary (the loop's own region), for a break/continue that
// exits some number of nested scopes inside the loop body.
func (fb *fnBuilder) emitCrossingDrops(boundary hir.RegionID, _ source.Span) {
	parent, _ := fb.fn.Regions.Region(boundary)
	for _, r := range fb.fn.Regions.BetweenExclusive(fb.curRegion, parent.Parent) {
		fb.emitRegionDrops(r)
	}
}

func (fb *fnBuilder) lowerReturn(st ast.ReturnStmt) {
	var val hir.ValueID = hir.NoValueID
	if st.Value != nil {
		v, ok := fb.evalExpr(st.Value)
		if !ok {
			return
		}
		val = v
	}
	for _, r := range fb.fn.Regions.PathToRoot(fb.curRegion) {
		fb.emitRegionDrops(r)
	}
	fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermReturn, ReturnValue: val, Span: st.Span})
}

func (fb *fnBuilder) emitImplicitReturn(sp source.Span) {
	for _, r := range fb.fn.Regions.PathToRoot(fb.curRegion) {
		fb.emitRegionDrops(r)
	}
	fb.setTerm(fb.cur, hir.Terminator{Kind: hir.TermReturn, ReturnValue: hir.NoValueID, Span: sp})
}
