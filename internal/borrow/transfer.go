package borrow

import (
	"beanstalk/internal/hir"
	"beanstalk/internal/host"
	"beanstalk/internal/source"
)

// transferBlock applies the block's statements and terminator to a cloned
// copy of its entry state, returning the exit state (spec.md §4.F "Transfer
// function").
func (e *engine) transferBlock(in FuncState, b *hir.Block) FuncState {
	st := in.Clone()
	n := e.layout.NumLocs
	liveOut := e.layout.LiveOut[b.ID]
	future := e.blockFutureUses(b, liveOut, n)

	for i := range b.Stmts {
		s := &b.Stmts[i]
		switch s.Kind {
		case hir.StmtAssign:
			e.transferAssign(&st, s, future[i], n)
		case hir.StmtCall:
			e.transferCall(&st, s, future[i], n)
		case hir.StmtExpr:
			e.evalExprReads(&st, s.ExprVal, n)
		case hir.StmtDrop:
			e.transferDrop(&st, s)
		}
	}
	e.transferTerminator(&st, &b.Terminator)
	st.recomputeRefCounts()
	return st
}

// blockFutureUses computes, for every statement index i, the set of root
// locals read by statements strictly after i plus the terminator plus
// whatever is live on block exit. This is the "last use" test candidate-move
// refinement needs (spec.md §4.F "Candidate-move refinement"): reading
// future[i] tells an assignment at position i whether its source is used
// again, at block granularity.
func (e *engine) blockFutureUses(b *hir.Block, liveOut Bitset, n int) []Bitset {
	m := len(b.Stmts)
	future := make([]Bitset, m+1)

	touch := func(acc Bitset) func(hir.PlaceID) {
		return func(p hir.PlaceID) {
			root := e.fn.Registry.RootLocal(p)
			if root.IsValid() {
				acc.Set(int(root))
			}
		}
	}

	term := NewBitset(n)
	switch b.Terminator.Kind {
	case hir.TermIf:
		e.walkValueReads(b.Terminator.Cond, touch(term))
	case hir.TermMatch:
		e.walkValueReads(b.Terminator.Scrutinee, touch(term))
	case hir.TermReturn:
		if b.Terminator.ReturnValue.IsValid() {
			e.walkValueReads(b.Terminator.ReturnValue, touch(term))
		}
	}
	end := term.Clone()
	end.UnionInPlace(liveOut)
	future[m] = end

	reads := make([]Bitset, m)
	for i, s := range b.Stmts {
		r := NewBitset(n)
		acc := touch(r)
		switch s.Kind {
		case hir.StmtAssign:
			e.walkValueReads(s.Value, acc)
		case hir.StmtCall:
			for _, a := range s.Args {
				e.walkValueReads(a, acc)
			}
		case hir.StmtExpr:
			e.walkValueReads(s.ExprVal, acc)
		case hir.StmtDrop:
			acc(s.DropPlace)
		}
		reads[i] = r
	}

	for i := m - 1; i >= 0; i-- {
		future[i] = future[i+1].Clone()
		if i+1 < m {
			future[i].UnionInPlace(reads[i+1])
		}
	}
	return future
}

// externalAliasCount is RootRefCounts[root] minus root's own baseline
// self-term (a SLOT-mode local always counts itself as its sole effective
// root - see LocalState.EffectiveRoots). It answers "how many OTHER locals
// currently hold a live reference into root", which is what the
// mutable-conflict and move-while-borrowed checks actually need.
func externalAliasCount(st *FuncState, root int) int {
	n := st.RootRefCounts[root]
	if st.Locals[root].Mode == ModeSlot {
		n--
	}
	return n
}

func (e *engine) walkValueReads(v hir.ValueID, fn func(hir.PlaceID)) {
	expr, ok := e.fn.Expr(v)
	if !ok {
		return
	}
	walkExprPlaces(e.fn, expr, fn)
}

// checkReadable reports UseAfterMove if root has been fully moved out, and
// (for one of fn's own parameters) records a Shared touch for the eventual
// call summary.
func (e *engine) checkReadable(st *FuncState, root hir.LocalID, place hir.PlaceID, span hir.StatementID) {
	if !root.IsValid() {
		return
	}
	if st.Locals[root].Mode == ModeUninit {
		e.report(IssueUseAfterMove, place, source.Span{}, "value already moved")
	}
	e.touchParam(root, ParamShared)
}

// evalExprReads applies ordinary (non-consuming) read-access checks to
// every place an expression loads from.
func (e *engine) evalExprReads(st *FuncState, v hir.ValueID, n int) {
	e.walkValueReads(v, func(p hir.PlaceID) {
		root := e.fn.Registry.RootLocal(p)
		e.checkReadable(st, root, p, hir.NoStatementID)
	})
}

// transferAssign applies StmtAssign: target = value.
func (e *engine) transferAssign(st *FuncState, s *hir.Stmt, future Bitset, n int) {
	root := e.fn.Registry.RootLocal(s.Target)
	if !root.IsValid() {
		return
	}
	info, _ := e.fn.Registry.Local(root)
	if st.Locals[root].Mode != ModeUninit && !info.Mutable {
		e.report(IssueImmutableReassignment, s.Target, s.Span, "")
	}

	expr, ok := e.fn.Expr(s.Value)
	if !ok {
		st.Locals[root] = LocalState{Mode: ModeSlot}
		return
	}

	if expr.Kind == hir.ExprLoad {
		e.transferLoadAssign(st, root, info, expr.Place, future, n, s.ID)
		return
	}

	e.evalExprReads(st, s.Value, n)
	st.Locals[root] = LocalState{Mode: ModeSlot}
}

// transferLoadAssign handles `dest = Load(src)`, dispatching on dest's
// declared Ownership (spec.md §3 / hir/ownership.go): Ref/RefMut take a
// borrow of src's effective roots; Copy takes a read-only snapshot; Own is a
// candidate move, refined to Move or Borrow by last-use (future).
func (e *engine) transferLoadAssign(st *FuncState, destRoot hir.LocalID, destInfo hir.LocalInfo, srcPlace hir.PlaceID, future Bitset, n int, stmtID hir.StatementID) {
	srcRoot := e.fn.Registry.RootLocal(srcPlace)
	if !srcRoot.IsValid() {
		st.Locals[destRoot] = LocalState{Mode: ModeSlot}
		return
	}
	e.checkReadable(st, srcRoot, srcPlace, stmtID)
	srcState := st.Locals[srcRoot]

	switch destInfo.Ownership {
	case hir.OwnershipRef:
		eff := srcState.EffectiveRoots(int(srcRoot), n)
		st.Locals[destRoot] = LocalState{Mode: ModeAlias, AliasRoots: eff, DirectAliasRoots: Single(n, int(srcRoot))}

	case hir.OwnershipRefMut:
		eff := srcState.EffectiveRoots(int(srcRoot), n)
		eff.ForEach(func(r int) {
			if externalAliasCount(st, r) > 0 {
				e.report(IssueMutableConflict, srcPlace, source.Span{}, "")
			}
		})
		e.touchParam(srcRoot, ParamMutable)
		st.Locals[destRoot] = LocalState{Mode: ModeAlias, AliasRoots: eff, DirectAliasRoots: Single(n, int(srcRoot)), Mutable: true}

	case hir.OwnershipCopy:
		st.Locals[destRoot] = LocalState{Mode: ModeSlot}

	default: // OwnershipOwn: candidate move
		if future.Has(int(srcRoot)) {
			eff := srcState.EffectiveRoots(int(srcRoot), n)
			st.Locals[destRoot] = LocalState{Mode: ModeAlias, AliasRoots: eff, DirectAliasRoots: Single(n, int(srcRoot))}
			e.facts.Resolution[stmtID] = false
		} else {
			if externalAliasCount(st, int(srcRoot)) > 0 {
				e.report(IssueMoveWhileBorrowed, srcPlace, source.Span{}, "")
			}
			e.touchParam(srcRoot, ParamOwned)
			st.Locals[srcRoot] = LocalState{Mode: ModeUninit}
			st.Locals[destRoot] = LocalState{Mode: ModeSlot}
			e.facts.Resolution[stmtID] = true
		}
	}
	st.recomputeRefCounts()
}

// transferCall applies a StmtCall: checks each argument against the
// callee's per-parameter access kind (host registry lookup, or a memoized /
// conservative user-function Summary), then binds the result local.
func (e *engine) transferCall(st *FuncState, s *hir.Stmt, future Bitset, n int) {
	switch s.Call.Kind {
	case hir.CallHost:
		def, ok := e.hosts.Lookup(s.Call.Name)
		if !ok {
			e.report(IssueUnresolvedCallTarget, hir.NoPlaceID, s.Span, s.Call.Name)
			for _, a := range s.Args {
				e.evalExprReads(st, a, n)
			}
		} else {
			e.applyParamAccess(st, s.Args, hostAccessesAsParam(def.Params), future, s.ID, n)
		}

	case hir.CallUser:
		sum, ok := e.sums.Get(s.Call.Func)
		if !ok {
			sum = ConservativeSummary(len(s.Args))
		}
		e.applyParamAccess(st, s.Args, sum.Params, future, s.ID, n)
		if hasMutableParam(sum.Params) {
			e.mutableCallSites = append(e.mutableCallSites, s.ID)
		}
	}

	if s.Result.IsValid() {
		st.Locals[s.Result] = LocalState{Mode: ModeSlot}
	}
	st.recomputeRefCounts()
}

// applyParamAccess checks one call's arguments against the callee's
// per-parameter access kinds, applying the same borrow/move transitions a
// direct assignment would (spec.md §4.F "Call handling").
func (e *engine) applyParamAccess(st *FuncState, args []hir.ValueID, accesses []ParamAccess, future Bitset, stmtID hir.StatementID, n int) {
	e.checkWithinCallConflicts(args, accesses, stmtID)

	for i, a := range args {
		expr, ok := e.fn.Expr(a)
		if !ok {
			continue
		}
		access := ParamShared
		if i < len(accesses) {
			access = accesses[i]
		}
		if expr.Kind != hir.ExprLoad {
			e.evalExprReads(st, a, n)
			continue
		}
		root := e.fn.Registry.RootLocal(expr.Place)
		if !root.IsValid() {
			continue
		}
		e.checkReadable(st, root, expr.Place, stmtID)

		switch access {
		case ParamShared:
			// a read access; checkReadable already validated it.
		case ParamMutable:
			if externalAliasCount(st, int(root)) > 0 {
				e.report(IssueMutableConflict, expr.Place, source.Span{}, "")
			}
			e.touchParam(root, ParamMutable)
		case ParamOwned:
			// Unlike a plain assignment-RHS CandidateMove, a call parameter
			// declared Owned is a fixed contract, not subject to last-use
			// refinement: the callee always takes ownership, so this is an
			// unconditional move (spec.md §8 E2 depends on this - the first
			// consume(x) must move x even though x is referenced again).
			if externalAliasCount(st, int(root)) > 0 {
				e.report(IssueMoveWhileBorrowed, expr.Place, source.Span{}, "")
			}
			e.touchParam(root, ParamOwned)
			st.Locals[root] = LocalState{Mode: ModeUninit}
			e.facts.Resolution[stmtID] = true
		}
	}
	st.recomputeRefCounts()
}

// checkWithinCallConflicts reports a MutableConflict when one call passes
// the same root local both as a Mutable argument and as any other argument
// (spec.md §8 E3: "a function that takes &mut x and &x in the same call").
// This is a within-call-site check, distinct from the cross-statement
// RootRefCounts check applyParamAccess also does for already-outstanding
// aliases.
func (e *engine) checkWithinCallConflicts(args []hir.ValueID, accesses []ParamAccess, stmtID hir.StatementID) {
	mutRoots := map[hir.LocalID]bool{}
	counts := map[hir.LocalID]int{}
	places := map[hir.LocalID]hir.PlaceID{}

	for i, a := range args {
		expr, ok := e.fn.Expr(a)
		if !ok || expr.Kind != hir.ExprLoad {
			continue
		}
		root := e.fn.Registry.RootLocal(expr.Place)
		if !root.IsValid() {
			continue
		}
		access := ParamShared
		if i < len(accesses) {
			access = accesses[i]
		}
		counts[root]++
		places[root] = expr.Place
		if access == ParamMutable {
			mutRoots[root] = true
		}
	}
	for root := range mutRoots {
		if counts[root] > 1 {
			e.report(IssueMutableConflict, places[root], source.Span{}, "conflicting accesses to the same local within one call")
		}
	}
}

func hostAccessesAsParam(ks []host.AccessKind) []ParamAccess {
	out := make([]ParamAccess, len(ks))
	for i, k := range ks {
		out[i] = ParamAccess(k)
	}
	return out
}

func hasMutableParam(params []ParamAccess) bool {
	for _, p := range params {
		if p == ParamMutable {
			return true
		}
	}
	return false
}

// transferDrop applies StmtDrop: the place's root local becomes UNINIT
// (spec.md §3 HirStatement::Drop, structural destruction at region exit).
func (e *engine) transferDrop(st *FuncState, s *hir.Stmt) {
	root := e.fn.Registry.RootLocal(s.DropPlace)
	if !root.IsValid() {
		return
	}
	if st.Locals[root].Mode == ModeUninit {
		return // already moved/dropped; dropping a moved-from local is a no-op
	}
	st.Locals[root] = LocalState{Mode: ModeUninit}
	st.recomputeRefCounts()
}

func (e *engine) transferTerminator(st *FuncState, t *hir.Terminator) {
	n := e.layout.NumLocs
	switch t.Kind {
	case hir.TermIf:
		e.evalExprReads(st, t.Cond, n)
	case hir.TermMatch:
		e.evalExprReads(st, t.Scrutinee, n)
	case hir.TermReturn:
		if t.ReturnValue.IsValid() {
			e.evalExprReads(st, t.ReturnValue, n)
		}
	}
}

// deriveSummary assembles fn's own call Summary from the per-parameter
// access kinds observed during the pass and a scan of its return sites
// (spec.md §4.F "Call summaries").
func (e *engine) deriveSummary() Summary {
	params := make([]ParamAccess, len(e.fn.Params))
	for i, p := range e.fn.Params {
		if a, ok := e.paramAccess[p]; ok {
			params[i] = a
		}
	}
	return Summary{Params: params, Return: e.deriveReturnAlias()}
}

func (e *engine) deriveReturnAlias() ReturnAlias {
	var result *ReturnAlias
	for i := 1; i < len(e.fn.Blocks); i++ {
		b := &e.fn.Blocks[i]
		if b.Terminator.Kind != hir.TermReturn || !b.Terminator.ReturnValue.IsValid() {
			continue
		}
		expr, ok := e.fn.Expr(b.Terminator.ReturnValue)
		if !ok {
			continue
		}
		var ra ReturnAlias
		switch {
		case expr.Kind == hir.ExprLoad:
			root := e.fn.Registry.RootLocal(expr.Place)
			if idx := paramIndex(e.fn, root); idx >= 0 {
				ra = ReturnAlias{Kind: ReturnArg, Arg: idx}
			} else {
				ra = ReturnAlias{Kind: ReturnUnknown}
			}
		case expr.IsPure():
			ra = ReturnAlias{Kind: ReturnFresh}
		default:
			ra = ReturnAlias{Kind: ReturnUnknown}
		}
		if result == nil {
			result = &ra
		} else if *result != ra {
			return ReturnAlias{Kind: ReturnUnknown}
		}
	}
	if result == nil {
		return ReturnAlias{Kind: ReturnFresh}
	}
	return *result
}
