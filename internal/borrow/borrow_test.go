package borrow

import (
	"testing"
	"time"

	"beanstalk/internal/hir"
	"beanstalk/internal/host"
	"beanstalk/internal/types"
)

// hostCall builds a StmtCall targeting a host-registry function.
func hostCall(id hir.StatementID, name string, args []hir.ValueID, result hir.LocalID) hir.Stmt {
	return hir.Stmt{
		ID:     id,
		Kind:   hir.StmtCall,
		Call:   hir.CallTarget{Kind: hir.CallHost, Name: name},
		Args:   args,
		Result: result,
	}
}

func bareReturnBlock(id hir.BlockID, region hir.RegionID, stmts []hir.Stmt) hir.Block {
	return hir.Block{
		ID:         id,
		Region:     region,
		Stmts:      stmts,
		Terminator: hir.Terminator{Kind: hir.TermReturn},
	}
}

// buildUseAfterMoveFunc hand-assembles spec.md §8's E2: a function that
// calls consume(x) (an Owned-param host import) twice on the same local.
func buildUseAfterMoveFunc(strTy types.TypeID) *hir.Func {
	reg := hir.NewRegistry()
	x := reg.NewLocal(false, hir.EntryRegionID, "x", true, false)
	y := reg.NewLocal(false, hir.EntryRegionID, "y", false, true)
	z := reg.NewLocal(false, hir.EntryRegionID, "z", false, true)

	placeX := reg.InternLocal(x)

	f := &hir.Func{
		ID:       1,
		Name:     "f",
		Params:   []hir.LocalID{x},
		Entry:    1,
		Registry: reg,
		Regions:  hir.NewRegionTree(),
		Exprs:    make([]hir.Expr, 3),
	}
	f.Exprs[1] = hir.Expr{ID: 1, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeX}
	f.Exprs[2] = hir.Expr{ID: 2, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeX}

	stmts := []hir.Stmt{
		hostCall(1, "consume", []hir.ValueID{1}, y),
		hostCall(2, "consume", []hir.ValueID{2}, z),
	}
	f.Blocks = make([]hir.Block, 2)
	f.Blocks[1] = bareReturnBlock(1, hir.EntryRegionID, stmts)
	return f
}

func TestUseAfterMove(t *testing.T) {
	ti := types.NewInterner()
	hosts := host.NewPreludeRegistry(ti)
	f := buildUseAfterMoveFunc(ti.Builtins().String)
	m := hir.NewModule()
	m.Funcs = append(m.Funcs, f)

	report := NewChecker(hosts).Check(m)
	fr := report.Funcs[0]

	found := false
	for _, iss := range fr.Issues {
		if iss.Kind == IssueUseAfterMove {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a use-after-move issue, got %v", fr.Issues)
	}
}

// buildMutableConflictFunc hand-assembles spec.md §8's E3: one call passing
// the same local as both a Mutable and a Shared argument.
func buildMutableConflictFunc(intTy types.TypeID) (*hir.Func, *host.Registry) {
	hosts := host.NewRegistry()
	hosts.Register(host.FunctionDef{
		Name:    "pair",
		Module:  "test",
		Params:  []host.AccessKind{host.AccessMutable, host.AccessShared},
		ParamTy: []types.TypeID{intTy, intTy},
	})

	reg := hir.NewRegistry()
	x := reg.NewLocal(true, hir.EntryRegionID, "x", true, false)
	placeX := reg.InternLocal(x)

	f := &hir.Func{
		ID:       1,
		Name:     "f",
		Params:   []hir.LocalID{x},
		Entry:    1,
		Registry: reg,
		Regions:  hir.NewRegionTree(),
		Exprs:    make([]hir.Expr, 3),
	}
	f.Exprs[1] = hir.Expr{ID: 1, Kind: hir.ExprLoad, Type: intTy, VKind: hir.ValuePlace, Place: placeX}
	f.Exprs[2] = hir.Expr{ID: 2, Kind: hir.ExprLoad, Type: intTy, VKind: hir.ValuePlace, Place: placeX}

	stmts := []hir.Stmt{
		hostCall(1, "pair", []hir.ValueID{1, 2}, hir.NoLocalID),
	}
	f.Blocks = make([]hir.Block, 2)
	f.Blocks[1] = bareReturnBlock(1, hir.EntryRegionID, stmts)
	return f, hosts
}

func TestMutableConflict(t *testing.T) {
	ti := types.NewInterner()
	f, hosts := buildMutableConflictFunc(ti.Builtins().Int32)
	m := hir.NewModule()
	m.Funcs = append(m.Funcs, f)

	report := NewChecker(hosts).Check(m)
	fr := report.Funcs[0]

	found := false
	for _, iss := range fr.Issues {
		if iss.Kind == IssueMutableConflict {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a mutable-conflict issue, got %v", fr.Issues)
	}
}

// buildSharedAliasesFunc hand-assembles spec.md §8's E4: two shared borrows
// of the same local, each passed to a Shared-param host call. Expected to
// pass with no issues.
func buildSharedAliasesFunc(strTy types.TypeID) *hir.Func {
	reg := hir.NewRegistry()
	x := reg.NewLocal(false, hir.EntryRegionID, "x", true, false)
	a := reg.NewLocalWithOwnership(false, hir.EntryRegionID, "a", false, true, hir.OwnershipRef)
	b := reg.NewLocalWithOwnership(false, hir.EntryRegionID, "b", false, true, hir.OwnershipRef)

	placeX := reg.InternLocal(x)
	placeA := reg.InternLocal(a)
	placeB := reg.InternLocal(b)

	f := &hir.Func{
		ID:       1,
		Name:     "f",
		Params:   []hir.LocalID{x},
		Entry:    1,
		Registry: reg,
		Regions:  hir.NewRegionTree(),
		Exprs:    make([]hir.Expr, 5),
	}
	f.Exprs[1] = hir.Expr{ID: 1, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeX}
	f.Exprs[2] = hir.Expr{ID: 2, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeX}
	f.Exprs[3] = hir.Expr{ID: 3, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeA}
	f.Exprs[4] = hir.Expr{ID: 4, Kind: hir.ExprLoad, Type: strTy, VKind: hir.ValuePlace, Place: placeB}

	stmts := []hir.Stmt{
		{ID: 1, Kind: hir.StmtAssign, Target: placeA, Value: 1},
		{ID: 2, Kind: hir.StmtAssign, Target: placeB, Value: 2},
		hostCall(3, "print", []hir.ValueID{3}, hir.NoLocalID),
		hostCall(4, "print", []hir.ValueID{4}, hir.NoLocalID),
	}
	f.Blocks = make([]hir.Block, 2)
	f.Blocks[1] = bareReturnBlock(1, hir.EntryRegionID, stmts)
	return f
}

func TestSharedAliasesOK(t *testing.T) {
	ti := types.NewInterner()
	hosts := host.NewPreludeRegistry(ti)
	f := buildSharedAliasesFunc(ti.Builtins().String)
	m := hir.NewModule()
	m.Funcs = append(m.Funcs, f)

	report := NewChecker(hosts).Check(m)
	fr := report.Funcs[0]

	if len(fr.Issues) != 0 {
		t.Fatalf("expected no issues for two shared aliases of the same local, got %v", fr.Issues)
	}
}

// TestFixpointTerminates guards against a non-terminating worklist on a
// function whose CFG contains a loop (spec.md §8.5's monotone-join /
// termination testable property).
func TestFixpointTerminates(t *testing.T) {
	ti := types.NewInterner()
	hosts := host.NewPreludeRegistry(ti)

	reg := hir.NewRegistry()
	x := reg.NewLocal(true, hir.EntryRegionID, "x", true, false)
	placeX := reg.InternLocal(x)

	f := &hir.Func{
		ID:       1,
		Name:     "loopy",
		Params:   []hir.LocalID{x},
		Entry:    1,
		Registry: reg,
		Regions:  hir.NewRegionTree(),
		Exprs:    make([]hir.Expr, 2),
	}
	f.Exprs[1] = hir.Expr{ID: 1, Kind: hir.ExprLoad, Type: ti.Builtins().Int32, VKind: hir.ValuePlace, Place: placeX}

	f.Blocks = make([]hir.Block, 3)
	f.Blocks[1] = hir.Block{ID: 1, Region: hir.EntryRegionID, Terminator: hir.Terminator{Kind: hir.TermJump, JumpTarget: 2}}
	f.Blocks[2] = hir.Block{
		ID:     2,
		Region: hir.EntryRegionID,
		Stmts:  []hir.Stmt{hostCall(1, "print", []hir.ValueID{1}, hir.NoLocalID)},
		Terminator: hir.Terminator{
			Kind: hir.TermIf,
			Cond: 1,
			Then: 2,
			Else: 2,
		},
	}

	m := hir.NewModule()
	m.Funcs = append(m.Funcs, f)

	done := make(chan *AnalysisReport, 1)
	go func() { done <- NewChecker(hosts).Check(m) }()
	select {
	case report := <-done:
		if report.Funcs[0].ReachableBlocks != 2 {
			t.Fatalf("expected 2 reachable blocks, got %d", report.Funcs[0].ReachableBlocks)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worklist did not converge on a looping CFG")
	}
}
