package cfg

import (
	"testing"

	"beanstalk/internal/hir"
)

// linearFunc builds entry -> b2 -> return, no branches.
func linearFunc() *hir.Func {
	f := &hir.Func{Entry: 1}
	f.Blocks = make([]hir.Block, 3)
	f.Blocks[1] = hir.Block{ID: 1, Terminator: hir.Terminator{Kind: hir.TermJump, JumpTarget: 2}}
	f.Blocks[2] = hir.Block{ID: 2, Terminator: hir.Terminator{Kind: hir.TermReturn}}
	return f
}

// loopingFunc builds a Loop terminator whose body Continues back to itself.
func loopingFunc() *hir.Func {
	f := &hir.Func{Entry: 1}
	f.Blocks = make([]hir.Block, 3)
	f.Blocks[1] = hir.Block{ID: 1, Terminator: hir.Terminator{Kind: hir.TermLoop, LoopBody: 2, BreakTo: 0}}
	f.Blocks[2] = hir.Block{ID: 2, Terminator: hir.Terminator{Kind: hir.TermContinue, Target: 1}}
	return f
}

func TestBuildLinearReachability(t *testing.T) {
	f := linearFunc()
	g := Build(f)
	if len(g.Reachable) != 2 {
		t.Fatalf("expected 2 reachable blocks, got %d", len(g.Reachable))
	}
	if g.HasCycle {
		t.Error("linear function should not have a cycle")
	}
	if !g.IsReachable(2) {
		t.Error("block 2 should be reachable")
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	f := loopingFunc()
	g := Build(f)
	if !g.HasCycle {
		t.Error("expected loop-with-continue to be detected as cyclic")
	}
}

func TestPredecessors(t *testing.T) {
	f := linearFunc()
	g := Build(f)
	preds := g.Predecessors[2]
	if len(preds) != 1 || preds[0] != 1 {
		t.Fatalf("expected block 2's sole predecessor to be block 1, got %v", preds)
	}
}

func TestReversePostOrderLinear(t *testing.T) {
	f := linearFunc()
	g := Build(f)
	order := g.ReversePostOrder()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected [1 2], got %v", order)
	}
}
