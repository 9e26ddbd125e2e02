package cfg

import "beanstalk/internal/hir"

// MergeResult is EffectiveMerge's answer for one block: either the block
// (and everything reachable from it) is fully terminal (every path ends in
// Return/Panic), or it funnels into a single further block all non-terminal
// paths agree on.
type MergeResult struct {
	OK       bool
	Terminal bool
	Merge    hir.BlockID
}

// EffectiveMerge recursively determines the single point - a merge block,
// or "purely terminal" - every branch of the If/Match at id funnels into.
// It is memoized per call since diamond-shaped (but acyclic) CFGs revisit
// shared descendants, and shared across every backend that needs to emit a
// branch's body once and propagate its continuation outward: the JS
// emitter's structured mode (spec.md §4.G) and the WASM backend's
// structured block/if lowering (spec.md §4.J) both fold the exact same
// question down to "do all paths out of this block agree on where they
// land next".
func EffectiveMerge(f *hir.Func, memo map[hir.BlockID]MergeResult, id hir.BlockID) MergeResult {
	if r, ok := memo[id]; ok {
		return r
	}
	// Seed a failing placeholder before recursing so a cyclic reference
	// (shouldn't occur in an acyclic CFG, but keep this total) can't
	// recurse forever.
	memo[id] = MergeResult{}

	blk, ok := f.Block(id)
	if !ok {
		return MergeResult{}
	}
	var r MergeResult
	switch blk.Terminator.Kind {
	case hir.TermReturn, hir.TermPanic:
		r = MergeResult{OK: true, Terminal: true}
	case hir.TermJump:
		if len(blk.Terminator.JumpArgs) > 0 {
			r = MergeResult{}
		} else {
			r = MergeResult{OK: true, Merge: blk.Terminator.JumpTarget}
		}
	case hir.TermIf:
		then := EffectiveMerge(f, memo, blk.Terminator.Then)
		els := EffectiveMerge(f, memo, blk.Terminator.Else)
		r = CombineMerge(then, els)
	case hir.TermMatch:
		r = MergeResult{OK: true, Terminal: true}
		for _, arm := range blk.Terminator.Arms {
			armR := EffectiveMerge(f, memo, arm.Body)
			r = CombineMerge(r, armR)
			if !r.OK {
				break
			}
		}
	default:
		r = MergeResult{}
	}
	memo[id] = r
	return r
}

// CombineMerge folds one more branch's result into a running merge target:
// two terminal branches stay terminal, a terminal branch defers to whatever
// the other branch funnels into, and two non-terminal branches must agree
// on the exact same block.
func CombineMerge(a, b MergeResult) MergeResult {
	if !a.OK || !b.OK {
		return MergeResult{}
	}
	switch {
	case a.Terminal && b.Terminal:
		return MergeResult{OK: true, Terminal: true}
	case a.Terminal:
		return MergeResult{OK: true, Merge: b.Merge}
	case b.Terminal:
		return MergeResult{OK: true, Merge: a.Merge}
	case a.Merge == b.Merge:
		return MergeResult{OK: true, Merge: a.Merge}
	default:
		return MergeResult{}
	}
}
