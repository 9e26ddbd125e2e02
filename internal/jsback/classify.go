// Package jsback implements spec.md §4.G/§4.H: the structured-vs-dispatcher
// CFG classifier and the JS emitter that lowers one hir.Module into a single
// ES module source string.
//
// Grounded on the teacher's codegen pass shape (one pass per function, a
// per-function name table, recursive-descent emission over a block cursor)
// and on internal/cfg's Graph for reachability/cycle/ordering queries.
package jsback

import (
	"beanstalk/internal/cfg"
	"beanstalk/internal/hir"
)

// Kind is the structured-CFG classification result for one function.
type Kind uint8

const (
	// Structured functions recurse through if/else and return/throw alone;
	// no JS loop or labeled break/continue is needed to represent them.
	Structured Kind = iota
	// Dispatcher functions need an explicit program-counter state machine
	// because they contain a genuine loop, or a control shape recursive
	// descent can't express as nested if/else (spec.md §4.G). Choosing
	// Dispatcher is always a safe fallback.
	Dispatcher
)

// Classify decides whether f can be emitted as structured recursive-descent
// JS or needs a dispatcher loop (spec.md §4.G): structured requires an
// acyclic CFG, no Loop/Break/Continue terminator, every Jump carrying no
// block arguments, and every If/Match's branches funneling into Return/
// Panic or one shared merge block. The check is conservative: anything it
// can't prove structured, it calls Dispatcher.
func Classify(f *hir.Func) Kind {
	if !f.Entry.IsValid() {
		return Structured
	}
	g := cfg.Build(f)
	if g.HasCycle {
		return Dispatcher
	}
	for _, id := range g.Reachable {
		blk, ok := f.Block(id)
		if !ok {
			continue
		}
		switch blk.Terminator.Kind {
		case hir.TermLoop, hir.TermBreak, hir.TermContinue:
			return Dispatcher
		case hir.TermJump:
			if len(blk.Terminator.JumpArgs) > 0 {
				return Dispatcher
			}
		case hir.TermIf, hir.TermMatch:
			memo := make(map[hir.BlockID]cfg.MergeResult)
			if r := cfg.EffectiveMerge(f, memo, id); !r.OK {
				return Dispatcher
			}
		}
	}
	return Structured
}
