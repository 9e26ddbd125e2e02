// Package borrow implements the per-function fixed-point forward dataflow
// analysis of spec.md §4.F: the borrow/ownership checker. It tracks, for
// every local, whether it is uninitialized, owns its storage ("SLOT"), or
// aliases one or more roots ("ALIAS"); detects conflicting mutable/shared
// accesses; resolves candidate moves into moves or borrows based on
// last-use; and validates host- and user-call call-sites.
package borrow

import (
	"beanstalk/internal/cfg"
	"beanstalk/internal/hir"
	"beanstalk/internal/host"
	"beanstalk/internal/source"
)

// Checker runs the dataflow analysis across every function in a module.
type Checker struct {
	Hosts     *host.Registry
	Summaries *SummaryCache
}

// NewChecker creates a checker backed by the given host registry. A fresh
// SummaryCache is created so repeated Check calls share memoized user-call
// summaries.
func NewChecker(hosts *host.Registry) *Checker {
	return &Checker{Hosts: hosts, Summaries: NewSummaryCache()}
}

// Check runs the analysis over every function, in declaration order (so
// that by the time function i is analyzed, every function j < i that it
// calls already has a memoized summary - mutual/forward recursion still
// falls back to ConservativeSummary, per spec.md §9).
func (c *Checker) Check(m *hir.Module) *AnalysisReport {
	report := &AnalysisReport{}
	for _, fn := range m.Funcs {
		report.Funcs = append(report.Funcs, c.checkFunc(m, fn))
	}
	return report
}

// CheckFunc runs the analysis for a single function, exported so a caller
// that wants per-function granularity (internal/cache's content-hash-keyed
// memoization, internal/driver's progress reporting) can drive the checker
// one function at a time instead of through the whole-module Check loop.
// Callers doing this must still invoke it in declaration order, since a
// function's summary must be memoized before callers later in the same
// pass resolve their own call sites against it.
func (c *Checker) CheckFunc(m *hir.Module, fn *hir.Func) FuncReport {
	return c.checkFunc(m, fn)
}

// checkFunc runs the fixed-point worklist for one function and returns its
// report. It also computes (and memoizes) fn's own call summary so later
// functions that call it can use a precise summary instead of the
// conservative fallback.
func (c *Checker) checkFunc(m *hir.Module, fn *hir.Func) FuncReport {
	layout := BuildLayout(fn)
	fn.Registry.Finalize()

	eng := &engine{
		m:           m,
		fn:          fn,
		layout:      layout,
		hosts:       c.Hosts,
		sums:        c.Summaries,
		facts:       newFacts(),
		paramAccess: make(map[hir.LocalID]ParamAccess, len(fn.Params)),
	}
	for _, p := range fn.Params {
		eng.paramAccess[p] = ParamShared
	}
	eng.sums.inProgress[fn.ID] = true
	eng.run()
	delete(eng.sums.inProgress, fn.ID)

	eng.sums.Put(fn.ID, eng.deriveSummary())

	rep := FuncReport{
		Func:            fn.ID,
		ReachableBlocks: len(layout.Graph.Reachable),
		Facts:           eng.facts,
		Issues:          eng.issues,
	}
	for _, s := range eng.mutableCallSites {
		rep.MutableCallSites = append(rep.MutableCallSites, s)
	}
	for b, exit := range eng.facts.BlockExit {
		count := 0
		for i := 1; i < len(exit.Locals); i++ {
			if exit.Locals[i].Mode == ModeAlias {
				count++
			}
		}
		if count > 1 {
			rep.AliasHeavyBlocks = append(rep.AliasHeavyBlocks, b)
		}
	}
	return rep
}

// engine carries one function's mutable analysis state through the
// worklist.
type engine struct {
	m      *hir.Module
	fn     *hir.Func
	layout *Layout
	hosts  *host.Registry
	sums   *SummaryCache
	facts  *Facts

	issues           []Issue
	mutableCallSites []hir.StatementID

	// paramAccess tracks, for each of fn's own parameters, the most
	// restrictive access the function body was observed to make against it -
	// the raw material for this function's own call Summary (spec.md §4.F
	// "Call summaries").
	paramAccess map[hir.LocalID]ParamAccess
}

// run seeds IN[entry] and iterates the worklist to a fixpoint (spec.md
// §4.F "Worklist"). Convergence is guaranteed because the lattice has
// finite height and root sets only grow.
func (e *engine) run() {
	n := e.layout.NumLocs
	params := make([]int, len(e.fn.Params))
	for i, p := range e.fn.Params {
		params[i] = int(p)
	}

	in := map[hir.BlockID]FuncState{e.fn.Entry: NewInitialState(n, params)}
	out := map[hir.BlockID]FuncState{}

	queue := []hir.BlockID{e.fn.Entry}
	queued := map[hir.BlockID]bool{e.fn.Entry: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queued[id] = false

		// IN[b] = join over predecessor OUTs (plus any already-seeded IN,
		// e.g. the entry block's initial state, which has no predecessor).
		var preds []FuncState
		if seeded, ok := in[id]; ok {
			preds = append(preds, seeded)
		}
		for _, p := range e.layout.Graph.Predecessors[id] {
			if o, ok := out[p]; ok {
				preds = append(preds, o)
			}
		}
		joined := Join(preds)
		if !joined.IsValid() {
			continue // no predecessor has produced a fact yet
		}
		in[id] = joined
		e.facts.BlockEntry[id] = joined

		blk, ok := e.fn.Block(id)
		if !ok {
			continue
		}
		newOut := e.transferBlock(joined, blk)
		e.facts.BlockExit[id] = newOut

		prevOut, had := out[id]
		if had && prevOut.Equal(newOut) {
			continue
		}
		out[id] = newOut

		for _, s := range cfg.Successors(&blk.Terminator) {
			if !queued[s] {
				queue = append(queue, s)
				queued[s] = true
			}
		}
	}
}

// report records an issue without halting analysis of the rest of the
// function (spec.md §7: "Errors do not halt analysis of other functions").
func (e *engine) report(kind IssueKind, place hir.PlaceID, span source.Span, note string) {
	e.issues = append(e.issues, Issue{Kind: kind, Func: e.fn.ID, Place: place, Primary: span, Note: note})
}

// touchParam ratchets access up (never down) for a local that is one of
// fn's own parameters; no-op for any other local.
func (e *engine) touchParam(root hir.LocalID, access ParamAccess) {
	if cur, ok := e.paramAccess[root]; ok {
		e.paramAccess[root] = minAccess(cur, access)
	}
}

func paramIndex(f *hir.Func, root hir.LocalID) int {
	for i, p := range f.Params {
		if p == root {
			return i
		}
	}
	return -1
}
