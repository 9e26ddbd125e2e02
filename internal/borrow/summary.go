package borrow

import "beanstalk/internal/hir"

// ParamAccess is the per-parameter access kind a user function's summary
// records, mirroring host.AccessKind so both summary kinds share one
// transfer-function code path.
type ParamAccess uint8

const (
	ParamShared ParamAccess = iota
	ParamMutable
	ParamOwned
)

// minAccess takes the most-restrictive access kind seen across all uses of
// a parameter (spec.md §4.F "Call summaries": "per-parameter access kind
// (min of {Shared, Mutable, Owned} across all uses)"). Owned is the most
// restrictive since it consumes the argument.
func minAccess(a, b ParamAccess) ParamAccess {
	if a > b {
		return a
	}
	return b
}

// ReturnAliasKind classifies a callee's return-value aliasing.
type ReturnAliasKind uint8

const (
	ReturnFresh ReturnAliasKind = iota
	ReturnArg
	ReturnUnknown
)

type ReturnAlias struct {
	Kind ReturnAliasKind
	Arg  int
}

// Summary is one function's call summary: per-parameter access kind and
// return-value aliasing, derived from analyzing the callee with a seeded
// state (spec.md §4.F).
type Summary struct {
	Params []ParamAccess
	Return ReturnAlias
}

// SummaryCache memoizes summaries per FunctionID (spec.md: "Summaries are
// memoized per FunctionId").
type SummaryCache struct {
	m map[hir.FunctionID]Summary
	// inProgress marks functions currently being analyzed, to detect
	// mutual recursion: the spec's documented quirk is that a single
	// iteration with conservative Unknown/Owned summaries is used as the
	// fixed point rather than iterating to a true fixpoint (spec.md §9
	// "Call summary for recursive user functions" - reproduce, don't fix).
	inProgress map[hir.FunctionID]bool
}

// NewSummaryCache creates an empty cache.
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{m: make(map[hir.FunctionID]Summary), inProgress: make(map[hir.FunctionID]bool)}
}

// Get returns a memoized summary, if present.
func (c *SummaryCache) Get(id hir.FunctionID) (Summary, bool) {
	s, ok := c.m[id]
	return s, ok
}

// Put memoizes a computed summary.
func (c *SummaryCache) Put(id hir.FunctionID, s Summary) {
	c.m[id] = s
}

// ConservativeSummary is the fallback used for a function whose summary
// isn't computed yet (forward reference or mutual recursion): every
// parameter Owned, return Unknown (spec.md §4.F call rule: "Unknown ... is
// the default for user functions whose summary is not yet computed").
func ConservativeSummary(numParams int) Summary {
	params := make([]ParamAccess, numParams)
	for i := range params {
		params[i] = ParamOwned
	}
	return Summary{Params: params, Return: ReturnAlias{Kind: ReturnUnknown}}
}
