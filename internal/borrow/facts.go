package borrow

import "beanstalk/internal/hir"

// Facts records per-statement/terminator/value annotations the LIR lowerer
// and diagnostics consume (spec.md §4.F "Conflict check with facts"): in
// particular, whether a candidate-move site resolved to an actual Move or
// to a Borrow.
type Facts struct {
	// Resolution[stmtID] is set for every StmtAssign/StmtCall argument that
	// was a CandidateMove; true means Move, false means Borrow.
	Resolution map[hir.StatementID]bool

	// BlockEntry/BlockExit snapshot the dataflow state at each block
	// boundary (spec.md §6 "per-block entry/exit state snapshots").
	BlockEntry map[hir.BlockID]FuncState
	BlockExit  map[hir.BlockID]FuncState
}

func newFacts() *Facts {
	return &Facts{
		Resolution: make(map[hir.StatementID]bool),
		BlockEntry: make(map[hir.BlockID]FuncState),
		BlockExit:  make(map[hir.BlockID]FuncState),
	}
}

// FuncReport summarizes one function's analysis for the external
// AnalysisReport (spec.md §6): reachable blocks, mutable call-sites,
// alias-heavy blocks, plus the full facts and any issues.
type FuncReport struct {
	Func            hir.FunctionID
	ReachableBlocks int
	MutableCallSites []hir.StatementID
	AliasHeavyBlocks []hir.BlockID // blocks where >1 local holds ALIAS mode on exit
	Facts           *Facts
	Issues          []Issue
}

// AnalysisReport is the borrow checker's external interface (spec.md §6).
type AnalysisReport struct {
	Funcs []FuncReport
}

// HasErrors reports whether any function's analysis produced an issue.
func (r *AnalysisReport) HasErrors() bool {
	for _, f := range r.Funcs {
		if len(f.Issues) > 0 {
			return true
		}
	}
	return false
}
