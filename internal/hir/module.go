package hir

import (
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// StructDecl is a struct type declaration carried alongside HIR for the
// backends' memory-layout purposes.
type StructDecl struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// SideTable maps HIR handles to auxiliary data that isn't structural: source
// locations and fully-qualified names. It is the only place non-structural
// metadata lives (spec.md §3 HirModule invariant).
type SideTable struct {
	FuncLoc    map[FunctionID]source.Span
	FuncFQN    map[FunctionID]source.InternedPath
	LocalLoc   map[LocalID]source.Span
	LocalName  map[LocalID]string
	FieldName  map[FieldID]string

	// MoveOrBorrow is a slot for per-statement move/borrow refinement,
	// keyed by (FunctionID, StatementID) packed as func<<32|stmt. It is
	// created empty; package borrow reports its results in its own
	// FuncReport and no package writes or reads this map.
	MoveOrBorrow map[uint64]bool // true = resolved Move, false = Borrow
}

// NewSideTable creates an empty side table.
func NewSideTable() *SideTable {
	return &SideTable{
		FuncLoc:      make(map[FunctionID]source.Span),
		FuncFQN:      make(map[FunctionID]source.InternedPath),
		LocalLoc:     make(map[LocalID]source.Span),
		LocalName:    make(map[LocalID]string),
		FieldName:    make(map[FieldID]string),
		MoveOrBorrow: make(map[uint64]bool),
	}
}

// MoveKey packs a function+statement pair into the MoveOrBorrow map key.
func MoveKey(fn FunctionID, stmt StatementID) uint64 {
	return uint64(fn)<<32 | uint64(stmt)
}

// Module is the top-level HIR unit, corresponding to one compiled source
// file (or the whole program's merged function set, depending on how the
// driver invokes the builder - the data shape is the same either way).
type Module struct {
	Funcs         []*Func
	Structs       []StructDecl
	StartFunction FunctionID
	SideTable     *SideTable
}

// NewModule creates an empty module with an initialized side table.
func NewModule() *Module {
	return &Module{SideTable: NewSideTable()}
}

// FuncByID returns the function with the given ID, or nil.
func (m *Module) FuncByID(id FunctionID) *Func {
	for _, f := range m.Funcs {
		if f.ID == id {
			return f
		}
	}
	return nil
}
