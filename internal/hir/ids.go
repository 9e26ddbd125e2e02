// Package hir is the High-level IR for Beanstalk: a typed, regionized
// control-flow graph lowered from the parsed AST. It sits between the front
// end (tokenizer/parser/header pre-pass, out of scope here) and the borrow
// checker, JS backend, and WASM backend.
//
// HIR is a pure data layer: the types in this package plus constructors and
// accessors. Structural invariants (every block terminates exactly once,
// every BlockId referenced exists, every LocalId declared exactly once) are
// enforced by Validate, not by the constructors themselves - that mirrors
// the teacher's split between a data package and its builder.
package hir

// LocalID identifies a local variable, parameter, or compiler-synthesized
// temporary within a single function. Dense and contiguous from one; zero is
// NoLocalID.
type LocalID uint32

// BlockID identifies a basic block within a single function.
type BlockID uint32

// RegionID identifies a lexical region (scope) within a single function.
// Regions form a tree rooted at the function body.
type RegionID uint32

// FunctionID identifies a function within a module.
type FunctionID uint32

// FieldID identifies a struct field by declaration order.
type FieldID uint32

// ValueID identifies an HIR expression (r-value) within a single function.
type ValueID uint32

// StatementID identifies an HIR statement within a single function.
type StatementID uint32

// Invalid-ID sentinels; zero is reserved in every handle space.
const (
	NoLocalID     LocalID     = 0
	NoBlockID     BlockID     = 0
	NoRegionID    RegionID    = 0
	NoFunctionID  FunctionID  = 0
	NoFieldID     FieldID     = 0
	NoValueID     ValueID     = 0
	NoStatementID StatementID = 0

	// EntryRegionID is the region tree's root, the function body itself.
	EntryRegionID RegionID = 1
)

func (id LocalID) IsValid() bool     { return id != NoLocalID }
func (id BlockID) IsValid() bool     { return id != NoBlockID }
func (id RegionID) IsValid() bool    { return id != NoRegionID }
func (id FunctionID) IsValid() bool  { return id != NoFunctionID }
func (id FieldID) IsValid() bool     { return id != NoFieldID }
func (id ValueID) IsValid() bool     { return id != NoValueID }
func (id StatementID) IsValid() bool { return id != NoStatementID }
