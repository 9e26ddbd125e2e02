package hir

import (
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// ValueKind classifies an expression for borrow-check and lowering
// purposes: a read of a place, a compile-time constant, or anything else.
type ValueKind uint8

const (
	ValuePlace ValueKind = iota
	ValueConst
	ValueRValue
)

// ExprKind enumerates HIR expression shapes (spec.md §3 HirExpression).
type ExprKind uint8

const (
	ExprLitInt ExprKind = iota
	ExprLitFloat
	ExprLitBool
	ExprLitChar
	ExprLitString
	ExprLoad // the only way a place becomes a value
	ExprUnary
	ExprBinary
	ExprCall
	ExprRange
	ExprCollection
	ExprStructConstruct
	ExprTupleConstruct
	ExprOptionConstruct
	ExprResultConstruct
)

// UnaryOp / BinaryOp enumerate the operators the builder can assemble.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNeq
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

// CallTargetKind distinguishes host imports from user functions.
type CallTargetKind uint8

const (
	CallHost CallTargetKind = iota
	CallUser
)

// CallTarget identifies the callee of a Call expression/statement.
type CallTarget struct {
	Kind CallTargetKind
	Name string              // CallHost: host registry key
	Func FunctionID          // CallUser
	Path source.InternedPath // CallUser: fully-qualified path, for diagnostics
}

// Expr is an HIR r-value: every expression has a unique ValueID, a
// resolved type, and a value-kind classification used by the borrow
// checker (Load is the only way a place becomes a value).
type Expr struct {
	ID    ValueID
	Kind  ExprKind
	Type  types.TypeID
	VKind ValueKind
	Span  source.Span

	// ExprLitInt/Float/Bool/Char
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	CharVal  rune

	// ExprLitString
	StrVal source.StringID

	// ExprLoad
	Place PlaceID

	// ExprUnary
	UnOp UnaryOp
	X    ValueID

	// ExprBinary
	BinOp BinaryOp
	L, R  ValueID

	// ExprCall
	Target CallTarget
	Args   []ValueID

	// ExprRange
	Lo, Hi ValueID
	RangeInclusive bool

	// ExprCollection / ExprTupleConstruct
	Elems []ValueID

	// ExprStructConstruct
	StructName string
	Fields     []StructFieldInit

	// ExprOptionConstruct: HasValue false == None
	HasValue bool
	Inner    ValueID

	// ExprResultConstruct: IsOk false == Err branch
	IsOk bool
}

// StructFieldInit binds one field during struct construction.
type StructFieldInit struct {
	Field FieldID
	Value ValueID
}

// IsPure reports whether evaluating this expression has no side effects
// and depends only on its already-evaluated operands - used by package
// borrow to classify a returned value as fresh.
func (e Expr) IsPure() bool {
	switch e.Kind {
	case ExprLitInt, ExprLitFloat, ExprLitBool, ExprLitChar, ExprLitString, ExprLoad, ExprUnary, ExprBinary:
		return true
	default:
		return false
	}
}
