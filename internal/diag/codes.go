package diag

import "fmt"

// Code identifies a diagnostic's kind. Ranges follow spec.md §7's error
// taxonomy (Lowering/Type/Borrow/Validation/Emission), the same
// code-range-per-phase convention the teacher uses for its Lex/Syn/Sema
// split.
type Code uint16

const (
	UnknownCode Code = 0

	// Lowering - internal/hirbuild: malformed AST, unknown symbol,
	// arity/RPN mismatch (spec.md §4.D, §7).
	LowerInfo               Code = 1000
	LowerRPNStackUnderflow  Code = 1001
	LowerRPNTrailingValues  Code = 1002
	LowerUnknownSymbol      Code = 1003
	LowerArityMismatch      Code = 1004
	LowerUnknownHostImport  Code = 1005
	LowerMalformedStatement Code = 1006
	LowerMalformedExpr      Code = 1007
	LowerBreakOutsideLoop   Code = 1008
	LowerContinueOutsideLoop Code = 1009
	LowerUnresolvedMatchArm Code = 1010

	// Type - surfaced for completeness; type inference itself is a
	// front-end responsibility (spec.md §4.D "Non-goals").
	TypeInfo        Code = 2000
	TypeMismatch    Code = 2001
	TypeArityError  Code = 2002
	TypeUnknownType Code = 2003

	// Borrow - internal/borrow's fixed-point dataflow (spec.md §4.F, §7).
	// One code per borrow.IssueKind, same ordering.
	BorrowInfo                 Code = 3000
	BorrowUseBeforeInit        Code = 3001
	BorrowUseAfterMove         Code = 3002
	BorrowMoveWhileBorrowed    Code = 3003
	BorrowMutableConflict      Code = 3004
	BorrowImmutableReassign    Code = 3005
	BorrowHostAccessMismatch   Code = 3006
	BorrowUnresolvedCallTarget Code = 3007

	// Validation - internal/hir.Validate: a broken structural invariant.
	// Spec.md §7 marks these "should be impossible from a correct
	// builder" - hitting one is reported at SevICE, not SevError.
	ValidationInfo             Code = 4000
	ValidationDanglingBlock    Code = 4001
	ValidationUnresolvedFunc   Code = 4002
	ValidationMalformedJump    Code = 4003
	ValidationDuplicateLocal   Code = 4004
	ValidationMissingTerm      Code = 4005

	// Emission - internal/jsback and internal/wasmback (spec.md §4.J
	// "Failure modes", §4.H).
	EmissionInfo                 Code = 5000
	EmissionUnsupportedConstruct Code = 5001
	EmissionSignatureMismatch    Code = 5002
	EmissionUnclosedBlock        Code = 5003
	EmissionBranchOutOfRange     Code = 5004
	EmissionTypeIndexOutOfRange  Code = 5005

	// Project/config - internal/project's beanstalk.toml parsing.
	ProjInfo           Code = 6000
	ProjInvalidConfig  Code = 6001
	ProjMissingManifest Code = 6002

	// ICE - a Validation-range diagnostic whose severity is escalated to
	// SevICE; this separate block exists only for spec.md §7's "Internal-
	// compiler-errors include the responsible HIR ID for bug-filing".
	ICEInfo  Code = 9000
	ICEPanic Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	LowerInfo:                "lowering information",
	LowerRPNStackUnderflow:   "RPN stack underflow: operator found fewer operands than its arity",
	LowerRPNTrailingValues:   "RPN expression lowering ended with more than one residual value",
	LowerUnknownSymbol:       "reference to an unresolved name",
	LowerArityMismatch:       "call arity does not match the callee's declared parameter count",
	LowerUnknownHostImport:   "call to a host function absent from the host registry",
	LowerMalformedStatement:  "malformed statement in AST",
	LowerMalformedExpr:       "malformed expression in AST",
	LowerBreakOutsideLoop:    "break outside of a loop",
	LowerContinueOutsideLoop: "continue outside of a loop",
	LowerUnresolvedMatchArm:  "match arm pattern not supported (literals and wildcards only)",

	TypeInfo:        "type information",
	TypeMismatch:    "type mismatch",
	TypeArityError:  "type argument arity mismatch",
	TypeUnknownType: "reference to an unknown type",

	BorrowInfo:                 "borrow-check information",
	BorrowUseBeforeInit:        "use of a local before it is initialized",
	BorrowUseAfterMove:         "use of a value after it was moved",
	BorrowMoveWhileBorrowed:    "cannot move out of a value while it is borrowed",
	BorrowMutableConflict:      "conflicting mutable and shared/mutable access to the same root",
	BorrowImmutableReassign:    "assignment to an immutable local",
	BorrowHostAccessMismatch:   "argument access kind does not match the host function's declared parameter access",
	BorrowUnresolvedCallTarget: "call to a function absent from both the host registry and the module",

	ValidationInfo:           "structural validation information",
	ValidationDanglingBlock:  "terminator references a block that does not exist",
	ValidationUnresolvedFunc: "call references a function that does not exist",
	ValidationMalformedJump:  "jump terminator carries block arguments, which must be empty in emitted HIR",
	ValidationDuplicateLocal: "local declared in more than one block",
	ValidationMissingTerm:    "block has no terminator",

	EmissionInfo:                 "emission information",
	EmissionUnsupportedConstruct: "construct not supported by this backend",
	EmissionSignatureMismatch:    "host import signature does not match its call sites",
	EmissionUnclosedBlock:        "structured control-flow block left open at function end",
	EmissionBranchOutOfRange:     "branch target depth exceeds the open structured-block stack",
	EmissionTypeIndexOutOfRange:  "type section index out of range",

	ProjInfo:            "project configuration information",
	ProjInvalidConfig:   "invalid beanstalk.toml value",
	ProjMissingManifest: "missing beanstalk.toml manifest",

	ICEInfo:  "internal compiler error",
	ICEPanic: "internal compiler error: invariant violated",
}

// ID renders the code's stable string form, e.g. "BOR3002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BOR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("EMI%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

// Title returns the human-readable description registered for c.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Phase reports which pipeline phase a code belongs to, used by
// internal/driver to attribute diagnostics to a driver.Stage.
func (c Code) Phase() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return "lower"
	case ic >= 2000 && ic < 3000:
		return "type"
	case ic >= 3000 && ic < 4000:
		return "borrow"
	case ic >= 4000 && ic < 5000:
		return "validate"
	case ic >= 5000 && ic < 6000:
		return "emit"
	case ic >= 6000 && ic < 7000:
		return "project"
	default:
		return "ice"
	}
}
