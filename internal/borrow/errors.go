package borrow

import (
	"fmt"

	"beanstalk/internal/hir"
	"beanstalk/internal/source"
)

// IssueKind enumerates the borrow error taxonomy of spec.md §7.
type IssueKind uint8

const (
	IssueUseBeforeInit IssueKind = iota
	IssueUseAfterMove
	IssueMoveWhileBorrowed
	IssueMutableConflict
	IssueImmutableReassignment
	IssueHostAccessMismatch
	IssueUnresolvedCallTarget
)

func (k IssueKind) String() string {
	switch k {
	case IssueUseBeforeInit:
		return "use-before-init"
	case IssueUseAfterMove:
		return "use-after-move"
	case IssueMoveWhileBorrowed:
		return "move-while-borrowed"
	case IssueMutableConflict:
		return "mutable-conflict"
	case IssueImmutableReassignment:
		return "immutable-reassignment"
	case IssueHostAccessMismatch:
		return "host-call-access-kind-mismatch"
	case IssueUnresolvedCallTarget:
		return "unresolved-call-target"
	default:
		return "unknown-borrow-issue"
	}
}

// Issue is one borrow-check failure, carrying enough context for a
// diagnostic rendering and for bug-filing (spec.md §7 "Propagation
// policy").
type Issue struct {
	Kind     IssueKind
	Func     hir.FunctionID
	Place    hir.PlaceID
	Primary  source.Span
	Prior    source.Span // the offending prior borrow's location, if any
	Note     string
	Suggest  string
}

func (i Issue) Error() string {
	if i.Note != "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Note)
	}
	return i.Kind.String()
}
