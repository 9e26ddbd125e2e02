package driver

import "time"

// Stage identifies one pipeline phase, for progress reporting
// (SPEC_FULL.md §2: "one tick per function through build -> borrow-check ->
// lower -> emit"). Named and ordered after the teacher's own
// diagnose-pipeline Stage enum (internal/driver/phase_observer.go in the
// teacher), retargeted to Beanstalk's HIR -> borrow -> {JS, WASM} shape.
type Stage uint8

const (
	StageHIR Stage = iota
	StageBorrowCheck
	StageLowerJS
	StageLowerWASM
)

func (s Stage) String() string {
	switch s {
	case StageHIR:
		return "hir"
	case StageBorrowCheck:
		return "borrow-check"
	case StageLowerJS:
		return "lower-js"
	case StageLowerWASM:
		return "lower-wasm"
	default:
		return "unknown"
	}
}

// Status is one Event's outcome, mirroring the teacher's
// Queued/Working/Done/Error status ladder.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusCached
	StatusDone
	StatusError
)

// Event is one progress notification, sent to a ProgressSink as the
// pipeline advances. Item is the function or stage-level artifact the
// event concerns; empty Item means a stage-wide event.
type Event struct {
	Stage   Stage
	Status  Status
	Item    string
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives pipeline events. A nil sink is valid - Send is a
// no-op in that case, so callers that don't want a UI (tests, `check`
// subcommand in non-interactive mode) don't need a stub implementation.
type ProgressSink interface {
	Send(Event)
}

// send is nil-safe, so Pipeline.Sink can be left unset.
func send(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.Send(ev)
	}
}

// Timings totals the wall-clock time spent in each stage across one Run.
type Timings struct {
	Stages map[Stage]time.Duration
	Total  time.Duration
}

func newTimings() Timings {
	return Timings{Stages: make(map[Stage]time.Duration)}
}

func (t *Timings) add(s Stage, d time.Duration) {
	t.Stages[s] += d
	t.Total += d
}
