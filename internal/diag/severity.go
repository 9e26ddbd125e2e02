package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
	// SevICE marks an internal-compiler-error: a structural invariant the
	// builder should have guaranteed was violated (spec.md §7
	// Validation). One rung above SevError.
	SevICE
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevICE:
		return "ICE"
	}
	return "UNKNOWN"
}
