package lir

// LocalSlot describes one WASM-level local the function owns, in the
// allocation order spec.md §4.J.5 mandates: parameters, then declared
// locals, then temporaries.
type LocalSlot struct {
	Type NumType
	Name string // empty for temporaries
}

// Function is one HIR function lowered to LIR: a flat parameter/local
// table plus a structured instruction body.
type Function struct {
	Name       string
	Exported   bool
	ParamTypes []NumType
	ResultType []NumType // empty for a unit-returning function
	Locals     []LocalSlot
	Body       []Instr
}

// Module is the backend-neutral container internal/wasmback assembles
// before structural validation and (out of scope) byte encoding.
type Module struct {
	Functions []*Function
	// StartFunc is exported under spec.md §6's well-known start-function
	// name; set by wasmback once it has assigned indices.
	StartFunc string
}
