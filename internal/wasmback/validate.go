package wasmback

import (
	"fmt"

	"beanstalk/internal/diag"
	"beanstalk/internal/lir"
	"beanstalk/internal/source"
)

// validate structurally checks a built Module before any byte encoding
// would happen (spec.md §4.J.9): every Br/BrIf target depth is live, every
// OpCall/OpLocalGet/Set/Tee index is in range, and every export resolves to
// a real function. It never panics on a malformed module - it reports and
// continues, matching spec.md §7's "accumulate non-fatal diagnostics"
// failure mode.
func validate(m *Module, bag *diag.Bag) {
	funcCount := uint32(len(m.Imports) + len(m.LIR.Functions))
	for _, fn := range m.LIR.Functions {
		validateFunc(fn, funcCount, bag)
	}
	for _, ex := range m.Exports {
		if ex.FuncIndex >= funcCount {
			errorf(bag, diag.EmissionBranchOutOfRange, "export %q references out-of-range function index %d", ex.Name, ex.FuncIndex)
		}
	}
}

func validateFunc(fn *lir.Function, funcCount uint32, bag *diag.Bag) {
	localCount := uint32(len(fn.ParamTypes) + len(fn.Locals))
	walkBlock(fn.Name, fn.Body, 0, funcCount, localCount, bag)
}

// walkBlock recurses through a structured instruction list, tracking the
// open-block depth Br/BrIf validates against (spec.md §4.J.6: "Validates
// that every branch target depth is less than the current stack depth").
func walkBlock(fnName string, body []lir.Instr, depth uint32, funcCount, localCount uint32, bag *diag.Bag) {
	for _, in := range body {
		switch in.Op {
		case lir.OpCall:
			if in.FuncIndex >= funcCount {
				errorf(bag, diag.EmissionTypeIndexOutOfRange, "function %s: call to out-of-range function index %d", fnName, in.FuncIndex)
			}
		case lir.OpLocalGet, lir.OpLocalSet, lir.OpLocalTee:
			if in.Local >= localCount {
				errorf(bag, diag.EmissionTypeIndexOutOfRange, "function %s: local index %d out of range (have %d)", fnName, in.Local, localCount)
			}
		case lir.OpBr, lir.OpBrIf:
			if in.Depth >= depth {
				errorf(bag, diag.EmissionBranchOutOfRange, "function %s: branch depth %d has no enclosing block (open depth %d)", fnName, in.Depth, depth)
			}
		case lir.OpBlock, lir.OpLoop:
			walkBlock(fnName, in.Then, depth+1, funcCount, localCount, bag)
		case lir.OpIf:
			walkBlock(fnName, in.Then, depth+1, funcCount, localCount, bag)
			if in.Else != nil {
				walkBlock(fnName, in.Else, depth+1, funcCount, localCount, bag)
			}
		}
	}
}

func errorf(bag *diag.Bag, code diag.Code, format string, args ...any) {
	d := diag.NewError(code, source.Span{}, fmt.Sprintf(format, args...))
	bag.Add(&d)
}
