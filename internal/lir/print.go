package lir

import (
	"fmt"
	"io"
	"strings"
)

// Print renders a module as an indented s-expression-flavored text dump,
// grounded in original_source/codegen/ir_emitter.rs's IR-dump idiom (same
// role as hir/print.go: a debug aid, called by cmd/beanstalkc's emit-wasm
// text dump, not part of the WASM/JS output contracts).
func Print(w io.Writer, m *Module) {
	for _, fn := range m.Functions {
		printFunction(w, fn)
	}
}

func printFunction(w io.Writer, fn *Function) {
	fmt.Fprintf(w, "func %s(", fn.Name) //nolint:errcheck
	for i, pt := range fn.ParamTypes {
		if i > 0 {
			fmt.Fprint(w, ", ") //nolint:errcheck
		}
		fmt.Fprint(w, pt.String()) //nolint:errcheck
	}
	fmt.Fprint(w, ")") //nolint:errcheck
	if len(fn.ResultType) > 0 {
		fmt.Fprint(w, " -> ") //nolint:errcheck
		for i, rt := range fn.ResultType {
			if i > 0 {
				fmt.Fprint(w, ", ") //nolint:errcheck
			}
			fmt.Fprint(w, rt.String()) //nolint:errcheck
		}
	}
	if fn.Exported {
		fmt.Fprint(w, " (export)") //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck

	for i, l := range fn.Locals {
		name := l.Name
		if name == "" {
			name = fmt.Sprintf("$t%d", i)
		}
		fmt.Fprintf(w, "  local %d: %s %s\n", i, l.Type, name) //nolint:errcheck
	}
	printBody(w, fn.Body, 1)
	fmt.Fprintln(w) //nolint:errcheck
}

func printBody(w io.Writer, body []Instr, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range body {
		fmt.Fprint(w, indent) //nolint:errcheck
		printInstr(w, in, depth)
	}
}

func printInstr(w io.Writer, in Instr, depth int) {
	switch in.Op {
	case OpConst:
		switch in.Type {
		case I32:
			fmt.Fprintf(w, "i32.const %d\n", in.I32Val) //nolint:errcheck
		case I64:
			fmt.Fprintf(w, "i64.const %d\n", in.I64Val) //nolint:errcheck
		case F32:
			fmt.Fprintf(w, "f32.const %g\n", in.F32Val) //nolint:errcheck
		case F64:
			fmt.Fprintf(w, "f64.const %g\n", in.F64Val) //nolint:errcheck
		}
	case OpLoad, OpStore:
		fmt.Fprintf(w, "%s.%s offset=%d align=%d\n", in.Type, in.Op, in.Offset, in.Align) //nolint:errcheck
	case OpLocalGet, OpLocalSet, OpLocalTee:
		fmt.Fprintf(w, "%s %d\n", in.Op, in.Local) //nolint:errcheck
	case OpCall:
		fmt.Fprintf(w, "call %d\n", in.FuncIndex) //nolint:errcheck
	case OpBr, OpBrIf:
		fmt.Fprintf(w, "%s %d\n", in.Op, in.Depth) //nolint:errcheck
	case OpBlock, OpLoop:
		fmt.Fprintf(w, "%s\n", in.Op) //nolint:errcheck
		printBody(w, in.Then, depth+1)
		fmt.Fprint(w, strings.Repeat("  ", depth)) //nolint:errcheck
		fmt.Fprintln(w, "end")                     //nolint:errcheck
	case OpIf:
		fmt.Fprintln(w, "if") //nolint:errcheck
		printBody(w, in.Then, depth+1)
		if in.Else != nil {
			fmt.Fprint(w, strings.Repeat("  ", depth)) //nolint:errcheck
			fmt.Fprintln(w, "else")                    //nolint:errcheck
			printBody(w, in.Else, depth+1)
		}
		fmt.Fprint(w, strings.Repeat("  ", depth)) //nolint:errcheck
		fmt.Fprintln(w, "end")                     //nolint:errcheck
	default:
		if in.Type != I32 || in.Op == OpEqz {
			fmt.Fprintf(w, "%s.%s\n", in.Type, in.Op) //nolint:errcheck
		} else {
			fmt.Fprintf(w, "%s\n", in.Op) //nolint:errcheck
		}
	}
}
