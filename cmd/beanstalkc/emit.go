package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"beanstalk/internal/lir"
	"beanstalk/internal/project"
	"beanstalk/internal/wasmback"
)

var emitJSCmd = &cobra.Command{
	Use:   "emit-js <ast-bundle.json>",
	Short: "Lower an AST bundle to JavaScript and print it to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmitJS,
}

var emitWasmCmd = &cobra.Command{
	Use:   "emit-wasm <ast-bundle.json>",
	Short: "Lower an AST bundle to validated WASM-ready LIR and print it to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmitWasm,
}

func runEmitJS(cmd *cobra.Command, args []string) error {
	manifest, _ := cmd.Flags().GetString("manifest")
	useCache, _ := cmd.Flags().GetBool("cache")

	files, err := loadASTBundle(args[0])
	if err != nil {
		return err
	}
	p, err := newPipeline(manifest, useCache, string(project.TargetJS), nil)
	if err != nil {
		return err
	}
	res, err := p.Run(context.Background(), files)
	if err != nil {
		return err
	}
	printDiagnostics(res.Diags)
	if res.Diags.HasErrors() {
		return fmt.Errorf("emit-js failed with %d diagnostic(s)", res.Diags.Len())
	}
	fmt.Print(res.JS)
	return nil
}

func runEmitWasm(cmd *cobra.Command, args []string) error {
	manifest, _ := cmd.Flags().GetString("manifest")
	useCache, _ := cmd.Flags().GetBool("cache")

	files, err := loadASTBundle(args[0])
	if err != nil {
		return err
	}
	p, err := newPipeline(manifest, useCache, string(project.TargetWasm), nil)
	if err != nil {
		return err
	}
	res, err := p.Run(context.Background(), files)
	if err != nil {
		return err
	}
	printDiagnostics(res.Diags)
	if res.Diags.HasErrors() {
		return fmt.Errorf("emit-wasm failed with %d diagnostic(s)", res.Diags.Len())
	}
	fmt.Print(renderWasmModule(res.WASM))
	return nil
}

// renderWasmModule is a debug dump (spec.md's supplemented "IR emitter
// text dump" feature, SPEC_FULL.md §3): the LIR pretty-printer plus the
// import/export/memory bookkeeping wasmback.Build computed alongside it.
// Not part of the WASM/JS output contracts - there is no byte encoder in
// this repo, per internal/wasmback's package doc.
func renderWasmModule(m *wasmback.Module) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "; imports (%d):\n", len(m.Imports))
	for i, im := range m.Imports {
		fmt.Fprintf(&buf, ";   [%d] %s.%s %v -> %v\n", i, im.Module, im.ImportName, im.ParamTypes, im.ResultType)
	}
	fmt.Fprintf(&buf, "; exports (%d):\n", len(m.Exports))
	for _, ex := range m.Exports {
		fmt.Fprintf(&buf, ";   %s -> func[%d]\n", ex.Name, ex.FuncIndex)
	}
	fmt.Fprintf(&buf, "; data segments (%d):\n", len(m.Data))
	for _, d := range m.Data {
		fmt.Fprintf(&buf, ";   @%d: %d bytes\n", d.Offset, len(d.Bytes))
	}
	buf.WriteString("\n")
	lir.Print(&buf, m.LIR)
	return buf.String()
}
