package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beanstalk/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build <ast-bundle.json>",
	Short: "Lower an AST bundle to every target configured in beanstalk.toml",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("out", "", "output directory (defaults to the current directory)")
	buildCmd.Flags().String("target", "", "override the manifest's build.target (wasm|js|both)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	manifest, _ := cmd.Flags().GetString("manifest")
	useCache, _ := cmd.Flags().GetBool("cache")
	target, _ := cmd.Flags().GetString("target")
	out, _ := cmd.Flags().GetString("out")

	files, err := loadASTBundle(args[0])
	if err != nil {
		return err
	}

	p, err := newPipeline(manifest, useCache, target, nil)
	if err != nil {
		return err
	}

	res, err := p.Run(context.Background(), files)
	if err != nil {
		return err
	}
	printDiagnostics(res.Diags)

	if res.JS != "" {
		if err := writeOutput(out, "out.js", []byte(res.JS)); err != nil {
			return err
		}
	}
	if res.WASM != nil {
		dump := renderWasmModule(res.WASM)
		if err := writeOutput(out, "out.wasm.txt", []byte(dump)); err != nil {
			return err
		}
	}

	if res.Diags.HasErrors() {
		return fmt.Errorf("build failed with %d diagnostic(s)", res.Diags.Len())
	}
	fmt.Fprintf(os.Stderr, "build ok: hir=%s borrow=%s lower=%s\n",
		res.Timings.Stages[driver.StageHIR],
		res.Timings.Stages[driver.StageBorrowCheck],
		res.Timings.Total-res.Timings.Stages[driver.StageHIR]-res.Timings.Stages[driver.StageBorrowCheck])
	return nil
}

func writeOutput(dir, name string, data []byte) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(dir+"/"+name, data, 0o644)
}
