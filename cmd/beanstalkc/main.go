// Command beanstalkc is the Beanstalk middle-end CLI: it takes a pre-parsed
// AST bundle (the tokenizer/parser/header pre-pass is explicitly out of
// scope, spec.md §1) and drives it through internal/driver's
// HIR -> borrow-check -> {JS, WASM} pipeline.
//
// Modeled on the teacher's cmd/surge: one cobra root command, persistent
// flags for color, diagnostic cap, manifest path and cache, subcommands
// registered in main.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beanstalk/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "beanstalkc",
	Short: "Beanstalk middle-end compiler",
	Long:  "beanstalkc lowers a parsed Beanstalk AST bundle to JS and/or validated WASM-ready LIR.",
}

func main() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(emitJSCmd)
	rootCmd.AddCommand(emitWasmCmd)

	rootCmd.PersistentFlags().String("color", "auto", "color mode (auto|on|off); not read, diagnostics always print without color")
	rootCmd.PersistentFlags().Int("max-diagnostics", 4096, "diagnostic cap; not read, the pipeline's bag always holds up to 4096")
	rootCmd.PersistentFlags().String("manifest", "beanstalk.toml", "path to the project manifest")
	rootCmd.PersistentFlags().Bool("cache", true, "enable the on-disk borrow-check cache")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
