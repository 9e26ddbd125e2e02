package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <ast-bundle.json>",
	Short: "Run HIR construction and borrow checking without lowering to a backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	manifest, _ := cmd.Flags().GetString("manifest")
	useCache, _ := cmd.Flags().GetBool("cache")

	files, err := loadASTBundle(args[0])
	if err != nil {
		return err
	}
	// check never lowers to a backend: no target bits are set, so
	// driver.Pipeline.Run's errgroup fan-out launches neither stage.
	p, err := newPipeline(manifest, useCache, "", nil)
	if err != nil {
		return err
	}
	p.Config.Target = ""

	res, err := p.Run(context.Background(), files)
	if err != nil {
		return err
	}
	printDiagnostics(res.Diags)

	issues := 0
	for _, fr := range res.Borrow.Funcs {
		issues += len(fr.Issues)
	}
	fmt.Printf("checked %d function(s), %d borrow issue(s)\n", len(res.Borrow.Funcs), issues)

	if res.Diags.HasErrors() || issues > 0 {
		return fmt.Errorf("check failed")
	}
	return nil
}
