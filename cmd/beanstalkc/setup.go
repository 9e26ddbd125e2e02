package main

import (
	"fmt"
	"os"

	"beanstalk/internal/cache"
	"beanstalk/internal/diag"
	"beanstalk/internal/driver"
	"beanstalk/internal/host"
	"beanstalk/internal/project"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// newPipeline assembles a driver.Pipeline from CLI flags: fresh interners
// and a prelude host registry per invocation (the teacher's CLI is
// similarly one-shot per process, no daemon mode), the manifest's build
// config overridden by any explicit --target, and the on-disk cache
// rooted under the user's cache directory unless --cache=false.
func newPipeline(manifestPath string, useCache bool, targetOverride string, sink driver.ProgressSink) (*driver.Pipeline, error) {
	cfg := project.DefaultBuildConfig()
	if m, err := project.LoadManifest(manifestPath); err == nil {
		cfg = m.Build
	}
	if targetOverride != "" {
		cfg.Target = project.Target(targetOverride)
	}

	strs := source.NewInterner()
	paths := source.NewPathInterner(strs)
	typs := types.NewInterner()
	hosts := host.NewPreludeRegistry(typs)

	var diskCache *cache.DiskCache
	if useCache {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		diskCache, err = cache.Open(dir + "/beanstalkc")
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}

	return &driver.Pipeline{
		Types:   typs,
		Hosts:   hosts,
		Strings: strs,
		Paths:   paths,
		Cache:   diskCache,
		Sink:    sink,
		Config:  cfg,
	}, nil
}

// printDiagnostics writes a plain-text rendering of bag to stderr. It
// deliberately doesn't use internal/diagfmt's caret-excerpt pretty-printer:
// that printer resolves spans against a source.FileSet holding real file
// bytes, which beanstalkc's AST-bundle input boundary (see bundle.go) does
// not carry - the front end that would own that FileSet is out of scope
// here (spec.md §1).
func printDiagnostics(bag *diag.Bag) {
	bag.Sort()
	for _, d := range bag.Items() {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", d.Severity, d.Code, d.Message)
	}
}
