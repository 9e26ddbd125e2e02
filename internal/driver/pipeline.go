// Package driver assembles the middle-end stages - internal/hirbuild,
// internal/borrow, internal/jsback, internal/wasmback - into one pipeline,
// reporting per-function progress and timings the way the teacher's
// internal/driver orchestrates tokenize -> parse -> diagnose -> lower
// (see the teacher's parallel_diagnose.go for the errgroup fan-out shape
// this package adapts).
package driver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"beanstalk/internal/ast"
	"beanstalk/internal/borrow"
	"beanstalk/internal/cache"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/hirbuild"
	"beanstalk/internal/host"
	"beanstalk/internal/jsback"
	"beanstalk/internal/project"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
	"beanstalk/internal/wasmback"
)

// Pipeline holds everything every stage needs, built once per compilation.
type Pipeline struct {
	Types   *types.Interner
	Hosts   *host.Registry
	Strings *source.Interner
	Paths   *source.PathInterner
	Cache   *cache.DiskCache // nil disables memoization
	Sink    ProgressSink     // nil disables progress reporting
	Config  project.BuildConfig
}

// Result is everything a pipeline Run produces.
type Result struct {
	HIR     *hir.Module
	Borrow  *borrow.AnalysisReport
	JS      string
	WASM    *wasmback.Module
	Diags   *diag.Bag
	Timings Timings
}

// Run executes the full pipeline over files: HIR construction, borrow
// checking (cache-assisted, per function, in declaration order), and
// backend lowering (spec.md §6's target selector decides which of JS/WASM
// run; when both are requested they run concurrently, since neither reads
// the other's output - SPEC_FULL.md §2's "permitted, not required" coarse
// parallelism).
func (p *Pipeline) Run(ctx context.Context, files []*ast.File) (*Result, error) {
	timings := newTimings()
	bag := diag.NewBag(4096)

	t0 := time.Now()
	send(p.Sink, Event{Stage: StageHIR, Status: StatusWorking})
	builder := hirbuild.New(p.Types, p.Hosts, p.Strings, p.Paths, bag)
	mod := builder.Build(files)
	timings.add(StageHIR, time.Since(t0))
	send(p.Sink, Event{Stage: StageHIR, Status: StatusDone, Elapsed: time.Since(t0)})

	report, borrowElapsed := p.runBorrowCheck(mod)
	timings.add(StageBorrowCheck, borrowElapsed)

	res := &Result{HIR: mod, Borrow: report, Diags: bag, Timings: timings}

	var g errgroup.Group
	var jsBag, wBag *diag.Bag
	var jsElapsed, wElapsed time.Duration
	if p.Config.Target == project.TargetJS || p.Config.Target == project.TargetBoth {
		g.Go(func() error {
			t := time.Now()
			send(p.Sink, Event{Stage: StageLowerJS, Status: StatusWorking})
			js, b := jsback.EmitModule(mod, p.Strings, jsback.Options{EmitLocations: p.Config.EmitLocations})
			res.JS = js
			jsBag, jsElapsed = b, time.Since(t)
			send(p.Sink, Event{Stage: StageLowerJS, Status: StatusDone, Elapsed: jsElapsed})
			return nil
		})
	}
	if p.Config.Target == project.TargetWasm || p.Config.Target == project.TargetBoth {
		g.Go(func() error {
			t := time.Now()
			send(p.Sink, Event{Stage: StageLowerWASM, Status: StatusWorking})
			w, b := wasmback.Build(mod, p.Types, p.Hosts, p.Strings)
			res.WASM = w
			wBag, wElapsed = b, time.Since(t)
			send(p.Sink, Event{Stage: StageLowerWASM, Status: StatusDone, Elapsed: wElapsed})
			return nil
		})
	}
	_ = g.Wait() // neither backend returns an error; failures live in their diag.Bags

	// The shared bag and timings are only touched here, after both
	// backends have finished.
	if jsBag != nil {
		bag.Merge(jsBag)
		timings.add(StageLowerJS, jsElapsed)
	}
	if wBag != nil {
		bag.Merge(wBag)
		timings.add(StageLowerWASM, wElapsed)
	}
	res.Timings = timings

	return res, ctx.Err()
}

// runBorrowCheck drives borrow.Checker one function at a time, in
// declaration order (required - see borrow.Checker.CheckFunc's doc
// comment), consulting the cache before each and populating it after. A
// cache hit still seeds the checker's SummaryCache so later functions in
// the same Run resolve their call sites against a precise summary rather
// than ConservativeSummary.
func (p *Pipeline) runBorrowCheck(mod *hir.Module) (*borrow.AnalysisReport, time.Duration) {
	t0 := time.Now()
	checker := borrow.NewChecker(p.Hosts)
	report := &borrow.AnalysisReport{}

	for _, fn := range mod.Funcs {
		key := cache.FuncContentHash(fn)
		if payload, ok, _ := p.Cache.Get(key); ok {
			sum, issues := cache.FromPayload(payload)
			checker.Summaries.Put(fn.ID, sum)
			report.Funcs = append(report.Funcs, borrow.FuncReport{Func: fn.ID, Issues: issues})
			send(p.Sink, Event{Stage: StageBorrowCheck, Status: StatusCached, Item: fn.Name})
			continue
		}

		send(p.Sink, Event{Stage: StageBorrowCheck, Status: StatusWorking, Item: fn.Name})
		fr := checker.CheckFunc(mod, fn)
		report.Funcs = append(report.Funcs, fr)

		sum, _ := checker.Summaries.Get(fn.ID)
		_ = p.Cache.Put(key, cache.ToPayload(fn, sum, fr.Issues))

		status := StatusDone
		if len(fr.Issues) > 0 {
			status = StatusError
		}
		send(p.Sink, Event{Stage: StageBorrowCheck, Status: status, Item: fn.Name})
	}

	return report, time.Since(t0)
}
