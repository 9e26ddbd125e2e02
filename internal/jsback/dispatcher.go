package jsback

import (
	"fmt"

	"beanstalk/internal/cfg"
	"beanstalk/internal/hir"
)

// emitDispatcher renders a function containing a loop (or any other shape
// Classify rejected) as an explicit program-counter state machine: one
// `switch` case per reachable block, with every terminator rewritten into a
// `__pc` assignment plus `continue` instead of a structural jump (spec.md
// §4.G "Dispatcher"). This is always a safe fallback, so it never fails.
func (fe *funcEmitter) emitDispatcher() {
	g := cfg.Build(fe.fn)

	fmt.Fprintf(fe.out, "%slet __pc = %d;\n", fe.pad(), fe.fn.Entry)
	fmt.Fprintf(fe.out, "%swhile (true) {\n", fe.pad())
	fe.indent++
	fmt.Fprintf(fe.out, "%sswitch (__pc) {\n", fe.pad())
	fe.indent++

	for _, id := range g.Reachable {
		blk, ok := fe.fn.Block(id)
		if !ok {
			continue
		}
		fmt.Fprintf(fe.out, "%scase %d: {\n", fe.pad(), id)
		fe.indent++
		for _, s := range blk.Stmts {
			fe.emitStmt(s)
		}
		fe.emitDispatchTerm(blk.Terminator)
		fe.indent--
		fmt.Fprintf(fe.out, "%s}\n", fe.pad())
	}

	fmt.Fprintf(fe.out, "%sdefault: return;\n", fe.pad())
	fe.indent--
	fmt.Fprintf(fe.out, "%s}\n", fe.pad())
	fe.indent--
	fmt.Fprintf(fe.out, "%s}\n", fe.pad())
}

func (fe *funcEmitter) emitDispatchTerm(t hir.Terminator) {
	switch t.Kind {
	case hir.TermJump:
		fmt.Fprintf(fe.out, "%s__pc = %d; continue;%s\n", fe.pad(), t.JumpTarget, fe.locComment(t.Span))
	case hir.TermIf:
		fmt.Fprintf(fe.out, "%sif (%s) { __pc = %d; } else { __pc = %d; }\n", fe.pad(), fe.expr(t.Cond), t.Then, t.Else)
		fmt.Fprintf(fe.out, "%scontinue;%s\n", fe.pad(), fe.locComment(t.Span))
	case hir.TermMatch:
		for i, arm := range t.Arms {
			kw := "if"
			if i > 0 {
				kw = "} else if"
			}
			if arm.Pattern.Kind == hir.PatternWildcard {
				if i == 0 {
					fmt.Fprintf(fe.out, "%sif (true) {\n", fe.pad())
				} else {
					fmt.Fprintf(fe.out, "%s} else {\n", fe.pad())
				}
			} else {
				cond := fmt.Sprintf("%s === %s", fe.expr(t.Scrutinee), fe.expr(arm.Pattern.Lit))
				if arm.Guard.IsValid() {
					cond = fmt.Sprintf("%s && %s", cond, fe.expr(arm.Guard))
				}
				fmt.Fprintf(fe.out, "%s%s (%s) {\n", fe.pad(), kw, cond)
			}
			fmt.Fprintf(fe.out, "%s  __pc = %d;\n", fe.pad(), arm.Body)
		}
		fmt.Fprintf(fe.out, "%s}\n", fe.pad())
		fmt.Fprintf(fe.out, "%scontinue;%s\n", fe.pad(), fe.locComment(t.Span))
	case hir.TermLoop:
		fmt.Fprintf(fe.out, "%s__pc = %d; continue;%s\n", fe.pad(), t.LoopBody, fe.locComment(t.Span))
	case hir.TermBreak, hir.TermContinue:
		fmt.Fprintf(fe.out, "%s__pc = %d; continue;%s\n", fe.pad(), t.Target, fe.locComment(t.Span))
	case hir.TermReturn:
		fe.emitReturn(t)
	case hir.TermPanic:
		fe.emitPanic(t)
	}
}
