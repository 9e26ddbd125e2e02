package borrow

import (
	"beanstalk/internal/cfg"
	"beanstalk/internal/hir"
)

// Layout is the per-function scaffolding the dataflow engine and the
// candidate-move refinement need before the forward pass runs: local
// count and mutability, and a backward liveness pass giving each
// block's live-out root set (spec.md §4.F "Setup" step 2).
type Layout struct {
	Graph   *cfg.Graph
	NumLocs int
	Mutable []bool // indexed by local id

	// LiveOut[b] is the set of root locals live on exit from block b -
	// used by candidate-move refinement's last-use test.
	LiveOut map[hir.BlockID]Bitset
	// LiveIn mirrors LiveOut but on block entry.
	LiveIn map[hir.BlockID]Bitset
}

// BuildLayout computes the function layout described above.
func BuildLayout(f *hir.Func) *Layout {
	g := cfg.Build(f)
	n := f.Registry.NumLocals()

	mutable := make([]bool, n+1)
	for i := 1; i <= n; i++ {
		if info, ok := f.Registry.Local(hir.LocalID(i)); ok {
			mutable[i] = info.Mutable
		}
	}

	lay := &Layout{Graph: g, NumLocs: n, Mutable: mutable}
	lay.computeLiveness(f)
	return lay
}

// use/def extracts, for one block, the set of root locals read before any
// write (upward-exposed use) and the set of locals written anywhere in the
// block (kill set) - the two inputs standard liveness needs.
func (lay *Layout) useDef(f *hir.Func, b *hir.Block) (use, def Bitset) {
	use = NewBitset(lay.NumLocs)
	def = NewBitset(lay.NumLocs)

	touch := func(p hir.PlaceID) {
		root := f.Registry.RootLocal(p)
		if root.IsValid() && !def.Has(int(root)) {
			use.Set(int(root))
		}
	}
	touchValue := func(v hir.ValueID) {
		expr, ok := f.Expr(v)
		if !ok {
			return
		}
		walkExprPlaces(f, expr, touch)
	}
	markDef := func(p hir.PlaceID) {
		root := f.Registry.RootLocal(p)
		if root.IsValid() {
			def.Set(int(root))
		}
	}

	for _, s := range b.Stmts {
		switch s.Kind {
		case hir.StmtAssign:
			touchValue(s.Value)
			markDef(s.Target)
		case hir.StmtCall:
			for _, a := range s.Args {
				touchValue(a)
			}
			if s.Result.IsValid() {
				def.Set(int(s.Result))
			}
		case hir.StmtExpr:
			touchValue(s.ExprVal)
		case hir.StmtDrop:
			touch(s.DropPlace)
		}
	}
	switch b.Terminator.Kind {
	case hir.TermIf:
		touchValue(b.Terminator.Cond)
	case hir.TermMatch:
		touchValue(b.Terminator.Scrutinee)
	case hir.TermReturn:
		if b.Terminator.ReturnValue.IsValid() {
			touchValue(b.Terminator.ReturnValue)
		}
	}
	return use, def
}

// walkExprPlaces visits every Load place reachable from expr's operand
// tree, calling fn for each.
func walkExprPlaces(f *hir.Func, e hir.Expr, fn func(hir.PlaceID)) {
	switch e.Kind {
	case hir.ExprLoad:
		fn(e.Place)
	case hir.ExprUnary:
		if x, ok := f.Expr(e.X); ok {
			walkExprPlaces(f, x, fn)
		}
	case hir.ExprBinary:
		if l, ok := f.Expr(e.L); ok {
			walkExprPlaces(f, l, fn)
		}
		if r, ok := f.Expr(e.R); ok {
			walkExprPlaces(f, r, fn)
		}
	case hir.ExprCall:
		for _, a := range e.Args {
			if v, ok := f.Expr(a); ok {
				walkExprPlaces(f, v, fn)
			}
		}
	case hir.ExprCollection, hir.ExprTupleConstruct:
		for _, el := range e.Elems {
			if v, ok := f.Expr(el); ok {
				walkExprPlaces(f, v, fn)
			}
		}
	case hir.ExprRange:
		if lo, ok := f.Expr(e.Lo); ok {
			walkExprPlaces(f, lo, fn)
		}
		if hi, ok := f.Expr(e.Hi); ok {
			walkExprPlaces(f, hi, fn)
		}
	case hir.ExprStructConstruct:
		for _, fi := range e.Fields {
			if v, ok := f.Expr(fi.Value); ok {
				walkExprPlaces(f, v, fn)
			}
		}
	case hir.ExprOptionConstruct:
		if e.HasValue {
			if v, ok := f.Expr(e.Inner); ok {
				walkExprPlaces(f, v, fn)
			}
		}
	}
}

// computeLiveness runs the standard backward fixpoint:
//
//	LiveIn[b]  = Use[b] ∪ (LiveOut[b] - Def[b])
//	LiveOut[b] = ∪ LiveIn[s] for s in succ(b)
//
// to a fixpoint over the reachable block set.
func (lay *Layout) computeLiveness(f *hir.Func) {
	lay.LiveIn = make(map[hir.BlockID]Bitset, len(lay.Graph.Reachable))
	lay.LiveOut = make(map[hir.BlockID]Bitset, len(lay.Graph.Reachable))
	use := make(map[hir.BlockID]Bitset, len(lay.Graph.Reachable))
	def := make(map[hir.BlockID]Bitset, len(lay.Graph.Reachable))

	for _, id := range lay.Graph.Reachable {
		blk, _ := f.Block(id)
		u, d := lay.useDef(f, blk)
		use[id] = u
		def[id] = d
		lay.LiveIn[id] = NewBitset(lay.NumLocs)
		lay.LiveOut[id] = NewBitset(lay.NumLocs)
	}

	changed := true
	for changed {
		changed = false
		// iterate in reverse of reachable (approx reverse postorder)
		for i := len(lay.Graph.Reachable) - 1; i >= 0; i-- {
			id := lay.Graph.Reachable[i]

			newOut := NewBitset(lay.NumLocs)
			for _, s := range lay.Graph.Successors[id] {
				newOut.UnionInPlace(lay.LiveIn[s])
			}

			newIn := NewBitset(lay.NumLocs)
			newIn.UnionInPlace(use[id])
			rest := newOut.Clone()
			def[id].ForEach(func(l int) { rest.Clear(l) })
			newIn.UnionInPlace(rest)

			if !newIn.Equal(lay.LiveIn[id]) || !newOut.Equal(lay.LiveOut[id]) {
				changed = true
			}
			lay.LiveIn[id] = newIn
			lay.LiveOut[id] = newOut
		}
	}
}
