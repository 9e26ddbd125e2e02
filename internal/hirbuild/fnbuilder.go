package hirbuild

import (
	"beanstalk/internal/ast"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// loopCtx records the jump targets a nested break/continue resolves
// against, and the region the loop body owns (for drop-insertion scoping).
type loopCtx struct {
	breakTarget    hir.BlockID
	continueTarget hir.BlockID
	region         hir.RegionID
}

// fnBuilder is the per-function lowering cursor: "the current block" plus
// the scope chain, loop-context stack, and region tracking that spec.md
// §4.D's block threading and drop insertion need. One fnBuilder is used for
// exactly one function body.
type fnBuilder struct {
	b   *Builder
	mod *hir.Module
	fn  *hir.Func

	cur       hir.BlockID
	curRegion hir.RegionID

	env        []map[string]hir.LocalID
	localTypes map[hir.LocalID]types.TypeID
	loops      []loopCtx

	terminated map[hir.BlockID]bool
	nextStmt   hir.StatementID

	failed bool
}

// buildFunc lowers one AST function declaration into an *hir.Func. It
// returns ok=false if lowering failed; the caller skips the function but
// continues with the rest of the module (spec.md §4.D "Failure semantics").
func (b *Builder) buildFunc(mod *hir.Module, decl *ast.FuncDecl, id hir.FunctionID) (*hir.Func, bool) {
	fn := &hir.Func{
		ID:         id,
		Name:       decl.Name,
		Exported:   decl.Exported,
		Entrypoint: decl.Entrypoint,
		ReturnType: b.funcRet[id],
		Registry:   hir.NewRegistry(),
		Regions:    hir.NewRegionTree(),
		Blocks:     make([]hir.Block, 1),
		Exprs:      make([]hir.Expr, 1),
	}

	fb := &fnBuilder{
		b:          b,
		mod:        mod,
		fn:         fn,
		curRegion:  hir.EntryRegionID,
		localTypes: make(map[hir.LocalID]types.TypeID),
		terminated: make(map[hir.BlockID]bool),
	}
	fb.pushScope()

	entry := fb.newBlock(hir.EntryRegionID)
	fn.Entry = entry
	fb.cur = entry

	for _, p := range decl.Params {
		own := ownershipFromString(p.Ownership)
		ty := b.resolveTypeName(p.Type)
		lid := fb.declareLocal(p.Name, p.Mutable, own, true, false, ty)
		fn.Params = append(fn.Params, lid)
		fb.bind(p.Name, lid)
	}

	fb.lowerStmts(decl.Body)
	if !fb.failed && !fb.terminated[fb.cur] {
		fb.emitImplicitReturn(decl.Span)
	}
	fb.popScope()

	if fb.failed {
		return nil, false
	}

	fn.Registry.Finalize()
	mod.SideTable.FuncFQN[id] = b.paths.InternPath(decl.FQN)
	mod.SideTable.FuncLoc[id] = decl.Span
	return fn, true
}

// ownershipFromString maps the front end's resolved ownership spelling onto
// hir.Ownership (hir/ownership.go's doc comment explains why the
// destination local, not an explicit expression kind, carries this).
func ownershipFromString(s string) hir.Ownership {
	switch s {
	case "ref":
		return hir.OwnershipRef
	case "refmut":
		return hir.OwnershipRefMut
	case "copy":
		return hir.OwnershipCopy
	default:
		return hir.OwnershipOwn
	}
}

func (fb *fnBuilder) error(code diag.Code, sp source.Span, format string, args ...any) {
	fb.b.errorf(code, sp, format, args...)
	fb.failed = true
}

func (fb *fnBuilder) pushScope() { fb.env = append(fb.env, make(map[string]hir.LocalID)) }
func (fb *fnBuilder) popScope()  { fb.env = fb.env[:len(fb.env)-1] }

func (fb *fnBuilder) bind(name string, id hir.LocalID) {
	if name == "" {
		return
	}
	fb.env[len(fb.env)-1][name] = id
}

func (fb *fnBuilder) resolveName(name string) (hir.LocalID, bool) {
	for i := len(fb.env) - 1; i >= 0; i-- {
		if id, ok := fb.env[i][name]; ok {
			return id, true
		}
	}
	return hir.NoLocalID, false
}

// declareLocal allocates a local, records it in the region tree and the
// enclosing block's declaration list, and remembers its resolved type (HIR
// locals carry no Type field of their own - see types/interner.go's role).
func (fb *fnBuilder) declareLocal(name string, mutable bool, own hir.Ownership, isParam, isTemp bool, ty types.TypeID) hir.LocalID {
	lid := fb.fn.Registry.NewLocalWithOwnership(mutable, fb.curRegion, name, isParam, isTemp, own)
	fb.fn.Regions.AddLocal(fb.curRegion, lid)
	blk := &fb.fn.Blocks[fb.cur]
	blk.Locals = append(blk.Locals, lid)
	fb.localTypes[lid] = ty
	fb.fn.Registry.SetLocalType(lid, ty)
	if name != "" {
		fb.mod.SideTable.LocalName[lid] = name
	}
	return lid
}

func (fb *fnBuilder) newBlock(region hir.RegionID) hir.BlockID {
	id := hir.BlockID(len(fb.fn.Blocks))
	fb.fn.Blocks = append(fb.fn.Blocks, hir.Block{ID: id, Region: region})
	return id
}

func (fb *fnBuilder) enterBlock(id hir.BlockID, region hir.RegionID) {
	fb.cur = id
	fb.curRegion = region
}

func (fb *fnBuilder) setTerm(block hir.BlockID, t hir.Terminator) {
	fb.fn.Blocks[block].Terminator = t
	fb.terminated[block] = true
}

func (fb *fnBuilder) addExpr(e hir.Expr) hir.ValueID {
	id := hir.ValueID(len(fb.fn.Exprs))
	e.ID = id
	fb.fn.Exprs = append(fb.fn.Exprs, e)
	return id
}

func (fb *fnBuilder) addStmt(s hir.Stmt) {
	fb.nextStmt++
	s.ID = fb.nextStmt
	blk := &fb.fn.Blocks[fb.cur]
	blk.Stmts = append(blk.Stmts, s)
}

// emitRegionDrops emits a structural Drop for every Own-qualified local
// declared directly in region, conservatively (spec.md §4.D: "if in doubt,
// emit the drop" - Ref/RefMut/Copy locals never own storage to free).
func (fb *fnBuilder) emitRegionDrops(region hir.RegionID) {
	reg, ok := fb.fn.Regions.Region(region)
	if !ok {
		return
	}
	for _, lid := range reg.Locals {
		info, ok := fb.fn.Registry.Local(lid)
		if !ok || info.Ownership != hir.OwnershipOwn {
			continue
		}
		place := fb.fn.Registry.InternLocal(lid)
		fb.addStmt(hir.Stmt{Kind: hir.StmtDrop, DropPlace: place})
	}
}

// isCopyType reports whether ty has copy semantics (a read never moves or
// consumes its source), used to pick the Ownership a hoisted temporary
// gets.
func (fb *fnBuilder) isCopyType(ty types.TypeID) bool {
	t, ok := fb.b.Types.Lookup(ty)
	if !ok {
		return false
	}
	switch t.Kind {
	case types.KindBool, types.KindChar, types.KindInt, types.KindFloat:
		return true
	default:
		return false
	}
}
