package wasmback

import (
	"beanstalk/internal/hir"
	"beanstalk/internal/lir"
)

// lowerStmt lowers one HIR statement, appending its instructions to out.
func (fl *funcLowerer) lowerStmt(out *[]lir.Instr, s hir.Stmt) {
	switch s.Kind {
	case hir.StmtAssign:
		*out = append(*out, fl.lowerPlaceStore(s.Target, s.Value)...)
	case hir.StmtCall:
		for _, a := range s.Args {
			*out = append(*out, fl.lowerExprPush(a)...)
		}
		*out = append(*out, lir.Instr{Op: lir.OpCall, FuncIndex: fl.callIndex(s.Call)})
		if s.Result.IsValid() {
			idx, typ := fl.resolveLocal(s.Result)
			*out = append(*out, lir.Instr{Op: lir.OpLocalSet, Local: idx, Type: typ})
		} else if !fl.callIsUnit(s.Call) {
			*out = append(*out, lir.Instr{Op: lir.OpDrop})
		}
	case hir.StmtExpr:
		*out = append(*out, fl.lowerExprPush(s.ExprVal)...)
		if e, ok := fl.fn.Expr(s.ExprVal); ok && !fl.wb.isUnit(e.Type) {
			*out = append(*out, lir.Instr{Op: lir.OpDrop})
		}
	case hir.StmtDrop:
		// No allocator or refcounting is modeled this pass (spec.md §4.J's
		// memory model stops at a bump allocator); a structural drop has
		// nothing to release.
	}
}

func (fl *funcLowerer) callIndex(ct hir.CallTarget) uint32 {
	switch ct.Kind {
	case hir.CallHost:
		return fl.wb.hostIndex[ct.Name]
	case hir.CallUser:
		return fl.wb.userIndex[ct.Func]
	default:
		return 0
	}
}

func (fl *funcLowerer) callIsUnit(ct hir.CallTarget) bool {
	switch ct.Kind {
	case hir.CallHost:
		for _, d := range fl.wb.hosts.InDeclarationOrder() {
			if d.Name == ct.Name {
				return fl.wb.isUnit(d.Returns)
			}
		}
		return true
	case hir.CallUser:
		if f := fl.wb.mod.FuncByID(ct.Func); f != nil {
			return fl.wb.isUnit(f.ReturnType)
		}
		return true
	default:
		return true
	}
}

func (fl *funcLowerer) exprType(id hir.ValueID) lir.NumType {
	e, ok := fl.fn.Expr(id)
	if !ok {
		return lir.I32
	}
	return fl.wb.numType(e.Type)
}

func (fl *funcLowerer) resolveLocal(lid hir.LocalID) (uint32, lir.NumType) {
	info, _ := fl.fn.Registry.Local(lid)
	typ := fl.wb.numType(info.Type)
	if idx, ok := fl.paramIdx[lid]; ok {
		return idx, typ
	}
	return fl.localIdx[lid], typ
}

func (fl *funcLowerer) newTemp(t lir.NumType) uint32 {
	idx := fl.nextExtra
	fl.nextExtra++
	fl.extraLocals = append(fl.extraLocals, lir.LocalSlot{Type: t})
	return idx
}

// lowerExprPush lowers id to an instruction sequence that leaves exactly
// one value on the stack (spec.md §4.J.4: "Expressions lower to
// stack-push sequences").
func (fl *funcLowerer) lowerExprPush(id hir.ValueID) []lir.Instr {
	e, ok := fl.fn.Expr(id)
	if !ok {
		return nil
	}
	typ := fl.wb.numType(e.Type)
	switch e.Kind {
	case hir.ExprLitInt:
		if typ == lir.I64 {
			return []lir.Instr{{Op: lir.OpConst, Type: typ, I64Val: e.IntVal}}
		}
		return []lir.Instr{{Op: lir.OpConst, Type: typ, I32Val: int32(e.IntVal)}}
	case hir.ExprLitFloat:
		if typ == lir.F64 {
			return []lir.Instr{{Op: lir.OpConst, Type: typ, F64Val: e.FloatVal}}
		}
		return []lir.Instr{{Op: lir.OpConst, Type: typ, F32Val: float32(e.FloatVal)}}
	case hir.ExprLitBool:
		return []lir.Instr{{Op: lir.OpConst, Type: lir.I32, I32Val: boolToI32(e.BoolVal)}}
	case hir.ExprLitChar:
		return []lir.Instr{{Op: lir.OpConst, Type: lir.I32, I32Val: int32(e.CharVal)}}
	case hir.ExprLitString:
		return []lir.Instr{{Op: lir.OpConst, Type: lir.I32, I32Val: int32(fl.wb.stringOffset(e.StrVal))}}
	case hir.ExprLoad:
		return fl.lowerPlaceLoad(e.Place)
	case hir.ExprUnary:
		return fl.lowerUnary(e, typ)
	case hir.ExprBinary:
		return fl.lowerBinary(e)
	case hir.ExprCall:
		var out []lir.Instr
		for _, a := range e.Args {
			out = append(out, fl.lowerExprPush(a)...)
		}
		out = append(out, lir.Instr{Op: lir.OpCall, FuncIndex: fl.callIndex(e.Target)})
		return out
	case hir.ExprRange, hir.ExprCollection, hir.ExprStructConstruct,
		hir.ExprTupleConstruct, hir.ExprOptionConstruct, hir.ExprResultConstruct:
		return fl.lowerConstructPush(e)
	default:
		return nil
	}
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (fl *funcLowerer) lowerUnary(e hir.Expr, typ lir.NumType) []lir.Instr {
	switch e.UnOp {
	case hir.UnaryNeg:
		var zero lir.Instr
		if typ == lir.F32 {
			zero = lir.Instr{Op: lir.OpConst, Type: typ, F32Val: 0}
		} else if typ == lir.F64 {
			zero = lir.Instr{Op: lir.OpConst, Type: typ, F64Val: 0}
		} else {
			zero = lir.Instr{Op: lir.OpConst, Type: typ}
		}
		out := []lir.Instr{zero}
		out = append(out, fl.lowerExprPush(e.X)...)
		out = append(out, lir.Instr{Op: lir.OpSub, Type: typ})
		return out
	case hir.UnaryNot:
		out := fl.lowerExprPush(e.X)
		return append(out, lir.Instr{Op: lir.OpEqz, Type: typ})
	default:
		return fl.lowerExprPush(e.X)
	}
}

var binOpTable = map[hir.BinaryOp]lir.Op{
	hir.BinAdd: lir.OpAdd, hir.BinSub: lir.OpSub, hir.BinMul: lir.OpMul,
	hir.BinDiv: lir.OpDiv, hir.BinMod: lir.OpRem,
	hir.BinEq: lir.OpEq, hir.BinNeq: lir.OpNe,
	hir.BinLt: lir.OpLt, hir.BinLe: lir.OpLe, hir.BinGt: lir.OpGt, hir.BinGe: lir.OpGe,
	hir.BinAnd: lir.OpAnd, hir.BinOr: lir.OpOr,
}

func (fl *funcLowerer) lowerBinary(e hir.Expr) []lir.Instr {
	out := fl.lowerExprPush(e.L)
	out = append(out, fl.lowerExprPush(e.R)...)
	out = append(out, lir.Instr{Op: binOpTable[e.BinOp], Type: fl.exprType(e.L)})
	return out
}

// lowerPlaceLoad pushes the value a place currently holds.
func (fl *funcLowerer) lowerPlaceLoad(id hir.PlaceID) []lir.Instr {
	p, ok := fl.fn.Registry.Place(id)
	if !ok {
		return nil
	}
	switch p.Kind {
	case hir.PlaceLocal:
		idx, typ := fl.resolveLocal(p.Local)
		return []lir.Instr{{Op: lir.OpLocalGet, Local: idx, Type: typ}}
	case hir.PlaceField:
		offset, typ := fl.wb.fieldOffsetByID(p.Field)
		out := fl.lowerPlaceAddress(p.Base)
		return append(out, lir.Instr{Op: lir.OpLoad, Type: typ, Offset: offset})
	case hir.PlaceIndex:
		out := fl.lowerPlaceIndexAddress(p)
		return append(out, lir.Instr{Op: lir.OpLoad, Type: lir.I32, Offset: 0})
	default:
		return nil
	}
}

// lowerPlaceAddress pushes the linear-memory address a place's BASE
// projects from. Every struct/collection value in this backend's memory
// model is boxed by pointer (types.Type.Size's doc comment), so the
// address of whatever a place resolves to is exactly its loaded value -
// there is no separate address-of computation.
func (fl *funcLowerer) lowerPlaceAddress(id hir.PlaceID) []lir.Instr {
	return fl.lowerPlaceLoad(id)
}

// lowerPlaceIndexAddress computes an indexed place's element address,
// bounds-checking against the collection header's length word first
// (spec.md §4.J.7: "Bounds checks on indexed access call a reserved
// runtime function").
func (fl *funcLowerer) lowerPlaceIndexAddress(p hir.Place) []lir.Instr {
	base := fl.newTemp(lir.I32)
	idx := fl.newTemp(lir.I32)

	var out []lir.Instr
	out = append(out, fl.lowerPlaceAddress(p.Base)...)
	out = append(out, lir.Instr{Op: lir.OpLocalSet, Local: base})
	out = append(out, fl.lowerExprPush(p.Index)...)
	out = append(out, lir.Instr{Op: lir.OpLocalSet, Local: idx})

	out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: idx})
	out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: base})
	out = append(out, lir.Instr{Op: lir.OpLoad, Type: lir.I32, Offset: 0})
	out = append(out, lir.Instr{Op: lir.OpCall, FuncIndex: fl.wb.boundsFuncIdx})

	out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: base})
	out = append(out, lir.Instr{Op: lir.OpConst, Type: lir.I32, I32Val: int32(fl.wb.layout.HeaderBytes)})
	out = append(out, lir.Instr{Op: lir.OpAdd, Type: lir.I32})
	out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: idx})
	out = append(out, lir.Instr{Op: lir.OpConst, Type: lir.I32, I32Val: 4})
	out = append(out, lir.Instr{Op: lir.OpMul, Type: lir.I32})
	out = append(out, lir.Instr{Op: lir.OpAdd, Type: lir.I32})
	return out
}

// lowerPlaceStore stores value into place.
func (fl *funcLowerer) lowerPlaceStore(id hir.PlaceID, value hir.ValueID) []lir.Instr {
	p, ok := fl.fn.Registry.Place(id)
	if !ok {
		return nil
	}
	switch p.Kind {
	case hir.PlaceLocal:
		idx, typ := fl.resolveLocal(p.Local)
		out := fl.lowerExprPush(value)
		return append(out, lir.Instr{Op: lir.OpLocalSet, Local: idx, Type: typ})
	case hir.PlaceField:
		offset, typ := fl.wb.fieldOffsetByID(p.Field)
		out := fl.lowerPlaceAddress(p.Base)
		out = append(out, fl.lowerExprPush(value)...)
		return append(out, lir.Instr{Op: lir.OpStore, Type: typ, Offset: offset})
	case hir.PlaceIndex:
		out := fl.lowerPlaceIndexAddress(p)
		out = append(out, fl.lowerExprPush(value)...)
		return append(out, lir.Instr{Op: lir.OpStore, Type: lir.I32, Offset: 0})
	default:
		return nil
	}
}

func (fl *funcLowerer) storeWord(tmp uint32, offset uint32, val int32) []lir.Instr {
	return []lir.Instr{
		{Op: lir.OpLocalGet, Local: tmp},
		{Op: lir.OpConst, Type: lir.I32, I32Val: val},
		{Op: lir.OpStore, Type: lir.I32, Offset: offset},
	}
}

func (fl *funcLowerer) constructSize(e hir.Expr) uint32 {
	switch e.Kind {
	case hir.ExprStructConstruct:
		if sl, ok := fl.wb.layout.Structs[e.StructName]; ok {
			return sl.Size
		}
		return fl.wb.layout.HeaderBytes
	case hir.ExprCollection:
		return fl.wb.layout.HeaderBytes + uint32(len(e.Elems))*4
	case hir.ExprTupleConstruct:
		size := uint32(len(e.Elems)) * 4
		if size == 0 {
			size = 4
		}
		return size
	case hir.ExprOptionConstruct, hir.ExprResultConstruct:
		return 8
	case hir.ExprRange:
		return 12
	default:
		return 4
	}
}

// lowerConstructPush lowers a compound-value constructor expression: it
// allocates storage via the reserved rt.alloc import, fills every field/
// element/slot, and leaves the resulting pointer on the stack (spec.md
// §4.J.7's boxed-by-pointer memory model).
//
// Every compound shape here (struct, tuple, collection, option, result,
// range) is packed word-granular - one 4-byte slot per field/element/slot,
// uniformly typed i32 regardless of the value's real width - the same
// simplification internal/wasmback/layout.go's fieldOffsetByID documents,
// made for the same reason: HIR's place/field model doesn't retain enough
// per-struct identity at a field access site to recover precise packed
// offsets. ExprResultConstruct's payload is assumed to share Expr.Inner
// with ExprOptionConstruct (the struct has no separate field for it); both
// are recorded as open questions in DESIGN.md.
func (fl *funcLowerer) lowerConstructPush(e hir.Expr) []lir.Instr {
	var out []lir.Instr
	out = append(out, lir.Instr{Op: lir.OpConst, Type: lir.I32, I32Val: int32(fl.constructSize(e))})
	out = append(out, lir.Instr{Op: lir.OpCall, FuncIndex: fl.wb.allocFuncIdx})
	tmp := fl.newTemp(lir.I32)
	out = append(out, lir.Instr{Op: lir.OpLocalSet, Local: tmp})

	switch e.Kind {
	case hir.ExprStructConstruct:
		for _, fi := range e.Fields {
			offset, typ := fl.wb.fieldOffsetByID(fi.Field)
			out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
			out = append(out, fl.lowerExprPush(fi.Value)...)
			out = append(out, lir.Instr{Op: lir.OpStore, Type: typ, Offset: offset})
		}
	case hir.ExprTupleConstruct:
		for i, el := range e.Elems {
			out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
			out = append(out, fl.lowerExprPush(el)...)
			out = append(out, lir.Instr{Op: lir.OpStore, Type: fl.exprType(el), Offset: uint32(i) * 4})
		}
	case hir.ExprCollection:
		out = append(out, fl.storeWord(tmp, 0, int32(len(e.Elems)))...)
		out = append(out, fl.storeWord(tmp, 4, int32(len(e.Elems)))...)
		out = append(out, fl.storeWord(tmp, 8, 4)...)
		for i, el := range e.Elems {
			out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
			out = append(out, fl.lowerExprPush(el)...)
			out = append(out, lir.Instr{Op: lir.OpStore, Type: fl.exprType(el), Offset: fl.wb.layout.HeaderBytes + uint32(i)*4})
		}
	case hir.ExprOptionConstruct:
		out = append(out, fl.storeWord(tmp, 0, boolToI32(e.HasValue))...)
		if e.HasValue {
			out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
			out = append(out, fl.lowerExprPush(e.Inner)...)
			out = append(out, lir.Instr{Op: lir.OpStore, Type: fl.exprType(e.Inner), Offset: 4})
		}
	case hir.ExprResultConstruct:
		out = append(out, fl.storeWord(tmp, 0, boolToI32(e.IsOk))...)
		out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
		out = append(out, fl.lowerExprPush(e.Inner)...)
		out = append(out, lir.Instr{Op: lir.OpStore, Type: fl.exprType(e.Inner), Offset: 4})
	case hir.ExprRange:
		out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
		out = append(out, fl.lowerExprPush(e.Lo)...)
		out = append(out, lir.Instr{Op: lir.OpStore, Type: lir.I32, Offset: 0})
		out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
		out = append(out, fl.lowerExprPush(e.Hi)...)
		out = append(out, lir.Instr{Op: lir.OpStore, Type: lir.I32, Offset: 4})
		out = append(out, fl.storeWord(tmp, 8, boolToI32(e.RangeInclusive))...)
	}

	out = append(out, lir.Instr{Op: lir.OpLocalGet, Local: tmp})
	return out
}
