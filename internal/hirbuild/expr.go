package hirbuild

import (
	"beanstalk/internal/ast"
	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// evalExpr lowers a complete RPN expression to a single HIR value. ok is
// false if a diagnostic was already recorded (fb.failed is set too).
func (fb *fnBuilder) evalExpr(e *ast.Expr) (hir.ValueID, bool) {
	if e == nil {
		return hir.NoValueID, true
	}
	vals, ok := fb.evalToks(e.Toks)
	if !ok {
		return hir.NoValueID, false
	}
	if len(vals) != 1 {
		fb.error(diag.LowerRPNTrailingValues, e.Span,
			"expression lowering left %d residual values on the stack, expected exactly 1", len(vals))
		return hir.NoValueID, false
	}
	return vals[0], true
}

// evalCallStmt lowers an expression whose entire top-level operation is a
// call, for use as a statement-level hir.StmtCall rather than a hoisted
// ExprCall+Load (spec.md §4.D: a bare call statement discards its result
// without needing a temporary).
func (fb *fnBuilder) evalCallStmt(e *ast.Expr) (hir.CallTarget, []hir.ValueID, bool) {
	if len(e.Toks) == 0 || e.Toks[len(e.Toks)-1].Kind != ast.TokCall {
		fb.error(diag.LowerMalformedStatement, e.Span, "expected a call expression")
		return hir.CallTarget{}, nil, false
	}
	last := e.Toks[len(e.Toks)-1]
	args, ok := fb.evalToks(e.Toks[:len(e.Toks)-1])
	if !ok {
		return hir.CallTarget{}, nil, false
	}
	if len(args) != last.Argc {
		fb.error(diag.LowerRPNStackUnderflow, last.Span,
			"call to %q expects %d argument(s), got %d", last.Callee, last.Argc, len(args))
		return hir.CallTarget{}, nil, false
	}
	target, _, ok := fb.resolveCallTarget(last.Callee, last.Argc, last.Span)
	if !ok {
		return hir.CallTarget{}, nil, false
	}
	return target, args, true
}

// evalToks runs the RPN stack machine over toks and returns whatever
// remains on the stack (evalExpr enforces the "exactly one residual value"
// invariant; evalCallStmt instead expects exactly Argc).
func (fb *fnBuilder) evalToks(toks []ast.Tok) ([]hir.ValueID, bool) {
	var stack []hir.ValueID
	bu := fb.b.Types.Builtins()

	for _, t := range toks {
		switch t.Kind {
		case ast.TokLitInt:
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLitInt, Type: bu.Int64, VKind: hir.ValueConst, IntVal: t.IntVal, Span: t.Span}))
		case ast.TokLitFloat:
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLitFloat, Type: bu.Float64, VKind: hir.ValueConst, FloatVal: t.FloatVal, Span: t.Span}))
		case ast.TokLitBool:
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLitBool, Type: bu.Bool, VKind: hir.ValueConst, BoolVal: t.BoolVal, Span: t.Span}))
		case ast.TokLitChar:
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLitChar, Type: bu.Char, VKind: hir.ValueConst, CharVal: t.CharVal, Span: t.Span}))
		case ast.TokLitString:
			sid := fb.b.strings.Intern(t.StrVal)
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLitString, Type: bu.String, VKind: hir.ValueConst, StrVal: sid, Span: t.Span}))

		case ast.TokLoad:
			placeID, ty, ok := fb.resolvePlace(t.Place)
			if !ok {
				return nil, false
			}
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprLoad, Type: ty, VKind: hir.ValuePlace, Place: placeID, Span: t.Span}))

		case ast.TokUnary:
			if len(stack) < 1 {
				fb.error(diag.LowerRPNStackUnderflow, t.Span, "unary operator %q found an empty stack", t.Un)
				return nil, false
			}
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, fb.unary(t, x))

		case ast.TokBinary:
			if len(stack) < 2 {
				fb.error(diag.LowerRPNStackUnderflow, t.Span, "binary operator %q found fewer than 2 operands", t.Bin)
				return nil, false
			}
			r, l := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, fb.binary(t, l, r))

		case ast.TokRange:
			if len(stack) < 2 {
				fb.error(diag.LowerRPNStackUnderflow, t.Span, "range expression found fewer than 2 operands")
				return nil, false
			}
			hi, lo := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			loExpr, _ := fb.fn.Expr(lo)
			stack = append(stack, fb.addExpr(hir.Expr{Kind: hir.ExprRange, Lo: lo, Hi: hi, RangeInclusive: t.RangeInclusive, Type: loExpr.Type, VKind: hir.ValueRValue, Span: t.Span}))

		case ast.TokCall:
			if len(stack) < t.Argc {
				fb.error(diag.LowerRPNStackUnderflow, t.Span, "call to %q expects %d argument(s), found fewer on the stack", t.Callee, t.Argc)
				return nil, false
			}
			args := append([]hir.ValueID(nil), stack[len(stack)-t.Argc:]...)
			stack = stack[:len(stack)-t.Argc]
			target, retType, ok := fb.resolveCallTarget(t.Callee, t.Argc, t.Span)
			if !ok {
				return nil, false
			}
			callVal := fb.addExpr(hir.Expr{Kind: hir.ExprCall, Target: target, Args: args, Type: retType, VKind: hir.ValueRValue, Span: t.Span})
			stack = append(stack, fb.hoistCall(callVal, retType, t.Span))

		default:
			fb.error(diag.LowerMalformedExpr, t.Span, "unsupported expression token")
			return nil, false
		}
	}
	return stack, true
}

// hoistCall assigns a call's result into a fresh temporary local and
// returns a Load of it, so that a call's value can be referenced like any
// other operand by the rest of the RPN stream (spec.md §4.D "Temporaries":
// "calls with return values ... are hoisted into a fresh local; its
// HirExpression becomes a Load of that local").
func (fb *fnBuilder) hoistCall(callVal hir.ValueID, ty types.TypeID, sp source.Span) hir.ValueID {
	own := hir.OwnershipOwn
	if fb.isCopyType(ty) {
		own = hir.OwnershipCopy
	}
	temp := fb.declareLocal("", false, own, false, true, ty)
	place := fb.fn.Registry.InternLocal(temp)
	fb.addStmt(hir.Stmt{Kind: hir.StmtAssign, Target: place, Value: callVal, Span: sp})
	return fb.addExpr(hir.Expr{Kind: hir.ExprLoad, Type: ty, VKind: hir.ValuePlace, Place: place, Span: sp})
}

func (fb *fnBuilder) unary(t ast.Tok, x hir.ValueID) hir.ValueID {
	xe, _ := fb.fn.Expr(x)
	vkind := hir.ValueRValue
	if xe.VKind == hir.ValueConst {
		vkind = hir.ValueConst
	}
	return fb.addExpr(hir.Expr{Kind: hir.ExprUnary, UnOp: mapUnOp(t.Un), X: x, Type: xe.Type, VKind: vkind, Span: t.Span})
}

func (fb *fnBuilder) binary(t ast.Tok, l, r hir.ValueID) hir.ValueID {
	le, _ := fb.fn.Expr(l)
	re, _ := fb.fn.Expr(r)
	op := mapBinOp(t.Bin)
	ty := le.Type
	switch op {
	case hir.BinEq, hir.BinNeq, hir.BinLt, hir.BinLe, hir.BinGt, hir.BinGe, hir.BinAnd, hir.BinOr:
		ty = fb.b.Types.Builtins().Bool
	}
	vkind := hir.ValueRValue
	if le.VKind == hir.ValueConst && re.VKind == hir.ValueConst {
		vkind = hir.ValueConst
	}
	return fb.addExpr(hir.Expr{Kind: hir.ExprBinary, BinOp: op, L: l, R: r, Type: ty, VKind: vkind, Span: t.Span})
}

func mapUnOp(op ast.UnOp) hir.UnaryOp {
	if op == ast.UnNot {
		return hir.UnaryNot
	}
	return hir.UnaryNeg
}

func mapBinOp(op ast.BinOp) hir.BinaryOp {
	switch op {
	case ast.BinAdd:
		return hir.BinAdd
	case ast.BinSub:
		return hir.BinSub
	case ast.BinMul:
		return hir.BinMul
	case ast.BinDiv:
		return hir.BinDiv
	case ast.BinMod:
		return hir.BinMod
	case ast.BinEq:
		return hir.BinEq
	case ast.BinNeq:
		return hir.BinNeq
	case ast.BinLt:
		return hir.BinLt
	case ast.BinLe:
		return hir.BinLe
	case ast.BinGt:
		return hir.BinGt
	case ast.BinGe:
		return hir.BinGe
	case ast.BinAnd:
		return hir.BinAnd
	case ast.BinOr:
		return hir.BinOr
	default:
		return hir.BinAdd
	}
}

// resolveCallTarget resolves a callee name against user functions first,
// then the host registry (spec.md §4.D name resolution order), checking
// declared arity against the call site.
func (fb *fnBuilder) resolveCallTarget(name string, argc int, sp source.Span) (hir.CallTarget, types.TypeID, bool) {
	if fid, ok := fb.b.funcIndex[name]; ok {
		decl := fb.b.funcDecl[fid]
		if len(decl.Params) != argc {
			fb.error(diag.LowerArityMismatch, sp, "call to %q passes %d argument(s), expected %d", name, argc, len(decl.Params))
			return hir.CallTarget{}, types.NoTypeID, false
		}
		return hir.CallTarget{Kind: hir.CallUser, Func: fid, Path: fb.b.paths.InternPath(decl.FQN)}, fb.b.funcRet[fid], true
	}
	if def, ok := fb.b.Hosts.Lookup(name); ok {
		if len(def.Params) != argc {
			fb.error(diag.LowerArityMismatch, sp, "call to host function %q passes %d argument(s), expected %d", name, argc, len(def.Params))
			return hir.CallTarget{}, types.NoTypeID, false
		}
		return hir.CallTarget{Kind: hir.CallHost, Name: name}, def.Returns, true
	}
	fb.error(diag.LowerUnknownSymbol, sp, "call to unresolved function %q", name)
	return hir.CallTarget{}, types.NoTypeID, false
}

// resolvePlace resolves an unresolved AST lvalue to a canonical hir.PlaceID
// plus its type, walking Base chains for field/index projections.
func (fb *fnBuilder) resolvePlace(pe *ast.PlaceExpr) (hir.PlaceID, types.TypeID, bool) {
	switch pe.Kind {
	case ast.PlaceVar:
		lid, ok := fb.resolveName(pe.Name)
		if !ok {
			fb.error(diag.LowerUnknownSymbol, pe.Span, "reference to unresolved name %q", pe.Name)
			return hir.NoPlaceID, types.NoTypeID, false
		}
		return fb.fn.Registry.InternLocal(lid), fb.localTypes[lid], true

	case ast.PlaceFieldExpr:
		basePlace, baseType, ok := fb.resolvePlace(pe.Base)
		if !ok {
			return hir.NoPlaceID, types.NoTypeID, false
		}
		st, ok := fb.b.Types.Lookup(baseType)
		if !ok || st.Kind != types.KindStruct {
			fb.error(diag.LowerMalformedExpr, pe.Span, "field access %q on a non-struct type", pe.Name)
			return hir.NoPlaceID, types.NoTypeID, false
		}
		idx := -1
		for i, f := range st.Fields {
			if f.Name == pe.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			fb.error(diag.LowerMalformedExpr, pe.Span, "struct %q has no field %q", st.StructName, pe.Name)
			return hir.NoPlaceID, types.NoTypeID, false
		}
		fieldID := hir.FieldID(idx + 1)
		placeID := fb.fn.Registry.InternField(basePlace, fieldID)
		fb.mod.SideTable.FieldName[fieldID] = pe.Name
		return placeID, st.Fields[idx].Type, true

	case ast.PlaceIndexExpr:
		basePlace, baseType, ok := fb.resolvePlace(pe.Base)
		if !ok {
			return hir.NoPlaceID, types.NoTypeID, false
		}
		idxVal, ok := fb.evalExpr(pe.Index)
		if !ok {
			return hir.NoPlaceID, types.NoTypeID, false
		}
		placeID := fb.fn.Registry.InternIndex(basePlace, idxVal)
		elemType := types.NoTypeID
		if bt, ok := fb.b.Types.Lookup(baseType); ok && bt.Kind == types.KindCollection {
			elemType = bt.Elem
		}
		return placeID, elemType, true

	default:
		fb.error(diag.LowerMalformedExpr, pe.Span, "unsupported place expression")
		return hir.NoPlaceID, types.NoTypeID, false
	}
}
