// Package wasmback implements spec.md §4.J, the WASM backend: it lowers an
// hir.Module into an internal/lir.Module plus the import/export/memory
// bookkeeping a concrete encoder would need, and validates the result
// structurally. It does not emit WASM bytes - spec.md §4.J's Non-goals
// stop at "produces a validated LIR module".
//
// Grounded on the teacher's backend pass shape (one Builder accumulating
// module-wide index tables, one lowerer per function) and on
// internal/lir's stack-machine Instr model (component I's sibling IR).
package wasmback

import (
	"fmt"

	"beanstalk/internal/diag"
	"beanstalk/internal/hir"
	"beanstalk/internal/host"
	"beanstalk/internal/lir"
	"beanstalk/internal/source"
	"beanstalk/internal/types"
)

// ImportSlot is one reserved host-import slot (spec.md §4.J.2): host imports
// always occupy the low function indices, ahead of every user function.
type ImportSlot struct {
	Module     string
	ImportName string
	ParamTypes []lir.NumType
	ResultType []lir.NumType
}

// ExportSlot is one WASM export: the module's start function (if any) plus
// every function the front end marked `pub`.
type ExportSlot struct {
	Name      string
	FuncIndex uint32
}

// DataSegment is one static data initializer (spec.md §4.J.7's "static data
// segment"): string literal bytes, placed at a fixed linear-memory offset
// computed by the builder.
type DataSegment struct {
	Offset uint32
	Bytes  []byte
}

// Module is the WASM backend's complete output: the backend-neutral LIR
// module plus the import/export/memory-layout metadata a concrete encoder
// needs but LIR itself doesn't model.
type Module struct {
	LIR     *lir.Module
	Imports []ImportSlot
	Exports []ExportSlot
	Memory  MemoryLayout
	Data    []DataSegment
}

// staticDataBase is where the literal data segment starts; everything
// below it is reserved so a null/zero pointer is never a valid address.
const staticDataBase = 16

// Builder carries module-wide state shared across every function lowering:
// the resolved type interner, the host registry, and the index tables
// (component J.2/J.3) every OpCall must resolve against.
type Builder struct {
	types  *types.Interner
	hosts  *host.Registry
	mod    *hir.Module
	strs   *source.Interner
	bag    *diag.Bag
	layout MemoryLayout

	hostIndex map[string]uint32
	userIndex map[hir.FunctionID]uint32

	// Reserved runtime-support import slots (spec.md §4.J.2/J.5/J.7): a
	// bump allocator, an unconditional trap, and a bounds-check helper,
	// ahead of every host and user function index.
	allocFuncIdx  uint32
	trapFuncIdx   uint32
	boundsFuncIdx uint32

	stringOffsets map[source.StringID]uint32
	dataSegments  []DataSegment
	dataCursor    uint32
}

// Build lowers mod into a *Module, assigning host-import slots ahead of
// user function indices (spec.md §4.J.2/J.3), lowering every function body
// to LIR (§4.J.4-5), and structurally validating the result (§4.J.9).
func Build(mod *hir.Module, typs *types.Interner, hosts *host.Registry, strs *source.Interner) (*Module, *diag.Bag) {
	bag := diag.NewBag(256)
	wb := &Builder{
		types:         typs,
		hosts:         hosts,
		mod:           mod,
		strs:          strs,
		bag:           bag,
		layout:        buildMemoryLayout(mod, typs),
		hostIndex:     make(map[string]uint32),
		userIndex:     make(map[hir.FunctionID]uint32),
		stringOffsets: make(map[source.StringID]uint32),
		dataCursor:    staticDataBase,
	}

	var imports []ImportSlot
	var idx uint32
	reserved := []ImportSlot{
		{Module: "rt", ImportName: "alloc", ParamTypes: []lir.NumType{lir.I32}, ResultType: []lir.NumType{lir.I32}},
		{Module: "rt", ImportName: "trap"},
		{Module: "rt", ImportName: "bounds_check", ParamTypes: []lir.NumType{lir.I32, lir.I32}},
	}
	imports = append(imports, reserved...)
	wb.allocFuncIdx, idx = idx, idx+1
	wb.trapFuncIdx, idx = idx, idx+1
	wb.boundsFuncIdx, idx = idx, idx+1

	for _, def := range hosts.InDeclarationOrder() {
		imports = append(imports, ImportSlot{
			Module:     def.Module,
			ImportName: def.ImportName,
			ParamTypes: wb.paramNumTypes(def.ParamTy),
			ResultType: wb.resultNumTypes(def.Returns),
		})
		wb.hostIndex[def.Name] = idx
		idx++
	}
	for _, fn := range mod.Funcs {
		wb.userIndex[fn.ID] = idx
		idx++
	}

	lirFns := make([]*lir.Function, 0, len(mod.Funcs))
	for _, fn := range mod.Funcs {
		lirFns = append(lirFns, wb.lowerFunc(fn))
	}
	lirMod := &lir.Module{Functions: lirFns}

	var exports []ExportSlot
	if mod.StartFunction.IsValid() {
		if sf := mod.FuncByID(mod.StartFunction); sf != nil {
			lirMod.StartFunc = sf.Name
			exports = append(exports, ExportSlot{Name: sf.Name, FuncIndex: wb.userIndex[sf.ID]})
		}
	}
	for _, fn := range mod.Funcs {
		if fn.Exported && fn.ID != mod.StartFunction {
			exports = append(exports, ExportSlot{Name: fn.Name, FuncIndex: wb.userIndex[fn.ID]})
		}
	}

	out := &Module{LIR: lirMod, Imports: imports, Exports: exports, Memory: wb.layout, Data: wb.dataSegments}
	validate(out, bag)
	return out, bag
}

// stringOffset interns a string literal into the static data segment
// (spec.md §4.J.7), returning its linear-memory address; a [u32 length]
// header precedes the UTF-8 bytes. Repeated literals share one offset.
func (wb *Builder) stringOffset(id source.StringID) uint32 {
	if off, ok := wb.stringOffsets[id]; ok {
		return off
	}
	s, _ := wb.strs.Lookup(id)
	bytes := []byte(s)
	off := wb.dataCursor
	seg := make([]byte, 4+len(bytes))
	seg[0] = byte(len(bytes))
	seg[1] = byte(len(bytes) >> 8)
	seg[2] = byte(len(bytes) >> 16)
	seg[3] = byte(len(bytes) >> 24)
	copy(seg[4:], bytes)
	wb.dataSegments = append(wb.dataSegments, DataSegment{Offset: off, Bytes: seg})
	wb.dataCursor += uint32(len(seg))
	if rem := wb.dataCursor % 4; rem != 0 {
		wb.dataCursor += 4 - rem
	}
	wb.stringOffsets[id] = off
	return off
}

// isUnit reports whether t is the unit type or absent - the signal that a
// call or bare expression statement pushes nothing onto the value stack.
func (wb *Builder) isUnit(t types.TypeID) bool {
	if t == types.NoTypeID {
		return true
	}
	bu := wb.types.Builtins()
	return t == bu.Unit
}

func (wb *Builder) errorf(code diag.Code, format string, args ...any) {
	d := diag.NewError(code, source.Span{}, fmt.Sprintf(format, args...))
	wb.bag.Add(&d)
}

func (wb *Builder) paramNumTypes(params []types.TypeID) []lir.NumType {
	out := make([]lir.NumType, len(params))
	for i, t := range params {
		out[i] = wb.numType(t)
	}
	return out
}

func (wb *Builder) resultNumTypes(ret types.TypeID) []lir.NumType {
	bu := wb.types.Builtins()
	if ret == types.NoTypeID || ret == bu.Unit {
		return nil
	}
	return []lir.NumType{wb.numType(ret)}
}

// numType maps a resolved Beanstalk type onto the WASM value type that
// represents it: scalars get their natural WASM numeric type, everything
// reference-shaped (struct/collection/string/option/result/host handle)
// is an i32 pointer into linear memory (spec.md §4.J memory model).
func (wb *Builder) numType(tid types.TypeID) lir.NumType {
	t, ok := wb.types.Lookup(tid)
	if !ok {
		return lir.I32
	}
	switch t.Kind {
	case types.KindInt:
		if t.Width == types.Width64 {
			return lir.I64
		}
		return lir.I32
	case types.KindFloat:
		if t.Width == types.Width64 {
			return lir.F64
		}
		return lir.F32
	case types.KindBool, types.KindChar:
		return lir.I32
	default:
		return lir.I32
	}
}
