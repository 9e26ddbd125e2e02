package wasmback

import (
	"beanstalk/internal/hir"
	"beanstalk/internal/lir"
	"beanstalk/internal/types"
)

// HeaderWords is the fixed collection header width spec.md §4.J.7 describes
// ([length, capacity, elem_size]), in 32-bit words, preceding every
// collection's element data in linear memory.
const HeaderWords = 3

// FieldSlot is one struct field's resolved layout: its byte offset past the
// struct's header and the WASM numeric type its value occupies.
type FieldSlot struct {
	Name   string
	Offset uint32
	Type   lir.NumType
}

// StructLayout is one struct's field table, in declaration order.
type StructLayout struct {
	Fields []FieldSlot
	Size   uint32 // header + all field slots, rounded up to a word
}

// MemoryLayout is the WASM backend's memory-shape table (spec.md §4.J.7):
// per-struct field layouts (keyed by struct name, the one stable identifier
// types.Type.StructName and hir.StructDecl.Name both carry) plus the shared
// collection header width.
type MemoryLayout struct {
	Structs     map[string]StructLayout
	HeaderBytes uint32
}

// buildMemoryLayout computes one StructLayout per struct declared in mod,
// packing fields sequentially in declaration order by their natural size
// (spec.md §4.J.7's FieldTable) after a HeaderWords-word struct header
// (mirroring the collection header so both shapes share one allocator
// convention).
func buildMemoryLayout(mod *hir.Module, typs *types.Interner) MemoryLayout {
	layout := MemoryLayout{
		Structs:     make(map[string]StructLayout),
		HeaderBytes: HeaderWords * 4,
	}
	for _, sd := range mod.Structs {
		t, ok := typs.Lookup(sd.Type)
		if !ok || t.Kind != types.KindStruct {
			continue
		}
		layout.Structs[sd.Name] = layoutStruct(t, typs, layout.HeaderBytes)
	}
	return layout
}

func layoutStruct(t types.Type, typs *types.Interner, headerBytes uint32) StructLayout {
	var sl StructLayout
	offset := headerBytes
	for _, f := range t.Fields {
		ft, _ := typs.Lookup(f.Type)
		size := uint32(ft.Size())
		if size == 0 {
			size = 4
		}
		sl.Fields = append(sl.Fields, FieldSlot{Name: f.Name, Offset: offset, Type: numTypeOfKind(ft)})
		offset += size
	}
	sl.Size = offset
	return sl
}

func numTypeOfKind(t types.Type) lir.NumType {
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
	default:
		return lir.I32
	}
}

// fieldOffsetByID resolves a field's byte offset and WASM type given only
// its global hir.FieldID, independent of which struct it belongs to.
//
// hirbuild assigns FieldID purely positionally (declaration index + 1)
// within whichever struct a field access resolves against (internal/
// hirbuild/expr.go's resolvePlace), so the same FieldID is reused across
// every struct that happens to have a field at that position - HIR's place
// chains don't retain "which struct" once a PlaceField is interned. Lacking
// that, field access lowers against one shared word-per-field convention
// (a field's byte offset is (FieldID-1)*4 past the struct header) rather
// than each struct's real packed layout. StructLayout above still computes
// per-struct packed offsets, but only its Size is read: construction
// (ExprStructConstruct.StructName) sizes its allocation from it and then
// stores every field at these same word-per-field offsets. This
// mismatch is recorded as an open question in DESIGN.md.
func (wb *Builder) fieldOffsetByID(id hir.FieldID) (uint32, lir.NumType) {
	if !id.IsValid() {
		return wb.layout.HeaderBytes, lir.I32
	}
	return wb.layout.HeaderBytes + (uint32(id)-1)*4, lir.I32
}
