package types

import "fortio.org/safecast"

// Builtins caches the TypeIDs of primitive types so callers never need to
// re-intern them.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Char    TypeID
	Int32   TypeID
	Int64   TypeID
	Float32 TypeID
	Float64 TypeID
	String  TypeID
}

// Interner assigns stable TypeIDs to structural Type descriptors.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	builtins Builtins
}

// NewInterner creates an Interner pre-seeded with the primitive builtins.
func NewInterner() *Interner {
	in := &Interner{
		types: []Type{{Kind: KindInvalid}},
		index: make(map[string]TypeID),
	}
	in.builtins = Builtins{
		Invalid: NoTypeID,
		Unit:    in.Intern(Type{Kind: KindUnit}),
		Bool:    in.Intern(Type{Kind: KindBool}),
		Char:    in.Intern(Type{Kind: KindChar}),
		Int32:   in.Intern(Type{Kind: KindInt, Width: Width32}),
		Int64:   in.Intern(Type{Kind: KindInt, Width: Width64}),
		Float32: in.Intern(Type{Kind: KindFloat, Width: Width32}),
		Float64: in.Intern(Type{Kind: KindFloat, Width: Width64}),
		String:  in.Intern(Type{Kind: KindString}),
	}
	return in
}

// Builtins returns the cached primitive TypeIDs.
func (in *Interner) Builtins() Builtins { return in.builtins }

// Intern structurally hashes t and returns its (possibly pre-existing)
// TypeID. Structs are keyed by name since two structs with identical field
// layouts but different names are distinct nominal types.
func (in *Interner) Intern(t Type) TypeID {
	key := structKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	id, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic("type interner overflow")
	}
	in.types = append(in.types, t)
	tid := TypeID(id)
	in.index[key] = tid
	return tid
}

// Lookup returns the structural descriptor for id.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if int(id) < 0 || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup is Lookup but panics on an invalid handle; used where the
// caller has already validated id came from this interner.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("invalid TypeID")
	}
	return t
}

// Len returns the number of interned types, including the invalid sentinel.
func (in *Interner) Len() int { return len(in.types) }

func structKey(t Type) string {
	switch t.Kind {
	case KindStruct:
		return "struct:" + t.StructName
	case KindTuple:
		s := "tuple:"
		for _, e := range t.Elems {
			s += itoa(uint32(e)) + ","
		}
		return s
	case KindCollection:
		return "coll:" + itoa(uint32(t.Elem))
	case KindOption:
		return "opt:" + itoa(uint32(t.Some))
	case KindResult:
		return "res:" + itoa(uint32(t.Some)) + ":" + itoa(uint32(t.Err))
	case KindFunc:
		s := "fn:"
		for _, p := range t.Params {
			s += itoa(uint32(p)) + ","
		}
		return s + "->" + itoa(uint32(t.Returns))
	case KindInt, KindFloat:
		return itoa(uint32(t.Kind)) + ":" + itoa(uint32(t.Width))
	default:
		return itoa(uint32(t.Kind))
	}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
