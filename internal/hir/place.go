package hir

import (
	"strconv"

	"beanstalk/internal/types"
)

// PlaceKind discriminates the sum type HirPlace from spec.md §3.
type PlaceKind uint8

const (
	PlaceLocal PlaceKind = iota
	PlaceField
	PlaceIndex
)

// Place is an l-value: a local, or a projection (field/index) of one.
// Every place's root (innermost Base chain) is always a Local - see
// RootLocal. Places are produced and canonicalized exclusively through a
// Registry so that structurally identical spines collapse to one handle.
type Place struct {
	Kind PlaceKind

	Local LocalID // PlaceLocal

	Base  PlaceID // PlaceField, PlaceIndex
	Field FieldID // PlaceField
	Index ValueID // PlaceIndex: the HIR value computing the index
}

// PlaceID is the canonical handle for an interned Place, issued by Registry.
type PlaceID uint32

const NoPlaceID PlaceID = 0

// Registry issues fresh LocalIds and canonicalizes Places by structural
// hashing: two places with identical spines (same root, same sequence of
// field/index projections) collapse onto the same PlaceID. This gives
// O(1) place equality and backs the alias-equivalence classes the borrow
// checker needs (spec.md §4.B).
type Registry struct {
	locals []LocalInfo
	places []Place
	index  map[string]PlaceID

	// aliasClass[p] groups places whose root-and-spine make them
	// statically known to (may-)alias; computed lazily by Finalize.
	aliasClass []int
	finalized  bool
}

// LocalInfo is the per-local metadata the registry tracks for layout and
// region-scoping purposes (not the borrow-state lattice - that is
// per-analysis-run data owned by package borrow).
type LocalInfo struct {
	ID        LocalID
	Mutable   bool
	Region    RegionID
	Name      string // empty for compiler-synthesized temporaries
	IsParam   bool
	IsTemp    bool
	Ownership Ownership

	// Type is set post-hoc by the builder via SetLocalType once the front
	// end has resolved it - the registry itself stays type-agnostic (spec.md
	// §3 HirLocal carries no Type field of its own), but the WASM backend
	// needs it to pick each local's WASM value type (spec.md §4.J.5).
	Type types.TypeID
}

// NewRegistry creates an empty place/local registry. Local/Place handle 0
// is reserved as the "no such local/place" sentinel.
func NewRegistry() *Registry {
	return &Registry{
		locals: make([]LocalInfo, 1),
		places: make([]Place, 1),
		index:  make(map[string]PlaceID),
	}
}

// NewLocal allocates a fresh LocalID and records its metadata. Ownership
// defaults to OwnershipOwn; use NewLocalWithOwnership for references.
func (r *Registry) NewLocal(mutable bool, region RegionID, name string, isParam, isTemp bool) LocalID {
	return r.NewLocalWithOwnership(mutable, region, name, isParam, isTemp, OwnershipOwn)
}

// NewLocalWithOwnership allocates a fresh LocalID with an explicit
// ownership qualifier (spec.md §3 HirLocal, extended per package borrow's
// needs - see hir/ownership.go).
func (r *Registry) NewLocalWithOwnership(mutable bool, region RegionID, name string, isParam, isTemp bool, own Ownership) LocalID {
	id := LocalID(len(r.locals))
	r.locals = append(r.locals, LocalInfo{ID: id, Mutable: mutable, Region: region, Name: name, IsParam: isParam, IsTemp: isTemp, Ownership: own})
	return id
}

// SetLocalType records a local's resolved type after the fact. Called once
// per local by the HIR builder, which is the only component that resolves
// front-end type names (internal/hirbuild/fnbuilder.go's declareLocal).
func (r *Registry) SetLocalType(id LocalID, ty types.TypeID) {
	if int(id) > 0 && int(id) < len(r.locals) {
		r.locals[id].Type = ty
	}
}

// Local returns the metadata for a local, or the zero value if unknown.
func (r *Registry) Local(id LocalID) (LocalInfo, bool) {
	if int(id) <= 0 || int(id) >= len(r.locals) {
		return LocalInfo{}, false
	}
	return r.locals[id], true
}

// NumLocals returns the count of allocated locals, excluding the sentinel.
func (r *Registry) NumLocals() int { return len(r.locals) - 1 }

// InternLocal canonicalizes a bare-local place.
func (r *Registry) InternLocal(local LocalID) PlaceID {
	return r.intern(Place{Kind: PlaceLocal, Local: local}, "l:"+itoa(uint32(local)))
}

// InternField canonicalizes a field projection of base.
func (r *Registry) InternField(base PlaceID, field FieldID) PlaceID {
	key := r.keyOf(base) + "f:" + itoa(uint32(field)) + ";"
	return r.intern(Place{Kind: PlaceField, Base: base, Field: field}, key)
}

// InternIndex canonicalizes an index projection of base. Two index places
// with a different index ValueID still collapse to the same spine for
// may-alias purposes (spec.md: "one's path is a prefix of the other's" -
// the index expression identity doesn't participate in the prefix test).
func (r *Registry) InternIndex(base PlaceID, index ValueID) PlaceID {
	key := r.keyOf(base) + "i:;"
	id := r.intern(Place{Kind: PlaceIndex, Base: base, Index: index}, key)
	return id
}

func (r *Registry) intern(p Place, key string) PlaceID {
	if id, ok := r.index[key]; ok {
		return id
	}
	id := PlaceID(len(r.places))
	r.places = append(r.places, p)
	r.index[key] = id
	r.finalized = false
	return id
}

func (r *Registry) keyOf(id PlaceID) string {
	if int(id) <= 0 || int(id) >= len(r.places) {
		return ""
	}
	p := r.places[id]
	switch p.Kind {
	case PlaceLocal:
		return "l:" + itoa(uint32(p.Local))
	case PlaceField:
		return r.keyOf(p.Base) + "f:" + itoa(uint32(p.Field)) + ";"
	case PlaceIndex:
		return r.keyOf(p.Base) + "i:;"
	default:
		return ""
	}
}

// Place returns the canonical Place for id.
func (r *Registry) Place(id PlaceID) (Place, bool) {
	if int(id) <= 0 || int(id) >= len(r.places) {
		return Place{}, false
	}
	return r.places[id], true
}

// RootLocal walks a place's spine down to its root Local.
func (r *Registry) RootLocal(id PlaceID) LocalID {
	for {
		p, ok := r.Place(id)
		if !ok {
			return NoLocalID
		}
		switch p.Kind {
		case PlaceLocal:
			return p.Local
		case PlaceField, PlaceIndex:
			id = p.Base
		default:
			return NoLocalID
		}
	}
}

// spine returns the path from root to id as a slice of (kind) steps, used
// by MayAlias's prefix comparison. Returned outermost-last (root first).
func (r *Registry) spine(id PlaceID) []PlaceID {
	var chain []PlaceID
	for id != NoPlaceID {
		chain = append(chain, id)
		p, ok := r.Place(id)
		if !ok {
			break
		}
		if p.Kind == PlaceLocal {
			break
		}
		id = p.Base
	}
	// reverse into root-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// MayAlias reports whether a and b may alias: one's canonical spine is a
// prefix of the other's (spec.md §3 HirPlace invariant). Places on
// different root locals never alias. Unknown handles answer false (a
// defined "no alias, not owned" answer per spec.md §4.B).
func (r *Registry) MayAlias(a, b PlaceID) bool {
	if a == NoPlaceID || b == NoPlaceID {
		return false
	}
	sa, sb := r.spine(a), r.spine(b)
	n := len(sa)
	if len(sb) < n {
		n = len(sb)
	}
	for i := 0; i < n; i++ {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// Finalize precomputes alias equivalence classes over all interned places
// (union-find over the MayAlias relation) so that repeated queries during
// dataflow are O(1) rather than O(spine length) each. Safe to call multiple
// times; re-finalizes if new places were interned since the last call.
func (r *Registry) Finalize() {
	n := len(r.places)
	uf := make([]int, n)
	for i := range uf {
		uf[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for uf[x] != x {
			uf[x] = uf[uf[x]]
			x = uf[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			uf[ra] = rb
		}
	}
	for i := 1; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.MayAlias(PlaceID(i), PlaceID(j)) {
				union(i, j)
			}
		}
	}
	classes := make([]int, n)
	for i := range classes {
		classes[i] = find(i)
	}
	r.aliasClass = classes
	r.finalized = true
}

// AliasClass returns a's precomputed alias-equivalence class id. Callers
// must invoke Finalize after all places are known (spec.md §4.B).
func (r *Registry) AliasClass(a PlaceID) int {
	if !r.finalized || int(a) >= len(r.aliasClass) {
		return -1
	}
	return r.aliasClass[a]
}

func itoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
