package hir

import (
	"testing"

	"beanstalk/internal/types"
)

// buildIdentityFunc hand-assembles the E1 scenario from spec.md §8:
// id = |x Int| -> Int: return x;
func buildIdentityFunc(tint types.TypeID) *Func {
	reg := NewRegistry()
	x := reg.NewLocal(false, EntryRegionID, "x", true, false)

	f := &Func{
		ID:         1,
		Name:       "id",
		Params:     []LocalID{x},
		ReturnType: tint,
		Entry:      1,
		Registry:   reg,
		Regions:    NewRegionTree(),
		Exprs:      make([]Expr, 2),
	}
	loadX := reg.InternLocal(x)
	f.Exprs[1] = Expr{ID: 1, Kind: ExprLoad, Type: tint, VKind: ValuePlace, Place: loadX}

	f.Blocks = make([]Block, 2)
	f.Blocks[1] = Block{
		ID:     1,
		Region: EntryRegionID,
		Terminator: Terminator{
			Kind:        TermReturn,
			ReturnValue: 1,
		},
	}
	return f
}

func TestValidateAcceptsWellFormedFunc(t *testing.T) {
	ti := types.NewInterner()
	f := buildIdentityFunc(ti.Builtins().Int32)
	m := NewModule()
	m.Funcs = append(m.Funcs, f)
	m.StartFunction = f.ID

	if errs := Validate(m); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestValidateCatchesDanglingJump(t *testing.T) {
	ti := types.NewInterner()
	f := buildIdentityFunc(ti.Builtins().Int32)
	f.Blocks[1].Terminator = Terminator{Kind: TermJump, JumpTarget: 99}

	m := NewModule()
	m.Funcs = append(m.Funcs, f)

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatal("expected a validation error for a dangling jump target")
	}
}

func TestValidateCatchesMissingStartFunction(t *testing.T) {
	ti := types.NewInterner()
	f := buildIdentityFunc(ti.Builtins().Int32)
	m := NewModule()
	m.Funcs = append(m.Funcs, f)
	m.StartFunction = 42

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatal("expected an error for an unresolved start function")
	}
}

func TestRegistryMayAliasPrefix(t *testing.T) {
	reg := NewRegistry()
	a := reg.NewLocal(true, EntryRegionID, "a", false, false)

	base := reg.InternLocal(a)
	field1 := reg.InternField(base, 1)
	field1Again := reg.InternField(base, 1)
	field2 := reg.InternField(base, 2)

	if field1 != field1Again {
		t.Fatalf("expected identical field projections to canonicalize to the same PlaceID")
	}
	if !reg.MayAlias(base, field1) {
		t.Error("expected a place to may-alias a projection of itself (prefix relation)")
	}
	if reg.MayAlias(field1, field2) {
		t.Error("distinct fields of the same base should not may-alias")
	}
}

func TestRegistryRootLocal(t *testing.T) {
	reg := NewRegistry()
	a := reg.NewLocal(true, EntryRegionID, "a", false, false)
	base := reg.InternLocal(a)
	field := reg.InternField(base, 3)
	idx := reg.InternIndex(field, NoValueID)

	if got := reg.RootLocal(idx); got != a {
		t.Fatalf("RootLocal() = %v, want %v", got, a)
	}
}

func TestRegistryAliasClassAfterFinalize(t *testing.T) {
	reg := NewRegistry()
	a := reg.NewLocal(true, EntryRegionID, "a", false, false)
	b := reg.NewLocal(true, EntryRegionID, "b", false, false)

	pa := reg.InternLocal(a)
	pb := reg.InternLocal(b)
	reg.Finalize()

	if reg.AliasClass(pa) == reg.AliasClass(pb) {
		t.Error("expected distinct roots to land in distinct alias classes")
	}
}
