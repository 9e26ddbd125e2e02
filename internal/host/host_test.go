package host

import (
	"testing"

	"beanstalk/internal/types"
)

func TestPreludeRegistryLookup(t *testing.T) {
	ti := types.NewInterner()
	r := NewPreludeRegistry(ti)

	def, ok := r.Lookup("consume")
	if !ok {
		t.Fatal("expected 'consume' to be registered")
	}
	if len(def.Params) != 1 || def.Params[0] != AccessOwned {
		t.Errorf("expected consume's sole parameter to be AccessOwned, got %v", def.Params)
	}
}

func TestRegistryDeclarationOrderStable(t *testing.T) {
	ti := types.NewInterner()
	r := NewPreludeRegistry(ti)

	order := r.InDeclarationOrder()
	if len(order) != 3 {
		t.Fatalf("expected 3 registered host functions, got %d", len(order))
	}
	if order[0].Name != "print" {
		t.Errorf("expected 'print' registered first, got %q", order[0].Name)
	}
}

func TestWasiShimResolve(t *testing.T) {
	ti := types.NewInterner()
	r := NewPreludeRegistry(ti)

	def, _ := r.Lookup("trap")
	if def.Resolve != ResolveWasiShim || def.ShimName != "proc_exit" {
		t.Errorf("expected trap to resolve via the proc_exit WASI shim, got %+v", def)
	}
}
