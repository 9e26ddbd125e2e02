package host

import "beanstalk/internal/types"

// NewPreludeRegistry returns a registry seeded with the standard
// "beanstalk_io" console/DOM imports referenced in spec.md §6's WASM output
// contract, plus a reserved trap function used to implement Panic
// terminators (spec.md §4.J.4).
func NewPreludeRegistry(ti *types.Interner) *Registry {
	r := NewRegistry()
	b := ti.Builtins()

	r.Register(FunctionDef{
		Name:        "print",
		Module:      "beanstalk_io",
		ImportName:  "print",
		Params:      []AccessKind{AccessShared},
		ParamTy:     []types.TypeID{b.String},
		Returns:     b.Unit,
		ReturnAlias: ReturnAlias{Kind: ReturnFresh},
		ABI:         ABIDirect,
	})
	r.Register(FunctionDef{
		Name:        "consume",
		Module:      "beanstalk_io",
		ImportName:  "consume",
		Params:      []AccessKind{AccessOwned},
		ParamTy:     []types.TypeID{b.String},
		Returns:     b.Unit,
		ReturnAlias: ReturnAlias{Kind: ReturnFresh},
		ABI:         ABIDirect,
	})
	r.Register(FunctionDef{
		Name:        "trap",
		Module:      "beanstalk_io",
		ImportName:  "trap",
		Params:      nil,
		Returns:     b.Unit,
		ReturnAlias: ReturnAlias{Kind: ReturnFresh},
		ABI:         ABIDirect,
		Resolve:     ResolveWasiShim,
		ShimName:    "proc_exit",
	})
	return r
}
