// Package host is the authority for host-function call-site borrow
// checking (spec.md §3 "Host function registry") and for the WASM backend's
// import-slot reservation (spec.md §4.J.2). It is immutable after
// initialization - the driver builds one Registry per compilation and every
// later pass only reads it.
package host

import "beanstalk/internal/types"

// AccessKind classifies how a host function accesses one of its
// parameters, mirroring HostAccessKind in spec.md §3.
type AccessKind uint8

const (
	AccessShared AccessKind = iota
	AccessMutable
	AccessOwned
)

// ReturnAlias classifies how a host function's return value aliases its
// arguments, mirroring the Fresh/Arg(i)/Unknown classification spec.md §4.F
// uses for user-function call summaries too.
type ReturnAliasKind uint8

const (
	ReturnFresh ReturnAliasKind = iota
	ReturnArg
	ReturnUnknown
)

type ReturnAlias struct {
	Kind ReturnAliasKind
	Arg  int // meaningful when Kind == ReturnArg
}

// ResolveMode distinguishes a host import that the target runtime supports
// directly from one satisfied by a WASI-equivalent shim (spec.md's
// supplemented "host function fallback / WASI compatibility" feature,
// grounded in original_source/host_functions/{fallback_mechanisms,
// wasi_compatibility}.rs).
type ResolveMode uint8

const (
	ResolveDirect ResolveMode = iota
	ResolveWasiShim
)

// ABI enumerates the calling convention a host import expects.
type ABI uint8

const (
	ABIDirect ABI = iota // arguments passed by value/handle as declared
	ABIWasiPreview1
)

// FunctionDef describes one host-importable function.
type FunctionDef struct {
	Name       string
	Module     string // WASM import module name, e.g. "beanstalk_io"
	ImportName string

	Params  []AccessKind
	ParamTy []types.TypeID
	Returns types.TypeID

	ReturnAlias ReturnAlias
	ABI         ABI

	Resolve  ResolveMode
	ShimName string // ImportName of the WASI-equivalent shim, if ResolveWasiShim
}

// Registry is the immutable map name -> FunctionDef.
type Registry struct {
	byName map[string]FunctionDef
	order  []string // declaration order, for deterministic import-section emission
}

// NewRegistry creates an empty registry ready for Register calls; callers
// should finish registering before the registry is shared across goroutines
// (spec.md §5: "The HostRegistry is immutable after initialization").
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]FunctionDef)}
}

// Register adds (or replaces) a host function definition.
func (r *Registry) Register(def FunctionDef) {
	if _, exists := r.byName[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.byName[def.Name] = def
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (FunctionDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// InDeclarationOrder returns all registered definitions in registration
// order, used by the WASM backend to assign stable import indices.
func (r *Registry) InDeclarationOrder() []FunctionDef {
	out := make([]FunctionDef, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
