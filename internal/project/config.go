package project

import "github.com/BurntSushi/toml"

// Target selects which backend(s) a build invocation lowers to.
type Target string

const (
	TargetWasm Target = "wasm"
	TargetJS   Target = "js"
	TargetBoth Target = "both"
)

// BuildConfig is the `[build]` section of beanstalk.toml (SPEC_FULL.md
// §1.2), read with BurntSushi/toml the same way the teacher reads its own
// project manifest. CLI flags on cmd/beanstalkc override whatever a
// manifest sets here.
type BuildConfig struct {
	Pretty          bool   `toml:"pretty"`
	EmitLocations   bool   `toml:"emit_locations"`
	AutoInvokeStart bool   `toml:"auto_invoke_start"`
	Target          Target `toml:"target"`
	MemoryMaxPages  int    `toml:"memory_max_pages"`
}

// DefaultBuildConfig matches spec.md §6's documented CLI defaults.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Pretty:          true,
		EmitLocations:   false,
		AutoInvokeStart: true,
		Target:          TargetWasm,
		MemoryMaxPages:  0,
	}
}

// Manifest is the root of beanstalk.toml.
type Manifest struct {
	Build BuildConfig `toml:"build"`
}

// LoadManifest reads and decodes a beanstalk.toml, seeded with
// DefaultBuildConfig so an absent `[build]` section (or an absent key
// within it) still yields sane values.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Build: DefaultBuildConfig()}
	if _, err := toml.DecodeFile(path, m); err != nil {
		return nil, err
	}
	return m, nil
}
