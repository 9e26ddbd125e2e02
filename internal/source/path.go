package source

import "strings"

// InternedPath is an ordered sequence of interned path segments, e.g. the
// fully-qualified path of a module, function, or field ("pkg/mod.Func").
// Two paths are content-equal iff their segment lists are equal.
type InternedPath struct {
	segments []StringID
}

// NewInternedPath builds a path from already-interned segments.
func NewInternedPath(segments ...StringID) InternedPath {
	return InternedPath{segments: append([]StringID(nil), segments...)}
}

// Len returns the number of segments.
func (p InternedPath) Len() int { return len(p.segments) }

// Segments returns the underlying segment slice (read-only by convention).
func (p InternedPath) Segments() []StringID { return p.segments }

// Join returns a new path with name appended as the last segment.
func (p InternedPath) Join(name StringID) InternedPath {
	out := make([]StringID, len(p.segments)+1)
	copy(out, p.segments)
	out[len(p.segments)] = name
	return InternedPath{segments: out}
}

// Name returns the last segment, or NoStringID if the path is empty.
func (p InternedPath) Name() StringID {
	if len(p.segments) == 0 {
		return NoStringID
	}
	return p.segments[len(p.segments)-1]
}

// Stem returns the path with its last segment removed.
func (p InternedPath) Stem() InternedPath {
	if len(p.segments) == 0 {
		return p
	}
	return InternedPath{segments: append([]StringID(nil), p.segments[:len(p.segments)-1]...)}
}

// EndsWith reports whether suffix's segments are a suffix-aligned match at
// the tail of p, e.g. path "a.b.c" ends with "b.c" and with "c".
func (p InternedPath) EndsWith(suffix InternedPath) bool {
	if len(suffix.segments) > len(p.segments) {
		return false
	}
	offset := len(p.segments) - len(suffix.segments)
	for i, s := range suffix.segments {
		if p.segments[offset+i] != s {
			return false
		}
	}
	return true
}

// Equal reports whether two paths have identical segment lists.
func (p InternedPath) Equal(other InternedPath) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// Resolve renders the path as a human-readable "a.b.c" string using interner.
func (p InternedPath) Resolve(in *Interner) string {
	if in == nil || len(p.segments) == 0 {
		return ""
	}
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		parts[i] = in.MustLookup(s)
	}
	return strings.Join(parts, ".")
}

// PathInterner interns dotted path strings into InternedPath values,
// composing on top of an Interner for the individual segments. Interning
// a path is idempotent: splitting the same string twice yields structurally
// equal (though not pointer-equal) InternedPath values.
type PathInterner struct {
	strings *Interner

	hits   uint64
	misses uint64
}

// NewPathInterner creates a path interner backed by the given string interner.
func NewPathInterner(strings *Interner) *PathInterner {
	return &PathInterner{strings: strings}
}

// InternPath splits s on '.' and interns each segment, tracking hit/miss
// counters for diagnostics (Stats).
func (pi *PathInterner) InternPath(s string) InternedPath {
	parts := strings.Split(s, ".")
	segs := make([]StringID, len(parts))
	for i, part := range parts {
		before := pi.strings.Len()
		segs[i] = pi.strings.Intern(part)
		if pi.strings.Len() == before {
			pi.hits++
		} else {
			pi.misses++
		}
	}
	return InternedPath{segments: segs}
}

// Stats reports interning statistics (unique hits vs. misses) used by
// diagnostics to judge interning efficiency.
type Stats struct {
	Hits       uint64
	Misses     uint64
	UniqueSegs int
}

// Stats returns a snapshot of usage statistics for this path interner.
func (pi *PathInterner) Stats() Stats {
	return Stats{Hits: pi.hits, Misses: pi.misses, UniqueSegs: pi.strings.Len()}
}
