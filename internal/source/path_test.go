package source

import "testing"

func TestInternedPathJoinAndName(t *testing.T) {
	in := NewInterner()
	a := in.Intern("pkg")
	b := in.Intern("mod")
	c := in.Intern("Func")

	p := NewInternedPath(a).Join(b).Join(c)
	if p.Name() != c {
		t.Fatalf("Name() = %v, want %v", p.Name(), c)
	}
	if got := p.Resolve(in); got != "pkg.mod.Func" {
		t.Fatalf("Resolve() = %q", got)
	}
}

func TestInternedPathEndsWith(t *testing.T) {
	in := NewInterner()
	pi := NewPathInterner(in)

	full := pi.InternPath("pkg.mod.Func")
	suffix := pi.InternPath("mod.Func")
	other := pi.InternPath("Func")
	unrelated := pi.InternPath("zzz.Func")

	if !full.EndsWith(suffix) {
		t.Error("expected full to end with suffix")
	}
	if !full.EndsWith(other) {
		t.Error("expected full to end with single-segment suffix")
	}
	if full.EndsWith(unrelated) {
		t.Error("did not expect full to end with unrelated path")
	}
}

func TestPathInternerIdempotent(t *testing.T) {
	in := NewInterner()
	pi := NewPathInterner(in)

	p1 := pi.InternPath("a.b.c")
	p2 := pi.InternPath("a.b.c")
	if !p1.Equal(p2) {
		t.Fatal("expected idempotent interning to produce equal paths")
	}
	stats := pi.Stats()
	if stats.Misses != 3 {
		t.Fatalf("expected 3 misses after first intern, got %d", stats.Misses)
	}
	if stats.Hits != 3 {
		t.Fatalf("expected 3 hits after repeat intern, got %d", stats.Hits)
	}
}

func TestInternedPathStem(t *testing.T) {
	in := NewInterner()
	pi := NewPathInterner(in)
	p := pi.InternPath("a.b.c")
	stem := p.Stem()
	if got := stem.Resolve(in); got != "a.b" {
		t.Fatalf("Stem().Resolve() = %q", got)
	}
}
