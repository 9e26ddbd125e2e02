package jsback

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// reserved holds JS reserved words plus a few global identifiers worth
// steering clear of, so a user name never shadows something load-bearing in
// the emitted module (spec.md §4.H "hygienic naming").
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true,
	"implements": true, "package": true, "protected": true, "interface": true,
	"private": true, "public": true, "null": true, "true": true, "false": true,
	"undefined": true, "NaN": true, "Infinity": true, "arguments": true,
	"eval": true,
}

// nameTable assigns each distinct key a hygienic JS identifier, normalizing
// to NFC first so visually identical source names never collide as
// distinct byte sequences, then suffixing _1/_2/... on collision
// (spec.md §4.H).
type nameTable struct {
	used     map[string]bool
	assigned map[string]string
}

func newNameTable() *nameTable {
	return &nameTable{used: make(map[string]bool), assigned: make(map[string]string)}
}

// name returns the hygienic identifier for key, assigning one from
// preferred on first use and returning the same identifier on every later
// call with the same key.
func (nt *nameTable) name(key, preferred string) string {
	if n, ok := nt.assigned[key]; ok {
		return n
	}
	base := sanitize(preferred)
	candidate := base
	n := 1
	for nt.used[candidate] || reserved[candidate] {
		candidate = fmt.Sprintf("%s_%d", base, n)
		n++
	}
	nt.used[candidate] = true
	nt.assigned[key] = candidate
	return candidate
}

// get returns the identifier previously assigned to key, or "" if none was.
func (nt *nameTable) get(key string) string {
	return nt.assigned[key]
}

// sanitize maps an arbitrary source identifier onto a valid JS
// IdentifierName: NFC-normalized, with any rune that is not a Unicode
// letter or digit, '_' or '$' replaced by '_', and a leading '_' inserted
// if the result would
// otherwise start with a digit or be empty.
func sanitize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if i == 0 && unicode.IsDigit(r) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	return out
}
