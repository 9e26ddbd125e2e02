// Package ast is the front-end contract internal/hirbuild consumes: a
// per-file syntax tree already past tokenizing, parsing, name resolution,
// and type checking (all out of scope per spec.md §1). It carries runtime
// expressions pre-flattened into reverse-Polish token streams, exactly the
// shape spec.md §4.D's HIR builder expects to walk with a value stack.
//
// This is deliberately a slim, hand-rolled stand-in for the teacher's
// generics-heavy internal/ast (Arena[T], visibility/pragma/attribute
// machinery) - the middle end needs only expressions, statements, and
// function/struct headers, not the teacher's full surface declaration set.
package ast

import "beanstalk/internal/source"

// File is one parsed source file: its function and struct declarations and
// the names it imports from elsewhere.
type File struct {
	Path    string
	Imports []Import
	Structs []*StructDecl
	Funcs   []*FuncDecl
}

// Import binds a local name to a fully-qualified external path.
type Import struct {
	LocalName string
	FQN       string
	Span      source.Span
}

// FieldDecl is one struct field, in declaration order.
type FieldDecl struct {
	Name string
	Type string // resolved type name; see hirbuild's type-name resolver
}

// StructDecl declares a struct type.
type StructDecl struct {
	Name   string
	Fields []FieldDecl
	Span   source.Span
}

// Param is one function parameter.
type Param struct {
	Name    string
	Type    string
	Mutable bool
	// Ownership mirrors hir.Ownership; the front end resolves whether a
	// parameter is an owned binding or an explicit reference.
	Ownership string // "own" | "ref" | "refmut" | "copy"
}

// FuncDecl declares one function: its signature and statement body.
type FuncDecl struct {
	Name       string
	FQN        string // dot-joined fully-qualified path
	Exported   bool
	Entrypoint bool // true for the program's designated start function
	Params     []Param
	ReturnType string
	Body       []Stmt
	Span       source.Span
}
