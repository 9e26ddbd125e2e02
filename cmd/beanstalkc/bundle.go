package main

import (
	"encoding/json"
	"fmt"
	"os"

	"beanstalk/internal/ast"
)

// loadASTBundle reads a JSON-encoded []*ast.File from path. Beanstalk's
// tokenizer/parser/header pre-pass produces internal/ast's File values but
// is explicitly out of scope for this repo (spec.md §1's Non-goals name it
// a front-end responsibility); beanstalkc's input boundary is therefore
// this bundle format rather than `.bst` source text, documented in
// DESIGN.md.
func loadASTBundle(path string) ([]*ast.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ast bundle: %w", err)
	}
	var files []*ast.File
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("decode ast bundle: %w", err)
	}
	return files, nil
}
