package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"beanstalk/internal/diag"
	"beanstalk/internal/source"
)

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()

	content := []byte("f = |x Int|: let y = consume(x);\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.bsk", content)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	d := diag.New(
		diag.SevError,
		diag.BorrowUseAfterMove,
		source.Span{File: fileID, Start: 8, End: 28},
		"use of a value after it was moved",
	)
	bag.Add(&d)

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/test.bsk"},
		{"Relative path", PathModeRelative, "src/test.bsk"},
		{"Basename only", PathModeBasename, "test.bsk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := PrettyOpts{Color: false, Context: 1, PathMode: tt.mode}

			Pretty(&buf, bag, fs, opts)
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR") {
				t.Error("expected ERROR in output")
			}
			if !strings.Contains(output, "BOR3002") {
				t.Error("expected BOR3002 code in output")
			}
			if !strings.Contains(output, "use of a value after it was moved") {
				t.Error("expected error message in output")
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Short path - as is", "test.bsk", "test.bsk"},
		{"Long absolute path - basename", "/very/long/absolute/path/to/some/nested/directory/file.bsk", "file.bsk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte("let x = 42\n")
			fileID := fs.AddVirtual(tt.path, content)

			bag := diag.NewBag(10)
			d := diag.New(
				diag.SevWarning,
				diag.LowerUnknownSymbol,
				source.Span{File: fileID, Start: 8, End: 10},
				"test warning",
			)
			bag.Add(&d)

			var buf bytes.Buffer
			opts := PrettyOpts{Color: false, Context: 0, PathMode: PathModeAuto}

			Pretty(&buf, bag, fs, opts)
			output := buf.String()

			if !strings.Contains(output, tt.expected) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expected, output)
			}
		})
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("consume(x); consume(x)\n")
	fileID := fs.AddVirtual("test.bsk", content)

	bag := diag.NewBag(4)
	primary := source.Span{File: fileID, Start: 12, End: 19}
	d := diag.New(diag.SevWarning, diag.BorrowUseAfterMove, primary, "use of a value after it was moved")

	noteSpan := source.Span{File: fileID, Start: 0, End: 7}
	d = d.WithNote(noteSpan, "value was moved here")

	insertSpan := source.Span{File: fileID, Start: primary.End, End: primary.End}
	d = d.WithFix("borrow instead of moving", diag.FixEdit{Span: insertSpan, NewText: ";"})

	preferredFix := diag.Fix{
		ID:            "borrow-instead-001",
		Title:         "borrow instead of moving",
		Kind:          diag.FixKindRefactor,
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		IsPreferred:   true,
		Edits:         []diag.FixEdit{{Span: primary, NewText: "&x"}},
	}
	d = d.WithFixSuggestion(preferredFix)

	bag.Add(&d)

	var buf bytes.Buffer
	opts := PrettyOpts{
		Color:     false,
		Context:   0,
		PathMode:  PathModeBasename,
		ShowNotes: true,
		ShowFixes: true,
	}
	Pretty(&buf, bag, fs, opts)

	output := buf.String()

	if !strings.Contains(output, "note: test.bsk:1:1") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #1: borrow instead of moving") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, "apply=\";\"") {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
	if !strings.Contains(output, "id=borrow-instead-001") {
		t.Fatalf("expected second fix id in output, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let a = 42 // missing semicolon")
	fileID := fs.AddVirtual("example.bsk", content)

	bag := diag.NewBag(2)
	insertSpan := source.Span{File: fileID, Start: 10, End: 10}
	d := diag.New(diag.SevWarning, diag.LowerUnknownSymbol, insertSpan, "missing semicolon")
	d = d.WithFix("insert semicolon", diag.FixEdit{
		Span:    insertSpan,
		NewText: ";",
	})

	bag.Add(&d)

	var buf bytes.Buffer
	opts := PrettyOpts{
		Color:       false,
		Context:     0,
		PathMode:    PathModeBasename,
		ShowFixes:   true,
		ShowPreview: true,
	}
	Pretty(&buf, bag, fs, opts)

	output := buf.String()
	if !strings.Contains(output, "preview:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- let a = 42 // missing semicolon") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, "+ let a = 42; // missing semicolon") {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}
