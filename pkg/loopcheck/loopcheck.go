// Package loopcheck statically inspects submitted Go source for loop
// statements. The assignment requires vectorised, loop free solutions, so
// the grader rejects any function whose body iterates explicitly.
//
// Every check fails open: source that cannot be located or parsed yields
// no occurrences, so an uninspectable submission is still graded on its
// other merits.
package loopcheck

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a loop statement.
type Kind int

const (
	// KindFor is a counted loop: a three clause for statement or a
	// range statement.
	KindFor Kind = iota
	// KindWhile is a conditional loop: a for statement with only a
	// condition, or a bare for.
	KindWhile
)

func (k Kind) String() string {
	if k == KindWhile {
		return "while"
	}
	return "for"
}

// Occurrence records one loop statement found in a function.
type Occurrence struct {
	Kind Kind
	Line int
}

// Find reports every loop statement in src in source order, nested loops
// included. src may be a whole file or a bare snippet; a snippet that
// does not parse on its own is retried under a synthetic package clause.
// Unparsable source yields nil.
func Find(src []byte) []Occurrence {
	f, fset, lineOffset := parseSource(src)
	if f == nil {
		return nil
	}
	return inspect(f, fset, lineOffset)
}

// FindFunc locates the function with the given name in any non test .go
// file under dir and reports its loop statements. Any retrieval failure
// yields nil.
func FindFunc(dir, name string) []Occurrence {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") ||
			strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, e.Name()), nil, 0)
		if err != nil {
			continue
		}
		for _, d := range f.Decls {
			fn, ok := d.(*ast.FuncDecl)
			if !ok || fn.Name.Name != name {
				continue
			}
			return inspect(fn, fset, 0)
		}
	}
	return nil
}

func parseSource(src []byte) (ast.Node, *token.FileSet, int) {
	fset := token.NewFileSet()
	if f, err := parser.ParseFile(fset, "submission.go", src, 0); err == nil {
		return f, fset, 0
	}
	// a function extracted from a larger file has no package clause
	fset = token.NewFileSet()
	wrapped := "package submission\n\n" + string(src)
	f, err := parser.ParseFile(fset, "submission.go", wrapped, 0)
	if err != nil {
		return nil, nil, 0
	}
	return f, fset, 2
}

func inspect(root ast.Node, fset *token.FileSet, lineOffset int) []Occurrence {
	var occ []Occurrence
	ast.Inspect(root, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.ForStmt:
			kind := KindFor
			if s.Init == nil && s.Post == nil {
				kind = KindWhile
			}
			occ = append(occ, Occurrence{Kind: kind, Line: fset.Position(s.For).Line - lineOffset})
		case *ast.RangeStmt:
			occ = append(occ, Occurrence{Kind: KindFor, Line: fset.Position(s.For).Line - lineOffset})
		}
		return true
	})
	return occ
}
