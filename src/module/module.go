// Package module resolves import paths to parsed files, eagerly loading the
// transitive closure of a program's imports before semantic analysis begins
// (spec §4.6 Module Resolver).
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/lexer"
	"razorforge/src/parser"
	"razorforge/src/source"
)

// corePath is the designated core namespace auto-loaded into every
// compilation's global scope without an explicit import (spec §4.6 Core
// prelude): primitives, letters, error-handling types, DynamicSlice, Range,
// BackIndex, Integral.
const corePath = "core"

// Unit is one resolved, parsed source file together with the canonical
// import path it was loaded under.
type Unit struct {
	Path      string
	File      *source.File
	Program   *ast.Program
	Imports   []ImportSpec
	IsPrelude bool
}

// ImportSpec is one of a unit's own `import A/B/C [as X] [/{B, C}]`
// declarations, carried alongside the Unit so the semantic analyzer can
// scope that unit's visible symbols to exactly what it names here rather
// than the whole transitive load (spec §4.6: "Symbols are not transitively
// re-exported; each importer must explicitly import what it uses").
type ImportSpec struct {
	Path      string   // canonical, slash-joined import path
	Alias     string   // empty when absent
	Selective []string // empty when not a selective import
}

// importsOf extracts prog's own import declarations into ImportSpecs.
func importsOf(prog *ast.Program) []ImportSpec {
	var out []ImportSpec
	for _, d := range prog.Declarations {
		imp, ok := d.(*ast.ImportDecl)
		if !ok {
			continue
		}
		out = append(out, ImportSpec{
			Path:      strings.Join(imp.Path, "/"),
			Alias:     imp.Alias,
			Selective: imp.Selective,
		})
	}
	return out
}

// Resolver walks import declarations, loading each referenced file exactly
// once and detecting cycles, across the standard library root, the project
// root, and any external package roots (spec §4.6 Search order).
type Resolver struct {
	stdlibRoot string
	projectRoot string
	externalRoots []string

	fset  *source.FileSet
	diags *diag.Bag

	cache    map[string]*Unit   // canonical import path -> loaded unit
	loading  []string           // in-progress load stack, for cycle detection
	namespaceOverrides map[string]string // namespace-declared path -> folder-derived path
}

// NewResolver constructs a Resolver bound to one compilation's FileSet and
// diagnostic Bag.
func NewResolver(stdlibRoot, projectRoot string, externalRoots []string, fset *source.FileSet, diags *diag.Bag) *Resolver {
	return &Resolver{
		stdlibRoot:    stdlibRoot,
		projectRoot:   projectRoot,
		externalRoots: externalRoots,
		fset:          fset,
		diags:         diags,
		cache:         make(map[string]*Unit),
		namespaceOverrides: make(map[string]string),
	}
}

// LoadEntry resolves and parses the program's entry file, then eagerly loads
// every module it transitively imports, returning all loaded units in load
// order (spec §4.6 Load policy: "eager transitive load before semantic
// analysis begins, so all symbol tables are populated").
func (r *Resolver) LoadEntry(path, content string, dialect source.Dialect) ([]*Unit, error) {
	var units []*Unit

	prelude, err := r.load(corePath)
	if err == nil {
		prelude.IsPrelude = true
		units = append(units, prelude)
	}
	// A stdlib root that has no "core" namespace is tolerated: tests and
	// minimal invocations may omit it, and its absence is reported once via
	// diagnostics rather than aborting the whole load.
	if err != nil {
		r.diags.Add(diag.Warnf(diag.KindModuleNotFound, source.Location{}, "core prelude not found under stdlib root: %s", err))
	}

	f := r.fset.Add(path, "", content, dialect)
	prog, perrs := parseFile(f)
	for _, d := range perrs {
		r.diags.Add(d)
	}
	entry := &Unit{Path: "", File: f, Program: prog, Imports: importsOf(prog)}
	units = append(units, entry)
	r.cache[""] = entry

	more, err := r.loadImportsOf(prog)
	if err != nil {
		return units, err
	}
	units = append(units, more...)
	return units, nil
}

// loadImportsOf loads every module directly imported by prog, recursing
// into their own imports, skipping anything already cached.
func (r *Resolver) loadImportsOf(prog *ast.Program) ([]*Unit, error) {
	var out []*Unit
	for _, d := range prog.Declarations {
		imp, ok := d.(*ast.ImportDecl)
		if !ok {
			continue
		}
		path := strings.Join(imp.Path, "/")
		cyclic := false
		for _, in := range r.loading {
			cyclic = cyclic || in == path
		}
		if cyclic {
			r.diags.Add(diag.Errorf(diag.KindCircularImport, imp.Location(), "circular import: %s -> %s", strings.Join(r.loading, " -> "), path))
			continue
		}
		if _, cached := r.cache[path]; cached {
			continue
		}
		u, err := r.load(path)
		if err != nil {
			r.diags.Add(diag.Errorf(diag.KindModuleNotFound, imp.Location(), "module %q not found: %s", path, err))
			continue
		}
		out = append(out, u)
		r.loading = append(r.loading, u.Path)
		more, err := r.loadImportsOf(u.Program)
		r.loading = r.loading[:len(r.loading)-1]
		if err != nil {
			return out, err
		}
		out = append(out, more...)
	}
	return out, nil
}

// load resolves path to a file, reading it from the standard library root,
// then the project root, then each external root in order (spec §4.6
// Search order), parses it, and caches the result by canonical import path.
// A cycle revisiting an in-progress load is reported and short-circuited
// rather than recursing forever (spec §4.6 Cycles).
func (r *Resolver) load(path string) (*Unit, error) {
	if u, ok := r.cache[path]; ok {
		return u, nil
	}
	if canonical, ok := r.namespaceOverrides[path]; ok {
		path = canonical
	}
	for _, in := range r.loading {
		if in == path {
			r.diags.Add(diag.Errorf(diag.KindCircularImport, source.Location{}, "circular import: %s -> %s", strings.Join(r.loading, " -> "), path))
			return nil, fmt.Errorf("circular import at %q", path)
		}
	}
	r.loading = append(r.loading, path)
	defer func() { r.loading = r.loading[:len(r.loading)-1] }()

	name, content, dialect, err := r.readModule(path)
	if err != nil {
		return nil, err
	}

	f := r.fset.Add(name, path, content, dialect)
	prog, perrs := parseFile(f)
	for _, d := range perrs {
		r.diags.Add(d)
	}

	for _, decl := range prog.Declarations {
		if ns, ok := decl.(*ast.NamespaceDecl); ok {
			declared := strings.Join(ns.Path, "/")
			if declared != path {
				r.namespaceOverrides[declared] = path
			}
		}
	}

	u := &Unit{Path: path, File: f, Program: prog, Imports: importsOf(prog)}
	r.cache[path] = u
	return u, nil
}

// readModule searches the three roots in priority order for a file backing
// import path, reading the first match.
func (r *Resolver) readModule(path string) (name, content string, dialect source.Dialect, err error) {
	roots := make([]string, 0, 2+len(r.externalRoots))
	if r.stdlibRoot != "" {
		roots = append(roots, r.stdlibRoot)
	}
	if r.projectRoot != "" {
		roots = append(roots, r.projectRoot)
	}
	roots = append(roots, r.externalRoots...)

	for _, root := range roots {
		for _, ext := range []string{".rf", ".sf"} {
			candidate := filepath.Join(root, filepath.FromSlash(path)+ext)
			b, rerr := os.ReadFile(candidate)
			if rerr != nil {
				continue
			}
			d, _ := source.DialectForExt(ext)
			return candidate, string(b), d, nil
		}
	}
	return "", "", source.Unknown, fmt.Errorf("no source file for import path %q under any search root", path)
}

func parseFile(f *source.File) (*ast.Program, []diag.Diagnostic) {
	toks, lerrs := lexer.Lex(f)
	prog, perrs := parser.Parse(f, toks)
	all := append(lerrs, perrs...)
	return prog, all
}
