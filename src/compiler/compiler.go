// Package compiler orchestrates the full pipeline described in the library
// contract: lex, parse, resolve imports, run semantic analysis over every
// loaded unit, then emit LLVM IR for the entry program — generalized from
// src/main.go's run(opt util.Options) error staging function into a pure
// library call with no dependency on a CLI surface.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"razorforge/src/codegen"
	"razorforge/src/diag"
	"razorforge/src/module"
	"razorforge/src/sema"
	"razorforge/src/source"
	"razorforge/src/target"
)

// Result carries everything Compile produces: the generated LLVM IR (empty
// if compilation stopped before codegen) and every diagnostic collected
// across every stage.
type Result struct {
	LLVMIR string
	Diags  []diag.Diagnostic
}

// Compile runs the whole pipeline against the file at sourcePath, resolving
// its imports against stdlibRoot, projectRoot and externalRoots in that
// search order (module.Resolver), then semantically analyzing and
// generating code for the entry program.
//
// Analysis always runs to completion so every diagnostic the program raises
// is reported, but codegen never runs once an Error-severity diagnostic is
// outstanding (§7 propagation policy: diagnostics accumulate across stages,
// code generation is gated on their absence).
func Compile(sourcePath, stdlibRoot, projectRoot string, externalRoots []string, targetTriple string) (Result, error) {
	log := logrus.WithField("stage", "compile")

	content, err := readSource(sourcePath)
	if err != nil {
		return Result{}, fmt.Errorf("compiler: %w", err)
	}
	dialect, ok := source.DialectForExt(extOf(sourcePath))
	if !ok {
		return Result{}, fmt.Errorf("compiler: unrecognized source extension for %q", sourcePath)
	}

	fset := source.NewFileSet()
	bag := diag.NewBag()

	log.Debug("resolving imports")
	resolver := module.NewResolver(stdlibRoot, projectRoot, externalRoots, fset, bag)
	units, err := resolver.LoadEntry(sourcePath, content, dialect)
	if err != nil {
		diags := bag.Close()
		return Result{Diags: diags}, fmt.Errorf("compiler: resolving %q: %w", sourcePath, err)
	}
	if len(units) == 0 {
		diags := bag.Close()
		return Result{Diags: diags}, fmt.Errorf("compiler: %q resolved to no units", sourcePath)
	}

	log.WithField("units", len(units)).Debug("running semantic analysis")
	analyzer := sema.NewAnalyzer(bag)
	analyzer.AnalyzeUnits(units)

	diags := bag.Close()
	if diag.HasErrors(diags) {
		log.WithField("diagnostics", len(diags)).Warn("errors present, skipping codegen")
		return Result{Diags: diags}, nil
	}

	plat := target.Default()
	if targetTriple != "" {
		p, ok := target.Lookup(targetTriple)
		if !ok {
			return Result{Diags: diags}, fmt.Errorf("compiler: unknown target triple %q", targetTriple)
		}
		plat = p
	}

	log.WithField("target", plat.Triple).Debug("generating LLVM IR")
	entry := units[len(units)-1]
	for _, u := range units {
		if u.Path == "" {
			entry = u
			break
		}
	}

	gen := codegen.NewGenerator(moduleNameOf(sourcePath), plat, analyzer)
	defer gen.Dispose()
	ir, err := gen.Generate(entry.Program)
	if err != nil {
		return Result{Diags: diags}, fmt.Errorf("compiler: codegen: %w", err)
	}

	return Result{LLVMIR: ir, Diags: diags}, nil
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func extOf(path string) string {
	return filepath.Ext(path)
}

func moduleNameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
