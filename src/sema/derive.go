package sema

import (
	"razorforge/src/ast"
	"razorforge/src/diag"
	"razorforge/src/symbols"
)

// blockThrows reports whether body may execute a ThrowStatement, searching
// every nested statement except inside a nested function/lambda body
// (those derive their own variants independently).
func blockThrows(b *ast.Block) bool { return anyStatement(b, isThrow) }

// blockAbsents reports whether body may execute an AbsentStatement.
func blockAbsents(b *ast.Block) bool { return anyStatement(b, isAbsent) }

func isThrow(s ast.Statement) bool  { _, ok := s.(*ast.ThrowStatement); return ok }
func isAbsent(s ast.Statement) bool { _, ok := s.(*ast.AbsentStatement); return ok }

// anyStatement walks b recursively (if/while/for/when/danger bodies, not
// into nested routine declarations) looking for a statement matching pred.
func anyStatement(b *ast.Block, pred func(ast.Statement) bool) bool {
	if b == nil {
		return false
	}
	for _, s := range b.Statements {
		if walkStatement(s, pred) {
			return true
		}
	}
	return false
}

func walkStatement(s ast.Statement, pred func(ast.Statement) bool) bool {
	if pred(s) {
		return true
	}
	switch v := s.(type) {
	case *ast.IfStatement:
		return anyStatement(v.Then, pred) || anyStatement(v.Else, pred)
	case *ast.WhileStatement:
		return anyStatement(v.Body, pred)
	case *ast.ForStatement:
		return anyStatement(v.Body, pred)
	case *ast.Block:
		return anyStatement(v, pred)
	case *ast.DangerBlock:
		return anyStatement(v.Body, pred)
	case *ast.WhenStatement:
		for _, c := range v.Cases {
			if c.Body != nil && walkStatement(c.Body, pred) {
				return true
			}
		}
	case *ast.DeclStatement:
		// A nested `routine` declaration derives its own variants
		// independently; its throw/absent usage does not propagate to the
		// enclosing function.
		return false
	}
	return false
}

// deriveVariants registers f's safe variants per the derivation table
// (spec §4.3). deriveVariants only runs for `!`-suffixed (Crashable)
// functions, so the throws=false/absent=false row is reached only when a
// function's `!` signals neither a throw nor an absent path:
//
//	throws=false, absent=false: error — a crashable function must throw or
//	  go absent somewhere in its body; otherwise its `!` documents nothing
//	throws=false, absent=true:  try_f -> Maybe<T>
//	throws=true,  absent=false: try_f -> Maybe<T>, check_f -> Result<T>
//	throws=true,  absent=true:  try_f -> Maybe<T>, find_f -> Lookup<T>
//
// Dunder names strip their underscores first, so `__add__!` derives
// `try_add`/`check_add`, never `try___add__`.
func (a *Analyzer) deriveVariants(f *ast.FunctionDecl, throws, absent bool) {
	if !throws && !absent {
		a.errorf(diag.KindCrashableWithoutFallibility, f.Location(),
			"function %q is `!`-suffixed but never throws or goes absent", f.Name)
		return
	}
	base := stripDunder(f.Name)
	retName := typeExprName(f.ReturnType)

	registerVariant := func(prefix, wrapper string) {
		sym := &symbols.Symbol{
			Name: prefix + base, Kind: symbols.KindFunction, Vis: f.Vis, Loc: f.Location(),
			Params: f.Params, GenericParams: f.GenericParams,
			ReturnType: &ast.TypeExpr{Name: wrapper, Args: wrapArgs(f.ReturnType)},
			Decl:       f,
		}
		_ = retName
		if err := a.Types.Insert(sym); err != nil {
			// A user-defined name collided with a derived variant name;
			// reported as a duplicate rather than silently dropped.
			a.errorf(diag.KindDuplicateDeclaration, f.Location(), "%s", err)
		}
	}

	registerVariant("try_", "Maybe")
	switch {
	case throws && !absent:
		registerVariant("check_", "Result")
	case throws && absent:
		registerVariant("find_", "Lookup")
	}
}

// wrapArgs returns the single-element generic-argument list wrapping ret,
// or nil for a void return (Maybe<Void>/Result<Void>/Lookup<Void> are still
// well-formed: the variant exists purely to report the throw/absent state).
func wrapArgs(ret *ast.TypeExpr) []*ast.TypeExpr {
	if ret == nil {
		return []*ast.TypeExpr{{Name: "Void"}}
	}
	return []*ast.TypeExpr{ret}
}
