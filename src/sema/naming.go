package sema

import (
	"strings"

	"razorforge/src/ast"
	"razorforge/src/diag"
)

// reservedPrefixes are prefixes checkNaming rejects on user-defined names
// because the semantic analyzer generates them as fallible-function
// variants (spec §4.3, §3 "Failable call/constructor form").
var reservedPrefixes = []string{"try_", "check_", "find_"}

// checkNaming enforces the four naming rules of spec §4.3:
//
//	(a) a function whose body can throw must be `!`-suffixed
//	(b) user code cannot define try_/check_/find_-prefixed names
//	(c) user code cannot define __name__ or __name__! (dunder) names
//	(d) `start` is reserved for the zero-parameter global entry point,
//	    and `start!` is never allowed
func (a *Analyzer) checkNaming(f *ast.FunctionDecl) {
	name := f.Name
	loc := f.Location()

	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			a.errorf(diag.KindReservedPrefix, loc, "function name %q uses reserved prefix %q", name, p)
			break
		}
	}

	if isDunder(name) {
		a.errorf(diag.KindReservedDunder, loc, "function name %q is reserved for compiler-generated specials", name)
	}

	if name == "start" {
		if f.Crashable {
			a.errorf(diag.KindReservedDunder, loc, "start! is never allowed")
		} else if len(f.Params) != 0 || f.Receiver != nil {
			a.errorf(diag.KindReservedNameViolation, loc, "start is reserved for the zero-parameter application entry point")
		}
	}

	if f.Body != nil && blockThrows(f.Body) && !f.Crashable {
		a.errorf(diag.KindThrowWithoutBang, loc, "function %q throws but is not `!`-suffixed", name)
	}
}

// isDunder reports whether name has the reserved `__name__` shape (with or
// without a trailing `!`), e.g. "__add__" or "__setitem__!".
func isDunder(name string) bool {
	n := strings.TrimSuffix(name, "!")
	return len(n) > 4 && strings.HasPrefix(n, "__") && strings.HasSuffix(n, "__")
}

// stripDunder converts a dunder operator name into its bare form for
// variant-name generation, e.g. "__add__" -> "add" (spec §4.3: "Dunder
// names strip their underscores when generating variants").
func stripDunder(name string) string {
	n := strings.TrimSuffix(name, "!")
	if isDunder(name) {
		return strings.TrimSuffix(strings.TrimPrefix(n, "__"), "__")
	}
	return n
}
