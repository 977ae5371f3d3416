package codegen

import (
	"strings"

	"razorforge/src/ast"
	"razorforge/src/types"
)

// mangleFunction produces f's emitted LLVM symbol name: the receiver type
// (if any) prefixed to the routine name, generic arguments substituted in
// on the instantiation that reached codegen, sanitized through the same
// mangler the type registry uses for struct names (spec §4.7 "Methods on
// generic types carry the full instantiated receiver type... Function
// variants preserve the prefix naming from §4.3, dunder-stripped").
func mangleFunction(f *ast.FunctionDecl) string {
	name := stripDunder(f.Name)
	if f.Receiver != nil {
		name = typeExprCanonical(f.Receiver) + "." + name
	}
	return types.MangledName(name)
}

// stripDunder removes a leading and trailing "__" pair, e.g. "__add__" ->
// "add", matching the derivation table's base-name rule (spec §4.3).
func stripDunder(name string) string {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4 {
		return name[2 : len(name)-2]
	}
	return name
}

func typeExprCanonical(t *ast.TypeExpr) string {
	if t == nil {
		return ""
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = typeExprCanonical(a)
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}
