// Package generics implements the Generic Resolver (spec §4.5), a
// standalone utility consumed by both the semantic analyzer and the code
// generator. It has no direct analog in the teacher (VSL has no generics);
// its functions are deliberately small, pure, string-keyed transforms in
// the style of the teacher's src/ir/optimise.go helpers.
package generics

import "strings"

// ExtractBaseName returns the base type name of a canonical generic name,
// e.g. ExtractBaseName("List<s32>") == "List", ExtractBaseName("s32") ==
// "s32".
func ExtractBaseName(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		return name[:i]
	}
	return name
}

// ExtractTypeArguments splits the bracket-nested argument list of a
// canonical generic name at the top level only, respecting nesting, so
// that ExtractTypeArguments("List<List<s32>>") == ["List<s32>"] and
// ExtractTypeArguments("Dict<s32, Text>") == ["s32", "Text"].
func ExtractTypeArguments(name string) []string {
	start := strings.IndexByte(name, '<')
	if start < 0 || !strings.HasSuffix(name, ">") {
		return nil
	}
	inner := name[start+1 : len(name)-1]
	return splitTopLevel(inner)
}

// splitTopLevel splits s on top-level commas, i.e. commas not nested inside
// a "<...>" pair.
func splitTopLevel(s string) []string {
	var args []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if last <= len(s) {
		arg := strings.TrimSpace(s[last:])
		if arg != "" {
			args = append(args, arg)
		}
	}
	return args
}

// SubstitutionMap maps formal type-parameter names (e.g. "T", "K", "V") to
// concrete argument strings.
type SubstitutionMap map[string]string

// IsInstanceOf checks whether concrete is a valid instantiation of
// template, where template uses conventional single-letter placeholders
// (e.g. "Dict<K, V>"). It returns the consistent parameter-to-type map, or
// ok=false when arities mismatch or a parameter is used inconsistently
// (e.g. "Dict<s32, Text>" against "Dict<K, K>" — K would need to map to
// both s32 and Text).
func IsInstanceOf(concrete, template string) (SubstitutionMap, bool) {
	if ExtractBaseName(concrete) != ExtractBaseName(template) {
		return nil, false
	}
	cargs := ExtractTypeArguments(concrete)
	targs := ExtractTypeArguments(template)
	if len(cargs) != len(targs) {
		return nil, false
	}
	subst := make(SubstitutionMap, len(targs))
	for i, tparam := range targs {
		// A template argument is itself either a bare placeholder ("T")
		// or a nested generic form using placeholders ("List<T>"). Only
		// the bare-placeholder case binds directly; a nested form is
		// matched by recursing into IsInstanceOf on the corresponding
		// concrete argument.
		if strings.ContainsAny(tparam, "<>") {
			sub, ok := IsInstanceOf(cargs[i], tparam)
			if !ok {
				return nil, false
			}
			for k, v := range sub {
				if existing, bound := subst[k]; bound && existing != v {
					return nil, false
				}
				subst[k] = v
			}
			continue
		}
		if existing, bound := subst[tparam]; bound && existing != cargs[i] {
			return nil, false
		}
		subst[tparam] = cargs[i]
	}
	return subst, true
}

// Substitute performs whole-string substitution of typeName's placeholders
// per subst, recursively handling nested generics, and is idempotent:
// substituting a name that contains no bound placeholder returns it
// unchanged.
func Substitute(typeName string, subst SubstitutionMap) string {
	base := ExtractBaseName(typeName)
	args := ExtractTypeArguments(typeName)
	if len(args) == 0 {
		if repl, ok := subst[typeName]; ok {
			return repl
		}
		return typeName
	}
	substituted := make([]string, len(args))
	for i, a := range args {
		substituted[i] = Substitute(a, subst)
	}
	if repl, ok := subst[base]; ok {
		base = repl
	}
	return base + "<" + strings.Join(substituted, ", ") + ">"
}

// GenerateTemplateCandidates enumerates the candidate template keys used
// by method resolution for a concrete receiver type and method name (spec
// §4.3 step 2): the exact canonical form, the template-parameter form
// (conventional single-letter placeholders), and the base-name-only form.
func GenerateTemplateCandidates(concreteType, method string) []string {
	base := ExtractBaseName(concreteType)
	args := ExtractTypeArguments(concreteType)

	candidates := []string{concreteType + "." + method}
	if len(args) > 0 {
		placeholders := conventionalPlaceholders(len(args))
		tmplType := base + "<" + strings.Join(placeholders, ", ") + ">"
		candidates = append(candidates, tmplType+"."+method)
	}
	candidates = append(candidates, base+"."+method)
	return candidates
}

// conventionalPlaceholders returns n conventional single-letter generic
// parameter names: T, U, V, ... then K1, K2, ... if n > 3.
func conventionalPlaceholders(n int) []string {
	letters := []string{"T", "U", "V"}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(letters) {
			out = append(out, letters[i])
		} else {
			out = append(out, "K"+string(rune('1'+i-len(letters))))
		}
	}
	return out
}
