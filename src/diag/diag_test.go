package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"razorforge/src/source"
)

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "warning", Warning.String())
}

func TestKind_CategoryGrouping(t *testing.T) {
	assert.Equal(t, "Lexical", KindBadNumericSuffix.Category())
	assert.Equal(t, "Parse", KindUnexpectedToken.Category())
	assert.Equal(t, "Resolution", KindUnknownSymbol.Category())
	assert.Equal(t, "Type", KindIntegerDivide.Category())
	assert.Equal(t, "Generic", KindArityMismatch.Category())
	assert.Equal(t, "Memory", KindReturnScopedToken.Category())
	assert.Equal(t, "Naming", KindReservedDunder.Category())
	assert.Equal(t, "Intrinsic", KindIntrinsicArity.Category())
	assert.Equal(t, "Codegen", KindUnresolvedTypeAtEmission.Category())
}

func TestKind_StringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "integer /", KindIntegerDivide.String())
	assert.Equal(t, "unknown diagnostic", Kind(9999).String())
}

func TestErrorfAndWarnf_SetSeverityAndMessage(t *testing.T) {
	loc := source.Location{Line: 3, Column: 4}
	e := Errorf(KindUnknownSymbol, loc, "unknown symbol %q", "x")
	assert.Equal(t, Error, e.Severity)
	assert.Equal(t, `unknown symbol "x"`, e.Message)
	assert.Equal(t, loc, e.Loc)

	w := Warnf(KindUnresolvedTypeAtEmission, loc, "fallback used")
	assert.Equal(t, Warning, w.Severity)
}

func TestDiagnostic_StringFormat(t *testing.T) {
	d := Errorf(KindIntegerDivide, source.Location{Line: 5, Column: 2}, "use // for integer division")
	assert.Equal(t, `error[5:2]: Type: use // for integer division`, d.String())
}

func TestBag_CollectsAndSortsByLocation(t *testing.T) {
	b := NewBag()
	b.Add(Errorf(KindUnknownSymbol, source.Location{Line: 3, Column: 1}, "b"))
	b.Add(Errorf(KindUnknownSymbol, source.Location{Line: 1, Column: 5}, "a"))
	b.Add(Errorf(KindUnknownSymbol, source.Location{Line: 1, Column: 1}, "c"))

	diags := b.Close()
	assert.Equal(t, []string{"c", "a", "b"}, []string{diags[0].Message, diags[1].Message, diags[2].Message})
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Diagnostic{{Severity: Warning}}))
	assert.True(t, HasErrors([]Diagnostic{{Severity: Warning}, {Severity: Error}}))
}
