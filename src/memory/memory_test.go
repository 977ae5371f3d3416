package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/diag"
	"razorforge/src/source"
)

func TestRegisterAndUse_OwnedObjectIsUsableFreely(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})

	a.Use("x", source.Location{Line: 2})
	assert.False(t, diag.HasErrors(bag.Close()))
}

func TestUse_UntrackedNameIsIgnored(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Use("never_registered", source.Location{Line: 1})
	assert.False(t, diag.HasErrors(bag.Close()))
}

func TestCreateToken_HijackInvalidatesSource(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})

	a.CreateToken("x", TokenHijack, "Hijacked<Widget>", source.Location{Line: 2})
	a.Use("x", source.Location{Line: 3})

	diags := bag.Close()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUseAfterInvalidation, diags[0].Kind)
}

func TestCreateToken_ViewDoesNotInvalidateSource(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})

	a.CreateToken("x", TokenView, "Viewed<Widget>", source.Location{Line: 2})
	a.Use("x", source.Location{Line: 3})
	assert.False(t, diag.HasErrors(bag.Close()))
}

func TestPopScope_RestoresInvalidatedSourceOnceHostTokenGoesAway(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})

	a.PushScope()
	a.CreateToken("x", TokenHijack, "Hijacked<Widget>", source.Location{Line: 2})
	a.PopScope()

	a.Use("x", source.Location{Line: 3})
	assert.False(t, diag.HasErrors(bag.Close()))
}

func TestCheckReturn_ScopedTokenCanNeverBeReturned(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})
	a.CreateToken("x", TokenView, "Viewed<Widget>", source.Location{Line: 2})

	a.CheckReturn("x.token", source.Location{Line: 3})
	diags := bag.Close()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindReturnScopedToken, diags[0].Kind)
}

func TestCheckReturn_SharedHandleRequiresUsurpingFunction(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})
	a.CreateToken("x", TokenSeize, "Seized<Widget>", source.Location{Line: 2})

	a.CheckReturn("x", source.Location{Line: 3})
	diags := bag.Close()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindTokenOutsideUsurping, diags[0].Kind)
}

func TestCheckReturn_SharedHandleAllowedFromUsurpingFunction(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(true, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})
	a.CreateToken("x", TokenSeize, "Seized<Widget>", source.Location{Line: 2})

	a.CheckReturn("x", source.Location{Line: 3})
	assert.False(t, diag.HasErrors(bag.Close()))
}

func TestCheckStorable_ScopedTokenCannotBeStored(t *testing.T) {
	bag := diag.NewBag()
	a := NewAnalyzer(false, bag)
	a.Register("x", "Widget", Owned, source.Location{Line: 1})
	a.CreateToken("x", TokenView, "Viewed<Widget>", source.Location{Line: 2})

	a.CheckStorable("x.token", source.Location{Line: 3})
	diags := bag.Close()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindStoreScopedToken, diags[0].Kind)
}
