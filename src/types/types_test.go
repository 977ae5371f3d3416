package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_IntrinsicsAreSingleFieldWithLLVMUnderlying(t *testing.T) {
	r := NewRegistry()
	s32, ok := r.Lookup("s32")
	require.True(t, ok)
	assert.True(t, s32.IsSingleField)
	assert.Equal(t, "i32", s32.LLVMUnderlying)
	assert.True(t, s32.Is(SignedInteger))
	assert.True(t, s32.Is(Numeric))
	assert.False(t, s32.Is(UnsignedInteger))

	u64, ok := r.Lookup("u64")
	require.True(t, ok)
	assert.True(t, u64.Is(UnsignedInteger))

	f64, ok := r.Lookup("f64")
	require.True(t, ok)
	assert.Equal(t, "double", f64.LLVMUnderlying)
	assert.True(t, f64.Is(FloatingPoint))

	b, ok := r.Lookup("bool")
	require.True(t, ok)
	assert.Equal(t, "i1", b.LLVMUnderlying)
}

func TestBindAddressWidth_RebindsSaddrAndUaddr(t *testing.T) {
	r := NewRegistry()
	r.BindAddressWidth(32)
	saddr, ok := r.Lookup("saddr")
	require.True(t, ok)
	assert.Equal(t, "i32", saddr.LLVMUnderlying)
	uaddr, ok := r.Lookup("uaddr")
	require.True(t, ok)
	assert.Equal(t, "i32", uaddr.LLVMUnderlying)
}

func TestRegisterAndLookup_UserDeclaredType(t *testing.T) {
	r := NewRegistry()
	r.Register(&TypeInfo{Name: "Point", Category: CatRecord})
	info, ok := r.Lookup("Point")
	require.True(t, ok)
	assert.Equal(t, CatRecord, info.Category)
}

func TestInstantiate_SameArgsTupleReturnsSameInstance(t *testing.T) {
	r := NewRegistry()
	r.RegisterTemplate("List<T>", []string{"T"})

	calls := 0
	make1 := func() *TypeInfo {
		calls++
		return &TypeInfo{Name: "List<s32>", Category: CatRecord}
	}
	a, ok := r.Instantiate("List<T>", "s32", make1)
	require.True(t, ok)
	b, ok := r.Instantiate("List<T>", "s32", make1)
	require.True(t, ok)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)

	// The instantiation is also reachable directly by its canonical name.
	found, ok := r.Lookup("List<s32>")
	require.True(t, ok)
	assert.Same(t, a, found)
}

func TestInstantiate_UnknownTemplateFails(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Instantiate("Missing<T>", "s32", func() *TypeInfo { return nil })
	assert.False(t, ok)
}

func TestMangledName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"s32", "s32"},
		{"List<s32>", "List_s32"},
		{"Range<BackIndex<uaddr>>", "Range_BackIndex_uaddr"},
		{"Dict<s32, Text>", "Dict_s32_Text"},
		{"TestType<s64>.get_value", "TestType_s64_get_value"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MangledName(c.in), c.in)
	}
}

func TestClassifyErrorHandlingGeneric(t *testing.T) {
	assert.Equal(t, MaybeGeneric, ClassifyErrorHandlingGeneric("Maybe"))
	assert.Equal(t, ResultGeneric, ClassifyErrorHandlingGeneric("Result"))
	assert.Equal(t, LookupGeneric, ClassifyErrorHandlingGeneric("Lookup"))
	assert.Equal(t, NotErrorHandling, ClassifyErrorHandlingGeneric("List"))
}

func TestWrapperKind_Classification(t *testing.T) {
	assert.True(t, Viewed.IsScopedToken())
	assert.True(t, Hijacked.IsScopedToken())
	assert.False(t, Shared.IsScopedToken())
	assert.True(t, Shared.IsHandle())
	assert.True(t, Tracked.IsHandle())
	assert.False(t, Viewed.IsHandle())
}
