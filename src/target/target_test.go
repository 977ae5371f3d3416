package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownTriple(t *testing.T) {
	p, ok := Lookup("x86_64-pc-linux-gnu")
	require.True(t, ok)
	assert.Equal(t, 64, p.AddrBits)
	assert.Equal(t, 64, p.LongBits)
	assert.Equal(t, 32, p.WCharBits)
	assert.NotEmpty(t, p.DataLayout)
}

func TestLookup_UnknownTriple(t *testing.T) {
	_, ok := Lookup("made-up-triple")
	assert.False(t, ok)
}

func TestWindowsLLP64Widths(t *testing.T) {
	p, ok := Lookup("x86_64-pc-windows-msvc")
	require.True(t, ok)
	assert.Equal(t, 64, p.AddrBits, "uaddr/saddr stay 64-bit on win64")
	assert.Equal(t, 32, p.LongBits, "clong/culong are 32-bit under LLP64")
	assert.Equal(t, 16, p.WCharBits, "cwchar is 16-bit on Windows")
}

func TestUnixLP64Widths(t *testing.T) {
	p, ok := Lookup("x86_64-pc-linux-gnu")
	require.True(t, ok)
	assert.Equal(t, p.AddrBits, p.LongBits, "clong is 64-bit under LP64, same as uaddr")
	assert.Equal(t, 32, p.WCharBits, "cwchar is 32-bit off Windows")
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, defaultTriple, p.Triple)
}

func TestTriples_IncludesAllNamedArchitectures(t *testing.T) {
	all := Triples()
	assert.Contains(t, all, "x86_64-pc-linux-gnu")
	assert.Contains(t, all, "aarch64-apple-darwin")
	assert.Contains(t, all, "riscv64-unknown-linux-gnu")
	assert.Contains(t, all, "wasm32-unknown-unknown")
}

func TestAddressWidthOf(t *testing.T) {
	p, _ := Lookup("aarch64-pc-windows-msvc")
	bits, ok := p.AddressWidthOf("uaddr")
	require.True(t, ok)
	assert.Equal(t, 64, bits)

	bits, ok = p.AddressWidthOf("clong")
	require.True(t, ok)
	assert.Equal(t, 32, bits)

	_, ok = p.AddressWidthOf("s32")
	assert.False(t, ok)
}
