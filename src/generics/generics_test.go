package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBaseName(t *testing.T) {
	assert.Equal(t, "List", ExtractBaseName("List<s32>"))
	assert.Equal(t, "s32", ExtractBaseName("s32"))
}

func TestExtractTypeArguments(t *testing.T) {
	assert.Equal(t, []string{"List<s32>"}, ExtractTypeArguments("List<List<s32>>"))
	assert.Equal(t, []string{"s32", "Text"}, ExtractTypeArguments("Dict<s32, Text>"))
	assert.Nil(t, ExtractTypeArguments("s32"))
}

func TestIsInstanceOf_BarePlaceholders(t *testing.T) {
	subst, ok := IsInstanceOf("Dict<s32, Text>", "Dict<K, V>")
	require.True(t, ok)
	assert.Equal(t, SubstitutionMap{"K": "s32", "V": "Text"}, subst)
}

func TestIsInstanceOf_InconsistentPlaceholderUseFails(t *testing.T) {
	_, ok := IsInstanceOf("Dict<s32, Text>", "Dict<K, K>")
	assert.False(t, ok)
}

func TestIsInstanceOf_ArityMismatchFails(t *testing.T) {
	_, ok := IsInstanceOf("Dict<s32>", "Dict<K, V>")
	assert.False(t, ok)
}

func TestIsInstanceOf_NestedGenericTemplateArgument(t *testing.T) {
	subst, ok := IsInstanceOf("Dict<s32, List<Text>>", "Dict<K, List<T>>")
	require.True(t, ok)
	assert.Equal(t, "s32", subst["K"])
	assert.Equal(t, "Text", subst["T"])
}

func TestSubstitute_ReplacesPlaceholdersRecursively(t *testing.T) {
	out := Substitute("Dict<K, List<T>>", SubstitutionMap{"K": "s32", "T": "Text"})
	assert.Equal(t, "Dict<s32, List<Text>>", out)
}

func TestSubstitute_UnboundNameIsUnchanged(t *testing.T) {
	assert.Equal(t, "s32", Substitute("s32", SubstitutionMap{"T": "Text"}))
}

func TestGenerateTemplateCandidates(t *testing.T) {
	cands := GenerateTemplateCandidates("List<s32>", "select")
	assert.Equal(t, []string{
		"List<s32>.select",
		"List<T>.select",
		"List.select",
	}, cands)
}

func TestGenerateTemplateCandidates_NonGenericReceiver(t *testing.T) {
	cands := GenerateTemplateCandidates("s32", "abs")
	assert.Equal(t, []string{"s32.abs", "s32.abs"}, cands)
}

func TestGenerateTemplateCandidates_MultiArgUsesConventionalLetters(t *testing.T) {
	cands := GenerateTemplateCandidates("Dict<s32, Text>", "get")
	assert.Contains(t, cands, "Dict<T, U>.get")
}
