package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/diag"
)

func writeFile(t *testing.T, dir, relPath, content string) string {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestCompile_MinimalProgramProducesLLVMIR(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "")

	project := t.TempDir()
	entry := writeFile(t, project, "main.rf", "routine start { }\n")

	res, err := Compile(entry, stdlib, project, nil, "")
	require.NoError(t, err)
	assert.False(t, diag.HasErrors(res.Diags))
	assert.Contains(t, res.LLVMIR, "define")
}

func TestCompile_TypeErrorSkipsCodegen(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "")

	project := t.TempDir()
	entry := writeFile(t, project, "main.rf", "routine start { let x: s32 = \"oops\" }\n")

	res, err := Compile(entry, stdlib, project, nil, "")
	require.NoError(t, err)
	assert.True(t, diag.HasErrors(res.Diags))
	assert.Empty(t, res.LLVMIR)
}

func TestCompile_UnknownTargetTripleErrors(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "")

	project := t.TempDir()
	entry := writeFile(t, project, "main.rf", "routine start { }\n")

	_, err := Compile(entry, stdlib, project, nil, "not-a-real-triple")
	assert.Error(t, err)
}

func TestCompile_MissingSourceFileErrors(t *testing.T) {
	_, err := Compile(filepath.Join(t.TempDir(), "missing.rf"), "", "", nil, "")
	assert.Error(t, err)
}
