package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"razorforge/src/diag"
	"razorforge/src/source"
)

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadEntry_NoImports(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "routine start { }\n")

	fset := source.NewFileSet()
	diags := diag.NewBag()
	r := NewResolver(stdlib, "", nil, fset, diags)

	units, err := r.LoadEntry("main.rf", "routine start { }\n", source.RazorForge)
	require.NoError(t, err)
	assert.False(t, diag.HasErrors(diags.Close()))
	// The core prelude plus the entry file.
	assert.Len(t, units, 2)
}

func TestLoadEntry_ResolvesTransitiveImport(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "routine start { }\n")

	project := t.TempDir()
	writeFile(t, project, "util/math.rf", "routine square(n: s32) -> s32 { return n * n }\n")

	fset := source.NewFileSet()
	diags := diag.NewBag()
	r := NewResolver(stdlib, project, nil, fset, diags)

	entry := "import util/math\n\nroutine start { }\n"
	units, err := r.LoadEntry("main.rf", entry, source.RazorForge)
	require.NoError(t, err)
	assert.False(t, diag.HasErrors(diags.Close()))

	var found bool
	for _, u := range units {
		if u.Path == "util/math" {
			found = true
		}
	}
	assert.True(t, found, "expected util/math to be loaded transitively")
}

func TestLoadEntry_MissingImportReportsModuleNotFound(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "routine start { }\n")

	fset := source.NewFileSet()
	diags := diag.NewBag()
	r := NewResolver(stdlib, "", nil, fset, diags)

	_, err := r.LoadEntry("main.rf", "import nonexistent/thing\n\nroutine start { }\n", source.RazorForge)
	require.NoError(t, err)
	assert.True(t, diag.HasErrors(diags.Close()))
}

func TestLoadEntry_CircularImportDetected(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, stdlib, "core.rf", "routine start { }\n")

	project := t.TempDir()
	writeFile(t, project, "a.rf", "import b\n")
	writeFile(t, project, "b.rf", "import a\n")

	fset := source.NewFileSet()
	diags := diag.NewBag()
	r := NewResolver(stdlib, project, nil, fset, diags)

	_, err := r.LoadEntry("main.rf", "import a\n\nroutine start { }\n", source.RazorForge)
	require.NoError(t, err)
	assert.True(t, diag.HasErrors(diags.Close()))
}

func TestLoadManifest_RequiresProjectRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: demo\nstdlib_root: ./stdlib\n"), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestLoadManifest_ReadsRoots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	content := "name: demo\nstdlib_root: ./stdlib\nproject_root: ./src\nexternal_roots:\n  - ./vendor/pkgs\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "./src", m.ProjectRoot)
	assert.Equal(t, []string{"./vendor/pkgs"}, m.ExternalRoots)
}
