package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func TestNodeModules_Modules(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "react", "electron", ".bin", ".cache", "@types/node", "@types/react", "@babel/core")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".package-lock.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o600))

	modules, err := NodeModules{Dir: dir}.Modules()
	require.NoError(t, err)

	assert.Equal(t, []string{"@babel/core", "@types/node", "@types/react", "electron", "react"}, modules)
}

func TestNodeModules_Symlinks(t *testing.T) {
	dir := t.TempDir()
	store := t.TempDir()
	mkdirs(t, store, "lodash")
	mkdirs(t, dir)
	require.NoError(t, os.Symlink(filepath.Join(store, "lodash"), filepath.Join(dir, "lodash")))

	modules, err := NodeModules{Dir: dir}.Modules()
	require.NoError(t, err)
	assert.Equal(t, []string{"lodash"}, modules)
}

func TestNodeModules_MissingDir(t *testing.T) {
	modules, err := NodeModules{Dir: filepath.Join(t.TempDir(), "missing")}.Modules()
	require.NoError(t, err)
	assert.NotNil(t, modules)
	assert.Empty(t, modules)
}

func TestNodeModules_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "node_modules")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := NodeModules{Dir: file}.Modules()
	require.Error(t, err)
}

type failing struct{}

func (failing) Modules() ([]string, error) { return nil, errors.New("boom") }

func TestMerge_Modules(t *testing.T) {
	modules, err := Merge{Static{"fs", "electron"}, Static{"electron", "react"}}.Modules()
	require.NoError(t, err)
	assert.Equal(t, []string{"electron", "fs", "react"}, modules)

	_, err = Merge{Static{"a"}, failing{}}.Modules()
	require.Error(t, err)
}

func TestStatic_ReturnsCopy(t *testing.T) {
	s := Static{"a"}
	modules, err := s.Modules()
	require.NoError(t, err)
	modules[0] = "b"
	assert.Equal(t, Static{"a"}, s)
}
