package files

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	root := t.TempDir()
	src := CreateDirectories(root, "src", "nested")
	require.NoError(t, os.WriteFile(path.Join(src, "f"), []byte("data"), 0644))
	dest := path.Join(root, "dest")
	require.NoError(t, Copy(path.Join(root, "src"), dest))
	b, err := os.ReadFile(path.Join(dest, "nested", "f"))
	require.NoError(t, err)
	require.Equal(t, "data", string(b))
	require.True(t, Exists(dest))
	RemoveAll(dest)
	require.False(t, Exists(dest))
}
