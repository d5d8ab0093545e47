package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_ReadsProjectRootDotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("EVENTDESK_TEST_VALUE=from-dotenv\n"), 0o644))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdir(t, sub)
	t.Setenv("EVENTDESK_TEST_VALUE", "")
	os.Unsetenv("EVENTDESK_TEST_VALUE")

	got, err := FindProjectRoot()
	require.NoError(t, err)
	assert.Equal(t, evalPath(t, root), evalPath(t, got))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-dotenv", os.Getenv("EVENTDESK_TEST_VALUE"))
}

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	chdir(t, t.TempDir())
	assert.NoError(t, LoadEnv())
}

func evalPath(t *testing.T, p string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return resolved
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
