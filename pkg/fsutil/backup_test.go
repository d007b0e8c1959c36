package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/fsutil"
)

func TestBackupPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/proj/.asmbridge.yml.bak", fsutil.BackupPath("/proj/.asmbridge.yml"))
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("copies content and mode", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".asmbridge.yml")
		require.NoError(t, os.WriteFile(path, []byte("cpu: pwr8\n"), 0o600))

		backup, err := fsutil.CreateBackup(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, fsutil.BackupPath(path), backup)

		got, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Equal(t, "cpu: pwr8\n", string(got))

		info, err := os.Stat(backup)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("replaces older backup", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(fsutil.BackupPath(path), []byte("stale\n"), 0o644))
		require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o644))

		backup, err := fsutil.CreateBackup(ctx, path)
		require.NoError(t, err)

		got, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Equal(t, "fresh\n", string(got))
	})

	t.Run("missing original", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "none.yml")
		backup, err := fsutil.CreateBackup(ctx, path)
		require.NoError(t, err)
		assert.Empty(t, backup)
		assert.NoFileExists(t, fsutil.BackupPath(path))
	})
}
