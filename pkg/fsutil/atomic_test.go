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

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates with default mode", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".asmbridge.yml")
		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("cpu: pwr9\n"), 0))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "cpu: pwr9\n", string(got))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, fsutil.DefaultFileMode, info.Mode().Perm())
	})

	t.Run("replaces and leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("new\n"), 0o600))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		err := fsutil.WriteAtomic(ctx, filepath.Join(t.TempDir(), "no", "such", "f"), []byte("x"), 0)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		path := filepath.Join(t.TempDir(), "f")
		assert.ErrorIs(t, fsutil.WriteAtomic(cctx, path, []byte("x"), 0), context.Canceled)
		assert.NoFileExists(t, path)
	})
}

func FuzzWriteAtomic(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("li 3, 0\n"))
	f.Add([]byte{0x00, 0xff, '\r', '\n'})

	f.Fuzz(func(t *testing.T, content []byte) {
		path := filepath.Join(t.TempDir(), "out.s")
		if err := fsutil.WriteAtomic(context.Background(), path, content, 0); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		got, _, err := fsutil.ReadFile(context.Background(), path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != string(content) {
			t.Fatalf("content mismatch: got %q, want %q", got, content)
		}
	})
}
