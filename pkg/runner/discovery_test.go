package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yaklabco/asmbridge/pkg/runner"
)

func relPaths(t *testing.T, root string, files []string) string {
	t.Helper()
	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return strings.Join(rel, ",")
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"boot.S":                "",
		"lib/memcpy.s":          "",
		"lib/memcpy_test.s":     "",
		"build/gen.s":           "",
		"arch/ppc/build/keep.s": "",
		".hidden/x.s":           "",
		".dot.s":                "",
		"README.md":             "",
		"start":                 "\t.text\n_start:\n",
	})

	tests := []struct {
		name string
		opts runner.Options
		want string
	}{
		{
			name: "defaults",
			opts: runner.Options{},
			want: "arch/ppc/build/keep.s,boot.S,build/gen.s,lib/memcpy.s,lib/memcpy_test.s",
		},
		{
			name: "anchored directory glob",
			opts: runner.Options{ExcludeGlobs: []string{"build/**"}},
			want: "arch/ppc/build/keep.s,boot.S,lib/memcpy.s,lib/memcpy_test.s",
		},
		{
			name: "base name glob",
			opts: runner.Options{ExcludeGlobs: []string{"*_test.s", "build"}},
			want: "boot.S,lib/memcpy.s",
		},
		{
			name: "recursive glob needs a parent directory",
			opts: runner.Options{ExcludeGlobs: []string{"**/build/**"}},
			want: "boot.S,build/gen.s,lib/memcpy.s,lib/memcpy_test.s",
		},
		{
			name: "custom extensions",
			opts: runner.Options{Extensions: []string{".md"}},
			want: "README.md",
		},
		{
			name: "explicit paths deduplicated",
			opts: runner.Options{Paths: []string{"lib", "lib/memcpy.s", "boot.S"}},
			want: "boot.S,lib/memcpy.s,lib/memcpy_test.s",
		},
		{
			name: "extensionless file needs detection",
			opts: runner.Options{Paths: []string{"start"}},
			want: "",
		},
		{
			name: "extensionless file detected",
			opts: runner.Options{Paths: []string{"start"}, DetectLanguage: true},
			want: "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := tt.opts
			opts.WorkingDir = tmpDir
			files, err := runner.Discover(context.Background(), opts)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got := relPaths(t, tmpDir, files); got != tt.want {
				t.Errorf("Discover() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	if _, err := runner.Discover(context.Background(), runner.Options{
		WorkingDir: tmpDir,
		Paths:      []string{"nope"},
	}); err == nil {
		t.Error("expected stat error")
	}

	if _, err := runner.Discover(context.Background(), runner.Options{
		WorkingDir:   tmpDir,
		ExcludeGlobs: []string{"["},
	}); err == nil || !strings.Contains(err.Error(), "invalid exclude pattern") {
		t.Errorf("expected pattern error, got %v", err)
	}
}

func TestDiscover_Symlinks(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	outside := t.TempDir()
	writeFiles(t, outside, map[string]string{"linked.s": ""})
	writeFiles(t, tmpDir, map[string]string{"main.s": ""})

	if err := os.Symlink(outside, filepath.Join(tmpDir, "vendor")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := runner.Discover(context.Background(), runner.Options{WorkingDir: tmpDir})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("directory symlinks are not followed by default: %v", files)
	}

	files, err = runner.Discover(context.Background(), runner.Options{WorkingDir: tmpDir, FollowSymlinks: true})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected followed symlink target, got %v", files)
	}
}
