package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/asmbridge/pkg/langdetect"
)

// maxSniffBytes bounds how much of an extensionless file is read for
// language detection.
const maxSniffBytes = 8 << 10

// Discover finds assembly files matching opts under the given working directory.
// It returns a deterministically sorted list of absolute file paths.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	// Resolve working directory.
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	excludes, err := compileGlobs(opts.ExcludeGlobs)
	if err != nil {
		return nil, err
	}

	walker := &walker{
		workDir:    workDir,
		extensions: opts.effectiveExtensions(),
		excludes:   excludes,
		opts:       opts,
	}

	// Use a map for deduplication.
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, inputPath := range opts.effectivePaths() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("discovery cancelled: %w", ctx.Err())
		default:
		}

		// Resolve to absolute path.
		absPath := inputPath
		if !filepath.IsAbs(inputPath) {
			absPath = filepath.Join(workDir, inputPath)
		}
		absPath = filepath.Clean(absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", inputPath, err)
		}

		if info.IsDir() {
			discovered, err := walker.walk(ctx, absPath)
			if err != nil {
				return nil, err
			}
			for _, f := range discovered {
				add(f)
			}
			continue
		}

		// Explicitly named files may be sniffed when their extension is unknown.
		if walker.matchesFile(absPath) || (opts.DetectLanguage && !walker.excluded(absPath) && sniffAssembly(absPath)) {
			add(absPath)
		}
	}

	// Sort for deterministic ordering.
	sort.Strings(files)

	return files, nil
}

// resolveWorkDir resolves the working directory, defaulting to os.Getwd().
func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

// excludePattern is one compiled exclude glob.
type excludePattern struct {
	glob glob.Glob

	// baseName patterns contain no separator and also match the last
	// path element.
	baseName bool
}

func compileGlobs(patterns []string) ([]excludePattern, error) {
	compiled := make([]excludePattern, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, excludePattern{
			glob:     g,
			baseName: !strings.Contains(pattern, "/"),
		})
	}
	return compiled, nil
}

// walker holds the per-discovery matching state.
type walker struct {
	workDir    string
	extensions []string
	excludes   []excludePattern
	opts       Options
}

// walk recursively walks a directory and returns matching assembly files.
func (w *walker) walk(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		// Check for context cancellation.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			// Handle permission errors gracefully.
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		// Handle directories.
		if entry.IsDir() {
			// Skip hidden directories (except root).
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}

			if path != root && w.excludedDir(path) {
				return filepath.SkipDir
			}

			return nil
		}

		// Handle symlinks.
		if entry.Type()&fs.ModeSymlink != 0 {
			realPath, evalErr := filepath.EvalSymlinks(path)
			if evalErr != nil {
				// Broken symlink, skip silently.
				return nil //nolint:nilerr // Intentionally skip broken symlinks
			}
			info, statErr := os.Stat(realPath)
			if statErr != nil {
				return nil //nolint:nilerr // Intentionally skip inaccessible symlink targets
			}
			if info.IsDir() {
				if !w.opts.FollowSymlinks {
					return nil
				}
				// Walk the symlink TARGET (realPath), not the symlink itself.
				// This avoids infinite recursion since WalkDir uses Lstat on root.
				subFiles, err := w.walk(ctx, realPath)
				if err != nil {
					return err
				}
				files = append(files, subFiles...)
				return nil
			}
		}

		// Skip hidden files.
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		if w.matchesFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	return files, nil
}

// matchesFile checks extension and exclude patterns for a file.
func (w *walker) matchesFile(path string) bool {
	return hasMatchingExtension(path, w.extensions) && !w.excluded(path)
}

func (w *walker) relative(path string) string {
	relPath, err := filepath.Rel(w.workDir, path)
	if err != nil {
		relPath = path
	}
	return filepath.ToSlash(relPath)
}

func (w *walker) excluded(path string) bool {
	return matchesAny(w.relative(path), w.excludes)
}

// excludedDir also tries the path with a trailing slash so "build/**"
// prunes the build directory itself.
func (w *walker) excludedDir(path string) bool {
	rel := w.relative(path)
	return matchesAny(rel, w.excludes) || matchesAny(rel+"/", w.excludes)
}

func matchesAny(relPath string, patterns []excludePattern) bool {
	for _, p := range patterns {
		if p.glob.Match(relPath) {
			return true
		}
		if p.baseName && p.glob.Match(filepath.Base(relPath)) {
			return true
		}
	}
	return false
}

// hasMatchingExtension checks if the file has a matching extension.
func hasMatchingExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// sniffAssembly reads the head of a file and asks langdetect about it.
func sniffAssembly(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, maxSniffBytes)
	n, _ := f.Read(head)
	return langdetect.IsAssembly(path, head[:n])
}
