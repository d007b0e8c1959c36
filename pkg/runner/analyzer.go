package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/fsutil"
)

// Analyzer parses one file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*asmast.AST, error)
}

// ParseAnalyzer runs the assembly parse orchestrator on disk files.
type ParseAnalyzer struct {
	// Invocation is the parse configuration shared by every file.
	Invocation asmast.Invocation

	// FS resolves includes. Paths reaching it are absolute with the leading
	// separator removed. Defaults to os.DirFS("/").
	FS fs.FS
}

// Analyze reads path and parses it. The AST is returned even when parsing
// fails, so diagnostics collected before the failure are not lost.
func (p *ParseAnalyzer) Analyze(ctx context.Context, path string) (*asmast.AST, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	content, _, err := fsutil.ReadFile(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	inv := p.Invocation
	inv.IncludeDirs = absoluteDirs(inv.IncludeDirs)

	fsys := p.FS
	if fsys == nil {
		fsys = os.DirFS("/")
	}

	ast := asmast.New(absPath)
	ast.SetInvocation(inv)
	ast.SetSource(content)

	if err := ast.Parse(ctx, fsys); err != nil {
		return ast, err
	}
	return ast, nil
}

func absoluteDirs(dirs []string) []string {
	if len(dirs) == 0 {
		return nil
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		out = append(out, dir)
	}
	return out
}
