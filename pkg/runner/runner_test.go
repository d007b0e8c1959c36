package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/fsutil"
	"github.com/yaklabco/asmbridge/pkg/preproc"
	"github.com/yaklabco/asmbridge/pkg/runner"
	_ "github.com/yaklabco/asmbridge/pkg/target/ppc"
)

const ppcTriple = "powerpc-unknown-linux-gnu"

// countingAnalyzer returns a fixed AST and counts calls.
type countingAnalyzer struct {
	calls atomic.Int32
	fail  string
}

func (a *countingAnalyzer) Analyze(_ context.Context, path string) (*asmast.AST, error) {
	a.calls.Add(1)
	if filepath.Base(path) == a.fail {
		return nil, errors.New("boom")
	}
	ast := asmast.New(path)
	ast.Diags = []asmast.Diagnostic{{Severity: asmast.SeverityWarning, Message: "w"}}
	return ast, nil
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	analyzer := &countingAnalyzer{}
	r := runner.New(analyzer)

	if r.Analyzer != analyzer {
		t.Error("Analyzer not set correctly")
	}
}

func TestRunner_Run_NoFiles(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	analyzer := &countingAnalyzer{}

	result, err := runner.New(analyzer).Run(context.Background(), runner.Options{WorkingDir: tmpDir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Files) != 0 || result.Stats.FilesDiscovered != 0 {
		t.Errorf("expected no files, got %+v", result.Stats)
	}
	if analyzer.calls.Load() != 0 {
		t.Error("analyzer should not be called")
	}
}

func TestRunner_Run_OrderAndStats(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"c.s":     "nop\n",
		"a.S":     "nop\n",
		"b/b.asm": "nop\n",
		"bad.s":   "nop\n",
		"doc.txt": "not assembly\n",
	})

	analyzer := &countingAnalyzer{fail: "bad.s"}
	result, err := runner.New(analyzer).Run(context.Background(), runner.Options{
		WorkingDir: tmpDir,
		Jobs:       3,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"a.S", "b/b.asm", "bad.s", "c.s"}
	if len(result.Files) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(result.Files))
	}
	for i, name := range want {
		if result.Files[i].Path != filepath.Join(tmpDir, name) {
			t.Errorf("file %d = %s, want %s", i, result.Files[i].Path, name)
		}
	}

	stats := result.Stats
	if stats.FilesDiscovered != 4 || stats.FilesProcessed != 3 || stats.FilesErrored != 1 {
		t.Errorf("unexpected file counts: %+v", stats)
	}
	if stats.DiagnosticsTotal != 3 || stats.DiagnosticsBySeverity["warning"] != 3 {
		t.Errorf("unexpected diagnostic counts: %+v", stats)
	}
	if stats.FilesWithIssues != 3 {
		t.Errorf("FilesWithIssues = %d", stats.FilesWithIssues)
	}
	if !result.HasFailures() {
		t.Error("an errored file is a failure")
	}
	if !result.HasIssues() {
		t.Error("expected issues")
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.s": "nop\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.New(&countingAnalyzer{}).Run(ctx, runner.Options{WorkingDir: tmpDir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseAnalyzer(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"inc/regs.h": "#define RET 3\n",
		"main.s":     "#include \"regs.h\"\nli RET, 0\nadd 3, 4, 5\nblr\n",
		"broken.s":   "FOO:\n.macro M\nADD 1,2\n.endm\nM\n",
		"missing.s":  "#include \"nowhere.h\"\nnop\n",
	})

	analyzer := &runner.ParseAnalyzer{
		Invocation: asmast.Invocation{
			Triple:      ppcTriple,
			IncludeDirs: []string{filepath.Join(tmpDir, "inc")},
		},
	}

	result, err := runner.New(analyzer).Run(context.Background(), runner.Options{WorkingDir: tmpDir, Jobs: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(result.Files))
	}

	// Sorted: broken.s, main.s, missing.s.
	broken, main, missing := result.Files[0], result.Files[1], result.Files[2]

	if broken.Error != nil {
		t.Errorf("assembly diagnostics must not fail the parse: %v", broken.Error)
	}
	if diags := broken.Diagnostics(); len(diags) != 1 || diags[0].Severity != asmast.SeverityError {
		t.Errorf("broken.s diagnostics = %+v", diags)
	}

	if main.Error != nil {
		t.Fatalf("main.s error = %v", main.Error)
	}
	if got := len(main.AST.Instructions); got != 3 {
		t.Errorf("main.s instructions = %d, want 3", got)
	}
	if len(main.AST.Includes) != 1 {
		t.Errorf("main.s includes = %+v", main.AST.Includes)
	}

	if !errors.Is(missing.Error, preproc.ErrIncludeNotFound) {
		t.Errorf("missing.s error = %v", missing.Error)
	}
	if missing.AST == nil {
		t.Error("AST should be kept on a preprocessing failure")
	}

	if result.Stats.Instructions != 3 {
		t.Errorf("Instructions = %d", result.Stats.Instructions)
	}
	if !result.HasFailures() {
		t.Error("expected failures")
	}
}

func TestParseAnalyzer_MissingFile(t *testing.T) {
	t.Parallel()

	analyzer := &runner.ParseAnalyzer{Invocation: asmast.Invocation{Triple: ppcTriple}}
	ast, err := analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "gone.s"))
	if err == nil {
		t.Fatal("expected error")
	}
	if ast != nil {
		t.Error("no AST for an unreadable file")
	}
	if !errors.Is(err, fsutil.ErrNotFound) {
		t.Errorf("error = %v, want fsutil.ErrNotFound", err)
	}
}
