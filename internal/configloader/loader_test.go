package configloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yaklabco/asmbridge/pkg/config"
	_ "github.com/yaklabco/asmbridge/pkg/target/ppc" // Register targets
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func isolated(dir string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		IgnoreEnv:          true,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if result.Config.Triple != config.DefaultTriple {
		t.Errorf("expected triple %q, got %q", config.DefaultTriple, result.Config.Triple)
	}
	if result.Config.Format != config.FormatText {
		t.Errorf("expected format %q, got %q", config.FormatText, result.Config.Format)
	}
	if len(result.LoadedFrom) != 0 {
		t.Errorf("expected no loaded files, got %v", result.LoadedFrom)
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".asmbridge.yml"), `
triple: powerpc64le-unknown-linux-gnu
cpu: pwr9
include_dirs: [include]
jobs: 4
`)

	result, err := Load(context.Background(), isolated(tmpDir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := result.Config
	if cfg.Triple != "powerpc64le-unknown-linux-gnu" {
		t.Errorf("triple = %q", cfg.Triple)
	}
	if cfg.CPU != "pwr9" {
		t.Errorf("cpu = %q", cfg.CPU)
	}
	if len(cfg.IncludeDirs) != 1 || cfg.IncludeDirs[0] != "include" {
		t.Errorf("include_dirs = %v", cfg.IncludeDirs)
	}
	if cfg.Jobs != 4 {
		t.Errorf("jobs = %d", cfg.Jobs)
	}
	// Defaults survive for unset keys.
	if cfg.Format != config.FormatText {
		t.Errorf("format = %q", cfg.Format)
	}
	if len(result.LoadedFrom) != 1 {
		t.Errorf("expected 1 loaded file, got %d", len(result.LoadedFrom))
	}
}

func TestLoad_ProjectConfigSearchUpward(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, ".asmbridge.yml"), "cpu: pwr8\n")

	nested := filepath.Join(root, "arch", "powerpc", "kernel")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := Load(context.Background(), isolated(nested))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Config.CPU != "pwr8" {
		t.Errorf("cpu = %q, want pwr8", result.Config.CPU)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".asmbridge.yml"), "cpu: pwr8\nfeatures: \"+altivec\"\n")
	explicit := filepath.Join(tmpDir, "ci.yml")
	writeFile(t, explicit, "cpu: pwr9\nformat: json\n")

	opts := isolated(tmpDir)
	opts.ExplicitPath = explicit
	opts.CLIConfig = &config.Config{Format: config.FormatSARIF, Watch: true}

	result, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := result.Config
	if cfg.CPU != "pwr9" {
		t.Errorf("explicit config should override project: cpu = %q", cfg.CPU)
	}
	if cfg.Features != "+altivec" {
		t.Errorf("project value should survive: features = %q", cfg.Features)
	}
	if cfg.Format != config.FormatSARIF {
		t.Errorf("CLI should override files: format = %q", cfg.Format)
	}
	if !cfg.Watch {
		t.Error("expected watch from CLI")
	}
	if len(result.LoadedFrom) != 2 || result.LoadedFrom[1] != explicit {
		t.Errorf("LoadedFrom = %v", result.LoadedFrom)
	}
}

func TestLoad_Environment(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".asmbridge.yml"), "cpu: pwr8\n")

	t.Setenv("ASMBRIDGE_CPU", "pwr10")
	t.Setenv("ASMBRIDGE_DEFINES", "A, B=2 ,")
	t.Setenv("ASMBRIDGE_JOBS", "3")

	opts := isolated(tmpDir)
	opts.IgnoreEnv = false
	opts.CLIConfig = &config.Config{Jobs: 8}

	result, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := result.Config
	if cfg.CPU != "pwr10" {
		t.Errorf("env should override files: cpu = %q", cfg.CPU)
	}
	if strings.Join(cfg.Defines, "|") != "A|B=2" {
		t.Errorf("defines = %v", cfg.Defines)
	}
	if cfg.Jobs != 8 {
		t.Errorf("CLI should override env: jobs = %d", cfg.Jobs)
	}
}

func TestLoad_EnvironmentInvalidInteger(t *testing.T) {
	t.Setenv("ASMBRIDGE_JOBS", "many")

	opts := isolated(t.TempDir())
	opts.IgnoreEnv = false

	_, err := Load(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "invalid integer for ASMBRIDGE_JOBS") {
		t.Fatalf("expected invalid integer error, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "flavor: gfm\n", "field flavor not found"},
		{"unknown triple", "triple: sparc-sun-solaris\n", `unknown target triple "sparc-sun-solaris"`},
		{"bad format", "format: table\n", `invalid format "table"`},
		{"bad color", "color: rainbow\n", `invalid color mode "rainbow"`},
		{"negative jobs", "jobs: -1\n", "jobs must be >= 0"},
		{"bad extension", "extensions: [s]\n", `invalid extension "s"`},
		{"empty define", "defines: [\"=1\"]\n", "define must be NAME or NAME=VALUE"},
		{"bad glob", "ignore: [\"[\"]\n", "invalid glob pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, ".asmbridge.yml")
			writeFile(t, path, tt.content)

			_, err := Load(context.Background(), isolated(tmpDir))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ValidationErrorCarriesFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".asmbridge.yml")
	writeFile(t, path, "jobs: -2\n")

	_, err := Load(context.Background(), isolated(tmpDir))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.FilePath != path || verr.Field != "jobs" {
		t.Errorf("ValidationError = %+v", verr)
	}
}

func TestLoad_Warnings(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".asmbridge.yml"), "cpu: z80\ndocs_path: missing.json\n")

	result, err := Load(context.Background(), isolated(tmpDir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	joined := strings.Join(result.Warnings, "\n")
	if !strings.Contains(joined, `"z80" is not a known ppc processor`) {
		t.Errorf("missing cpu warning in %q", joined)
	}
	if !strings.Contains(joined, "documentation file not readable") {
		t.Errorf("missing docs warning in %q", joined)
	}
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	if MergeAll() != nil {
		t.Error("MergeAll() should be nil")
	}

	got := MergeAll(
		&config.Config{Triple: "powerpc-unknown-linux-gnu", Ignore: []string{"a"}},
		&config.Config{CPU: "pwr9"},
		&config.Config{Ignore: []string{}},
	)

	if got.Triple != "powerpc-unknown-linux-gnu" || got.CPU != "pwr9" {
		t.Errorf("scalars not merged: %+v", got)
	}
	if got.Ignore == nil || len(got.Ignore) != 0 {
		t.Errorf("non-nil slice should replace: %v", got.Ignore)
	}
}

func TestWriteTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ProjectConfigName)

	if err := WriteTemplate(context.Background(), path, config.TemplateOptions{}, false); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}

	err := WriteTemplate(context.Background(), path, config.TemplateOptions{}, false)
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}

	if err := WriteTemplate(context.Background(), path, config.TemplateOptions{Triple: "powerpc64-unknown-linux-gnu"}, true); err != nil {
		t.Fatalf("forced WriteTemplate() error = %v", err)
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("template must load: %v", err)
	}
	if cfg.Triple != "powerpc64-unknown-linux-gnu" {
		t.Errorf("triple = %q", cfg.Triple)
	}
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := ListEnvVars()
	if _, ok := vars["ASMBRIDGE_DOCS_PPC"]; !ok {
		t.Error("ASMBRIDGE_DOCS_PPC missing")
	}
	for name := range vars {
		if !strings.HasPrefix(name, envVarPrefix) {
			t.Errorf("%s lacks prefix", name)
		}
	}
}
