package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/internal/cli"
	"github.com/yaklabco/asmbridge/internal/configloader"
	_ "github.com/yaklabco/asmbridge/pkg/target/ppc"
)

func testInfo() cli.BuildInfo {
	return cli.BuildInfo{Version: "test-version", Commit: "test-commit", Date: "test-date"}
}

// execute runs the root command with args and returns stdout, stderr and
// the command error. A fresh config file keeps user and project
// configuration out of the run.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cfgFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("color: never\n"), 0o644))

	cmd := cli.NewRootCommand(testInfo())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgFile, "--color", "never"}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	require.NotNil(t, cmd)

	assert.Equal(t, "asmbridge", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())

	for _, name := range []string{"check", "expand", "hover", "doc", "tokens", "targets", "init", "version"} {
		subCmd, _, err := cmd.Find([]string{name})
		if !assert.NoError(t, err, name) {
			continue
		}
		assert.Equal(t, name, subCmd.Name())
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())

	for _, name := range []string{"debug", "config", "color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	check, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)
	for _, name := range []string{"triple", "cpu", "mattr", "include", "define", "format", "jobs", "watch", "ignore", "no-context", "compact"} {
		assert.NotNil(t, check.Flags().Lookup(name), name)
	}
	assert.Equal(t, "I", check.Flags().Lookup("include").Shorthand)
	assert.Equal(t, "D", check.Flags().Lookup("define").Shorthand)
}

func TestHelpListsEnvironment(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "Available Commands:")
	assert.Contains(t, stdout, "Environment:")
	for name := range configloader.ListEnvVars() {
		assert.Contains(t, stdout, name)
	}
}

func TestSubcommandHelpOmitsEnvironment(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "check", "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "--triple")
	assert.Contains(t, stdout, "Global Flags:")
	assert.NotContains(t, stdout, "Environment:")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, stdout, "asmbridge")
	assert.Contains(t, stdout, "test-version")
	assert.Contains(t, stdout, "test-commit")
	assert.Contains(t, stdout, "test-date")
}

func TestTargetsCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "targets")
	require.NoError(t, err)

	assert.Contains(t, stdout, "ppc  PowerPC 32 and 64")
	assert.Contains(t, stdout, "powerpc64le")
	assert.Contains(t, stdout, "pwr9")
	assert.Contains(t, stdout, "parser: yes")
}

func TestInitCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "ci.yml")

	stdout, _, err := execute(t, "init", "--output", out, "--triple", "powerpc64-unknown-linux-gnu")
	require.NoError(t, err)
	assert.Contains(t, stdout, "created configuration file")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "triple: powerpc64-unknown-linux-gnu")

	_, _, err = execute(t, "init", "--output", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))

	stdout, _, err = execute(t, "init", "--output", out, "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved previous configuration")

	backup, err := os.ReadFile(out + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(backup), "triple: powerpc64-unknown-linux-gnu")
}

func TestInitCommand_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "init", "--format", "toml", "--output", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitSuccess},
		{"issues", cli.ErrIssuesFound, cli.ExitIssues},
		{"wrapped issues", fmt.Errorf("run: %w", cli.ErrIssuesFound), cli.ExitIssues},
		{"validation", &configloader.ValidationError{Field: "jobs", Message: "bad"}, cli.ExitUsage},
		{"other", errors.New("boom"), cli.ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cli.ExitCode(tt.err))
		})
	}
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"check", "--frobnicate"}},
		{"missing arguments", []string{"expand", "main.s"}},
		{"malformed position", []string{"expand", "main.s", "3"}},
		{"zero line", []string{"hover", "main.s", "0:1"}},
		{"bad argc", []string{"doc", "add", "three"}},
		{"bad format", []string{"check", "--format", "table", t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, cli.ExitUsage, cli.ExitCode(err), "error: %v", err)
		})
	}
}

func TestConfigErrorIsUsage(t *testing.T) {
	t.Parallel()

	cfgFile := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("jobs: -1\n"), 0o644))

	cmd := cli.NewRootCommand(testInfo())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"check", "--config", cfgFile, t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "jobs must be >= 0"), err.Error())
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}
