// Package config defines core configuration types for asmbridge.
// These types are pure data structures with no dependency on the loader.
package config

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatSARIF OutputFormat = "sarif"
)

// IsValid returns true if the format is known.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatJSON, FormatSARIF:
		return true
	default:
		return false
	}
}

// ColorMode controls styled output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// IsValid returns true if the color mode is known.
func (c ColorMode) IsValid() bool {
	switch c {
	case ColorAuto, ColorAlways, ColorNever:
		return true
	default:
		return false
	}
}

// DefaultTriple is the target used when none is configured.
const DefaultTriple = "powerpc-unknown-linux-gnu"

// Config is the root configuration structure for asmbridge.
type Config struct {
	// Triple selects the assembly target, e.g. "powerpc64le-unknown-linux-gnu".
	Triple string `json:"triple" mapstructure:"triple" yaml:"triple"`

	// CPU names the processor model. Empty means the target's generic CPU.
	CPU string `json:"cpu,omitempty" mapstructure:"cpu" yaml:"cpu,omitempty"`

	// Features is a comma-separated feature list such as "+altivec,-64bit".
	Features string `json:"features,omitempty" mapstructure:"features" yaml:"features,omitempty"`

	// IncludeDirs are searched for #include files after the including
	// file's directory.
	IncludeDirs []string `json:"include_dirs,omitempty" mapstructure:"include_dirs" yaml:"include_dirs,omitempty"`

	// Defines are predefined macros in NAME or NAME=VALUE form.
	Defines []string `json:"defines,omitempty" mapstructure:"defines" yaml:"defines,omitempty"`

	// DocsPath points at the instruction documentation file.
	DocsPath string `json:"docs_path,omitempty" mapstructure:"docs_path" yaml:"docs_path,omitempty"`

	// Format specifies the output format.
	Format OutputFormat `json:"format" mapstructure:"format" yaml:"format"`

	// Color controls styled terminal output.
	Color ColorMode `json:"color" mapstructure:"color" yaml:"color"`

	// Jobs specifies the number of parallel workers. 0 means GOMAXPROCS.
	Jobs int `json:"jobs" mapstructure:"jobs" yaml:"jobs"`

	// Ignore contains glob patterns for files to skip.
	Ignore []string `json:"ignore,omitempty" mapstructure:"ignore" yaml:"ignore,omitempty"`

	// Extensions lists the file extensions analyzed during discovery.
	Extensions []string `json:"extensions,omitempty" mapstructure:"extensions" yaml:"extensions,omitempty"`

	// CLI-level options (not persisted to config files).

	// Watch re-runs analysis when files change.
	Watch bool `json:"-" mapstructure:"-" yaml:"-"`
}

// DefaultExtensions are the file extensions analyzed when none are set.
func DefaultExtensions() []string {
	return []string{".s", ".S", ".asm"}
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Triple:     DefaultTriple,
		Format:     FormatText,
		Color:      ColorAuto,
		Jobs:       0,
		Extensions: DefaultExtensions(),
	}
}
