package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Format is the output format: "yaml" or "json".
	Format string

	// Triple overrides the default triple written to the template.
	Triple string
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	cfg := NewConfig()
	if opts.Triple != "" {
		cfg.Triple = opts.Triple
	}

	if opts.Format == "json" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode template: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, `# asmbridge configuration
# See: https://github.com/yaklabco/asmbridge

# Target triple: arch-vendor-os[-env]
triple: %s

# Processor model and feature list
# cpu: pwr9
# features: "+altivec"

# Preprocessor search paths and predefined macros
# include_dirs:
#   - include
# defines:
#   - DEBUG
#   - PAGE_SIZE=4096

# Instruction documentation (JSON or YAML)
# docs_path: docs/ppc.json

# Output format: text, json, or sarif
format: %s

# Color output: auto, always, or never
color: %s

# Number of parallel workers (0 = auto)
jobs: 0

# File extensions analyzed during discovery
extensions:
`, cfg.Triple, cfg.Format, cfg.Color)

	for _, ext := range cfg.Extensions {
		fmt.Fprintf(&buf, "  - %q\n", ext)
	}

	buf.WriteString(`
# File patterns to ignore (glob patterns)
# ignore:
#   - "build/**"
`)

	return []byte(buf.String()), nil
}
