package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/config"
)

// envVarPrefix is the prefix for all asmbridge environment variables.
const envVarPrefix = "ASMBRIDGE_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeInt
	envTypeSlice
)

// envMapping binds one environment variable to a config field.
type envMapping struct {
	typ   envFieldType
	help  string
	apply func(cfg *config.Config, s string, i int, list []string)
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"TRIPLE": {
		typ: envTypeString, help: "Target triple, e.g. powerpc64le-unknown-linux-gnu",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.Triple = s },
	},
	"CPU": {
		typ: envTypeString, help: "Processor model",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.CPU = s },
	},
	"FEATURES": {
		typ: envTypeString, help: "Feature list, e.g. +altivec,-64bit",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.Features = s },
	},
	"DOCS_PPC": {
		typ: envTypeString, help: "Path of the PowerPC instruction documentation file",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.DocsPath = s },
	},
	"FORMAT": {
		typ: envTypeString, help: "Output format: text, json, or sarif",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.Format = config.OutputFormat(s) },
	},
	"COLOR": {
		typ: envTypeString, help: "Color output: auto, always, or never",
		apply: func(cfg *config.Config, s string, _ int, _ []string) { cfg.Color = config.ColorMode(s) },
	},
	"JOBS": {
		typ: envTypeInt, help: "Number of parallel workers (0 = auto)",
		apply: func(cfg *config.Config, _ string, i int, _ []string) { cfg.Jobs = i },
	},
	"INCLUDE_DIRS": {
		typ: envTypeSlice, help: "Comma-separated include search paths",
		apply: func(cfg *config.Config, _ string, _ int, l []string) { cfg.IncludeDirs = l },
	},
	"DEFINES": {
		typ: envTypeSlice, help: "Comma-separated predefined macros",
		apply: func(cfg *config.Config, _ string, _ int, l []string) { cfg.Defines = l },
	},
	"IGNORE": {
		typ: envTypeSlice, help: "Comma-separated list of ignore patterns",
		apply: func(cfg *config.Config, _ string, _ int, l []string) { cfg.Ignore = l },
	},
	"EXTENSIONS": {
		typ: envTypeSlice, help: "Comma-separated file extensions to analyze",
		apply: func(cfg *config.Config, _ string, _ int, l []string) { cfg.Extensions = l },
	},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with ASMBRIDGE_ (e.g., ASMBRIDGE_TRIPLE).
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for _, suffix := range sortedEnvSuffixes() {
		envVar := envVarPrefix + suffix
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, envMappings[suffix], value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		mapping.apply(cfg, value, 0, nil)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		mapping.apply(cfg, "", i, nil)
	case envTypeSlice:
		mapping.apply(cfg, "", 0, parseSliceValue(value))
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
	return nil
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func sortedEnvSuffixes() []string {
	suffixes := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// ListEnvVars returns all supported environment variables with their descriptions.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[envVarPrefix+suffix] = mapping.help
	}
	return vars
}
