package configloader

import "github.com/yaklabco/asmbridge/pkg/config"

// merge combines two configurations, with override taking precedence over base.
//   - Scalar values: override overwrites base if override is non-zero
//   - Slices: override replaces base entirely if override is non-nil
//   - Nil/unset values in override do not override values in base
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	if override.Triple != "" {
		result.Triple = override.Triple
	}
	if override.CPU != "" {
		result.CPU = override.CPU
	}
	if override.Features != "" {
		result.Features = override.Features
	}
	if override.DocsPath != "" {
		result.DocsPath = override.DocsPath
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Color != "" {
		result.Color = override.Color
	}
	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}

	// Watch can only be switched on by an override.
	if override.Watch {
		result.Watch = true
	}

	if override.IncludeDirs != nil {
		result.IncludeDirs = override.IncludeDirs
	}
	if override.Defines != nil {
		result.Defines = override.Defines
	}
	if override.Ignore != nil {
		result.Ignore = override.Ignore
	}
	if override.Extensions != nil {
		result.Extensions = override.Extensions
	}

	return &result
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
