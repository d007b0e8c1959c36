// Package mc is the target-independent half of the assembly backend: target
// registry, source manager, assembly lexer and parser, and the streamer
// contract that parsed instructions are emitted through.
package mc

import "strings"

// Triple names a target as arch-vendor-os[-environment].
type Triple struct {
	Arch        string
	Vendor      string
	OS          string
	Environment string
}

// ParseTriple splits a triple string. Missing components are left empty.
func ParseTriple(triple string) Triple {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(triple)), "-", 4)

	var t Triple
	for i, part := range parts {
		switch i {
		case 0:
			t.Arch = part
		case 1:
			t.Vendor = part
		case 2:
			t.OS = part
		case 3:
			t.Environment = part
		}
	}
	return t
}

// String joins the non-empty components.
func (t Triple) String() string {
	parts := []string{t.Arch}
	for _, part := range []string{t.Vendor, t.OS, t.Environment} {
		if part == "" {
			break
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "-")
}

// Is64Bit reports whether the architecture name carries a 64-bit marker.
func (t Triple) Is64Bit() bool {
	return strings.Contains(t.Arch, "64")
}

// IsLittleEndian reports whether the architecture is a little-endian
// variant.
func (t Triple) IsLittleEndian() bool {
	return strings.HasSuffix(t.Arch, "le") || strings.HasSuffix(t.Arch, "el")
}
