// Package langdetect decides whether a file holds assembly source.
// It uses go-enry for extension, shebang and binary checks, and a small
// directive heuristic for extensionless files.
package langdetect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Language identifiers returned by Detect.
const (
	LangAssembly = "asm"
	LangC        = "c"
	LangShell    = "bash"
	LangText     = "text"
)

// minAssemblyMarkers is how many directive or label lines the heuristic
// needs before it calls content assembly.
const minAssemblyMarkers = 2

// gasDirectives are the directives that mark GNU assembler source.
//
//nolint:gochecknoglobals // Read-only lookup table.
var gasDirectives = map[string]bool{
	".text": true, ".data": true, ".bss": true, ".section": true,
	".globl": true, ".global": true, ".align": true, ".p2align": true,
	".long": true, ".quad": true, ".byte": true, ".short": true,
	".word": true, ".macro": true, ".endm": true, ".set": true,
	".equ": true, ".type": true, ".size": true, ".abiversion": true,
	".machine": true, ".file": true,
}

// Detect returns the language identifier for a file.
// Returns "text" if detection fails or confidence is low.
func Detect(path string, content []byte) string {
	// Strategy 1: extension.
	if ext := filepath.Ext(path); ext != "" {
		if lang := byExtension(path); lang != "" {
			return lang
		}
	}

	if len(content) == 0 || enry.IsBinary(content) {
		return LangText
	}

	// Strategy 2: shebang.
	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	// Strategy 3: directive heuristic.
	if looksLikeAssembly(content) {
		return LangAssembly
	}

	return LangText
}

// IsAssembly reports whether Detect classifies the file as assembly.
func IsAssembly(path string, content []byte) bool {
	return Detect(path, content) == LangAssembly
}

// byExtension maps the extension candidates enry reports. Any assembly
// flavour among the candidates wins over the others.
func byExtension(path string) string {
	candidates := enry.GetLanguagesByExtension(path, nil, nil)
	for _, lang := range candidates {
		if strings.Contains(lang, "Assembly") {
			return LangAssembly
		}
	}
	if len(candidates) == 1 {
		return normalize(candidates[0])
	}
	return ""
}

// looksLikeAssembly counts GAS directive and label lines.
func looksLikeAssembly(content []byte) bool {
	markers := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		fields := strings.Fields(string(line))
		if gasDirectives[strings.TrimSuffix(fields[0], ",")] {
			markers++
		} else if isLabel(fields[0]) {
			markers++
		}

		if markers >= minAssemblyMarkers {
			return true
		}
	}
	return false
}

// isLabel reports whether word is an identifier followed by a colon.
func isLabel(word string) bool {
	name, ok := strings.CutSuffix(word, ":")
	if !ok || name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '.' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// normalize converts go-enry language names to short identifiers.
func normalize(lang string) string {
	switch lang {
	case "Shell":
		return LangShell
	case "C":
		return LangC
	}
	return strings.ToLower(lang)
}
