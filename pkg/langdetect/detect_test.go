package langdetect_test

import (
	"testing"

	"github.com/yaklabco/asmbridge/pkg/langdetect"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		content  string
		expected string
	}{
		{
			name:     "unix assembly extension",
			path:     "head_64.s",
			expected: "asm",
		},
		{
			name:     "asm extension",
			path:     "boot.asm",
			expected: "asm",
		},
		{
			name:     "c source",
			path:     "main.c",
			content:  "int main(void) { return 0; }\n",
			expected: "c",
		},
		{
			name:     "shebang sh",
			path:     "configure",
			content:  "#!/bin/sh\necho hello",
			expected: "bash",
		},
		{
			name:     "directives without extension",
			path:     "entry",
			content:  "\t.text\n\t.globl _start\n_start:\n\tli 3, 0\n",
			expected: "asm",
		},
		{
			name:     "label and directive",
			path:     "vectors",
			content:  "reset:\n\tb start\n\t.long 0\n",
			expected: "asm",
		},
		{
			name:     "single directive is not enough",
			path:     "notes",
			content:  ".text is a section name\n",
			expected: "text",
		},
		{
			name:     "empty",
			path:     "empty",
			expected: "text",
		},
		{
			name:     "binary",
			path:     "blob",
			content:  "\x7fELF\x00\x00\x00\x01",
			expected: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := langdetect.Detect(tt.path, []byte(tt.content))
			if got != tt.expected {
				t.Errorf("Detect(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestIsAssembly(t *testing.T) {
	t.Parallel()

	if !langdetect.IsAssembly("start", []byte(".section .text\nmain:\n")) {
		t.Error("expected assembly")
	}
	if langdetect.IsAssembly("README", []byte("hello: world\n")) {
		t.Error("prose with one label-like word should not be assembly")
	}
}
