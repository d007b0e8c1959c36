package instrdocs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/instrdocs"
	"github.com/yaklabco/asmbridge/pkg/markup"
)

func loadFixture(t *testing.T) *instrdocs.Index {
	t.Helper()

	idx, err := instrdocs.Load(filepath.Join("testdata", "ppc.json"))
	require.NoError(t, err)
	return idx
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	idx := loadFixture(t)

	// add, add., addo, addi, li, la, nop
	assert.Equal(t, 7, idx.Len())
	assert.Equal(t, 3, idx.MaxArgs())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	idx := loadFixture(t)

	tests := []struct {
		name        string
		mnemonic    string
		inst        asmast.AnnotatedInstruction
		wantOK      bool
		wantHeading string
		wantSyntax  string
		wantExt     string
	}{
		{
			name:        "syntax form",
			mnemonic:    "add",
			inst:        asmast.AnnotatedInstruction{Argc: 3},
			wantOK:      true,
			wantHeading: "Add X-form",
			wantSyntax:  "add",
		},
		{
			name:        "upper case mnemonic",
			mnemonic:    "ADD",
			inst:        asmast.AnnotatedInstruction{Argc: 3},
			wantOK:      true,
			wantHeading: "Add X-form",
			wantSyntax:  "add",
		},
		{
			name:        "record form",
			mnemonic:    "add",
			inst:        asmast.AnnotatedInstruction{Argc: 3, IsDot: true},
			wantOK:      true,
			wantHeading: "Add X-form",
			wantSyntax:  "add.",
		},
		{
			name:        "syntax in second encoding",
			mnemonic:    "addo",
			inst:        asmast.AnnotatedInstruction{Argc: 3},
			wantOK:      true,
			wantHeading: "Add with overflow",
			wantSyntax:  "addo",
		},
		{
			name:        "extended mnemonic uses first encoding",
			mnemonic:    "li",
			inst:        asmast.AnnotatedInstruction{Argc: 2},
			wantOK:      true,
			wantHeading: "Add Immediate D-form",
			wantExt:     "li",
		},
		{
			name:        "no operands",
			mnemonic:    "nop",
			inst:        asmast.AnnotatedInstruction{},
			wantOK:      true,
			wantHeading: "No Operation",
			wantSyntax:  "nop",
		},
		{
			name:     "wrong operand count",
			mnemonic: "add",
			inst:     asmast.AnnotatedInstruction{Argc: 2},
		},
		{
			name:     "operand count beyond index",
			mnemonic: "add",
			inst:     asmast.AnnotatedInstruction{Argc: 4},
		},
		{
			name:     "record form not documented",
			mnemonic: "addi",
			inst:     asmast.AnnotatedInstruction{Argc: 3, IsDot: true},
		},
		{
			name:     "unknown mnemonic",
			mnemonic: "xyz",
			inst:     asmast.AnnotatedInstruction{Argc: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, ok := idx.Resolve(tt.mnemonic, tt.inst)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}

			require.NotNil(t, res.Encoding)
			assert.Equal(t, tt.wantHeading, res.Encoding.Heading)
			if tt.wantSyntax != "" {
				require.NotNil(t, res.Syntax)
				assert.Nil(t, res.ExtendedMnemonic)
				assert.Equal(t, tt.wantSyntax, res.Syntax.Name)
			}
			if tt.wantExt != "" {
				require.NotNil(t, res.ExtendedMnemonic)
				assert.Nil(t, res.Syntax)
				assert.Equal(t, tt.wantExt, res.ExtendedMnemonic.Name)
			}
		})
	}
}

func TestResolve_CaseInsensitiveIdentical(t *testing.T) {
	t.Parallel()

	idx := loadFixture(t)
	inst := asmast.AnnotatedInstruction{Argc: 3}

	lower, okLower := idx.Resolve("add", inst)
	upper, okUpper := idx.Resolve("ADD", inst)

	require.True(t, okLower)
	require.True(t, okUpper)
	assert.Same(t, lower.Instruction, upper.Instruction)
	assert.Same(t, lower.Encoding, upper.Encoding)
	assert.Same(t, lower.Syntax, upper.Syntax)
}

func TestResolve_EmptyIndex(t *testing.T) {
	t.Parallel()

	var nilIdx *instrdocs.Index
	_, ok := nilIdx.Resolve("add", asmast.AnnotatedInstruction{})
	assert.False(t, ok)

	_, ok = (&instrdocs.Index{}).Resolve("add", asmast.AnnotatedInstruction{})
	assert.False(t, ok)
	assert.Equal(t, -1, nilIdx.MaxArgs())
}

func TestLookupResult_Render(t *testing.T) {
	t.Parallel()

	idx := loadFixture(t)

	tests := []struct {
		name     string
		mnemonic string
		inst     asmast.AnnotatedInstruction
		want     string
	}{
		{
			name:     "syntax with comment",
			mnemonic: "add",
			inst:     asmast.AnnotatedInstruction{Argc: 3, IsDot: true},
			want: "### Add X-form\n\n" +
				"See more on page 64\n\n" +
				"```powerpc\nadd. RT,RA,RB  # sets CR0\n```\n\n" +
				"### Description:\n\n" +
				"The sum `(RA) + (RB)` is placed into register RT.",
		},
		{
			name:     "extended mnemonic",
			mnemonic: "li",
			inst:     asmast.AnnotatedInstruction{Argc: 2},
			want: "### Add Immediate D-form\n\n" +
				"See more on page 62\n\n" +
				"```powerpc\nli Rx,value  # extended mnemonic => addi Rx,0,value\n```\n\n" +
				"### Description:\n\n" +
				"#### Semantics\n\n" +
				"```\nRT <- (RA|0) + EXTS(SI)\n```\n\n" +
				"---\n\n" +
				"- no status bits",
		},
		{
			name:     "no page and no args",
			mnemonic: "nop",
			inst:     asmast.AnnotatedInstruction{},
			want: "### No Operation\n\n" +
				"```powerpc\nnop\n```\n\n" +
				"### Description:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, ok := idx.Resolve(tt.mnemonic, tt.inst)
			require.True(t, ok)

			doc := &markup.Document{}
			res.Render(doc)
			if diff := cmp.Diff(tt.want, doc.AsMarkdown()); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	idx, err := instrdocs.Load(filepath.Join("testdata", "ppc.yaml"))
	require.NoError(t, err)

	res, ok := idx.Resolve("add", asmast.AnnotatedInstruction{Argc: 3})
	require.True(t, ok)

	doc := &markup.Document{}
	res.Render(doc)
	assert.Contains(t, doc.AsMarkdown(), "## Overview\n\nThe sum `(RA) + (RB)`")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "absent.json"),
			wantErr: "read docs",
		},
		{
			name:    "bad json",
			path:    write("bad.json", "{"),
			wantErr: "decode json",
		},
		{
			name:    "bad yaml",
			path:    write("bad.yaml", "- [unterminated"),
			wantErr: "decode yaml",
		},
		{
			name:    "syntax without name",
			path:    write("noname.json", `[{"encodings":[{"heading":"h","syntax":[{"numargs":1}]}]}]`),
			wantErr: "instruction 0: encoding 0: syntax 0: missing name",
		},
		{
			name:    "unknown extension",
			path:    write("docs.txt", "[]"),
			wantErr: "unsupported documentation format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := instrdocs.Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewIndex_LaterEntryWins(t *testing.T) {
	t.Parallel()

	first := &instrdocs.Instruction{Encodings: []instrdocs.Encoding{{
		Heading:  "first",
		Syntaxes: []instrdocs.Syntax{{Name: "mr", NumArgs: 2}},
	}}}
	second := &instrdocs.Instruction{Encodings: []instrdocs.Encoding{{
		Heading:  "second",
		Syntaxes: []instrdocs.Syntax{{Name: "MR", NumArgs: 2}},
	}}}

	idx := instrdocs.NewIndex([]*instrdocs.Instruction{first, second})

	res, ok := idx.Resolve("mr", asmast.AnnotatedInstruction{Argc: 2})
	require.True(t, ok)
	assert.Equal(t, "second", res.Encoding.Heading)
	assert.Equal(t, 1, idx.Len())
}

func TestExtendedMnemonic_WithoutEncodings(t *testing.T) {
	t.Parallel()

	instr := &instrdocs.Instruction{
		ExtendedMnemonics: []instrdocs.ExtendedMnemonic{{Name: "blr", BaseName: "bclr", NumArgs: 0}},
	}
	idx := instrdocs.NewIndex([]*instrdocs.Instruction{instr})

	res, ok := idx.Resolve("blr", asmast.AnnotatedInstruction{})
	require.True(t, ok)
	assert.Nil(t, res.Encoding)

	doc := &markup.Document{}
	res.Render(doc)
	assert.Equal(t, "```powerpc\nblr  # extended mnemonic => bclr\n```\n\n### Description:", doc.AsMarkdown())
}
