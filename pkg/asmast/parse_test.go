package asmast_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/mc"
	"github.com/yaklabco/asmbridge/pkg/preproc"
	_ "github.com/yaklabco/asmbridge/pkg/target/ppc"
)

const ppcTriple = "powerpc-unknown-linux-gnu"

func parse(t *testing.T, src string, inv asmast.Invocation, fsys fstest.MapFS) (*asmast.AST, error) {
	t.Helper()

	if inv.Triple == "" {
		inv.Triple = ppcTriple
	}
	ast := asmast.New("main.s")
	ast.SetInvocation(inv)
	ast.SetSource([]byte(src))
	return ast, ast.Parse(context.Background(), fsys)
}

func TestParse_MacroUseSite(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "FOO:\n.macro M\nADD 1,2\n.endm\nM\n", asmast.Invocation{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "\nFOO:\nADD 1,2", ast.Tokens.Text())
	assert.Equal(t, 6, ast.Tokens.Offset(2))

	assert.Empty(t, ast.Diags)
	require.Len(t, ast.Instructions, 1)
	inst := ast.Instructions[0]
	assert.Equal(t, "ADD", inst.Mnemonic)
	assert.Equal(t, 2, inst.Argc)
	assert.False(t, inst.IsDot)
	assert.Equal(t, 6, inst.Offset)
	assert.Equal(t, "add r1, r1, r2", inst.Text)

	require.Len(t, ast.MacroDefs, 1)
	assert.Equal(t, "M", ast.MacroDefs[0].Name)
	assert.Equal(t, preproc.MacroAsm, ast.MacroDefs[0].Kind)

	require.Len(t, ast.MacroRefs, 1)
	expansion, ok := ast.Tokens.MacroExpansion(ast.MacroRefs[0].Loc, ast.SourceManager)
	require.True(t, ok)
	assert.Equal(t, "ADD 1,2", expansion)
}

func TestParse_Annotations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		mnemonic string
		text     string
		argc     int
		isDot    bool
	}{
		{"add 3,4,5", "add", "add r3, r4, r5", 3, false},
		{"add. 3,4,5", "add", "add. r3, r4, r5", 3, true},
		{"andi. 3,4,1", "andi", "andi. r3, r4, 1", 3, true},
		{"lwz 3,8(1)", "lwz", "lwz r3, 8(r1)", 3, false},
		{"blr", "blr", "blr", 0, false},
		{"mflr 0", "mflr", "mflr r0", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			ast, err := parse(t, tt.src+"\n", asmast.Invocation{}, nil)
			require.NoError(t, err)
			require.Empty(t, ast.Diags)
			require.Len(t, ast.Instructions, 1)

			inst := ast.Instructions[0]
			assert.Equal(t, tt.mnemonic, inst.Mnemonic)
			assert.Equal(t, tt.text, inst.Text)
			assert.Equal(t, tt.argc, inst.Argc)
			assert.Equal(t, tt.isDot, inst.IsDot)
			assert.Equal(t, 1, inst.Offset)
			assert.Equal(t, ".text", inst.Section)
		})
	}
}

func TestParse_Sections(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "nop\n.section .init\nnop\n", asmast.Invocation{}, nil)
	require.NoError(t, err)

	require.Len(t, ast.Instructions, 2)
	assert.Equal(t, ".text", ast.Instructions[0].Section)
	assert.Equal(t, ".init", ast.Instructions[1].Section)
}

func TestParse_DiagnosticPositions(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "nop\n  frob 1\n.warning \"careful\"\n", asmast.Invocation{}, nil)
	require.NoError(t, err)

	require.Len(t, ast.Diags, 2)
	assert.Equal(t, "invalid instruction", ast.Diags[0].Message)
	assert.Equal(t, asmast.Range{
		Start: asmast.Position{Line: 1, Character: 2},
		End:   asmast.Position{Line: 1, Character: 6},
	}, ast.Diags[0].Range)
	assert.Equal(t, "assembler", ast.Diags[0].Source)

	assert.Equal(t, asmast.SeverityWarning, ast.Diags[1].Severity)
	assert.Equal(t, "careful", ast.Diags[1].Message)
	assert.Equal(t, asmast.Position{Line: 2, Character: 0}, ast.Diags[1].Range.Start)
}

func TestParse_MacroDiagnosticSpansUse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want asmast.Range
	}{
		{
			name: "object macro",
			src:  "#define BAD frobnicate 1\nBAD\n",
			want: asmast.Range{
				Start: asmast.Position{Line: 1, Character: 0},
				End:   asmast.Position{Line: 1, Character: 3},
			},
		},
		{
			name: "asm macro",
			src:  ".macro M\nfrob 1\n.endm\nM\n",
			want: asmast.Range{
				Start: asmast.Position{Line: 3, Character: 0},
				End:   asmast.Position{Line: 3, Character: 1},
			},
		},
		{
			name: "function macro",
			src:  "#define F(x) frob x\nF(1)\n",
			want: asmast.Range{
				Start: asmast.Position{Line: 1, Character: 0},
				End:   asmast.Position{Line: 1, Character: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ast, err := parse(t, tt.src, asmast.Invocation{}, nil)
			require.NoError(t, err)

			require.Len(t, ast.Diags, 1)
			assert.Equal(t, "invalid instruction", ast.Diags[0].Message)
			assert.Equal(t, tt.want, ast.Diags[0].Range)
		})
	}
}

func TestParse_IncludedFileDiagnosticsDropped(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"helper.s": {Data: []byte("frob 1\n")}}
	ast, err := parse(t, "#include \"helper.s\"\nnop\n", asmast.Invocation{}, fsys)
	require.NoError(t, err)

	assert.Empty(t, ast.Diags)
	require.Len(t, ast.Includes, 1)
	assert.Equal(t, "helper.s", ast.Includes[0].Spelled)
	assert.False(t, ast.Includes[0].Angled)
	assert.Len(t, ast.Instructions, 1)
}

func TestParse_WarningOptions(t *testing.T) {
	t.Parallel()

	src := ".warning \"w\"\n"

	ast, err := parse(t, src, asmast.Invocation{TargetOptions: mc.TargetOptions{NoWarn: true}}, nil)
	require.NoError(t, err)
	assert.Empty(t, ast.Diags)

	ast, err = parse(t, src, asmast.Invocation{TargetOptions: mc.TargetOptions{FatalWarnings: true}}, nil)
	require.NoError(t, err)
	require.Len(t, ast.Diags, 1)
	assert.Equal(t, asmast.SeverityError, ast.Diags[0].Severity)
}

func TestParse_PreprocessorFailure(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "#include \"missing.inc\"\nnop\n", asmast.Invocation{}, fstest.MapFS{})

	require.ErrorIs(t, err, asmast.ErrPreprocess)
	require.ErrorIs(t, err, preproc.ErrIncludeNotFound)
	assert.Empty(t, ast.Instructions)
	require.Len(t, ast.Diags, 1)
	assert.Equal(t, "preprocessor", ast.Diags[0].Source)
	assert.Equal(t, "'missing.inc' file not found", ast.Diags[0].Message)
}

func TestParse_PreprocessorDiagnostics(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "nop\n#warning \"check me\"\n#ifdef X\n", asmast.Invocation{}, nil)
	require.NoError(t, err)

	require.Len(t, ast.Diags, 2)
	assert.Equal(t, asmast.SeverityWarning, ast.Diags[0].Severity)
	assert.Equal(t, 1, ast.Diags[0].Range.Start.Line)
	assert.Equal(t, asmast.SeverityError, ast.Diags[1].Severity)
	assert.Equal(t, "unterminated conditional directive", ast.Diags[1].Message)
}

type stubBackend struct{}

func (stubBackend) Name() string { return "stub" }

func (stubBackend) LittleEndian() bool { return true }

func init() {
	mc.RegisterTarget(&mc.Target{
		Name:   "noparse",
		Arches: []string{"noparse"},
		NewRegisterInfo: func(mc.Triple) (*mc.RegisterInfo, error) {
			return mc.NewRegisterInfo(nil, nil), nil
		},
		NewAsmInfo: func(*mc.RegisterInfo, mc.Triple, mc.TargetOptions) (*mc.AsmInfo, error) {
			return &mc.AsmInfo{}, nil
		},
		NewInstrInfo: func() (*mc.InstrInfo, error) { return mc.NewInstrInfo(nil), nil },
		NewSubtargetInfo: func(triple mc.Triple, cpu, _ string) (*mc.SubtargetInfo, error) {
			return &mc.SubtargetInfo{Triple: triple, CPU: cpu}, nil
		},
		NewAsmBackend: func(*mc.SubtargetInfo, *mc.RegisterInfo, mc.TargetOptions) (mc.AsmBackend, error) {
			return stubBackend{}, nil
		},
	})
}

func TestParse_TargetFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		inv   asmast.Invocation
		cause error
	}{
		{"unknown triple", asmast.Invocation{Triple: "m68k-unknown-linux"}, mc.ErrUnknownTarget},
		{"no asm parser", asmast.Invocation{Triple: "noparse"}, mc.ErrNoAsmParser},
		{"unknown cpu", asmast.Invocation{CPU: "pentium"}, nil},
		{"bad features", asmast.Invocation{Features: "altivec"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ast, err := parse(t, "nop\n", tt.inv, nil)

			require.ErrorIs(t, err, asmast.ErrTarget)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
			assert.Empty(t, ast.Instructions)
			assert.Empty(t, ast.Diags)
		})
	}
}

func TestParse_Once(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "nop\n", asmast.Invocation{}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, ast.Parse(context.Background(), nil), asmast.ErrAlreadyParsed)
}

func TestParse_ForcesOutputSwitches(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "nop\n", asmast.Invocation{ShowComments: true, ShowMacroComments: true}, nil)
	require.NoError(t, err)

	inv := ast.Invocation()
	assert.True(t, inv.ShowCPP)
	assert.False(t, inv.ShowComments)
	assert.False(t, inv.ShowMacroComments)
}

func TestParse_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ast := asmast.New("main.s")
	ast.SetInvocation(asmast.Invocation{Triple: ppcTriple})
	ast.SetSource([]byte("nop\n"))

	assert.ErrorIs(t, ast.Parse(ctx, nil), context.Canceled)
}

func TestParse_Predefines(t *testing.T) {
	t.Parallel()

	ast, err := parse(t, "li 3, VALUE\n", asmast.Invocation{Defines: []string{"VALUE=42"}}, nil)
	require.NoError(t, err)

	require.Len(t, ast.Instructions, 1)
	assert.Equal(t, "li r3, 42", ast.Instructions[0].Text)
	assert.Empty(t, ast.MacroDefs, "command line macros are not in the main file")
}

func TestPositionLookups(t *testing.T) {
	t.Parallel()

	src := "#define TWO 2\nli 3, TWO   # load\nadd. 3, 3, 4\n"
	ast, err := parse(t, src, asmast.Invocation{}, nil)
	require.NoError(t, err)
	require.Len(t, ast.Instructions, 2)

	offset, ok := ast.OffsetForPosition(asmast.Position{Line: 2, Character: 11})
	require.True(t, ok)
	inst, ok := ast.InstructionAt(offset)
	require.True(t, ok)
	assert.Equal(t, "add", inst.Mnemonic)
	assert.True(t, inst.IsDot)

	offset, ok = ast.OffsetForPosition(asmast.Position{Line: 1, Character: 0})
	require.True(t, ok)
	inst, ok = ast.InstructionAt(offset)
	require.True(t, ok)
	assert.Equal(t, "li", inst.Mnemonic)

	_, ok = ast.OffsetForPosition(asmast.Position{Line: 1, Character: 14})
	assert.False(t, ok, "comment has no buffer offset")

	ref, ok := ast.MacroRefAt(asmast.Position{Line: 1, Character: 7})
	require.True(t, ok)
	assert.Equal(t, "TWO", ref.Name)
	expansion, ok := ast.Tokens.MacroExpansion(ref.Loc, ast.SourceManager)
	require.True(t, ok)
	assert.Equal(t, "2", expansion)

	_, ok = ast.MacroRefAt(asmast.Position{Line: 2, Character: 0})
	assert.False(t, ok)

	_, ok = ast.InstructionAt(0)
	assert.False(t, ok)
}

func TestSourceLine(t *testing.T) {
	t.Parallel()

	ast := asmast.New("main.s")
	ast.SetSource([]byte("li 3, 1\r\nblr"))

	line, ok := ast.SourceLine(0)
	require.True(t, ok)
	assert.Equal(t, "li 3, 1", line)

	line, ok = ast.SourceLine(1)
	require.True(t, ok)
	assert.Equal(t, "blr", line)

	_, ok = ast.SourceLine(2)
	assert.False(t, ok)
	_, ok = ast.SourceLine(-1)
	assert.False(t, ok)
}
