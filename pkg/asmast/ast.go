// Package asmast runs preprocessing and target assembly parsing over one
// source file and collects the result: annotated instructions, macro and
// include metadata, the reconstructed assembly buffer, and diagnostics in
// original source coordinates.
package asmast

import (
	"errors"
	"sort"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/asmtoken"
	"github.com/yaklabco/asmbridge/pkg/mc"
	"github.com/yaklabco/asmbridge/pkg/preproc"
	"github.com/yaklabco/asmbridge/pkg/source"
)

var (
	// ErrPreprocess is returned when the front-end stops on a fatal error.
	ErrPreprocess = errors.New("preprocessing failed")

	// ErrTarget is returned when the target or one of its components cannot
	// be created.
	ErrTarget = errors.New("target setup failed")
)

// Invocation holds the options a parse runs with.
type Invocation struct {
	// ShowCPP, ShowComments and ShowMacroComments mirror the front-end
	// output switches. Parse always runs with ShowCPP on and both comment
	// switches off.
	ShowCPP           bool
	ShowComments      bool
	ShowMacroComments bool

	Triple   string
	CPU      string
	Features string

	IncludeDirs []string
	Defines     []string

	TargetOptions mc.TargetOptions
}

// Severity of a translated diagnostic.
type Severity int

// Diagnostic severities.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityNote
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Position is a zero-based line and character in the main file.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a span of positions on one line.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is a problem reported in original source coordinates.
type Diagnostic struct {
	Severity       Severity
	Message        string
	File           string
	InsideMainFile bool
	Range          Range

	// Source is "preprocessor" or "assembler".
	Source string
}

// AnnotatedInstruction is an emitted instruction with its operand summary.
type AnnotatedInstruction struct {
	Inst mc.Inst

	// Mnemonic is the mnemonic as spelled, without a dot suffix.
	Mnemonic string

	// Text is the instruction in the target's canonical syntax.
	Text string

	// Argc counts operands after the mnemonic and any dot suffix.
	Argc int

	// IsDot reports a record-form '.' suffix on the mnemonic.
	IsDot bool

	// Offset is the buffer offset of the mnemonic.
	Offset int

	Section string
}

// MacroDef is a macro defined in the main file.
type MacroDef struct {
	Name   string
	Kind   preproc.MacroKind
	Params []string
	Loc    source.Loc
}

// MacroRef is a use of a macro in the main file. Loc is the location of
// the macro name, which every token of the expansion reports as its
// expansion location.
type MacroRef struct {
	Name string
	Loc  source.Loc
}

// Include is one inclusion directive.
type Include struct {
	Spelled string
	Path    string
	Angled  bool
	Loc     source.Loc
}

// AST is the result of parsing one assembly source file.
type AST struct {
	Filename string
	Triple   string
	Target   *mc.Target

	Diags        []Diagnostic
	Instructions []AnnotatedInstruction
	MacroDefs    []MacroDef
	MacroRefs    []MacroRef
	Includes     []Include
	Symbols      []*mc.Symbol

	// Tokens is the reconstructed assembly buffer and its offset index.
	Tokens        *asmtoken.Buffer
	SourceManager *source.Manager

	inv    Invocation
	source []byte
	parsed bool
}

// New creates an unparsed AST for filename.
func New(filename string) *AST {
	return &AST{Filename: filename}
}

// SetInvocation sets the parse options.
func (a *AST) SetInvocation(inv Invocation) {
	a.inv = inv
	a.Triple = inv.Triple
}

// Invocation returns the parse options, as adjusted by Parse.
func (a *AST) Invocation() Invocation { return a.inv }

// SetSource sets the text of the main file.
func (a *AST) SetSource(src []byte) { a.source = src }

// SourceLine returns the zero-based line of the main file without its
// terminator.
func (a *AST) SourceLine(line int) (string, bool) {
	lines := source.BuildLines(a.source)
	if line < 0 || line >= len(lines) || len(a.source) == 0 {
		return "", false
	}
	info := lines[line]
	return string(a.source[info.StartOffset:info.NewlineStart]), true
}

// HasErrors reports whether any error diagnostic was recorded.
func (a *AST) HasErrors() bool {
	for _, d := range a.Diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// InstructionAt returns the instruction whose statement covers the buffer
// offset.
func (a *AST) InstructionAt(offset int) (*AnnotatedInstruction, bool) {
	idx := sort.Search(len(a.Instructions), func(i int) bool {
		return a.Instructions[i].Offset > offset
	}) - 1
	if idx < 0 || a.Tokens == nil {
		return nil, false
	}

	inst := &a.Instructions[idx]
	text := a.Tokens.Text()
	if offset > len(text) {
		return nil, false
	}
	if strings.ContainsAny(text[inst.Offset:offset], "\n;") {
		return nil, false
	}
	return inst, true
}

// MacroRefAt returns the macro use whose name covers pos.
func (a *AST) MacroRefAt(pos Position) (MacroRef, bool) {
	loc, ok := a.locFor(pos)
	if !ok {
		return MacroRef{}, false
	}
	for _, ref := range a.MacroRefs {
		if loc >= ref.Loc && loc < ref.Loc.Offset(len(ref.Name)) {
			return ref, true
		}
	}
	return MacroRef{}, false
}

// OffsetForPosition maps pos to a buffer offset through the token spelled
// at pos. Positions inside macro uses, whitespace and comments have no
// offset.
func (a *AST) OffsetForPosition(pos Position) (int, bool) {
	loc, ok := a.locFor(pos)
	if !ok || a.Tokens == nil {
		return 0, false
	}

	for i := range a.Tokens.Len() {
		tok := a.Tokens.Token(i)
		start := tok.Location()
		if a.SourceManager.IsMacroID(start) {
			continue
		}
		if loc >= start && loc <= start.Offset(tok.Len()) {
			return a.Tokens.Offset(i) + int(loc-start), true
		}
	}
	return 0, false
}

func (a *AST) locFor(pos Position) (source.Loc, bool) {
	if a.SourceManager == nil || pos.Line < 0 || pos.Character < 0 {
		return 0, false
	}
	return a.SourceManager.LocForLineCol(a.SourceManager.MainFile(), pos.Line+1, pos.Character+1)
}
