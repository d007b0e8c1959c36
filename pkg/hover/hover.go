// Package hover answers "what is under the cursor" for a parsed assembly
// file: the expansion of a macro use, or the documentation of an
// instruction.
package hover

import (
	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/instrdocs"
	"github.com/yaklabco/asmbridge/pkg/markup"
	"github.com/yaklabco/asmbridge/pkg/source"
)

// Kind of hover content.
type Kind int

// Hover kinds.
const (
	KindMacro Kind = iota + 1
	KindInstruction
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMacro:
		return "macro"
	case KindInstruction:
		return "instruction"
	default:
		return "unknown"
	}
}

// Result is the hover content for one position.
type Result struct {
	Kind     Kind
	Contents *markup.Document

	// Range is the source span the content describes: the macro name or
	// the instruction mnemonic.
	Range asmast.Range
}

// At returns hover content for the zero-based position pos in the main
// file of a. Macro uses take precedence over instructions.
func At(a *asmast.AST, idx *instrdocs.Index, pos asmast.Position) (Result, bool) {
	if a == nil || a.Tokens == nil || a.SourceManager == nil {
		return Result{}, false
	}

	if res, ok := macroAt(a, pos); ok {
		return res, true
	}
	return instructionAt(a, idx, pos)
}

func macroAt(a *asmast.AST, pos asmast.Position) (Result, bool) {
	ref, ok := a.MacroRefAt(pos)
	if !ok {
		return Result{}, false
	}

	expansion, ok := a.Tokens.MacroExpansion(ref.Loc, a.SourceManager)
	if !ok {
		return Result{}, false
	}

	doc := &markup.Document{}
	doc.AddHeading(3).AppendText("Macro").AppendCode(ref.Name)
	doc.AddCodeBlock(expansion, "powerpc")

	return Result{
		Kind:     KindMacro,
		Contents: doc,
		Range:    rangeAt(a.SourceManager, ref.Loc, len(ref.Name)),
	}, true
}

func instructionAt(a *asmast.AST, idx *instrdocs.Index, pos asmast.Position) (Result, bool) {
	offset, ok := a.OffsetForPosition(pos)
	if !ok {
		return Result{}, false
	}

	inst, ok := a.InstructionAt(offset)
	if !ok {
		return Result{}, false
	}

	found, ok := idx.Resolve(inst.Mnemonic, *inst)
	if !ok {
		return Result{}, false
	}

	doc := &markup.Document{}
	found.Render(doc)

	res := Result{Kind: KindInstruction, Contents: doc}
	if tok, ok := a.Tokens.TokenAt(inst.Offset); ok {
		res.Range = rangeAt(a.SourceManager, tok.Location(), tok.Len())
	}
	return res, true
}

func rangeAt(sm *source.Manager, loc source.Loc, length int) asmast.Range {
	line, col := sm.ExpansionLineCol(loc)
	start := asmast.Position{Line: max(line-1, 0), Character: max(col-1, 0)}
	if sm.IsMacroID(loc) {
		return asmast.Range{Start: start, End: start}
	}
	end := start
	end.Character += length
	return asmast.Range{Start: start, End: end}
}
