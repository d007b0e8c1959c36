// Package instrdocs maps decoded PowerPC instructions to their reference
// documentation.
//
// The index is keyed by operand count and upper-cased mnemonic. A mnemonic
// resolves either to one of an instruction's syntax forms or to one of its
// extended mnemonics.
package instrdocs

import (
	"strings"

	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/markup"
)

// Syntax is one assembler spelling of an encoding.
type Syntax struct {
	Name    string
	Args    *string
	NumArgs int
	Comment *string
}

// String returns the syntax as shown in documentation code blocks.
func (s *Syntax) String() string {
	out := s.Name
	if s.Args != nil {
		out += " " + *s.Args
	}
	if s.Comment != nil {
		out += "  # " + *s.Comment
	}
	return out
}

// Encoding is one machine encoding of an instruction.
type Encoding struct {
	Heading  string
	Page     *string
	Syntaxes []Syntax
}

// ExtendedMnemonic is a documented shorthand for a base instruction.
type ExtendedMnemonic struct {
	Name     string
	Args     *string
	NumArgs  int
	BaseName string
	BaseArgs *string
}

// String returns the mnemonic with its expansion as a trailing comment.
func (e *ExtendedMnemonic) String() string {
	out := e.Name
	if e.Args != nil {
		out += " " + *e.Args
	}
	out += "  # extended mnemonic => " + e.BaseName
	if e.BaseArgs != nil {
		out += " " + *e.BaseArgs
	}
	return out
}

// Instruction is the documentation of one instruction.
type Instruction struct {
	Encodings         []Encoding
	ExtendedMnemonics []ExtendedMnemonic
	Description       *markup.Document
}

// Index is a read-only documentation lookup table. The zero value and a nil
// *Index are empty.
type Index struct {
	byArgc []map[string]*Instruction
}

// NewIndex indexes every syntax and extended mnemonic of instrs under its
// own operand count. A later instruction replaces an earlier one with the
// same name and count.
func NewIndex(instrs []*Instruction) *Index {
	idx := &Index{}
	for _, instr := range instrs {
		for i := range instr.Encodings {
			for _, syn := range instr.Encodings[i].Syntaxes {
				idx.insert(syn.Name, syn.NumArgs, instr)
			}
		}
		for _, em := range instr.ExtendedMnemonics {
			idx.insert(em.Name, em.NumArgs, instr)
		}
	}
	return idx
}

func (idx *Index) insert(name string, argc int, instr *Instruction) {
	if argc < 0 {
		return
	}
	for len(idx.byArgc) < argc+1 {
		idx.byArgc = append(idx.byArgc, map[string]*Instruction{})
	}
	idx.byArgc[argc][strings.ToUpper(name)] = instr
}

// Len returns the number of indexed names.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, m := range idx.byArgc {
		n += len(m)
	}
	return n
}

// MaxArgs returns the highest indexed operand count, or -1 when empty.
func (idx *Index) MaxArgs() int {
	if idx == nil {
		return -1
	}
	return len(idx.byArgc) - 1
}

// LookupResult is a resolved documentation entry. Exactly one of Syntax and
// ExtendedMnemonic is set.
type LookupResult struct {
	Instruction      *Instruction
	Encoding         *Encoding
	Syntax           *Syntax
	ExtendedMnemonic *ExtendedMnemonic
}

// Resolve finds the documentation for an instruction spelled mnemonic.
//
// The name is matched case-insensitively with a '.' appended for record
// forms. Syntax forms win over extended mnemonics. An extended mnemonic is
// reported with the instruction's first encoding.
func (idx *Index) Resolve(mnemonic string, inst asmast.AnnotatedInstruction) (LookupResult, bool) {
	if idx == nil || inst.Argc < 0 || inst.Argc >= len(idx.byArgc) {
		return LookupResult{}, false
	}

	name := strings.ToUpper(mnemonic)
	if inst.IsDot {
		name += "."
	}

	instr, ok := idx.byArgc[inst.Argc][name]
	if !ok {
		return LookupResult{}, false
	}

	for i := range instr.Encodings {
		enc := &instr.Encodings[i]
		for j := range enc.Syntaxes {
			syn := &enc.Syntaxes[j]
			if strings.ToUpper(syn.Name) == name && syn.NumArgs == inst.Argc {
				return LookupResult{Instruction: instr, Encoding: enc, Syntax: syn}, true
			}
		}
	}

	for i := range instr.ExtendedMnemonics {
		em := &instr.ExtendedMnemonics[i]
		if strings.ToUpper(em.Name) != name || em.NumArgs != inst.Argc {
			continue
		}
		res := LookupResult{Instruction: instr, ExtendedMnemonic: em}
		if len(instr.Encodings) > 0 {
			res.Encoding = &instr.Encodings[0]
		}
		return res, true
	}

	return LookupResult{}, false
}

// Render appends the entry to doc: the encoding heading, an optional page
// reference, the matched form as a code block, and the description.
func (r LookupResult) Render(doc *markup.Document) {
	if r.Encoding != nil {
		doc.AddHeading(3).AppendText(r.Encoding.Heading)
		if r.Encoding.Page != nil {
			doc.AddParagraph().AppendText("See more on page " + *r.Encoding.Page)
		}
	}

	switch {
	case r.Syntax != nil:
		doc.AddCodeBlock(r.Syntax.String(), "powerpc")
	case r.ExtendedMnemonic != nil:
		doc.AddCodeBlock(r.ExtendedMnemonic.String(), "powerpc")
	}

	doc.AddHeading(3).AppendText("Description:")
	if r.Instruction != nil {
		doc.Append(r.Instruction.Description)
	}
}
