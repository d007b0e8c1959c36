package asmtoken

import (
	"fmt"
	"io"
	"sort"

	"github.com/yaklabco/asmbridge/pkg/source"
)

// Buffer is the immutable result of token collection: the reconstructed
// assembly text and, for every token, the offset where its text starts.
type Buffer struct {
	tokens  []ExpandedToken
	offsets []int
	text    string
}

// NewBuffer assembles a buffer from parallel token and offset slices.
// It panics if the slices differ in length.
func NewBuffer(tokens []ExpandedToken, offsets []int, text string) *Buffer {
	if len(tokens) != len(offsets) {
		panic(fmt.Sprintf("asmtoken: %d tokens but %d offsets", len(tokens), len(offsets)))
	}
	return &Buffer{tokens: tokens, offsets: offsets, text: text}
}

// Text returns the assembly buffer.
func (b *Buffer) Text() string { return b.text }

// Len returns the number of tokens.
func (b *Buffer) Len() int { return len(b.tokens) }

// Token returns the i-th token.
func (b *Buffer) Token(i int) ExpandedToken { return b.tokens[i] }

// Offset returns the buffer offset of the i-th token.
func (b *Buffer) Offset(i int) int { return b.offsets[i] }

// Tokens returns a copy of the token sequence.
func (b *Buffer) Tokens() []ExpandedToken {
	return append([]ExpandedToken(nil), b.tokens...)
}

// TokenAt returns the token whose span in the buffer contains offset.
//
// Tokens are stored by start offset, so the lookup finds the first start
// offset not less than offset. When that start equals offset the token
// begins exactly there; otherwise the candidate is the token immediately
// before it. The candidate matches when offset-start <= length, which makes
// the position just past a token part of it. Offsets in a separator gap
// beyond that position, or before the first token, match nothing.
func (b *Buffer) TokenAt(offset int) (ExpandedToken, bool) {
	idx, ok := b.tokenIndexAt(offset)
	if !ok {
		return ExpandedToken{}, false
	}
	return b.tokens[idx], true
}

// TokenIndexAt is TokenAt returning the token's index.
func (b *Buffer) TokenIndexAt(offset int) (int, bool) {
	return b.tokenIndexAt(offset)
}

func (b *Buffer) tokenIndexAt(offset int) (int, bool) {
	if offset < 0 {
		return 0, false
	}

	idx := sort.Search(len(b.offsets), func(i int) bool {
		return b.offsets[i] >= offset
	})
	if idx == len(b.offsets) || b.offsets[idx] != offset {
		idx--
	}
	if idx < 0 {
		return 0, false
	}

	start := b.offsets[idx]
	if b.tokens[idx].bufferLen() < offset-start {
		return 0, false
	}
	return idx, true
}

// Location returns the original source location recorded for tok.
func (b *Buffer) Location(tok ExpandedToken) source.Loc {
	return tok.Location()
}

// OffsetFor returns the buffer offset of the first token recorded at
// exactly loc. Macro locations carry no order the way buffer offsets do,
// so this is a linear scan.
func (b *Buffer) OffsetFor(loc source.Loc) (int, bool) {
	for i, tok := range b.tokens {
		if tok.Location() == loc {
			return b.offsets[i], true
		}
	}
	return 0, false
}

// MacroExpansion returns the buffer text produced by the macro use at
// expansionLoc: the span from the first token whose expansion location is
// expansionLoc through the end of the contiguous run of such tokens.
func (b *Buffer) MacroExpansion(expansionLoc source.Loc, sm *source.Manager) (string, bool) {
	first := -1
	for i, tok := range b.tokens {
		if sm.ExpansionLoc(tok.Location()) == expansionLoc {
			first = i
			break
		}
	}
	if first < 0 {
		return "", false
	}

	last := first
	for last+1 < len(b.tokens) && sm.ExpansionLoc(b.tokens[last+1].Location()) == expansionLoc {
		last++
	}

	begin := b.offsets[first]
	end := b.offsets[last] + b.tokens[last].bufferLen()

	return b.text[begin:end], true
}

// Dump writes every token with its offset followed by the buffer text.
func (b *Buffer) Dump(w io.Writer, sm *source.Manager) error {
	for i, tok := range b.tokens {
		if _, err := fmt.Fprintf(w, "@ %d -> %s\n", b.offsets[i], tok.Describe(sm)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nBuffer:>>>>>>\n%s<<<<<<\n", b.text)
	return err
}

// bufferLen is the length of the token's text in the buffer. It equals
// the source length except for tokens whose spelling was cleaned of line
// continuations.
func (t ExpandedToken) bufferLen() int {
	return len(t.text)
}
