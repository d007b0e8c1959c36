// Package asmtoken rebuilds assembly text from the preprocessor's
// expansion-level token stream and maps positions in that text back to
// the tokens, and through them to the original source.
package asmtoken

import (
	"fmt"

	"github.com/yaklabco/asmbridge/pkg/preproc"
	"github.com/yaklabco/asmbridge/pkg/source"
)

// ExpandedToken is an owned snapshot of one preprocessor token.
type ExpandedToken struct {
	loc    source.Loc
	length int
	kind   preproc.Kind
	text   string
}

// NewExpandedToken snapshots tok. text is the rendered spelling.
func NewExpandedToken(tok preproc.Token, text string) ExpandedToken {
	return ExpandedToken{loc: tok.Loc, length: tok.Length, kind: tok.Kind, text: text}
}

// Location returns the token's source location. For expanded tokens this
// is a macro location.
func (t ExpandedToken) Location() source.Loc { return t.loc }

// EndLocation returns the location just past the token.
func (t ExpandedToken) EndLocation() source.Loc { return t.loc.Offset(t.length) }

// Range returns the begin and end locations.
func (t ExpandedToken) Range() (source.Loc, source.Loc) { return t.Location(), t.EndLocation() }

// Len returns the token length in the source.
func (t ExpandedToken) Len() int { return t.length }

// Kind returns the token kind.
func (t ExpandedToken) Kind() preproc.Kind { return t.kind }

// Text returns the text emitted into the assembly buffer.
func (t ExpandedToken) Text() string { return t.text }

// SourceText reads the token's characters from the source manager.
func (t ExpandedToken) SourceText(sm *source.Manager) (string, error) {
	return sm.CharacterData(t.loc, t.length)
}

// Describe formats the token for dumps.
func (t ExpandedToken) Describe(sm *source.Manager) string {
	return fmt.Sprintf("Token { %q isMacro:%t %s }", t.text, sm.IsMacroID(t.loc), sm.Describe(t.loc))
}
