// Package preproc lexes and preprocesses assembly source. It understands
// C preprocessor directives and GAS-style .macro definitions, and reports
// every expansion-level token to an installed watcher.
package preproc

import (
	"github.com/yaklabco/asmbridge/pkg/source"
)

// Kind classifies a token.
type Kind int

// Token kinds.
const (
	KindEOF Kind = iota
	KindEOD
	KindIdentifier
	KindNumber
	KindString
	KindChar
	KindPunct
	KindHash
	KindAnnotation
	KindUnknown
)

var kindNames = map[Kind]string{
	KindEOF:        "eof",
	KindEOD:        "eod",
	KindIdentifier: "identifier",
	KindNumber:     "numeric_constant",
	KindString:     "string_literal",
	KindChar:       "char_constant",
	KindPunct:      "punct",
	KindHash:       "hash",
	KindAnnotation: "annotation",
	KindUnknown:    "unknown",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Flags carries per-token lexical flags.
type Flags uint8

// Token flags.
const (
	// StartOfLine marks the first token on a source line.
	StartOfLine Flags = 1 << iota

	// LeadingSpace marks a token preceded by whitespace or a comment.
	LeadingSpace

	// NeedsCleaning marks a token whose spelling contains a line
	// continuation.
	NeedsCleaning
)

// Identifier is the interned payload of identifier tokens.
type Identifier struct {
	Name string
}

// Token is one expansion-level lexical unit.
type Token struct {
	Kind   Kind
	Loc    source.Loc
	Length int
	Flags  Flags

	// Ident is set for identifier tokens.
	Ident *Identifier

	// Literal is the raw source slice of a literal token. It is nil for
	// tokens without backing text.
	Literal []byte

	// Punct holds the spelling of punctuation tokens.
	Punct string
}

// Is reports whether the token has the given kind.
func (t Token) Is(kind Kind) bool { return t.Kind == kind }

// IsAtStartOfLine reports whether the token begins a source line.
func (t Token) IsAtStartOfLine() bool { return t.Flags&StartOfLine != 0 }

// HasLeadingSpace reports whether whitespace preceded the token.
func (t Token) HasLeadingSpace() bool { return t.Flags&LeadingSpace != 0 }

// NeedsCleaning reports whether the spelling contains line continuations.
func (t Token) NeedsCleaning() bool { return t.Flags&NeedsCleaning != 0 }

// IsLiteral reports whether the token is a numeric, string or char literal.
func (t Token) IsLiteral() bool {
	return t.Kind == KindNumber || t.Kind == KindString || t.Kind == KindChar
}

// IsAnnotation reports whether the token is an internal marker.
func (t Token) IsAnnotation() bool { return t.Kind == KindAnnotation }

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(spelling string) bool {
	return t.Kind == KindPunct && t.Punct == spelling
}

// IdentName returns the identifier name, or "" for other kinds.
func (t Token) IdentName() string {
	if t.Ident == nil {
		return ""
	}
	return t.Ident.Name
}

// EndLoc returns the location just past the token.
func (t Token) EndLoc() source.Loc {
	return t.Loc.Offset(t.Length)
}

func (t Token) withFlags(set, clear Flags) Token {
	t.Flags = (t.Flags &^ clear) | set
	return t
}

// TokenWatcher observes every token the preprocessor produces.
type TokenWatcher func(Token)
