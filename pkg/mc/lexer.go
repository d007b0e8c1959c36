package mc

import (
	"strconv"
	"strings"
)

// TokenKind classifies assembly lexer tokens.
type TokenKind int

// Assembly token kinds.
const (
	TokEOF TokenKind = iota
	TokEndOfStatement
	TokIdentifier
	TokInteger
	TokString
	TokComma
	TokLParen
	TokRParen
	TokLBrac
	TokRBrac
	TokColon
	TokEqual
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
	TokAmp
	TokPipe
	TokCaret
	TokTilde
	TokExclaim
	TokLessLess
	TokGreaterGreater
	TokLess
	TokGreater
	TokDot
	TokError
)

// AsmToken is one lexed assembly token.
type AsmToken struct {
	Kind   TokenKind
	Text   string
	Loc    SMLoc
	IntVal int64
}

// Is reports whether the token has the given kind.
func (t AsmToken) Is(kind TokenKind) bool { return t.Kind == kind }

// EndLoc returns the location just past the token.
func (t AsmToken) EndLoc() SMLoc { return t.Loc.Advance(len(t.Text)) }

// StringContents returns a string token without its quotes.
func (t AsmToken) StringContents() string {
	if len(t.Text) >= 2 {
		return t.Text[1 : len(t.Text)-1]
	}
	return ""
}

var punctKinds = map[byte]TokenKind{
	',': TokComma,
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBrac,
	']': TokRBrac,
	':': TokColon,
	'=': TokEqual,
	'+': TokPlus,
	'-': TokMinus,
	'*': TokStar,
	'/': TokSlash,
	'%': TokPercent,
	'&': TokAmp,
	'|': TokPipe,
	'^': TokCaret,
	'~': TokTilde,
	'!': TokExclaim,
	'<': TokLess,
	'>': TokGreater,
	'.': TokDot,
}

// AsmLexer tokenizes one SourceMgr buffer.
type AsmLexer struct {
	buf       BufferID
	text      string
	pos       int
	comment   string
	separator string

	cur  AsmToken
	peek *AsmToken
}

// NewAsmLexer creates a lexer positioned before the first token.
func NewAsmLexer(sm *SourceMgr, buf BufferID, mai *AsmInfo) *AsmLexer {
	lex := &AsmLexer{buf: buf, text: sm.Buffer(buf), comment: "#", separator: ";"}
	if mai != nil {
		if mai.CommentString != "" {
			lex.comment = mai.CommentString
		}
		if mai.SeparatorString != "" {
			lex.separator = mai.SeparatorString
		}
	}
	lex.Lex()
	return lex
}

// Tok returns the current token.
func (l *AsmLexer) Tok() AsmToken { return l.cur }

// Is reports whether the current token has the given kind.
func (l *AsmLexer) Is(kind TokenKind) bool { return l.cur.Kind == kind }

// Peek returns the token after the current one.
func (l *AsmLexer) Peek() AsmToken {
	if l.peek == nil {
		tok := l.scan()
		l.peek = &tok
	}
	return *l.peek
}

// Lex advances to the next token and returns it.
func (l *AsmLexer) Lex() AsmToken {
	if l.peek != nil {
		l.cur = *l.peek
		l.peek = nil
	} else {
		l.cur = l.scan()
	}
	return l.cur
}

func (l *AsmLexer) loc(offset int) SMLoc {
	return SMLoc{Buffer: l.buf, Offset: offset}
}

func (l *AsmLexer) scan() AsmToken {
	for l.pos < len(l.text) {
		char := l.text[l.pos]
		if char == ' ' || char == '\t' || char == '\r' {
			l.pos++
			continue
		}
		if strings.HasPrefix(l.text[l.pos:], l.comment) {
			for l.pos < len(l.text) && l.text[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}

	start := l.pos
	if start >= len(l.text) {
		return AsmToken{Kind: TokEOF, Loc: l.loc(start)}
	}

	char := l.text[start]
	switch {
	case char == '\n' || strings.HasPrefix(l.text[start:], l.separator):
		width := 1
		if char != '\n' {
			width = len(l.separator)
		}
		l.pos += width
		return AsmToken{Kind: TokEndOfStatement, Text: l.text[start:l.pos], Loc: l.loc(start)}
	case isAsmIdentStart(char) || (char == '.' && l.pos+1 < len(l.text) && isAsmIdentChar(l.text[l.pos+1])):
		l.pos++
		for l.pos < len(l.text) && isAsmIdentChar(l.text[l.pos]) {
			l.pos++
		}
		return AsmToken{Kind: TokIdentifier, Text: l.text[start:l.pos], Loc: l.loc(start)}
	case char >= '0' && char <= '9':
		for l.pos < len(l.text) && isAsmIdentChar(l.text[l.pos]) && l.text[l.pos] != '.' {
			l.pos++
		}
		text := l.text[start:l.pos]
		tok := AsmToken{Kind: TokInteger, Text: text, Loc: l.loc(start)}
		if value, err := strconv.ParseInt(text, 0, 64); err == nil {
			tok.IntVal = value
		} else if uvalue, uerr := strconv.ParseUint(text, 0, 64); uerr == nil {
			tok.IntVal = int64(uvalue)
		} else if !isLocalLabelRef(text) {
			tok.Kind = TokError
		}
		return tok
	case char == '"':
		l.pos++
		for l.pos < len(l.text) && l.text[l.pos] != '"' && l.text[l.pos] != '\n' {
			if l.text[l.pos] == '\\' {
				l.pos++
			}
			l.pos++
		}
		if l.pos < len(l.text) && l.text[l.pos] == '"' {
			l.pos++
			return AsmToken{Kind: TokString, Text: l.text[start:l.pos], Loc: l.loc(start)}
		}
		return AsmToken{Kind: TokError, Text: l.text[start:l.pos], Loc: l.loc(start)}
	case strings.HasPrefix(l.text[start:], "<<"):
		l.pos += 2
		return AsmToken{Kind: TokLessLess, Text: "<<", Loc: l.loc(start)}
	case strings.HasPrefix(l.text[start:], ">>"):
		l.pos += 2
		return AsmToken{Kind: TokGreaterGreater, Text: ">>", Loc: l.loc(start)}
	}

	l.pos++
	if kind, ok := punctKinds[char]; ok {
		return AsmToken{Kind: kind, Text: l.text[start:l.pos], Loc: l.loc(start)}
	}
	return AsmToken{Kind: TokError, Text: l.text[start:l.pos], Loc: l.loc(start)}
}

// isLocalLabelRef matches references such as 1b and 2f.
func isLocalLabelRef(text string) bool {
	if len(text) < 2 {
		return false
	}
	suffix := text[len(text)-1]
	if suffix != 'b' && suffix != 'f' {
		return false
	}
	_, err := strconv.Atoi(text[:len(text)-1])
	return err == nil
}

func isAsmIdentStart(char byte) bool {
	return char == '_' || char == '$' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

func isAsmIdentChar(char byte) bool {
	return isAsmIdentStart(char) || (char >= '0' && char <= '9') || char == '.' || char == '@'
}
