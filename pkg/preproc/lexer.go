package preproc

import (
	"bytes"

	"github.com/yaklabco/asmbridge/pkg/source"
)

// directiveNames lists the words that turn a '#' at line start into a
// directive. Any other '#' starts a comment.
var directiveNames = map[string]bool{
	"define":  true,
	"undef":   true,
	"include": true,
	"if":      true,
	"ifdef":   true,
	"ifndef":  true,
	"elif":    true,
	"else":    true,
	"endif":   true,
	"pragma":  true,
	"error":   true,
	"warning": true,
}

var multiCharPuncts = []string{"<<", ">>", "==", "!=", "<=", ">=", "&&", "||", "##"}

// condState tracks one level of #if nesting.
type condState struct {
	loc          source.Loc
	parentActive bool
	active       bool
	taken        bool
	sawElse      bool
}

// lexer produces raw tokens from one file buffer.
type lexer struct {
	fid  source.FileID
	base source.Loc
	src  []byte
	pos  int

	atLineStart bool
	sawSpace    bool

	// quiet lexers feed predefined macros and never reach the watcher.
	quiet bool

	peeked *Token
	conds  []condState

	// openComment is where a /* comment without its */ starts.
	openComment source.Loc
}

func newLexer(sm *source.Manager, fid source.FileID) *lexer {
	return &lexer{
		fid:         fid,
		base:        sm.FileStart(fid),
		src:         sm.File(fid).Content,
		atLineStart: true,
	}
}

func (l *lexer) loc(offset int) source.Loc {
	return l.base.Offset(offset)
}

// active reports whether tokens at the current position are live.
func (l *lexer) active() bool {
	if len(l.conds) == 0 {
		return true
	}
	return l.conds[len(l.conds)-1].active
}

func (l *lexer) peek(idents identTable) Token {
	if l.peeked == nil {
		tok := l.lex(idents)
		l.peeked = &tok
	}
	return *l.peeked
}

func (l *lexer) next(idents identTable) Token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.lex(idents)
}

// restOfLine returns the raw bytes from the current position to the end of
// the line and advances past them. A pending peeked token is included.
func (l *lexer) restOfLine() []byte {
	start := l.pos
	if l.peeked != nil {
		start = int(l.peeked.Loc - l.base)
		if l.peeked.IsAtStartOfLine() || l.peeked.Is(KindEOF) {
			return nil
		}
		l.peeked = nil
	}

	end := start
	for end < len(l.src) && l.src[end] != '\n' {
		if l.src[end] == '\\' && end+1 < len(l.src) && l.src[end+1] == '\n' {
			end += 2
			continue
		}
		end++
	}
	l.pos = end
	return bytes.TrimSpace(l.src[start:end])
}

// skipLine discards everything up to the next newline.
func (l *lexer) skipLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		char := l.src[l.pos]
		switch {
		case char == '\n':
			l.pos++
			l.atLineStart = true
			l.sawSpace = false
		case char == ' ' || char == '\t' || char == '\r' || char == '\f' || char == '\v':
			l.pos++
			l.sawSpace = true
		case char == '\\' && l.continuationAt(l.pos) > 0:
			l.pos += l.continuationAt(l.pos)
			l.sawSpace = true
		case char == '/' && l.at(l.pos+1) == '/':
			l.skipLine()
			l.sawSpace = true
		case char == '/' && l.at(l.pos+1) == '*':
			end := bytes.Index(l.src[l.pos+2:], []byte("*/"))
			if end < 0 {
				l.openComment = l.loc(l.pos)
				l.pos = len(l.src)
			} else {
				l.pos += end + 4
			}
			l.sawSpace = true
		case char == '#' && !(l.atLineStart && l.directiveAhead()):
			l.skipLine()
			l.sawSpace = true
		default:
			return
		}
	}
}

// directiveAhead reports whether the '#' at the current position is
// followed by a directive name.
func (l *lexer) directiveAhead() bool {
	pos := l.pos + 1
	for pos < len(l.src) && (l.src[pos] == ' ' || l.src[pos] == '\t') {
		pos++
	}
	start := pos
	for pos < len(l.src) && isIdentChar(l.src[pos]) {
		pos++
	}
	return directiveNames[string(l.src[start:pos])]
}

func (l *lexer) at(pos int) byte {
	if pos < 0 || pos >= len(l.src) {
		return 0
	}
	return l.src[pos]
}

// continuationAt returns the width of a backslash-newline at pos, or 0.
func (l *lexer) continuationAt(pos int) int {
	if l.at(pos) != '\\' {
		return 0
	}
	if l.at(pos+1) == '\n' {
		return 2
	}
	if l.at(pos+1) == '\r' && l.at(pos+2) == '\n' {
		return 3
	}
	return 0
}

func (l *lexer) lex(idents identTable) Token {
	l.skipTrivia()

	var flags Flags
	if l.atLineStart {
		flags |= StartOfLine
	}
	if l.sawSpace {
		flags |= LeadingSpace
	}

	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Loc: l.loc(len(l.src)), Flags: flags}
	}

	start := l.pos
	char := l.src[start]
	tok := Token{Loc: l.loc(start), Flags: flags}

	switch {
	case char == '#':
		l.pos++
		tok.Kind = KindHash
		tok.Punct = "#"
	case isIdentStart(char) || (char == '.' && isIdentChar(l.at(start+1))):
		cleaned := l.scanWhile(isIdentChar, &tok)
		tok.Kind = KindIdentifier
		tok.Ident = idents.get(cleaned)
	case isDigit(char):
		l.scanWhile(isIdentChar, &tok)
		tok.Kind = KindNumber
		tok.Literal = l.src[start:l.pos]
	case char == '"' || char == '\'':
		l.scanQuoted(char)
		tok.Kind = KindString
		if char == '\'' {
			tok.Kind = KindChar
		}
		tok.Literal = l.src[start:l.pos]
	default:
		tok.Kind = KindPunct
		tok.Punct = l.scanPunct()
		if char >= 0x80 {
			tok.Kind = KindUnknown
		}
	}

	tok.Length = l.pos - start
	l.atLineStart = false
	l.sawSpace = false

	return tok
}

// scanWhile consumes characters matching pred, skipping line continuations,
// and returns the cleaned spelling.
func (l *lexer) scanWhile(pred func(byte) bool, tok *Token) string {
	var cleaned []byte
	for l.pos < len(l.src) {
		if width := l.continuationAt(l.pos); width > 0 && pred(l.at(l.pos+width)) {
			tok.Flags |= NeedsCleaning
			l.pos += width
			continue
		}
		if !pred(l.src[l.pos]) {
			break
		}
		cleaned = append(cleaned, l.src[l.pos])
		l.pos++
	}
	return string(cleaned)
}

func (l *lexer) scanQuoted(quote byte) {
	l.pos++
	for l.pos < len(l.src) {
		char := l.src[l.pos]
		switch {
		case char == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
		case char == quote:
			l.pos++
			return
		case char == '\n':
			return
		default:
			l.pos++
		}
	}
}

func (l *lexer) scanPunct() string {
	for _, punct := range multiCharPuncts {
		if bytes.HasPrefix(l.src[l.pos:], []byte(punct)) {
			l.pos += len(punct)
			return punct
		}
	}
	l.pos++
	return string(l.src[l.pos-1])
}

func isIdentStart(char byte) bool {
	return char == '_' || char == '$' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

func isIdentChar(char byte) bool {
	return isIdentStart(char) || isDigit(char) || char == '.' || char == '@'
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

// identTable interns identifier payloads per preprocessor.
type identTable map[string]*Identifier

func (t identTable) get(name string) *Identifier {
	if ident, ok := t[name]; ok {
		return ident
	}
	ident := &Identifier{Name: name}
	t[name] = ident
	return ident
}
