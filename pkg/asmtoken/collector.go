package asmtoken

import (
	"errors"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/preproc"
)

// ErrConsumed is returned when a collector is consumed twice.
var ErrConsumed = errors.New("token collector already consumed")

// Speller renders tokens that carry neither identifier nor literal text.
type Speller interface {
	Spelling(tok preproc.Token) string
}

// WatcherHost is the preprocessor surface the collector attaches to.
type WatcherHost interface {
	Speller
	SetTokenWatcher(w preproc.TokenWatcher)
}

// Collector builds a Buffer from the tokens a preprocessor reports.
type Collector struct {
	speller Speller
	next    preproc.TokenWatcher

	tokens  []ExpandedToken
	offsets []int
	text    strings.Builder

	consumed bool
}

// NewCollector installs a collector as host's token watcher. Every
// collected token is passed on to next, which may be nil.
func NewCollector(host WatcherHost, next preproc.TokenWatcher) *Collector {
	c := &Collector{speller: host, next: next}
	host.SetTokenWatcher(c.Observe)
	return c
}

// Observe handles one token. It is the installed watcher.
func (c *Collector) Observe(tok preproc.Token) {
	if c.consumed {
		return
	}

	if tok.IsAnnotation() {
		return
	}

	// The preprocessor reports an end-of-directive marker after every
	// directive line. Strict tokenizers never reproduce it, so it has no
	// place in the buffer.
	if tok.Is(preproc.KindEOD) {
		return
	}

	if tok.IsAtStartOfLine() {
		c.text.WriteByte('\n')
	}
	if tok.HasLeadingSpace() {
		c.text.WriteByte(' ')
	}

	var text string
	switch {
	case tok.Ident != nil:
		text = tok.Ident.Name
	case tok.IsLiteral() && !tok.NeedsCleaning() && tok.Literal != nil:
		text = string(tok.Literal)
	default:
		text = c.speller.Spelling(tok)
	}

	c.offsets = append(c.offsets, c.text.Len())
	c.text.WriteString(text)
	c.tokens = append(c.tokens, NewExpandedToken(tok, text))

	if c.next != nil {
		c.next(tok)
	}
}

// Consume finalizes collection and hands over the buffer. The collector
// ignores tokens afterwards and a second call returns ErrConsumed.
func (c *Collector) Consume() (*Buffer, error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	c.consumed = true

	buf := NewBuffer(c.tokens, c.offsets, c.text.String())
	c.tokens, c.offsets = nil, nil
	c.text.Reset()

	return buf, nil
}
