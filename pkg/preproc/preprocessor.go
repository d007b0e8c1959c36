package preproc

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/source"
)

// ErrIncludeNotFound is returned when an #include cannot be resolved.
var ErrIncludeNotFound = errors.New("include file not found")

// ErrIncludeDepth is returned when includes nest too deeply.
var ErrIncludeDepth = errors.New("include nested too deeply")

const maxIncludeDepth = 200

// Severity of a front-end diagnostic.
type Severity int

// Front-end severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// Diagnostic is a problem reported by the preprocessor itself.
type Diagnostic struct {
	Loc      source.Loc
	Severity Severity
	Message  string
}

// Callbacks receives preprocessing events. Embed NopCallbacks to implement
// only the events of interest.
type Callbacks interface {
	MacroDefined(nameTok Token, mi *MacroInfo)
	MacroUndefined(nameTok Token)
	MacroExpands(nameTok Token, mi *MacroInfo)
	InclusionDirective(hashLoc source.Loc, spelled string, angled bool, path string)
}

// NopCallbacks implements Callbacks with no-op methods.
type NopCallbacks struct{}

// MacroDefined implements Callbacks.
func (NopCallbacks) MacroDefined(Token, *MacroInfo) {}

// MacroUndefined implements Callbacks.
func (NopCallbacks) MacroUndefined(Token) {}

// MacroExpands implements Callbacks.
func (NopCallbacks) MacroExpands(Token, *MacroInfo) {}

// InclusionDirective implements Callbacks.
func (NopCallbacks) InclusionDirective(source.Loc, string, bool, string) {}

// Options configures a preprocessor.
type Options struct {
	// FS resolves #include paths. A nil FS makes every include fail.
	FS fs.FS

	// IncludeDirs are searched after the including file's directory.
	IncludeDirs []string

	// Defines are predefined macros in NAME or NAME=VALUE form.
	Defines []string
}

// Preprocessor turns a main file into a stream of expansion-level tokens.
type Preprocessor struct {
	sm   *source.Manager
	opts Options

	idents identTable
	macros map[string]*MacroInfo

	watcher   TokenWatcher
	callbacks []Callbacks

	lexers  []*lexer
	pending []Token

	diags []Diagnostic
	fatal error
}

// New creates a preprocessor over the manager's buffers.
func New(sm *source.Manager, opts Options) *Preprocessor {
	return &Preprocessor{
		sm:     sm,
		opts:   opts,
		idents: identTable{},
		macros: map[string]*MacroInfo{},
	}
}

// SourceManager returns the manager the preprocessor reads from.
func (p *Preprocessor) SourceManager() *source.Manager { return p.sm }

// SetTokenWatcher installs the token observer, replacing any previous one.
func (p *Preprocessor) SetTokenWatcher(w TokenWatcher) { p.watcher = w }

// TakeTokenWatcher removes and returns the installed observer.
func (p *Preprocessor) TakeTokenWatcher() TokenWatcher {
	w := p.watcher
	p.watcher = nil
	return w
}

// AddCallbacks registers an event receiver.
func (p *Preprocessor) AddCallbacks(cb Callbacks) {
	p.callbacks = append(p.callbacks, cb)
}

// Macro returns the current definition of name, if any.
func (p *Preprocessor) Macro(name string) (*MacroInfo, bool) {
	mi, ok := p.macros[name]
	return mi, ok
}

// Diagnostics returns the non-fatal problems seen so far.
func (p *Preprocessor) Diagnostics() []Diagnostic { return p.diags }

// Err returns the fatal error that stopped preprocessing, if any.
func (p *Preprocessor) Err() error { return p.fatal }

// EnterMainFile starts lexing the source manager's main file. Predefined
// macros are processed first.
func (p *Preprocessor) EnterMainFile() error {
	main := p.sm.MainFile()
	if p.sm.File(main) == nil {
		return errors.New("no main file set")
	}
	p.lexers = append(p.lexers, newLexer(p.sm, main))

	if len(p.opts.Defines) > 0 {
		var predefs strings.Builder
		for _, def := range p.opts.Defines {
			name, value, _ := strings.Cut(def, "=")
			if value == "" && !strings.Contains(def, "=") {
				value = "1"
			}
			fmt.Fprintf(&predefs, "#define %s %s\n", name, value)
		}
		fid := p.sm.AddFile("<command line>", []byte(predefs.String()), 0)
		lex := newLexer(p.sm, fid)
		lex.quiet = true
		p.lexers = append(p.lexers, lex)
	}
	return nil
}

// Spelling returns the text of a token, with line continuations removed.
func (p *Preprocessor) Spelling(tok Token) string {
	switch {
	case tok.Ident != nil:
		return tok.Ident.Name
	case tok.Kind == KindPunct || tok.Kind == KindHash:
		return tok.Punct
	case tok.Kind == KindEOF || tok.Kind == KindEOD || tok.Kind == KindAnnotation:
		return ""
	}

	text, err := p.sm.CharacterData(tok.Loc, tok.Length)
	if err != nil {
		return ""
	}
	if tok.NeedsCleaning() {
		text = strings.NewReplacer("\\\r\n", "", "\\\n", "").Replace(text)
	}
	return text
}

// Lex returns the next expansion-level token. Every token except EOF is
// reported to the watcher first.
func (p *Preprocessor) Lex() Token {
	for {
		if len(p.pending) > 0 {
			tok := p.pending[0]
			p.pending = p.pending[1:]
			p.deliver(tok)
			return tok
		}

		if len(p.lexers) == 0 || p.fatal != nil {
			return Token{Kind: KindEOF, Flags: StartOfLine}
		}

		lex := p.lexers[len(p.lexers)-1]
		tok := lex.next(p.idents)

		switch {
		case tok.Is(KindEOF):
			if lex.openComment.IsValid() {
				p.warnf(lex.openComment, "unterminated /* comment")
			}
			for _, cond := range lex.conds {
				p.errorf(cond.loc, "unterminated conditional directive")
			}
			p.lexers = p.lexers[:len(p.lexers)-1]
			continue
		case tok.Is(KindHash) && tok.IsAtStartOfLine():
			p.handleDirective(lex, tok)
			continue
		case tok.Is(KindIdentifier) && tok.IsAtStartOfLine() && isAsmDirective(tok.IdentName()):
			p.handleAsmDirective(lex, tok)
			continue
		case !lex.active():
			continue
		}

		if mi := p.macroFor(tok, nil); mi != nil {
			expanded, ok := p.expandMacro(mi, tok, lexerStream{lex: lex, idents: p.idents}, nil, 0)
			if ok {
				p.pending = append(p.pending, expanded...)
				continue
			}
		}

		if lex.quiet {
			continue
		}
		p.deliver(tok)
		return tok
	}
}

func (p *Preprocessor) deliver(tok Token) {
	if p.watcher != nil {
		p.watcher(tok)
	}
}

// endDirective reports the end-of-directive marker for a directive line.
func (p *Preprocessor) endDirective(lex *lexer) {
	if lex.quiet {
		return
	}
	p.deliver(Token{Kind: KindEOD, Loc: lex.loc(lex.pos)})
}

func (p *Preprocessor) errorf(loc source.Loc, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Loc: loc, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (p *Preprocessor) warnf(loc source.Loc, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Loc: loc, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}
