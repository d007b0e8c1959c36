package preproc

import (
	"github.com/yaklabco/asmbridge/pkg/source"
)

// MacroKind distinguishes the macro flavors the preprocessor expands.
type MacroKind int

// Macro kinds.
const (
	MacroObject MacroKind = iota
	MacroFunction
	MacroAsm
)

// String returns a short name for the kind.
func (k MacroKind) String() string {
	switch k {
	case MacroObject:
		return "object"
	case MacroFunction:
		return "function"
	case MacroAsm:
		return "asm"
	default:
		return "unknown"
	}
}

// MacroInfo describes one macro definition.
type MacroInfo struct {
	Name     string
	Kind     MacroKind
	Params   []string
	Defaults map[string][]Token
	Body     []Token
	DefLoc   source.Loc
}

func (mi *MacroInfo) paramIndex(name string) int {
	for i, param := range mi.Params {
		if param == name {
			return i
		}
	}
	return -1
}

// tokenStream is the source of macro arguments: either the live lexer or
// a slice of already produced tokens.
type tokenStream interface {
	peek() Token
	next() Token
}

type lexerStream struct {
	lex    *lexer
	idents identTable
}

func (s lexerStream) peek() Token { return s.lex.peek(s.idents) }
func (s lexerStream) next() Token { return s.lex.next(s.idents) }

type sliceStream struct {
	toks []Token
	pos  int
}

func (s *sliceStream) peek() Token {
	if s.pos >= len(s.toks) {
		return Token{Kind: KindEOF}
	}
	return s.toks[s.pos]
}

func (s *sliceStream) next() Token {
	tok := s.peek()
	if s.pos < len(s.toks) {
		s.pos++
	}
	return tok
}

// maxExpansionDepth bounds nested macro expansion.
const maxExpansionDepth = 64

// expandMacro expands the macro named by nameTok, reading any arguments
// from stream, and returns the fully expanded replacement tokens.
func (p *Preprocessor) expandMacro(mi *MacroInfo, nameTok Token, stream tokenStream, disabled map[string]bool, depth int) ([]Token, bool) {
	var (
		args [][]Token
		end  = nameTok.EndLoc()
	)

	switch mi.Kind {
	case MacroFunction:
		if !stream.peek().IsPunct("(") {
			return nil, false
		}
		var ok bool
		args, end, ok = p.collectParenArgs(stream)
		if !ok {
			p.errorf(nameTok.Loc, "unterminated function-like macro invocation '%s'", mi.Name)
			return nil, true
		}
		if len(args) == 1 && len(args[0]) == 0 && len(mi.Params) == 0 {
			args = nil
		}
		if len(args) != len(mi.Params) {
			p.errorf(nameTok.Loc, "macro '%s' expects %d arguments, got %d", mi.Name, len(mi.Params), len(args))
			return nil, true
		}
	case MacroAsm:
		args, end = collectLineArgs(stream, nameTok)
		if len(args) > len(mi.Params) {
			p.errorf(nameTok.Loc, "too many positional arguments for macro '%s'", mi.Name)
			args = args[:len(mi.Params)]
		}
	}

	for _, cb := range p.callbacks {
		cb.MacroExpands(nameTok, mi)
	}

	// Arguments of C macros are fully expanded before substitution.
	if mi.Kind == MacroFunction {
		for i := range args {
			args[i] = p.expandList(args[i], disabled, depth+1)
		}
	}

	body := p.substitute(mi, args)

	replaced := make([]Token, 0, len(body))
	for i, tok := range body {
		tok.Loc = p.sm.CreateExpansion(tok.Loc, nameTok.Loc, end, tok.Length)
		if i == 0 {
			tok = tok.withFlags(nameTok.Flags&(StartOfLine|LeadingSpace), StartOfLine|LeadingSpace)
		}
		replaced = append(replaced, tok)
	}

	inner := make(map[string]bool, len(disabled)+1)
	for name := range disabled {
		inner[name] = true
	}
	inner[mi.Name] = true

	return p.expandList(replaced, inner, depth+1), true
}

// substitute replaces parameter references in the body with arguments.
func (p *Preprocessor) substitute(mi *MacroInfo, args [][]Token) []Token {
	if len(mi.Params) == 0 {
		return append([]Token(nil), mi.Body...)
	}

	argFor := func(idx int) []Token {
		if idx < len(args) && len(args[idx]) > 0 {
			return args[idx]
		}
		return mi.Defaults[mi.Params[idx]]
	}

	out := make([]Token, 0, len(mi.Body))
	for i := 0; i < len(mi.Body); i++ {
		tok := mi.Body[i]
		ref := tok

		idx := -1
		switch mi.Kind {
		case MacroFunction:
			if tok.Is(KindIdentifier) {
				idx = mi.paramIndex(tok.IdentName())
			}
		case MacroAsm:
			// GAS parameters are referenced as \name.
			if tok.IsPunct("\\") && i+1 < len(mi.Body) {
				nextTok := mi.Body[i+1]
				if nextTok.Is(KindIdentifier) && !nextTok.HasLeadingSpace() {
					idx = mi.paramIndex(nextTok.IdentName())
					if idx >= 0 {
						i++
					}
				}
			}
		}

		if idx < 0 {
			out = append(out, tok)
			continue
		}

		for j, argTok := range argFor(idx) {
			if j == 0 {
				argTok = argTok.withFlags(ref.Flags&(StartOfLine|LeadingSpace), StartOfLine|LeadingSpace)
			} else {
				argTok = argTok.withFlags(0, StartOfLine)
			}
			out = append(out, argTok)
		}
	}
	return out
}

// expandList rescans produced tokens for further macro uses.
func (p *Preprocessor) expandList(toks []Token, disabled map[string]bool, depth int) []Token {
	if depth > maxExpansionDepth {
		if len(toks) > 0 {
			p.errorf(toks[0].Loc, "macro expansion nested too deeply")
		}
		return toks
	}

	stream := &sliceStream{toks: toks}
	out := make([]Token, 0, len(toks))

	for stream.pos < len(stream.toks) {
		tok := stream.next()

		mi := p.macroFor(tok, disabled)
		if mi == nil {
			out = append(out, tok)
			continue
		}

		expanded, ok := p.expandMacro(mi, tok, stream, disabled, depth)
		if !ok {
			out = append(out, tok)
			continue
		}
		out = append(out, expanded...)
	}
	return out
}

// macroFor returns the macro a token invokes, or nil.
func (p *Preprocessor) macroFor(tok Token, disabled map[string]bool) *MacroInfo {
	if !tok.Is(KindIdentifier) || disabled[tok.IdentName()] {
		return nil
	}

	mi, ok := p.macros[tok.IdentName()]
	if !ok {
		return nil
	}
	if mi.Kind == MacroAsm && !tok.IsAtStartOfLine() {
		return nil
	}
	return mi
}

// collectParenArgs reads a parenthesized, comma separated argument list.
func (p *Preprocessor) collectParenArgs(stream tokenStream) ([][]Token, source.Loc, bool) {
	open := stream.next()
	end := open.EndLoc()

	args := [][]Token{{}}
	depth := 0

	for {
		tok := stream.peek()
		if tok.Is(KindEOF) || tok.Is(KindHash) {
			return nil, end, false
		}
		stream.next()
		end = tok.EndLoc()

		switch {
		case tok.IsPunct("(") || tok.IsPunct("["):
			depth++
		case (tok.IsPunct(")") || tok.IsPunct("]")) && depth > 0:
			depth--
		case tok.IsPunct(")"):
			return args, end, true
		case tok.IsPunct(",") && depth == 0:
			args = append(args, []Token{})
			continue
		}
		args[len(args)-1] = append(args[len(args)-1], tok)
	}
}

// collectLineArgs reads GAS macro arguments up to the end of the line.
// Arguments are separated by commas, or by whitespace outside parentheses.
func collectLineArgs(stream tokenStream, nameTok Token) ([][]Token, source.Loc) {
	end := nameTok.EndLoc()

	var (
		args      [][]Token
		current   []Token
		depth     int
		lastComma = true
	)

	flush := func() {
		if current != nil {
			args = append(args, current)
			current = nil
		}
	}

	for {
		tok := stream.peek()
		if tok.Is(KindEOF) || tok.IsAtStartOfLine() || tok.Is(KindHash) || tok.IsPunct(";") {
			break
		}
		stream.next()
		end = tok.EndLoc()

		switch {
		case tok.IsPunct(","):
			if depth == 0 {
				flush()
				lastComma = true
				continue
			}
		case tok.IsPunct("("):
			depth++
		case tok.IsPunct(")") && depth > 0:
			depth--
		}

		if depth == 0 && tok.HasLeadingSpace() && !lastComma && current != nil {
			flush()
		}
		current = append(current, tok)
		lastComma = false
	}
	flush()

	return args, end
}
