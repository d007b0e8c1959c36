package preproc

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

var asmDirectives = map[string]bool{
	".macro":    true,
	".endm":     true,
	".endmacro": true,
	".include":  true,
	".purgem":   true,
}

func isAsmDirective(name string) bool {
	return asmDirectives[strings.ToLower(name)]
}

// lineTokens reads the remaining tokens of the current line.
func (p *Preprocessor) lineTokens(lex *lexer) []Token {
	var toks []Token
	for {
		tok := lex.peek(p.idents)
		if tok.Is(KindEOF) || tok.IsAtStartOfLine() {
			return toks
		}
		toks = append(toks, lex.next(p.idents))
	}
}

func (p *Preprocessor) handleDirective(lex *lexer, hash Token) {
	nameTok := lex.peek(p.idents)
	if nameTok.Is(KindEOF) || nameTok.IsAtStartOfLine() {
		p.endDirective(lex)
		return
	}
	lex.next(p.idents)
	name := nameTok.IdentName()

	switch name {
	case "if", "ifdef", "ifndef", "elif", "else", "endif":
		p.handleConditional(lex, hash, name)
		p.endDirective(lex)
		return
	}

	if !lex.active() {
		lex.restOfLine()
		p.endDirective(lex)
		return
	}

	switch name {
	case "define":
		p.handleDefine(lex)
	case "undef":
		p.handleUndef(lex)
	case "include":
		p.handleInclude(lex, hash, false)
		return
	case "pragma":
		lex.restOfLine()
		if !lex.quiet {
			p.deliver(Token{Kind: KindAnnotation, Loc: hash.Loc})
		}
	case "error":
		p.errorf(hash.Loc, "#error %s", lex.restOfLine())
	case "warning":
		p.warnf(hash.Loc, "#warning %s", lex.restOfLine())
	}

	lex.restOfLine()
	p.endDirective(lex)
}

func (p *Preprocessor) handleDefine(lex *lexer) {
	toks := p.lineTokens(lex)
	if len(toks) == 0 || !toks[0].Is(KindIdentifier) {
		p.errorf(lex.loc(lex.pos), "macro name must be an identifier")
		return
	}

	nameTok := toks[0]
	mi := &MacroInfo{Name: nameTok.IdentName(), Kind: MacroObject, DefLoc: nameTok.Loc}
	rest := toks[1:]

	if len(rest) > 0 && rest[0].IsPunct("(") && !rest[0].HasLeadingSpace() {
		mi.Kind = MacroFunction
		closed := false
		idx := 1
		for ; idx < len(rest); idx++ {
			tok := rest[idx]
			if tok.IsPunct(")") {
				closed = true
				idx++
				break
			}
			if tok.IsPunct(",") {
				continue
			}
			if !tok.Is(KindIdentifier) {
				p.errorf(tok.Loc, "invalid token in macro parameter list")
				return
			}
			mi.Params = append(mi.Params, tok.IdentName())
		}
		if !closed {
			p.errorf(nameTok.Loc, "missing ')' in macro parameter list")
			return
		}
		rest = rest[idx:]
	}

	mi.Body = rest
	if len(mi.Body) > 0 {
		mi.Body[0] = mi.Body[0].withFlags(0, StartOfLine)
	}

	p.macros[mi.Name] = mi
	if !lex.quiet {
		for _, cb := range p.callbacks {
			cb.MacroDefined(nameTok, mi)
		}
	}
}

func (p *Preprocessor) handleUndef(lex *lexer) {
	toks := p.lineTokens(lex)
	if len(toks) == 0 || !toks[0].Is(KindIdentifier) {
		p.errorf(lex.loc(lex.pos), "macro name must be an identifier")
		return
	}

	delete(p.macros, toks[0].IdentName())
	for _, cb := range p.callbacks {
		cb.MacroUndefined(toks[0])
	}
}

func (p *Preprocessor) handleConditional(lex *lexer, hash Token, name string) {
	switch name {
	case "if", "ifdef", "ifndef":
		parent := lex.active()
		value := false
		if parent {
			value = p.evalCondition(name, p.lineTokens(lex))
		}
		lex.restOfLine()
		lex.conds = append(lex.conds, condState{
			loc:          hash.Loc,
			parentActive: parent,
			active:       parent && value,
			taken:        value,
		})
		return
	}

	if len(lex.conds) == 0 {
		p.errorf(hash.Loc, "#%s without #if", name)
		lex.restOfLine()
		return
	}

	top := &lex.conds[len(lex.conds)-1]
	switch name {
	case "elif":
		if top.sawElse {
			p.errorf(hash.Loc, "#elif after #else")
		}
		value := false
		if top.parentActive && !top.taken {
			value = p.evalCondition("if", p.lineTokens(lex))
		}
		top.active = top.parentActive && !top.taken && value
		top.taken = top.taken || value
	case "else":
		if top.sawElse {
			p.errorf(hash.Loc, "#else after #else")
		}
		top.active = top.parentActive && !top.taken
		top.taken = true
		top.sawElse = true
	case "endif":
		lex.conds = lex.conds[:len(lex.conds)-1]
	}
	lex.restOfLine()
}

func (p *Preprocessor) evalCondition(kind string, toks []Token) bool {
	switch kind {
	case "ifdef", "ifndef":
		if len(toks) == 0 || !toks[0].Is(KindIdentifier) {
			if len(toks) > 0 {
				p.errorf(toks[0].Loc, "macro name must be an identifier")
			}
			return false
		}
		_, defined := p.macros[toks[0].IdentName()]
		return defined == (kind == "ifdef")
	}

	eval := condEvaluator{p: p, toks: toks}
	value := eval.parseOr()
	if eval.pos < len(toks) {
		p.errorf(toks[eval.pos].Loc, "token is not a valid binary operator in a preprocessor subexpression")
	}
	return value != 0
}

// handleInclude processes #include and .include.
func (p *Preprocessor) handleInclude(lex *lexer, hash Token, asm bool) {
	raw := lex.restOfLine()
	p.endDirective(lex)

	if !lex.active() {
		return
	}

	spelled, angled, ok := parseIncludeName(raw)
	if !ok || (asm && angled) {
		p.errorf(hash.Loc, "expected \"FILENAME\" or <FILENAME>")
		return
	}

	if len(p.lexers) >= maxIncludeDepth {
		p.fatal = fmt.Errorf("%w: %s", ErrIncludeDepth, spelled)
		return
	}

	current := p.sm.File(lex.fid)
	resolved, content, err := p.resolveInclude(current.Name, spelled, angled)
	if err != nil {
		p.errorf(hash.Loc, "'%s' file not found", spelled)
		p.fatal = err
		return
	}

	for _, cb := range p.callbacks {
		cb.InclusionDirective(hash.Loc, spelled, angled, resolved)
	}

	fid := p.sm.AddFile(resolved, content, hash.Loc)
	p.lexers = append(p.lexers, newLexer(p.sm, fid))
}

func parseIncludeName(raw []byte) (string, bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) < 2 {
		return "", false, false
	}

	switch raw[0] {
	case '"':
		if end := bytes.IndexByte(raw[1:], '"'); end >= 0 {
			return string(raw[1 : end+1]), false, true
		}
	case '<':
		if end := bytes.IndexByte(raw[1:], '>'); end >= 0 {
			return string(raw[1 : end+1]), true, true
		}
	}
	return "", false, false
}

func (p *Preprocessor) resolveInclude(from, spelled string, angled bool) (string, []byte, error) {
	if p.opts.FS == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrIncludeNotFound, spelled)
	}

	var candidates []string
	if path.IsAbs(spelled) {
		candidates = append(candidates, spelled)
	} else {
		if !angled {
			candidates = append(candidates, path.Join(path.Dir(from), spelled))
		}
		for _, dir := range p.opts.IncludeDirs {
			candidates = append(candidates, path.Join(dir, spelled))
		}
	}

	for _, candidate := range candidates {
		fsPath := strings.TrimPrefix(path.Clean(candidate), "/")
		if !fs.ValidPath(fsPath) {
			continue
		}
		content, err := fs.ReadFile(p.opts.FS, fsPath)
		if err == nil {
			return candidate, content, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrIncludeNotFound, spelled)
}

// handleAsmDirective processes GAS macro and include directives at line
// start.
func (p *Preprocessor) handleAsmDirective(lex *lexer, dirTok Token) {
	name := strings.ToLower(dirTok.IdentName())

	if !lex.active() {
		lex.restOfLine()
		p.endDirective(lex)
		return
	}

	switch name {
	case ".include":
		p.handleInclude(lex, dirTok, true)
		return
	case ".macro":
		p.handleAsmMacro(lex, dirTok)
	case ".purgem":
		toks := p.lineTokens(lex)
		if len(toks) > 0 {
			if mi, ok := p.macros[toks[0].IdentName()]; ok && mi.Kind == MacroAsm {
				delete(p.macros, mi.Name)
				for _, cb := range p.callbacks {
					cb.MacroUndefined(toks[0])
				}
			}
		}
	case ".endm", ".endmacro":
		p.errorf(dirTok.Loc, "unexpected '%s' in file, no current macro definition", dirTok.IdentName())
	}

	lex.restOfLine()
	p.endDirective(lex)
}

func (p *Preprocessor) handleAsmMacro(lex *lexer, dirTok Token) {
	header := p.lineTokens(lex)
	if len(header) == 0 || !header[0].Is(KindIdentifier) {
		p.errorf(dirTok.Loc, "expected identifier in '.macro' directive")
		p.skipAsmMacroBody(lex)
		return
	}

	nameTok := header[0]
	mi := &MacroInfo{
		Name:     nameTok.IdentName(),
		Kind:     MacroAsm,
		DefLoc:   nameTok.Loc,
		Defaults: map[string][]Token{},
	}

	for i := 1; i < len(header); i++ {
		tok := header[i]
		switch {
		case tok.IsPunct(","):
			continue
		case tok.Is(KindIdentifier):
			mi.Params = append(mi.Params, tok.IdentName())
		case tok.IsPunct("=") && len(mi.Params) > 0:
			param := mi.Params[len(mi.Params)-1]
			for i+1 < len(header) && !header[i+1].IsPunct(",") {
				i++
				mi.Defaults[param] = append(mi.Defaults[param], header[i])
			}
		case tok.IsPunct(":") && i+1 < len(header):
			// Qualifiers such as :req are accepted and ignored.
			i++
		default:
			p.errorf(tok.Loc, "expected identifier in '.macro' directive")
		}
	}

	body, ok := p.skipAsmMacroBody(lex)
	if !ok {
		p.errorf(dirTok.Loc, "no matching '.endmacro' in definition")
		return
	}

	mi.Body = body
	p.macros[mi.Name] = mi
	for _, cb := range p.callbacks {
		cb.MacroDefined(nameTok, mi)
	}
}

// skipAsmMacroBody reads the body of a .macro up to its matching .endm,
// which is consumed.
func (p *Preprocessor) skipAsmMacroBody(lex *lexer) ([]Token, bool) {
	var body []Token
	depth := 0

	for {
		tok := lex.next(p.idents)
		switch {
		case tok.Is(KindEOF):
			lex.peeked = &tok
			return nil, false
		case tok.Is(KindHash):
			p.errorf(tok.Loc, "preprocessor directives are not supported inside '.macro'")
			lex.restOfLine()
			continue
		case tok.IsAtStartOfLine() && tok.Is(KindIdentifier):
			switch strings.ToLower(tok.IdentName()) {
			case ".macro":
				depth++
			case ".endm", ".endmacro":
				if depth == 0 {
					return body, true
				}
				depth--
			}
		}
		body = append(body, tok)
	}
}

// condEvaluator evaluates #if expressions over a token slice.
type condEvaluator struct {
	p    *Preprocessor
	toks []Token
	pos  int
}

func (e *condEvaluator) peek() Token {
	if e.pos >= len(e.toks) {
		return Token{Kind: KindEOF}
	}
	return e.toks[e.pos]
}

func (e *condEvaluator) parseOr() int64 {
	left := e.parseAnd()
	for e.peek().IsPunct("||") {
		e.pos++
		right := e.parseAnd()
		left = boolInt(left != 0 || right != 0)
	}
	return left
}

func (e *condEvaluator) parseAnd() int64 {
	left := e.parseEquality()
	for e.peek().IsPunct("&&") {
		e.pos++
		right := e.parseEquality()
		left = boolInt(left != 0 && right != 0)
	}
	return left
}

func (e *condEvaluator) parseEquality() int64 {
	left := e.parseUnary()
	for {
		tok := e.peek()
		switch {
		case tok.IsPunct("=="):
			e.pos++
			left = boolInt(left == e.parseUnary())
		case tok.IsPunct("!="):
			e.pos++
			left = boolInt(left != e.parseUnary())
		case tok.IsPunct("<"):
			e.pos++
			left = boolInt(left < e.parseUnary())
		case tok.IsPunct(">"):
			e.pos++
			left = boolInt(left > e.parseUnary())
		default:
			return left
		}
	}
}

func (e *condEvaluator) parseUnary() int64 {
	tok := e.peek()
	switch {
	case tok.IsPunct("!"):
		e.pos++
		return boolInt(e.parseUnary() == 0)
	case tok.IsPunct("-"):
		e.pos++
		return -e.parseUnary()
	case tok.IsPunct("("):
		e.pos++
		value := e.parseOr()
		if e.peek().IsPunct(")") {
			e.pos++
		}
		return value
	case tok.Is(KindIdentifier) && tok.IdentName() == "defined":
		e.pos++
		paren := e.peek().IsPunct("(")
		if paren {
			e.pos++
		}
		nameTok := e.peek()
		e.pos++
		if paren && e.peek().IsPunct(")") {
			e.pos++
		}
		_, ok := e.p.macros[nameTok.IdentName()]
		return boolInt(ok)
	case tok.Is(KindIdentifier):
		e.pos++
		if mi, ok := e.p.macros[tok.IdentName()]; ok && mi.Kind == MacroObject && len(mi.Body) == 1 && mi.Body[0].Is(KindNumber) {
			return parseInt(mi.Body[0].Literal)
		}
		return 0
	case tok.Is(KindNumber):
		e.pos++
		return parseInt(tok.Literal)
	}

	if tok.Is(KindEOF) {
		e.p.errorf(0, "expected value in expression")
	} else {
		e.p.errorf(tok.Loc, "invalid token at start of a preprocessor expression")
		e.pos++
	}
	return 0
}

func parseInt(literal []byte) int64 {
	text := strings.TrimRight(string(literal), "uUlL")
	value, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0
	}
	return value
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
