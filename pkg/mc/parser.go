package mc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAsmErrors is returned by Run when any error diagnostic was reported.
var ErrAsmErrors = errors.New("assembly contained errors")

// ParseError is a positioned parse failure.
type ParseError struct {
	Loc SMLoc
	Msg string
}

// Error implements error.
func (e *ParseError) Error() string { return e.Msg }

// Errorf creates a ParseError at loc.
func Errorf(loc SMLoc, format string, args ...any) error {
	return &ParseError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// OperandsHook observes the parsed operands of every instruction that was
// matched and emitted. It runs right after the emission.
type OperandsHook func(operands []ParsedOperand)

// AsmParser drives statement parsing over one buffer. Instructions are
// delegated to the installed TargetAsmParser.
type AsmParser struct {
	sm  *SourceMgr
	ctx *Context
	out Streamer
	mai *AsmInfo
	buf BufferID
	lex *AsmLexer

	target       TargetAsmParser
	operandsHook OperandsHook

	showParsedOperands bool
	opts               TargetOptions
	hadError           bool
	ended              bool
}

// NewAsmParser creates a parser for buffer buf of sm.
func NewAsmParser(sm *SourceMgr, ctx *Context, out Streamer, mai *AsmInfo, buf BufferID) *AsmParser {
	return &AsmParser{
		sm:  sm,
		ctx: ctx,
		out: out,
		mai: mai,
		buf: buf,
		lex: NewAsmLexer(sm, buf, mai),
	}
}

// SetTargetParser installs the instruction parser.
func (p *AsmParser) SetTargetParser(target TargetAsmParser) { p.target = target }

// SetOperandsHook installs the operand observer.
func (p *AsmParser) SetOperandsHook(hook OperandsHook) { p.operandsHook = hook }

// SetShowParsedOperands makes the parser report every parsed operand list
// as a note diagnostic.
func (p *AsmParser) SetShowParsedOperands(show bool) { p.showParsedOperands = show }

// SetTargetOptions applies warning options.
func (p *AsmParser) SetTargetOptions(opts TargetOptions) { p.opts = opts }

// Lexer returns the lexer, for target parsers.
func (p *AsmParser) Lexer() *AsmLexer { return p.lex }

// Context returns the parse context.
func (p *AsmParser) Context() *Context { return p.ctx }

// Streamer returns the output streamer.
func (p *AsmParser) Streamer() Streamer { return p.out }

// Error reports an error diagnostic.
func (p *AsmParser) Error(loc SMLoc, msg string) {
	p.hadError = true
	p.sm.PrintMessage(loc, DiagError, msg)
}

// Warning reports a warning diagnostic, honoring the warning options.
func (p *AsmParser) Warning(loc SMLoc, msg string) {
	if p.opts.NoWarn {
		return
	}
	if p.opts.FatalWarnings {
		p.Error(loc, msg)
		return
	}
	p.sm.PrintMessage(loc, DiagWarning, msg)
}

// Note reports a note diagnostic.
func (p *AsmParser) Note(loc SMLoc, msg string) {
	p.sm.PrintMessage(loc, DiagNote, msg)
}

// Run parses the whole buffer. It returns ErrAsmErrors when any error was
// reported; the diagnostics themselves go to the SourceMgr.
func (p *AsmParser) Run() error {
	if p.target == nil {
		return ErrNoAsmParser
	}

	for !p.lex.Is(TokEOF) && !p.ended {
		if err := p.parseStatement(); err != nil {
			p.report(err)
			p.eatToEndOfStatement()
		}
	}

	if err := p.out.Finish(); err != nil {
		return fmt.Errorf("finish streamer: %w", err)
	}
	if p.hadError {
		return ErrAsmErrors
	}
	return nil
}

func (p *AsmParser) report(err error) {
	var perr *ParseError
	if errors.As(err, &perr) {
		p.Error(perr.Loc, perr.Msg)
		return
	}
	p.Error(p.lex.Tok().Loc, err.Error())
}

func (p *AsmParser) eatToEndOfStatement() {
	for !p.lex.Is(TokEndOfStatement) && !p.lex.Is(TokEOF) {
		p.lex.Lex()
	}
}

// ExpectEndOfStatement fails unless the current token ends the statement.
func (p *AsmParser) ExpectEndOfStatement(context string) error {
	if p.lex.Is(TokEndOfStatement) || p.lex.Is(TokEOF) {
		return nil
	}
	return Errorf(p.lex.Tok().Loc, "unexpected token %s", context)
}

func (p *AsmParser) parseStatement() error {
	tok := p.lex.Tok()

	switch tok.Kind {
	case TokEndOfStatement:
		p.lex.Lex()
		return nil
	case TokInteger:
		if p.lex.Peek().Is(TokColon) {
			p.lex.Lex()
			p.lex.Lex()
			sym := p.ctx.Symbol(tok.Text)
			sym.Defined, sym.Loc = true, tok.Loc
			p.out.EmitLabel(sym, tok.Loc)
			return nil
		}
	case TokIdentifier:
		return p.parseIdentifierStatement(tok)
	}

	return Errorf(tok.Loc, "unexpected token at start of statement")
}

func (p *AsmParser) parseIdentifierStatement(tok AsmToken) error {
	name := tok.Text

	switch p.lex.Peek().Kind {
	case TokColon:
		p.lex.Lex()
		p.lex.Lex()
		sym := p.ctx.Symbol(name)
		if sym.Defined {
			return Errorf(tok.Loc, "invalid symbol redefinition")
		}
		sym.Defined, sym.Loc = true, tok.Loc
		p.out.EmitLabel(sym, tok.Loc)
		return nil
	case TokEqual:
		p.lex.Lex()
		p.lex.Lex()
		return p.parseAssignment(name, tok.Loc)
	}

	if strings.HasPrefix(name, ".") {
		p.lex.Lex()
		return p.parseDirective(strings.ToLower(name), tok.Loc)
	}

	p.lex.Lex()
	return p.parseInstruction(name, tok.Loc)
}

func (p *AsmParser) parseInstruction(name string, loc SMLoc) error {
	operands, err := p.target.ParseInstruction(name, loc)
	if err != nil {
		return err
	}
	if err := p.ExpectEndOfStatement("in argument list"); err != nil {
		return err
	}

	if p.showParsedOperands {
		prints := make([]string, 0, len(operands))
		for _, op := range operands {
			prints = append(prints, PrintOperand(op))
		}
		p.Note(loc, "parsed instruction: ["+strings.Join(prints, ", ")+"]")
	}

	if err := p.target.MatchAndEmitInstruction(loc, operands, p.out); err != nil {
		return err
	}

	if p.operandsHook != nil {
		p.operandsHook(operands)
	}
	return nil
}

func (p *AsmParser) parseAssignment(name string, loc SMLoc) error {
	expr, _, _, err := p.ParseExpression()
	if err != nil {
		return err
	}

	sym := p.ctx.Symbol(name)
	if sym.Defined && !sym.Variable {
		return Errorf(loc, "redefinition of '%s'", name)
	}
	sym.Defined, sym.Variable, sym.Loc = true, true, loc
	if expr.Constant {
		sym.Value = expr.Value
	}
	p.out.EmitAssignment(sym, expr)

	return p.ExpectEndOfStatement("in assignment")
}

// ParseIdentifier consumes an identifier token.
func (p *AsmParser) ParseIdentifier() (string, SMLoc, bool) {
	tok := p.lex.Tok()
	if !tok.Is(TokIdentifier) {
		return "", tok.Loc, false
	}
	p.lex.Lex()
	return tok.Text, tok.Loc, true
}

// ParseAbsoluteExpression parses an expression that must fold to a
// constant.
func (p *AsmParser) ParseAbsoluteExpression() (int64, error) {
	expr, start, _, err := p.ParseExpression()
	if err != nil {
		return 0, err
	}
	if !expr.Constant {
		return 0, Errorf(start, "expected absolute expression")
	}
	return expr.Value, nil
}
