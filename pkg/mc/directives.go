package mc

import (
	"strconv"
	"strings"
)

var valueDirectives = map[string]int{
	".byte":  1,
	".short": 2,
	".hword": 2,
	".half":  2,
	".2byte": 2,
	".long":  4,
	".int":   4,
	".word":  4,
	".4byte": 4,
	".quad":  8,
	".8byte": 8,
}

var symbolAttrDirectives = map[string]SymbolAttr{
	".globl":  SymbolGlobal,
	".global": SymbolGlobal,
	".local":  SymbolLocal,
	".weak":   SymbolWeak,
}

// ignoredDirectives are accepted with any arguments and have no effect on
// the emitted stream.
var ignoredDirectives = map[string]bool{
	".file":          true,
	".ident":         true,
	".loc":           true,
	".size":          true,
	".option":        true,
	".previous":      true,
	".popsection":    true,
	".pushsection":   true,
	".gnu_attribute": true,
	".hidden":        true,
	".protected":     true,
	".org":           true,
	".print":         true,
	".sleb128":       true,
	".uleb128":       true,
}

func (p *AsmParser) parseDirective(name string, loc SMLoc) error {
	if handled, err := p.target.ParseDirective(name, loc); handled || err != nil {
		return err
	}

	if size, ok := valueDirectives[name]; ok {
		return p.parseValues(size)
	}
	if attr, ok := symbolAttrDirectives[name]; ok {
		return p.parseSymbolAttrs(attr)
	}
	if ignoredDirectives[name] || strings.HasPrefix(name, ".cfi_") {
		p.eatToEndOfStatement()
		return nil
	}

	switch name {
	case ".text", ".data", ".bss":
		p.out.SwitchSection(name)
		return p.ExpectEndOfStatement("in '" + name + "' directive")
	case ".section":
		return p.parseSection(loc)
	case ".type":
		return p.parseType()
	case ".ascii", ".asciz", ".string":
		return p.parseStrings(name != ".ascii")
	case ".align", ".p2align", ".balign":
		return p.parseAlign(name)
	case ".set", ".equ":
		symName, symLoc, ok := p.ParseIdentifier()
		if !ok {
			return Errorf(symLoc, "expected identifier after '%s'", name)
		}
		if !p.lex.Is(TokComma) {
			return Errorf(p.lex.Tok().Loc, "expected comma")
		}
		p.lex.Lex()
		return p.parseAssignment(symName, symLoc)
	case ".comm", ".lcomm":
		return p.parseComm()
	case ".zero", ".space", ".skip":
		size, err := p.ParseAbsoluteExpression()
		if err != nil {
			return err
		}
		if p.lex.Is(TokComma) {
			p.lex.Lex()
			if _, err := p.ParseAbsoluteExpression(); err != nil {
				return err
			}
		}
		if size < 0 {
			p.Warning(loc, "'"+name+"' directive with negative repeat count has no effect")
			size = 0
		}
		p.out.EmitZerofill(size, loc)
		return p.ExpectEndOfStatement("in '" + name + "' directive")
	case ".error", ".warning":
		msg := name[1:] + " directive invoked in source file"
		if p.lex.Is(TokString) {
			msg = p.lex.Tok().StringContents()
			p.lex.Lex()
		}
		if name == ".error" {
			p.Error(loc, msg)
		} else {
			p.Warning(loc, msg)
		}
		return p.ExpectEndOfStatement("in '" + name + "' directive")
	case ".end":
		p.ended = true
		return nil
	}

	return Errorf(loc, "unknown directive")
}

func (p *AsmParser) parseValues(size int) error {
	if p.lex.Is(TokEndOfStatement) || p.lex.Is(TokEOF) {
		return nil
	}

	for {
		expr, start, _, err := p.ParseExpression()
		if err != nil {
			return err
		}
		if expr.Constant && size < 8 {
			limit := int64(1) << (uint(size) * 8)
			if expr.Value >= limit || expr.Value < -limit/2 {
				p.Warning(start, "out of range literal value")
			}
		}
		p.out.EmitValue(expr, size, start)

		if !p.lex.Is(TokComma) {
			break
		}
		p.lex.Lex()
	}
	return p.ExpectEndOfStatement("in directive")
}

func (p *AsmParser) parseSymbolAttrs(attr SymbolAttr) error {
	for {
		name, loc, ok := p.ParseIdentifier()
		if !ok {
			return Errorf(loc, "expected identifier")
		}
		sym := p.ctx.Symbol(name)
		sym.Attrs = append(sym.Attrs, attr)
		if !p.out.EmitSymbolAttribute(sym, attr) {
			return Errorf(loc, "unable to emit symbol attribute")
		}
		if !p.lex.Is(TokComma) {
			break
		}
		p.lex.Lex()
	}
	return p.ExpectEndOfStatement("in directive")
}

func (p *AsmParser) parseSection(loc SMLoc) error {
	tok := p.lex.Tok()

	var name string
	switch tok.Kind {
	case TokIdentifier:
		name = tok.Text
	case TokString:
		name = tok.StringContents()
	default:
		return Errorf(loc, "expected identifier after '.section' directive")
	}
	p.lex.Lex()

	p.out.SwitchSection(name)
	p.eatToEndOfStatement()
	return nil
}

func (p *AsmParser) parseType() error {
	name, loc, ok := p.ParseIdentifier()
	if !ok {
		return Errorf(loc, "expected identifier")
	}
	if !p.lex.Is(TokComma) {
		return Errorf(p.lex.Tok().Loc, "expected comma")
	}
	p.lex.Lex()

	// The type may be spelled @function, %function or "function".
	if p.lex.Is(TokPercent) || (p.lex.Is(TokError) && p.lex.Tok().Text == "@") {
		p.lex.Lex()
	}
	kindTok := p.lex.Tok()
	var kind string
	switch kindTok.Kind {
	case TokIdentifier:
		kind = kindTok.Text
	case TokString:
		kind = kindTok.StringContents()
	default:
		return Errorf(kindTok.Loc, "expected symbol type in '.type' directive")
	}
	p.lex.Lex()

	sym := p.ctx.Symbol(name)
	switch kind {
	case "function", "gnu_indirect_function":
		p.out.EmitSymbolAttribute(sym, SymbolFunction)
	case "object", "common", "tls_object", "notype":
		p.out.EmitSymbolAttribute(sym, SymbolObject)
	default:
		return Errorf(kindTok.Loc, "unsupported attribute")
	}
	return p.ExpectEndOfStatement("in '.type' directive")
}

func (p *AsmParser) parseStrings(zeroTerminated bool) error {
	for {
		tok := p.lex.Tok()
		if !tok.Is(TokString) {
			return Errorf(tok.Loc, "expected string")
		}
		value, err := strconv.Unquote(tok.Text)
		if err != nil {
			value = tok.StringContents()
		}
		data := []byte(value)
		if zeroTerminated {
			data = append(data, 0)
		}
		p.out.EmitBytes(data)
		p.lex.Lex()

		if !p.lex.Is(TokComma) {
			break
		}
		p.lex.Lex()
	}
	return p.ExpectEndOfStatement("in directive")
}

func (p *AsmParser) parseAlign(name string) error {
	loc := p.lex.Tok().Loc
	value, err := p.ParseAbsoluteExpression()
	if err != nil {
		return err
	}

	align := value
	if name != ".balign" {
		if value < 0 || value > 31 {
			return Errorf(loc, "invalid alignment value")
		}
		align = int64(1) << uint(value)
	} else if value <= 0 || value&(value-1) != 0 {
		return Errorf(loc, "alignment must be a power of 2")
	}

	// Optional fill and maximum.
	p.eatToEndOfStatement()
	p.out.EmitValueToAlignment(align)
	return nil
}

func (p *AsmParser) parseComm() error {
	name, loc, ok := p.ParseIdentifier()
	if !ok {
		return Errorf(loc, "expected identifier in directive")
	}
	if !p.lex.Is(TokComma) {
		return Errorf(p.lex.Tok().Loc, "unexpected token in directive")
	}
	p.lex.Lex()

	size, err := p.ParseAbsoluteExpression()
	if err != nil {
		return err
	}

	var align int64
	if p.lex.Is(TokComma) {
		p.lex.Lex()
		if align, err = p.ParseAbsoluteExpression(); err != nil {
			return err
		}
	}
	if size < 0 {
		return Errorf(loc, "size must be non-negative")
	}

	p.out.EmitCommonSymbol(p.ctx.Symbol(name), size, align)
	return p.ExpectEndOfStatement("in directive")
}
