package mc

import (
	"strings"
)

type binaryOp struct {
	prec int
	fold func(a, b int64) (int64, bool)
}

var binaryOps = map[TokenKind]binaryOp{
	TokPipe:           {1, func(a, b int64) (int64, bool) { return a | b, true }},
	TokCaret:          {2, func(a, b int64) (int64, bool) { return a ^ b, true }},
	TokAmp:            {3, func(a, b int64) (int64, bool) { return a & b, true }},
	TokLessLess:       {4, func(a, b int64) (int64, bool) { return a << uint64(b), b >= 0 }},
	TokGreaterGreater: {4, func(a, b int64) (int64, bool) { return a >> uint64(b), b >= 0 }},
	TokPlus:           {5, func(a, b int64) (int64, bool) { return a + b, true }},
	TokMinus:          {5, func(a, b int64) (int64, bool) { return a - b, true }},
	TokStar:           {6, func(a, b int64) (int64, bool) { return a * b, true }},
	TokSlash: {6, func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}},
	TokPercent: {6, func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}},
}

// ParseExpression parses an expression starting at the current token and
// returns it with its source range. Constant subexpressions fold; variable
// symbols defined with '=' or .set substitute their value.
func (p *AsmParser) ParseExpression() (Expr, SMLoc, SMLoc, error) {
	start := p.lex.Tok().Loc
	expr, err := p.parseBinary(0)
	if err != nil {
		return Expr{}, start, start, err
	}

	end := p.lex.Tok().Loc
	text := p.sm.Buffer(start.Buffer)
	if start.Offset <= end.Offset && end.Offset <= len(text) {
		expr.Text = strings.TrimSpace(text[start.Offset:end.Offset])
	}
	return expr, start, end, nil
}

func (p *AsmParser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Expr{}, err
	}

	for {
		op, ok := binaryOps[p.lex.Tok().Kind]
		if !ok || op.prec <= minPrec {
			return left, nil
		}
		opLoc := p.lex.Tok().Loc
		p.lex.Lex()

		right, err := p.parseBinary(op.prec)
		if err != nil {
			return Expr{}, err
		}

		if left.Constant && right.Constant {
			value, ok := op.fold(left.Value, right.Value)
			if !ok {
				return Expr{}, Errorf(opLoc, "invalid constant expression")
			}
			left = Expr{Value: value, Constant: true}
			continue
		}
		left = Expr{Symbol: firstSymbol(left, right)}
	}
}

func firstSymbol(exprs ...Expr) string {
	for _, expr := range exprs {
		if expr.Symbol != "" {
			return expr.Symbol
		}
	}
	return ""
}

func (p *AsmParser) parseUnary() (Expr, error) {
	tok := p.lex.Tok()

	switch tok.Kind {
	case TokMinus, TokTilde, TokExclaim, TokPlus:
		p.lex.Lex()
		inner, err := p.parseUnary()
		if err != nil {
			return Expr{}, err
		}
		if !inner.Constant {
			return inner, nil
		}
		switch tok.Kind {
		case TokMinus:
			inner.Value = -inner.Value
		case TokTilde:
			inner.Value = ^inner.Value
		case TokExclaim:
			inner.Value = boolValue(inner.Value == 0)
		}
		return inner, nil
	case TokLParen:
		p.lex.Lex()
		inner, err := p.parseBinary(0)
		if err != nil {
			return Expr{}, err
		}
		if !p.lex.Is(TokRParen) {
			return Expr{}, Errorf(p.lex.Tok().Loc, "expected ')' in parentheses expression")
		}
		p.lex.Lex()
		return inner, nil
	case TokInteger:
		p.lex.Lex()
		if isLocalLabelRef(tok.Text) {
			return Expr{Symbol: tok.Text}, nil
		}
		return Expr{Value: tok.IntVal, Constant: true}, nil
	case TokDot:
		p.lex.Lex()
		return Expr{Symbol: "."}, nil
	case TokIdentifier:
		p.lex.Lex()
		name, modifier, _ := strings.Cut(tok.Text, "@")
		if sym, ok := p.ctx.LookupSymbol(name); ok && sym.Variable && modifier == "" {
			return Expr{Value: sym.Value, Constant: true}, nil
		}
		p.ctx.Symbol(name)
		return Expr{Symbol: name, Modifier: modifier}, nil
	}

	return Expr{}, Errorf(tok.Loc, "unknown token in expression")
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
