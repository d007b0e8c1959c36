package ppc

import (
	"fmt"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/mc"
)

type asmParser struct {
	parser *mc.AsmParser
	sti    *mc.SubtargetInfo
	mii    *mc.InstrInfo
	mri    *mc.RegisterInfo
	table  matchTable
}

func newAsmParser(sti *mc.SubtargetInfo, parser *mc.AsmParser, mii *mc.InstrInfo, _ mc.TargetOptions) (mc.TargetAsmParser, error) {
	if parser == nil {
		return nil, fmt.Errorf("ppc: asm parser needs a generic parser")
	}
	ctx := parser.Context()
	if ctx == nil || ctx.RegInfo == nil {
		return nil, fmt.Errorf("ppc: parse context has no register info")
	}

	return &asmParser{
		parser: parser,
		sti:    sti,
		mii:    mii,
		mri:    ctx.RegInfo,
		table:  newMatchTable(),
	}, nil
}

// ParseInstruction splits the mnemonic at its first dot, so "add." yields
// the tokens 'add' and '.', and then reads comma separated operands. A
// displacement d(rA) yields two operands.
func (a *asmParser) ParseInstruction(name string, nameLoc mc.SMLoc) ([]mc.ParsedOperand, error) {
	lex := a.parser.Lexer()

	// Branch prediction hints attach to the mnemonic: bne+ target.
	if tok := lex.Tok(); (tok.Is(mc.TokPlus) || tok.Is(mc.TokMinus)) && tok.Loc == nameLoc.Advance(len(name)) {
		name += tok.Text
		lex.Lex()
	}

	mnemonic, suffix, hasDot := strings.Cut(name, ".")
	operands := []mc.ParsedOperand{mc.NewTokenOperand(mnemonic, nameLoc)}
	if hasDot {
		operands = append(operands, mc.NewTokenOperand("."+suffix, nameLoc.Advance(len(mnemonic))))
	}

	if lex.Is(mc.TokEndOfStatement) || lex.Is(mc.TokEOF) {
		return operands, nil
	}

	for {
		parsed, err := a.parseOperand()
		if err != nil {
			return nil, err
		}
		operands = append(operands, parsed...)

		if !lex.Is(mc.TokComma) {
			break
		}
		lex.Lex()
	}
	return operands, nil
}

func (a *asmParser) parseOperand() ([]mc.ParsedOperand, error) {
	lex := a.parser.Lexer()

	reg, isReg, err := a.tryRegister()
	if err != nil {
		return nil, err
	}
	if isReg {
		return []mc.ParsedOperand{reg}, nil
	}

	expr, start, end, err := a.parser.ParseExpression()
	if err != nil {
		return nil, err
	}
	ops := []mc.ParsedOperand{exprOperand(expr, start, end)}

	if !lex.Is(mc.TokLParen) {
		return ops, nil
	}
	lex.Lex()

	base, ok, err := a.tryRegister()
	if err != nil {
		return nil, err
	}
	if !ok {
		tok := lex.Tok()
		if !tok.Is(mc.TokInteger) {
			return nil, mc.Errorf(tok.Loc, "invalid memory operand")
		}
		base = mc.NewImmOperand(tok.IntVal, tok.Loc, tok.EndLoc())
		lex.Lex()
	}
	if !lex.Is(mc.TokRParen) {
		return nil, mc.Errorf(lex.Tok().Loc, "missing ')'")
	}
	lex.Lex()

	return append(ops, base), nil
}

// tryRegister consumes a register named as r3, %r3 or cr7.
func (a *asmParser) tryRegister() (*mc.Operand, bool, error) {
	lex := a.parser.Lexer()
	start := lex.Tok().Loc

	if lex.Is(mc.TokPercent) {
		next := lex.Peek()
		reg, ok := a.mri.Lookup(next.Text)
		if !next.Is(mc.TokIdentifier) || !ok {
			return nil, false, mc.Errorf(next.Loc, "invalid register name")
		}
		lex.Lex()
		lex.Lex()
		return mc.NewRegOperand(reg, a.mri.Name(reg), start, next.EndLoc()), true, nil
	}

	tok := lex.Tok()
	if !tok.Is(mc.TokIdentifier) {
		return nil, false, nil
	}
	reg, ok := a.mri.Lookup(tok.Text)
	if !ok {
		return nil, false, nil
	}
	lex.Lex()
	return mc.NewRegOperand(reg, a.mri.Name(reg), start, tok.EndLoc()), true, nil
}

func exprOperand(expr mc.Expr, start, end mc.SMLoc) *mc.Operand {
	if expr.Constant {
		return mc.NewImmOperand(expr.Value, start, end)
	}
	return mc.NewExprOperand(expr, start, end)
}

// MatchAndEmitInstruction picks the first form of the mnemonic whose
// shapes fit the operands and emits the instruction.
func (a *asmParser) MatchAndEmitInstruction(loc mc.SMLoc, operands []mc.ParsedOperand, out mc.Streamer) error {
	mnemonic, args := spelledMnemonic(operands)

	def, ok := a.table[strings.TrimRight(mnemonic, "+-")]
	if !ok || (mnemonic != strings.TrimRight(mnemonic, "+-") && !def.branch) {
		return mc.Errorf(loc, "invalid instruction")
	}
	if def.feature != "" && !a.sti.HasFeature(def.feature) {
		return mc.Errorf(loc, "instruction requires: %s", def.feature)
	}

	// badIndex comes from forms of the right length when there are any,
	// otherwise from the first surplus operand.
	var (
		tooFew   = true
		badIndex = -1
		surplus  = -1
	)
	for _, form := range def.forms {
		switch {
		case len(args) < len(form):
			continue
		case len(args) > len(form):
			tooFew = false
			surplus = max(surplus, len(form))
			continue
		}
		tooFew = false

		inst := mc.Inst{Loc: loc}
		if desc, found := a.mii.Lookup(strings.TrimRight(mnemonic, "+-")); found {
			inst.Opcode = desc.Opcode
		}
		if idx := a.encode(&inst, form, args); idx >= 0 {
			badIndex = max(badIndex, idx)
			continue
		}

		out.EmitInstruction(inst, a.sti)
		return nil
	}

	if tooFew {
		return mc.Errorf(loc, "too few operands for instruction")
	}
	if badIndex < 0 {
		badIndex = surplus
	}
	if badIndex >= 0 && badIndex < len(args) {
		return mc.Errorf(args[badIndex].StartLoc(), "invalid operand for instruction")
	}
	return mc.Errorf(loc, "invalid operand for instruction")
}

// spelledMnemonic rejoins the mnemonic and dot tokens and returns the
// remaining operands.
func spelledMnemonic(operands []mc.ParsedOperand) (string, []mc.ParsedOperand) {
	var b strings.Builder
	i := 0
	for ; i < len(operands) && i < 2; i++ {
		op, ok := operands[i].(*mc.Operand)
		if !ok || !op.IsToken() {
			break
		}
		b.WriteString(strings.ToLower(op.Token))
	}
	return b.String(), operands[i:]
}

// encode appends operands to inst per form. It returns the index of the
// first operand that does not fit, or -1.
func (a *asmParser) encode(inst *mc.Inst, form string, args []mc.ParsedOperand) int {
	for i, shape := range []byte(form) {
		op, ok := args[i].(*mc.Operand)
		if !ok {
			return i
		}

		switch shape {
		case shapeGPR, shapeFPR, shapeVR, shapeCR:
			reg, ok := a.register(op, shapeClass(shape))
			if !ok {
				return i
			}
			inst.AddReg(reg)
		case shapeAcc:
			reg, ok := a.register(op, ClassGPR)
			if !ok {
				return i
			}
			inst.AddReg(reg)
			inst.AddReg(reg)
		case shapeImm, shapeTarget:
			switch op.Kind {
			case mc.OperandImm:
				inst.AddImm(op.Imm)
			case mc.OperandExpr:
				inst.AddExpr(op.Expr)
			default:
				return i
			}
		}
	}
	return -1
}

func shapeClass(shape byte) mc.RegisterClass {
	switch shape {
	case shapeFPR:
		return ClassFPR
	case shapeVR:
		return ClassVR
	case shapeCR:
		return ClassCR
	default:
		return ClassGPR
	}
}

// register accepts a register of class or a bare register number.
func (a *asmParser) register(op *mc.Operand, class mc.RegisterClass) (mc.Register, bool) {
	switch op.Kind {
	case mc.OperandReg:
		return op.Reg, a.mri.Class(op.Reg) == class
	case mc.OperandImm:
		limit := int64(32)
		if class == ClassCR {
			limit = 8
		}
		if op.Imm < 0 || op.Imm >= limit {
			return 0, false
		}
		return numbered(a.mri, class, op.Imm)
	}
	return 0, false
}

// ParseDirective handles the PowerPC specific directives.
func (a *asmParser) ParseDirective(name string, loc mc.SMLoc) (bool, error) {
	lex := a.parser.Lexer()

	switch name {
	case ".machine", ".localentry", ".tc", ".toc":
		for !lex.Is(mc.TokEndOfStatement) && !lex.Is(mc.TokEOF) {
			lex.Lex()
		}
		return true, nil
	case ".abiversion":
		version, err := a.parser.ParseAbsoluteExpression()
		if err != nil {
			return true, err
		}
		if version < 0 || version > 2 {
			return true, mc.Errorf(loc, "invalid ABI version")
		}
		return true, a.parser.ExpectEndOfStatement("in '.abiversion' directive")
	}
	return false, nil
}
