package mc

import (
	"fmt"
	"io"
	"strings"
)

// ParsedOperand is one operand as produced by a target parser, before
// matching. The mnemonic itself is the first, token-kind operand.
type ParsedOperand interface {
	IsToken() bool
	IsReg() bool
	IsImm() bool
	IsExpr() bool
	StartLoc() SMLoc
	EndLoc() SMLoc

	// Print writes a debug rendering. Tokens print quoted, as 'add'.
	Print(w io.Writer)
}

// OperandKind classifies an Operand.
type OperandKind int

// Operand kinds.
const (
	OperandToken OperandKind = iota
	OperandReg
	OperandImm
	OperandExpr
)

// Operand is the generic ParsedOperand implementation targets build on.
type Operand struct {
	Kind  OperandKind
	Token string
	Reg   Register
	Imm   int64
	Expr  Expr

	// RegName is the spelling of a register operand.
	RegName string

	Start SMLoc
	End   SMLoc
}

// NewTokenOperand creates a token operand.
func NewTokenOperand(text string, loc SMLoc) *Operand {
	return &Operand{Kind: OperandToken, Token: text, Start: loc, End: loc.Advance(len(text))}
}

// NewRegOperand creates a register operand.
func NewRegOperand(reg Register, name string, start, end SMLoc) *Operand {
	return &Operand{Kind: OperandReg, Reg: reg, RegName: name, Start: start, End: end}
}

// NewImmOperand creates an immediate operand.
func NewImmOperand(value int64, start, end SMLoc) *Operand {
	return &Operand{Kind: OperandImm, Imm: value, Start: start, End: end}
}

// NewExprOperand creates an operand for a non-constant expression.
func NewExprOperand(expr Expr, start, end SMLoc) *Operand {
	return &Operand{Kind: OperandExpr, Expr: expr, Start: start, End: end}
}

// IsToken implements ParsedOperand.
func (o *Operand) IsToken() bool { return o.Kind == OperandToken }

// IsReg implements ParsedOperand.
func (o *Operand) IsReg() bool { return o.Kind == OperandReg }

// IsImm implements ParsedOperand.
func (o *Operand) IsImm() bool { return o.Kind == OperandImm }

// IsExpr implements ParsedOperand.
func (o *Operand) IsExpr() bool { return o.Kind == OperandExpr }

// StartLoc implements ParsedOperand.
func (o *Operand) StartLoc() SMLoc { return o.Start }

// EndLoc implements ParsedOperand.
func (o *Operand) EndLoc() SMLoc { return o.End }

// Print implements ParsedOperand.
func (o *Operand) Print(w io.Writer) {
	switch o.Kind {
	case OperandToken:
		fmt.Fprintf(w, "'%s'", o.Token)
	case OperandReg:
		fmt.Fprintf(w, "<register %s>", o.RegName)
	case OperandImm:
		fmt.Fprintf(w, "%d", o.Imm)
	case OperandExpr:
		fmt.Fprint(w, o.Expr.String())
	}
}

// PrintOperand renders a parsed operand to a string.
func PrintOperand(op ParsedOperand) string {
	var b strings.Builder
	op.Print(&b)
	return b.String()
}

// InstOperand is one operand of a matched instruction.
type InstOperand struct {
	Kind OperandKind
	Reg  Register
	Imm  int64
	Expr Expr
}

// Inst is a matched instruction.
type Inst struct {
	Opcode   uint
	Operands []InstOperand
	Loc      SMLoc
}

// AddReg appends a register operand.
func (i *Inst) AddReg(reg Register) {
	i.Operands = append(i.Operands, InstOperand{Kind: OperandReg, Reg: reg})
}

// AddImm appends an immediate operand.
func (i *Inst) AddImm(value int64) {
	i.Operands = append(i.Operands, InstOperand{Kind: OperandImm, Imm: value})
}

// AddExpr appends an expression operand.
func (i *Inst) AddExpr(expr Expr) {
	i.Operands = append(i.Operands, InstOperand{Kind: OperandExpr, Expr: expr})
}
