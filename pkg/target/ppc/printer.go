package ppc

import (
	"fmt"
	"io"
	"strings"

	"github.com/yaklabco/asmbridge/pkg/mc"
)

type instPrinter struct {
	mii   *mc.InstrInfo
	mri   *mc.RegisterInfo
	table matchTable
}

func newInstPrinter(_ mc.Triple, _ *mc.AsmInfo, mii *mc.InstrInfo, mri *mc.RegisterInfo) (mc.InstPrinter, error) {
	if mii == nil || mri == nil {
		return nil, fmt.Errorf("ppc: printer needs instruction and register info")
	}
	return &instPrinter{mii: mii, mri: mri, table: newMatchTable()}, nil
}

// PrintInst writes inst in canonical syntax, with memory forms as
// "lwz r3, 8(r1)".
func (p *instPrinter) PrintInst(w io.Writer, inst *mc.Inst) error {
	name := p.mii.Name(inst.Opcode)
	if name == "" {
		return fmt.Errorf("ppc: unknown opcode %d", inst.Opcode)
	}

	parts := make([]string, 0, len(inst.Operands))
	for _, op := range inst.Operands {
		parts = append(parts, p.operand(op))
	}

	if def, ok := p.table[name]; ok && def.mem && len(parts) == 3 {
		parts = []string{parts[0], parts[1] + "(" + parts[2] + ")"}
	}

	line := name
	if len(parts) > 0 {
		line += " " + strings.Join(parts, ", ")
	}
	_, err := io.WriteString(w, line)
	return err
}

func (p *instPrinter) operand(op mc.InstOperand) string {
	switch op.Kind {
	case mc.OperandReg:
		return p.mri.Name(op.Reg)
	case mc.OperandImm:
		return fmt.Sprint(op.Imm)
	default:
		return op.Expr.String()
	}
}
