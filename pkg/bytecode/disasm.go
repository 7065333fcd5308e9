package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a decoded instruction stream as one line per
// instruction, in the style of a traditional listing: location, mnemonic,
// and operand (jump operands are already absolute locations).
func Disassemble(instructions []Instruction) string {
	var b strings.Builder
	for _, ins := range instructions {
		writeInstruction(&b, ins)
	}
	return b.String()
}

func writeInstruction(b *strings.Builder, ins Instruction) {
	fmt.Fprintf(b, "%6d: %-10s", ins.Location, ins.Opcode.String())
	switch {
	case ins.Opcode.IsJump():
		fmt.Fprintf(b, " -> %d", ins.Operand)
	case ins.Opcode.OperandSize() > 0:
		fmt.Fprintf(b, " %d", ins.Operand)
	}
	b.WriteByte('\n')
}

// DisassembleToLines is the line-oriented form of Disassemble, convenient
// for diffing against golden output in tests.
func DisassembleToLines(instructions []Instruction) []string {
	lines := make([]string, 0, len(instructions))
	for _, ins := range instructions {
		var b strings.Builder
		writeInstruction(&b, ins)
		lines = append(lines, strings.TrimRight(b.String(), "\n"))
	}
	return lines
}
