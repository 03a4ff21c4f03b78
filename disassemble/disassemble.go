// Package disassemble renders an 8080 instruction stream into text
// without interpreting control flow — a JMP in the byte stream is
// printed as JMP, not followed.
package disassemble

import (
	"fmt"

	"github.com/gocpu/i8080/memory"
)

const (
	modeImplied = iota
	modeReg              // single 3-bit register/M field: bits 5-3 for INR/DCR/MVI, bits 2-0 for ALU ops
	modeRegPair          // 2-bit rp field
	modeImm8
	modeImm16
	modePort
	modeMove // MOV dst,src: two 3-bit fields
	modeRST
)

var regName = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}
var rpName = [4]string{"B", "D", "H", "SP"}
var rpNamePSW = [4]string{"B", "D", "H", "PSW"}
var ccName = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}

type entry struct {
	mnemonic string
	mode     int
}

// opTable mirrors the aliasing cpu.Step applies: the twelve undocumented
// bytes disassemble as whatever they execute as, annotated with a "*"
// the way many 8080 disassemblers flag undocumented encodings.
var opTable = buildOpTable()

func buildOpTable() map[uint8]entry {
	t := map[uint8]entry{
		0x00: {"NOP", modeImplied},
		0x07: {"RLC", modeImplied},
		0x0F: {"RRC", modeImplied},
		0x17: {"RAL", modeImplied},
		0x1F: {"RAR", modeImplied},
		0x27: {"DAA", modeImplied},
		0x2F: {"CMA", modeImplied},
		0x37: {"STC", modeImplied},
		0x3F: {"CMC", modeImplied},
		0x76: {"HLT", modeImplied},
		0xE3: {"XTHL", modeImplied},
		0xE9: {"PCHL", modeImplied},
		0xEB: {"XCHG", modeImplied},
		0xF3: {"DI", modeImplied},
		0xF9: {"SPHL", modeImplied},
		0xFB: {"EI", modeImplied},
		0xC9: {"RET", modeImplied},
		0x22: {"SHLD", modeImm16},
		0x2A: {"LHLD", modeImm16},
		0x32: {"STA", modeImm16},
		0x3A: {"LDA", modeImm16},
		0xC3: {"JMP", modeImm16},
		0xCD: {"CALL", modeImm16},
		0xD3: {"OUT", modePort},
		0xDB: {"IN", modePort},
	}
	for op := uint8(0x40); op < 0x80; op++ {
		if op == 0x76 {
			continue
		}
		t[op] = entry{"MOV", modeMove}
	}
	aluNames := []string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
	for i, name := range aluNames {
		for r := uint8(0); r < 8; r++ {
			t[0x80|uint8(i)<<3|r] = entry{name, modeReg}
		}
	}
	immNames := []string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}
	for i, name := range immNames {
		t[0xC6+uint8(i)*8] = entry{name, modeImm8}
	}
	for _, rp := range []uint8{0, 1, 2, 3} {
		t[0x01|rp<<4] = entry{"LXI", modeRegPair}
		t[0x03|rp<<4] = entry{"INX", modeRegPair}
		t[0x0B|rp<<4] = entry{"DCX", modeRegPair}
		t[0x09|rp<<4] = entry{"DAD", modeRegPair}
	}
	t[0x02] = entry{"STAX", modeRegPair}
	t[0x12] = entry{"STAX", modeRegPair}
	t[0x0A] = entry{"LDAX", modeRegPair}
	t[0x1A] = entry{"LDAX", modeRegPair}
	for r := uint8(0); r < 8; r++ {
		t[r<<3|0x04] = entry{"INR", modeReg}
		t[r<<3|0x05] = entry{"DCR", modeReg}
		t[r<<3|0x06] = entry{"MVI", modeReg}
	}
	for _, cc := range []uint8{0, 1, 2, 3, 4, 5, 6, 7} {
		t[0xC2|cc<<3] = entry{"J" + ccName[cc], modeImm16}
		t[0xC4|cc<<3] = entry{"C" + ccName[cc], modeImm16}
		t[0xC0|cc<<3] = entry{"R" + ccName[cc], modeImplied}
	}
	for _, rp := range []uint8{0, 1, 2, 3} {
		t[0xC1|rp<<4] = entry{"POP", modeRegPair}
		t[0xC5|rp<<4] = entry{"PUSH", modeRegPair}
	}
	for n := uint8(0); n < 8; n++ {
		t[0xC7|n<<3] = entry{"RST", modeRST}
	}
	// Undocumented aliases, marked so a reader can tell these apart from
	// the canonical encoding they behave as.
	for _, op := range []uint8{0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		t[op] = entry{"NOP*", modeImplied}
	}
	t[0xCB] = entry{"JMP*", modeImm16}
	t[0xD9] = entry{"RET*", modeImplied}
	for _, op := range []uint8{0xDD, 0xED, 0xFD} {
		t[op] = entry{"CALL*", modeImm16}
	}
	return t
}

// Step disassembles the instruction at pc and returns its text plus
// the number of bytes (1-3) it occupies, grounded on the same Step
// contract the 6502 disassembler exposes: the caller advances pc by
// the returned count to reach the next instruction.
func Step(pc uint16, mem memory.Bank) (string, int) {
	op := mem.Read(pc)
	b1 := mem.Read(pc + 1)
	b2 := mem.Read(pc + 2)

	e, ok := opTable[op]
	if !ok {
		return fmt.Sprintf("%04X %02X       UNIMPLEMENTED", pc, op), 1
	}

	var operand string
	count := 1
	switch e.mode {
	case modeImplied:
		// nothing to append
	case modeReg:
		r := op & 0x07
		if e.mnemonic == "INR" || e.mnemonic == "DCR" || e.mnemonic == "MVI" {
			r = (op >> 3) & 0x07
		}
		operand = regName[r]
		if e.mnemonic == "MVI" {
			operand = fmt.Sprintf("%s,%02X", operand, b1)
			count = 2
		}
	case modeMove:
		dst := (op >> 3) & 0x07
		src := op & 0x07
		operand = fmt.Sprintf("%s,%s", regName[dst], regName[src])
	case modeRegPair:
		names := rpName
		if e.mnemonic == "PUSH" || e.mnemonic == "POP" {
			names = rpNamePSW
		}
		rp := (op >> 4) & 0x03
		if e.mnemonic == "STAX" || e.mnemonic == "LDAX" {
			rp = (op >> 4) & 0x01
		}
		operand = names[rp]
		if e.mnemonic == "LXI" {
			operand = fmt.Sprintf("%s,%04X", operand, uint16(b2)<<8|uint16(b1))
			count = 3
		}
	case modeImm8:
		operand = fmt.Sprintf("%02X", b1)
		count = 2
	case modeImm16:
		operand = fmt.Sprintf("%04X", uint16(b2)<<8|uint16(b1))
		count = 3
	case modePort:
		operand = fmt.Sprintf("%02X", b1)
		count = 2
	case modeRST:
		operand = fmt.Sprintf("%d", (op>>3)&0x07)
	}

	switch count {
	case 1:
		return fmt.Sprintf("%04X %02X       %-6s %s", pc, op, e.mnemonic, operand), count
	case 2:
		return fmt.Sprintf("%04X %02X %02X    %-6s %s", pc, op, b1, e.mnemonic, operand), count
	default:
		return fmt.Sprintf("%04X %02X %02X %02X %-6s %s", pc, op, b1, b2, e.mnemonic, operand), count
	}
}
