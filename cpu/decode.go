package cpu

// This file implements the instruction decoder (spec.md §4.3): opcode
// length classification, the twelve undocumented-opcode aliases, and the
// fetch/advance-PC bookkeeping that wraps the big dispatch in execute.go.

// opLen classifies every opcode's instruction length in bytes — 1, 2 or
// 3 — independent of what the instruction does. Used by fetch to know
// how many operand bytes to read; Step advances PC by the same length.
func opLen(op uint8) int {
	switch op {
	// 3-byte: 16-bit immediate or address operand.
	case 0x01, 0x11, 0x21, 0x31, // LXI
		0x22, 0x2A, // SHLD, LHLD
		0x32, 0x3A, // STA, LDA
		0xC2, 0xC3, 0xCA, 0xD2, 0xDA, 0xE2, 0xEA, 0xF2, 0xFA, // Jcc/JMP
		0xC4, 0xCC, 0xCD, 0xD4, 0xDC, 0xE4, 0xEC, 0xF4, 0xFC: // Ccc/CALL
		return 3
	// 2-byte: 8-bit immediate or port operand.
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E, // MVI
		0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE, // immediate ALU
		0xD3, 0xDB: // OUT, IN
		return 2
	default:
		return 1
	}
}

// aliasedOpcode maps the undocumented opcode bytes onto the documented
// opcode they behave as, per spec.md §4.3. The twelve byte values below
// never appear in the main dispatch switch in execute.go; Step rewrites
// them before dispatch unless Strict is set.
func aliasedOpcode(op uint8) (alias uint8, isAlias bool) {
	switch op {
	case 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38:
		return 0x00, true // NOP
	case 0xCB:
		return 0xC3, true // JMP
	case 0xD9:
		return 0xC9, true // RET
	case 0xDD, 0xED, 0xFD:
		return 0xCD, true // CALL
	default:
		return op, false
	}
}

// fetch reads the opcode at PC plus however many operand bytes opLen
// says it needs, without advancing PC. An undocumented byte is
// resolved to its alias before length is computed — 0xCB, for
// instance, reads as a 3-byte JMP, not the 1-byte default opLen would
// give its own raw byte value. rawOp is the byte actually sitting in
// memory, returned alongside so Strict mode can name it in
// ErrUndefinedOpcode; op is what executes. Callers advance PC
// themselves: Step adds length to PC before dispatch, and a
// jump/call/return then overwrites PC with its target.
func (c *Chip) fetch() (rawOp, op, b1, b2 uint8, length int) {
	pc := c.PC
	rawOp = c.Mem.Read(pc)
	if alias, isAlias := aliasedOpcode(rawOp); isAlias {
		op = alias
	} else {
		op = rawOp
	}
	length = opLen(op)
	if length > 1 {
		b1 = c.Mem.Read(pc + 1)
	}
	if length > 2 {
		b2 = c.Mem.Read(pc + 2)
	}
	return rawOp, op, b1, b2, length
}

// imm16 packs two bytes read little-endian, as every 8080 16-bit
// immediate and address operand is encoded (spec.md §3).
func imm16(lo, hi uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
