package cpu

// This file implements the instruction executor (spec.md §4.4): Step,
// the interrupt/halt state machine, and the opcode dispatch itself.
// The MOV block (0x40-0x7F) and the eight ALU-against-register blocks
// (0x80-0xBF) decode their operand fields arithmetically rather than as
// 128 literal cases — the 8080's opcode map is regular enough there
// that this is the natural shape rather than a stylistic shortcut.

// Step executes exactly one instruction and returns the 3-byte
// instruction it ran (zero-padded past its actual length, alias bytes
// already resolved to what they executed as) together with the number
// of clock states it took. Callers that don't care about the opcode
// bytes are free to discard the first return value; cpm and the CLI's
// run loop only need the state count, but trace/test code (spec.md §6)
// wants both. If the CPU is halted, Step returns ErrHalted without
// advancing anything; Interrupt must be called to resume.
func (c *Chip) Step() ([3]uint8, int, error) {
	if c.halted {
		return [3]uint8{}, 0, ErrHalted{}
	}

	rawOp, op, b1, b2, length := c.fetch()
	if rawOp != op && c.Strict {
		return [3]uint8{}, 0, ErrUndefinedOpcode{Opcode: rawOp}
	}
	instr := [3]uint8{op, b1, b2}

	beforeLatch := c.latch
	c.PC += uint16(length)

	states, err := c.dispatch(op, b1, b2)
	if err != nil {
		return [3]uint8{}, 0, err
	}

	if beforeLatch == latchEnabling && c.latch == latchEnabling {
		c.latch = latchEnabled
	}
	return instr, states, nil
}

// Interrupt services a pending interrupt by running instr exactly as
// Step would run an instruction fetched from memory, except PC is
// neither read from nor advanced past it — the instruction is injected
// onto the bus rather than fetched. instr is typically an RST n
// encoding (push PC, jump to n*8) but any opcode is accepted and
// dispatched unconditionally. It clears the halt flag (a halted CPU
// wakes on interrupt) and sets the latch to Disabled before the
// injected instruction runs, returning the states that instruction
// consumed.
func (c *Chip) Interrupt(instr [3]uint8) (int, error) {
	if c.latch != latchEnabled {
		return 0, ErrInterruptNotEnabled{}
	}
	c.halted = false
	c.latch = latchDisabled
	return c.dispatch(instr[0], instr[1], instr[2])
}

func (c *Chip) push(v uint16) {
	c.SP -= 2
	c.Mem.Write(c.SP, uint8(v))
	c.Mem.Write(c.SP+1, uint8(v>>8))
}

func (c *Chip) pop() uint16 {
	lo := c.Mem.Read(c.SP)
	hi := c.Mem.Read(c.SP + 1)
	c.SP += 2
	return imm16(lo, hi)
}

func (c *Chip) callIf(take bool, target uint16) int {
	if take {
		c.push(c.PC)
		c.PC = target
		return 17
	}
	return 11
}

func (c *Chip) retIf(take bool) int {
	if take {
		c.PC = c.pop()
		return 11
	}
	return 5
}

// dispatch runs the instruction already classified by op (aliases
// already resolved) with its up-to-two operand bytes, and returns the
// clock states it took. c.PC has already been advanced past the whole
// instruction; branching/calling instructions overwrite it again here.
func (c *Chip) dispatch(op, b1, b2 uint8) (int, error) {
	switch {
	case op == 0x76: // HLT sits inside the MOV block's bit pattern.
		c.halted = true
		return 7, nil

	case op >= 0x40 && op <= 0x7F: // MOV r1,r2 (dst bits 5-3, src bits 2-0)
		dst := (op >> 3) & 0x07
		src := op & 0x07
		c.setReg8(dst, c.reg8(src))
		if dst == regM || src == regM {
			return 7, nil
		}
		return 5, nil

	case op >= 0x80 && op <= 0xBF: // ALU r (opcode bits 5-3 select the op, 2-0 select r)
		r := op & 0x07
		v := c.reg8(r)
		states := 4
		if r == regM {
			states = 7
		}
		switch (op >> 3) & 0x07 {
		case 0:
			c.addToA(v, false) // ADD
		case 1:
			c.addToA(v, true) // ADC
		case 2:
			c.subFromA(v, false) // SUB
		case 3:
			c.subFromA(v, true) // SBB
		case 4:
			c.andWithA(v) // ANA
		case 5:
			c.xorWithA(v) // XRA
		case 6:
			c.orWithA(v) // ORA
		case 7:
			c.cmpWithA(v) // CMP
		}
		return states, nil
	}

	switch op {
	case 0x00:
		return 4, nil // NOP

	case 0x01, 0x11, 0x21, 0x31: // LXI rp,d16
		c.setRP((op>>4)&0x03, imm16(b1, b2))
		return 10, nil

	case 0x02: // STAX B
		c.Mem.Write(c.BC(), c.A)
		return 7, nil
	case 0x12: // STAX D
		c.Mem.Write(c.DE(), c.A)
		return 7, nil
	case 0x0A: // LDAX B
		c.A = c.Mem.Read(c.BC())
		return 7, nil
	case 0x1A: // LDAX D
		c.A = c.Mem.Read(c.DE())
		return 7, nil

	case 0x03, 0x13, 0x23, 0x33: // INX rp
		code := (op >> 4) & 0x03
		c.setRP(code, c.rp(code)+1)
		return 5, nil
	case 0x0B, 0x1B, 0x2B, 0x3B: // DCX rp
		code := (op >> 4) & 0x03
		c.setRP(code, c.rp(code)-1)
		return 5, nil

	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C: // INR r
		r := (op >> 3) & 0x07
		c.setReg8(r, c.incDec8(c.reg8(r), true))
		if r == regM {
			return 10, nil
		}
		return 5, nil
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D: // DCR r
		r := (op >> 3) & 0x07
		c.setReg8(r, c.incDec8(c.reg8(r), false))
		if r == regM {
			return 10, nil
		}
		return 5, nil

	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E: // MVI r,d8
		r := (op >> 3) & 0x07
		c.setReg8(r, b1)
		if r == regM {
			return 10, nil
		}
		return 7, nil

	case 0x07: // RLC
		c.rlc()
		return 4, nil
	case 0x0F: // RRC
		c.rrc()
		return 4, nil
	case 0x17: // RAL
		c.ral()
		return 4, nil
	case 0x1F: // RAR
		c.rar()
		return 4, nil
	case 0x27: // DAA
		c.daa()
		return 4, nil
	case 0x2F: // CMA: complement A, flags untouched
		c.A = ^c.A
		return 4, nil
	case 0x37: // STC
		c.setFlag(FlagC, true)
		return 4, nil
	case 0x3F: // CMC
		c.setFlag(FlagC, !c.flag(FlagC))
		return 4, nil

	case 0x09, 0x19, 0x29, 0x39: // DAD rp: HL += rp, Carry only
		sum := uint32(c.HL()) + uint32(c.rp((op>>4)&0x03))
		c.setHL(uint16(sum))
		c.setFlag(FlagC, sum > 0xFFFF)
		return 10, nil

	case 0x22: // SHLD a16
		addr := imm16(b1, b2)
		c.Mem.Write(addr, c.L)
		c.Mem.Write(addr+1, c.H)
		return 16, nil
	case 0x2A: // LHLD a16
		addr := imm16(b1, b2)
		c.L = c.Mem.Read(addr)
		c.H = c.Mem.Read(addr + 1)
		return 16, nil
	case 0x32: // STA a16
		c.Mem.Write(imm16(b1, b2), c.A)
		return 13, nil
	case 0x3A: // LDA a16
		c.A = c.Mem.Read(imm16(b1, b2))
		return 13, nil

	case 0xC6: // ADI d8
		c.addToA(b1, false)
		return 7, nil
	case 0xCE: // ACI d8
		c.addToA(b1, true)
		return 7, nil
	case 0xD6: // SUI d8
		c.subFromA(b1, false)
		return 7, nil
	case 0xDE: // SBI d8
		c.subFromA(b1, true)
		return 7, nil
	case 0xE6: // ANI d8
		c.andWithA(b1)
		return 7, nil
	case 0xEE: // XRI d8
		c.xorWithA(b1)
		return 7, nil
	case 0xF6: // ORI d8
		c.orWithA(b1)
		return 7, nil
	case 0xFE: // CPI d8
		c.cmpWithA(b1)
		return 7, nil

	case 0xC3: // JMP a16 (also the 0xCB alias's target)
		c.PC = imm16(b1, b2)
		return 10, nil
	case 0xC2, 0xCA, 0xD2, 0xDA, 0xE2, 0xEA, 0xF2, 0xFA: // Jcc a16: same 10 states whether taken or not
		if c.condition((op >> 3) & 0x07) {
			c.PC = imm16(b1, b2)
		}
		return 10, nil

	case 0xCD: // CALL a16 (also the 0xDD/0xED/0xFD alias's target)
		c.push(c.PC)
		c.PC = imm16(b1, b2)
		return 17, nil
	case 0xC4, 0xCC, 0xD4, 0xDC, 0xE4, 0xEC, 0xF4, 0xFC: // Ccc a16
		return c.callIf(c.condition((op>>3)&0x07), imm16(b1, b2)), nil

	case 0xC9: // RET (also the 0xD9 alias's target)
		c.PC = c.pop()
		return 10, nil
	case 0xC0, 0xC8, 0xD0, 0xD8, 0xE0, 0xE8, 0xF0, 0xF8: // Rcc
		return c.retIf(c.condition((op>>3)&0x07)), nil

	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST n
		c.push(c.PC)
		c.PC = uint16(op&0x38) // n*8 falls directly out of bits 5-3
		return 11, nil

	case 0xC1, 0xD1, 0xE1: // POP rp (BC/DE/HL)
		c.setRP((op>>4)&0x03, c.pop())
		return 10, nil
	case 0xF1: // POP PSW
		c.setPSW(c.pop())
		return 10, nil
	case 0xC5, 0xD5, 0xE5: // PUSH rp (BC/DE/HL)
		c.push(c.rp((op >> 4) & 0x03))
		return 11, nil
	case 0xF5: // PUSH PSW
		c.push(c.PSW())
		return 11, nil

	case 0xEB: // XCHG
		c.H, c.L, c.D, c.E = c.D, c.E, c.H, c.L
		return 5, nil
	case 0xE3: // XTHL
		lo := c.Mem.Read(c.SP)
		hi := c.Mem.Read(c.SP + 1)
		c.Mem.Write(c.SP, c.L)
		c.Mem.Write(c.SP+1, c.H)
		c.L, c.H = lo, hi
		return 18, nil
	case 0xF9: // SPHL
		c.SP = c.HL()
		return 5, nil
	case 0xE9: // PCHL
		c.PC = c.HL()
		return 5, nil

	case 0xDB: // IN d8
		if c.Bus != nil {
			c.A = c.Bus.Input(b1)
		}
		return 10, nil
	case 0xD3: // OUT d8
		if c.Bus != nil {
			c.Bus.Output(b1, c.A)
		}
		return 10, nil

	case 0xF3: // DI
		c.latch = latchDisabled
		return 4, nil
	case 0xFB: // EI
		c.latch = latchEnabling
		return 4, nil

	default:
		return 0, InvalidCPUState{Reason: "dispatch: opcode not decoded"}
	}
}
