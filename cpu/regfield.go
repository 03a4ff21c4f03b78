package cpu

// The 8080 encodes an 8-bit register operand in 3 bits of many opcodes
// (000=B 001=C 010=D 011=E 100=H 101=L 110=M 111=A) and a register pair
// in 2 bits (00=BC 01=DE 10=HL 11=SP, or PSW in PUSH/POP's place of SP).
// This file centralizes both so MOV/MVI/ALU/INR/DCR/LXI/DAD/INX/DCX/
// PUSH/POP all share one decode path, same as the teacher's curried
// load/store helpers for addressing modes.

const regM = 6

// reg8 reads one of the eight 3-bit-encoded operands, treating code 6
// as "memory pointed to by HL" rather than a register.
func (c *Chip) reg8(code uint8) uint8 {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case regM:
		return c.Mem.Read(c.HL())
	case 7:
		return c.A
	default:
		panic("reg8: code out of range")
	}
}

func (c *Chip) setReg8(code uint8, v uint8) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case regM:
		c.Mem.Write(c.HL(), v)
	case 7:
		c.A = v
	default:
		panic("setReg8: code out of range")
	}
}

// rp reads one of the four 2-bit-encoded register pairs (BC/DE/HL/SP).
func (c *Chip) rp(code uint8) uint16 {
	switch code {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	case 3:
		return c.SP
	default:
		panic("rp: code out of range")
	}
}

func (c *Chip) setRP(code uint8, v uint16) {
	switch code {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	case 3:
		c.SP = v
	default:
		panic("setRP: code out of range")
	}
}

// condition decodes a Jcc/Ccc/Rcc 3-bit condition field: 000=NZ 001=Z
// 010=NC 011=C 100=PO 101=PE 110=P 111=M.
func (c *Chip) condition(code uint8) bool {
	switch code {
	case 0:
		return !c.flag(FlagZ)
	case 1:
		return c.flag(FlagZ)
	case 2:
		return !c.flag(FlagC)
	case 3:
		return c.flag(FlagC)
	case 4:
		return !c.flag(FlagP)
	case 5:
		return c.flag(FlagP)
	case 6:
		return !c.flag(FlagS)
	case 7:
		return c.flag(FlagS)
	default:
		panic("condition: code out of range")
	}
}
