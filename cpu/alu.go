package cpu

// This file implements the flag engine (spec.md §4.2): pure-ish
// helpers that compute Sign/Zero/Parity/AuxCarry/Carry from an 8-bit
// result, plus the ALU instruction bodies (ADD/SUB family, logical
// ops, DAA, rotates) that drive them.

// add8 computes x + y + carryIn (mod 256) and reports the carry and
// auxiliary-carry (carry out of bit 3) that the operation generated.
// Grounded on spec.md §4.2's add(x, y, carry_in) definition.
func add8(x, y uint8, carryIn bool) (result uint8, carryOut, auxCarry bool) {
	var cin uint16
	if carryIn {
		cin = 1
	}
	sum := uint16(x) + uint16(y) + cin
	result = uint8(sum)
	carryOut = sum >= 0x100
	// Open Question (spec.md §9): whether the low-nibble AuxCarry test
	// should be `> 0x0F` or `>= 0x10` when carry_in is set. This uses
	// `> 0x0F` uniformly (equivalent to >= 0x10 since both sides are
	// integers), which is the form 8080EXM/CPUTEST are built against.
	auxCarry = (x&0x0F)+(y&0x0F)+uint8(cin) > 0x0F
	return result, carryOut, auxCarry
}

// sub8 computes x - y - borrowIn via the documented 8080 discipline:
// add(x, ^y, !borrowIn) with the carry sense inverted. This is what
// correctly produces AuxCarry for SUB/SBB/CMP/DCR (spec.md §4.2).
func sub8(x, y uint8, borrowIn bool) (result uint8, borrowOut, auxCarry bool) {
	result, carryOut, auxCarry := add8(x, ^y, !borrowIn)
	return result, !carryOut, auxCarry
}

// addToA performs ADD/ADC against A, updating all five flags.
func (c *Chip) addToA(operand uint8, withCarry bool) {
	carryIn := withCarry && c.flag(FlagC)
	result, carryOut, auxCarry := add8(c.A, operand, carryIn)
	c.A = result
	c.setSZP(result)
	c.setFlag(FlagC, carryOut)
	c.setFlag(FlagAC, auxCarry)
}

// subFromA performs SUB/SBB against A, updating all five flags.
func (c *Chip) subFromA(operand uint8, withBorrow bool) {
	borrowIn := withBorrow && c.flag(FlagC)
	result, borrowOut, auxCarry := sub8(c.A, operand, borrowIn)
	c.A = result
	c.setSZP(result)
	c.setFlag(FlagC, borrowOut)
	c.setFlag(FlagAC, auxCarry)
}

// cmpWithA performs CMP/CPI: same as subFromA but discards the result.
func (c *Chip) cmpWithA(operand uint8) {
	result, borrowOut, auxCarry := sub8(c.A, operand, false)
	c.setSZP(result)
	c.setFlag(FlagC, borrowOut)
	c.setFlag(FlagAC, auxCarry)
}

// andWithA performs ANA/ANI. AuxCarry follows the 1981 Intel manual
// (OR of bit 3 of both operands), not the 1976 manual's "always
// cleared" — the 1981 behavior is required by 8080EXER/EXM/CPUTEST
// (spec.md §4.2, §9).
func (c *Chip) andWithA(operand uint8) {
	auxCarry := (c.A|operand)&0x08 != 0
	c.A &= operand
	c.setSZP(c.A)
	c.setFlag(FlagC, false)
	c.setFlag(FlagAC, auxCarry)
}

// xorWithA performs XRA/XRI.
func (c *Chip) xorWithA(operand uint8) {
	c.A ^= operand
	c.setSZP(c.A)
	c.setFlag(FlagC, false)
	c.setFlag(FlagAC, false)
}

// orWithA performs ORA/ORI.
func (c *Chip) orWithA(operand uint8) {
	c.A |= operand
	c.setSZP(c.A)
	c.setFlag(FlagC, false)
	c.setFlag(FlagAC, false)
}

// incDec8 implements INR/DCR's shared rule: S,Z,P,AC update but Carry
// is explicitly left untouched (spec.md §4.4's critical invariant).
func (c *Chip) incDec8(v uint8, inc bool) uint8 {
	var result uint8
	var auxCarry bool
	if inc {
		result, _, auxCarry = add8(v, 1, false)
	} else {
		result, _, auxCarry = sub8(v, 1, false)
	}
	c.setSZP(result)
	c.setFlag(FlagAC, auxCarry)
	return result
}

// daa implements the BCD adjustment described in spec.md §4.2, applied
// as the two literal sequential corrections the spec lists.
func (c *Chip) daa() {
	carry := c.flag(FlagC)
	auxCarry := c.flag(FlagAC)
	a := uint16(c.A)

	if a&0x0F > 9 || auxCarry {
		auxCarry = (a&0x0F)+0x06 > 0x0F
		a += 0x06
		if a > 0xFF {
			carry = true
		}
		a &= 0xFF
	} else {
		auxCarry = false
	}

	if a>>4 > 9 || c.flag(FlagC) || carry {
		a += 0x60
		carry = true
		a &= 0xFF
	}

	c.A = uint8(a)
	c.setFlag(FlagC, carry)
	c.setFlag(FlagAC, auxCarry)
	c.setSZP(c.A)
}

// rlc rotates A left circularly: bit 7 goes to Carry and wraps to bit 0.
func (c *Chip) rlc() {
	carry := c.A&0x80 != 0
	c.A = c.A<<1 | c.A>>7
	c.setFlag(FlagC, carry)
}

// rrc rotates A right circularly: bit 0 goes to Carry and wraps to bit 7.
func (c *Chip) rrc() {
	carry := c.A&0x01 != 0
	c.A = c.A>>1 | c.A<<7
	c.setFlag(FlagC, carry)
}

// ral rotates A left through Carry.
func (c *Chip) ral() {
	newCarry := c.A&0x80 != 0
	var in uint8
	if c.flag(FlagC) {
		in = 1
	}
	c.A = c.A<<1 | in
	c.setFlag(FlagC, newCarry)
}

// rar rotates A right through Carry.
func (c *Chip) rar() {
	newCarry := c.A&0x01 != 0
	var in uint8
	if c.flag(FlagC) {
		in = 0x80
	}
	c.A = c.A>>1 | in
	c.setFlag(FlagC, newCarry)
}
