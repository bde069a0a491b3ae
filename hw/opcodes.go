package hw

type opInfo struct {
	name      string
	mode      addrMode
	cost      uint8 // base cycle cost
	pageCross bool  // one more cycle when indexing crosses a page
	exec      func(*CPU, operand)
}

const px = true

// opcodes holds the documented instruction set plus the few unofficial
// opcodes used by test programs. Missing entries are decode failures.
var opcodes = [256]opInfo{
	0x69: {"ADC", imm, 2, false, (*CPU).adc},
	0x65: {"ADC", zpg, 3, false, (*CPU).adc},
	0x75: {"ADC", zpx, 4, false, (*CPU).adc},
	0x6D: {"ADC", abs, 4, false, (*CPU).adc},
	0x7D: {"ADC", abx, 4, px, (*CPU).adc},
	0x79: {"ADC", aby, 4, px, (*CPU).adc},
	0x61: {"ADC", izx, 6, false, (*CPU).adc},
	0x71: {"ADC", izy, 5, px, (*CPU).adc},

	0x29: {"AND", imm, 2, false, (*CPU).and},
	0x25: {"AND", zpg, 3, false, (*CPU).and},
	0x35: {"AND", zpx, 4, false, (*CPU).and},
	0x2D: {"AND", abs, 4, false, (*CPU).and},
	0x3D: {"AND", abx, 4, px, (*CPU).and},
	0x39: {"AND", aby, 4, px, (*CPU).and},
	0x21: {"AND", izx, 6, false, (*CPU).and},
	0x31: {"AND", izy, 5, px, (*CPU).and},

	0x0A: {"ASL", acc, 2, false, (*CPU).asl},
	0x06: {"ASL", zpg, 5, false, (*CPU).asl},
	0x16: {"ASL", zpx, 6, false, (*CPU).asl},
	0x0E: {"ASL", abs, 6, false, (*CPU).asl},
	0x1E: {"ASL", abx, 7, false, (*CPU).asl},

	0x90: {"BCC", rel, 2, false, (*CPU).bcc},
	0xB0: {"BCS", rel, 2, false, (*CPU).bcs},
	0xF0: {"BEQ", rel, 2, false, (*CPU).beq},
	0x30: {"BMI", rel, 2, false, (*CPU).bmi},
	0xD0: {"BNE", rel, 2, false, (*CPU).bne},
	0x10: {"BPL", rel, 2, false, (*CPU).bpl},
	0x50: {"BVC", rel, 2, false, (*CPU).bvc},
	0x70: {"BVS", rel, 2, false, (*CPU).bvs},

	0x24: {"BIT", zpg, 3, false, (*CPU).bit},
	0x2C: {"BIT", abs, 4, false, (*CPU).bit},

	0x00: {"BRK", imp, 7, false, (*CPU).brk},

	0x18: {"CLC", imp, 2, false, (*CPU).clc},
	0xD8: {"CLD", imp, 2, false, (*CPU).cld},
	0x58: {"CLI", imp, 2, false, (*CPU).cli},
	0xB8: {"CLV", imp, 2, false, (*CPU).clv},

	0xC9: {"CMP", imm, 2, false, (*CPU).cmp},
	0xC5: {"CMP", zpg, 3, false, (*CPU).cmp},
	0xD5: {"CMP", zpx, 4, false, (*CPU).cmp},
	0xCD: {"CMP", abs, 4, false, (*CPU).cmp},
	0xDD: {"CMP", abx, 4, px, (*CPU).cmp},
	0xD9: {"CMP", aby, 4, px, (*CPU).cmp},
	0xC1: {"CMP", izx, 6, false, (*CPU).cmp},
	0xD1: {"CMP", izy, 5, px, (*CPU).cmp},

	0xE0: {"CPX", imm, 2, false, (*CPU).cpx},
	0xE4: {"CPX", zpg, 3, false, (*CPU).cpx},
	0xEC: {"CPX", abs, 4, false, (*CPU).cpx},

	0xC0: {"CPY", imm, 2, false, (*CPU).cpy},
	0xC4: {"CPY", zpg, 3, false, (*CPU).cpy},
	0xCC: {"CPY", abs, 4, false, (*CPU).cpy},

	0xC6: {"DEC", zpg, 5, false, (*CPU).dec},
	0xD6: {"DEC", zpx, 6, false, (*CPU).dec},
	0xCE: {"DEC", abs, 6, false, (*CPU).dec},
	0xDE: {"DEC", abx, 7, false, (*CPU).dec},

	0xCA: {"DEX", imp, 2, false, (*CPU).dex},
	0x88: {"DEY", imp, 2, false, (*CPU).dey},

	0x49: {"EOR", imm, 2, false, (*CPU).eor},
	0x45: {"EOR", zpg, 3, false, (*CPU).eor},
	0x55: {"EOR", zpx, 4, false, (*CPU).eor},
	0x4D: {"EOR", abs, 4, false, (*CPU).eor},
	0x5D: {"EOR", abx, 4, px, (*CPU).eor},
	0x59: {"EOR", aby, 4, px, (*CPU).eor},
	0x41: {"EOR", izx, 6, false, (*CPU).eor},
	0x51: {"EOR", izy, 5, px, (*CPU).eor},

	0xE6: {"INC", zpg, 5, false, (*CPU).inc},
	0xF6: {"INC", zpx, 6, false, (*CPU).inc},
	0xEE: {"INC", abs, 6, false, (*CPU).inc},
	0xFE: {"INC", abx, 7, false, (*CPU).inc},

	0xE8: {"INX", imp, 2, false, (*CPU).inx},
	0xC8: {"INY", imp, 2, false, (*CPU).iny},

	0x4C: {"JMP", abs, 3, false, (*CPU).jmp},
	0x6C: {"JMP", ind, 5, false, (*CPU).jmp},
	0x20: {"JSR", abs, 6, false, (*CPU).jsr},

	0xA9: {"LDA", imm, 2, false, (*CPU).lda},
	0xA5: {"LDA", zpg, 3, false, (*CPU).lda},
	0xB5: {"LDA", zpx, 4, false, (*CPU).lda},
	0xAD: {"LDA", abs, 4, false, (*CPU).lda},
	0xBD: {"LDA", abx, 4, px, (*CPU).lda},
	0xB9: {"LDA", aby, 4, px, (*CPU).lda},
	0xA1: {"LDA", izx, 6, false, (*CPU).lda},
	0xB1: {"LDA", izy, 5, px, (*CPU).lda},

	0xA2: {"LDX", imm, 2, false, (*CPU).ldx},
	0xA6: {"LDX", zpg, 3, false, (*CPU).ldx},
	0xB6: {"LDX", zpy, 4, false, (*CPU).ldx},
	0xAE: {"LDX", abs, 4, false, (*CPU).ldx},
	0xBE: {"LDX", aby, 4, px, (*CPU).ldx},

	0xA0: {"LDY", imm, 2, false, (*CPU).ldy},
	0xA4: {"LDY", zpg, 3, false, (*CPU).ldy},
	0xB4: {"LDY", zpx, 4, false, (*CPU).ldy},
	0xAC: {"LDY", abs, 4, false, (*CPU).ldy},
	0xBC: {"LDY", abx, 4, px, (*CPU).ldy},

	0x4A: {"LSR", acc, 2, false, (*CPU).lsr},
	0x46: {"LSR", zpg, 5, false, (*CPU).lsr},
	0x56: {"LSR", zpx, 6, false, (*CPU).lsr},
	0x4E: {"LSR", abs, 6, false, (*CPU).lsr},
	0x5E: {"LSR", abx, 7, false, (*CPU).lsr},

	0xEA: {"NOP", imp, 2, false, (*CPU).nop},
	0x04: {"NOP", zpg, 3, false, (*CPU).nop}, // unofficial

	0x09: {"ORA", imm, 2, false, (*CPU).ora},
	0x05: {"ORA", zpg, 3, false, (*CPU).ora},
	0x15: {"ORA", zpx, 4, false, (*CPU).ora},
	0x0D: {"ORA", abs, 4, false, (*CPU).ora},
	0x1D: {"ORA", abx, 4, px, (*CPU).ora},
	0x19: {"ORA", aby, 4, px, (*CPU).ora},
	0x01: {"ORA", izx, 6, false, (*CPU).ora},
	0x11: {"ORA", izy, 5, px, (*CPU).ora},

	0x48: {"PHA", imp, 3, false, (*CPU).pha},
	0x08: {"PHP", imp, 3, false, (*CPU).php},
	0x68: {"PLA", imp, 4, false, (*CPU).pla},
	0x28: {"PLP", imp, 4, false, (*CPU).plp},

	0x2A: {"ROL", acc, 2, false, (*CPU).rol},
	0x26: {"ROL", zpg, 5, false, (*CPU).rol},
	0x36: {"ROL", zpx, 6, false, (*CPU).rol},
	0x2E: {"ROL", abs, 6, false, (*CPU).rol},
	0x3E: {"ROL", abx, 7, false, (*CPU).rol},

	0x6A: {"ROR", acc, 2, false, (*CPU).ror},
	0x66: {"ROR", zpg, 5, false, (*CPU).ror},
	0x76: {"ROR", zpx, 6, false, (*CPU).ror},
	0x6E: {"ROR", abs, 6, false, (*CPU).ror},
	0x7E: {"ROR", abx, 7, false, (*CPU).ror},

	0x40: {"RTI", imp, 6, false, (*CPU).rti},
	0x60: {"RTS", imp, 6, false, (*CPU).rts},

	0xE9: {"SBC", imm, 2, false, (*CPU).sbc},
	0xE5: {"SBC", zpg, 3, false, (*CPU).sbc},
	0xF5: {"SBC", zpx, 4, false, (*CPU).sbc},
	0xED: {"SBC", abs, 4, false, (*CPU).sbc},
	0xFD: {"SBC", abx, 4, px, (*CPU).sbc},
	0xF9: {"SBC", aby, 4, px, (*CPU).sbc},
	0xE1: {"SBC", izx, 6, false, (*CPU).sbc},
	0xF1: {"SBC", izy, 5, px, (*CPU).sbc},

	0x38: {"SEC", imp, 2, false, (*CPU).sec},
	0xF8: {"SED", imp, 2, false, (*CPU).sed},
	0x78: {"SEI", imp, 2, false, (*CPU).sei},

	0x85: {"STA", zpg, 3, false, (*CPU).sta},
	0x95: {"STA", zpx, 4, false, (*CPU).sta},
	0x8D: {"STA", abs, 4, false, (*CPU).sta},
	0x9D: {"STA", abx, 5, false, (*CPU).sta},
	0x99: {"STA", aby, 5, false, (*CPU).sta},
	0x81: {"STA", izx, 6, false, (*CPU).sta},
	0x91: {"STA", izy, 6, false, (*CPU).sta},

	0x86: {"STX", zpg, 3, false, (*CPU).stx},
	0x96: {"STX", zpy, 4, false, (*CPU).stx},
	0x8E: {"STX", abs, 4, false, (*CPU).stx},

	0x84: {"STY", zpg, 3, false, (*CPU).sty},
	0x94: {"STY", zpx, 4, false, (*CPU).sty},
	0x8C: {"STY", abs, 4, false, (*CPU).sty},

	0xAA: {"TAX", imp, 2, false, (*CPU).tax},
	0xA8: {"TAY", imp, 2, false, (*CPU).tay},
	0xBA: {"TSX", imp, 2, false, (*CPU).tsx},
	0x8A: {"TXA", imp, 2, false, (*CPU).txa},
	0x9A: {"TXS", imp, 2, false, (*CPU).txs},
	0x98: {"TYA", imp, 2, false, (*CPU).tya},

	0xE7: {"ISC", zpg, 5, false, (*CPU).isc}, // unofficial
}

/* load/store */

func (c *CPU) lda(oper operand) {
	c.A = c.load(oper)
	c.P.checkNZ(c.A)
}

func (c *CPU) ldx(oper operand) {
	c.X = c.load(oper)
	c.P.checkNZ(c.X)
}

func (c *CPU) ldy(oper operand) {
	c.Y = c.load(oper)
	c.P.checkNZ(c.Y)
}

func (c *CPU) sta(oper operand) { c.store(oper, c.A) }
func (c *CPU) stx(oper operand) { c.store(oper, c.X) }
func (c *CPU) sty(oper operand) { c.store(oper, c.Y) }

/* transfers */

func (c *CPU) tax(operand) { c.X = c.A; c.P.checkNZ(c.X) }
func (c *CPU) tay(operand) { c.Y = c.A; c.P.checkNZ(c.Y) }
func (c *CPU) txa(operand) { c.A = c.X; c.P.checkNZ(c.A) }
func (c *CPU) tya(operand) { c.A = c.Y; c.P.checkNZ(c.A) }
func (c *CPU) tsx(operand) { c.X = c.SP; c.P.checkNZ(c.X) }
func (c *CPU) txs(operand) { c.SP = c.X }

/* stack */

func (c *CPU) pha(operand) { c.push8(c.A) }
func (c *CPU) php(operand) { c.push8(c.P.pushed(true)) }

func (c *CPU) pla(operand) {
	c.A = c.pull8()
	c.P.checkNZ(c.A)
}

func (c *CPU) plp(operand) { c.P = pulled(c.pull8()) }

/* logical */

func (c *CPU) and(oper operand) {
	c.A &= c.load(oper)
	c.P.checkNZ(c.A)
}

func (c *CPU) eor(oper operand) {
	c.A ^= c.load(oper)
	c.P.checkNZ(c.A)
}

func (c *CPU) ora(oper operand) {
	c.A |= c.load(oper)
	c.P.checkNZ(c.A)
}

func (c *CPU) bit(oper operand) {
	val := c.load(oper)
	c.P.writeFlag(Zero, c.A&val == 0)
	c.P.writeFlag(Overflow, val&0x40 != 0)
	c.P.writeFlag(Negative, val&0x80 != 0)
}

/* increments, decrements */

func (c *CPU) inc(oper operand) {
	val := c.load(oper) + 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func (c *CPU) dec(oper operand) {
	val := c.load(oper) - 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func (c *CPU) inx(operand) { c.X++; c.P.checkNZ(c.X) }
func (c *CPU) iny(operand) { c.Y++; c.P.checkNZ(c.Y) }
func (c *CPU) dex(operand) { c.X--; c.P.checkNZ(c.X) }
func (c *CPU) dey(operand) { c.Y--; c.P.checkNZ(c.Y) }

/* shifts, rotates */

func (c *CPU) asl(oper operand) {
	val := c.load(oper)
	c.P.writeFlag(Carry, val&0x80 != 0)
	val <<= 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func (c *CPU) lsr(oper operand) {
	val := c.load(oper)
	c.P.writeFlag(Carry, val&0x01 != 0)
	val >>= 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func (c *CPU) rol(oper operand) {
	val := c.load(oper)
	carry := c.P.carry()
	c.P.writeFlag(Carry, val&0x80 != 0)
	val = val<<1 | carry
	c.store(oper, val)
	c.P.checkNZ(val)
}

func (c *CPU) ror(oper operand) {
	val := c.load(oper)
	carry := c.P.carry()
	c.P.writeFlag(Carry, val&0x01 != 0)
	val = val>>1 | carry<<7
	c.store(oper, val)
	c.P.checkNZ(val)
}

/* arithmetic */

func (c *CPU) adc(oper operand) { c.add(c.load(oper)) }
func (c *CPU) sbc(oper operand) { c.sub(c.load(oper)) }

// add computes A+val+C. The carry is folded into the operand before
// comparing signs, $7F+carry giving $80 which can only overflow a positive A.
func (c *CPU) add(val uint8) {
	a := c.A
	carry := c.P.carry()
	b := val + carry
	sum := uint16(a) + uint16(val) + uint16(carry)
	res := uint8(sum)

	var overflow bool
	if carry == 1 && b == 0x80 {
		overflow = a&0x80 == 0
	} else {
		overflow = a&0x80 == b&0x80 && a&0x80 != res&0x80
	}

	c.A = res
	c.P.writeFlag(Carry, sum >= 0x100)
	c.P.writeFlag(Overflow, overflow)
	c.P.checkNZ(res)
}

// sub computes A-val-(1-C), with the borrow folded into the operand.
func (c *CPU) sub(val uint8) {
	a := c.A
	borrow := 1 - c.P.carry()
	b := val + borrow
	diff := int(a) - int(val) - int(borrow)
	res := uint8(diff)

	var overflow bool
	if borrow == 1 && b == 0x80 {
		overflow = a&0x80 != 0
	} else {
		overflow = a&0x80 != b&0x80 && b&0x80 == res&0x80
	}

	c.A = res
	c.P.writeFlag(Carry, diff >= 0)
	c.P.writeFlag(Overflow, overflow)
	c.P.checkNZ(res)
}

func (c *CPU) compare(reg, val uint8) {
	c.P.writeFlag(Carry, reg >= val)
	c.P.writeFlag(Zero, reg == val)
	c.P.writeFlag(Negative, (reg-val)&0x80 != 0)
}

func (c *CPU) cmp(oper operand) { c.compare(c.A, c.load(oper)) }
func (c *CPU) cpx(oper operand) { c.compare(c.X, c.load(oper)) }
func (c *CPU) cpy(oper operand) { c.compare(c.Y, c.load(oper)) }

/* branches */

func (c *CPU) branch(oper operand, cond bool) {
	if !cond {
		return
	}
	c.budget++
	if pagesDiffer(c.PC, oper.addr) {
		c.budget++
	}
	c.PC = oper.addr
}

func (c *CPU) bcc(oper operand) { c.branch(oper, !c.P.C()) }
func (c *CPU) bcs(oper operand) { c.branch(oper, c.P.C()) }
func (c *CPU) bne(oper operand) { c.branch(oper, !c.P.Z()) }
func (c *CPU) beq(oper operand) { c.branch(oper, c.P.Z()) }
func (c *CPU) bpl(oper operand) { c.branch(oper, !c.P.N()) }
func (c *CPU) bmi(oper operand) { c.branch(oper, c.P.N()) }
func (c *CPU) bvc(oper operand) { c.branch(oper, !c.P.V()) }
func (c *CPU) bvs(oper operand) { c.branch(oper, c.P.V()) }

/* jumps, subroutines, interrupts */

func (c *CPU) jmp(oper operand) { c.PC = oper.addr }

func (c *CPU) jsr(oper operand) {
	c.push16(c.PC - 1)
	c.PC = oper.addr
}

func (c *CPU) rts(operand) { c.PC = c.pull16() + 1 }

func (c *CPU) brk(operand) {
	// BRK has a padding byte.
	c.push16(c.PC + 1)
	c.push8(c.P.pushed(true))
	c.P.setFlags(Interrupt)
	c.PC = c.Read16(IRQVector)
}

func (c *CPU) rti(operand) {
	c.P = pulled(c.pull8())
	c.PC = c.pull16()
}

func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Bus.Read8(addr)
	hi := c.Bus.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

/* flags */

func (c *CPU) clc(operand) { c.P.clearFlags(Carry) }
func (c *CPU) cld(operand) { c.P.clearFlags(Decimal) }
func (c *CPU) cli(operand) { c.P.clearFlags(Interrupt) }
func (c *CPU) clv(operand) { c.P.clearFlags(Overflow) }
func (c *CPU) sec(operand) { c.P.setFlags(Carry) }
func (c *CPU) sed(operand) { c.P.setFlags(Decimal) }
func (c *CPU) sei(operand) { c.P.setFlags(Interrupt) }

func (c *CPU) nop(operand) {}

/* unofficial */

// isc increments memory then subtracts it from A.
func (c *CPU) isc(oper operand) {
	val := c.load(oper) + 1
	c.store(oper, val)
	c.sub(val)
}
