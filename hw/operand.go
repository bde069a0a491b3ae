package hw

type addrMode uint8

const (
	imp addrMode = iota // implied
	acc                 // accumulator
	imm                 // immediate
	rel                 // relative
	zpg                 // zero page
	zpx                 // zero page,X
	zpy                 // zero page,Y
	abs                 // absolute
	abx                 // absolute,X
	aby                 // absolute,Y
	ind                 // (indirect)
	izx                 // (indirect,X)
	izy                 // (indirect),Y
)

// size returns the number of bytes taken by an instruction using this
// addressing mode, opcode included.
func (m addrMode) size() uint16 {
	switch m {
	case imp, acc:
		return 1
	case abs, abx, aby, ind:
		return 3
	}
	return 2
}

// operand is the result of the decoding of an instruction.
type operand struct {
	addr  uint16 // effective address, or branch target
	acc   bool   // instruction operates on the accumulator
	cost  uint8  // base cycle cost
	extra uint8  // page crossing penalty
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// decode resolves the operand of the instruction which opcode has just been
// fetched, advancing PC past it.
func (c *CPU) decode(op *opInfo) operand {
	oper := operand{cost: op.cost}

	var crossed bool
	switch op.mode {
	case imp:
	case acc:
		oper.acc = true
	case imm:
		oper.addr = c.PC
		c.PC++
	case rel:
		off := int8(c.fetch8())
		oper.addr = c.PC + uint16(off)
	case zpg:
		oper.addr = uint16(c.fetch8())
	case zpx:
		oper.addr = uint16(c.fetch8() + c.X)
	case zpy:
		oper.addr = uint16(c.fetch8() + c.Y)
	case abs:
		oper.addr = c.fetch16()
	case abx:
		base := c.fetch16()
		oper.addr = base + uint16(c.X)
		crossed = pagesDiffer(base, oper.addr)
	case aby:
		base := c.fetch16()
		oper.addr = base + uint16(c.Y)
		crossed = pagesDiffer(base, oper.addr)
	case ind:
		// The pointer high byte is read without carrying into the page, so
		// JMP ($10FF) reads $10FF and $1000.
		ptr := c.fetch16()
		lo := c.Bus.Read8(ptr)
		hi := c.Bus.Read8(ptr&0xFF00 | uint16(uint8(ptr)+1))
		oper.addr = uint16(hi)<<8 | uint16(lo)
	case izx:
		oper.addr = c.zpRead16(c.fetch8() + c.X)
	case izy:
		base := c.zpRead16(c.fetch8())
		oper.addr = base + uint16(c.Y)
		crossed = pagesDiffer(base, oper.addr)
	}

	if crossed && op.pageCross {
		oper.extra = 1
	}
	return oper
}

// zpRead16 reads a 16-bit pointer from zero page, wrapping within it.
func (c *CPU) zpRead16(zp uint8) uint16 {
	lo := c.Bus.Read8(uint16(zp))
	hi := c.Bus.Read8(uint16(zp + 1))
	return uint16(hi)<<8 | uint16(lo)
}

// load reads the operand value.
func (c *CPU) load(oper operand) uint8 {
	if oper.acc {
		return c.A
	}
	return c.Bus.Read8(oper.addr)
}

// store writes the result of an instruction to its operand.
func (c *CPU) store(oper operand, val uint8) {
	if oper.acc {
		c.A = val
		return
	}
	c.Bus.Write8(oper.addr, val)
}
