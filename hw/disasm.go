package hw

import "fmt"

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

// Bytes returns the string representation of a DisasmOp, this is optimized
// version, suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

func (d DisasmOp) String() string {
	return string(d.Bytes())
}

// Disasm disassembles the instruction at pc, in the nestest log style. The
// effective address and the value it holds are computed with the current
// register values, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	peek8 := c.Bus.Peek8
	peek16 := func(addr uint16) uint16 {
		return uint16(peek8(addr+1))<<8 | uint16(peek8(addr))
	}
	zppeek16 := func(zp uint8) uint16 {
		return uint16(peek8(uint16(zp+1)))<<8 | uint16(peek8(uint16(zp)))
	}

	opcode := peek8(pc)
	op := &opcodes[opcode]
	if op.exec == nil {
		return DisasmOp{Opcode: "???", Buf: []byte{opcode}, PC: pc}
	}

	d := DisasmOp{
		Opcode: op.name,
		Buf:    make([]byte, op.mode.size()),
		PC:     pc,
	}
	for i := range d.Buf {
		d.Buf[i] = peek8(pc + uint16(i))
	}

	switch op.mode {
	case imp:
	case acc:
		d.Oper = "A"
	case imm:
		d.Oper = fmt.Sprintf("#$%02X", d.Buf[1])
	case rel:
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(d.Buf[1])))
	case zpg:
		d.Oper = fmt.Sprintf("$%02X = %02X", d.Buf[1], peek8(uint16(d.Buf[1])))
	case zpx:
		addr := d.Buf[1] + c.X
		d.Oper = fmt.Sprintf("$%02X,X @ %02X = %02X", d.Buf[1], addr, peek8(uint16(addr)))
	case zpy:
		addr := d.Buf[1] + c.Y
		d.Oper = fmt.Sprintf("$%02X,Y @ %02X = %02X", d.Buf[1], addr, peek8(uint16(addr)))
	case abs:
		addr := peek16(pc + 1)
		if op.name == "JMP" || op.name == "JSR" {
			d.Oper = fmt.Sprintf("$%04X", addr)
		} else {
			d.Oper = fmt.Sprintf("$%04X = %02X", addr, peek8(addr))
		}
	case abx:
		base := peek16(pc + 1)
		addr := base + uint16(c.X)
		d.Oper = fmt.Sprintf("$%04X,X @ %04X = %02X", base, addr, peek8(addr))
	case aby:
		base := peek16(pc + 1)
		addr := base + uint16(c.Y)
		d.Oper = fmt.Sprintf("$%04X,Y @ %04X = %02X", base, addr, peek8(addr))
	case ind:
		ptr := peek16(pc + 1)
		lo := peek8(ptr)
		hi := peek8(ptr&0xFF00 | uint16(uint8(ptr)+1))
		d.Oper = fmt.Sprintf("($%04X) = %04X", ptr, uint16(hi)<<8|uint16(lo))
	case izx:
		zp := d.Buf[1] + c.X
		addr := zppeek16(zp)
		d.Oper = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", d.Buf[1], zp, addr, peek8(addr))
	case izy:
		base := zppeek16(d.Buf[1])
		addr := base + uint16(c.Y)
		d.Oper = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", d.Buf[1], base, addr, peek8(addr))
	}
	return d
}
