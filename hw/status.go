package hw

// P is the processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := 0; i < 8; i++ {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) C() bool { return p&Carry != 0 }
func (p P) Z() bool { return p&Zero != 0 }
func (p P) I() bool { return p&Interrupt != 0 }
func (p P) D() bool { return p&Decimal != 0 }
func (p P) B() bool { return p&Break != 0 }
func (p P) V() bool { return p&Overflow != 0 }
func (p P) N() bool { return p&Negative != 0 }

func (p *P) setFlags(flags uint8) {
	*p |= P(flags)
}

func (p *P) clearFlags(flags uint8) {
	*p &= ^P(flags)
}

func (p *P) writeFlag(flag uint8, b bool) {
	if b {
		p.setFlags(flag)
	} else {
		p.clearFlags(flag)
	}
}

// carry returns the carry flag as 0 or 1.
func (p P) carry() uint8 {
	return uint8(p & Carry)
}

func (p *P) checkNZ(v uint8) {
	p.writeFlag(Zero, v == 0)
	p.writeFlag(Negative, v&0x80 != 0)
}

// pushed returns the value of the status register as pushed on the stack.
// Bit 5 is always set, bit 4 distinguishes BRK/PHP from hardware interrupts.
func (p P) pushed(brk bool) uint8 {
	v := uint8(p) | Reserved
	if brk {
		return v | Break
	}
	return v &^ Break
}

// pulled returns the value of the status register after pulling v from the
// stack (by PLP or RTI). Break doesn't exist in the register.
func pulled(v uint8) P {
	return P(v&^Break | Reserved)
}

func b2i(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
