package hw

import "nescore/hw/hwio"

// loopy is the layout of the v and t PPU internal registers:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy struct {
	coarseX   uint8 // 5 bits
	coarseY   uint8 // 5 bits
	nametable uint8 // 2 bits
	fineY     uint8 // 3 bits
}

func (l loopy) pack() uint16 {
	var v uint16
	hwio.SetBits16(&v, 0, 5, uint16(l.coarseX))
	hwio.SetBits16(&v, 5, 5, uint16(l.coarseY))
	hwio.SetBits16(&v, 10, 2, uint16(l.nametable))
	hwio.SetBits16(&v, 12, 3, uint16(l.fineY))
	return v
}

func unpackLoopy(v uint16) loopy {
	return loopy{
		coarseX:   uint8(hwio.Bits16(v, 0, 5)),
		coarseY:   uint8(hwio.Bits16(v, 5, 5)),
		nametable: uint8(hwio.Bits16(v, 10, 2)),
		fineY:     uint8(hwio.Bits16(v, 12, 3)),
	}
}

func (l *loopy) setCoarseX(x uint8)   { l.coarseX = x & 0x1F }
func (l *loopy) setCoarseY(y uint8)   { l.coarseY = y & 0x1F }
func (l *loopy) setNametable(n uint8) { l.nametable = n & 0x03 }
func (l *loopy) setFineY(y uint8)     { l.fineY = y & 0x07 }

// incX increments the horizontal position, switching to the horizontally
// adjacent nametable when wrapping.
func (l *loopy) incX() {
	if l.coarseX == 31 {
		l.coarseX = 0
		l.nametable ^= 0b01
		return
	}
	l.coarseX++
}

// incY increments the vertical position. Row 29 is the last of a nametable,
// rows 30 and 31 are the attribute table: when software sets coarse Y there,
// it wraps at 31 without switching nametable.
func (l *loopy) incY() {
	if l.fineY < 7 {
		l.fineY++
		return
	}
	l.fineY = 0
	switch l.coarseY {
	case 29:
		l.coarseY = 0
		l.nametable ^= 0b10
	case 31:
		l.coarseY = 0
	default:
		l.coarseY++
	}
}

// copyX copies the horizontal position from t.
func (l *loopy) copyX(t loopy) {
	l.coarseX = t.coarseX
	l.nametable = l.nametable&0b10 | t.nametable&0b01
}

// copyY copies the vertical position from t.
func (l *loopy) copyY(t loopy) {
	l.coarseY = t.coarseY
	l.fineY = t.fineY
	l.nametable = l.nametable&0b01 | t.nametable&0b10
}

// tileAddr is the address of the nametable byte of the current tile.
func (l loopy) tileAddr() uint16 {
	return 0x2000 | l.pack()&0x0FFF
}

// attrAddr is the address of the attribute byte of the current tile.
func (l loopy) attrAddr() uint16 {
	return 0x23C0 | uint16(l.nametable)<<10 | uint16(l.coarseY>>2)<<3 | uint16(l.coarseX>>2)
}
