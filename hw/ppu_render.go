package hw

import (
	"nescore/hw/hwio"
)

// bgPipeline holds the background rendering state: the latches filled by the
// fetches of the next tile, and the shift registers of the 2 tiles being
// rendered.
type bgPipeline struct {
	// latches
	ntByte uint8
	atBits uint8 // 2-bit palette of the next tile
	patLo  uint8
	patHi  uint8

	// shift registers
	shiftPatLo uint16
	shiftPatHi uint16
	shiftAtLo  uint16
	shiftAtHi  uint16
}

// load reloads the low bytes of the shift registers with the latched tile.
func (bg *bgPipeline) load() {
	bg.shiftPatLo = bg.shiftPatLo&0xFF00 | uint16(bg.patLo)
	bg.shiftPatHi = bg.shiftPatHi&0xFF00 | uint16(bg.patHi)

	// Attribute bits are broadcast to all the 8 pixels of the tile.
	bg.shiftAtLo &= 0xFF00
	if bg.atBits&0b01 != 0 {
		bg.shiftAtLo |= 0x00FF
	}
	bg.shiftAtHi &= 0xFF00
	if bg.atBits&0b10 != 0 {
		bg.shiftAtHi |= 0x00FF
	}
}

func (bg *bgPipeline) shift() {
	bg.shiftPatLo <<= 1
	bg.shiftPatHi <<= 1
	bg.shiftAtLo <<= 1
	bg.shiftAtHi <<= 1
}

// pixel returns the 4-bit palette index of the current background pixel.
func (bg *bgPipeline) pixel(finex uint8) uint8 {
	bit := 15 - uint(finex)
	p0 := uint8(bg.shiftPatLo>>bit) & 1
	p1 := uint8(bg.shiftPatHi>>bit) & 1
	a0 := uint8(bg.shiftAtLo>>bit) & 1
	a1 := uint8(bg.shiftAtHi>>bit) & 1
	return a1<<3 | a0<<2 | p1<<1 | p0
}

// A spriteSlot is one of the 8 sprites output units.
type spriteSlot struct {
	lo, hi uint8 // pattern shift registers
	attr   uint8
	x      uint8 // X countdown
	active bool
}

type spritePipeline struct {
	secOAM [32]uint8
	count  int // number of sprites found during evaluation

	// Sprite 0 has been found in range during the evaluation of the current
	// line, which feeds the sprites of the next line.
	spr0Next bool
	// Sprite 0 is in slot 0 for the current line.
	spr0Line bool

	slots [8]spriteSlot
}

// Sprite attribute bits.
const (
	sprPalette  = 0b11
	sprPriority = 5 // 0: in front of background; 1: behind background
	sprFlipH    = 6
	sprFlipV    = 7
)

// Sprites are 8 pixels high.
const spriteHeight = 8

// renderDot runs a cycle of a visible or pre-render scanline.
func (p *PPU) renderDot() {
	dot := p.Cycle
	visible := p.Scanline < postRenderLine

	if p.renderingEnabled() {
		p.backgroundDot(dot)
		if visible {
			p.evaluateSprites(dot)
		}
		if dot >= 257 && dot <= 320 {
			if visible {
				p.fetchSprites(dot)
			} else if dot == 257 {
				// No sprites on the first line.
				p.spr.count = 0
				p.spr.spr0Line = false
				p.spr.slots = [8]spriteSlot{}
			}
		}
	}

	if visible && dot >= 1 && dot <= 256 {
		p.renderPixel(dot - 1)
		if dot == 256 && p.Scanline == postRenderLine-1 && p.emitting {
			p.Video.PresentFrame()
		}
	}
}

func (p *PPU) backgroundDot(dot int) {
	inFetch := (dot >= 1 && dot <= 256) || (dot >= 321 && dot <= 336)
	if (dot >= 2 && dot <= 257) || (dot >= 322 && dot <= 337) {
		p.bg.shift()
	}

	if inFetch || dot == 337 {
		switch (dot - 1) % 8 {
		case 0:
			if dot != 1 {
				p.bg.load()
			}
			if inFetch {
				p.bg.ntByte = p.Bus.Read8(p.vramAddr.tileAddr())
			}
		case 2:
			at := p.Bus.Read8(p.vramAddr.attrAddr())
			if p.vramAddr.coarseY&0b10 != 0 {
				at >>= 4
			}
			if p.vramAddr.coarseX&0b10 != 0 {
				at >>= 2
			}
			p.bg.atBits = at & 0b11
		case 4:
			p.bg.patLo = p.Bus.Read8(p.bgPatternAddr())
		case 6:
			p.bg.patHi = p.Bus.Read8(p.bgPatternAddr() + 8)
		case 7:
			p.vramAddr.incX()
		}
	}

	switch {
	case dot == 256:
		p.vramAddr.incY()
	case dot == 257:
		p.bg.load()
		p.vramAddr.copyX(p.vramTmp)
	case dot == 338 || dot == 340:
		// Unused nametable fetches.
		p.bg.ntByte = p.Bus.Read8(p.vramAddr.tileAddr())
	case p.Scanline == preRenderLine && dot >= 280 && dot <= 304:
		p.vramAddr.copyY(p.vramTmp)
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	base := uint16(p.PPUCTRL.GetBiti(backgroundAddr)) << 12
	return base | uint16(p.bg.ntByte)<<4 | uint16(p.vramAddr.fineY)
}

// evaluateSprites fills secondary OAM with the sprites in range of the current
// line, which are rendered on the next one. Secondary OAM is cleared during
// dots 1-64, then each of the 64 sprites is evaluated every 3 dots during dots
// 65-256.
func (p *PPU) evaluateSprites(dot int) {
	switch {
	case dot == 1:
		for i := range p.spr.secOAM {
			p.spr.secOAM[i] = 0xFF
		}
		p.spr.count = 0
		p.spr.spr0Next = false
	case dot >= 65 && dot <= 256 && (dot-65)%3 == 0:
		n := (dot - 65) / 3
		if p.spr.count == len(p.spr.slots) {
			// No sprite overflow.
			return
		}
		y := p.OAM[n*4]
		row := p.Scanline - int(y)
		if row < 0 || row >= spriteHeight {
			return
		}
		copy(p.spr.secOAM[p.spr.count*4:], p.OAM[n*4:n*4+4])
		p.spr.count++
		if n == 0 {
			p.spr.spr0Next = true
		}
	}
}

// fetchSprites loads the sprite slots, during dots 257-320. Each slot takes 8
// dots: Y, tile index, attribute and X from secondary OAM, then the pattern of
// the sprite row.
func (p *PPU) fetchSprites(dot int) {
	i := (dot - 257) / 8
	slot := &p.spr.slots[i]
	sprite := p.spr.secOAM[i*4 : i*4+4]

	if dot == 257 {
		p.spr.spr0Line = p.spr.spr0Next
	}

	switch (dot - 257) % 8 {
	case 2:
		slot.attr = sprite[2]
	case 3:
		slot.x = sprite[3]
		slot.active = slot.x == 0
	case 5:
		slot.lo = p.spritePattern(i, 0)
	case 7:
		slot.hi = p.spritePattern(i, 8)
	}
}

// spritePattern fetches one of the bitplanes of the row of the sprite in
// slot i, for the next line. Unused slots are transparent.
func (p *PPU) spritePattern(i int, plane uint16) uint8 {
	if i >= p.spr.count {
		return 0
	}
	sprite := p.spr.secOAM[i*4 : i*4+4]
	row := uint16(p.Scanline-int(sprite[0])) & 7
	attr := sprite[2]
	if hwio.GetBit8(attr, sprFlipV) {
		row = 7 - row
	}

	base := uint16(p.PPUCTRL.GetBiti(spriteAddr)) << 12
	addr := base | uint16(sprite[1])<<4 | plane | row
	pat := p.Bus.Read8(addr)
	if hwio.GetBit8(attr, sprFlipH) {
		pat = hwio.Reverse8(pat)
	}
	return pat
}

// spritePixel returns the 2-bit pattern of the first opaque sprite at the
// current dot, its slot and attributes, or 0 if no sprite is opaque.
func (p *PPU) spritePixel() (pix uint8, slot int, attr uint8) {
	for i := range p.spr.slots {
		s := &p.spr.slots[i]
		if !s.active {
			continue
		}
		pix = (s.hi>>7)<<1 | s.lo>>7
		if pix != 0 {
			return pix, i, s.attr
		}
	}
	return 0, -1, 0
}

// stepSprites advances the sprite slots by one pixel.
func (p *PPU) stepSprites() {
	for i := range p.spr.slots {
		s := &p.spr.slots[i]
		if s.active {
			s.lo <<= 1
			s.hi <<= 1
			continue
		}
		s.x--
		if s.x == 0 {
			s.active = true
		}
	}
}

// renderPixel composes the background and sprite pixels at column x of the
// current line, and sends the color to the video sink.
func (p *PPU) renderPixel(x int) {
	var bgPix uint8
	if p.bgEnabled() && (x >= 8 || p.PPUMASK.GetBit(leftmostBg)) {
		bgPix = p.bg.pixel(p.finex)
	}

	var (
		sprPix  uint8
		sprAttr uint8
		slot    = -1
	)
	if p.spritesEnabled() && (x >= 8 || p.PPUMASK.GetBit(leftmostSprites)) {
		sprPix, slot, sprAttr = p.spritePixel()
	}

	bgOpaque := bgPix&0b11 != 0
	sprOpaque := sprPix != 0

	// Sprite 0 hit.
	if bgOpaque && sprOpaque && slot == 0 && p.spr.spr0Line && x != 255 && !p.PPUSTATUS.GetBit(sprite0Hit) {
		p.PPUSTATUS.SetBit(sprite0Hit)
		if p.trace != nil {
			p.trace(p.event(TraceSprite0Hit))
		}
	}

	var idx uint8
	switch {
	case sprOpaque && (!bgOpaque || !hwio.GetBit8(sprAttr, sprPriority)):
		idx = 0x10 | (sprAttr&sprPalette)<<2 | sprPix
	case bgOpaque:
		idx = bgPix
	}

	if p.renderingEnabled() {
		p.stepSprites()
	}

	if p.emitting {
		p.Video.EmitPixel(p.palette[paletteIndex(uint16(idx))] & 0x3F)
	}
}
