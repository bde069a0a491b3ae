package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	// Number of PPU cycles of an even frame, odd frames are one cycle
	// shorter when rendering is enabled.
	FrameCycles = NumScanlines * NumCycles

	ScreenWidth  = 256
	ScreenHeight = 240
)

// Scanline regions.
const (
	postRenderLine = 240
	vblankLine     = 241
	preRenderLine  = 261
)

const (
	// PPUCTRL bits
	// $2000

	// Nametable selection mask
	// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ntselect = 0b11

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Sprite pattern table address for 8x8 sprites
	// (0: $0000; 1: $1000)
	spriteAddr = 3

	// Background pattern table address (0: $0000; 1: $1000)
	backgroundAddr = 4

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmi = 7
)

const (
	// PPUMASK bits
	// $2001

	// Show background in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostBg = 1

	// Show sprites in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostSprites = 2

	// Show background
	showBg = 3

	// Show sprites
	showSprites = 4
)

const (
	// PPUSTATUS bits
	// $2002

	// Sprite overflow, never set.
	spriteOverflow = 5

	// Sprite 0 Hit.  Set when a nonzero pixel of sprite 0 overlaps
	// a nonzero background pixel; cleared at dot 1 of the pre-render
	// line.  Used for raster timing.
	sprite0Hit = 6

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at dot 1 of line 241 (the line *after* the post-render
	// line); cleared after reading $2002 and at dot 1 of the
	// pre-render line.
	vblank = 7
)

// Number of frames the PPU runs before its output is sent to the video sink.
const DefaultWarmupFrames = 2

// A VideoSink receives the pixels produced by the PPU. EmitPixel is called
// once per visible dot, in raster order, with the 6-bit index of a color of
// the master palette. PresentFrame is called after the last pixel of a frame.
//
// The PPU only starts to emit frames once the sink is ready.
type VideoSink interface {
	Ready() bool
	EmitPixel(color uint8)
	PresentFrame()
}

type PPU struct {
	Bus *hwio.Table // PPU bus
	CPU *CPU

	Cycle    int   // Current cycle/pixel in scanline
	Scanline int   // Current scanline being drawn
	Frame    int64 // Number of completed frames

	// Total number of PPU cycles since power up.
	dots int64

	//	$0000-$0FFF	$1000	Pattern table 0
	//	$1000-$1FFF	$1000	Pattern table 1
	PatternTables hwio.Mem `hwio:"offset=0x0000,size=0x2000"`

	// 2KB of physical nametable memory. It's mapped as 4 logical nametables,
	// from $2000 to $2FFF and mirrored up to $3EFF, by SetMirroring.
	NameTables hwio.Mem `hwio:"size=0x800"`

	// $3F00-$3F1F	$0020	Palette RAM indexes
	// $3F20-$3FFF	$00E0	Mirrors of $3F00-$3F1F
	Palettes hwio.Device `hwio:"offset=0x3F00,size=0x100,rcb,pcb,wcb"`
	palette  [0x20]uint8

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff
	PPUCTRL   hwio.Reg8 `hwio:"bank=1,offset=0x0,writeonly,wcb"`
	PPUMASK   hwio.Reg8 `hwio:"bank=1,offset=0x1,writeonly,wcb"`
	PPUSTATUS hwio.Reg8 `hwio:"bank=1,offset=0x2,readonly,rcb,pcb"`
	OAMADDR   hwio.Reg8 `hwio:"bank=1,offset=0x3,writeonly,wcb"`
	OAMDATA   hwio.Reg8 `hwio:"bank=1,offset=0x4,rcb,pcb,wcb"`
	PPUSCROLL hwio.Reg8 `hwio:"bank=1,offset=0x5,writeonly,wcb"`
	PPUADDR   hwio.Reg8 `hwio:"bank=1,offset=0x6,writeonly,wcb"`
	PPUDATA   hwio.Reg8 `hwio:"bank=1,offset=0x7,rcb,pcb,wcb"`

	// Primary OAM: 64 sprites, 4 bytes each.
	OAM     [256]uint8
	oamAddr uint8

	// VRAM address (v), temporary VRAM address (t), fine X scroll and the
	// write toggle shared by PPUSCROLL and PPUADDR.
	vramAddr    loopy
	vramTmp     loopy
	finex       uint8
	writeLatch  bool
	ppuDataRbuf uint8

	bg  bgPipeline
	spr spritePipeline

	// Video output.
	Video        VideoSink
	WarmupFrames int
	emitting     bool // whether the current frame is sent to Video

	trace TraceFunc
}

func NewPPU() *PPU {
	return &PPU{
		Bus:          hwio.NewTable("ppu"),
		WarmupFrames: DefaultWarmupFrames,
	}
}

func (p *PPU) InitBus() {
	hwio.MustInitRegs(p)
	p.Bus.MapBank(0x0000, p, 0)
	p.SetMirroring(HorzMirroring)
}

// Mirroring describes how the 4 logical nametables are mapped onto the 2KB
// of nametable memory.
type Mirroring uint8

const (
	HorzMirroring Mirroring = iota // $2000=$2400, $2800=$2C00
	VertMirroring                  // $2000=$2800, $2400=$2C00
)

func (m Mirroring) String() string {
	if m == VertMirroring {
		return "vertical"
	}
	return "horizontal"
}

// SetMirroring maps the nametables on the PPU bus.
func (p *PPU) SetMirroring(m Mirroring) {
	A := p.NameTables.Data[:0x400]
	B := p.NameTables.Data[0x400:0x800]

	var nt1, nt2, nt3, nt4 []byte
	switch m {
	case HorzMirroring:
		nt1, nt2 = A, A
		nt3, nt4 = B, B
	case VertMirroring:
		nt1, nt2 = A, B
		nt3, nt4 = A, B
	}

	p.Bus.MapMemorySlice(0x2000, 0x23FF, nt1, false)
	p.Bus.MapMemorySlice(0x2400, 0x27FF, nt2, false)
	p.Bus.MapMemorySlice(0x2800, 0x2BFF, nt3, false)
	p.Bus.MapMemorySlice(0x2C00, 0x2FFF, nt4, false)

	// Mirrors
	p.Bus.MapMemorySlice(0x3000, 0x33FF, nt1, false)
	p.Bus.MapMemorySlice(0x3400, 0x37FF, nt2, false)
	p.Bus.MapMemorySlice(0x3800, 0x3BFF, nt3, false)
	p.Bus.MapMemorySlice(0x3C00, 0x3EFF, nt4, false)

	log.ModPPU.DebugZ("nametable mirroring").Stringer("mode", m).End()
}

// Reset puts the PPU in its power-up state. Memories are left untouched.
func (p *PPU) Reset() {
	p.Scanline = 0
	p.Cycle = 0
	p.Frame = 0
	p.dots = 0

	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSTATUS.Value = 0
	p.oamAddr = 0

	p.vramAddr = loopy{}
	p.vramTmp = loopy{}
	p.finex = 0
	p.writeLatch = false
	p.ppuDataRbuf = 0

	p.bg = bgPipeline{}
	p.spr = spritePipeline{}
	p.emitting = false
}

// Dots returns the number of cycles the PPU ran since power up.
func (p *PPU) Dots() int64 { return p.dots }

func (p *PPU) bgEnabled() bool      { return p.PPUMASK.GetBit(showBg) }
func (p *PPU) spritesEnabled() bool { return p.PPUMASK.GetBit(showSprites) }

func (p *PPU) renderingEnabled() bool {
	return p.bgEnabled() || p.spritesEnabled()
}

// Tick runs one PPU cycle.
func (p *PPU) Tick() {
	switch {
	case p.Scanline < postRenderLine:
		if p.Scanline == 0 && p.Cycle == 0 {
			p.startFrame()
		}
		p.renderDot()
	case p.Scanline == vblankLine:
		if p.Cycle == 1 {
			p.startVBlank()
		}
	case p.Scanline == preRenderLine:
		if p.Cycle == 1 {
			// Clear vblank, sprite0Hit and spriteOverflow
			const mask = 1<<vblank | 1<<sprite0Hit | 1<<spriteOverflow
			p.PPUSTATUS.ClearBits(mask)
		}
		p.renderDot()
	}

	p.dots++
	p.Cycle++

	// On odd frames, when rendering, the last cycle of the pre-render line
	// is skipped.
	if p.Scanline == preRenderLine && p.Cycle == NumCycles-1 && p.Frame%2 == 1 && p.renderingEnabled() {
		p.Cycle++
	}

	if p.Cycle >= NumCycles {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline >= NumScanlines {
			p.Scanline = 0
			p.endFrame()
		}
	}
}

func (p *PPU) startFrame() {
	p.emitting = p.Video != nil && p.Frame >= int64(p.WarmupFrames) && p.Video.Ready()
}

func (p *PPU) endFrame() {
	p.Frame++
	if p.trace != nil {
		p.trace(p.event(TraceFrame))
	}
}

func (p *PPU) startVBlank() {
	p.PPUSTATUS.SetBit(vblank)
	if p.PPUCTRL.GetBit(nmi) {
		p.raiseNMI()
	}
	if p.trace != nil {
		p.trace(p.event(TraceVBlank))
	}
}

func (p *PPU) raiseNMI() {
	if p.CPU != nil {
		p.CPU.SetNMI()
	}
}

func (p *PPU) event(kind TraceKind) TraceEvent {
	if p.CPU != nil {
		return p.CPU.event(kind)
	}
	return TraceEvent{Kind: kind, Frame: p.Frame, Scanline: p.Scanline, Dot: p.Cycle}
}

/* PPU bus */

// Palette RAM. Entries $10/$14/$18/$1C are mirrors of $00/$04/$08/$0C.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx&0x13 == 0x10 {
		idx &^= 0x10
	}
	return idx
}

func (p *PPU) ReadPALETTES(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) PeekPALETTES(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) WritePALETTES(addr uint16, val uint8) {
	// The whole byte is kept, only 6 bits select a color at output.
	p.palette[paletteIndex(addr)] = val
}

/* CPU-exposed registers */

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()

	// Enabling NMI while already in vblank raises NMI immediately.
	if old&(1<<nmi) == 0 && val&(1<<nmi) != 0 && p.PPUSTATUS.GetBit(vblank) {
		p.raiseNMI()
	}

	// Transfer the nametable bits.
	p.vramTmp.setNametable(val & ntselect)
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	ret := p.PeekPPUSTATUS(val)
	p.writeLatch = false
	p.PPUSTATUS.ClearBit(vblank)
	return ret
}

func (p *PPU) PeekPPUSTATUS(val uint8) uint8 {
	return val & (1<<vblank | 1<<sprite0Hit | 1<<spriteOverflow)
}

// OAMADDR: $2003
func (p *PPU) WriteOAMADDR(old, val uint8) {
	p.oamAddr = val
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(_ uint8) uint8 {
	return p.OAM[p.oamAddr]
}

func (p *PPU) PeekOAMDATA(_ uint8) uint8 {
	return p.OAM[p.oamAddr]
}

func (p *PPU) WriteOAMDATA(old, val uint8) {
	p.OAM[p.oamAddr] = val
	p.oamAddr++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).End()

	if !p.writeLatch { // first write
		p.finex = val & 0b111
		p.vramTmp.setCoarseX(val >> 3)
	} else { // second write
		p.vramTmp.setFineY(val & 0b111)
		p.vramTmp.setCoarseY(val >> 3)
	}

	p.writeLatch = !p.writeLatch
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	t := p.vramTmp.pack()
	if !p.writeLatch { // first write
		// Bit 14 of t gets cleared.
		t = t&0x00FF | uint16(val&0b11_1111)<<8
		p.vramTmp = unpackLoopy(t)
	} else { // second write
		t = t&0xFF00 | uint16(val)
		p.vramTmp = unpackLoopy(t)
		p.vramAddr = p.vramTmp
	}

	p.writeLatch = !p.writeLatch
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(_ uint8) uint8 {
	addr := p.vramAddr.pack() & 0x3FFF

	var val uint8
	if addr < 0x3F00 {
		// Reading VRAM is too slow so the actual data
		// will be returned at the next read.
		val = p.ppuDataRbuf
		p.ppuDataRbuf = p.Bus.Read8(addr)
	} else {
		// Reading palette data is immediate, the buffer gets the
		// nametable byte 'under' the palette.
		val = p.Bus.Read8(addr)
		p.ppuDataRbuf = p.Bus.Read8(addr & 0x2FFF)
	}

	log.ModPPU.DebugZ("VRAM read").
		Hex16("addr", addr).
		Hex8("val", val).
		End()

	p.incVRAMaddr()
	return val
}

func (p *PPU) PeekPPUDATA(_ uint8) uint8 {
	addr := p.vramAddr.pack() & 0x3FFF
	if addr < 0x3F00 {
		return p.ppuDataRbuf
	}
	return p.Bus.Peek8(addr)
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(old, val uint8) {
	addr := p.vramAddr.pack() & 0x3FFF
	p.Bus.Write8(addr, val)

	log.ModPPU.DebugZ("VRAM write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()

	p.incVRAMaddr()
}

// After each i/o on PPUDATA, v is incremented.
func (p *PPU) incVRAMaddr() {
	incr := uint16(1)
	if p.PPUCTRL.GetBit(vramIncr) {
		incr = 32
	}
	p.vramAddr = unpackLoopy(p.vramAddr.pack() + incr)
}
