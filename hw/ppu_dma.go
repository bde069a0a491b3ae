package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Number of CPU cycles the CPU is stalled during an OAM DMA transfer, plus one
// when $4014 is written on an odd cycle.
const oamDMACycles = 513

// ppuDMA handles the DMA transfer of OAM (sprites attributes) to the PPU.
//
// The 256 bytes are copied as soon as $4014 is written, and the CPU is stalled
// for the duration of the transfer by adding it to the current instruction
// cost.
type ppuDMA struct {
	cpu *CPU

	OAMDMA hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
}

func (dma *ppuDMA) InitBus(cpu *CPU) {
	hwio.MustInitRegs(dma)
	dma.cpu = cpu
}

func (dma *ppuDMA) WriteOAMDMA(_, page uint8) {
	cpu := dma.cpu
	ppu := cpu.PPU

	base := uint16(page) << 8
	for i := range uint16(256) {
		ppu.OAM[ppu.oamAddr] = cpu.Bus.Read8(base + i)
		ppu.oamAddr++
	}

	// The instruction runs on its first cycle but the write happens on its
	// last one.
	wcycle := cpu.Cycles + int64(cpu.budget) - 1
	stall := oamDMACycles
	if wcycle%2 == 1 {
		stall++
	}
	cpu.budget += stall

	log.ModDMA.DebugZ("OAM DMA").
		Hex8("page", page).
		Int64("cycle", wcycle).
		Int("stall", stall).
		End()
}
