package emu

import (
	"nescore/hw"
	"nescore/hw/mappers"
	"nescore/ines"
)

type NES struct {
	CPU   *hw.CPU
	PPU   *hw.PPU
	Clock *hw.Clock
	Rom   *ines.Rom
}

// PowerUp builds the machine around the cartridge and puts it in its power-up
// state.
func PowerUp(rom *ines.Rom, cfg EmulationConfig) (*NES, error) {
	ppu := hw.NewPPU()
	ppu.InitBus()
	cpu := hw.NewCPU(ppu)
	cpu.InitBus()

	if err := mappers.Load(rom, cpu); err != nil {
		return nil, err
	}

	nes := &NES{
		CPU:   cpu,
		PPU:   ppu,
		Clock: hw.NewClock(cpu, cfg.DelayedWrites),
		Rom:   rom,
	}
	nes.Reset(false)
	return nes, nil
}

// Reset performs a soft reset (reset button) or a hard reset (power cycle).
func (nes *NES) Reset(soft bool) {
	if soft {
		nes.CPU.SoftReset()
		return
	}
	nes.Clock.Reset()
	nes.PPU.Reset()
	nes.CPU.Reset()
}

// RunFrame runs the machine until the PPU completes a frame.
func (nes *NES) RunFrame() error {
	return nes.Clock.RunFrame()
}
