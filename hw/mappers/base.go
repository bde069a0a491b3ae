package mappers

import (
	"fmt"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

type base struct {
	desc MapperDesc

	rom *ines.Rom
	cpu *hw.CPU
	ppu *hw.PPU
}

func ispow2(n int) bool {
	return n&(n-1) == 0
}

func newbase(desc MapperDesc, rom *ines.Rom, cpu *hw.CPU) (*base, error) {
	if !ispow2(len(rom.PRG)) {
		return nil, fmt.Errorf("only support PRG ROM with power of 2 size, got %d", len(rom.PRG))
	}
	if cpu.PPU == nil {
		return nil, fmt.Errorf("no PPU")
	}

	return &base{desc: desc, rom: rom, cpu: cpu, ppu: cpu.PPU}, nil
}

func (b *base) load() error {
	log.ModMapper.InfoZ("loading cartridge").
		String("mapper", b.desc.Name).
		Int("prg", len(b.rom.PRG)).
		Int("chr", len(b.rom.CHR)).
		Bool("vertical", b.rom.VertMirroring()).
		End()
	return b.desc.Load(b)
}

// copyCHRROM copies the 8KB CHR ROM into the PPU pattern tables.
func (b *base) copyCHRROM() {
	copy(b.ppu.PatternTables.Data, b.rom.CHR[:ines.CHRBankSize])
}

func (b *base) setNametableMirroring() {
	m := hw.HorzMirroring
	if b.rom.VertMirroring() {
		m = hw.VertMirroring
	}
	b.ppu.SetMirroring(m)
}
