package mappers

import (
	"nescore/hw/hwio"
)

var NROM = MapperDesc{
	Name: "NROM",
	Load: loadNROM,
}

type nrom struct {
	PRGROM hwio.Mem `hwio:"offset=0x8000,vsize=0x8000,readonly"`
}

func loadNROM(b *base) error {
	nrom := &nrom{}
	hwio.MustInitRegs(nrom)

	// CPU mapping.

	// Dimension the PRGROM based on the length of the cartridge PRGROM.
	// 16KB PRGROM is mirrored at $C000 thanks to hwio.Mem 'vsize'.
	nrom.PRGROM.Data = make([]byte, len(b.rom.PRG))
	copy(nrom.PRGROM.Data, b.rom.PRG)

	b.cpu.Bus.MapBank(0x0000, nrom, 0)

	// PPU mapping.
	b.setNametableMirroring()
	b.copyCHRROM()
	return nil
}
