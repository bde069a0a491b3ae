package mappers

import (
	"fmt"

	"nescore/hw"
	"nescore/ines"
)

// Load maps the cartridge onto the CPU and PPU buses.
func Load(rom *ines.Rom, cpu *hw.CPU) error {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return fmt.Errorf("unsupported mapper %d", rom.Mapper())
	}
	base, err := newbase(desc, rom, cpu)
	if err != nil {
		return fmt.Errorf("mapper initialization failed: %w", err)
	}
	if err := base.load(); err != nil {
		return fmt.Errorf("failed to load mapper %s: %w", desc.Name, err)
	}
	return nil
}

type MapperDesc struct {
	Name string
	Load func(*base) error
}

var All = map[uint8]MapperDesc{
	0: NROM,
}
