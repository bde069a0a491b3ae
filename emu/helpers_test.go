package emu

import (
	"bytes"
	"testing"

	"nescore/emu/log"
	"nescore/ines"
)

// testProgram sets the backdrop color to $21, enables NMI then loops forever.
// The NMI handler counts the NMIs at $0010.
var testProgram = map[uint16][]byte{
	0x8000: {
		0x78,             // SEI
		0xA9, 0x3F,       // LDA #$3F
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x00,       // LDA #$00
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x21,       // LDA #$21
		0x8D, 0x07, 0x20, // STA $2007
		0xA9, 0x80,       // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000
		0x4C, 0x15, 0x80, // JMP $8015
	},
	0x8020: {
		0xE6, 0x10, // INC $10
		0x40,       // RTI
	},
	0xFFFA: {0x20, 0x80, 0x00, 0x80, 0x00, 0x80},
}

// buildRom returns a 16KB NROM cartridge holding the given code.
func buildRom(tb testing.TB, code map[uint16][]byte) *ines.Rom {
	tb.Helper()

	prg := make([]byte, ines.PRGBankSize)
	for addr, buf := range code {
		copy(prg[int(addr-0x8000)%ines.PRGBankSize:], buf)
	}
	img := []byte{'N', 'E', 'S', 0x1a, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	img = append(img, prg...)
	img = append(img, make([]byte, ines.CHRBankSize)...)

	rom := new(ines.Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		tb.Fatal(err)
	}
	return rom
}

func powerUpTest(tb testing.TB, code map[uint16][]byte) *NES {
	tb.Helper()

	log.Disable()
	nes, err := PowerUp(buildRom(tb, code), EmulationConfig{DelayedWrites: true})
	if err != nil {
		tb.Fatal(err)
	}
	return nes
}
