package emu

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
	"nescore/tests"
)

// TestNestest runs nestest in automation mode, which starts at $C000, and
// checks the result code of the documented instructions tests.
func TestNestest(t *testing.T) {
	if os.Getenv("NESCORE_ROMTESTS") != "1" {
		t.Skip("set NESCORE_ROMTESTS=1 to run the test roms")
	}

	log.Disable()
	path := filepath.Join(tests.RomsPath(t), "other", "nestest.nes")
	rom, err := ines.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint16(rom.PRG[0x3FFC:], 0xC000)

	nes, err := PowerUp(rom, EmulationConfig{DelayedWrites: true})
	if err != nil {
		t.Fatal(err)
	}

	// The undocumented instructions tests run after the documented ones and
	// may hit opcodes the CPU doesn't decode.
	for nes.CPU.Cycles < 26554 {
		if err := nes.Clock.Step(); err != nil {
			if !errors.Is(err, hw.ErrDecode) {
				t.Fatal(err)
			}
			break
		}
	}

	if code := nes.CPU.Bus.Peek8(0x0002); code != 0 {
		t.Fatalf("nestest failed with code %02Xh", code)
	}
}
