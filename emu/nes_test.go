package emu

import (
	"errors"
	"testing"

	"nescore/hw"
)

func TestPowerUp(t *testing.T) {
	nes := powerUpTest(t, testProgram)

	for range 3 {
		if err := nes.RunFrame(); err != nil {
			t.Fatal(err)
		}
	}

	if nes.PPU.Frame != 3 {
		t.Errorf("PPU frame = %d, want 3", nes.PPU.Frame)
	}
	if got := nes.CPU.Read8(0x0010); got != 3 {
		t.Errorf("NMI count = %d, want 3", got)
	}
	if got := nes.PPU.Bus.Peek8(0x3F00); got != 0x21 {
		t.Errorf("backdrop color = %02X, want 21", got)
	}
	if !nes.PPU.PPUCTRL.GetBit(7) {
		t.Errorf("NMI not enabled in PPUCTRL")
	}
}

func TestNESReset(t *testing.T) {
	nes := powerUpTest(t, testProgram)
	if err := nes.RunFrame(); err != nil {
		t.Fatal(err)
	}

	t.Run("soft", func(t *testing.T) {
		nes.CPU.A = 0x55
		nes.Reset(true)
		for range 3 {
			if err := nes.Clock.Step(); err != nil {
				t.Fatal(err)
			}
			if nes.CPU.PC == 0x8000 {
				break
			}
		}
		if nes.CPU.PC != 0x8000 {
			t.Fatalf("PC = %04X after soft reset, want 8000", nes.CPU.PC)
		}
		if nes.CPU.A != 0x55 {
			t.Errorf("A = %02X, soft reset must preserve registers", nes.CPU.A)
		}
		if nes.PPU.Frame != 1 {
			t.Errorf("PPU frame = %d, soft reset must not reset the PPU", nes.PPU.Frame)
		}
	})

	t.Run("hard", func(t *testing.T) {
		nes.Reset(false)
		if nes.PPU.Frame != 0 || nes.PPU.Dots() != 0 {
			t.Errorf("PPU not reset: frame=%d dots=%d", nes.PPU.Frame, nes.PPU.Dots())
		}
		if nes.CPU.A != 0 || nes.CPU.SP != 0xFF {
			t.Errorf("CPU not reset: A=%02X SP=%02X", nes.CPU.A, nes.CPU.SP)
		}
		if err := nes.Clock.Step(); err != nil {
			t.Fatal(err)
		}
		if nes.CPU.PC != 0x8000 {
			t.Errorf("PC = %04X after hard reset, want 8000", nes.CPU.PC)
		}
	})
}

func TestNESDecodeError(t *testing.T) {
	nes := powerUpTest(t, map[uint16][]byte{
		0x8000: {0xEA, 0x02}, // NOP, then an unknown opcode
		0xFFFC: {0x00, 0x80},
	})

	err := nes.RunFrame()
	var derr *hw.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("RunFrame() = %v, want a DecodeError", err)
	}
	if derr.PC != 0x8001 || derr.Opcode != 0x02 {
		t.Errorf("got %+v, want PC=8001 opcode=02", derr)
	}
	if !nes.CPU.IsHalted() {
		t.Errorf("CPU not halted")
	}
}
