// package ines implements a Reader for roms in the iNES file format, used for
// the distribution of NES binary programs.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrFormat is returned for files that aren't valid iNES images.
	ErrFormat = errors.New("invalid iNES image")

	// ErrUnsupported is returned for valid images of cartridges that the
	// emulator can't run: only NROM (mapper 0) with 16 or 32KB of PRG ROM and
	// 8KB of CHR ROM are supported.
	ErrUnsupported = errors.New("unsupported cartridge")
)

const (
	PRGBankSize = 0x4000
	CHRBankSize = 0x2000
	trainerSize = 512
)

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRG     []byte // PRG ROM data (16 or 32KB)
	CHR     []byte // CHR ROM data (8KB)
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	// header
	var off int
	if err := rom.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	off += 16

	if err := rom.validate(); err != nil {
		return 0, err
	}

	// trainer
	if rom.HasTrainer() {
		if len(buf) < off+trainerSize {
			return 0, fmt.Errorf("%w: incomplete TRAINER section", ErrFormat)
		}
		rom.Trainer = buf[off : off+trainerSize]
		off += trainerSize
	}

	// PRG rom data
	if len(buf) < off+rom.prgsz {
		return 0, fmt.Errorf("%w: incomplete PRG section", ErrFormat)
	}
	rom.PRG = buf[off : off+rom.prgsz]
	off += rom.prgsz

	// CHR rom data
	if len(buf) < off+rom.chrsz {
		return 0, fmt.Errorf("%w: incomplete CHR section", ErrFormat)
	}
	rom.CHR = buf[off : off+rom.chrsz]

	return int64(len(buf)), nil
}

const Magic = "NES\x1a"

func (hdr *header) decode(p []byte) error {
	if len(p) < 16 {
		return fmt.Errorf("%w: too small, needs 16 bytes", ErrFormat)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("%w: invalid magic number", ErrFormat)
	}
	copy(hdr.raw[:], p[:16])

	hdr.prgsz = int(hdr.raw[4]) * PRGBankSize
	hdr.chrsz = int(hdr.raw[5]) * CHRBankSize
	return nil
}

func (hdr *header) validate() error {
	if n := hdr.PRGBanks(); n < 1 || n > 2 {
		return fmt.Errorf("%w: %d PRG ROM banks, want 1 or 2", ErrUnsupported, n)
	}
	if n := hdr.CHRBanks(); n != 1 {
		return fmt.Errorf("%w: %d CHR ROM banks, want 1", ErrUnsupported, n)
	}
	if m := hdr.Mapper(); m != 0 {
		return fmt.Errorf("%w: mapper %d", ErrUnsupported, m)
	}
	return nil
}

type header struct {
	raw   [16]byte
	prgsz int
	chrsz int
}

func (hdr *header) PRGBanks() int { return int(hdr.raw[4]) }
func (hdr *header) CHRBanks() int { return int(hdr.raw[5]) }

// VertMirroring reports whether the nametables are mirrored vertically
// (horizontal arrangement), rather than horizontally.
func (hdr *header) VertMirroring() bool {
	return hdr.raw[6]&0x01 != 0
}

// Has Trainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasPersistent indicates the presence of persistent memory in the rom.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// Mapper returns the mapper number, from the nibbles of bytes 6 and 7.
func (hdr *header) Mapper() uint8 {
	return hdr.raw[7]&0xF0 | hdr.raw[6]>>4
}
