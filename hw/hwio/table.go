package hwio

import (
	"fmt"

	"nescore/emu/log"
)

// BankIO8 is implemented by anything that can be mapped on a Table.
type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads a byte without triggering any side effect
	// (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	lo := uint8(val & 0xff)
	hi := uint8(val >> 8)
	b.Write8(addr, lo)
	b.Write8(addr+1, hi)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Table is a 16-bit address space onto which registers, memory areas and
// devices are mapped.
type Table struct {
	Name string

	// Unmapped, if set, handles all accesses to addresses where nothing is
	// mapped. By default such reads return 0 and are logged.
	Unmapped BankIO8

	table8   pageTable
	reported map[uint16]struct{} // unmapped addresses already logged
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table8 = pageTable{}
	t.reported = make(map[uint16]struct{})
}

// Map a register bank (that is, a structure containing multiple Reg8, Mem or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
//
// See InitRegs for the other options.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.vsize()-1))
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if size <= 0 {
		panic(fmt.Errorf("%s: mapping empty area at %04x", t.Name, addr))
	}
	end := int(addr) + size - 1
	if end > 0xFFFF {
		panic(fmt.Errorf("%s: area at %04x (size %x) overflows the address space", t.Name, addr, size))
	}
	t.table8.insertRange(addr, uint16(end), io)
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", io.Size).
		String("name", io.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, io.Size, io)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.vsize()).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, mem.vsize(), mem.BankIO8())
}

// MapMemorySlice maps the [addr, end] range onto buf, which is mirrored if
// smaller than the range.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  buf,
		Flags: flags,
		VSize: int(end) - int(addr) + 1,
	})
}

func (t *Table) Unmap(begin, end uint16) {
	t.table8.removeRange(begin, end)
}

// Read8 searches in the table for the device mapped at the given address and
// forward the read to it.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.table8.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		t.reportUnmapped("unmapped Read8", addr)
		return 0
	}
	return io.Read8(addr)
}

// Peek8 is like Read8, without side effects.
func (t *Table) Peek8(addr uint16) uint8 {
	io := t.table8.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return 0
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
			return
		}
		t.reportUnmapped("unmapped Write8", addr)
		return
	}
	io.Write8(addr, val)
}

// reportUnmapped logs the first access to each unmapped address. Programs
// commonly poll hardware this core doesn't emulate (APU, expansion port), so
// the following ones are only logged when the hwio module is debugged.
func (t *Table) reportUnmapped(msg string, addr uint16) {
	if _, ok := t.reported[addr]; ok {
		log.ModHwIo.DebugZ(msg).String("bus", t.Name).Hex16("addr", addr).End()
		return
	}
	t.reported[addr] = struct{}{}
	log.ModHwIo.WarnZ(msg).String("bus", t.Name).Hex16("addr", addr).End()
}

// pageTable maps each address of a 64KB space to a BankIO8, with one lazily
// allocated array per 256-byte page.
type pageTable struct {
	pages [256]*[256]BankIO8
}

func (pt *pageTable) insertRange(begin, end uint16, io BankIO8) {
	for addr := int(begin); addr <= int(end); addr++ {
		p := pt.pages[addr>>8]
		if p == nil {
			p = new([256]BankIO8)
			pt.pages[addr>>8] = p
		}
		p[addr&0xff] = io
	}
}

func (pt *pageTable) removeRange(begin, end uint16) {
	for addr := int(begin); addr <= int(end); addr++ {
		if p := pt.pages[addr>>8]; p != nil {
			p[addr&0xff] = nil
		}
	}
}

func (pt *pageTable) search(addr uint16) BankIO8 {
	p := pt.pages[addr>>8]
	if p == nil {
		return nil
	}
	return p[addr&0xff]
}
