package hwio

import (
	"nescore/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Linear memory area that can be mapped into a Table.
//
// Mem does not directly implement BankIO8: the adaptor returned by BankIO8()
// is built once at mapping time, with the flags already resolved.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags            // flags determining how the memory can be accessed
	WriteCb func(uint16, uint8) // optional write callback (if set, the callback is called instead of writing)
}

func (m *Mem) vsize() int {
	if m.VSize == 0 {
		return len(m.Data)
	}
	return m.VSize
}

func (m *Mem) BankIO8() BankIO8 {
	return newMem(m.Name, m.Data, m.WriteCb, m.Flags)
}

// mem is the BankIO8 adaptor of Mem. Accesses are masked with the physical
// size of the buffer, which implements mirroring.
type mem struct {
	name string
	data []byte
	mask uint16
	wcb  func(uint16, uint8)
	ro   MemFlags
}

func newMem(name string, buf []byte, wcb func(uint16, uint8), roflag MemFlags) *mem {
	if len(buf) == 0 || len(buf)&(len(buf)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		name: name,
		data: buf,
		mask: uint16(len(buf) - 1),
		wcb:  wcb,
		ro:   roflag,
	}
}

func (m *mem) Read8(addr uint16) uint8 {
	return m.data[addr&m.mask]
}

func (m *mem) Peek8(addr uint16) uint8 {
	return m.data[addr&m.mask]
}

func (m *mem) Write8(addr uint16, val uint8) {
	if m.wcb != nil {
		m.wcb(addr, val)
		return
	}

	switch {
	case m.ro&MemFlag8ReadOnly == 0:
		m.data[addr&m.mask] = val
	case m.ro&MemFlagNoROLog != 0:
		return
	default:
		log.ModHwIo.WarnZ("Write8 to readonly memory").
			String("name", m.name).
			Hex8("val", val).
			Hex16("addr", addr).
			End()
	}
}
