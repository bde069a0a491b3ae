package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Number of PPU dots per CPU cycle (NTSC).
const dotsPerCycle = 3

// A delayedWrite is a CPU write to a PPU register, held until the PPU reaches
// the target dot.
type delayedWrite struct {
	target int64
	addr   uint16
	val    uint8
}

// Clock drives the CPU and the PPU at their relative rates.
//
// When created with delayed writes, CPU writes to the PPU registers window
// ($2000-$3FFF) reach the PPU on the 2nd dot of the last cycle of the writing
// instruction, rather than when the instruction executes (which happens on its
// first cycle).
type Clock struct {
	CPU *CPU
	PPU *PPU

	halted bool

	regs  *hwio.Table // PPU registers, as seen by delayed writes
	win   hwio.Device // PPU registers window on the CPU bus
	queue []delayedWrite
}

// NewClock creates a clock driving cpu and its PPU. The CPU bus must have
// been initialized.
func NewClock(cpu *CPU, delayed bool) *Clock {
	c := &Clock{CPU: cpu, PPU: cpu.PPU}
	if delayed && c.PPU != nil {
		c.attach()
	}
	return c
}

// attach remaps the PPU registers window of the CPU bus so that writes go
// through the delayed writes queue.
func (c *Clock) attach() {
	c.regs = hwio.NewTable("ppu-regs")
	for off := uint16(0x2000); off < 0x4000; off += 8 {
		c.regs.MapBank(off, c.PPU, 1)
	}

	c.win = hwio.Device{
		Name:    "ppu-regs",
		Size:    0x2000,
		ReadCb:  c.regs.Read8,
		PeekCb:  c.regs.Peek8,
		WriteCb: c.delayWrite,
	}
	c.CPU.Bus.MapDevice(0x2000, &c.win)
}

func (c *Clock) delayWrite(addr uint16, val uint8) {
	target := c.PPU.Dots() + int64(dotsPerCycle*c.CPU.Budget()) - 2
	c.queue = append(c.queue, delayedWrite{target: target, addr: addr, val: val})
	log.ModClock.DebugZ("delayed write").
		Hex16("addr", addr).
		Hex8("val", val).
		Int64("target", target).
		End()

	// Writes issued outside an instruction land at once.
	c.flush()
}

// flush applies the queued writes whose target dot has been reached, in
// issue order.
func (c *Clock) flush() {
	n := 0
	for _, w := range c.queue {
		if w.target > c.PPU.Dots() {
			break
		}
		c.regs.Write8(w.addr, w.val)
		n++
	}
	if n > 0 {
		c.queue = append(c.queue[:0], c.queue[n:]...)
	}
}

// Reset drops the pending writes.
func (c *Clock) Reset() {
	c.queue = c.queue[:0]
}

// Halt stops the clock, from the next tick.
func (c *Clock) Halt() { c.halted = true }

// Resume restarts a halted clock.
func (c *Clock) Resume() { c.halted = false }

func (c *Clock) Halted() bool { return c.halted }

func (c *Clock) tickPPU() {
	c.PPU.Tick()
	if len(c.queue) > 0 {
		c.flush()
	}
}

// Tick runs 3 PPU dots then one CPU cycle. It does nothing when the clock is
// halted, and returns the error that halted the CPU, if any.
func (c *Clock) Tick() error {
	if c.halted {
		return nil
	}
	if err := c.CPU.Err(); err != nil {
		return err
	}
	if c.PPU != nil {
		for range dotsPerCycle {
			c.tickPPU()
		}
	}
	return c.CPU.Tick()
}

// RunFrame ticks until the PPU completes the current frame.
func (c *Clock) RunFrame() error {
	frame := c.PPU.Frame
	for c.PPU.Frame == frame && !c.halted {
		if err := c.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Step ticks until the next instruction boundary.
func (c *Clock) Step() error {
	for !c.halted {
		if err := c.Tick(); err != nil {
			return err
		}
		if c.CPU.Budget() == 0 {
			break
		}
	}
	return nil
}
