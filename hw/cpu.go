package hw

import (
	"errors"
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Number of cycles taken by the interrupt sequence.
const interruptCycles = 7

// ErrDecode is returned (wrapped in a *DecodeError) when the CPU fetches an
// opcode it doesn't implement.
var ErrDecode = errors.New("unknown opcode")

type DecodeError struct {
	PC     uint16
	Opcode uint8
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown opcode $%02X at $%04X", e.Opcode, e.PC)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

type CPU struct {
	Bus *hwio.Table

	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	PPU    *PPU // non-nil when there's a PPU.
	PPUDMA ppuDMA

	input InputPorts

	Cycles int64 // CPU cycles

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// Cycles left before the next instruction is fetched.
	budget int

	// interrupt lines
	nmi, irq, reset bool

	// Non-nil when the CPU is halted on an unknown opcode.
	err error

	trace TraceFunc
}

// NewCPU creates a new CPU. Call Reset to get it to power-up state.
func NewCPU(ppu *PPU) *CPU {
	cpu := &CPU{
		Bus: hwio.NewTable("cpu"),
		PPU: ppu,
	}
	if ppu != nil {
		ppu.CPU = cpu
	}
	return cpu
}

func (c *CPU) PlugInputDevice(dev InputDevice) {
	c.input.dev = dev
}

// InitBus maps on the CPU bus everything but the cartridge.
func (c *CPU) InitBus() {
	hwio.MustInitRegs(c)
	// CPU internal RAM, mirrored.
	c.Bus.MapBank(0x0000, c, 0)

	if c.PPU != nil {
		// Map the 8 PPU registers (bank 1) from 0x2000 to 0x3FFF.
		for off := uint16(0x2000); off < 0x4000; off += 8 {
			c.Bus.MapBank(off, c.PPU, 1)
		}

		c.PPUDMA.InitBus(c)
		c.Bus.MapBank(0x4014, &c.PPUDMA, 0)
	}

	c.input.initBus()
	c.Bus.MapBank(0x4016, &c.input, 0)
}

// Reset puts the CPU in its power-up state, with the reset line asserted. The
// reset sequence, which loads PC from the reset vector, runs at the next
// instruction boundary.
func (c *CPU) Reset() {
	c.A = 0x00
	c.X = 0x00
	c.Y = 0x00
	c.SP = 0xFF
	c.P = 0x24

	c.budget = 0
	c.nmi = false
	c.irq = false
	c.reset = true
	c.err = nil
}

// SoftReset asserts the reset line, without touching the registers.
func (c *CPU) SoftReset() {
	c.reset = true
}

func (c *CPU) SetNMI()   { c.nmi = true }
func (c *CPU) ClearNMI() { c.nmi = false }

// SetIRQ sets the level of the IRQ line.
func (c *CPU) SetIRQ(level bool) { c.irq = level }

func (c *CPU) NMIPending() bool { return c.nmi }

// Err returns the error that halted the CPU, if any.
func (c *CPU) Err() error { return c.err }

func (c *CPU) IsHalted() bool { return c.err != nil }

// Budget returns the number of cycles left before the next instruction
// boundary.
func (c *CPU) Budget() int { return c.budget }

// Tick runs one CPU cycle. The instruction (or interrupt sequence) is entirely
// executed on the first of its cycles, the next ones being idle.
func (c *CPU) Tick() error {
	if c.err != nil {
		return c.err
	}
	if c.budget == 0 {
		if err := c.step(); err != nil {
			return err
		}
	}
	c.budget--
	c.Cycles++
	return nil
}

// Step runs the remaining cycles of the current instruction, if any, then
// executes the next one at once.
func (c *CPU) Step() error {
	c.Cycles += int64(c.budget)
	c.budget = 0
	if err := c.step(); err != nil {
		return err
	}
	c.Cycles += int64(c.budget)
	c.budget = 0
	return nil
}

// Run executes instructions for at least ncycles cycles.
func (c *CPU) Run(ncycles int64) error {
	until := c.Cycles + ncycles
	for c.Cycles < until {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) step() error {
	if c.err != nil {
		return c.err
	}

	switch {
	case c.nmi:
		c.nmi = false
		c.interrupt(NMIVector, true)
		return nil
	case c.reset:
		// Reset is serviced even with interrupts disabled.
		c.reset = false
		c.interrupt(ResetVector, false)
		return nil
	case c.irq && !c.P.I():
		c.interrupt(IRQVector, true)
		return nil
	}

	c.traceOp()

	pc := c.PC
	opcode := c.Bus.Read8(pc)
	c.PC++

	op := &opcodes[opcode]
	if op.exec == nil {
		c.PC = pc
		c.err = &DecodeError{PC: pc, Opcode: opcode}
		log.ModCPU.ErrorZ("CPU halted").
			Hex16("PC", pc).
			Hex8("opcode", opcode).
			End()
		if c.trace != nil {
			ev := c.event(TraceDecodeFailure)
			ev.Opcode = opcode
			c.trace(ev)
		}
		return c.err
	}

	oper := c.decode(op)
	c.budget = int(oper.cost) + int(oper.extra)
	op.exec(c, oper)
	return nil
}

// interrupt runs the interrupt sequence, pushing PC and P on the stack if
// push is set.
func (c *CPU) interrupt(vector uint16, push bool) {
	prevpc := c.PC
	if push {
		c.push16(c.PC)
		c.push8(c.P.pushed(false))
	}
	c.P.setFlags(Interrupt)
	c.PC = hwio.Read16(c.Bus, vector)
	c.budget = interruptCycles

	log.ModCPU.DebugZ("interrupt").
		Hex16("vector", vector).
		Hex16("from", prevpc).
		Hex16("to", c.PC).
		End()

	if c.trace != nil {
		ev := c.event(TraceInterrupt)
		ev.Vector = vector
		c.trace(ev)
	}
}

/* bus access */

func (c *CPU) Read8(addr uint16) uint8 {
	return c.Bus.Read8(addr)
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.Bus.Write8(addr, val)
}

func (c *CPU) fetch8() uint8 {
	v := c.Bus.Read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	v := hwio.Read16(c.Bus, c.PC)
	c.PC += 2
	return v
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	top := uint16(c.SP) + 0x0100
	c.Bus.Write8(top, val)
	c.SP -= 1
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val & 0xff))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	top := uint16(c.SP) + 0x0100
	return c.Bus.Read8(top)
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* tracing */

// SetTracer sets the function receiving trace events, nil disables tracing.
func (c *CPU) SetTracer(fn TraceFunc) {
	c.trace = fn
	if c.PPU != nil {
		c.PPU.trace = fn
	}
}

// SetTraceOutput writes an execution trace, in nestest log format, to w.
func (c *CPU) SetTraceOutput(w io.Writer) {
	t := &tracer{w: w, d: c}
	c.SetTracer(t.trace)
}

// State returns a snapshot of the CPU registers.
func (c *CPU) State() CPUState {
	return CPUState{
		A:      c.A,
		X:      c.X,
		Y:      c.Y,
		P:      c.P,
		SP:     c.SP,
		PC:     c.PC,
		Cycles: c.Cycles,
	}
}

func (c *CPU) event(kind TraceKind) TraceEvent {
	ev := TraceEvent{Kind: kind, CPU: c.State()}
	if c.PPU != nil {
		ev.Frame = c.PPU.Frame
		ev.Scanline = c.PPU.Scanline
		ev.Dot = c.PPU.Cycle
	}
	return ev
}

func (c *CPU) traceOp() {
	if c.trace == nil {
		return
	}
	ev := c.event(TraceInstruction)
	ev.Opcode = c.Bus.Peek8(c.PC)
	c.trace(ev)
}
