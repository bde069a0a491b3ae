package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Number of buttons of a standard controller, reported in this order: A, B,
// Select, Start, Up, Down, Left, Right.
const NumButtons = 8

// An InputDevice gives the state of the buttons of the controllers plugged
// into the two ports.
type InputDevice interface {
	// PollButton reports whether the button at line (0-7) of the controller
	// plugged into port (0 or 1) is pressed.
	PollButton(port, line int) bool
}

// InputPorts implements the controller ports, at $4016 and $4017.
//
// Writing 1 then 0 to $4016 (strobe falling edge) latches the buttons of both
// controllers into shift registers, then each read of a port returns the next
// button. While the strobe is high, reads keep returning button A.
type InputPorts struct {
	In  hwio.Reg8 `hwio:"offset=0x00,rcb,pcb,wcb"`
	Out hwio.Reg8 `hwio:"offset=0x01,rcb,pcb"`

	dev InputDevice

	strobe bool
	state  [2]uint8 // shift registers
}

func (ip *InputPorts) initBus() {
	hwio.MustInitRegs(ip)
	ip.strobe = false
	ip.state = [2]uint8{}
}

// latch captures the buttons of both controllers.
func (ip *InputPorts) latch() {
	for port := range ip.state {
		ip.state[port] = 0
		if ip.dev == nil {
			continue
		}
		for line := range NumButtons {
			if ip.dev.PollButton(port, line) {
				ip.state[port] |= 1 << line
			}
		}
	}
	log.ModInput.DebugZ("latched controllers").
		Hex8("port0", ip.state[0]).
		Hex8("port1", ip.state[1]).
		End()
}

func (ip *InputPorts) read(port int) uint8 {
	if ip.strobe {
		ip.latch()
	}
	ret := ip.state[port] & 1
	ip.state[port] >>= 1

	// Once the 8 buttons have been read, a standard controller reports 1s.
	ip.state[port] |= 0x80

	// Bit 6 is open bus, which is the high byte of the address.
	return 0x40 | ret
}

func (ip *InputPorts) peek(port int) uint8 {
	return 0x40 | ip.state[port]&1
}

// In: $4016
func (ip *InputPorts) WriteIN(old, val uint8) {
	prev := ip.strobe
	ip.strobe = val&1 == 1
	if prev && !ip.strobe {
		ip.latch()
	}
}

func (ip *InputPorts) ReadIN(_ uint8) uint8 { return ip.read(0) }
func (ip *InputPorts) PeekIN(_ uint8) uint8 { return ip.peek(0) }

// Out: $4017
func (ip *InputPorts) ReadOUT(_ uint8) uint8 { return ip.read(1) }
func (ip *InputPorts) PeekOUT(_ uint8) uint8 { return ip.peek(1) }
