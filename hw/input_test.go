package hw

import "testing"

// fakePads presses a fixed set of buttons on each port.
type fakePads [2][NumButtons]bool

func (f *fakePads) PollButton(port, line int) bool { return f[port][line] }

func readPort(cpu *CPU, addr uint16, n int) []uint8 {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = cpu.Read8(addr)
	}
	return bits
}

func TestInputPorts(t *testing.T) {
	var pads fakePads
	pads[0][0] = true // A
	pads[0][3] = true // Start
	pads[1][7] = true // Right

	_, cpu := newTestPPU(t)
	cpu.PlugInputDevice(&pads)

	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)

	t.Run("port 0", func(t *testing.T) {
		if got := cpu.Bus.Peek8(0x4016); got != 0x41 {
			t.Errorf("peek = %02X, want 41", got)
		}

		want := []uint8{0x41, 0x40, 0x40, 0x41, 0x40, 0x40, 0x40, 0x40, 0x41, 0x41}
		got := readPort(cpu, 0x4016, len(want))
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("read %d = %02X, want %02X", i, got[i], want[i])
			}
		}
	})

	t.Run("port 1", func(t *testing.T) {
		want := []uint8{0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x41}
		got := readPort(cpu, 0x4017, len(want))
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("read %d = %02X, want %02X", i, got[i], want[i])
			}
		}
	})

	t.Run("strobe high", func(t *testing.T) {
		cpu.Write8(0x4016, 1)
		for i, b := range readPort(cpu, 0x4016, 4) {
			if b != 0x41 {
				t.Errorf("read %d = %02X, want 41", i, b)
			}
		}

		// Releasing A while the strobe is high is seen at once.
		pads[0][0] = false
		if b := cpu.Read8(0x4016); b != 0x40 {
			t.Errorf("read = %02X, want 40", b)
		}
		cpu.Write8(0x4016, 0)
	})

	t.Run("unplugged", func(t *testing.T) {
		_, cpu := newTestPPU(t)
		cpu.Write8(0x4016, 1)
		cpu.Write8(0x4016, 0)
		for i, b := range readPort(cpu, 0x4016, 8) {
			if b != 0x40 {
				t.Errorf("read %d = %02X, want 40", i, b)
			}
		}
	})
}
