package hw

import (
	"fmt"
	"io"
)

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

type tracer struct {
	d disasmer
	w io.Writer
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// trace writes instruction events in nestest log format, ignoring the others.
func (t *tracer) trace(ev TraceEvent) {
	if ev.Kind != TraceInstruction {
		return
	}
	t.write(ev.CPU, ev.Scanline, ev.Dot)
}

// write the execution trace for current cycle.
func (t *tracer) write(state CPUState, scanline, dot int) {
	const totalLen = 88
	buf := make([]byte, totalLen)

	dis := t.d.Disasm(state.PC)
	buf = append(buf[:0], dis.Bytes()...)
	off := min(totalLen, len(buf))
	buf = buf[:max(totalLen, len(buf))]

	for off < 49 {
		buf[off] = ' '
		off++
	}

	buf[off] = 'A'
	off++
	buf[off] = ':'
	off++
	hexEncode(buf[off:], state.A)
	off += 2
	buf[off] = ' '
	off++

	buf[off] = 'X'
	off++
	buf[off] = ':'
	off++
	hexEncode(buf[off:], state.X)
	off += 2
	buf[off] = ' '
	off++

	buf[off] = 'Y'
	off++
	buf[off] = ':'
	off++
	hexEncode(buf[off:], state.Y)
	off += 2
	buf[off] = ' '
	off++

	buf[off] = 'P'
	off++
	buf[off] = ':'
	off++
	hexEncode(buf[off:], byte(state.P))
	off += 2
	buf[off] = ' '
	off++

	buf[off] = 'S'
	off++
	buf[off] = ':'
	off++
	hexEncode(buf[off:], state.SP)
	off += 2
	buf[off] = ' '
	off++

	if scanline == 261 {
		scanline = -1
	}

	buf = fmt.Appendf(buf[:off], "PPU:%-3d,%-3d %d\n", scanline, dot, state.Cycles)
	t.w.Write(buf)
}
