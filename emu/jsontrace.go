package emu

import (
	"io"

	"github.com/go-faster/jx"

	"nescore/hw"
)

// JSONTracer writes trace events as JSON lines.
type JSONTracer struct {
	w   io.Writer
	enc jx.Encoder
	err error
}

func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{w: w}
}

// Trace implements hw.TraceFunc. Writing stops at the first error, reported
// by Err.
func (t *JSONTracer) Trace(ev hw.TraceEvent) {
	if t.err != nil {
		return
	}

	e := &t.enc
	e.Reset()
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(ev.Kind.String())
	e.FieldStart("frame")
	e.Int64(ev.Frame)
	e.FieldStart("scanline")
	e.Int(ev.Scanline)
	e.FieldStart("dot")
	e.Int(ev.Dot)
	e.FieldStart("cycles")
	e.Int64(ev.CPU.Cycles)

	e.FieldStart("cpu")
	e.ObjStart()
	e.FieldStart("pc")
	e.Int(int(ev.CPU.PC))
	e.FieldStart("a")
	e.Int(int(ev.CPU.A))
	e.FieldStart("x")
	e.Int(int(ev.CPU.X))
	e.FieldStart("y")
	e.Int(int(ev.CPU.Y))
	e.FieldStart("p")
	e.Int(int(ev.CPU.P))
	e.FieldStart("sp")
	e.Int(int(ev.CPU.SP))
	e.ObjEnd()

	switch ev.Kind {
	case hw.TraceInstruction, hw.TraceDecodeFailure:
		e.FieldStart("opcode")
		e.Int(int(ev.Opcode))
	case hw.TraceInterrupt:
		e.FieldStart("vector")
		e.Int(int(ev.Vector))
	}
	e.ObjEnd()

	buf := append(e.Bytes(), '\n')
	_, t.err = t.w.Write(buf)
}

func (t *JSONTracer) Err() error { return t.err }
