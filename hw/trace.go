package hw

//go:generate go tool stringer -type=TraceKind -trimprefix=Trace

// TraceKind identifies a trace event.
type TraceKind uint8

const (
	TraceInstruction   TraceKind = iota // an instruction is about to execute
	TraceInterrupt                      // NMI, reset or IRQ sequence
	TraceDecodeFailure                  // unknown opcode, the CPU is halted
	TraceVBlank                         // vertical blank started
	TraceSprite0Hit                     // sprite 0 hit flag got set
	TraceFrame                          // the PPU completed a frame
)

// CPUState is a snapshot of the CPU registers.
type CPUState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Cycles int64
}

// TraceEvent is sent to the TraceFunc set on the CPU and PPU.
type TraceEvent struct {
	Kind TraceKind
	CPU  CPUState

	Opcode uint8  // TraceInstruction, TraceDecodeFailure
	Vector uint16 // TraceInterrupt

	Frame    int64
	Scanline int
	Dot      int
}

// TraceFunc receives trace events. It's called synchronously from the
// emulation loop and must not modify the machine state.
type TraceFunc func(TraceEvent)
