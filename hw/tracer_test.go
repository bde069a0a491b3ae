package hw

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func BenchmarkDisasmOpString(b *testing.B) {
	const want = `C000  4C F5 C5  JMP $C5F5         `

	op := DisasmOp{
		Opcode: "JMP",
		Oper:   "$C5F5",
		Buf:    []byte{0x4c, 0xf5, 0xc5},
		PC:     0xC000,
	}

	var opbytes []byte
	for range b.N {
		opbytes = op.Bytes()
	}

	if !strings.HasPrefix(string(opbytes), want) {
		b.Fatalf("\ngot:  \"%s\"\nwant: \"%s\"\n", string(opbytes), want)
	}
}

type dummyDisasm map[uint16]DisasmOp

func (dd dummyDisasm) Disasm(pc uint16) DisasmOp {
	return dd[pc]
}

var traceDisasm = dummyDisasm{
	0xE052: DisasmOp{
		PC:     0xE052,
		Buf:    []byte{0xA9, 0x32},
		Opcode: "LDA",
		Oper:   "#$32",
	},
	0xE054: DisasmOp{
		PC:     0xE054,
		Buf:    []byte{0x20, 0xEE, 0xE0},
		Opcode: "JSR",
		Oper:   "$E0EE",
	},
}

func TestTraceFormat(t *testing.T) {
	want := []string{
		`E052  A9 32     LDA #$32                         A:00 X:01 Y:00 P:07 S:F4 PPU:0  ,27  8`,
		`E054  20 EE E0  JSR $E0EE                        A:32 X:01 Y:00 P:05 S:F4 PPU:-1 ,33  10`,
	}

	var out bytes.Buffer
	tr := tracer{d: traceDisasm, w: &out}

	tr.trace(TraceEvent{
		Kind: TraceInstruction,
		CPU: CPUState{
			PC: 0xE052,
			A:  0x00, X: 0x01, Y: 0x00, P: P(0x07), SP: 0xF4,
			Cycles: 8,
		},
		Scanline: 0,
		Dot:      27,
	})
	// Not an instruction, ignored.
	tr.trace(TraceEvent{Kind: TraceVBlank, Scanline: 241, Dot: 1})
	tr.trace(TraceEvent{
		Kind: TraceInstruction,
		CPU: CPUState{
			PC: 0xE054,
			A:  0x32, X: 0x01, Y: 0x00, P: P(0x05), SP: 0xF4,
			Cycles: 10,
		},
		Scanline: 261,
		Dot:      33,
	})

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	tr := tracer{d: traceDisasm, w: io.Discard}
	s1 := CPUState{
		PC: 0xE052,
		A:  0x00, X: 0x01, Y: 0x00, P: P(0x07), SP: 0xF4,
		Cycles: 8,
	}
	s2 := CPUState{
		PC: 0xE054,
		A:  0x32, X: 0x01, Y: 0x00, P: P(0x05), SP: 0xF4,
		Cycles: 10,
	}

	for range b.N {
		tr.write(s1, 0, 27)
		tr.write(s2, 0, 33)
	}
}

func TestDisasm(t *testing.T) {
	cpu := loadCPUWith(t, `
0010: 34 12
0080: 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
1236: 99
C000: a9 32 8d 00 02 b5 10 6c 10 00 b1 10 0a 4c 00 c0
C010: d0 fe 02`)
	cpu.X = 0x02
	cpu.Y = 0x02

	tests := []struct {
		pc   uint16
		want string
	}{
		{0xC000, `C000  A9 32     LDA #$32`},
		{0xC002, `C002  8D 00 02  STA $0200 = 00`},
		{0xC005, `C005  B5 10     LDA $10,X @ 12 = 00`},
		{0xC007, `C007  6C 10 00  JMP ($0010) = 1234`},
		{0xC00A, `C00A  B1 10     LDA ($10),Y = 1234 @ 1236 = 99`},
		{0xC00C, `C00C  0A        ASL A`},
		{0xC00D, `C00D  4C 00 C0  JMP $C000`},
		{0xC010, `C010  D0 FE     BNE $C010`},
		{0xC012, `C012  02        ???`},
	}
	for _, tt := range tests {
		got := strings.TrimRight(cpu.Disasm(tt.pc).String(), " ")
		if got != tt.want {
			t.Errorf("Disasm(%04X)\ngot:  %q\nwant: %q", tt.pc, got, tt.want)
		}
	}
}
