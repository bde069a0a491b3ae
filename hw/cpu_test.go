package hw

import (
	"errors"
	"fmt"
	"testing"
)

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestPowerUp(t *testing.T) {
	cpu := loadCPUWith(t, `FFFC: 34 c2`)
	runAndCheckState(t, cpu, 0,
		"PC", 0xC234,
		"SP", 0xFF,
		"P", 0x24,
		"A", 0x00,
	)
}

func TestLDAImmediateZero(t *testing.T) {
	for _, p := range []P{0x24, 0xA4, 0x26, 0xE7} {
		t.Run(p.String(), func(t *testing.T) {
			cpu := loadCPUWith(t, `
0200: a9 00
FFFC: 00 02`)
			cpu.A = 0x91
			cpu.P = p
			runAndCheckState(t, cpu, 1,
				"A", 0x00,
				"PC", 0x0202,
				"Pz", 1,
				"Pn", 0,
			)
			if cpu.Cycles != 2 {
				t.Errorf("LDA #imm took %d cycles, want 2", cpu.Cycles)
			}
		})
	}
}

func TestADCOverflow(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: 69 01
FFFC: 00 02`)
	cpu.A = 0x7F
	runAndCheckState(t, cpu, 2,
		"A", 0x80,
		"Pv", 1,
		"Pn", 1,
		"Pc", 0,
		"Pz", 0,
	)
}

func TestSBCBorrow(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: 38 e9 01
FFFC: 00 02`)
	cpu.A = 0x00
	runAndCheckState(t, cpu, 4,
		"A", 0xFF,
		"Pc", 0,
		"Pn", 1,
		"Pv", 0,
	)
}

// refADC is the textbook definition of ADC in binary mode.
func refADC(a, m uint8, carry bool) (res uint8, c, v bool) {
	sum := uint16(a) + uint16(m) + uint16(b2i(carry))
	res = uint8(sum)
	return res, sum > 0xFF, (a^res)&(m^res)&0x80 != 0
}

func TestADCSBCExhaustive(t *testing.T) {
	check := func(op string, a, m uint8, carry bool, cpu *CPU, res uint8, c, v bool) {
		t.Helper()
		if cpu.A != res || cpu.P.C() != c || cpu.P.V() != v || cpu.P.Z() != (res == 0) || cpu.P.N() != (res&0x80 != 0) {
			t.Fatalf("%s A=%02X M=%02X C=%t: got A=%02X P=%s, want A=%02X C=%t V=%t",
				op, a, m, carry, cpu.A, cpu.P, res, c, v)
		}
	}

	var cpu CPU
	for a := 0; a < 256; a++ {
		for m := 0; m < 256; m++ {
			for _, carry := range []bool{false, true} {
				cpu.A = uint8(a)
				cpu.P = 0x24
				cpu.P.writeFlag(Carry, carry)
				cpu.add(uint8(m))
				res, c, v := refADC(uint8(a), uint8(m), carry)
				check("ADC", uint8(a), uint8(m), carry, &cpu, res, c, v)

				// A-M-(1-C) is A+^M+C.
				cpu.A = uint8(a)
				cpu.P = 0x24
				cpu.P.writeFlag(Carry, carry)
				cpu.sub(uint8(m))
				res, c, v = refADC(uint8(a), ^uint8(m), carry)
				check("SBC", uint8(a), uint8(m), carry, &cpu, res, c, v)
			}
		}
	}
}

const vectors = `
FFFA: 00 90
FFFC: 00 80
FFFE: 00 a0`

func TestNMI(t *testing.T) {
	cpu := loadCPUWith(t, `
0100: 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
8000: ea ea`+vectors)
	cpu.P = 0x00
	cpu.SetNMI()

	runAndCheckState(t, cpu, 1,
		"PC", 0x9000,
		"SP", 0xFC,
		"Pi", 1,
		"mem", `01FC: 00 20 00 80`,
	)
	if cpu.Cycles != 7 {
		t.Errorf("NMI took %d cycles, want 7", cpu.Cycles)
	}
	if cpu.NMIPending() {
		t.Errorf("NMI still pending after being serviced")
	}
}

func TestBRKAndRTI(t *testing.T) {
	cpu := loadCPUWith(t, `
8000: 00 ff ea
A000: 40`+vectors)

	// BRK pushes PC+2 and P with B set.
	runAndCheckState(t, cpu, 1,
		"PC", 0xA000,
		"SP", 0xFC,
		"P", 0x24,
		"mem", `01FC: 00 34 02 80`,
	)
	if cpu.Cycles != 7 {
		t.Errorf("BRK took %d cycles, want 7", cpu.Cycles)
	}

	runAndCheckState(t, cpu, 1,
		"PC", 0x8002,
		"SP", 0xFF,
		"P", 0x24,
	)
	if cpu.Cycles != 13 {
		t.Errorf("BRK+RTI took %d cycles, want 13", cpu.Cycles)
	}
}

func TestResetIgnoresInterruptDisable(t *testing.T) {
	cpu := loadCPUWith(t, `
8000: ea ea ea ea`+vectors)
	runAndCheckState(t, cpu, 4, "PC", 0x8002)

	cpu.P = 0x24
	cpu.SoftReset()
	runAndCheckState(t, cpu, 1,
		"PC", 0x8000,
		"SP", 0xFF, // the stack isn't touched
		"Pi", 1,
	)
}

func TestIRQ(t *testing.T) {
	cpu := loadCPUWith(t, `
8000: ea ea ea ea
A000: 40`+vectors)

	// Masked.
	cpu.SetIRQ(true)
	runAndCheckState(t, cpu, 2, "PC", 0x8001)

	// Serviced once I is cleared. The line stays asserted but the handler
	// runs with I set.
	cpu.P = 0x20
	runAndCheckState(t, cpu, 1,
		"PC", 0xA000,
		"SP", 0xFC,
		"Pi", 1,
		"mem", `01FC: 00 20 01 80`,
	)

	// Both lines asserted, NMI comes first.
	cpu.SetNMI()
	cpu.P = 0x20
	runAndCheckState(t, cpu, 1, "PC", 0x9000)
}

func TestDecodeFailure(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: ea 02 ea
FFFC: 00 02`)

	if err := cpu.Step(); err != nil {
		t.Fatal(err)
	}
	err := cpu.Step()
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Step() = %v, want ErrDecode", err)
	}
	var derr *DecodeError
	if !errors.As(err, &derr) || derr.PC != 0x0201 || derr.Opcode != 0x02 {
		t.Fatalf("Step() = %#v, want DecodeError{PC: 0x0201, Opcode: 0x02}", err)
	}
	if !cpu.IsHalted() {
		t.Errorf("CPU should be halted")
	}

	// The CPU doesn't make any progress anymore.
	cycles := cpu.Cycles
	for range 10 {
		if err := cpu.Tick(); !errors.Is(err, ErrDecode) {
			t.Fatalf("Tick() = %v, want ErrDecode", err)
		}
	}
	if cpu.PC != 0x0201 || cpu.Cycles != cycles {
		t.Errorf("halted CPU progressed: PC=%04X cycles=%d (was %d)", cpu.PC, cpu.Cycles, cycles)
	}
}

func TestTick(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: a9 42 ea
FFFC: 00 02`)

	// The instruction executes on its first cycle.
	if err := cpu.Tick(); err != nil {
		t.Fatal(err)
	}
	if cpu.A != 0x42 || cpu.PC != 0x0202 || cpu.Budget() != 1 {
		t.Fatalf("after 1 tick: A=%02X PC=%04X budget=%d", cpu.A, cpu.PC, cpu.Budget())
	}

	if err := cpu.Tick(); err != nil {
		t.Fatal(err)
	}
	if cpu.PC != 0x0202 || cpu.Budget() != 0 {
		t.Fatalf("after 2 ticks: PC=%04X budget=%d", cpu.PC, cpu.Budget())
	}

	if err := cpu.Tick(); err != nil {
		t.Fatal(err)
	}
	if cpu.PC != 0x0203 || cpu.Cycles != 3 {
		t.Fatalf("after 3 ticks: PC=%04X cycles=%d", cpu.PC, cpu.Cycles)
	}
}

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name  string
		dump  string
		setup func(*CPU)
		want  int64
	}{
		{"LDA abs,X", `0200: bd 00 10`, func(c *CPU) { c.X = 1 }, 4},
		{"LDA abs,X page cross", `0200: bd ff 10`, func(c *CPU) { c.X = 1 }, 5},
		{"LDA abs,Y page cross", `0200: b9 ff 10`, func(c *CPU) { c.Y = 1 }, 5},
		{"STA abs,X", `0200: 9d 00 10`, func(c *CPU) { c.X = 1 }, 5},
		{"STA abs,X page cross", `0200: 9d ff 10`, func(c *CPU) { c.X = 1 }, 5},
		{"LDA (zp),Y", "0080: 00 10\n0200: b1 80", func(c *CPU) { c.Y = 1 }, 5},
		{"LDA (zp),Y page cross", "0080: ff 10\n0200: b1 80", func(c *CPU) { c.Y = 1 }, 6},
		{"STA (zp),Y page cross", "0080: ff 10\n0200: 91 80", func(c *CPU) { c.Y = 1 }, 6},
		{"LDA (zp,X)", `0200: a1 80`, nil, 6},
		{"INC abs,X", `0200: fe 00 10`, nil, 7},
		{"ASL A", `0200: 0a`, nil, 2},
		{"ROR zp", `0200: 66 10`, nil, 5},
		{"JMP abs", `0200: 4c 00 10`, nil, 3},
		{"JMP ind", `0200: 6c 00 10`, nil, 5},
		{"JSR", `0200: 20 00 10`, nil, 6},
		{"RTS", `0200: 60`, nil, 6},
		{"PHA", `0200: 48`, nil, 3},
		{"PLP", `0200: 28`, nil, 4},
		{"BNE not taken", `0200: d0 10`, func(c *CPU) { c.P.setFlags(Zero) }, 2},
		{"BNE taken", `0200: d0 10`, func(c *CPU) { c.P.clearFlags(Zero) }, 3},
		{"BNE taken backwards", `0200: d0 fe`, func(c *CPU) { c.P.clearFlags(Zero) }, 3},
		{"BNE taken page cross", `0200: d0 80`, func(c *CPU) { c.P.clearFlags(Zero) }, 4},
		{"ISC zp", `0200: e7 10`, nil, 5},
		{"NOP zp", `0200: 04 10`, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := loadCPUWith(t, tt.dump+"\nFFFC: 00 02")
			if tt.setup != nil {
				tt.setup(cpu)
			}
			if err := cpu.Step(); err != nil {
				t.Fatal(err)
			}
			if cpu.Cycles != tt.want {
				t.Errorf("took %d cycles, want %d", cpu.Cycles, tt.want)
			}
		})
	}
}

func TestJMPIndirectPageWrap(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: 6c ff 02
02FF: 34
0300: 12
FFFC: 00 02`)

	// The pointer high byte is read from $0200, not $0300.
	runAndCheckState(t, cpu, 1, "PC", 0x6C34)
}

func TestISC(t *testing.T) {
	cpu := loadCPUWith(t, `
0010: 0f
0200: 38 e7 10
FFFC: 00 02`)
	cpu.A = 0x20
	runAndCheckState(t, cpu, 7,
		"A", 0x10,
		"Pc", 1,
		"Pz", 0,
		"Pn", 0,
	)
	wantMem8(t, cpu, 0x0010, 0x10)
}

func TestJSRRTS(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: 20 00 03 ea
0300: a2 07 60
FFFC: 00 02`)
	runAndCheckState(t, cpu, 1,
		"PC", 0x0300,
		"SP", 0xFD,
		"mem", `01FE: 02 02`,
	)
	runAndCheckState(t, cpu, 8,
		"PC", 0x0203,
		"SP", 0xFF,
		"X", 0x07,
	)
}

func TestPHPPLP(t *testing.T) {
	cpu := loadCPUWith(t, `
0200: 08 a9 00 28 28
01F0: 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
FFFC: 00 02`)
	cpu.P = 0xC3 // NVZC

	// PHP pushes B and bit 5 set.
	runAndCheckState(t, cpu, 3, "mem", `01FF: f3`)

	// PLP ignores B, keeps bit 5.
	cpu.Bus.Write8(0x01FE, 0xD0)
	cpu.SP = 0xFD
	runAndCheckState(t, cpu, 6, "P", 0xE0)
}

func TestBIT(t *testing.T) {
	cpu := loadCPUWith(t, `
0010: c0
0200: 24 10
FFFC: 00 02`)
	cpu.A = 0x3F
	runAndCheckState(t, cpu, 3,
		"A", 0x3F,
		"Pz", 1,
		"Pv", 1,
		"Pn", 1,
	)
}

func TestOpcodeTable(t *testing.T) {
	var n int
	for i, op := range opcodes {
		if op.exec == nil {
			continue
		}
		n++
		if op.cost < 2 || op.cost > 7 {
			t.Errorf("%02X %s: invalid cost %d", i, op.name, op.cost)
		}
		if op.pageCross {
			switch op.mode {
			case abx, aby, izy:
			default:
				t.Errorf("%02X %s: page cross penalty in mode %d", i, op.name, op.mode)
			}
		}
	}

	// 151 documented opcodes, plus NOP $04 and ISC $E7.
	if n != 153 {
		t.Errorf("got %d opcodes, want 153", n)
	}
}

func ExampleCPU_Disasm() {
	cpu := NewCPU(nil)
	cpu.InitBus()
	cpu.Bus.MapMemorySlice(0x8000, 0xFFFF, []byte{0xa9, 0x7f, 0x69, 0x01}, true)

	fmt.Println(cpu.Disasm(0x8000).Opcode, cpu.Disasm(0x8000).Oper)
	fmt.Println(cpu.Disasm(0x8002).Opcode, cpu.Disasm(0x8002).Oper)
	// Output:
	// LDA #$7F
	// ADC #$01
}
