package hw

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/hwio"
)

/* cpu specific testing helpers */

func wantMem8(t *testing.T, cpu *CPU, addr uint16, want uint8) {
	t.Helper()

	if got := cpu.Bus.Peek8(addr); got != want {
		t.Errorf("$%04X = %02X want %02X", addr, got, want)
	}
}

func wantMem(t *testing.T, cpu *CPU, dl dumpline) {
	t.Helper()

	mem := []byte{}
	for i := range dl.bytes[:dl.len] {
		mem = append(mem, cpu.Bus.Peek8(dl.off+uint16(i)))
	}

	if !bytes.Equal(mem, dl.bytes[:dl.len]) {
		hd := hex.Dump(mem)
		got := hd[10 : 10+3*len(mem)]
		hd = hex.Dump(dl.bytes[:dl.len])
		want := hd[10 : 10+3*int(dl.len)]
		t.Errorf("mem mismatch at 0x%04x.\ngot: %s\nwant:%s", dl.off, got, want)
	}
}

// toInt converts the integer values found in the states list of
// runAndCheckState, whatever their type.
func toInt(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case P:
		return int(v)
	case bool:
		return int(b2i(v))
	}
	panic("unsupported state value type")
}

// runAndCheckState runs the cpu for ncycles cycles then checks the given
// states, specified as name/value pairs. Names are registers ("A", "PC", "P"
// ...), P flags ("Pn", "Pzc" ...) or "mem" followed by a hex dump.
func runAndCheckState(t *testing.T, cpu *CPU, ncycles int64, states ...any) {
	t.Helper()

	if len(states)%2 != 0 {
		panic("odd number of states")
	}

	checkbool := func(name string, got bool, want int) {
		t.Helper()
		if int(b2i(got)) != want {
			t.Errorf("got %s=%d, want %d", name, b2i(got), want)
		}
	}
	checkuint8 := func(name string, got uint8, want int) {
		t.Helper()
		if int(got) != want {
			t.Errorf("got %s=$%02X, want $%02X", name, got, want)
		}
	}
	checkuint16 := func(name string, got uint16, want int) {
		t.Helper()
		if int(got) != want {
			t.Errorf("got %s=$%04X, want $%04X", name, got, want)
		}
	}

	if testing.Verbose() {
		cpu.SetTraceOutput(tbwriter{t})
		defer cpu.SetTracer(nil)
	}

	if err := cpu.Run(ncycles); err != nil {
		t.Fatalf("run: %v", err)
	}

	for i := 0; i < len(states); i += 2 {
		s := states[i].(string)
		switch {
		case s == "A":
			checkuint8("A", cpu.A, toInt(states[i+1]))
		case s == "X":
			checkuint8("X", cpu.X, toInt(states[i+1]))
		case s == "Y":
			checkuint8("Y", cpu.Y, toInt(states[i+1]))
		case s == "PC":
			checkuint16("PC", cpu.PC, toInt(states[i+1]))
		case s == "SP":
			checkuint8("SP", cpu.SP, toInt(states[i+1]))
		case s == "P":
			if got, want := uint8(cpu.P), uint8(toInt(states[i+1])); got != want {
				t.Errorf("got P=$%02X(%s), want $%02X(%s)", got, P(got), want, P(want))
			}
		case len(s) > 1 && s[0] == 'P':
			bit := toInt(states[i+1])
			for j := 1; j < len(s); j++ {
				switch s[j] {
				case 'n':
					checkbool("Pn", cpu.P.N(), bit)
				case 'v':
					checkbool("Pv", cpu.P.V(), bit)
				case 'b':
					checkbool("Pb", cpu.P.B(), bit)
				case 'd':
					checkbool("Pd", cpu.P.D(), bit)
				case 'i':
					checkbool("Pi", cpu.P.I(), bit)
				case 'z':
					checkbool("Pz", cpu.P.Z(), bit)
				case 'c':
					checkbool("Pc", cpu.P.C(), bit)
				default:
					panic("unknown P bit: " + string(s[j]))
				}
			}
		case s == "mem":
			lines := loadDump(t, states[i+1].(string))
			for _, line := range lines {
				wantMem(t, cpu, line)
			}

		default:
			panic("unknown state: " + s)
		}
	}

	if t.Failed() {
		t.FailNow()
	}
}

type dumpline struct {
	off   uint16
	len   uint16 // actual length
	bytes []byte // pow2 sized (padded with 0)
}

func loadDump(tb testing.TB, dump string) []dumpline {
	tb.Helper()

	var lines []dumpline
	scan := bufio.NewScanner(strings.NewReader(dump))
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		off, octets, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed line: %s", line)
		}

		ioff, err := strconv.ParseUint(strings.TrimSpace(off), 16, 16)
		if err != nil {
			tb.Fatalf("malformed offset %s: %s", off, err)
		}
		var buf []byte
		for _, c := range octets {
			if c != ' ' && c != '\t' {
				buf = append(buf, byte(c))
			}
		}
		n, err := hex.Decode(buf, buf)
		if err != nil {
			tb.Fatalf("hex decode: %s", err)
		}
		// clear the rest of the buffer
		nbytes := nextpow2(uint64(n))
		if uint64(len(buf)) < nbytes {
			buf = append(buf, make([]byte, nbytes-uint64(len(buf)))...)
		}
		for i := uint64(n); i < nbytes; i++ {
			buf[i] = 0
		}
		dl := dumpline{off: uint16(ioff), len: uint16(n), bytes: buf[:nbytes]}
		lines = append(lines, dl)
	}
	if scan.Err() != nil {
		tb.Fatalf("scan error: %s", scan.Err())
	}

	return lines
}

func nextpow2(v uint64) uint64 {
	v--
	v |= v>>1 | v>>2 | v>>4 | v>>8 | v>>16 | v>>32
	return v + 1
}

// loadCPUWith returns a CPU with a flat 64KB RAM loaded with a memory dump. The
// reset sequence has already run, and the cycle counter is 0.
func loadCPUWith(tb testing.TB, dump string) *CPU {
	tb.Helper()

	ram := make([]byte, 0x10000)
	for _, line := range loadDump(tb, dump) {
		copy(ram[line.off:], line.bytes[:line.len])
	}

	cpu := NewCPU(nil)
	cpu.Bus = hwio.NewTable("cputest")
	cpu.Bus.MapMemorySlice(0x0000, 0xFFFF, ram, false)
	cpu.Reset()
	if err := cpu.Step(); err != nil {
		tb.Fatal(err)
	}
	cpu.Cycles = 0
	return cpu
}

type tbwriter struct {
	testing.TB
}

func (t tbwriter) Write(p []byte) (int, error) {
	t.TB.Helper()
	t.TB.Log(string(bytes.TrimSpace((p))))
	return len(p), nil
}

func TestLoadDump(t *testing.T) {
	tests := []struct {
		dump string
		want []dumpline
	}{
		{
			dump: `01f0: 0f 0e 0d`,
			want: []dumpline{
				{0x01f0, 3, []byte{0x0f, 0x0e, 0x0d, 0x00}},
			},
		},
		{
			dump: `
# comment
01f0: 0f 0e 0d 0c 0b 0a 09 08 07 06 05 04 03 02 01 00
0210: 0f 0e 0d 0c
`,
			want: []dumpline{
				{0x01f0, 16, []byte{0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00}},
				{0x0210, 4, []byte{0x0f, 0x0e, 0x0d, 0x0c}},
			},
		},
		{
			dump: `01f0: 0f 0e 0d 0c 0b`,
			want: []dumpline{
				{0x01f0, 5, []byte{0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x00, 0x00, 0x00}},
			},
		},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := loadDump(t, tt.dump)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].off != tt.want[i].off {
					t.Errorf("got offset %04X, want %04X", got[i].off, tt.want[i].off)
				}
				if got[i].len != tt.want[i].len {
					t.Errorf("got len %d, want %d", got[i].len, tt.want[i].len)
				}
				if diff := cmp.Diff(tt.want[i].bytes, got[i].bytes); diff != "" {
					t.Fatalf("bytes mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
