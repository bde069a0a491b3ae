package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	regPtr any
	offset uint16
}

var (
	typeReg8   = reflect.TypeFor[Reg8]()
	typeMem    = reflect.TypeFor[Mem]()
	typeDevice = reflect.TypeFor[Device]()
)

// hwioTag holds the parsed content of a `hwio:"..."` struct tag.
type hwioTag map[string]string

func parseTag(tag string) hwioTag {
	opts := make(hwioTag)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		opts[key] = val
	}
	return opts
}

func (t hwioTag) has(key string) bool {
	_, ok := t[key]
	return ok
}

func (t hwioTag) uint(key string, bits int) (uint64, bool, error) {
	s, ok := t[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, true, nil
}

// callback returns the method of bank named after the tag option (for
// example "pcb=PeekStatus"), or prefix+upper-cased field name if the option
// has no value ("rcb" on field Data looks for ReadDATA).
func callback[F any](bank reflect.Value, t hwioTag, key, prefix, field string) (F, error) {
	var zero F
	name, ok := t[key]
	if !ok {
		return zero, nil
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}

	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("%s: %s: missing method %s", field, key, name)
	}
	fn, ok := m.Interface().(F)
	if !ok {
		return zero, fmt.Errorf("%s: %s: method %s has type %s, want %T", field, key, name, m.Type(), zero)
	}
	return fn, nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

// InitRegs initializes all the Reg8, Mem and Device fields of the structure
// pointed by bank, according to their "hwio" struct tag. Besides offset and
// bank (see Table.MapBank), the following options are recognized:
//
//	reset=0x12      Reset value of a register.
//	rwmask=0xF0     Mask of the register bits writable by the bus, the others
//	                being read-only.
//	size=0x800      Size of a memory area or device. Memory buffers are
//	                allocated if not already set.
//	vsize=0x2000    Virtual size of a memory area, mirroring its content.
//	readonly        Bus writes are ignored.
//	writeonly       Bus reads return 0.
//	rcb, wcb, pcb   Read, write and peek callbacks. The method is named after
//	                the field (e.g ReadPPUSTATUS), or explicitly given as in
//	                pcb=PeekStatus.
func InitRegs(bank any) error {
	val := reflect.ValueOf(bank)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("InitRegs: %T is not a pointer to struct", bank)
	}

	s := val.Elem()
	for i := 0; i < s.NumField(); i++ {
		f := s.Type().Field(i)
		tagstr, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		tag := parseTag(tagstr)

		var err error
		switch f.Type {
		case typeReg8:
			err = initReg8(val, s.Field(i).Addr().Interface().(*Reg8), f.Name, tag)
		case typeMem:
			err = initMem(val, s.Field(i).Addr().Interface().(*Mem), f.Name, tag)
		case typeDevice:
			err = initDevice(val, s.Field(i).Addr().Interface().(*Device), f.Name, tag)
		default:
			err = fmt.Errorf("invalid type %s for hwio field", f.Type)
		}
		if err != nil {
			return fmt.Errorf("InitRegs: %s: %w", f.Name, err)
		}
	}
	return nil
}

func rwflags(tag hwioTag) RWFlags {
	var flags RWFlags
	if tag.has("readonly") {
		flags |= ReadOnlyFlag
	}
	if tag.has("writeonly") {
		flags |= WriteOnlyFlag
	}
	return flags
}

func initReg8(bank reflect.Value, reg *Reg8, name string, tag hwioTag) error {
	if reg.Name == "" {
		reg.Name = name
	}
	reg.Flags = rwflags(tag)

	reset, _, err := tag.uint("reset", 8)
	if err != nil {
		return err
	}
	reg.Value = uint8(reset)

	mask, ok, err := tag.uint("rwmask", 8)
	if err != nil {
		return err
	}
	if ok {
		reg.RoMask = ^uint8(mask)
	}

	if reg.ReadCb, err = callback[func(uint8) uint8](bank, tag, "rcb", "Read", name); err != nil {
		return err
	}
	if reg.PeekCb, err = callback[func(uint8) uint8](bank, tag, "pcb", "Peek", name); err != nil {
		return err
	}
	if reg.WriteCb, err = callback[func(uint8, uint8)](bank, tag, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

func initMem(bank reflect.Value, mem *Mem, name string, tag hwioTag) error {
	if mem.Name == "" {
		mem.Name = name
	}

	size, ok, err := tag.uint("size", 32)
	if err != nil {
		return err
	}
	if ok && mem.Data == nil {
		mem.Data = make([]byte, size)
	}

	vsize, ok, err := tag.uint("vsize", 32)
	if err != nil {
		return err
	}
	if ok {
		mem.VSize = int(vsize)
	}

	if tag.has("readonly") {
		mem.Flags |= MemFlag8ReadOnly
	}
	if mem.WriteCb, err = callback[func(uint16, uint8)](bank, tag, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

func initDevice(bank reflect.Value, dev *Device, name string, tag hwioTag) error {
	if dev.Name == "" {
		dev.Name = name
	}
	dev.Flags = rwflags(tag)

	size, ok, err := tag.uint("size", 32)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("device without size")
	}
	dev.Size = int(size)

	if dev.ReadCb, err = callback[func(uint16) uint8](bank, tag, "rcb", "Read", name); err != nil {
		return err
	}
	if dev.PeekCb, err = callback[func(uint16) uint8](bank, tag, "pcb", "Peek", name); err != nil {
		return err
	}
	if dev.WriteCb, err = callback[func(uint16, uint8)](bank, tag, "wcb", "Write", name); err != nil {
		return err
	}
	return nil
}

// bankGetRegs returns pointers to the fields of bank belonging to the given
// bank number, along with their offsets.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	val := reflect.ValueOf(bank)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bank %T is not a pointer to struct", bank)
	}

	var regs []bankReg
	s := val.Elem()
	for i := 0; i < s.NumField(); i++ {
		f := s.Type().Field(i)
		tagstr, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		tag := parseTag(tagstr)

		offset, ok, err := tag.uint("offset", 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if !ok {
			continue
		}
		bnum, _, err := tag.uint("bank", 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if int(bnum) != bankNum {
			continue
		}

		switch f.Type {
		case typeReg8, typeMem, typeDevice:
		default:
			return nil, fmt.Errorf("%s: invalid type %s for hwio field", f.Name, f.Type)
		}
		regs = append(regs, bankReg{
			regPtr: s.Field(i).Addr().Interface(),
			offset: uint16(offset),
		})
	}
	return regs, nil
}
