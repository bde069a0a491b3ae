package hwio

// 8-bit operations
func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> (n) & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= (1 << n)
}

func ClearBit8(v *uint8, n uint) {
	*v &= ^(1 << n)
}

func FlipBit8(v *uint8, n uint) {
	*v ^= (1 << n)
}

func ClearBits8(v *uint8, mask uint8) {
	*v &= ^mask
}

// 16-bit operations
func GetBit16(v uint16, n uint) bool {
	return GetBiti16(v, n) != 0
}

func GetBiti16(v uint16, n uint) uint16 {
	return v >> (n) & 0x01
}

func SetBit16(v *uint16, n uint) {
	*v |= (1 << n)
}

func ClearBit16(v *uint16, n uint) {
	*v &= ^(1 << n)
}

func FlipBit16(v *uint16, n uint) {
	*v ^= (1 << n)
}

func ClearBits16(v *uint16, mask uint16) {
	*v &= ^mask
}

// Reverse8 returns v with its bits in reverse order.
func Reverse8(v uint8) uint8 {
	v = (v&0xF0)>>4 | (v&0x0F)<<4
	v = (v&0xCC)>>2 | (v&0x33)<<2
	v = (v&0xAA)>>1 | (v&0x55)<<1
	return v
}

// Bits16 extracts n bits of v, starting at bit lo.
func Bits16(v uint16, lo, n uint) uint16 {
	return (v >> lo) & (1<<n - 1)
}

// SetBits16 replaces n bits of v, starting at bit lo, with the low bits of x.
func SetBits16(v *uint16, lo, n uint, x uint16) {
	mask := uint16(1<<n-1) << lo
	*v = (*v &^ mask) | ((x << lo) & mask)
}
