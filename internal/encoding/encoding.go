// Package encoding provides the little-endian array codecs and the additive
// checksum used by the automaton file format.
//
// All multi-byte values are little-endian on disk regardless of host order,
// so a file written on one machine can be mapped on any other.
package encoding

import "encoding/binary"

// Uint32At reads the i-th little-endian uint32 of buf.
// Precondition: len(buf) >= 4*(i+1).
func Uint32At(buf []byte, i uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[4*uint64(i):])
}

// PutUint32s encodes src into dst as consecutive little-endian uint32 values.
// dst must have room for 4*len(src) bytes.
func PutUint32s(dst []byte, src []uint32) {
	_ = dst[4*len(src)-1:]
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[4*i:], v)
	}
}

// AppendUint32s appends the little-endian encoding of src to dst.
func AppendUint32s(dst []byte, src []uint32) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// Uint32s decodes a byte slice of little-endian uint32 values.
// A trailing partial word is ignored.
func Uint32s(src []byte) []uint32 {
	out := make([]uint32, len(src)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(src[4*i:])
	}
	return out
}

// Checksum returns the additive 32-bit checksum of buf: the wrapping sum of
// its little-endian 32-bit words.
//
// The remainder bytes of a buffer whose length is not a multiple of four are
// folded in as one zero-padded word only when the length is odd. Files of
// every released format version were written with this rule, so it must not
// be changed: a buffer of length 4k+2 contributes nothing for its last two
// bytes.
func Checksum(buf []byte) uint32 {
	var sum uint32
	n := len(buf) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.LittleEndian.Uint32(buf[i:])
	}
	if len(buf)&1 != 0 {
		var tail uint32
		for i, b := range buf[n:] {
			tail |= uint32(b) << (8 * i)
		}
		sum += tail
	}
	return sum
}
