package fsa

import (
	"encoding/binary"
	"strings"
)

// Blob is an immutable binary payload attached to an accepted string.
//
// Blobs compare by content: two blobs are equal iff they have the same
// length and bytes. Blob is comparable, so it can be used as a map key.
// The zero Blob is the empty payload ("no metadata").
type Blob struct {
	s string
}

// NewBlob returns a blob holding a copy of b.
func NewBlob(b []byte) Blob {
	return Blob{s: string(b)}
}

// BlobString returns a blob holding the bytes of s.
func BlobString(s string) Blob {
	return Blob{s: s}
}

// NumericBlob returns a 4-byte little-endian blob holding v, the encoding
// used for frequency-tagged dictionaries.
func NumericBlob(v uint32) Blob {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return Blob{s: string(buf[:])}
}

// Len returns the payload length in bytes.
func (b Blob) Len() int {
	return len(b.s)
}

// Bytes returns a copy of the payload.
func (b Blob) Bytes() []byte {
	return []byte(b.s)
}

// String returns the payload as a string.
func (b Blob) String() string {
	return b.s
}

// Equal reports whether both blobs hold the same bytes.
func (b Blob) Equal(o Blob) bool {
	return b.s == o.s
}

// Compare orders blobs by their bytes, like bytes.Compare.
func (b Blob) Compare(o Blob) int {
	return strings.Compare(b.s, o.s)
}

// Uint32 decodes a blob created by NumericBlob.
func (b Blob) Uint32() (uint32, bool) {
	if len(b.s) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32([]byte(b.s)), true
}
