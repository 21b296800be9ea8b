package pack

import (
	"bytes"
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// blobLenSize is the length prefix of a variable-length blob entry.
const blobLenSize = 4

// blobStore is a content-addressed append-only buffer of blobs.
//
// Entry layout (variable mode): [len uint32_le][bytes]. The first occurrence
// of a blob is appended and its offset cached; later identical blobs reuse
// the cached offset.
type blobStore struct {
	data    []byte
	offsets map[xxh3.Uint128][]uint32
	count   int

	// uniform tracks whether every stored blob has the same length.
	uniform  bool
	entryLen int
}

func newBlobStore() *blobStore {
	return &blobStore{
		offsets: make(map[xxh3.Uint128][]uint32),
		uniform: true,
	}
}

// pack returns the offset of blob, storing it on first sight.
func (s *blobStore) pack(blob []byte) uint32 {
	h := xxh3.Hash128(blob)
	for _, off := range s.offsets[h] {
		if bytes.Equal(s.at(off), blob) {
			return off
		}
	}

	off := uint32(len(s.data))
	s.data = binary.LittleEndian.AppendUint32(s.data, uint32(len(blob)))
	s.data = append(s.data, blob...)
	s.offsets[h] = append(s.offsets[h], off)

	if s.count == 0 {
		s.entryLen = len(blob)
	} else if len(blob) != s.entryLen {
		s.uniform = false
	}
	s.count++
	return off
}

// at returns the blob stored at a variable-mode offset.
func (s *blobStore) at(off uint32) []byte {
	n := binary.LittleEndian.Uint32(s.data[off:])
	start := off + blobLenSize
	return s.data[start : start+n]
}

// compact drops the length prefixes when all blobs share one length and
// returns that length. The caller remaps offsets with fixedOffset.
func (s *blobStore) compact() (int, bool) {
	if !s.uniform || s.count == 0 {
		return 0, false
	}
	fixed := make([]byte, 0, s.count*s.entryLen)
	stride := blobLenSize + s.entryLen
	for off := 0; off < len(s.data); off += stride {
		fixed = append(fixed, s.data[off+blobLenSize:off+stride]...)
	}
	s.data = fixed
	s.offsets = nil
	return s.entryLen, true
}

// fixedOffset maps a variable-mode offset to its fixed-mode offset.
func fixedOffset(off uint32, entryLen int) uint32 {
	return off / uint32(blobLenSize+entryLen) * uint32(entryLen)
}
