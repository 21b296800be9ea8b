package fsa

import (
	"encoding/binary"

	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/encoding"
)

const (
	// magic number for automaton files
	magic = uint32(0x79832469)

	// version is the current format version (2.0.1).
	version = uint32(2001)

	// checksumVersion is the first format version whose checksum is
	// validated at load time. Older files carry a checksum field that was
	// never reliably filled in.
	checksumVersion = uint32(2000)

	// headerSize is the exact size of the serialized header (256 bytes)
	headerSize = 256

	// stateSize is the width of one state (or blob offset) cell.
	stateSize = 4
)

// DataType describes how blobs are laid out in the data buffer.
type DataType uint32

const (
	// DataVariable stores each blob as [len uint32_le][bytes].
	DataVariable DataType = 0

	// DataFixed stores blobs of one common length back to back.
	DataFixed DataType = 1
)

// String returns the data type name.
func (d DataType) String() string {
	switch d {
	case DataVariable:
		return "variable"
	case DataFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// header is the 256-byte file header.
//
// Layout (all fields uint32_le):
//
//	Offset  Field
//	0       Magic           0x79832469
//	4       Version         2001
//	8       Checksum        additive checksum of the four arrays
//	12      Size            number of cells
//	16      Start           base of the start state
//	20      DataSize        blob buffer length in bytes
//	24      DataType        0 = variable, 1 = fixed
//	28      FixedDataSize   entry length when DataType = fixed
//	32      HasPerfectHash  0/1
//	36      Serial          caller-assigned version tag
//	40      Reserved        216 bytes (zero)
//
// The header is followed by symbol[Size] (1 byte each), state[Size]
// (4 bytes each), blob bytes[DataSize], and, if HasPerfectHash,
// perfectHash[Size] (4 bytes each).
type header struct {
	Magic          uint32
	Version        uint32
	Checksum       uint32
	Size           uint32
	Start          uint32
	DataSize       uint32
	DataType       DataType
	FixedDataSize  uint32
	HasPerfectHash bool
	Serial         uint32
}

// encodeTo serializes the header to an existing buffer of headerSize bytes.
// The reserved area is zeroed.
func (h *header) encodeTo(buf []byte) {
	_ = buf[headerSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Checksum)
	binary.LittleEndian.PutUint32(buf[12:16], h.Size)
	binary.LittleEndian.PutUint32(buf[16:20], h.Start)
	binary.LittleEndian.PutUint32(buf[20:24], h.DataSize)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.DataType))
	binary.LittleEndian.PutUint32(buf[28:32], h.FixedDataSize)
	var hasHash uint32
	if h.HasPerfectHash {
		hasHash = 1
	}
	binary.LittleEndian.PutUint32(buf[32:36], hasHash)
	binary.LittleEndian.PutUint32(buf[36:40], h.Serial)
	clear(buf[40:headerSize])
}

// decodeHeader parses and validates a 256-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, fsaerrors.ErrTruncatedFile
	}

	h := &header{
		Magic:         binary.LittleEndian.Uint32(buf[0:4]),
		Version:       binary.LittleEndian.Uint32(buf[4:8]),
		Checksum:      binary.LittleEndian.Uint32(buf[8:12]),
		Size:          binary.LittleEndian.Uint32(buf[12:16]),
		Start:         binary.LittleEndian.Uint32(buf[16:20]),
		DataSize:      binary.LittleEndian.Uint32(buf[20:24]),
		DataType:      DataType(binary.LittleEndian.Uint32(buf[24:28])),
		FixedDataSize: binary.LittleEndian.Uint32(buf[28:32]),
		Serial:        binary.LittleEndian.Uint32(buf[36:40]),
	}
	hasHash := binary.LittleEndian.Uint32(buf[32:36])

	if h.Magic != magic {
		return nil, fsaerrors.ErrInvalidMagic
	}
	if h.Version > version {
		return nil, fsaerrors.ErrInvalidVersion
	}
	if hasHash > 1 {
		return nil, fsaerrors.ErrCorruptedAutomaton
	}
	h.HasPerfectHash = hasHash == 1
	if h.DataType != DataVariable && h.DataType != DataFixed {
		return nil, fsaerrors.ErrCorruptedAutomaton
	}
	if h.Start >= h.Size && (h.Size > 0 || h.Start != 0) {
		return nil, fsaerrors.ErrCorruptedAutomaton
	}

	return h, nil
}

// fileSize returns the number of bytes the header says the file holds.
func (h *header) fileSize() uint64 {
	n := uint64(headerSize) + uint64(h.Size)*(1+stateSize) + uint64(h.DataSize)
	if h.HasPerfectHash {
		n += uint64(h.Size) * stateSize
	}
	return n
}

// verifiesChecksum reports whether files of this version carry a checksum
// that must match.
func (h *header) verifiesChecksum() bool {
	return h.Version >= checksumVersion
}

// checksum returns the file checksum of the arrays that follow the header.
// Each array is summed on its own, so tail handling applies per array.
func checksum(symbols, states, data, perfectHash []byte) uint32 {
	return encoding.Checksum(symbols) +
		encoding.Checksum(states) +
		encoding.Checksum(data) +
		encoding.Checksum(perfectHash)
}
