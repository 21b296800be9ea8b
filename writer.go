package fsa

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/tamirms/fsa/internal/encoding"
	"github.com/tamirms/fsa/internal/pack"
)

// image is the serialized form of a packed automaton: a header plus the four
// little-endian arrays, exactly as they appear on disk after the header.
// A reader can query an image in place.
type image struct {
	header      header
	symbols     []byte
	states      []byte
	data        []byte
	perfectHash []byte // nil when the automaton has no perfect hash
}

// newImage encodes packer output. The symbol and data slices are shared
// with out.
func newImage(out pack.Output, serial uint32) *image {
	img := &image{
		symbols: out.Symbols,
		states:  encoding.AppendUint32s(make([]byte, 0, len(out.States)*stateSize), out.States),
		data:    out.Data,
	}
	if out.PerfectHash != nil {
		img.perfectHash = encoding.AppendUint32s(make([]byte, 0, len(out.PerfectHash)*stateSize), out.PerfectHash)
	}

	img.header = header{
		Magic:          magic,
		Version:        version,
		Size:           uint32(len(out.Symbols)),
		Start:          out.Start,
		DataSize:       uint32(len(out.Data)),
		DataType:       DataVariable,
		HasPerfectHash: out.PerfectHash != nil,
		Serial:         serial,
	}
	if out.FixedSize >= 0 {
		img.header.DataType = DataFixed
		img.header.FixedDataSize = uint32(out.FixedSize)
	}
	img.header.Checksum = checksum(img.symbols, img.states, img.data, img.perfectHash)
	return img
}

// fileSize returns the serialized length in bytes.
func (img *image) fileSize() int64 {
	return int64(img.header.fileSize())
}

// encodeTo writes the whole image into buf, which must be fileSize() long.
func (img *image) encodeTo(buf []byte) {
	img.header.encodeTo(buf[:headerSize])
	off := headerSize
	for _, region := range img.regions() {
		off += copy(buf[off:], region)
	}
}

func (img *image) regions() [4][]byte {
	return [4][]byte{img.symbols, img.states, img.data, img.perfectHash}
}

// WriteTo writes the serialized image to w.
func (img *image) WriteTo(w io.Writer) (int64, error) {
	var hdr [headerSize]byte
	img.header.encodeTo(hdr[:])
	n, err := w.Write(hdr[:])
	total := int64(n)
	if err != nil {
		return total, fmt.Errorf("write header: %w", err)
	}
	for _, region := range img.regions() {
		if len(region) == 0 {
			continue
		}
		n, err := w.Write(region)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write arrays: %w", err)
		}
	}
	return total, nil
}

// writeFile writes the image to path through a writable memory mapping of
// the pre-allocated output file. On failure the partial file is removed, so
// no half-written automaton is ever left behind.
func (img *image) writeFile(path string) error {
	size := img.fileSize()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create automaton file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := reserveFile(file, size); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	mm, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap automaton file: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}
	prefaultRegion(mm)

	img.encodeTo(mm)

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close(), os.Remove(path))
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}
	if err := file.Close(); err != nil {
		return errors.Join(fmt.Errorf("close automaton file: %w", err), os.Remove(path))
	}
	return nil
}
