package mesh

import (
	"encoding/binary"
	"fmt"
	"io"
)

// IndexFormat is the width of one index.
type IndexFormat int

const (
	IndexU16 IndexFormat = iota
	IndexU32
)

// Size returns the byte width of one index.
func (f IndexFormat) Size() int {
	if f == IndexU16 {
		return 2
	}
	return 4
}

// IndexBuffer wraps a raw buffer of u16 or u32 indices.
type IndexBuffer struct {
	format IndexFormat
	count  int
	data   []byte
}

// NewIndexBuffer wraps raw index data. The byte length must be a multiple
// of the index size.
func NewIndexBuffer(format IndexFormat, data []byte) (*IndexBuffer, error) {
	stride := format.Size()
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("mesh: index buffer size %d is not a multiple of index size %d", len(data), stride)
	}
	return &IndexBuffer{format: format, count: len(data) / stride, data: data}, nil
}

// ReadIndexBuffer reads count indices from r.
func ReadIndexBuffer(r io.Reader, format IndexFormat, count int) (*IndexBuffer, error) {
	data := make([]byte, format.Size()*count)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return NewIndexBuffer(format, data)
}

// Format returns the index width.
func (b *IndexBuffer) Format() IndexFormat { return b.format }

// Count returns the number of indices.
func (b *IndexBuffer) Count() int { return b.count }

// Bytes returns the raw underlying data.
func (b *IndexBuffer) Bytes() []byte { return b.data }

// At returns the index at position i.
func (b *IndexBuffer) At(i int) uint32 {
	if b.format == IndexU16 {
		return uint32(binary.LittleEndian.Uint16(b.data[i*2:]))
	}
	return binary.LittleEndian.Uint32(b.data[i*4:])
}

// Indices returns all indices widened to u32.
func (b *IndexBuffer) Indices() []uint32 {
	out := make([]uint32, b.count)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}
