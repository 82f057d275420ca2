package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Usage is the driver usage hint recorded with a vertex buffer description.
type Usage uint32

const (
	UsageStatic Usage = iota
	UsageDynamic
	UsageStream
)

// Description holds the element layout and usage of a vertex buffer.
type Description struct {
	Usage    Usage
	Elements []Element
}

// VertexSize returns the stride implied by the element layout.
func (d *Description) VertexSize() int {
	size := 0
	for _, e := range d.Elements {
		size += e.Size()
	}
	return size
}

// ElementFlags returns the bitset with one bit per present element name.
func (d *Description) ElementFlags() uint32 {
	var flags uint32
	for _, e := range d.Elements {
		flags |= 1 << uint32(e.Name)
	}
	return flags
}

// NewBuffer validates and wraps the element layout over raw interleaved
// bytes. Returns an error for duplicate element names or a byte length
// that is not a multiple of the stride.
func (d Description) NewBuffer(data []byte) (*VertexBuffer, error) {
	elements := make(map[ElementName]elementSlot, len(d.Elements))
	offset := 0
	for _, e := range d.Elements {
		if _, exists := elements[e.Name]; exists {
			return nil, fmt.Errorf("mesh: duplicate vertex element %s", e.Name)
		}
		elements[e.Name] = elementSlot{element: e, offset: offset}
		offset += e.Size()
	}
	stride := offset
	if stride == 0 {
		return nil, fmt.Errorf("mesh: vertex buffer without elements")
	}
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("mesh: buffer size %d is not a multiple of stride %d", len(data), stride)
	}
	return &VertexBuffer{
		description: d,
		elements:    elements,
		stride:      stride,
		count:       len(data) / stride,
		data:        data,
	}, nil
}

type elementSlot struct {
	element Element
	offset  int
}

// VertexBuffer is a tightly packed interleaved vertex array.
type VertexBuffer struct {
	description Description
	elements    map[ElementName]elementSlot
	stride      int
	count       int
	data        []byte
}

// Description returns the buffer's layout description.
func (b *VertexBuffer) Description() *Description { return &b.description }

// Stride returns the byte distance between consecutive vertices.
func (b *VertexBuffer) Stride() int { return b.stride }

// Count returns the number of vertices.
func (b *VertexBuffer) Count() int { return b.count }

// Bytes returns the raw interleaved data.
func (b *VertexBuffer) Bytes() []byte { return b.data }

// Accessor returns a typed view of one element across all vertices, or
// false if the element is not present.
func (b *VertexBuffer) Accessor(name ElementName) (*Accessor, bool) {
	slot, ok := b.elements[name]
	if !ok {
		return nil, false
	}
	return &Accessor{buffer: b, element: slot.element, offset: slot.offset}, true
}

// Accessor is a lazy typed view of a single element over a vertex buffer.
type Accessor struct {
	buffer  *VertexBuffer
	element Element
	offset  int
}

// Element returns the viewed element.
func (a *Accessor) Element() Element { return a.element }

// Count returns the number of vertices.
func (a *Accessor) Count() int { return a.buffer.count }

func (a *Accessor) at(index int) int {
	return a.buffer.stride*index + a.offset
}

func (a *Accessor) f32At(offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(a.buffer.data[offset:]))
}

// F32 reads the element of vertex index as a single float. The element
// format must be X_Float32.
func (a *Accessor) F32(index int) float32 {
	return a.f32At(a.at(index))
}

// Vec2 reads the element of vertex index as two floats.
func (a *Accessor) Vec2(index int) mgl32.Vec2 {
	off := a.at(index)
	return mgl32.Vec2{a.f32At(off), a.f32At(off + 4)}
}

// Vec3 reads the element of vertex index as three floats.
func (a *Accessor) Vec3(index int) mgl32.Vec3 {
	off := a.at(index)
	return mgl32.Vec3{a.f32At(off), a.f32At(off + 4), a.f32At(off + 8)}
}

// Vec4 reads the element of vertex index as four floats.
func (a *Accessor) Vec4(index int) mgl32.Vec4 {
	off := a.at(index)
	return mgl32.Vec4{a.f32At(off), a.f32At(off + 4), a.f32At(off + 8), a.f32At(off + 12)}
}

// Packed reads the element of vertex index as four packed bytes.
func (a *Accessor) Packed(index int) [4]uint8 {
	off := a.at(index)
	return [4]uint8{
		a.buffer.data[off],
		a.buffer.data[off+1],
		a.buffer.data[off+2],
		a.buffer.data[off+3],
	}
}

// Vec3s iterates the element across all vertices as Vec3.
func (a *Accessor) Vec3s() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, a.Count())
	for i := range out {
		out[i] = a.Vec3(i)
	}
	return out
}
