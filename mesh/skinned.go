package mesh

import (
	"fmt"
	"io"

	"github.com/phanxgames/riftkit"
	"github.com/phanxgames/riftkit/internal/rw"
)

// SkinnedMagic is the u32 magic of a simple skin (.skn) file.
const SkinnedMagic = 0x00112233

// Vertex declarations a v4 skin can carry, selected by (size, type).
var (
	// SkinnedBasic is the 52-byte layout every version supports.
	SkinnedBasic = Description{Usage: UsageStatic, Elements: []Element{
		Position, BlendIndex, BlendWeight, Normal, Texcoord0,
	}}
	// SkinnedColor adds a primary color, 56 bytes.
	SkinnedColor = Description{Usage: UsageStatic, Elements: []Element{
		Position, BlendIndex, BlendWeight, Normal, Texcoord0, PrimaryColor,
	}}
	// SkinnedTangent adds color and tangent, 72 bytes.
	SkinnedTangent = Description{Usage: UsageStatic, Elements: []Element{
		Position, BlendIndex, BlendWeight, Normal, Texcoord0, PrimaryColor, Tangent,
	}}
)

// SkinnedRange maps a material name onto a span of vertices and indices.
type SkinnedRange struct {
	Material    string
	StartVertex int32
	VertexCount int32
	StartIndex  int32
	IndexCount  int32
}

func readSkinnedRange(r io.Reader) (SkinnedRange, error) {
	var out SkinnedRange
	var err error
	if out.Material, err = rw.ReadPaddedString(r, 64); err != nil {
		return out, err
	}
	if out.StartVertex, err = rw.ReadI32(r); err != nil {
		return out, err
	}
	if out.VertexCount, err = rw.ReadI32(r); err != nil {
		return out, err
	}
	if out.StartIndex, err = rw.ReadI32(r); err != nil {
		return out, err
	}
	out.IndexCount, err = rw.ReadI32(r)
	return out, err
}

// SkinnedMesh is a parsed simple skin.
type SkinnedMesh struct {
	ranges       []SkinnedRange
	vertexBuffer *VertexBuffer
	indexBuffer  *IndexBuffer
	aabb         riftkit.AABB
	sphere       riftkit.Sphere
}

// Ranges returns the material ranges.
func (m *SkinnedMesh) Ranges() []SkinnedRange { return m.ranges }

// VertexBuffer returns the mesh's vertices.
func (m *SkinnedMesh) VertexBuffer() *VertexBuffer { return m.vertexBuffer }

// IndexBuffer returns the mesh's triangle indices.
func (m *SkinnedMesh) IndexBuffer() *IndexBuffer { return m.indexBuffer }

// AABB returns the bounds computed from vertex positions.
func (m *SkinnedMesh) AABB() riftkit.AABB { return m.aabb }

// BoundingSphere returns the sphere enclosing the AABB.
func (m *SkinnedMesh) BoundingSphere() riftkit.Sphere { return m.sphere }

// NewSkinnedMesh wraps buffers into a mesh, computing bounds from the
// position element.
func NewSkinnedMesh(ranges []SkinnedRange, vertexBuffer *VertexBuffer, indexBuffer *IndexBuffer) (*SkinnedMesh, error) {
	positions, ok := vertexBuffer.Accessor(ElementPosition)
	if !ok {
		return nil, fmt.Errorf("mesh: skinned vertex buffer has no position element")
	}
	aabb := riftkit.AABBFromPoints(positions.Vec3s())
	return &SkinnedMesh{
		ranges:       ranges,
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
		aabb:         aabb,
		sphere:       aabb.BoundingSphere(),
	}, nil
}

// ReadSkinnedMesh parses a simple skin. Versions 0, 2, and 4 are supported;
// only v4 carries a vertex declaration, earlier versions always use the
// basic layout.
func ReadSkinnedMesh(r io.Reader) (*SkinnedMesh, error) {
	magic, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if magic != SkinnedMagic {
		return nil, fmt.Errorf("mesh: invalid skinned mesh magic %#x", magic)
	}

	major, err := rw.ReadU16(r)
	if err != nil {
		return nil, err
	}
	minor, err := rw.ReadU16(r)
	if err != nil {
		return nil, err
	}
	if (major != 0 && major != 2 && major != 4) || minor != 1 {
		return nil, fmt.Errorf("mesh: invalid skinned mesh version %d.%d", major, minor)
	}

	var indexCount, vertexCount int32
	var ranges []SkinnedRange
	declaration := SkinnedBasic

	if major == 0 {
		if indexCount, err = rw.ReadI32(r); err != nil {
			return nil, err
		}
		if vertexCount, err = rw.ReadI32(r); err != nil {
			return nil, err
		}
		ranges = []SkinnedRange{{Material: "Base"}}
	} else {
		rangeCount, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		ranges = make([]SkinnedRange, 0, rangeCount)
		for i := uint32(0); i < rangeCount; i++ {
			rng, err := readSkinnedRange(r)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, rng)
		}

		if major == 4 {
			// Flags; carried nowhere.
			if _, err := rw.ReadU32(r); err != nil {
				return nil, err
			}
		}

		if indexCount, err = rw.ReadI32(r); err != nil {
			return nil, err
		}
		if vertexCount, err = rw.ReadI32(r); err != nil {
			return nil, err
		}

		if major == 4 {
			vertexSize, err := rw.ReadU32(r)
			if err != nil {
				return nil, err
			}
			vertexType, err := rw.ReadU32(r)
			if err != nil {
				return nil, err
			}
			switch {
			case vertexSize == 52 && vertexType == 0:
				declaration = SkinnedBasic
			case vertexSize == 56 && vertexType == 1:
				declaration = SkinnedColor
			case vertexSize == 72 && vertexType == 2:
				declaration = SkinnedTangent
			default:
				return nil, fmt.Errorf("mesh: invalid skinned vertex declaration: type %d size %d", vertexType, vertexSize)
			}

			// Stored bounds; recomputed from positions instead.
			if _, err := rw.ReadAABB(r); err != nil {
				return nil, err
			}
			if _, err := rw.ReadSphere(r); err != nil {
				return nil, err
			}
		}
	}

	indexBuffer, err := ReadIndexBuffer(r, IndexU16, int(indexCount))
	if err != nil {
		return nil, err
	}

	vertexData := make([]byte, declaration.VertexSize()*int(vertexCount))
	if _, err := io.ReadFull(r, vertexData); err != nil {
		return nil, err
	}
	vertexBuffer, err := declaration.NewBuffer(vertexData)
	if err != nil {
		return nil, err
	}

	return NewSkinnedMesh(ranges, vertexBuffer, indexBuffer)
}
