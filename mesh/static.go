package mesh

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
	"github.com/phanxgames/riftkit/internal/rw"
)

// StaticMeshMagic is the 8-byte magic of a binary static mesh (.scb).
const StaticMeshMagic = "r3d2Mesh"

// StaticMeshFlags is the .scb header flag bitfield.
type StaticMeshFlags uint32

const (
	// StaticMeshHasVCP marks per-face vertex color data.
	StaticMeshHasVCP StaticMeshFlags = 1 << iota
	// StaticMeshHasLocalOriginLocatorAndPivot marks the pivot fields.
	StaticMeshHasLocalOriginLocatorAndPivot
)

// StaticMeshFace is one triangle: vertex indices, a material name, and
// per-corner texture coordinates. Colors are set when the mesh carries
// face vertex colors.
type StaticMeshFace struct {
	Indices  [3]uint32
	Material string
	UVs      [3]mgl32.Vec2
	Colors   [3]riftkit.Color
}

// StaticMesh is a parsed static mesh (.scb binary or .sco ASCII content).
type StaticMesh struct {
	Name         string
	Vertices     []mgl32.Vec3
	Faces        []StaticMeshFace
	VertexColors []riftkit.Color
	// HasFaceColors marks meshes whose faces carry per-corner colors.
	HasFaceColors bool
}

// BoundingBox returns the AABB of the vertices.
func (m *StaticMesh) BoundingBox() riftkit.AABB {
	return riftkit.AABBFromPoints(m.Vertices)
}

// ReadStaticMesh parses a binary static mesh. Major versions 1 through 3
// with minor versions 0 through 2 are accepted; vertex colors appear from
// 3.2 on.
func ReadStaticMesh(r io.Reader) (*StaticMesh, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != StaticMeshMagic {
		return nil, fmt.Errorf("mesh: invalid static mesh magic %q", magic)
	}

	major, err := rw.ReadU16(r)
	if err != nil {
		return nil, err
	}
	minor, err := rw.ReadU16(r)
	if err != nil {
		return nil, err
	}
	if (major != 1 && major != 2 && major != 3) || minor > 2 {
		return nil, fmt.Errorf("mesh: invalid static mesh version %d.%d", major, minor)
	}

	mesh := &StaticMesh{}
	if mesh.Name, err = rw.ReadPaddedString(r, 128); err != nil {
		return nil, err
	}

	vertexCount, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}
	faceCount, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}

	flags, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	mesh.HasFaceColors = StaticMeshFlags(flags)&StaticMeshHasVCP != 0

	// Stored bounds; recomputed on demand.
	if _, err := rw.ReadAABB(r); err != nil {
		return nil, err
	}

	hasVertexColors := false
	if major >= 3 && minor >= 2 {
		v, err := rw.ReadI32(r)
		if err != nil {
			return nil, err
		}
		hasVertexColors = v == 1
	}

	mesh.Vertices = make([]mgl32.Vec3, vertexCount)
	for i := range mesh.Vertices {
		if mesh.Vertices[i], err = rw.ReadVec3(r); err != nil {
			return nil, err
		}
	}

	if hasVertexColors {
		mesh.VertexColors = make([]riftkit.Color, vertexCount)
		for i := range mesh.VertexColors {
			if mesh.VertexColors[i], err = rw.ReadColorBGRA(r); err != nil {
				return nil, err
			}
		}
	}

	// Central point; derivable from the bounds.
	if _, err := rw.ReadVec3(r); err != nil {
		return nil, err
	}

	mesh.Faces = make([]StaticMeshFace, faceCount)
	for i := range mesh.Faces {
		if mesh.Faces[i], err = readStaticMeshFace(r); err != nil {
			return nil, err
		}
	}

	if mesh.HasFaceColors {
		for i := range mesh.Faces {
			for c := 0; c < 3; c++ {
				if mesh.Faces[i].Colors[c], err = rw.ReadColorRGB(r); err != nil {
					return nil, err
				}
			}
		}
	}

	return mesh, nil
}

func readStaticMeshFace(r io.Reader) (StaticMeshFace, error) {
	var face StaticMeshFace
	var err error
	for i := range face.Indices {
		if face.Indices[i], err = rw.ReadU32(r); err != nil {
			return face, err
		}
	}
	if face.Material, err = rw.ReadPaddedString(r, 64); err != nil {
		return face, err
	}
	var us, vs [3]float32
	for i := range us {
		if us[i], err = rw.ReadF32(r); err != nil {
			return face, err
		}
	}
	for i := range vs {
		if vs[i], err = rw.ReadF32(r); err != nil {
			return face, err
		}
	}
	for i := range face.UVs {
		face.UVs[i] = mgl32.Vec2{us[i], vs[i]}
	}
	return face, nil
}

// Write emits the mesh in the 3.2 binary encoding.
func (m *StaticMesh) Write(w io.Writer) error {
	flags := StaticMeshHasLocalOriginLocatorAndPivot
	if m.HasFaceColors {
		flags |= StaticMeshHasVCP
	}
	aabb := m.BoundingBox()

	if _, err := io.WriteString(w, StaticMeshMagic); err != nil {
		return err
	}
	if err := rw.WriteU16(w, 3); err != nil {
		return err
	}
	if err := rw.WriteU16(w, 2); err != nil {
		return err
	}
	if err := rw.WritePaddedString(w, m.Name, 128); err != nil {
		return err
	}
	if err := rw.WriteI32(w, int32(len(m.Vertices))); err != nil {
		return err
	}
	if err := rw.WriteI32(w, int32(len(m.Faces))); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(flags)); err != nil {
		return err
	}
	if err := rw.WriteAABB(w, aabb); err != nil {
		return err
	}
	hasColors := uint32(0)
	if m.VertexColors != nil {
		hasColors = 1
	}
	if err := rw.WriteU32(w, hasColors); err != nil {
		return err
	}

	for _, v := range m.Vertices {
		if err := rw.WriteVec3(w, v); err != nil {
			return err
		}
	}
	for _, c := range m.VertexColors {
		if err := rw.WriteColorBGRA(w, c); err != nil {
			return err
		}
	}
	if err := rw.WriteVec3(w, aabb.Center()); err != nil {
		return err
	}

	for i := range m.Faces {
		if err := writeStaticMeshFace(w, &m.Faces[i]); err != nil {
			return err
		}
	}
	if m.HasFaceColors {
		for i := range m.Faces {
			for c := 0; c < 3; c++ {
				if err := rw.WriteColorRGB(w, m.Faces[i].Colors[c]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeStaticMeshFace(w io.Writer, face *StaticMeshFace) error {
	for _, idx := range face.Indices {
		if err := rw.WriteU32(w, idx); err != nil {
			return err
		}
	}
	if err := rw.WritePaddedString(w, face.Material, 64); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := rw.WriteF32(w, face.UVs[i][0]); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if err := rw.WriteF32(w, face.UVs[i][1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteASCII emits the mesh in the .sco text encoding.
func (m *StaticMesh) WriteASCII(w io.Writer) error {
	central := m.BoundingBox().Center()

	if _, err := fmt.Fprintln(w, "[ObjectBegin]"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Name= %s\n", m.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "CentralPoint= %g %g %g\n", central[0], central[1], central[2]); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "PivotPoint= %g %g %g\n", central[0], central[1], central[2]); err != nil {
		return err
	}
	if m.VertexColors != nil {
		if _, err := fmt.Fprintln(w, "VertexColors= 1"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Verts= %d\n", len(m.Vertices)); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(w, "%g %g %g\n", v[0], v[1], v[2]); err != nil {
			return err
		}
	}
	for _, c := range m.VertexColors {
		if _, err := fmt.Fprintf(w, "%d %d %d %d\n", c.R, c.G, c.B, c.A); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Faces= %d\n", len(m.Faces)); err != nil {
		return err
	}
	for i := range m.Faces {
		face := &m.Faces[i]
		if _, err := fmt.Fprintf(w, "3 %d %d %d %s %g %g %g %g %g %g\n",
			face.Indices[0], face.Indices[1], face.Indices[2], face.Material,
			face.UVs[0][0], face.UVs[0][1],
			face.UVs[1][0], face.UVs[1][1],
			face.UVs[2][0], face.UVs[2][1],
		); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "[ObjectEnd]")
	return err
}
