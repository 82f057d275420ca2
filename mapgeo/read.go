package mapgeo

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit/internal/rw"
)

// ErrInvalidMagic is returned when the file does not start with "OEGM".
var ErrInvalidMagic = errors.New("mapgeo: invalid magic")

// InvalidVersionError is returned for versions outside 5–17.
type InvalidVersionError struct {
	Version uint32
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("mapgeo: invalid file version %d", e.Version)
}

// declarationSlots is the fixed number of element slots every vertex
// declaration reserves on disk; unused slots are zero padding.
const declarationSlots = 15

// Read parses an environment asset from r.
func Read(r io.Reader) (*Asset, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != "OEGM" {
		return nil, ErrInvalidMagic
	}

	rawVersion, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if rawVersion < 5 || rawVersion > 17 {
		return nil, &InvalidVersionError{Version: rawVersion}
	}
	v := version(rawVersion)
	asset := &Asset{Version: rawVersion}

	useSeparatePointLights := false
	if v.hasSeparatePointLightsFlag() {
		flag, err := rw.ReadU8(r)
		if err != nil {
			return nil, err
		}
		useSeparatePointLights = flag != 0
	}

	if asset.ShaderTextureOverrides, err = readShaderTextureOverrides(r, v); err != nil {
		return nil, err
	}

	declCount, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	asset.VertexDeclarations = make([]VertexDeclaration, 0, declCount)
	for i := uint32(0); i < declCount; i++ {
		decl, err := readVertexDeclaration(r)
		if err != nil {
			return nil, err
		}
		asset.VertexDeclarations = append(asset.VertexDeclarations, decl)
	}

	if asset.VertexBuffers, err = readRawBuffers(r, v); err != nil {
		return nil, err
	}
	if asset.IndexBuffers, err = readRawBuffers(r, v); err != nil {
		return nil, err
	}

	meshCount, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	asset.Meshes = make([]Mesh, 0, meshCount)
	for i := uint32(0); i < meshCount; i++ {
		mesh, err := readMesh(r, int(i), v, useSeparatePointLights)
		if err != nil {
			return nil, err
		}
		asset.Meshes = append(asset.Meshes, mesh)
	}

	if v.hasMultipleSceneGraphs() {
		graphCount, err := rw.ReadI32(r)
		if err != nil {
			return nil, err
		}
		asset.SceneGraphs = make([]BucketedGeometry, 0, graphCount)
		for i := int32(0); i < graphCount; i++ {
			graph, err := readBucketedGeometry(r, false)
			if err != nil {
				return nil, err
			}
			asset.SceneGraphs = append(asset.SceneGraphs, graph)
		}
	} else {
		graph, err := readBucketedGeometry(r, true)
		if err != nil {
			return nil, err
		}
		asset.SceneGraphs = []BucketedGeometry{graph}
	}

	if v.hasPlanarReflectors() {
		reflectorCount, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		asset.PlanarReflectors = make([]PlanarReflector, 0, reflectorCount)
		for i := uint32(0); i < reflectorCount; i++ {
			reflector, err := readPlanarReflector(r)
			if err != nil {
				return nil, err
			}
			asset.PlanarReflectors = append(asset.PlanarReflectors, reflector)
		}
	}

	return asset, nil
}

func readShaderTextureOverrides(r io.Reader, v version) ([]ShaderTextureOverride, error) {
	if v.hasNewShaderOverrideFormat() {
		count, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		out := make([]ShaderTextureOverride, 0, count)
		for i := uint32(0); i < count; i++ {
			index, err := rw.ReadU32(r)
			if err != nil {
				return nil, err
			}
			texture, err := rw.ReadString32(r)
			if err != nil {
				return nil, err
			}
			out = append(out, ShaderTextureOverride{Index: index, Texture: texture})
		}
		return out, nil
	}

	var out []ShaderTextureOverride
	if v.hasFirstShaderOverride() {
		texture, err := rw.ReadString32(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ShaderTextureOverride{Index: 0, Texture: texture})
	}
	if v.hasSecondShaderOverride() {
		texture, err := rw.ReadString32(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ShaderTextureOverride{Index: 1, Texture: texture})
	}
	return out, nil
}

func readVertexDeclaration(r io.Reader) (VertexDeclaration, error) {
	var decl VertexDeclaration
	var err error
	if decl.Usage, err = rw.ReadU32(r); err != nil {
		return decl, err
	}
	elementCount, err := rw.ReadU32(r)
	if err != nil {
		return decl, err
	}
	if elementCount > declarationSlots {
		return decl, fmt.Errorf("mapgeo: vertex declaration claims %d elements", elementCount)
	}
	decl.Elements = make([]DeclElement, 0, elementCount)
	for slot := uint32(0); slot < declarationSlots; slot++ {
		name, err := rw.ReadU32(r)
		if err != nil {
			return decl, err
		}
		format, err := rw.ReadU32(r)
		if err != nil {
			return decl, err
		}
		if slot < elementCount {
			decl.Elements = append(decl.Elements, DeclElement{Name: name, Format: format})
		}
	}
	return decl, nil
}

func readRawBuffers(r io.Reader, v version) ([]RawBuffer, error) {
	count, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]RawBuffer, 0, count)
	for i := uint32(0); i < count; i++ {
		var buf RawBuffer
		if v.hasBufferVisibility() {
			vis, err := rw.ReadU8(r)
			if err != nil {
				return nil, err
			}
			buf.Visibility = Visibility(vis)
		}
		size, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		buf.Data = make([]byte, size)
		if _, err := io.ReadFull(r, buf.Data); err != nil {
			return nil, err
		}
		out = append(out, buf)
	}
	return out, nil
}

func readMesh(r io.Reader, id int, v version, useSeparatePointLights bool) (Mesh, error) {
	var mesh Mesh
	var err error

	if v.hasMeshNames() {
		if mesh.Name, err = rw.ReadString32(r); err != nil {
			return mesh, err
		}
	} else {
		mesh.Name = fmt.Sprintf("MapGeo_Instance_%d", id)
	}

	vertexCount, err := rw.ReadI32(r)
	if err != nil {
		return mesh, err
	}
	mesh.VertexCount = uint32(vertexCount)

	declCount, err := rw.ReadU32(r)
	if err != nil {
		return mesh, err
	}
	baseDecl, err := rw.ReadI32(r)
	if err != nil {
		return mesh, err
	}
	mesh.BaseVertexDeclarationID = int(baseDecl)
	mesh.VertexBufferIDs = make([]int, 0, declCount)
	for i := uint32(0); i < declCount; i++ {
		bufID, err := rw.ReadI32(r)
		if err != nil {
			return mesh, err
		}
		mesh.VertexBufferIDs = append(mesh.VertexBufferIDs, int(bufID))
	}

	if mesh.IndexCount, err = rw.ReadU32(r); err != nil {
		return mesh, err
	}
	indexBufferID, err := rw.ReadI32(r)
	if err != nil {
		return mesh, err
	}
	mesh.IndexBufferID = int(indexBufferID)

	mesh.Visibility = VisibilityAllLayers
	if v.hasEarlyVisibilityFlags() {
		vis, err := rw.ReadU8(r)
		if err != nil {
			return mesh, err
		}
		mesh.Visibility = Visibility(vis)
	}
	if v.hasVisibilityControllerPathHash() {
		if mesh.VisibilityControllerPathHash, err = rw.ReadU32(r); err != nil {
			return mesh, err
		}
	}

	submeshCount, err := rw.ReadU32(r)
	if err != nil {
		return mesh, err
	}
	mesh.Submeshes = make([]Submesh, 0, submeshCount)
	for i := uint32(0); i < submeshCount; i++ {
		submesh, err := readSubmesh(r)
		if err != nil {
			return mesh, err
		}
		mesh.Submeshes = append(mesh.Submeshes, submesh)
	}

	if v.hasBackfaceCullingFlag() {
		flag, err := rw.ReadU8(r)
		if err != nil {
			return mesh, err
		}
		mesh.DisableBackfaceCulling = flag != 0
	}

	if mesh.BoundingBox, err = rw.ReadAABB(r); err != nil {
		return mesh, err
	}
	if mesh.Transform, err = rw.ReadMat4RowMajor(r); err != nil {
		return mesh, err
	}

	quality, err := rw.ReadU8(r)
	if err != nil {
		return mesh, err
	}
	mesh.Quality = Quality(quality)

	if v.hasMidVisibilityFlags() {
		vis, err := rw.ReadU8(r)
		if err != nil {
			return mesh, err
		}
		mesh.Visibility = Visibility(vis)
	}

	switch {
	case v.hasOldRenderFlags():
		flags, err := rw.ReadU8(r)
		if err != nil {
			return mesh, err
		}
		mesh.RenderFlags = RenderFlags(flags)
		if mesh.RenderFlags&RenderIsDecal != 0 {
			mesh.TransitionBehavior = TransitionTurnVisibleMatchesNewLayer
		}
	case v.hasNewRenderFlags():
		behavior, err := rw.ReadU8(r)
		if err != nil {
			return mesh, err
		}
		if behavior <= uint8(TransitionTurnVisibleMatchesNewLayer) {
			mesh.TransitionBehavior = TransitionBehavior(behavior)
		}
		if v.hasU16RenderFlags() {
			flags, err := rw.ReadU16(r)
			if err != nil {
				return mesh, err
			}
			mesh.RenderFlags = RenderFlags(flags)
		} else {
			flags, err := rw.ReadU8(r)
			if err != nil {
				return mesh, err
			}
			mesh.RenderFlags = RenderFlags(flags)
		}
	}

	if useSeparatePointLights && v.hasSeparatePointLightsFlag() {
		light, err := rw.ReadVec3(r)
		if err != nil {
			return mesh, err
		}
		mesh.PointLight = &light
	}

	if v.hasSphericalHarmonics() {
		var sh [9]mgl32.Vec3
		for i := range sh {
			if sh[i], err = rw.ReadVec3(r); err != nil {
				return mesh, err
			}
		}
		mesh.SphericalHarmonics = &sh
		if mesh.BakedLight, err = readChannel(r); err != nil {
			return mesh, err
		}
		return mesh, nil
	}

	if mesh.BakedLight, err = readChannel(r); err != nil {
		return mesh, err
	}
	if mesh.StationaryLight, err = readChannel(r); err != nil {
		return mesh, err
	}

	if v.hasOldBakedPaint() {
		if mesh.BakedPaint, err = readChannel(r); err != nil {
			return mesh, err
		}
	} else if v.hasTextureOverrides() {
		overrideCount, err := rw.ReadI32(r)
		if err != nil {
			return mesh, err
		}
		mesh.TextureOverrides = make([]TextureOverride, 0, overrideCount)
		for i := int32(0); i < overrideCount; i++ {
			index, err := rw.ReadU32(r)
			if err != nil {
				return mesh, err
			}
			texture, err := rw.ReadString32(r)
			if err != nil {
				return mesh, err
			}
			mesh.TextureOverrides = append(mesh.TextureOverrides, TextureOverride{Index: index, Texture: texture})
		}
		if mesh.BakedPaint.Scale, err = rw.ReadVec2(r); err != nil {
			return mesh, err
		}
		if mesh.BakedPaint.Bias, err = rw.ReadVec2(r); err != nil {
			return mesh, err
		}
	}

	return mesh, nil
}

func readSubmesh(r io.Reader) (Submesh, error) {
	var s Submesh
	var err error
	if s.Hash, err = rw.ReadU32(r); err != nil {
		return s, err
	}
	if s.Material, err = rw.ReadString32(r); err != nil {
		return s, err
	}
	if s.StartIndex, err = rw.ReadU32(r); err != nil {
		return s, err
	}
	if s.IndexCount, err = rw.ReadU32(r); err != nil {
		return s, err
	}
	if s.MinVertex, err = rw.ReadU32(r); err != nil {
		return s, err
	}
	s.MaxVertex, err = rw.ReadU32(r)
	return s, err
}

func readChannel(r io.Reader) (Channel, error) {
	var c Channel
	var err error
	if c.Texture, err = rw.ReadString32(r); err != nil {
		return c, err
	}
	if c.Scale, err = rw.ReadVec2(r); err != nil {
		return c, err
	}
	c.Bias, err = rw.ReadVec2(r)
	return c, err
}

func readBucketedGeometry(r io.Reader, legacy bool) (BucketedGeometry, error) {
	var g BucketedGeometry
	var err error

	if !legacy {
		if g.VisibilityControllerPathHash, err = rw.ReadU32(r); err != nil {
			return g, err
		}
	}

	for _, field := range []*float32{
		&g.MinX, &g.MinZ, &g.MaxX, &g.MaxZ,
		&g.MaxStickOutX, &g.MaxStickOutZ,
		&g.BucketSizeX, &g.BucketSizeZ,
	} {
		if *field, err = rw.ReadF32(r); err != nil {
			return g, err
		}
	}

	if g.BucketsPerSide, err = rw.ReadU16(r); err != nil {
		return g, err
	}
	disabled, err := rw.ReadU8(r)
	if err != nil {
		return g, err
	}
	g.Disabled = disabled != 0
	if g.Flags, err = rw.ReadU8(r); err != nil {
		return g, err
	}

	vertexCount, err := rw.ReadU32(r)
	if err != nil {
		return g, err
	}
	indexCount, err := rw.ReadU32(r)
	if err != nil {
		return g, err
	}

	if g.Disabled {
		return g, nil
	}

	g.Vertices = make([]mgl32.Vec3, vertexCount)
	for i := range g.Vertices {
		if g.Vertices[i], err = rw.ReadVec3(r); err != nil {
			return g, err
		}
	}
	g.Indices = make([]uint16, indexCount)
	for i := range g.Indices {
		if g.Indices[i], err = rw.ReadU16(r); err != nil {
			return g, err
		}
	}

	bucketCount := int(g.BucketsPerSide) * int(g.BucketsPerSide)
	g.Buckets = make([]Bucket, bucketCount)
	for i := range g.Buckets {
		if g.Buckets[i], err = readBucket(r); err != nil {
			return g, err
		}
	}

	if g.Flags&bucketedGeometryHasFaceFlags != 0 {
		faceCount := int(indexCount) / 3
		g.FaceVisibility = make([]Visibility, faceCount)
		for i := range g.FaceVisibility {
			vis, err := rw.ReadU8(r)
			if err != nil {
				return g, err
			}
			g.FaceVisibility[i] = Visibility(vis)
		}
	}

	return g, nil
}

func readBucket(r io.Reader) (Bucket, error) {
	var b Bucket
	var err error
	if b.MaxStickOutX, err = rw.ReadF32(r); err != nil {
		return b, err
	}
	if b.MaxStickOutZ, err = rw.ReadF32(r); err != nil {
		return b, err
	}
	if b.StartIndex, err = rw.ReadU32(r); err != nil {
		return b, err
	}
	if b.BaseVertex, err = rw.ReadU32(r); err != nil {
		return b, err
	}
	if b.InsideFaceCount, err = rw.ReadU16(r); err != nil {
		return b, err
	}
	b.StickingOutFaceCount, err = rw.ReadU16(r)
	return b, err
}

func readPlanarReflector(r io.Reader) (PlanarReflector, error) {
	var p PlanarReflector
	var err error
	if p.Transform, err = rw.ReadMat4RowMajor(r); err != nil {
		return p, err
	}
	if p.Bounds, err = rw.ReadAABB(r); err != nil {
		return p, err
	}
	p.Normal, err = rw.ReadVec3(r)
	return p, err
}
