package mapgeo

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
)

// Visibility is the 8-layer visibility bitfield used by meshes and faces.
type Visibility uint8

// VisibilityAllLayers is the default: visible on every layer.
const VisibilityAllLayers Visibility = 0xFF

// RenderFlags controls per-mesh rendering behaviors.
type RenderFlags uint16

const (
	// RenderIsDecal renders the mesh as a decal.
	RenderIsDecal RenderFlags = 1 << iota
	// RenderHasEnvironmentDistortion routes distortion into its own buffer.
	RenderHasEnvironmentDistortion
	// RenderOnlyIfEyeCandyOn draws only with "eye candy" enabled.
	RenderOnlyIfEyeCandyOn
	// RenderOnlyIfEyeCandyOff draws only with "eye candy" disabled.
	RenderOnlyIfEyeCandyOff
	// RenderCreateShadowBuffer creates a shadow buffer.
	RenderCreateShadowBuffer
	// RenderCreateShadowMapMaterial creates a shadow map material.
	RenderCreateShadowMapMaterial
	// RenderUnkCreateDepthBuffer2 is an unknown depth buffer flag.
	RenderUnkCreateDepthBuffer2
	// RenderCreateDepthBuffer creates a depth buffer.
	RenderCreateDepthBuffer
)

// Quality selects which quality settings a mesh appears in.
type Quality uint8

const (
	QualityVeryLow Quality = 1 << iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

// TransitionBehavior controls how a mesh reacts to visibility layer
// transitions.
type TransitionBehavior uint8

const (
	TransitionUnaffected TransitionBehavior = iota
	TransitionTurnInvisible
	TransitionTurnVisibleMatchesNewLayer
)

// Channel is one lighting/paint texture channel: a texture path with a UV
// scale and bias.
type Channel struct {
	Texture string
	Scale   mgl32.Vec2
	Bias    mgl32.Vec2
}

// TextureOverride replaces one sampler's texture for a mesh.
type TextureOverride struct {
	Index   uint32
	Texture string
}

// Submesh is a material-bound index range of a mesh.
type Submesh struct {
	Hash       uint32
	Material   string
	StartIndex uint32
	IndexCount uint32
	MinVertex  uint32
	MaxVertex  uint32
}

// Mesh is one renderable environment mesh. Buffer ids index into the
// asset's shared vertex/index buffer arrays.
type Mesh struct {
	Name                         string
	VertexCount                  uint32
	VertexBufferIDs              []int
	BaseVertexDeclarationID      int
	IndexCount                   uint32
	IndexBufferID                int
	Submeshes                    []Submesh
	DisableBackfaceCulling       bool
	BoundingBox                  riftkit.AABB
	Transform                    mgl32.Mat4
	Quality                      Quality
	Visibility                   Visibility
	VisibilityControllerPathHash uint32
	RenderFlags                  RenderFlags
	TransitionBehavior           TransitionBehavior
	PointLight                   *mgl32.Vec3
	SphericalHarmonics           *[9]mgl32.Vec3
	BakedLight                   Channel
	StationaryLight              Channel
	BakedPaint                   Channel
	TextureOverrides             []TextureOverride
}

// Bucket is one cell of the spatial partitioning grid.
type Bucket struct {
	MaxStickOutX         float32
	MaxStickOutZ         float32
	StartIndex           uint32
	BaseVertex           uint32
	InsideFaceCount      uint16
	StickingOutFaceCount uint16
}

// IndexCount returns the number of indices the bucket spans.
func (b *Bucket) IndexCount() uint32 {
	return (uint32(b.InsideFaceCount) + uint32(b.StickingOutFaceCount)) * 3
}

// BucketedGeometry is a uniform 2D grid over simplified walkable geometry,
// used for spatial queries.
type BucketedGeometry struct {
	VisibilityControllerPathHash uint32
	MinX, MinZ, MaxX, MaxZ       float32
	MaxStickOutX, MaxStickOutZ   float32
	BucketSizeX, BucketSizeZ     float32
	BucketsPerSide               uint16
	Disabled                     bool
	Flags                        uint8
	Vertices                     []mgl32.Vec3
	Indices                      []uint16
	// Buckets holds BucketsPerSide² cells in row-major order.
	Buckets []Bucket
	// FaceVisibility is per-face visibility, present when flagged.
	FaceVisibility []Visibility
}

// bucketedGeometryHasFaceFlags marks per-face visibility data.
const bucketedGeometryHasFaceFlags = 1 << 0

// PlanarReflector is a reflective plane inside the environment.
type PlanarReflector struct {
	Transform mgl32.Mat4
	Bounds    riftkit.AABB
	Normal    mgl32.Vec3
}

// ShaderTextureOverride is a global sampler replacement.
type ShaderTextureOverride struct {
	Index   uint32
	Texture string
}

// Asset is a parsed environment: meshes plus the shared buffers and
// spatial structures they reference.
type Asset struct {
	Version                uint32
	ShaderTextureOverrides []ShaderTextureOverride
	VertexDeclarations     []VertexDeclaration
	VertexBuffers          []RawBuffer
	IndexBuffers           []RawBuffer
	Meshes                 []Mesh
	SceneGraphs            []BucketedGeometry
	PlanarReflectors       []PlanarReflector
}

// VertexDeclaration is one element layout referenced by meshes.
type VertexDeclaration struct {
	Usage    uint32
	Elements []DeclElement
}

// DeclElement is one (name, format) pair of a vertex declaration.
type DeclElement struct {
	Name   uint32
	Format uint32
}

// RawBuffer is a shared buffer's raw bytes plus its visibility byte (kept
// from v13 on).
type RawBuffer struct {
	Visibility Visibility
	Data       []byte
}
