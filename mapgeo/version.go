// Package mapgeo reads the bucketed environment geometry format (.mapgeo)
// structurally: meshes, shared vertex/index buffers, spatial bucket grids,
// and planar reflectors.
package mapgeo

// version gates the many layout differences between mapgeo revisions.
// Versions 5 through 17 are supported.
type version uint32

// hasMeshNames: mesh names are stored in the file up to v11; later versions
// derive them from the mesh index.
func (v version) hasMeshNames() bool { return v <= 11 }

func (v version) hasSeparatePointLightsFlag() bool { return v < 7 }

func (v version) hasEarlyVisibilityFlags() bool { return v >= 13 }

func (v version) hasVisibilityControllerPathHash() bool { return v >= 15 }

// hasBackfaceCullingFlag: every version except 5 stores the flag.
func (v version) hasBackfaceCullingFlag() bool { return v != 5 }

func (v version) hasMidVisibilityFlags() bool { return v >= 7 && v <= 12 }

func (v version) hasOldRenderFlags() bool { return v >= 11 && v < 14 }

func (v version) hasNewRenderFlags() bool { return v >= 14 }

func (v version) hasU16RenderFlags() bool { return v >= 16 }

func (v version) hasSphericalHarmonics() bool { return v < 9 }

func (v version) hasOldBakedPaint() bool { return v >= 12 && v < 17 }

func (v version) hasTextureOverrides() bool { return v >= 17 }

func (v version) hasPlanarReflectors() bool { return v >= 13 }

func (v version) hasMultipleSceneGraphs() bool { return v >= 15 }

func (v version) hasBufferVisibility() bool { return v >= 13 }

func (v version) hasFirstShaderOverride() bool { return v >= 9 }

func (v version) hasSecondShaderOverride() bool { return v >= 11 }

func (v version) hasNewShaderOverrideFormat() bool { return v >= 17 }
