package riftkit

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Color is an RGBA color with byte components, matching the on-disk layout
// used by property bins and vertex colors. Not premultiplied.
type Color struct {
	R, G, B, A uint8
}

// ColorWhite is opaque white, the identity tint.
var ColorWhite = Color{255, 255, 255, 255}

// Vec4 returns the color as normalized float components in [0, 1].
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// ColorFromVec4 converts normalized float components to a byte color,
// clamping each component to [0, 1].
func ColorFromVec4(v mgl32.Vec4) Color {
	clamp := func(f float32) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f * 255)
	}
	return Color{clamp(v[0]), clamp(v[1]), clamp(v[2]), clamp(v[3])}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// AABBFromPoints returns the smallest box containing all points.
// The zero AABB is returned for an empty slice.
func AABBFromPoints(points []mgl32.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Extend(p)
	}
	return box
}

// BoundingSphere returns the sphere centered on the box that contains it.
func (b AABB) BoundingSphere() Sphere {
	c := b.Center()
	return Sphere{Origin: c, Radius: b.Max.Sub(c).Len()}
}

// Sphere is a bounding sphere.
type Sphere struct {
	Origin mgl32.Vec3
	Radius float32
}
