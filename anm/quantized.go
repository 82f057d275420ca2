// Package anm decodes compressed skeletal animation streams and evaluates
// them into per-joint poses.
//
// A compressed animation stores every keyframe of every joint in one flat,
// time-sorted array of 10-byte frames. Rotations are quantized to 48 bits,
// translations and scales to three u16 components inside a per-track
// min/max box, and times to u16 fractions of the duration. A jump-cache
// sidecar allows seeking to an arbitrary time without rescanning the
// stream; sequential playback advances a cursor through the frame array,
// maintaining a four-point Catmull-Rom window per joint and channel.
package anm

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const sqrt2 = math.Sqrt2

// oneOverSqrt2 is the quantization range bound: the three stored quaternion
// components lie in [-1/√2, 1/√2].
const oneOverSqrt2 = sqrt2 / 2

// sqrt2Over32767 is the decompression scale for a 15-bit component.
const sqrt2Over32767 = sqrt2 / 32767

// DecompressQuat decodes a 48-bit quantized quaternion.
//
// Two bits identify which component had the largest magnitude (and was
// dropped); three 15-bit fields store the remaining components scaled into
// [-1/√2, 1/√2]. The dropped component is rebuilt as sqrt(1 - a² - b² - c²);
// the encoder negated the quaternion when that component was negative, so
// the rebuilt sign is positive by construction.
func DecompressQuat(b [6]byte) mgl32.Quat {
	bits := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 |
		uint64(b[3])<<24 | uint64(b[4])<<32 | uint64(b[5])<<40
	return decompressQuatBits(bits)
}

// DecompressQuatU16 decodes the quaternion from the three u16 words of a
// frame value, which hold the same 48 bits.
func DecompressQuatU16(v [3]uint16) mgl32.Quat {
	bits := uint64(v[0]) | uint64(v[1])<<16 | uint64(v[2])<<32
	return decompressQuatBits(bits)
}

func decompressQuatBits(bits uint64) mgl32.Quat {
	maxIndex := (bits >> 45) & 3

	a := float32(bits>>30&32767)*sqrt2Over32767 - oneOverSqrt2
	b := float32(bits>>15&32767)*sqrt2Over32767 - oneOverSqrt2
	c := float32(bits&32767)*sqrt2Over32767 - oneOverSqrt2

	sq := 1 - (a*a + b*b + c*c)
	if sq < 0 {
		sq = 0
	}
	d := float32(math.Sqrt(float64(sq)))

	switch maxIndex {
	case 0:
		return mgl32.Quat{V: mgl32.Vec3{d, a, b}, W: c}
	case 1:
		return mgl32.Quat{V: mgl32.Vec3{a, d, b}, W: c}
	case 2:
		return mgl32.Quat{V: mgl32.Vec3{a, b, d}, W: c}
	default:
		return mgl32.Quat{V: mgl32.Vec3{a, b, c}, W: d}
	}
}

// CompressQuat encodes a unit quaternion into the 48-bit format: the
// largest-magnitude component is dropped (after negating the quaternion if
// it was negative) and the rest are stored in 15 bits each.
func CompressQuat(q mgl32.Quat) [6]byte {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	absX, absY, absZ, absW := abs32(x), abs32(y), abs32(z), abs32(w)

	var maxIndex uint64
	var maxValue float32
	switch {
	case absX >= absW && absX >= absY && absX >= absZ:
		maxIndex, maxValue = 0, x
	case absY >= absW && absY >= absX && absY >= absZ:
		maxIndex, maxValue = 1, y
	case absZ >= absW && absZ >= absX && absZ >= absY:
		maxIndex, maxValue = 2, z
	default:
		maxIndex, maxValue = 3, w
	}
	if maxValue < 0 {
		x, y, z, w = -x, -y, -z, -w
	}

	bits := maxIndex << 45
	components := [4]float32{x, y, z, w}
	shift := uint(30)
	for i, v := range components {
		if uint64(i) == maxIndex {
			continue
		}
		stored := uint64(math.Round(16383.5*(sqrt2*float64(v)+1))) & 32767
		bits |= stored << shift
		shift -= 15
	}

	return [6]byte{
		byte(bits),
		byte(bits >> 8),
		byte(bits >> 16),
		byte(bits >> 24),
		byte(bits >> 32),
		byte(bits >> 40),
	}
}

// CompressQuatU16 returns the 48-bit encoding as the three u16 words a
// frame value stores.
func CompressQuatU16(q mgl32.Quat) [3]uint16 {
	b := CompressQuat(q)
	return [3]uint16{
		uint16(b[0]) | uint16(b[1])<<8,
		uint16(b[2]) | uint16(b[3])<<8,
		uint16(b[4]) | uint16(b[5])<<8,
	}
}

// DecompressVec3 rebuilds a vector from three u16 components linearly
// interpolated inside the [min, max] box.
func DecompressVec3(v [3]uint16, min, max mgl32.Vec3) mgl32.Vec3 {
	scale := max.Sub(min)
	return mgl32.Vec3{
		float32(v[0])/65535*scale[0] + min[0],
		float32(v[1])/65535*scale[1] + min[1],
		float32(v[2])/65535*scale[2] + min[2],
	}
}

// CompressVec3 quantizes a vector into the [min, max] box. Components on or
// outside the box clamp to its bounds.
func CompressVec3(v, min, max mgl32.Vec3) [3]uint16 {
	var out [3]uint16
	for i := 0; i < 3; i++ {
		scale := max[i] - min[i]
		if scale == 0 {
			continue
		}
		f := (v[i] - min[i]) / scale * 65535
		if f < 0 {
			f = 0
		}
		if f > 65535 {
			f = 65535
		}
		out[i] = uint16(math.Round(float64(f)))
	}
	return out
}

// CompressTime quantizes a time in [0, duration] to the u16 range.
func CompressTime(time, duration float32) uint16 {
	return uint16(time / duration * 65535)
}

// DecompressTime rebuilds a time from its u16 fraction of the duration.
func DecompressTime(compressed uint16, duration float32) float32 {
	return float32(compressed) / 65535 * duration
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
