// Package rw holds the little-endian binary I/O helpers shared by every
// format package. All multi-byte reads and writes are little-endian; the
// formats in this module never use any other byte order.
package rw

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
)

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadI8(r io.Reader) (int8, error) {
	v, err := ReadU8(r)
	return int8(v), err
}

func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func ReadI16(r io.Reader) (int16, error) {
	v, err := ReadU16(r)
	return int16(v), err
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func ReadI64(r io.Reader) (int64, error) {
	v, err := ReadU64(r)
	return int64(v), err
}

func ReadF32(r io.Reader) (float32, error) {
	v, err := ReadU32(r)
	return math.Float32frombits(v), err
}

func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadU8(r)
	return v != 0, err
}

// ReadString16 reads a string prefixed with a u16 byte length.
func ReadString16(r io.Reader) (string, error) {
	n, err := ReadU16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadString32 reads a string prefixed with a u32 byte length.
func ReadString32(r io.Reader) (string, error) {
	n, err := ReadU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadPaddedString reads a fixed-size field and returns the bytes up to the
// first NUL.
func ReadPaddedString(r io.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}

// ReadStringNul reads bytes until a NUL terminator.
func ReadStringNul(r io.Reader) (string, error) {
	var out []byte
	for {
		b, err := ReadU8(r)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
}

func ReadVec2(r io.Reader) (mgl32.Vec2, error) {
	var v mgl32.Vec2
	for i := range v {
		f, err := ReadF32(r)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func ReadVec3(r io.Reader) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := ReadF32(r)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func ReadVec4(r io.Reader) (mgl32.Vec4, error) {
	var v mgl32.Vec4
	for i := range v {
		f, err := ReadF32(r)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func ReadQuat(r io.Reader) (mgl32.Quat, error) {
	v, err := ReadVec4(r)
	if err != nil {
		return mgl32.QuatIdent(), err
	}
	return mgl32.Quat{V: mgl32.Vec3{v[0], v[1], v[2]}, W: v[3]}, nil
}

// ReadMat4RowMajor reads 16 floats stored row-major and returns the
// column-major matrix mathgl expects.
func ReadMat4RowMajor(r io.Reader) (mgl32.Mat4, error) {
	var m mgl32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			f, err := ReadF32(r)
			if err != nil {
				return m, err
			}
			m.Set(row, col, f)
		}
	}
	return m, nil
}

func ReadColor(r io.Reader) (riftkit.Color, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return riftkit.Color{}, err
	}
	return riftkit.Color{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}

// ReadColorBGRA reads a 4-byte BGRA color, common in DirectX-era layouts.
func ReadColorBGRA(r io.Reader) (riftkit.Color, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return riftkit.Color{}, err
	}
	return riftkit.Color{R: b[2], G: b[1], B: b[0], A: b[3]}, nil
}

// ReadColorRGB reads a 3-byte RGB color; alpha defaults to 255.
func ReadColorRGB(r io.Reader) (riftkit.Color, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return riftkit.Color{}, err
	}
	return riftkit.Color{R: b[0], G: b[1], B: b[2], A: 255}, nil
}

// ReadColorF32 reads a 16-byte RGBA color with float components.
func ReadColorF32(r io.Reader) (riftkit.Color, error) {
	v, err := ReadVec4(r)
	if err != nil {
		return riftkit.Color{}, err
	}
	return riftkit.ColorFromVec4(v), nil
}

func ReadAABB(r io.Reader) (riftkit.AABB, error) {
	min, err := ReadVec3(r)
	if err != nil {
		return riftkit.AABB{}, err
	}
	max, err := ReadVec3(r)
	if err != nil {
		return riftkit.AABB{}, err
	}
	return riftkit.AABB{Min: min, Max: max}, nil
}

func ReadSphere(r io.Reader) (riftkit.Sphere, error) {
	origin, err := ReadVec3(r)
	if err != nil {
		return riftkit.Sphere{}, err
	}
	radius, err := ReadF32(r)
	if err != nil {
		return riftkit.Sphere{}, err
	}
	return riftkit.Sphere{Origin: origin, Radius: radius}, nil
}

// MeasureRead runs fn and returns the number of bytes it consumed from rs,
// measured by stream position.
func MeasureRead(rs io.ReadSeeker, fn func() error) (int64, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if err := fn(); err != nil {
		return 0, err
	}
	end, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// Tell returns the current stream position.
func Tell(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// Skip advances the stream by n bytes.
func Skip(s io.Seeker, n int64) error {
	if _, err := s.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("skip %d bytes: %w", n, err)
	}
	return nil
}
