package rw

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
)

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func WriteI8(w io.Writer, v int8) error {
	return WriteU8(w, uint8(v))
}

func WriteU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteI16(w io.Writer, v int16) error {
	return WriteU16(w, uint16(v))
}

func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteI32(w io.Writer, v int32) error {
	return WriteU32(w, uint32(v))
}

func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteI64(w io.Writer, v int64) error {
	return WriteU64(w, uint64(v))
}

func WriteF32(w io.Writer, v float32) error {
	return WriteU32(w, math.Float32bits(v))
}

func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteU8(w, 1)
	}
	return WriteU8(w, 0)
}

// WriteString16 writes a string prefixed with a u16 byte length.
func WriteString16(w io.Writer, s string) error {
	if err := WriteU16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// WriteString32 writes a string prefixed with a u32 byte length.
func WriteString32(w io.Writer, s string) error {
	if err := WriteU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// WritePaddedString writes s into a fixed-size NUL-padded field.
// s must fit in size bytes.
func WritePaddedString(w io.Writer, s string, size int) error {
	buf := make([]byte, size)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

// WriteStringNul writes s followed by a NUL terminator.
func WriteStringNul(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return WriteU8(w, 0)
}

func WriteVec2(w io.Writer, v mgl32.Vec2) error {
	for _, f := range v {
		if err := WriteF32(w, f); err != nil {
			return err
		}
	}
	return nil
}

func WriteVec3(w io.Writer, v mgl32.Vec3) error {
	for _, f := range v {
		if err := WriteF32(w, f); err != nil {
			return err
		}
	}
	return nil
}

func WriteVec4(w io.Writer, v mgl32.Vec4) error {
	for _, f := range v {
		if err := WriteF32(w, f); err != nil {
			return err
		}
	}
	return nil
}

func WriteQuat(w io.Writer, q mgl32.Quat) error {
	return WriteVec4(w, mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W})
}

// WriteMat4RowMajor writes the matrix as 16 row-major floats.
func WriteMat4RowMajor(w io.Writer, m mgl32.Mat4) error {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if err := WriteF32(w, m.At(row, col)); err != nil {
				return err
			}
		}
	}
	return nil
}

func WriteColor(w io.Writer, c riftkit.Color) error {
	_, err := w.Write([]byte{c.R, c.G, c.B, c.A})
	return err
}

// WriteColorBGRA writes the color as 4 BGRA bytes.
func WriteColorBGRA(w io.Writer, c riftkit.Color) error {
	_, err := w.Write([]byte{c.B, c.G, c.R, c.A})
	return err
}

// WriteColorRGB writes the color as 3 RGB bytes, dropping alpha.
func WriteColorRGB(w io.Writer, c riftkit.Color) error {
	_, err := w.Write([]byte{c.R, c.G, c.B})
	return err
}

func WriteAABB(w io.Writer, b riftkit.AABB) error {
	if err := WriteVec3(w, b.Min); err != nil {
		return err
	}
	return WriteVec3(w, b.Max)
}

func WriteSphere(w io.Writer, s riftkit.Sphere) error {
	if err := WriteVec3(w, s.Origin); err != nil {
		return err
	}
	return WriteF32(w, s.Radius)
}

// MeasureWrite runs fn and returns the number of bytes it produced on ws,
// measured by stream position.
func MeasureWrite(ws io.WriteSeeker, fn func() error) (int64, error) {
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if err := fn(); err != nil {
		return 0, err
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// PatchU32At rewinds to pos, writes v, and restores the stream position.
// Used to fill size placeholders once a section's length is known.
func PatchU32At(ws io.WriteSeeker, pos int64, v uint32) error {
	cur, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := ws.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if err := WriteU32(ws, v); err != nil {
		return err
	}
	_, err = ws.Seek(cur, io.SeekStart)
	return err
}

// PatchU64At rewinds to pos, writes v, and restores the stream position.
func PatchU64At(ws io.WriteSeeker, pos int64, v uint64) error {
	cur, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := ws.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if err := WriteU64(ws, v); err != nil {
		return err
	}
	_, err = ws.Seek(cur, io.SeekStart)
	return err
}
