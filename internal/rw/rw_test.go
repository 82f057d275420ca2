package rw

import (
	"bytes"
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
)

type seekBuffer struct {
	data []byte
	pos  int64
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := int(b.pos) + len(p); need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos += int64(len(p))
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		b.pos = offset
	case io.SeekCurrent:
		b.pos += offset
	case io.SeekEnd:
		b.pos = int64(len(b.data)) + offset
	}
	return b.pos, nil
}

func TestPrimitiveRoundTrip(t *testing.T) {
	var out seekBuffer
	WriteU8(&out, 0xAB)
	WriteI8(&out, -5)
	WriteU16(&out, 0xBEEF)
	WriteI32(&out, -123456)
	WriteU64(&out, 0xDEADBEEFCAFEBABE)
	WriteF32(&out, 1.5)
	WriteBool(&out, true)

	r := bytes.NewReader(out.data)
	if v, _ := ReadU8(r); v != 0xAB {
		t.Errorf("u8 = %#x", v)
	}
	if v, _ := ReadI8(r); v != -5 {
		t.Errorf("i8 = %d", v)
	}
	if v, _ := ReadU16(r); v != 0xBEEF {
		t.Errorf("u16 = %#x", v)
	}
	if v, _ := ReadI32(r); v != -123456 {
		t.Errorf("i32 = %d", v)
	}
	if v, _ := ReadU64(r); v != 0xDEADBEEFCAFEBABE {
		t.Errorf("u64 = %#x", v)
	}
	if v, _ := ReadF32(r); v != 1.5 {
		t.Errorf("f32 = %f", v)
	}
	if v, _ := ReadBool(r); !v {
		t.Error("bool = false")
	}
}

func TestStringHelpers(t *testing.T) {
	var out seekBuffer
	WriteString16(&out, "sixteen")
	WriteString32(&out, "thirty-two")
	WritePaddedString(&out, "pad", 8)
	WriteStringNul(&out, "nul")

	r := bytes.NewReader(out.data)
	if s, _ := ReadString16(r); s != "sixteen" {
		t.Errorf("string16 = %q", s)
	}
	if s, _ := ReadString32(r); s != "thirty-two" {
		t.Errorf("string32 = %q", s)
	}
	if s, _ := ReadPaddedString(r, 8); s != "pad" {
		t.Errorf("padded = %q", s)
	}
	if s, _ := ReadStringNul(r); s != "nul" {
		t.Errorf("nul = %q", s)
	}
}

func TestMat4RowMajorRoundTrip(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.5))
	var out seekBuffer
	if err := WriteMat4RowMajor(&out, m); err != nil {
		t.Fatal(err)
	}
	got, err := ReadMat4RowMajor(bytes.NewReader(out.data))
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Errorf("matrix round trip mismatch:\n%v\n%v", m, got)
	}
}

func TestColorHelpers(t *testing.T) {
	c := riftkit.Color{R: 1, G: 2, B: 3, A: 4}

	var out seekBuffer
	WriteColor(&out, c)
	WriteColorBGRA(&out, c)
	WriteColorRGB(&out, c)

	if !bytes.Equal(out.data[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("rgba bytes = %v", out.data[:4])
	}
	if !bytes.Equal(out.data[4:8], []byte{3, 2, 1, 4}) {
		t.Errorf("bgra bytes = %v", out.data[4:8])
	}

	r := bytes.NewReader(out.data)
	if got, _ := ReadColor(r); got != c {
		t.Errorf("rgba = %+v", got)
	}
	if got, _ := ReadColorBGRA(r); got != c {
		t.Errorf("bgra = %+v", got)
	}
	if got, _ := ReadColorRGB(r); got != (riftkit.Color{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("rgb = %+v", got)
	}
}

func TestMeasureAndPatch(t *testing.T) {
	var out seekBuffer
	WriteU32(&out, 0xAAAAAAAA)
	sizePos, _ := Tell(&out)
	WriteU32(&out, 0) // placeholder

	size, err := MeasureWrite(&out, func() error {
		return WriteU64(&out, 42)
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != 8 {
		t.Errorf("measured = %d, want 8", size)
	}
	if err := PatchU32At(&out, sizePos, uint32(size)); err != nil {
		t.Fatal(err)
	}

	r := bytes.NewReader(out.data)
	ReadU32(r)
	if v, _ := ReadU32(r); v != 8 {
		t.Errorf("patched size = %d, want 8", v)
	}
	// The stream position was restored after patching.
	if pos, _ := Tell(&out); pos != int64(len(out.data)) {
		t.Errorf("position = %d, want %d", pos, len(out.data))
	}
}

func TestMeasureRead(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	r := bytes.NewReader(data)
	n, err := MeasureRead(r, func() error {
		_, err := ReadU32(r)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("measured = %d, want 4", n)
	}
}
