package anm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// encodeAnimation serializes an Animation into the on-disk layout.
func encodeAnimation(t *testing.T, anim *Animation) []byte {
	t.Helper()
	var buf bytes.Buffer
	u32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	f32 := func(v float32) { u32(math.Float32bits(v)) }
	vec3 := func(v mgl32.Vec3) { f32(v[0]); f32(v[1]); f32(v[2]) }

	buf.WriteString(Magic)
	u32(anim.Version)
	u32(0) // resource size; not consumed
	u32(anim.FormatToken)
	u32(uint32(anim.Flags))
	u32(uint32(len(anim.Joints)))
	u32(uint32(len(anim.Frames)))
	u32(uint32(anim.JumpCacheCount))
	f32(anim.Duration)
	f32(anim.FPS)
	for _, m := range []ErrorMetric{anim.RotationErrorMetric, anim.TranslationErrorMetric, anim.ScaleErrorMetric} {
		f32(m.Margin)
		f32(m.DiscontinuityThreshold)
	}
	vec3(anim.TranslationMin)
	vec3(anim.TranslationMax)
	vec3(anim.ScaleMin)
	vec3(anim.ScaleMax)

	// Three section offsets, each relative to the 12-byte prelude. The
	// sections follow the header contiguously: frames, jump caches, joints.
	headerEnd := buf.Len() + 12
	framesStart := headerEnd
	jumpStart := framesStart + len(anim.Frames)*10
	jointsStart := jumpStart + len(anim.JumpCaches)
	u32(uint32(framesStart - 12))
	u32(uint32(jumpStart - 12))
	u32(uint32(jointsStart - 12))

	for _, frame := range anim.Frames {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], frame.bits)
		buf.Write(b[:])
		binary.LittleEndian.PutUint16(b[:], frame.time)
		buf.Write(b[:])
		for _, v := range frame.value {
			binary.LittleEndian.PutUint16(b[:], v)
			buf.Write(b[:])
		}
	}
	buf.Write(anim.JumpCaches)
	for _, joint := range anim.Joints {
		u32(joint)
	}
	return buf.Bytes()
}

func TestReadRoundTrip(t *testing.T) {
	joints := []uint32{0x4A01}
	anim := buildAnimation(t, joints, 1.0, 1, multiChannelKeys(0))
	anim.FormatToken = 0xDA7A
	anim.Flags = FlagUseKeyframeParametrization

	data := encodeAnimation(t, anim)
	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Duration != anim.Duration || got.FPS != anim.FPS {
		t.Errorf("duration/fps = %f/%f", got.Duration, got.FPS)
	}
	if got.Flags != anim.Flags {
		t.Errorf("flags = %#x, want %#x", got.Flags, anim.Flags)
	}
	if got.FormatToken != 0xDA7A {
		t.Errorf("format token = %#x", got.FormatToken)
	}
	if got.JumpCacheCount != anim.JumpCacheCount {
		t.Errorf("jump cache count = %d", got.JumpCacheCount)
	}
	if len(got.Frames) != len(anim.Frames) {
		t.Fatalf("frame count = %d, want %d", len(got.Frames), len(anim.Frames))
	}
	for i := range got.Frames {
		if got.Frames[i] != anim.Frames[i] {
			t.Fatalf("frame %d differs", i)
		}
	}
	if !bytes.Equal(got.JumpCaches, anim.JumpCaches) {
		t.Error("jump caches differ")
	}
	if len(got.Joints) != 1 || got.Joints[0] != joints[0] {
		t.Errorf("joints = %v", got.Joints)
	}

	// The parsed animation must evaluate identically to the original.
	for _, time := range []float32{0, 0.3, 0.8, 1.0} {
		comparePose(t, got.Evaluate(time)[joints[0]], anim.Evaluate(time)[joints[0]], time)
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("r3d2anmd\x01\x00\x00\x00")))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestReadRejectsBadVersion(t *testing.T) {
	anim := buildAnimation(t, []uint32{1}, 1.0, 1, multiChannelKeys(0))
	anim.Version = 4
	data := encodeAnimation(t, anim)
	_, err := Read(bytes.NewReader(data))
	var verr *InvalidVersionError
	if !errors.As(err, &verr) || verr.Version != 4 {
		t.Errorf("err = %v, want InvalidVersionError(4)", err)
	}
}

func TestReadRejectsUnknownFlags(t *testing.T) {
	anim := buildAnimation(t, []uint32{1}, 1.0, 1, multiChannelKeys(0))
	anim.Flags = 1 << 9
	data := encodeAnimation(t, anim)
	_, err := Read(bytes.NewReader(data))
	var ferr *InvalidFieldError
	if !errors.As(err, &ferr) || ferr.Field != "flags" {
		t.Errorf("err = %v, want InvalidFieldError(flags)", err)
	}
}

func TestReadRejectsMissingSection(t *testing.T) {
	anim := buildAnimation(t, []uint32{1}, 1.0, 1, multiChannelKeys(0))
	data := encodeAnimation(t, anim)
	// The frames offset lives right after the fixed 128-byte header minus
	// the three offsets; zero it to simulate a missing section.
	copy(data[len(data)-len(anim.JumpCaches)-len(anim.Frames)*10-len(anim.Joints)*4-12:], []byte{0, 0, 0, 0})
	_, err := Read(bytes.NewReader(data))
	var merr *MissingDataError
	if !errors.As(err, &merr) {
		t.Errorf("err = %v, want MissingDataError", err)
	}
}

func TestFramePacking(t *testing.T) {
	frame := NewFrame(0x1234&0x3FFF, TransformScale, 500, [3]uint16{1, 2, 3})
	if frame.JointID() != 0x1234&0x3FFF {
		t.Errorf("joint id = %#x", frame.JointID())
	}
	if frame.Kind() != TransformScale {
		t.Errorf("kind = %d", frame.Kind())
	}
	if frame.Time() != 500 {
		t.Errorf("time = %d", frame.Time())
	}
	if frame.Value() != [3]uint16{1, 2, 3} {
		t.Errorf("value = %v", frame.Value())
	}
}
