package anm

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Magic is the 8-byte magic of a compressed animation file.
const Magic = "r3d2canm"

// Flags is the animation header flag bitfield.
type Flags uint32

const (
	// FlagUnk1 and FlagUnk2 are carried but have no known meaning.
	FlagUnk1 Flags = 1 << iota
	FlagUnk2
	// FlagUseKeyframeParametrization selects parametric Catmull-Rom
	// weights derived from actual keyframe times instead of the uniform
	// 0.5 tension.
	FlagUseKeyframeParametrization
)

const knownFlags = FlagUnk1 | FlagUnk2 | FlagUseKeyframeParametrization

// ErrInvalidMagic is returned when the file does not start with "r3d2canm".
var ErrInvalidMagic = errors.New("anm: invalid magic")

// InvalidVersionError is returned for versions outside 1–3.
type InvalidVersionError struct {
	Version uint32
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("anm: invalid file version %d", e.Version)
}

// InvalidFieldError is returned when a header field fails its constraint.
type InvalidFieldError struct {
	Field  string
	Detail string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("anm: invalid field %s: %s", e.Field, e.Detail)
}

// MissingDataError is returned when a required section offset is not
// positive.
type MissingDataError struct {
	Section string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("anm: missing %s data", e.Section)
}

// TransformKind discriminates the three keyframe channels.
type TransformKind uint8

const (
	TransformRotation TransformKind = iota
	TransformTranslation
	TransformScale
)

// Frame is one packed 10-byte keyframe: a joint id and channel in the first
// word, a quantized time, and three quantized value words.
type Frame struct {
	bits  uint16
	time  uint16
	value [3]uint16
}

// NewFrame packs a keyframe. The joint id must fit in 14 bits.
func NewFrame(jointID uint16, kind TransformKind, time uint16, value [3]uint16) Frame {
	return Frame{bits: jointID&0x3FFF | uint16(kind)<<14, time: time, value: value}
}

// JointID returns the owning joint's index into the joint hash list.
func (f Frame) JointID() int { return int(f.bits & 0x3FFF) }

// Kind returns the keyframe's channel.
func (f Frame) Kind() TransformKind { return TransformKind(f.bits >> 14) }

// Time returns the quantized keyframe time.
func (f Frame) Time() uint16 { return f.time }

// Value returns the three quantized value words.
func (f Frame) Value() [3]uint16 { return f.value }

// ErrorMetric is a compression error bound recorded by the encoder.
type ErrorMetric struct {
	Margin                 float32
	DiscontinuityThreshold float32
}

// Animation is a parsed compressed animation asset.
type Animation struct {
	Flags    Flags
	Duration float32
	FPS      float32

	RotationErrorMetric    ErrorMetric
	TranslationErrorMetric ErrorMetric
	ScaleErrorMetric       ErrorMetric

	TranslationMin mgl32.Vec3
	TranslationMax mgl32.Vec3
	ScaleMin       mgl32.Vec3
	ScaleMax       mgl32.Vec3

	// JumpCacheCount is the number of uniform seek buckets.
	JumpCacheCount int
	// Frames is the flat keyframe array, sorted by ascending time.
	Frames []Frame
	// JumpCaches is the raw jump-cache sidecar; entry width depends on the
	// frame count (see jumpEntrySize).
	JumpCaches []byte
	// Joints lists the joint name hashes, indexed by frame joint id.
	Joints []uint32

	// FormatToken is carried opaquely; nothing validates it.
	FormatToken uint32
	// Version is the file version (1–3).
	Version uint32
}

// JointCount returns the number of joints.
func (a *Animation) JointCount() int { return len(a.Joints) }

// Read parses a compressed animation from r.
func Read(r io.ReadSeeker) (*Animation, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > 3 {
		return nil, &InvalidVersionError{Version: version}
	}

	// Total resource size; unused beyond the header.
	if _, err := rw.ReadU32(r); err != nil {
		return nil, err
	}
	formatToken, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	rawFlags, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if Flags(rawFlags)&^knownFlags != 0 {
		return nil, &InvalidFieldError{Field: "flags", Detail: fmt.Sprintf("%#x", rawFlags)}
	}

	jointCount, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	frameCount, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	jumpCacheCount, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}

	anim := &Animation{
		Flags:          Flags(rawFlags),
		JumpCacheCount: int(jumpCacheCount),
		FormatToken:    formatToken,
		Version:        version,
	}
	if anim.Duration, err = rw.ReadF32(r); err != nil {
		return nil, err
	}
	if anim.FPS, err = rw.ReadF32(r); err != nil {
		return nil, err
	}

	for _, metric := range []*ErrorMetric{
		&anim.RotationErrorMetric, &anim.TranslationErrorMetric, &anim.ScaleErrorMetric,
	} {
		if metric.Margin, err = rw.ReadF32(r); err != nil {
			return nil, err
		}
		if metric.DiscontinuityThreshold, err = rw.ReadF32(r); err != nil {
			return nil, err
		}
	}

	if anim.TranslationMin, err = rw.ReadVec3(r); err != nil {
		return nil, err
	}
	if anim.TranslationMax, err = rw.ReadVec3(r); err != nil {
		return nil, err
	}
	if anim.ScaleMin, err = rw.ReadVec3(r); err != nil {
		return nil, err
	}
	if anim.ScaleMax, err = rw.ReadVec3(r); err != nil {
		return nil, err
	}

	framesOff, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}
	if framesOff <= 0 {
		return nil, &MissingDataError{Section: "frame"}
	}
	jumpCachesOff, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}
	if jumpCachesOff <= 0 {
		return nil, &MissingDataError{Section: "jump cache"}
	}
	jointHashesOff, err := rw.ReadI32(r)
	if err != nil {
		return nil, err
	}
	if jointHashesOff <= 0 {
		return nil, &MissingDataError{Section: "joint"}
	}

	// Section offsets are relative to the end of the 12-byte prelude.
	if _, err := r.Seek(int64(jointHashesOff)+12, io.SeekStart); err != nil {
		return nil, err
	}
	anim.Joints = make([]uint32, jointCount)
	for i := range anim.Joints {
		if anim.Joints[i], err = rw.ReadU32(r); err != nil {
			return nil, err
		}
	}

	if _, err := r.Seek(int64(framesOff)+12, io.SeekStart); err != nil {
		return nil, err
	}
	anim.Frames = make([]Frame, frameCount)
	for i := range anim.Frames {
		if anim.Frames[i], err = readFrame(r); err != nil {
			return nil, err
		}
	}

	if _, err := r.Seek(int64(jumpCachesOff)+12, io.SeekStart); err != nil {
		return nil, err
	}
	cacheSize := int(jumpCacheCount) * jumpEntrySize(int(frameCount)) * int(jointCount)
	anim.JumpCaches = make([]byte, cacheSize)
	if _, err := io.ReadFull(r, anim.JumpCaches); err != nil {
		return nil, fmt.Errorf("anm: read jump caches: %w", err)
	}

	return anim, nil
}

func readFrame(r io.Reader) (Frame, error) {
	var f Frame
	var err error
	if f.bits, err = rw.ReadU16(r); err != nil {
		return f, err
	}
	if f.time, err = rw.ReadU16(r); err != nil {
		return f, err
	}
	for i := range f.value {
		if f.value[i], err = rw.ReadU16(r); err != nil {
			return f, err
		}
	}
	return f, nil
}

// jumpEntrySize returns the per-joint byte size of one jump-cache bucket
// entry: 12 indices, u16-wide while the frame count fits, u32 otherwise.
func jumpEntrySize(frameCount int) int {
	if frameCount < 0x10001 {
		return 12 * 2
	}
	return 12 * 4
}
