package anm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// testKey is one keyframe of a synthetic animation under construction.
type testKey struct {
	joint int
	kind  TransformKind
	time  float32
	value [3]uint16
}

// buildAnimation assembles an Animation from keyframes, synthesizing the
// flat frame array (sorted by time) and a jump cache whose buckets hold,
// per joint and channel, the four keyframes nearest each bucket's start.
func buildAnimation(t *testing.T, joints []uint32, duration float32, bucketCount int, keys []testKey) *Animation {
	t.Helper()

	// Stable sort by time keeps the construction order within a tick.
	sorted := make([]testKey, len(keys))
	copy(sorted, keys)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].time < sorted[j-1].time; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	frames := make([]Frame, len(sorted))
	channelFrames := make(map[int]map[TransformKind][]int)
	for i, key := range sorted {
		frames[i] = NewFrame(uint16(key.joint), key.kind, CompressTime(key.time, duration), key.value)
		if channelFrames[key.joint] == nil {
			channelFrames[key.joint] = make(map[TransformKind][]int)
		}
		channelFrames[key.joint][key.kind] = append(channelFrames[key.joint][key.kind], i)
	}

	// Jump cache: u16 indices (small frame counts), 12 per joint per bucket.
	var cache []byte
	appendIdx := func(idx int) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(idx))
		cache = append(cache, b[:]...)
	}
	for bucket := 0; bucket < bucketCount; bucket++ {
		bucketStart := duration * float32(bucket) / float32(bucketCount)
		for joint := range joints {
			for _, kind := range []TransformKind{TransformRotation, TransformTranslation, TransformScale} {
				indices := channelFrames[joint][kind]
				if len(indices) == 0 {
					t.Fatalf("joint %d has no %d-channel frames", joint, kind)
				}
				// Window start: the last keyframe at or before the bucket
				// start, backed up so four control points fit.
				window := 0
				for i, frameIdx := range indices {
					if DecompressTime(frames[frameIdx].Time(), duration) <= bucketStart {
						window = i
					}
				}
				window-- // P0 sits one before the active segment
				if window > len(indices)-4 {
					window = len(indices) - 4
				}
				if window < 0 {
					window = 0
				}
				for i := 0; i < 4; i++ {
					idx := window + i
					if idx >= len(indices) {
						idx = len(indices) - 1
					}
					appendIdx(indices[idx])
				}
			}
		}
	}

	return &Animation{
		Duration:       duration,
		FPS:            30,
		TranslationMin: mgl32.Vec3{-10, -10, -10},
		TranslationMax: mgl32.Vec3{10, 10, 10},
		ScaleMin:       mgl32.Vec3{0, 0, 0},
		ScaleMax:       mgl32.Vec3{2, 2, 2},
		JumpCacheCount: bucketCount,
		Frames:         frames,
		JumpCaches:     cache,
		Joints:         joints,
		Version:        3,
	}
}

func rotationKeys(joint int, times []float32, quats []mgl32.Quat) []testKey {
	keys := make([]testKey, len(times))
	for i := range times {
		keys[i] = testKey{joint: joint, kind: TransformRotation, time: times[i], value: CompressQuatU16(quats[i])}
	}
	return keys
}

func TestSingleJointRotation(t *testing.T) {
	quats := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(1.0, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(1.5, mgl32.Vec3{0, 1, 0}),
	}
	times := []float32{0, 0.25, 0.5, 1.0}

	keys := rotationKeys(0, times, quats)
	// Pin translation and scale so the pose is fully determined.
	for _, time := range times {
		keys = append(keys,
			testKey{joint: 0, kind: TransformTranslation, time: time, value: CompressVec3(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{-10, -10, -10}, mgl32.Vec3{10, 10, 10})},
			testKey{joint: 0, kind: TransformScale, time: time, value: CompressVec3(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})},
		)
	}

	jointHash := uint32(0x4A01)
	anim := buildAnimation(t, []uint32{jointHash}, 1.0, 1, keys)

	pose := anim.Evaluate(0.375)[jointHash]

	// Between the 0.25 and 0.5 keyframes, halfway: uniform Catmull-Rom of
	// the quantized control points at amount 0.5.
	var control [4]mgl32.Quat
	for i, q := range quats {
		control[i] = DecompressQuatU16(CompressQuatU16(q))
		if control[i].Dot(control[0]) < 0 {
			control[i] = control[i].Scale(-1)
		}
	}
	want := catmullQuat(0.5, 0.5, 0.5, control[0], control[1], control[2], control[3])
	quatNear(t, pose.Rotation, want, 1e-5, "rotation at 0.375")

	for i := 0; i < 3; i++ {
		if d := math.Abs(float64(pose.Translation[i] - [3]float32{1, 2, 3}[i])); d > 0.001 {
			t.Errorf("translation[%d] off by %f", i, d)
		}
		if d := math.Abs(float64(pose.Scale[i] - 1)); d > 0.001 {
			t.Errorf("scale[%d] off by %f", i, d)
		}
	}
}

func multiChannelKeys(joint int) []testKey {
	times := []float32{0, 0.25, 0.5, 1.0}
	axis := mgl32.Vec3{0, 1, 0}
	if joint == 1 {
		axis = mgl32.Vec3{1, 0, 0}
	}
	var keys []testKey
	for i, time := range times {
		angle := float32(i) * 0.4
		offset := float32(joint)
		keys = append(keys,
			testKey{joint: joint, kind: TransformRotation, time: time, value: CompressQuatU16(mgl32.QuatRotate(angle, axis))},
			testKey{joint: joint, kind: TransformTranslation, time: time, value: CompressVec3(mgl32.Vec3{offset + float32(i), 0, -offset}, mgl32.Vec3{-10, -10, -10}, mgl32.Vec3{10, 10, 10})},
			testKey{joint: joint, kind: TransformScale, time: time, value: CompressVec3(mgl32.Vec3{1, 1 + 0.1*float32(i), 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})},
		)
	}
	return keys
}

func TestSequentialMatchesStateless(t *testing.T) {
	joints := []uint32{0x4A01, 0x4A02}
	keys := append(multiChannelKeys(0), multiChannelKeys(1)...)
	anim := buildAnimation(t, joints, 1.0, 1, keys)

	sequential := NewEvaluator(anim)
	times := []float32{0, 0.05, 0.2, 0.3, 0.375, 0.5, 0.62, 0.8, 0.99, 1.0}
	for _, time := range times {
		seq := sequential.Evaluate(time)
		fresh := anim.Evaluate(time)
		for _, joint := range joints {
			comparePose(t, seq[joint], fresh[joint], time)
		}
	}
}

func TestResetMatchesStateless(t *testing.T) {
	joints := []uint32{0x4A01, 0x4A02}
	keys := append(multiChannelKeys(0), multiChannelKeys(1)...)
	anim := buildAnimation(t, joints, 1.0, 1, keys)

	ev := NewEvaluator(anim)
	ev.Evaluate(0.7)
	ev.Reset()
	seq := ev.Evaluate(0.3)
	fresh := anim.Evaluate(0.3)
	for _, joint := range joints {
		comparePose(t, seq[joint], fresh[joint], 0.3)
	}
}

func TestEvaluateClampsTime(t *testing.T) {
	joints := []uint32{0x4A01}
	anim := buildAnimation(t, joints, 1.0, 1, multiChannelKeys(0))

	below := anim.Evaluate(-5)[joints[0]]
	atZero := anim.Evaluate(0)[joints[0]]
	comparePose(t, below, atZero, 0)

	above := anim.Evaluate(7)[joints[0]]
	atEnd := anim.Evaluate(1.0)[joints[0]]
	comparePose(t, above, atEnd, 1)
}

// TestJumpCacheSeek verifies that jumping forward by more than one bucket
// reinitializes from the jump cache: the pose after a long jump must match
// a stateless evaluation, even though the cursor was far behind.
func TestJumpCacheSeek(t *testing.T) {
	// Eight rotation keyframes so different buckets reference different
	// control windows.
	times := []float32{0, 1. / 7, 2. / 7, 3. / 7, 4. / 7, 5. / 7, 6. / 7, 1.0}
	quats := make([]mgl32.Quat, len(times))
	for i := range quats {
		quats[i] = mgl32.QuatRotate(float32(i)*0.3, mgl32.Vec3{0, 1, 0})
	}
	keys := rotationKeys(0, times, quats)
	for _, time := range times {
		keys = append(keys,
			testKey{joint: 0, kind: TransformTranslation, time: time, value: CompressVec3(mgl32.Vec3{}, mgl32.Vec3{-10, -10, -10}, mgl32.Vec3{10, 10, 10})},
			testKey{joint: 0, kind: TransformScale, time: time, value: CompressVec3(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})},
		)
	}
	jointHash := uint32(0x4A01)
	anim := buildAnimation(t, []uint32{jointHash}, 1.0, 4, keys)

	ev := NewEvaluator(anim)
	ev.Evaluate(0.1)
	// 0.1 -> 0.95 jumps past duration/jumpCacheCount = 0.25.
	jumped := ev.Evaluate(0.95)[jointHash]
	fresh := anim.Evaluate(0.95)[jointHash]
	comparePose(t, jumped, fresh, 0.95)

	// Seeking backwards must also reinitialize.
	back := ev.Evaluate(0.2)[jointHash]
	freshBack := anim.Evaluate(0.2)[jointHash]
	comparePose(t, back, freshBack, 0.2)
}

// TestParametricSampling flips the keyframe-parametrization flag and
// checks the rotation against weights derived from the actual (uneven)
// keyframe times.
func TestParametricSampling(t *testing.T) {
	quats := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(0.9, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(1.3, mgl32.Vec3{0, 1, 0}),
	}
	times := []float32{0, 0.1, 0.6, 1.0}
	keys := rotationKeys(0, times, quats)
	for _, time := range times {
		keys = append(keys,
			testKey{joint: 0, kind: TransformTranslation, time: time, value: CompressVec3(mgl32.Vec3{}, mgl32.Vec3{-10, -10, -10}, mgl32.Vec3{10, 10, 10})},
			testKey{joint: 0, kind: TransformScale, time: time, value: CompressVec3(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})},
		)
	}
	jointHash := uint32(0x4A01)
	anim := buildAnimation(t, []uint32{jointHash}, 1.0, 1, keys)
	anim.Flags = FlagUseKeyframeParametrization

	sampleTime := float32(0.35)
	pose := anim.Evaluate(sampleTime)[jointHash]

	var control [4]mgl32.Quat
	var controlTimes [4]uint16
	for i, q := range quats {
		control[i] = DecompressQuatU16(CompressQuatU16(q))
		if control[i].Dot(control[0]) < 0 {
			control[i] = control[i].Scale(-1)
		}
		controlTimes[i] = CompressTime(times[i], 1.0)
	}
	amount, scaleIn, scaleOut := keyframeWeights(
		CompressTime(sampleTime, 1.0),
		controlTimes[0], controlTimes[1], controlTimes[2], controlTimes[3],
	)
	want := catmullQuat(amount, scaleIn, scaleOut, control[0], control[1], control[2], control[3])
	quatNear(t, pose.Rotation, want, 1e-5, "parametric rotation")
}

func comparePose(t *testing.T, got, want Pose, time float32) {
	t.Helper()
	quatNear(t, got.Rotation, want.Rotation, 1e-5, "rotation")
	for i := 0; i < 3; i++ {
		if d := math.Abs(float64(got.Translation[i] - want.Translation[i])); d > 1e-5 {
			t.Errorf("t=%f: translation[%d] differs by %f", time, i, d)
		}
		if d := math.Abs(float64(got.Scale[i] - want.Scale[i])); d > 1e-5 {
			t.Errorf("t=%f: scale[%d] differs by %f", time, i, d)
		}
	}
}
