package anm

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is one joint's evaluated transform.
type Pose struct {
	Rotation    mgl32.Quat
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
}

// slerpEpsilon guards the parametric weight divisions against degenerate
// neighboring keyframes.
const slerpEpsilon = 1e-6

// quatKey is one rotation control point.
type quatKey struct {
	time  uint16
	value mgl32.Quat
}

// vecKey is one translation or scale control point.
type vecKey struct {
	time  uint16
	value mgl32.Vec3
}

// jointHotFrame is the per-joint interpolation window: four Catmull-Rom
// control points per channel, with the current segment between P1 and P2.
type jointHotFrame struct {
	rotation    [4]quatKey
	translation [4]vecKey
	scale       [4]vecKey
}

func defaultHotFrame() jointHotFrame {
	var hf jointHotFrame
	for i := range hf.rotation {
		hf.rotation[i].value = mgl32.QuatIdent()
	}
	return hf
}

// Evaluator plays a compressed animation with state retained between calls.
//
// Sequential evaluation advances a cursor through the frame array and
// shifts new keyframes into each joint's hot-frame window; the evaluator
// reinitializes from the jump cache only on the first call, when seeking
// backwards, or when jumping further forward than one cache bucket.
type Evaluator struct {
	anim     *Animation
	lastTime float32
	cursor   int
	hot      []jointHotFrame
}

// NewEvaluator returns an evaluator for anim. All per-joint state is
// allocated up front; steady-state playback does not allocate.
func NewEvaluator(anim *Animation) *Evaluator {
	e := &Evaluator{anim: anim, hot: make([]jointHotFrame, anim.JointCount())}
	e.Reset()
	return e
}

// Reset clears the evaluator state, forcing reinitialization from the jump
// cache on the next Evaluate.
func (e *Evaluator) Reset() {
	e.lastTime = -1
	e.cursor = 0
	for i := range e.hot {
		e.hot[i] = defaultHotFrame()
	}
}

// Evaluate returns the pose of every joint at the given time, clamped to
// [0, duration], keyed by joint name hash.
func (e *Evaluator) Evaluate(time float32) map[uint32]Pose {
	if time < 0 {
		time = 0
	}
	if time > e.anim.Duration {
		time = e.anim.Duration
	}

	e.updateHotFrames(time)

	parametrized := e.anim.Flags&FlagUseKeyframeParametrization != 0
	compressedTime := CompressTime(time, e.anim.Duration)

	pose := make(map[uint32]Pose, len(e.anim.Joints))
	for jointID, hash := range e.anim.Joints {
		pose[hash] = e.hot[jointID].sample(compressedTime, parametrized)
	}
	return pose
}

// Evaluate is the stateless convenience: a fresh evaluator, one sample.
// For sequential playback use [NewEvaluator] and reuse it.
func (a *Animation) Evaluate(time float32) map[uint32]Pose {
	return NewEvaluator(a).Evaluate(time)
}

func (e *Evaluator) updateHotFrames(time float32) {
	needsReinit := e.lastTime < 0 ||
		e.lastTime > time ||
		(e.anim.JumpCacheCount > 0 &&
			time-e.lastTime > e.anim.Duration/float32(e.anim.JumpCacheCount))

	if needsReinit {
		e.initializeFromJumpCache(time)
	}

	e.advanceCursor(CompressTime(time, e.anim.Duration))
	e.lastTime = time
}

// initializeFromJumpCache loads the four-wide control points of the bucket
// covering time into every joint's hot frame and places the cursor one past
// the largest referenced frame index.
func (e *Evaluator) initializeFromJumpCache(time float32) {
	if e.anim.JumpCacheCount == 0 || e.anim.Duration <= 0 {
		return
	}

	bucket := int(float32(e.anim.JumpCacheCount) * (time / e.anim.Duration))
	if bucket > e.anim.JumpCacheCount-1 {
		bucket = e.anim.JumpCacheCount - 1
	}

	e.cursor = 0
	entrySize := jumpEntrySize(len(e.anim.Frames))
	bucketStart := bucket * entrySize * len(e.anim.Joints)
	for jointID := range e.anim.Joints {
		offset := bucketStart + jointID*entrySize
		indices, ok := e.readJumpEntry(offset, entrySize)
		if !ok {
			continue
		}
		e.initJointHotFrame(jointID, indices)
	}
	e.cursor++
}

// readJumpEntry decodes the 12 frame indices of one per-joint cache entry:
// four each for rotation, translation, and scale.
func (e *Evaluator) readJumpEntry(offset, entrySize int) ([12]int, bool) {
	var indices [12]int
	if offset+entrySize > len(e.anim.JumpCaches) {
		return indices, false
	}
	raw := e.anim.JumpCaches[offset : offset+entrySize]
	if entrySize == 12*2 {
		for i := range indices {
			indices[i] = int(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	} else {
		for i := range indices {
			indices[i] = int(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	}
	return indices, true
}

func (e *Evaluator) initJointHotFrame(jointID int, indices [12]int) {
	hf := defaultHotFrame()

	for i, frameIdx := range indices[0:4] {
		if frameIdx > e.cursor {
			e.cursor = frameIdx
		}
		if frameIdx < len(e.anim.Frames) {
			frame := e.anim.Frames[frameIdx]
			hf.rotation[i] = quatKey{time: frame.Time(), value: DecompressQuatU16(frame.Value())}
		}
	}
	for i, frameIdx := range indices[4:8] {
		if frameIdx > e.cursor {
			e.cursor = frameIdx
		}
		if frameIdx < len(e.anim.Frames) {
			frame := e.anim.Frames[frameIdx]
			hf.translation[i] = vecKey{
				time:  frame.Time(),
				value: DecompressVec3(frame.Value(), e.anim.TranslationMin, e.anim.TranslationMax),
			}
		}
	}
	for i, frameIdx := range indices[8:12] {
		if frameIdx > e.cursor {
			e.cursor = frameIdx
		}
		if frameIdx < len(e.anim.Frames) {
			frame := e.anim.Frames[frameIdx]
			hf.scale[i] = vecKey{
				time:  frame.Time(),
				value: DecompressVec3(frame.Value(), e.anim.ScaleMin, e.anim.ScaleMax),
			}
		}
	}

	fixRotationArc(&hf)
	e.hot[jointID] = hf
}

// advanceCursor walks frames whose channel window has fallen behind the
// current time, shifting each into its joint's hot frame.
func (e *Evaluator) advanceCursor(compressedTime uint16) {
	for e.cursor < len(e.anim.Frames) {
		frame := e.anim.Frames[e.cursor]
		jointID := frame.JointID()
		if jointID >= len(e.hot) {
			e.cursor++
			continue
		}
		hf := &e.hot[jointID]

		var needsUpdate bool
		switch frame.Kind() {
		case TransformRotation:
			needsUpdate = compressedTime >= hf.rotation[2].time
		case TransformTranslation:
			needsUpdate = compressedTime >= hf.translation[2].time
		case TransformScale:
			needsUpdate = compressedTime >= hf.scale[2].time
		}
		if !needsUpdate {
			break
		}

		switch frame.Kind() {
		case TransformRotation:
			hf.rotation[0] = hf.rotation[1]
			hf.rotation[1] = hf.rotation[2]
			hf.rotation[2] = hf.rotation[3]
			hf.rotation[3] = quatKey{time: frame.Time(), value: DecompressQuatU16(frame.Value())}
			fixRotationArc(hf)
		case TransformTranslation:
			hf.translation[0] = hf.translation[1]
			hf.translation[1] = hf.translation[2]
			hf.translation[2] = hf.translation[3]
			hf.translation[3] = vecKey{
				time:  frame.Time(),
				value: DecompressVec3(frame.Value(), e.anim.TranslationMin, e.anim.TranslationMax),
			}
		case TransformScale:
			hf.scale[0] = hf.scale[1]
			hf.scale[1] = hf.scale[2]
			hf.scale[2] = hf.scale[3]
			hf.scale[3] = vecKey{
				time:  frame.Time(),
				value: DecompressVec3(frame.Value(), e.anim.ScaleMin, e.anim.ScaleMax),
			}
		}

		e.cursor++
	}
}

// fixRotationArc negates any of P1..P3 pointing away from P0 so the spline
// takes the shortest arc.
func fixRotationArc(hf *jointHotFrame) {
	for i := 1; i < 4; i++ {
		if hf.rotation[i].value.Dot(hf.rotation[0].value) < 0 {
			hf.rotation[i].value = hf.rotation[i].value.Scale(-1)
		}
	}
}

func (hf *jointHotFrame) sample(time uint16, parametrized bool) Pose {
	if parametrized {
		return Pose{
			Rotation:    sampleQuatParametrized(&hf.rotation, time),
			Translation: sampleVecParametrized(&hf.translation, time),
			Scale:       sampleVecParametrized(&hf.scale, time),
		}
	}
	return Pose{
		Rotation:    sampleQuatUniform(&hf.rotation, time),
		Translation: sampleVecUniform(&hf.translation, time),
		Scale:       sampleVecUniform(&hf.scale, time),
	}
}

func sampleQuatUniform(keys *[4]quatKey, time uint16) mgl32.Quat {
	segment := int(keys[2].time) - int(keys[1].time)
	if segment <= 0 {
		return keys[1].value
	}
	amount := float32(saturatingSub(time, keys[1].time)) / float32(segment)
	return catmullQuat(amount, 0.5, 0.5, keys[0].value, keys[1].value, keys[2].value, keys[3].value)
}

func sampleVecUniform(keys *[4]vecKey, time uint16) mgl32.Vec3 {
	segment := int(keys[2].time) - int(keys[1].time)
	if segment <= 0 {
		return keys[1].value
	}
	amount := float32(saturatingSub(time, keys[1].time)) / float32(segment)
	return catmullVec3(amount, 0.5, 0.5, keys[0].value, keys[1].value, keys[2].value, keys[3].value)
}

func sampleQuatParametrized(keys *[4]quatKey, time uint16) mgl32.Quat {
	amount, scaleIn, scaleOut := keyframeWeights(time, keys[0].time, keys[1].time, keys[2].time, keys[3].time)
	return catmullQuat(amount, scaleIn, scaleOut, keys[0].value, keys[1].value, keys[2].value, keys[3].value)
}

func sampleVecParametrized(keys *[4]vecKey, time uint16) mgl32.Vec3 {
	amount, scaleIn, scaleOut := keyframeWeights(time, keys[0].time, keys[1].time, keys[2].time, keys[3].time)
	return catmullVec3(amount, scaleIn, scaleOut, keys[0].value, keys[1].value, keys[2].value, keys[3].value)
}

// keyframeWeights derives the parametric segment weights from actual
// keyframe times.
func keyframeWeights(time, t0, t1, t2, t3 uint16) (amount, scaleIn, scaleOut float32) {
	segment := float32(int(t2) - int(t1))
	amount = float32(saturatingSub(time, t1)) / (segment + slerpEpsilon)
	scaleIn = segment / (float32(int(t2)-int(t0)) + slerpEpsilon)
	scaleOut = segment / (float32(int(t3)-int(t1)) + slerpEpsilon)
	return amount, scaleIn, scaleOut
}

// catmullWeights computes the four Catmull-Rom basis weights for the given
// interpolation amount and segment ease factors.
func catmullWeights(amount, easeIn, easeOut float32) (m0, m1, m2, m3 float32) {
	m0 = (((2-amount)*amount)-1)*(amount*easeIn)
	m1 = ((((2-easeOut)*amount)+(easeOut-3))*(amount*amount)) + 1
	m2 = ((((3-easeIn*2)+((easeIn-2)*amount))*amount)+easeIn)*amount
	m3 = ((amount-1)*amount)*(amount*easeOut)
	return m0, m1, m2, m3
}

func catmullVec3(amount, easeIn, easeOut float32, p0, p1, p2, p3 mgl32.Vec3) mgl32.Vec3 {
	m0, m1, m2, m3 := catmullWeights(amount, easeIn, easeOut)
	return mgl32.Vec3{
		m1*p1[0] + m0*p0[0] + m3*p3[0] + m2*p2[0],
		m1*p1[1] + m0*p0[1] + m3*p3[1] + m2*p2[1],
		m1*p1[2] + m0*p0[2] + m3*p3[2] + m2*p2[2],
	}
}

// catmullQuat interpolates componentwise and renormalizes.
func catmullQuat(amount, easeIn, easeOut float32, p0, p1, p2, p3 mgl32.Quat) mgl32.Quat {
	m0, m1, m2, m3 := catmullWeights(amount, easeIn, easeOut)
	q := mgl32.Quat{
		V: mgl32.Vec3{
			m1*p1.V[0] + m0*p0.V[0] + m3*p3.V[0] + m2*p2.V[0],
			m1*p1.V[1] + m0*p0.V[1] + m3*p3.V[1] + m2*p2.V[1],
			m1*p1.V[2] + m0*p0.V[2] + m3*p3.V[2] + m2*p2.V[2],
		},
		W: m1*p1.W + m0*p0.W + m3*p3.W + m2*p2.W,
	}
	return q.Normalize()
}

func saturatingSub(a, b uint16) uint16 {
	if a < b {
		return 0
	}
	return a - b
}
