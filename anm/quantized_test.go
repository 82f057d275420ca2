package anm

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quatNear(t *testing.T, got, want mgl32.Quat, eps float32, name string) {
	t.Helper()
	// Match hemisphere before comparing: q and -q are the same rotation.
	if got.Dot(want) < 0 {
		got = got.Scale(-1)
	}
	diffs := [4]float32{
		got.V[0] - want.V[0],
		got.V[1] - want.V[1],
		got.V[2] - want.V[2],
		got.W - want.W,
	}
	for i, d := range diffs {
		if abs32(d) > eps {
			t.Errorf("%s: component %d off by %f (got %v, want %v)", name, i, d, got, want)
			return
		}
	}
}

func TestQuatIdentityRoundTrip(t *testing.T) {
	got := DecompressQuat(CompressQuat(mgl32.QuatIdent()))
	quatNear(t, got, mgl32.QuatIdent(), 0.001, "identity")
}

func TestQuatRoundTrip(t *testing.T) {
	cases := []mgl32.Quat{
		{V: mgl32.Vec3{0.5, 0.5, 0.5}, W: 0.5},
		{V: mgl32.Vec3{1, 0, 0}, W: 0},
		{V: mgl32.Vec3{0, 1, 0}, W: 0},
		{V: mgl32.Vec3{0, 0, 1}, W: 0},
		mgl32.QuatRotate(1.2, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(-2.5, mgl32.Vec3{1, 1, 0}.Normalize()),
		mgl32.QuatRotate(0.01, mgl32.Vec3{0.3, -0.4, 0.8}.Normalize()),
	}
	for _, q := range cases {
		q = q.Normalize()
		got := DecompressQuat(CompressQuat(q))
		quatNear(t, got, q, 0.001, "case")
	}
}

func TestQuatNegativeLargestComponent(t *testing.T) {
	// The encoder flips the quaternion when the dropped component is
	// negative; the decode is then in the opposite hemisphere.
	q := mgl32.Quat{V: mgl32.Vec3{0.1, 0.2, 0.1}, W: -0.96}.Normalize()
	got := DecompressQuat(CompressQuat(q))
	quatNear(t, got, q, 0.001, "negative w")
	if got.W < 0 {
		t.Error("decoded largest component should be positive by construction")
	}
}

func TestQuatU16Variant(t *testing.T) {
	q := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1}).Normalize()
	bytes6 := CompressQuat(q)
	words := CompressQuatU16(q)
	if DecompressQuat(bytes6) != DecompressQuatU16(words) {
		t.Error("byte and word decodings disagree")
	}
}

func TestVec3RoundTrip(t *testing.T) {
	min := mgl32.Vec3{-10, 0, 5}
	max := mgl32.Vec3{10, 1, 25}
	cases := []mgl32.Vec3{
		{-10, 0, 5},
		{10, 1, 25},
		{0, 0.5, 15},
		{-3.17, 0.25, 7.5},
	}
	// Tolerance per the quantization step of the min/max box.
	for _, v := range cases {
		got := DecompressVec3(CompressVec3(v, min, max), min, max)
		for i := 0; i < 3; i++ {
			step := (max[i] - min[i]) / 65534
			if d := float64(got[i] - v[i]); math.Abs(d) > float64(step)+1e-6 {
				t.Errorf("component %d of %v off by %f", i, v, d)
			}
		}
	}
}

func TestVec3DegenerateRange(t *testing.T) {
	// A collapsed axis always decodes to the min value.
	min := mgl32.Vec3{1, 2, 3}
	got := DecompressVec3(CompressVec3(mgl32.Vec3{1, 2, 3}, min, min), min, min)
	if got != min {
		t.Errorf("degenerate box decode = %v, want %v", got, min)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	duration := float32(2.5)
	for _, time := range []float32{0, 0.5, 1.25, 2.5} {
		back := DecompressTime(CompressTime(time, duration), duration)
		if d := math.Abs(float64(back - time)); d > float64(duration)/65535+1e-6 {
			t.Errorf("time %f round trips to %f", time, back)
		}
	}
	if CompressTime(2.5, 2.5) != 65535 {
		t.Errorf("full duration should compress to max, got %d", CompressTime(2.5, 2.5))
	}
}
