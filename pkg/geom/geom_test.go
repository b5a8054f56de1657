package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSliceRejectsWrongLength(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3})
	require.Error(t, err)

	m, err := FromSlice(Identity().Slice())
	require.NoError(t, err)
	assert.Equal(t, Identity(), m)
}

func TestMulComposesTranslations(t *testing.T) {
	a := Translation(Vec3{1, 2, 3})
	b := Translation(Vec3{-1, 0, 4})
	got := a.Mul(b).Origin()
	assert.Equal(t, Vec3{0, 2, 7}, got)
}

func TestRigidInverse(t *testing.T) {
	m := Translation(Vec3{0.1, -0.2, 0.3}).Mul(RotationX(0.7)).Mul(FromAxes(
		Vec3{0, 1, 0}, Vec3{-1, 0, 0}, Vec3{0, 0, 1},
	))
	assert.True(t, m.Mul(m.RigidInverse()).ApproxEqual(Identity(), 1e-12))
	assert.True(t, m.RigidInverse().Mul(m).ApproxEqual(Identity(), 1e-12))
}

func TestFlipXMatchesHalfTurn(t *testing.T) {
	assert.True(t, FlipX().ApproxEqual(RotationX(math.Pi), 1e-12))
}

func TestRPYRoundTrip(t *testing.T) {
	rz := FromAxes(Vec3{math.Cos(0.4), math.Sin(0.4), 0}, Vec3{-math.Sin(0.4), math.Cos(0.4), 0}, Vec3{0, 0, 1})
	m := rz.Mul(RotationX(0.25))
	rpy := m.RPY()
	assert.InDelta(t, 0.25, rpy.X, 1e-12)
	assert.InDelta(t, 0.0, rpy.Y, 1e-12)
	assert.InDelta(t, 0.4, rpy.Z, 1e-12)
}

func TestApplyUsesTranslationOnlyForPoints(t *testing.T) {
	m := Translation(Vec3{1, 1, 1}).Mul(RotationX(math.Pi / 2))
	p := m.Apply(Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.InDelta(t, 1.0, p.Y, 1e-12)
	assert.InDelta(t, 2.0, p.Z, 1e-12)

	v := m.ApplyVector(Vec3{0, 1, 0})
	assert.InDelta(t, 0.0, v.Y, 1e-12)
	assert.InDelta(t, 1.0, v.Z, 1e-12)
}

func TestMat3Helpers(t *testing.T) {
	r := RotationX(0.3).Rotation()
	id, rrt := Identity3(), r.Mul(r.Transpose())
	assert.InDeltaSlice(t, id[:], rrt[:], 1e-12)

	o := Outer(Vec3{1, 2, 3}, Vec3{1, 2, 3})
	assert.Equal(t, 4.0, o.At(1, 1))
	assert.Equal(t, 6.0, o.At(1, 2))
	assert.Equal(t, Mat3{}, Mat3FromSlice([]float64{1, 2}))
}
