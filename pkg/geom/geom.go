// Package geom holds the small amount of linear algebra the converter needs:
// rigid 4x4 transforms as delivered by the CAD service, 3-vectors, and 3x3
// inertia tensors.
package geom

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// V returns a Vec3 from a three element array.
func V(a [3]float64) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// ---------------------------------------------------------------------------
// Mat4
// ---------------------------------------------------------------------------

// Mat4 is a row-major 4x4 homogeneous transform. Element (r, c) is at
// index r*4+c, which is also the order the CAD service emits.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromSlice builds a transform from 16 row-major values.
func FromSlice(vals []float64) (Mat4, error) {
	var m Mat4
	if len(vals) != 16 {
		return m, fmt.Errorf("geom: transform has %d values, want 16", len(vals))
	}
	copy(m[:], vals)
	return m, nil
}

// Slice returns the 16 row-major values.
func (m Mat4) Slice() []float64 {
	return append([]float64(nil), m[:]...)
}

// Translation returns a pure translation.
func Translation(v Vec3) Mat4 {
	m := Identity()
	m[3], m[7], m[11] = v.X, v.Y, v.Z
	return m
}

// FromAxes returns the rotation whose columns are x, y and z.
func FromAxes(x, y, z Vec3) Mat4 {
	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		0, 0, 0, 1,
	}
}

// RotationX returns a rotation of angle radians about the x axis.
func RotationX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// FlipX is the 180 degree rotation about x, with exact zeros.
func FlipX() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, 1,
	}
}

// At returns element (r, c).
func (m Mat4) At(r, c int) float64 {
	return m[r*4+c]
}

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * n[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Origin returns the translation part.
func (m Mat4) Origin() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// Rotation returns the upper-left 3x3 block.
func (m Mat4) Rotation() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Apply transforms a point.
func (m Mat4) Apply(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// ApplyVector transforms a direction, ignoring translation.
func (m Mat4) ApplyVector(v Vec3) Vec3 {
	return m.Rotation().Apply(v)
}

// RigidInverse inverts a transform made of a rotation and a translation.
func (m Mat4) RigidInverse() Mat4 {
	rt := m.Rotation().Transpose()
	t := rt.Apply(m.Origin()).Scale(-1)
	return Mat4{
		rt[0], rt[1], rt[2], t.X,
		rt[3], rt[4], rt[5], t.Y,
		rt[6], rt[7], rt[8], t.Z,
		0, 0, 0, 1,
	}
}

// ApproxEqual reports whether every element differs by at most tol.
func (m Mat4) ApproxEqual(n Mat4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-n[i]) > tol {
			return false
		}
	}
	return true
}

// RPY returns roll, pitch and yaw (x-y-z fixed axes) of the rotation part.
func (m Mat4) RPY() Vec3 {
	sy := math.Sqrt(m[0]*m[0] + m[4]*m[4])
	if sy < 1e-6 {
		return Vec3{
			X: math.Atan2(-m[6], m[5]),
			Y: math.Atan2(-m[8], sy),
			Z: 0,
		}
	}
	return Vec3{
		X: math.Atan2(m[9], m[10]),
		Y: math.Atan2(-m[8], sy),
		Z: math.Atan2(m[4], m[0]),
	}
}

// ---------------------------------------------------------------------------
// Mat3
// ---------------------------------------------------------------------------

// Mat3 is a row-major 3x3 matrix, used for rotations and inertia tensors.
type Mat3 [9]float64

// Identity3 returns the 3x3 identity.
func Identity3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mat3FromSlice reads the first nine values row-major. Shorter input yields
// the zero matrix.
func Mat3FromSlice(vals []float64) Mat3 {
	var m Mat3
	if len(vals) >= 9 {
		copy(m[:], vals[:9])
	}
	return m
}

// Outer returns the outer product a * b^T.
func Outer(a, b Vec3) Mat3 {
	return Mat3{
		a.X * b.X, a.X * b.Y, a.X * b.Z,
		a.Y * b.X, a.Y * b.Y, a.Y * b.Z,
		a.Z * b.X, a.Z * b.Y, a.Z * b.Z,
	}
}

// At returns element (r, c).
func (m Mat3) At(r, c int) float64 {
	return m[r*3+c]
}

// Mul returns m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// Add returns m + n.
func (m Mat3) Add(n Mat3) Mat3 {
	for i := range m {
		m[i] += n[i]
	}
	return m
}

// Scale returns m * s.
func (m Mat3) Scale(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// Transpose returns m^T.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Apply returns m * v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}
