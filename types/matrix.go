package types

import "github.com/go-gl/mathgl/mgl32"

// A 4x4 matrix stored in column-major order. Points are treated as column
// vectors so M = T * R * S applies scale first and translation last.
type Mat4 mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(t Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(t[0], t[1], t[2]))
}

// Create a scale matrix.
func Scale4(s Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Create a rotation matrix from per-axis angles (radians). The rotations are
// applied in X, Y, Z order.
func RotateEuler4(angles Vec3) Mat4 {
	rx := mgl32.HomogRotate3DX(angles[0])
	ry := mgl32.HomogRotate3DY(angles[1])
	rz := mgl32.HomogRotate3DZ(angles[2])
	return Mat4(rz.Mul4(ry.Mul4(rx)))
}

// Create a rotation matrix around an arbitrary axis.
func RotateAxis4(axis Vec3, angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, mgl32.Vec3(axis.Normalize())))
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point using a full homogeneous transformation. The result is
// projected back onto the w=1 plane for non-affine matrices.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3(mgl32.TransformCoordinate(mgl32.Vec3(p), mgl32.Mat4(m)))
}

// Transform a direction vector; translation is ignored.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return Vec3(mgl32.TransformNormal(mgl32.Vec3(d), mgl32.Mat4(m)))
}

// Calculate the matrix inverse. Singular matrices yield a zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Returns true if both matrices are equal within epsilon.
func (m Mat4) ApproxEqual(m2 Mat4, epsilon float32) bool {
	return mgl32.Mat4(m).ApproxEqualThreshold(mgl32.Mat4(m2), epsilon)
}
