package geom

import "math"

// Vec3 is a 3 component vector.
type Vec3 struct {
	X float32 `msgpack:"x" json:"x"`
	Y float32 `msgpack:"y" json:"y"`
	Z float32 `msgpack:"z" json:"z"`
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v.X + v2.X, v.Y + v2.Y, v.Z + v2.Z}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v.X - v2.X, v.Y - v2.Y, v.Z - v2.Z}
}

// Multiply a vector with a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Get vector length.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Midpoint between two points.
func Midpoint(a, b Vec3) Vec3 {
	return a.Add(b).Mul(0.5)
}

// Vec2 is a 2 component vector.
type Vec2 struct {
	X float32 `msgpack:"x" json:"x"`
	Y float32 `msgpack:"y" json:"y"`
}

// Quat is a rotation quaternion.
type Quat struct {
	X float32 `msgpack:"x" json:"x"`
	Y float32 `msgpack:"y" json:"y"`
	Z float32 `msgpack:"z" json:"z"`
	W float32 `msgpack:"w" json:"w"`
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Pose is a rigid transform: an orientation plus a position.
type Pose struct {
	Orientation Quat `msgpack:"orientation" json:"orientation"`
	Position    Vec3 `msgpack:"position" json:"position"`
}

// Fov holds the four half-angles (radians) of an asymmetric view frustum.
type Fov struct {
	Left  float32 `msgpack:"left" json:"left"`
	Right float32 `msgpack:"right" json:"right"`
	Up    float32 `msgpack:"up" json:"up"`
	Down  float32 `msgpack:"down" json:"down"`
}
