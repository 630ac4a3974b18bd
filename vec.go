package dsrt

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/image/math/f64"

	"github.com/dsrt-dev/dsrt/backend"
)

// Vector3 is a 3D vector of float64 components.
//
// Vector3 is a value type: every operation returns a new value. A vector
// built with V3 or a struct literal uses the default Runtime; one built
// with Runtime.Vector3 or Bind uses that Runtime.
type Vector3 struct {
	X, Y, Z float64

	rt *Runtime
}

// V3 is a convenience function to create a Vector3 on the default Runtime.
func V3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// FromVec3 converts an f64.Vec3 to a Vector3 on the default Runtime.
func FromVec3(v f64.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Vector3 creates a Vector3 bound to r.
func (r *Runtime) Vector3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z, rt: r}
}

func (v Vector3) runtime() *Runtime {
	if v.rt != nil {
		return v.rt
	}
	return defaultRuntime
}

// Bind returns a copy of v that uses r. A nil r selects the default Runtime.
func (v Vector3) Bind(r *Runtime) Vector3 {
	v.rt = r
	return v
}

// with returns a vector carrying v's Runtime binding.
func (v Vector3) with(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z, rt: v.rt}
}

// Vec3 returns the components as an f64.Vec3.
func (v Vector3) Vec3() f64.Vec3 {
	return f64.Vec3{v.X, v.Y, v.Z}
}

// Length returns the length (magnitude) of the vector.
func (v Vector3) Length(ctx context.Context) float64 {
	return v.runtime().Length3(ctx, v.X, v.Y, v.Z)
}

// Dot returns the dot product of two vectors.
func (v Vector3) Dot(ctx context.Context, w Vector3) float64 {
	return v.runtime().Dot3(ctx, v.X, v.Y, v.Z, w.X, w.Y, w.Z)
}

// Cross returns the right-handed cross product v × w.
// The module is used only in rich mode; the result is written through an
// output pointer.
func (v Vector3) Cross(ctx context.Context, w Vector3) Vector3 {
	scalars := []float64{v.X, v.Y, v.Z, w.X, w.Y, w.Z}
	if out, ok := v.runtime().callPointer(ctx, backend.FuncCross3, scalars, nil, 3); ok {
		return v.with(out[0], out[1], out[2])
	}
	return v.with(
		v.Y*w.Z-v.Z*w.Y,
		v.Z*w.X-v.X*w.Z,
		v.X*w.Y-v.Y*w.X,
	)
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector if the original vector has zero length.
func (v Vector3) Normalize(ctx context.Context) Vector3 {
	if v.IsZero() {
		return v.with(0, 0, 0)
	}
	if out, ok := v.runtime().callPointer(ctx, backend.FuncNormalize3, []float64{v.X, v.Y, v.Z}, nil, 3); ok {
		return v.with(out[0], out[1], out[2])
	}
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length == 0 {
		// Components too small to square.
		return v.with(0, 0, 0)
	}
	return v.with(v.X/length, v.Y/length, v.Z/length)
}

// Clone returns a copy of the vector. It never touches the backend.
func (v Vector3) Clone() Vector3 {
	return v
}

// Add returns the sum of two vectors.
func (v Vector3) Add(w Vector3) Vector3 {
	return v.with(v.X+w.X, v.Y+w.Y, v.Z+w.Z)
}

// Sub returns the difference of two vectors.
func (v Vector3) Sub(w Vector3) Vector3 {
	return v.with(v.X-w.X, v.Y-w.Y, v.Z-w.Z)
}

// Scale returns the vector scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return v.with(v.X*s, v.Y*s, v.Z*s)
}

// Neg returns the negation of the vector.
func (v Vector3) Neg() Vector3 {
	return v.with(-v.X, -v.Y, -v.Z)
}

// IsZero reports whether all components are zero.
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Approx reports whether two vectors are approximately equal within epsilon.
func (v Vector3) Approx(w Vector3, epsilon float64) bool {
	return math.Abs(v.X-w.X) < epsilon &&
		math.Abs(v.Y-w.Y) < epsilon &&
		math.Abs(v.Z-w.Z) < epsilon
}

// String returns a string representation of the vector.
func (v Vector3) String() string {
	return fmt.Sprintf("Vector3(%g, %g, %g)", v.X, v.Y, v.Z)
}
