package dsrt

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/math/f64"

	"github.com/dsrt-dev/dsrt/backend"
)

// Matrix4 is a 4x4 matrix stored in row-major order:
//
//	| e0  e1  e2  e3  |
//	| e4  e5  e6  e7  |
//	| e8  e9  e10 e11 |
//	| e12 e13 e14 e15 |
//
// The module receives and returns elements in the same order.
type Matrix4 struct {
	Elements f64.Mat4

	rt *Runtime
}

// identity4 is the 4x4 identity in row-major order.
var identity4 = f64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Identity4 returns the identity matrix on the default Runtime.
func Identity4() Matrix4 {
	return Matrix4{Elements: identity4}
}

// M4 creates a Matrix4 on the default Runtime from 16 row-major elements.
// Any other number of elements, including none, yields the identity.
func M4(elements ...float64) Matrix4 {
	return newMatrix4(nil, elements)
}

// Matrix4 creates a Matrix4 bound to r. See M4.
func (r *Runtime) Matrix4(elements ...float64) Matrix4 {
	return newMatrix4(r, elements)
}

func newMatrix4(rt *Runtime, elements []float64) Matrix4 {
	m := Matrix4{Elements: identity4, rt: rt}
	if len(elements) == len(m.Elements) {
		copy(m.Elements[:], elements)
	}
	return m
}

func (m Matrix4) runtime() *Runtime {
	if m.rt != nil {
		return m.rt
	}
	return defaultRuntime
}

// Bind returns a copy of m that uses r. A nil r selects the default Runtime.
func (m Matrix4) Bind(r *Runtime) Matrix4 {
	m.rt = r
	return m
}

// At returns the element at row r, column c.
func (m Matrix4) At(r, c int) float64 {
	return m.Elements[r*4+c]
}

// Multiply returns the product m × o.
// The module is used only in rich mode: both operands and the result are
// passed through scratch memory.
func (m Matrix4) Multiply(ctx context.Context, o Matrix4) Matrix4 {
	inputs := [][]float64{m.Elements[:], o.Elements[:]}
	if out, ok := m.runtime().callPointer(ctx, backend.FuncMat4Multiply, nil, inputs, len(m.Elements)); ok {
		res := Matrix4{rt: m.rt}
		copy(res.Elements[:], out)
		return res
	}
	return Matrix4{Elements: mul4(&m.Elements, &o.Elements), rt: m.rt}
}

// mul4 computes the row-major product out[r*4+c] = Σk a[r*4+k]·b[k*4+c].
func mul4(a, b *f64.Mat4) f64.Mat4 {
	var out f64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// TransformPoint applies m to v as the column vector (x, y, z, 1) and
// divides by the resulting w when it is neither zero nor one.
// The result is bound to the same Runtime as v.
func (m Matrix4) TransformPoint(v Vector3) Vector3 {
	e := &m.Elements
	x := e[0]*v.X + e[1]*v.Y + e[2]*v.Z + e[3]
	y := e[4]*v.X + e[5]*v.Y + e[6]*v.Z + e[7]
	z := e[8]*v.X + e[9]*v.Y + e[10]*v.Z + e[11]
	w := e[12]*v.X + e[13]*v.Y + e[14]*v.Z + e[15]
	if w != 0 && w != 1 {
		x, y, z = x/w, y/w, z/w
	}
	return Vector3{X: x, Y: y, Z: z, rt: v.rt}
}

// Transpose returns the transposed matrix.
func (m Matrix4) Transpose() Matrix4 {
	res := Matrix4{rt: m.rt}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			res.Elements[c*4+r] = m.Elements[r*4+c]
		}
	}
	return res
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Matrix4) IsIdentity() bool {
	return m.Elements == identity4
}

// Approx reports whether two matrices are element-wise equal within epsilon.
func (m Matrix4) Approx(o Matrix4, epsilon float64) bool {
	for i := range m.Elements {
		if math.Abs(m.Elements[i]-o.Elements[i]) >= epsilon {
			return false
		}
	}
	return true
}

// String returns a string representation of the matrix with rows separated
// by semicolons.
func (m Matrix4) String() string {
	var sb strings.Builder
	sb.WriteString("Matrix4[")
	for r := 0; r < 4; r++ {
		if r > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%g %g %g %g", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
	}
	sb.WriteString("]")
	return sb.String()
}
