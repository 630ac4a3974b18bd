package dsrt

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"golang.org/x/image/math/f64"
)

const eps = 1e-9

// randomVectors returns n reproducible vectors with components in [-100, 100).
func randomVectors(n int) []Vector3 {
	r := rand.New(rand.NewPCG(1, 2))
	out := make([]Vector3, n)
	for i := range out {
		out[i] = V3(r.Float64()*200-100, r.Float64()*200-100, r.Float64()*200-100)
	}
	return out
}

func TestVector3_Length(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		v    Vector3
		want float64
	}{
		{"zero", V3(0, 0, 0), 0},
		{"unit x", V3(1, 0, 0), 1},
		{"3-4-0", V3(3, 4, 0), 5},
		{"2-3-6", V3(2, 3, 6), 7},
		{"negative", V3(-2, -3, -6), 7},
	}
	for name, rt := range runtimes(t) {
		t.Run(name, func(t *testing.T) {
			for _, tt := range tests {
				if got := tt.v.Bind(rt).Length(ctx); math.Abs(got-tt.want) > eps {
					t.Errorf("%s: Length() = %v, want %v", tt.name, got, tt.want)
				}
			}
			for _, v := range randomVectors(32) {
				want := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
				if got := v.Bind(rt).Length(ctx); math.Abs(got-want) > eps {
					t.Errorf("%v.Length() = %v, want %v", v, got, want)
				}
			}
		})
	}
}

func TestVector3_Dot(t *testing.T) {
	ctx := context.Background()
	vs := randomVectors(32)
	for name, rt := range runtimes(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i+1 < len(vs); i++ {
				a, b := vs[i].Bind(rt), vs[i+1].Bind(rt)
				ab, ba := a.Dot(ctx, b), b.Dot(ctx, a)
				if math.Abs(ab-ba) > eps {
					t.Errorf("a.Dot(b) = %v, b.Dot(a) = %v", ab, ba)
				}
				want := a.X*b.X + a.Y*b.Y + a.Z*b.Z
				if math.Abs(ab-want) > eps {
					t.Errorf("%v.Dot(%v) = %v, want %v", a, b, ab, want)
				}
			}
		})
	}
}

func TestVector3_Cross(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		a, b Vector3
		want Vector3
	}{
		{"x*y", V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{"y*z", V3(0, 1, 0), V3(0, 0, 1), V3(1, 0, 0)},
		{"z*x", V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{"y*x", V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, -1)},
		{"general", V3(1, 2, 3), V3(4, 5, 6), V3(-3, 6, -3)},
	}
	for name, rt := range runtimes(t) {
		t.Run(name, func(t *testing.T) {
			for _, tt := range tests {
				if got := tt.a.Bind(rt).Cross(ctx, tt.b); !got.Approx(tt.want, eps) {
					t.Errorf("%s: Cross() = %v, want %v", tt.name, got, tt.want)
				}
			}
		})
	}
}

func TestVector3_CrossProperties(t *testing.T) {
	ctx := context.Background()
	vs := randomVectors(32)
	for name, rt := range runtimes(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i+1 < len(vs); i++ {
				a, b := vs[i].Bind(rt), vs[i+1].Bind(rt)
				ab, ba := a.Cross(ctx, b), b.Cross(ctx, a)
				if !ab.Approx(ba.Neg(), 1e-6) {
					t.Errorf("a×b = %v, -(b×a) = %v", ab, ba.Neg())
				}
				if aa := a.Cross(ctx, a); !aa.Approx(V3(0, 0, 0), 1e-6) {
					t.Errorf("a×a = %v, want zero", aa)
				}
				// The cross product is orthogonal to both operands.
				if d := ab.Dot(ctx, a); math.Abs(d) > 1e-6*a.Length(ctx)*ab.Length(ctx)+1e-6 {
					t.Errorf("(a×b)·a = %v, want 0", d)
				}
			}
		})
	}
}

func TestVector3_Normalize(t *testing.T) {
	ctx := context.Background()
	for name, rt := range runtimes(t) {
		t.Run(name, func(t *testing.T) {
			zero := rt.Vector3(0, 0, 0).Normalize(ctx)
			if !zero.IsZero() || math.IsNaN(zero.X) || math.IsNaN(zero.Y) || math.IsNaN(zero.Z) {
				t.Errorf("zero.Normalize() = %v, want zero vector", zero)
			}

			if got := rt.Vector3(0, 3, 4).Normalize(ctx); !got.Approx(V3(0, 0.6, 0.8), eps) {
				t.Errorf("Normalize() = %v, want (0, 0.6, 0.8)", got)
			}

			for _, v := range randomVectors(32) {
				v = v.Bind(rt)
				n := v.Normalize(ctx)
				if l := n.Length(ctx); math.Abs(l-1) > eps {
					t.Errorf("%v.Normalize() length = %v, want 1", v, l)
				}
				// Same direction: parallel and positively oriented.
				if c := n.Cross(ctx, v); !c.Approx(V3(0, 0, 0), 1e-6) {
					t.Errorf("%v.Normalize() = %v is not parallel", v, n)
				}
				if n.Dot(ctx, v) <= 0 {
					t.Errorf("%v.Normalize() = %v points away", v, n)
				}
			}
		})
	}
}

func TestVector3_Clone(t *testing.T) {
	rt := NewRuntime()
	v := rt.Vector3(1, 2, 3)
	c := v.Clone()
	if c.X != 1 || c.Y != 2 || c.Z != 3 {
		t.Errorf("Clone() = %v", c)
	}
	if c.rt != rt {
		t.Error("Clone() should keep the Runtime binding")
	}
	c.X = 9
	if v.X != 1 {
		t.Error("Clone() must not alias the original")
	}
}

func TestVector3_ResultsKeepBinding(t *testing.T) {
	ctx := context.Background()
	rt := NewRuntime()
	v := rt.Vector3(1, 0, 0)
	for name, got := range map[string]Vector3{
		"Cross":     v.Cross(ctx, V3(0, 1, 0)),
		"Normalize": v.Normalize(ctx),
		"Add":       v.Add(V3(1, 1, 1)),
		"Scale":     v.Scale(2),
	} {
		if got.rt != rt {
			t.Errorf("%s result lost its Runtime binding", name)
		}
	}
}

func TestVector3_Arithmetic(t *testing.T) {
	a, b := V3(1, 2, 3), V3(4, 5, 6)
	tests := []struct {
		name   string
		got    Vector3
		expect Vector3
	}{
		{"Add", a.Add(b), V3(5, 7, 9)},
		{"Sub", b.Sub(a), V3(3, 3, 3)},
		{"Scale", a.Scale(-2), V3(-2, -4, -6)},
		{"Neg", a.Neg(), V3(-1, -2, -3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Approx(tt.expect, 1e-12) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expect)
			}
		})
	}
}

func TestVector3_Vec3RoundTrip(t *testing.T) {
	v := FromVec3(f64.Vec3{1, -2, 3.5})
	if got := v.Vec3(); got != (f64.Vec3{1, -2, 3.5}) {
		t.Errorf("Vec3() = %v", got)
	}
}

func TestVector3_String(t *testing.T) {
	if got := V3(1, 0.5, -2).String(); got != "Vector3(1, 0.5, -2)" {
		t.Errorf("String() = %q", got)
	}
}

func BenchmarkVector3_Cross(b *testing.B) {
	ctx := context.Background()
	x, y := V3(1, 2, 3), V3(4, 5, 6)
	b.ReportAllocs()
	for b.Loop() {
		_ = x.Cross(ctx, y)
	}
}
