package vec3

import (
	"errors"
	"math"
)

// ErrParallelToAxis is returned by AxisIntercept when the line never crosses
// the x = 0 plane.
var ErrParallelToAxis = errors.New("direction has no x component")

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// IsZero reports whether every component of v is exactly zero.
func (v T) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Normalize scales v to unit length.  A zero vector has no direction, and is
// returned unchanged.
func Normalize(v T) T {
	l := v.Norm()
	if l == 0 {
		return v
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// TransverseSquared is x² + y², the squared distance from the optical axis.
func (v T) TransverseSquared() float64 {
	return v[0]*v[0] + v[1]*v[1]
}

// AxisIntercept extends the line through p along d until it reaches x = 0,
// and returns the point there.
func AxisIntercept(p, d T) (T, error) {
	if d[0] == 0 {
		return T{}, ErrParallelToAxis
	}
	t := -p[0] / d[0]
	return AddVV(p, MulVS(d, t)), nil
}
