package ray

import (
	"fmt"

	"lenstrace/vmath/vec3"
)

// Status records whether a ray can still be propagated, and if not, why it
// stopped.
type Status int

const (
	// Active rays are still travelling through the system.
	Active Status = iota

	// Vignetted rays missed a surface, either geometrically or by falling
	// outside its aperture.
	Vignetted

	// TotalInternalReflection rays struck a refracting surface beyond the
	// critical angle.  Their final position is on that surface.
	TotalInternalReflection

	// Degenerate rays have a zero direction vector.
	Degenerate
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Vignetted:
		return "vignetted"
	case TotalInternalReflection:
		return "total-internal-reflection"
	case Degenerate:
		return "degenerate"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Ray is the trajectory of a light ray: every position it has reached and every
// direction it has travelled in, oldest first.
//
// History is append-only.  Points and Slopes have equal length except after
// total internal reflection, when the last point has no outgoing direction.
type Ray struct {
	points []vec3.T
	slopes []vec3.T
	status Status
}

// New starts a ray at point travelling along slope.  The slope is normalized.
func New(point, slope vec3.T) *Ray {
	r := &Ray{}
	r.AppendPoint(point)
	r.AppendSlope(slope)
	return r
}

// Point returns the most recent position.
func (r *Ray) Point() vec3.T {
	return r.points[len(r.points)-1]
}

// Slope returns the most recent direction.
func (r *Ray) Slope() vec3.T {
	return r.slopes[len(r.slopes)-1]
}

// Eval returns the point at distance t along the current direction.
func (r *Ray) Eval(t float64) vec3.T {
	p := r.Point()
	s := r.Slope()
	return vec3.T{
		p[0] + t*s[0],
		p[1] + t*s[1],
		p[2] + t*s[2],
	}
}

func (r *Ray) AppendPoint(p vec3.T) {
	r.points = append(r.points, p)
}

// AppendSlope normalizes v and appends it.  A zero v cannot be normalized; it
// is stored as-is and the ray becomes Degenerate.
func (r *Ray) AppendSlope(v vec3.T) {
	n := vec3.Normalize(v)
	r.slopes = append(r.slopes, n)
	if n.IsZero() {
		r.Terminate(Degenerate)
	}
}

// Points returns a copy of the position history.
func (r *Ray) Points() []vec3.T {
	return append([]vec3.T(nil), r.points...)
}

// Slopes returns a copy of the direction history.
func (r *Ray) Slopes() []vec3.T {
	return append([]vec3.T(nil), r.slopes...)
}

// Len is the number of recorded positions.
func (r *Ray) Len() int {
	return len(r.points)
}

func (r *Ray) Status() Status {
	return r.status
}

func (r *Ray) Active() bool {
	return r.status == Active
}

// Terminate marks the ray as stopped.  The first reason recorded wins.
func (r *Ray) Terminate(s Status) {
	if r.status == Active {
		r.status = s
	}
}

// AxisIntercept returns where the ray's current line crosses the optical axis
// plane x = 0.
func (r *Ray) AxisIntercept() (vec3.T, error) {
	p, err := vec3.AxisIntercept(r.Point(), r.Slope())
	if err != nil {
		return vec3.T{}, fmt.Errorf("while extrapolating ray to the axis: %w", err)
	}
	return p, nil
}

func (r *Ray) String() string {
	return fmt.Sprintf("r=(%v, %v)", r.Point(), r.Slope())
}
