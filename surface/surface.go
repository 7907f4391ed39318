// Package surface implements the rotationally symmetric optical surfaces a ray
// can be traced through: spherical refracting interfaces and a planar output
// plane.
//
// The optical axis is z.  Every surface is described by where it crosses the
// axis (Z0) and how far from the axis it extends (ApertureRadius).
package surface

import (
	"errors"
	"fmt"

	"lenstrace/contact"
	"lenstrace/ray"
	"lenstrace/vmath/vec3"
)

var (
	// ErrFlatSurface is returned when a spherical quantity is requested from
	// a surface with zero curvature.
	ErrFlatSurface = errors.New("surface is planar")

	// ErrAxialSlope is returned when a ray with no z component is tested
	// against a planar surface.
	ErrAxialSlope = errors.New("ray direction has no z component")
)

// Surface is an optical element a ray can cross.
type Surface interface {
	// Intercept finds where the ray, from its current point along its
	// current direction, meets the surface.  A ray that misses, or lands
	// outside the aperture, gets contact.ContactNaN() and no error.
	Intercept(r *ray.Ray) (contact.Contact, error)

	// Propagate advances the ray across the surface, appending to its
	// history.  Misses and total internal reflection terminate the ray
	// rather than returning an error.
	Propagate(r *ray.Ray) error
}

// PropagateAll sends r through each surface in order.  It stops early only for
// errors; a ray that terminates partway through is left alone by the remaining
// surfaces.
func PropagateAll(r *ray.Ray, surfaces ...Surface) error {
	for i, s := range surfaces {
		if err := s.Propagate(r); err != nil {
			return fmt.Errorf("while propagating through surface %d: %w", i, err)
		}
	}
	return nil
}

func withinAperture(p vec3.T, apertureRadius float64) bool {
	return p.TransverseSquared() <= apertureRadius*apertureRadius
}

// planeIntercept intersects r with the plane z = z0.
func planeIntercept(r *ray.Ray, z0, apertureRadius float64) (contact.Contact, error) {
	p := r.Point()
	d := r.Slope()
	if d[2] == 0 {
		return contact.Contact{}, fmt.Errorf("intercepting plane z=%v from %v: %w", z0, p, ErrAxialSlope)
	}

	t := (z0 - p[2]) / d[2]
	hit := r.Eval(t)
	if !withinAperture(hit, apertureRadius) {
		return contact.ContactNaN(), nil
	}
	return contact.Contact{T: t, P: hit}, nil
}

// OutputPlane is a detector perpendicular to the optical axis.  Rays stop at
// it without changing direction.
type OutputPlane struct {
	Z0             float64
	ApertureRadius float64
}

func NewOutputPlane(z0, apertureRadius float64) *OutputPlane {
	return &OutputPlane{
		Z0:             z0,
		ApertureRadius: apertureRadius,
	}
}

func (o *OutputPlane) Intercept(r *ray.Ray) (contact.Contact, error) {
	return planeIntercept(r, o.Z0, o.ApertureRadius)
}

func (o *OutputPlane) Propagate(r *ray.Ray) error {
	if !r.Active() {
		return nil
	}

	c, err := o.Intercept(r)
	if err != nil {
		return err
	}
	if c.Missed() {
		r.Terminate(ray.Vignetted)
		return nil
	}

	r.AppendPoint(c.P)
	r.AppendSlope(r.Slope())
	return nil
}

func (o *OutputPlane) String() string {
	return fmt.Sprintf("OutputPlane(z0=%v, ap=%v)", o.Z0, o.ApertureRadius)
}
