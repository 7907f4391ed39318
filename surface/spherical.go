package surface

import (
	"fmt"
	"math"

	"lenstrace/contact"
	"lenstrace/ray"
	"lenstrace/refraction"
	"lenstrace/vmath/vec3"
)

// SphericalRefraction is a spherical boundary between two media.
//
// Curvature is the reciprocal of the radius of curvature.  Positive curvature
// puts the centre of the sphere on the +z side of the vertex; zero curvature is
// a flat refracting plane.  N1 is the index on the -z side, N2 on the +z side.
type SphericalRefraction struct {
	Z0             float64
	Curvature      float64
	N1, N2         float64
	ApertureRadius float64
}

func NewSphericalRefraction(z0, curvature, n1, n2, apertureRadius float64) *SphericalRefraction {
	return &SphericalRefraction{
		Z0:             z0,
		Curvature:      curvature,
		N1:             n1,
		N2:             n2,
		ApertureRadius: apertureRadius,
	}
}

// Centre returns the centre of the sphere.
func (s *SphericalRefraction) Centre() (vec3.T, error) {
	if s.Curvature == 0 {
		return vec3.T{}, fmt.Errorf("computing centre at z0=%v: %w", s.Z0, ErrFlatSurface)
	}
	return vec3.T{0, 0, s.Z0 + 1/s.Curvature}, nil
}

// RadiusOfCurvature is 1/|Curvature|; infinite for a flat surface.
func (s *SphericalRefraction) RadiusOfCurvature() float64 {
	return 1 / math.Abs(s.Curvature)
}

func (s *SphericalRefraction) Intercept(r *ray.Ray) (contact.Contact, error) {
	if s.Curvature == 0 {
		return planeIntercept(r, s.Z0, s.ApertureRadius)
	}

	centre, err := s.Centre()
	if err != nil {
		return contact.Contact{}, err
	}
	radius := s.RadiusOfCurvature()

	// Solve |p + t d - centre|² = R² for unit d.
	rel := vec3.SubVV(r.Point(), centre)
	b := vec3.IProd(rel, r.Slope())
	c := vec3.IProd(rel, rel) - radius*radius

	disc := b*b - c
	if disc < 0 {
		return contact.ContactNaN(), nil
	}

	root := math.Sqrt(disc)
	tNear := -b - root
	tFar := -b + root

	// A convex surface presents its near face to the incoming ray, a
	// concave one its far face.  The other root is never a fallback.
	t := tNear
	if s.Curvature < 0 {
		t = tFar
	}

	hit := r.Eval(t)
	if !withinAperture(hit, s.ApertureRadius) {
		return contact.ContactNaN(), nil
	}
	return contact.Contact{T: t, P: hit}, nil
}

// Normal returns the unit surface normal at p, oriented into z < 0.
func (s *SphericalRefraction) Normal(p vec3.T) (vec3.T, error) {
	if s.Curvature == 0 {
		return vec3.T{0, 0, -1}, nil
	}

	centre, err := s.Centre()
	if err != nil {
		return vec3.T{}, err
	}

	n := vec3.Normalize(vec3.SubVV(p, centre))
	if n[2] > 0 {
		n = vec3.Neg(n)
	}
	return n, nil
}

func (s *SphericalRefraction) Propagate(r *ray.Ray) error {
	if !r.Active() {
		return nil
	}

	c, err := s.Intercept(r)
	if err != nil {
		return err
	}
	if c.Missed() {
		r.Terminate(ray.Vignetted)
		return nil
	}

	r.AppendPoint(c.P)

	n, err := s.Normal(c.P)
	if err != nil {
		return err
	}

	out, ok, err := refraction.Refract(r.Slope(), n, s.N1, s.N2)
	if err != nil {
		return fmt.Errorf("while refracting at z0=%v: %w", s.Z0, err)
	}
	if !ok {
		r.Terminate(ray.TotalInternalReflection)
		return nil
	}

	r.AppendSlope(out)
	return nil
}

func (s *SphericalRefraction) String() string {
	return fmt.Sprintf("SphericalRefraction(z0=%v, curv=%v, n1=%v, n2=%v, ap=%v)", s.Z0, s.Curvature, s.N1, s.N2, s.ApertureRadius)
}
