// Package focal locates the paraxial focus of a lens system.
package focal

import (
	"errors"
	"fmt"

	"lenstrace/ray"
	"lenstrace/surface"
	"lenstrace/vmath/vec3"
)

// TestRayHeight is how far from the axis the paraxial test ray starts.
const TestRayHeight = 0.1

var (
	ErrNoSurfaces = errors.New("no surfaces to focus through")

	// ErrTestRayLost is returned when the test ray is vignetted or reflected
	// before leaving the system.
	ErrTestRayLost = errors.New("paraxial test ray did not pass through the system")
)

// ParaxialFocus traces a ray travelling along +z at TestRayHeight from the
// axis through surfaces, then extrapolates its final direction to where it
// crosses the axis.  It returns the z coordinate of that crossing.
func ParaxialFocus(surfaces ...surface.Surface) (float64, error) {
	if len(surfaces) == 0 {
		return 0, ErrNoSurfaces
	}

	r := ray.New(vec3.T{TestRayHeight, 0, 0}, vec3.T{0, 0, 1})
	if err := surface.PropagateAll(r, surfaces...); err != nil {
		return 0, fmt.Errorf("while tracing paraxial test ray: %w", err)
	}
	if !r.Active() {
		return 0, fmt.Errorf("%w (status %v)", ErrTestRayLost, r.Status())
	}

	p, err := r.AxisIntercept()
	if err != nil {
		return 0, err
	}
	return p[2], nil
}
