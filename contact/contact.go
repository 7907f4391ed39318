package contact

import (
	"math"

	"lenstrace/vmath/vec3"
)

// Contact is where a ray meets a surface.  T is the distance travelled along
// the ray from its current point, P the contact point.
type Contact struct {
	T float64
	P vec3.T
}

// ContactNaN is the contact for a ray that does not meet the surface.
func ContactNaN() Contact {
	return Contact{
		T: math.NaN(),
	}
}

func (c Contact) Missed() bool {
	return math.IsNaN(c.T)
}
