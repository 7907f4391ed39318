// Package refraction bends ray directions across a boundary between two
// media according to Snell's law.
package refraction

import (
	"errors"
	"fmt"
	"math"

	"lenstrace/vmath/vec3"
)

// ErrNormalOrientation is returned when the surface normal handed to Refract
// does not point into the z < 0 half-space.  Surfaces orient their normals
// before refracting, so this is a caller bug rather than a physical outcome.
var ErrNormalOrientation = errors.New("normal vector not in the negative z direction")

// Refract computes the direction of a ray with unit direction d after it
// crosses a boundary with unit normal n, travelling from index n1 into n2.
//
// ok is false when the ray is totally internally reflected, in which case no
// direction is returned.
func Refract(d, n vec3.T, n1, n2 float64) (refracted vec3.T, ok bool, err error) {
	if n[2] >= 0 {
		return vec3.T{}, false, fmt.Errorf("refracting with normal %v: %w", n, ErrNormalOrientation)
	}

	cosI := -vec3.IProd(n, d)
	sin2I := math.Max(0, 1-cosI*cosI)

	// Critical angle test on the sine ratio.
	if math.Sqrt(sin2I) > n2/n1 {
		return vec3.T{}, false, nil
	}

	r := n1 / n2
	cosT := math.Sqrt(math.Max(0, 1-r*r*sin2I))
	out := vec3.AddVV(vec3.MulVS(d, r), vec3.MulVS(n, r*cosI-cosT))
	return vec3.Normalize(out), true, nil
}
