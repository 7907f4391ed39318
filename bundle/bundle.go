// Package bundle builds bundles of rays and traces them through a sequence of
// surfaces.
package bundle

import (
	"math"

	"lenstrace/genpolar"
	"lenstrace/ray"
	"lenstrace/vmath/vec3"
)

// New creates one ray per point of genpolar.RTUniform(n, rmax, m), placed on
// the plane at axial position z and all travelling along slope.
func New(n int, rmax float64, m int, z float64, slope vec3.T) []*ray.Ray {
	rays := make([]*ray.Ray, 0, genpolar.Count(n, m))
	for r, t := range genpolar.RTUniform(n, rmax, m) {
		rays = append(rays, ray.New(vec3.T{r * math.Cos(t), r * math.Sin(t), z}, slope))
	}
	return rays
}

// Collimated is New with the bundle starting at z=0 travelling along +z.
func Collimated(n int, rmax float64, m int) []*ray.Ray {
	return New(n, rmax, m, 0, vec3.T{0, 0, 1})
}
