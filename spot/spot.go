// Package spot summarizes where a traced bundle lands on the detector.
package spot

import (
	"errors"
	"math"

	"lenstrace/ray"
	"lenstrace/vmath/vec3"

	"gonum.org/v1/gonum/stat"
)

var ErrNoPoints = errors.New("no points in spot")

// FinalPositions returns the last position of every ray that crossed the whole
// system.  Rays that were vignetted or reflected are left out.
func FinalPositions(rays []*ray.Ray) []vec3.T {
	points := make([]vec3.T, 0, len(rays))
	for _, r := range rays {
		if !r.Active() {
			continue
		}
		points = append(points, r.Point())
	}
	return points
}

// RMSRadius is the root mean square distance of points from the optical axis.
func RMSRadius(points []vec3.T) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNoPoints
	}

	r2 := make([]float64, len(points))
	for i, p := range points {
		r2[i] = p.TransverseSquared()
	}
	return math.Sqrt(stat.Mean(r2, nil)), nil
}

// Centroid is the mean position of points.
func Centroid(points []vec3.T) (vec3.T, error) {
	if len(points) == 0 {
		return vec3.T{}, ErrNoPoints
	}

	var c vec3.T
	axis := make([]float64, len(points))
	for k := 0; k < 3; k++ {
		for i, p := range points {
			axis[i] = p[k]
		}
		c[k] = stat.Mean(axis, nil)
	}
	return c, nil
}

// DiffractionLimitedRadius is the diffraction scale λf/D for light of the given
// wavelength focused at focalLength through an aperture of diameter.  All three
// must be in the same length unit.
func DiffractionLimitedRadius(wavelength, focalLength, diameter float64) float64 {
	return wavelength * focalLength / diameter
}
