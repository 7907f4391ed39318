// Package genpolar generates (radius, angle) sample points arranged in
// concentric circles, for seeding bundles of rays.
package genpolar

import (
	"iter"
	"math"
)

// RTPairs yields counts[i] evenly spaced angles on the circle of radius
// radii[i], for each i in turn.  Extra entries in the longer slice are ignored.
func RTPairs(radii []float64, counts []int) iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		for i := 0; i < len(radii) && i < len(counts); i++ {
			for k := 0; k < counts[i]; k++ {
				if !yield(radii[i], 2*math.Pi*float64(k)/float64(counts[i])) {
					return
				}
			}
		}
	}
}

// RTUniform yields points spread roughly uniformly over a disc of radius rmax.
//
// There are n rings.  Ring i (counting from 1) sits at radius rmax*i/n and
// contributes i*m+1 points: the centre of the disc followed by i*m points
// evenly spaced around the ring.  The sequence can be ranged over any number
// of times.
func RTUniform(n int, rmax float64, m int) iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		for i := 1; i <= n; i++ {
			if !yield(0, 0) {
				return
			}

			rad := rmax / float64(n) * float64(i)
			count := i * m
			step := 2 * math.Pi / float64(count)
			for k := 0; k < count; k++ {
				if !yield(rad, float64(k)*step) {
					return
				}
			}
		}
	}
}

// Count is the number of pairs RTUniform(n, rmax, m) yields.
func Count(n, m int) int {
	if n <= 0 {
		return 0
	}
	return n + m*n*(n+1)/2
}
