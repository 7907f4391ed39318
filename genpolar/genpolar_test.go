package genpolar

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type pair struct {
	R, T float64
}

func collect(seq func(func(float64, float64) bool)) []pair {
	var out []pair
	for r, t := range seq {
		out = append(out, pair{r, t})
	}
	return out
}

func TestRTUniformSingleRing(t *testing.T) {
	got := collect(RTUniform(1, 5, 4))

	want := []pair{
		{0, 0},
		{5, 0},
		{5, math.Pi / 2},
		{5, math.Pi},
		{5, 3 * math.Pi / 2},
	}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad RTUniform(1, 5, 4); diff (-got +want)\n%s", diff)
	}
	for _, p := range got {
		if p.R > 5 {
			t.Errorf("Point %v lies outside rmax", p)
		}
	}
}

func TestRTUniformRingSizes(t *testing.T) {
	const n, m = 6, 5
	const rmax = 2.5

	perRadius := map[float64]int{}
	total := 0
	for r := range RTUniform(n, rmax, m) {
		perRadius[r]++
		total++
	}

	if got, want := total, Count(n, m); got != want {
		t.Errorf("Bad total; got %d, want %d", got, want)
	}
	if got, want := perRadius[0], n; got != want {
		t.Errorf("Bad number of centre points; got %d, want %d", got, want)
	}
	for i := 1; i <= n; i++ {
		rad := rmax / float64(n) * float64(i)
		if got, want := perRadius[rad], i*m; got != want {
			t.Errorf("Bad count on ring %d (r=%v); got %d, want %d", i, rad, got, want)
		}
	}
}

func TestRTUniformRestartable(t *testing.T) {
	seq := RTUniform(3, 1, 2)
	first := collect(seq)
	second := collect(seq)
	if diff := cmp.Diff(second, first); diff != "" {
		t.Errorf("Second pass differs from first; diff (-got +want)\n%s", diff)
	}
}

func TestRTUniformEarlyStop(t *testing.T) {
	seen := 0
	for range RTUniform(10, 1, 10) {
		seen++
		if seen == 3 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("Iteration continued past break; saw %d", seen)
	}
}

func TestRTUniformEmpty(t *testing.T) {
	if got := collect(RTUniform(0, 5, 4)); len(got) != 0 {
		t.Errorf("RTUniform with no rings yielded %v", got)
	}
}

func TestRTPairs(t *testing.T) {
	got := collect(RTPairs([]float64{1, 2}, []int{1, 2}))
	want := []pair{
		{1, 0},
		{2, 0},
		{2, math.Pi},
	}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad RTPairs; diff (-got +want)\n%s", diff)
	}
}
