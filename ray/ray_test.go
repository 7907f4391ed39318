package ray

import (
	"errors"
	"testing"

	"lenstrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewNormalizesSlope(t *testing.T) {
	r := New(vec3.T{1, 2, 3}, vec3.T{0, 0, 5})

	if diff := cmp.Diff(r.Point(), vec3.T{1, 2, 3}); diff != "" {
		t.Errorf("Bad initial point; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(r.Slope(), vec3.T{0, 0, 1}); diff != "" {
		t.Errorf("Bad initial slope; diff (-got +want)\n%s", diff)
	}
	if !r.Active() {
		t.Errorf("New ray has status %v, want %v", r.Status(), Active)
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	r := New(vec3.T{0, 0, 0}, vec3.T{0, 0, 1})
	r.AppendPoint(vec3.T{0, 0, 10})
	r.AppendSlope(vec3.T{0, 3, 4})

	wantPoints := []vec3.T{{0, 0, 0}, {0, 0, 10}}
	wantSlopes := []vec3.T{{0, 0, 1}, {0, 0.6, 0.8}}

	if diff := cmp.Diff(r.Points(), wantPoints); diff != "" {
		t.Errorf("Bad points; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(r.Slopes(), wantSlopes, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("Bad slopes; diff (-got +want)\n%s", diff)
	}

	// Mutating the returned history must not reach the ray.
	pts := r.Points()
	pts[0] = vec3.T{9, 9, 9}
	if got := r.Points()[0]; got != (vec3.T{0, 0, 0}) {
		t.Errorf("Points() leaked internal storage; first point is now %v", got)
	}

	if got, want := r.Len(), 2; got != want {
		t.Errorf("Bad Len; got %d, want %d", got, want)
	}
}

func TestEval(t *testing.T) {
	r := New(vec3.T{1, 0, 0}, vec3.T{0, 0, 1})
	if diff := cmp.Diff(r.Eval(2.5), vec3.T{1, 0, 2.5}); diff != "" {
		t.Errorf("Bad Eval; diff (-got +want)\n%s", diff)
	}
}

func TestZeroSlopeIsDegenerate(t *testing.T) {
	r := New(vec3.T{0, 0, 0}, vec3.T{0, 0, 0})
	if got := r.Status(); got != Degenerate {
		t.Errorf("Ray with zero slope has status %v, want %v", got, Degenerate)
	}
	if got := r.Slope(); got != (vec3.T{}) {
		t.Errorf("Zero slope was altered to %v", got)
	}
}

func TestTerminateKeepsFirstReason(t *testing.T) {
	r := New(vec3.T{0, 0, 0}, vec3.T{0, 0, 1})
	r.Terminate(TotalInternalReflection)
	r.Terminate(Vignetted)
	if got := r.Status(); got != TotalInternalReflection {
		t.Errorf("Bad status after two terminations; got %v, want %v", got, TotalInternalReflection)
	}
}

func TestAxisIntercept(t *testing.T) {
	r := New(vec3.T{0.1, 0, 100}, vec3.T{-0.1, 0, 100})
	p, err := r.AxisIntercept()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(p, vec3.T{0, 0, 200}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Bad axis intercept; diff (-got +want)\n%s", diff)
	}

	axial := New(vec3.T{0, 0, 0}, vec3.T{0, 0, 1})
	if _, err := axial.AxisIntercept(); !errors.Is(err, vec3.ErrParallelToAxis) {
		t.Errorf("Axial ray intercept; got err %v, want %v", err, vec3.ErrParallelToAxis)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		Active:                  "active",
		Vignetted:               "vignetted",
		TotalInternalReflection: "total-internal-reflection",
		Degenerate:              "degenerate",
		Status(42):              "Status(42)",
	} {
		if got := s.String(); got != want {
			t.Errorf("Bad String for %d; got %q, want %q", int(s), got, want)
		}
	}
}
