package refraction

import (
	"errors"
	"math"
	"testing"

	"lenstrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var facing = vec3.T{0, 0, -1}

func sine(a, b vec3.T) float64 {
	return vec3.CProd(a, b).Norm()
}

func TestNormalIncidenceIsUndeviated(t *testing.T) {
	got, ok, err := Refract(vec3.T{0, 0, 1}, facing, 1.0, 1.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("Normal incidence reported as total internal reflection")
	}
	if diff := cmp.Diff(got, vec3.T{0, 0, 1}, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("Bad refracted direction; diff (-got +want)\n%s", diff)
	}
}

func TestSnellsLaw(t *testing.T) {
	testCases := []struct {
		desc   string
		angle  float64
		n1, n2 float64
	}{
		{desc: "near normal into glass", angle: 0.01, n1: 1.0, n2: 1.5},
		{desc: "oblique into glass", angle: 0.6, n1: 1.0, n2: 1.5},
		{desc: "grazing into glass", angle: 1.5, n1: 1.0, n2: 1.5168},
		{desc: "glass to air below critical", angle: 0.5, n1: 1.5, n2: 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			d := vec3.T{math.Sin(tc.angle), 0, math.Cos(tc.angle)}
			out, ok, err := Refract(d, facing, tc.n1, tc.n2)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !ok {
				t.Fatalf("Unexpected total internal reflection")
			}

			if got := out.Norm(); math.Abs(got-1) > 1e-12 {
				t.Errorf("Refracted direction has norm %v, want 1", got)
			}

			lhs := tc.n1 * sine(d, facing)
			rhs := tc.n2 * sine(out, facing)
			if math.Abs(lhs-rhs) > 1e-12 {
				t.Errorf("Snell's law violated; n1 sin(i) = %v, n2 sin(t) = %v", lhs, rhs)
			}

			// The refracted ray stays in the plane of incidence and keeps
			// travelling forward.
			if out[1] != 0 || out[2] <= 0 {
				t.Errorf("Refracted direction %v left the plane of incidence or reversed", out)
			}
		})
	}
}

func TestTotalInternalReflection(t *testing.T) {
	critical := math.Asin(1.0 / 1.5)

	for _, angle := range []float64{critical + 0.01, 1.0, 1.4} {
		d := vec3.T{math.Sin(angle), 0, math.Cos(angle)}
		_, ok, err := Refract(d, facing, 1.5, 1.0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ok {
			t.Errorf("Incidence at %v rad beyond critical angle %v refracted, want total internal reflection", angle, critical)
		}
	}

	d := vec3.T{math.Sin(critical - 0.01), 0, math.Cos(critical - 0.01)}
	if _, ok, _ := Refract(d, facing, 1.5, 1.0); !ok {
		t.Errorf("Incidence just inside the critical angle was reflected")
	}
}

func TestBadNormalOrientation(t *testing.T) {
	for _, n := range []vec3.T{{0, 0, 1}, {1, 0, 0}} {
		_, _, err := Refract(vec3.T{0, 0, 1}, n, 1.0, 1.5)
		if !errors.Is(err, ErrNormalOrientation) {
			t.Errorf("Refract with normal %v; got err %v, want %v", n, err, ErrNormalOrientation)
		}
	}
}
