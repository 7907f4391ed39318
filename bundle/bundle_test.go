package bundle

import (
	"context"
	"errors"
	"math"
	"testing"

	"lenstrace/genpolar"
	"lenstrace/ray"
	"lenstrace/surface"
	"lenstrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func singlet() []surface.Surface {
	return []surface.Surface{
		surface.NewSphericalRefraction(100, 0.03, 1.0, 1.5, 1/0.03),
		surface.NewOutputPlane(200, 1e4),
	}
}

func TestNewBundle(t *testing.T) {
	rays := New(1, 5, 4, 10, vec3.T{0, 0, 2})
	if got, want := len(rays), 5; got != want {
		t.Fatalf("Bad bundle size; got %d, want %d", got, want)
	}

	for i, r := range rays {
		p := r.Point()
		if p[2] != 10 {
			t.Errorf("Ray %d starts at z=%v, want 10", i, p[2])
		}
		if rad := math.Sqrt(p.TransverseSquared()); rad > 5+1e-12 {
			t.Errorf("Ray %d starts %v from the axis, beyond rmax", i, rad)
		}
		if r.Slope() != (vec3.T{0, 0, 1}) {
			t.Errorf("Ray %d has slope %v, want (0, 0, 1)", i, r.Slope())
		}
	}

	if got := rays[0].Point(); got != (vec3.T{0, 0, 10}) {
		t.Errorf("First ray should be the central one; starts at %v", got)
	}
}

func TestCollimatedMatchesGenerator(t *testing.T) {
	rays := Collimated(4, 3, 6)
	if got, want := len(rays), genpolar.Count(4, 6); got != want {
		t.Errorf("Bad bundle size; got %d, want %d", got, want)
	}
}

func TestTraceMatchesSequential(t *testing.T) {
	surfaces := singlet()

	want := Collimated(10, 5, 6)
	for _, r := range want {
		if err := surface.PropagateAll(r, surfaces...); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	got := Collimated(10, 5, 6)
	tr := NewTracer(WithConcurrency(3), WithChunkSize(7))
	summary, err := tr.Trace(context.Background(), got, surfaces)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := range want {
		if diff := cmp.Diff(got[i].Points(), want[i].Points()); diff != "" {
			t.Errorf("Ray %d history differs from sequential trace; diff (-got +want)\n%s", i, diff)
		}
	}

	if got, want := summary.Total(), len(want); got != want {
		t.Errorf("Bad summary total; got %d, want %d", got, want)
	}
	if got, want := summary.Active(), len(want); got != want {
		t.Errorf("Every ray of a 5mm bundle should reach the detector; got %d active of %d", got, want)
	}
}

func TestTraceCountsVignetting(t *testing.T) {
	// Aperture smaller than the bundle: the outer ring misses the lens.
	surfaces := []surface.Surface{
		surface.NewSphericalRefraction(100, 0.03, 1.0, 1.5, 4),
		surface.NewOutputPlane(200, 1e4),
	}

	rays := Collimated(2, 5, 4)
	summary, err := NewTracer().Trace(context.Background(), rays, surfaces)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[ray.Status]int{
		ray.Active:    6,
		ray.Vignetted: 8,
	}
	if diff := cmp.Diff(summary.ByStatus, want); diff != "" {
		t.Errorf("Bad summary; diff (-got +want)\n%s", diff)
	}

	for _, r := range rays {
		if r.Status() == ray.Vignetted && r.Len() != 1 {
			t.Errorf("Vignetted ray gained history: %v", r.Points())
		}
	}
}

func TestTraceDomainFailure(t *testing.T) {
	rays := []*ray.Ray{
		ray.New(vec3.T{0, 0, 0}, vec3.T{0, 0, 1}),
		ray.New(vec3.T{0, 0, 0}, vec3.T{1, 0, 0}),
	}
	_, err := NewTracer(WithChunkSize(1)).Trace(context.Background(), rays, []surface.Surface{surface.NewOutputPlane(10, 10)})
	if !errors.Is(err, surface.ErrAxialSlope) {
		t.Errorf("Got err %v, want %v", err, surface.ErrAxialSlope)
	}
}

func TestTraceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTracer().Trace(ctx, Collimated(2, 1, 2), singlet())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Got err %v, want %v", err, context.Canceled)
	}
}

func TestRegisterViews(t *testing.T) {
	if err := RegisterViews(); err != nil {
		t.Fatalf("Unexpected error registering views: %v", err)
	}
	// Registering the same view twice is allowed.
	if err := RegisterViews(); err != nil {
		t.Errorf("Unexpected error re-registering views: %v", err)
	}
}

func TestTraceRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	if _, err := NewTracer().Trace(context.Background(), Collimated(2, 1, 4), singlet()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	if diff := cmp.Diff(names, []string{"Tracer.Trace"}); diff != "" {
		t.Errorf("Bad spans; diff (-got +want)\n%s", diff)
	}
}
