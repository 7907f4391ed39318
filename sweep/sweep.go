// Package sweep measures how the spot size of a lens system changes with the
// radius of the incoming bundle, and compares it with the diffraction limit.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"lenstrace/bundle"
	"lenstrace/prescription"
	"lenstrace/spot"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	ErrBadConfig = errors.New("bad sweep configuration")
	ErrNoFocus   = errors.New("system has no paraxial focus")
)

type Config struct {
	MinRadius float64
	MaxRadius float64
	Step      float64

	// Parallel is how many bundle radii are traced at once.  Each trace is
	// itself concurrent.
	Parallel int
}

func (c Config) validate() error {
	if c.MinRadius <= 0 {
		return fmt.Errorf("%w: minimum radius %v must be positive", ErrBadConfig, c.MinRadius)
	}
	if c.MaxRadius < c.MinRadius {
		return fmt.Errorf("%w: maximum radius %v below minimum %v", ErrBadConfig, c.MaxRadius, c.MinRadius)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: step %v must be positive", ErrBadConfig, c.Step)
	}
	return nil
}

// Radii lists the bundle radii visited by a sweep, inclusive of MaxRadius when
// it falls on a step.
func (c Config) Radii() []float64 {
	var radii []float64
	for i := 0; ; i++ {
		r := c.MinRadius + float64(i)*c.Step
		if r > c.MaxRadius+1e-9*c.Step {
			break
		}
		radii = append(radii, r)
	}
	return radii
}

// Row is the result for one bundle radius.
type Row struct {
	Radius float64
	Rays   int
	Active int

	// RMS is the RMS spot radius on the detector, NaN if no ray arrived.
	RMS float64

	// DiffractionLimits holds λf/D for each of the system's wavelengths, in
	// the same order, in millimetres.
	DiffractionLimits []float64
}

func (r Row) Diameter() float64 {
	return 2 * r.Radius
}

// Run traces one bundle per radius of cfg through sys.
func Run(ctx context.Context, tracer *bundle.Tracer, sys *prescription.System, cfg Config) ([]Row, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !sys.FocusFound {
		return nil, fmt.Errorf("while sweeping %q: %w", sys.Name, ErrNoFocus)
	}
	focalLength := sys.Focus - sys.Front

	ctx, span := otel.Tracer("lenstrace/sweep").Start(ctx, "sweep.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("lenstrace.system", sys.Name),
		attribute.Float64("lenstrace.focal_length", focalLength),
	)

	radii := cfg.Radii()
	rows := make([]Row, len(radii))

	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(parallel))
	for i, radius := range radii {
		if err := sem.Acquire(egCtx, 1); err != nil {
			// Wait for in-flight radii so their failure, if any, is the one reported.
			if waitErr := eg.Wait(); waitErr != nil {
				err = waitErr
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "sweep failed")
			return nil, fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		eg.Go(func() error {
			defer sem.Release(1)
			row, err := measure(egCtx, tracer, sys, radius, focalLength)
			if err != nil {
				return fmt.Errorf("while measuring radius %v: %w", radius, err)
			}
			rows[i] = row
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return nil, fmt.Errorf("while sweeping %q: %w", sys.Name, err)
	}

	return rows, nil
}

func measure(ctx context.Context, tracer *bundle.Tracer, sys *prescription.System, radius, focalLength float64) (Row, error) {
	rays := sys.NewBundle(radius)
	summary, err := tracer.Trace(ctx, rays, sys.Surfaces())
	if err != nil {
		return Row{}, err
	}

	row := Row{
		Radius: radius,
		Rays:   summary.Total(),
		Active: summary.Active(),
	}

	rms, err := spot.RMSRadius(spot.FinalPositions(rays))
	switch {
	case errors.Is(err, spot.ErrNoPoints):
		glog.Warningf("No rays of the %vmm bundle reached the detector of %q", radius, sys.Name)
		rms = math.NaN()
	case err != nil:
		return Row{}, err
	}
	row.RMS = rms

	for _, nm := range sys.WavelengthsNm {
		row.DiffractionLimits = append(row.DiffractionLimits, spot.DiffractionLimitedRadius(nm*1e-6, focalLength, row.Diameter()))
	}

	if glog.V(2) {
		glog.Infof("Bundle radius %v: %d/%d rays arrived, rms %v", radius, row.Active, row.Rays, row.RMS)
	}
	return row, nil
}
