package bundle

import (
	"context"
	"fmt"
	"runtime"

	"lenstrace/ray"
	"lenstrace/surface"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Tracer propagates bundles of rays through a sequence of surfaces.
//
// Rays never share state and surfaces are read-only while tracing, so the
// bundle is split into chunks that are traced concurrently.
type Tracer struct {
	concurrency int64
	chunkSize   int
}

type Option func(*Tracer)

// WithConcurrency bounds the number of chunks traced at once.
func WithConcurrency(n int) Option {
	return func(t *Tracer) {
		if n > 0 {
			t.concurrency = int64(n)
		}
	}
}

// WithChunkSize sets how many rays each unit of work traces.
func WithChunkSize(n int) Option {
	return func(t *Tracer) {
		if n > 0 {
			t.chunkSize = n
		}
	}
}

func NewTracer(opts ...Option) *Tracer {
	t := &Tracer{
		concurrency: int64(runtime.NumCPU()),
		chunkSize:   64,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Summary counts the rays of a trace by final status.
type Summary struct {
	ByStatus map[ray.Status]int
}

func summarize(rays []*ray.Ray) Summary {
	s := Summary{ByStatus: map[ray.Status]int{}}
	for _, r := range rays {
		s.ByStatus[r.Status()]++
	}
	return s
}

func (s Summary) Total() int {
	total := 0
	for _, c := range s.ByStatus {
		total += c
	}
	return total
}

// Active is the number of rays that crossed every surface.
func (s Summary) Active() int {
	return s.ByStatus[ray.Active]
}

// Trace sends every ray through surfaces in order, mutating each ray's
// history.  Rays that miss a surface or reflect are left where they stopped.
// The first domain failure aborts the trace.
func (t *Tracer) Trace(ctx context.Context, rays []*ray.Ray, surfaces []surface.Surface) (Summary, error) {
	tracer := otel.Tracer("lenstrace/bundle")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Tracer.Trace")
	defer span.End()
	span.SetAttributes(
		attribute.Int("lenstrace.rays", len(rays)),
		attribute.Int("lenstrace.surfaces", len(surfaces)),
	)

	// Use errgroup and semaphore to limit concurrency.
	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(t.concurrency)

	var scheduleErr error
	for lo := 0; lo < len(rays); lo += t.chunkSize {
		if err := egCtx.Err(); err != nil {
			scheduleErr = fmt.Errorf("while scheduling ray chunk at %d: %w", lo, err)
			break
		}
		if err := sem.Acquire(egCtx, 1); err != nil {
			scheduleErr = fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
			break
		}

		chunk := rays[lo:min(lo+t.chunkSize, len(rays))]
		eg.Go(func() error {
			defer sem.Release(1)
			for i, r := range chunk {
				if err := surface.PropagateAll(r, surfaces...); err != nil {
					return fmt.Errorf("while tracing ray %d: %w", lo+i, err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trace failed")
		return Summary{}, fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}
	if scheduleErr != nil {
		span.RecordError(scheduleErr)
		span.SetStatus(codes.Error, "trace cancelled")
		return Summary{}, scheduleErr
	}

	s := summarize(rays)
	recordSummary(ctx, s)
	span.SetAttributes(attribute.Int("lenstrace.rays_active", s.Active()))

	if glog.V(1) {
		glog.Infof("Traced %d rays through %d surfaces: %v", len(rays), len(surfaces), s.ByStatus)
	}

	return s, nil
}
