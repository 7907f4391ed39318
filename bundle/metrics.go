package bundle

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	statusKey = tag.MustNewKey("status")

	rayCount = stats.Int64("lenstrace/rays", "Rays traced, by final status", stats.UnitDimensionless)

	rayCountView = &view.View{
		Name:        "lenstrace/rays_by_status",
		Description: "Number of rays traced, split by whether they reached the end of the system",

		TagKeys: []tag.Key{statusKey},

		Measure:     rayCount,
		Aggregation: view.Sum(),
	}
)

// RegisterViews registers the tracer's metric views with opencensus.
func RegisterViews() error {
	return view.Register(rayCountView)
}

func recordSummary(ctx context.Context, s Summary) {
	for status, count := range s.ByStatus {
		if count == 0 {
			continue
		}
		stats.RecordWithOptions(
			ctx,
			stats.WithTags(tag.Upsert(statusKey, status.String())),
			stats.WithMeasurements(rayCount.M(int64(count))))
	}
}
