// Command lenstrace traces a bundle of rays through the lens system in a
// prescription file and reports the spot it forms on the detector.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"lenstrace/bundle"
	"lenstrace/diagram"
	"lenstrace/prescription"
	"lenstrace/runstore"
	"lenstrace/spot"

	"github.com/golang/glog"
	"go.opencensus.io/stats/view"
)

var (
	prescriptionFile = flag.String("prescription", "", "Lens system prescription (YAML or JSON)")
	bundleRadius     = flag.Float64("bundle-radius", 0, "Override the prescription's bundle radius (mm)")
	concurrency      = flag.Int("concurrency", 0, "Maximum ray chunks traced at once; 0 means one per CPU")

	pathsPlot = flag.String("paths-plot", "", "Write a z-x plot of the ray paths to `file`")
	spotPlot  = flag.String("spot-plot", "", "Write a spot diagram to `file`")

	storeDir = flag.String("store-dir", "", "Record the result in the run database in `dir`")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
)

func main() {
	flag.Parse()

	glog.Infof("flags:")
	glog.Infof("prescription: %v", *prescriptionFile)
	glog.Infof("bundle-radius: %v", *bundleRadius)
	glog.Infof("concurrency: %v", *concurrency)
	glog.Infof("paths-plot: %v", *pathsPlot)
	glog.Infof("spot-plot: %v", *spotPlot)
	glog.Infof("store-dir: %v", *storeDir)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Fatalf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := do(ctx); err != nil {
		glog.Errorf("Error: %v", err)
		glog.Flush()
		pprof.StopCPUProfile()
		os.Exit(1)
	}

	glog.Flush()
}

func do(ctx context.Context) error {
	if *prescriptionFile == "" {
		return fmt.Errorf("--prescription is required")
	}

	p, err := prescription.Load(*prescriptionFile)
	if err != nil {
		return err
	}
	sys, err := p.Build()
	if err != nil {
		return fmt.Errorf("while building system: %w", err)
	}

	if err := bundle.RegisterViews(); err != nil {
		return fmt.Errorf("while registering metric views: %w", err)
	}

	radius := sys.Bundle.MaxRadius
	if *bundleRadius > 0 {
		radius = *bundleRadius
	}

	opts := []bundle.Option{}
	if *concurrency > 0 {
		opts = append(opts, bundle.WithConcurrency(*concurrency))
	}

	rays := sys.NewBundle(radius)
	summary, err := bundle.NewTracer(opts...).Trace(ctx, rays, sys.Surfaces())
	if err != nil {
		return fmt.Errorf("while tracing %q: %w", sys.Name, err)
	}

	fmt.Printf("system: %s\n", sys.Name)
	if sys.FocusFound {
		fmt.Printf("paraxial focus: z=%.6f mm\n", sys.Focus)
	}
	fmt.Printf("detector: z=%.6f mm\n", sys.Detector.Z0)
	fmt.Printf("bundle radius: %v mm\n", radius)
	for status, count := range summary.ByStatus {
		fmt.Printf("rays %v: %d\n", status, count)
	}

	points := spot.FinalPositions(rays)
	rms, err := spot.RMSRadius(points)
	if err != nil {
		return fmt.Errorf("while measuring spot: %w", err)
	}
	centroid, err := spot.Centroid(points)
	if err != nil {
		return fmt.Errorf("while measuring spot: %w", err)
	}
	fmt.Printf("rms spot radius: %.6g mm\n", rms)
	fmt.Printf("spot centroid: (%.6g, %.6g) mm\n", centroid[0], centroid[1])

	var limits []float64
	if sys.FocusFound && radius > 0 {
		for _, nm := range sys.WavelengthsNm {
			l := spot.DiffractionLimitedRadius(nm*1e-6, sys.Focus-sys.Front, 2*radius)
			limits = append(limits, l)
			fmt.Printf("diffraction limit at %vnm: %.6g mm\n", nm, l)
		}
	}

	if glog.V(1) {
		rows, err := view.RetrieveData("lenstrace/rays_by_status")
		if err != nil {
			return fmt.Errorf("while retrieving ray metrics: %w", err)
		}
		for _, row := range rows {
			glog.Infof("metric %v: %v", row.Tags, row.Data)
		}
	}

	if *pathsPlot != "" {
		if err := diagram.RayPaths(rays, *pathsPlot); err != nil {
			return err
		}
	}
	if *spotPlot != "" {
		if err := diagram.SpotDiagram(points, *spotPlot); err != nil {
			return err
		}
	}

	if *storeDir != "" {
		store, err := runstore.Open(*storeDir)
		if err != nil {
			return err
		}
		defer store.Close()

		err = store.PutResult(ctx, &runstore.Result{
			System:            sys.Name,
			Radius:            radius,
			Focus:             sys.Focus,
			Rays:              summary.Total(),
			Active:            summary.Active(),
			RMS:               rms,
			DiffractionLimits: limits,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
