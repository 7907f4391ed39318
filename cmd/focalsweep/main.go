// Command focalsweep measures the spot size of a lens system across a range of
// bundle radii, and compares it with the diffraction limit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"lenstrace/bundle"
	"lenstrace/diagram"
	"lenstrace/prescription"
	"lenstrace/runstore"
	"lenstrace/sweep"

	"github.com/golang/glog"
)

var (
	prescriptionFile = flag.String("prescription", "", "Lens system prescription (YAML or JSON)")

	minRadius = flag.Float64("min-radius", 0.1, "Smallest bundle radius (mm)")
	maxRadius = flag.Float64("max-radius", 10, "Largest bundle radius (mm)")
	step      = flag.Float64("step", 0.1, "Bundle radius step (mm)")
	parallel  = flag.Int("parallel", 2, "Bundle radii traced at once")

	plotFile = flag.String("plot", "", "Write the sweep plot to `file`")
	storeDir = flag.String("store-dir", "", "Record every row in the run database in `dir`")
	list     = flag.Bool("list", false, "Print the results already recorded for the system instead of sweeping")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
)

func main() {
	flag.Parse()

	glog.Infof("flags:")
	glog.Infof("prescription: %v", *prescriptionFile)
	glog.Infof("min-radius: %v", *minRadius)
	glog.Infof("max-radius: %v", *maxRadius)
	glog.Infof("step: %v", *step)
	glog.Infof("parallel: %v", *parallel)
	glog.Infof("plot: %v", *plotFile)
	glog.Infof("store-dir: %v", *storeDir)
	glog.Infof("list: %v", *list)

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

	var store *runstore.Store
	if *storeDir != "" {
		store, err = runstore.Open(*storeDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if *list {
		if store == nil {
			return fmt.Errorf("--list needs --store-dir")
		}
		return printRecorded(ctx, store, sys.Name)
	}

	if err := bundle.RegisterViews(); err != nil {
		return fmt.Errorf("while registering metric views: %w", err)
	}

	cfg := sweep.Config{
		MinRadius: *minRadius,
		MaxRadius: *maxRadius,
		Step:      *step,
		Parallel:  *parallel,
	}
	rows, err := sweep.Run(ctx, bundle.NewTracer(), sys, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("# %s, paraxial focus z=%.6f mm\n", sys.Name, sys.Focus)
	fmt.Printf("# diameter_mm rms_mm")
	for _, nm := range sys.WavelengthsNm {
		fmt.Printf(" diffraction_%gnm_mm", nm)
	}
	fmt.Println()
	for _, row := range rows {
		fmt.Printf("%.6g %.6g", row.Diameter(), row.RMS)
		for _, l := range row.DiffractionLimits {
			fmt.Printf(" %.6g", l)
		}
		fmt.Println()
	}

	if *plotFile != "" {
		if err := diagram.Sweep(rows, sys.WavelengthsNm, *plotFile); err != nil {
			return err
		}
	}

	if store != nil {
		for _, row := range rows {
			err := store.PutResult(ctx, &runstore.Result{
				System:            sys.Name,
				Radius:            row.Radius,
				Focus:             sys.Focus,
				Rays:              row.Rays,
				Active:            row.Active,
				RMS:               row.RMS,
				DiffractionLimits: row.DiffractionLimits,
			})
			if err != nil {
				return err
			}
		}
		glog.Infof("Recorded %d rows for %q in %s", len(rows), sys.Name, *storeDir)
	}

	return nil
}

func printRecorded(ctx context.Context, store *runstore.Store, system string) error {
	results, err := store.ListResults(ctx, system)
	if err != nil {
		return err
	}

	fmt.Printf("# %s, %d recorded results\n", system, len(results))
	fmt.Printf("# radius_mm rms_mm active rays recorded\n")
	for _, r := range results {
		fmt.Printf("%.6g %.6g %d %d %s\n", r.Radius, r.RMS, r.Active, r.Rays, r.Recorded.Format(time.RFC3339))
	}
	return nil
}
