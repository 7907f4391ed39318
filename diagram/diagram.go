// Package diagram draws traced rays and sweep results.  The image format is
// picked from the extension of the output path (png, svg, pdf, ...).
package diagram

import (
	"errors"
	"fmt"
	"math"

	"lenstrace/ray"
	"lenstrace/sweep"
	"lenstrace/vmath/vec3"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrNothingToPlot = errors.New("nothing to plot")

// RayPaths draws the z-x projection of every ray's position history, colouring
// each ray by how it ended.
func RayPaths(rays []*ray.Ray, path string) error {
	if len(rays) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = "Ray paths"
	p.X.Label.Text = "z (mm)"
	p.Y.Label.Text = "x (mm)"

	legend := map[ray.Status]bool{}
	for i, r := range rays {
		pts := make(plotter.XYs, 0, r.Len())
		for _, pt := range r.Points() {
			pts = append(pts, plotter.XY{X: pt[2], Y: pt[0]})
		}

		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("while building path of ray %d: %w", i, err)
		}
		l.Color = plotutil.Color(int(r.Status()))
		l.Width = vg.Points(0.5)
		p.Add(l)

		if !legend[r.Status()] {
			legend[r.Status()] = true
			p.Legend.Add(r.Status().String(), l)
		}
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("while saving ray paths: %w", err)
	}
	return nil
}

// SpotDiagram scatters the transverse positions of points.
func SpotDiagram(points []vec3.T, path string) error {
	if len(points) == 0 {
		return ErrNothingToPlot
	}

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Spot diagram at z=%.4g", points[0][2])
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("while building spot scatter: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)

	// Equal axes keep a round spot round.
	extent := 0.0
	for _, pt := range xys {
		extent = math.Max(extent, math.Max(math.Abs(pt.X), math.Abs(pt.Y)))
	}
	if extent == 0 {
		extent = 1e-6
	}
	p.X.Min, p.X.Max = -extent, extent
	p.Y.Min, p.Y.Max = -extent, extent

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("while saving spot diagram: %w", err)
	}
	return nil
}

// Sweep plots RMS spot radius and the diffraction limit at each wavelength
// against bundle diameter.  Rows where no ray reached the detector are left
// out.
func Sweep(rows []sweep.Row, wavelengthsNm []float64, path string) error {
	rms := make(plotter.XYs, 0, len(rows))
	limits := make([]plotter.XYs, len(wavelengthsNm))
	for _, row := range rows {
		if math.IsNaN(row.RMS) {
			continue
		}
		rms = append(rms, plotter.XY{X: row.Diameter(), Y: row.RMS})
		for i := range limits {
			if i < len(row.DiffractionLimits) {
				limits[i] = append(limits[i], plotter.XY{X: row.Diameter(), Y: row.DiffractionLimits[i]})
			}
		}
	}
	if len(rms) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = "Spot size against bundle diameter"
	p.X.Label.Text = "bundle diameter (mm)"
	p.Y.Label.Text = "radius (mm)"

	lines := []interface{}{"RMS spot radius", rms}
	for i, nm := range wavelengthsNm {
		lines = append(lines, fmt.Sprintf("λf/D at %gnm", nm), limits[i])
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("while adding sweep lines: %w", err)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("while saving sweep plot: %w", err)
	}
	return nil
}
