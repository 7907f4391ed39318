// Package prescription reads lens system descriptions.
//
// A prescription is a YAML (or JSON) document listing the refracting surfaces
// of a system in the order light meets them, where the detector sits, and the
// bundle of rays to send through it:
//
//	name: planoconvex
//	surfaces:
//	- {z0: 100, curvature: 0.02, n1: 1.0, n2: 1.5168, apertureRadius: 21.8}
//	- {z0: 105, curvature: 0, n1: 1.5168, n2: 1.0, apertureRadius: 21.8}
//	detector: {atParaxialFocus: true, apertureRadius: 1000}
//	bundle: {rings: 10, maxRadius: 5, growth: 6}
//	wavelengthsNm: [588]
//
// Lengths are in millimetres.
package prescription

import (
	"errors"
	"fmt"
	"os"

	"lenstrace/bundle"
	"lenstrace/focal"
	"lenstrace/ray"
	"lenstrace/surface"
	"lenstrace/vmath/vec3"

	"sigs.k8s.io/yaml"
)

var ErrInvalid = errors.New("invalid prescription")

type SurfaceCfg struct {
	Z0             float64 `json:"z0"`
	Curvature      float64 `json:"curvature"`
	N1             float64 `json:"n1"`
	N2             float64 `json:"n2"`
	ApertureRadius float64 `json:"apertureRadius"`
}

type DetectorCfg struct {
	Z0             float64 `json:"z0,omitempty"`
	ApertureRadius float64 `json:"apertureRadius"`

	// When true, Z0 is ignored and the detector is placed at the paraxial
	// focus of the surfaces.
	AtParaxialFocus bool `json:"atParaxialFocus,omitempty"`
}

type BundleCfg struct {
	Rings     int     `json:"rings"`
	MaxRadius float64 `json:"maxRadius"`
	Growth    int     `json:"growth"`
	StartZ    float64 `json:"startZ,omitempty"`
}

type Prescription struct {
	Name          string       `json:"name"`
	Surfaces      []SurfaceCfg `json:"surfaces"`
	Detector      DetectorCfg  `json:"detector"`
	Bundle        BundleCfg    `json:"bundle"`
	WavelengthsNm []float64    `json:"wavelengthsNm,omitempty"`
}

// Load reads and validates the prescription at path.
func Load(path string) (*Prescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading prescription: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("while loading %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a prescription.  Unknown fields are rejected.
func Parse(data []byte) (*Prescription, error) {
	p := &Prescription{}
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, fmt.Errorf("while decoding prescription: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prescription) Validate() error {
	if len(p.Surfaces) == 0 {
		return fmt.Errorf("%w: no surfaces", ErrInvalid)
	}
	for i, s := range p.Surfaces {
		if s.ApertureRadius <= 0 {
			return fmt.Errorf("%w: surface %d has aperture radius %v", ErrInvalid, i, s.ApertureRadius)
		}
		if s.N1 <= 0 || s.N2 <= 0 {
			return fmt.Errorf("%w: surface %d has refractive indices %v, %v", ErrInvalid, i, s.N1, s.N2)
		}
	}
	if p.Detector.ApertureRadius <= 0 {
		return fmt.Errorf("%w: detector has aperture radius %v", ErrInvalid, p.Detector.ApertureRadius)
	}
	if p.Bundle.Rings < 0 || p.Bundle.Growth < 0 {
		return fmt.Errorf("%w: bundle needs non-negative rings and growth, got %d and %d", ErrInvalid, p.Bundle.Rings, p.Bundle.Growth)
	}
	if p.Bundle.MaxRadius < 0 {
		return fmt.Errorf("%w: bundle has negative radius %v", ErrInvalid, p.Bundle.MaxRadius)
	}
	for _, w := range p.WavelengthsNm {
		if w <= 0 {
			return fmt.Errorf("%w: wavelength %vnm", ErrInvalid, w)
		}
	}
	return nil
}

// System is a prescription turned into surfaces ready for tracing.
type System struct {
	Name     string
	Lenses   []surface.Surface
	Detector *surface.OutputPlane
	Bundle   BundleCfg

	// Focus is the paraxial focus of Lenses.  It is only meaningful when
	// FocusFound is set.
	Focus      float64
	FocusFound bool

	// Front is the z of the first refracting surface.
	Front float64

	WavelengthsNm []float64
}

// Build constructs the surfaces described by p.  The paraxial focus is always
// attempted; failing to find it is only an error when the detector is meant to
// sit there.
func (p *Prescription) Build() (*System, error) {
	sys := &System{
		Name:          p.Name,
		Bundle:        p.Bundle,
		Front:         p.Surfaces[0].Z0,
		WavelengthsNm: append([]float64(nil), p.WavelengthsNm...),
	}
	for _, s := range p.Surfaces {
		sys.Lenses = append(sys.Lenses, surface.NewSphericalRefraction(s.Z0, s.Curvature, s.N1, s.N2, s.ApertureRadius))
	}

	f, err := focal.ParaxialFocus(sys.Lenses...)
	switch {
	case err == nil:
		sys.Focus = f
		sys.FocusFound = true
	case p.Detector.AtParaxialFocus:
		return nil, fmt.Errorf("while placing detector at paraxial focus: %w", err)
	}

	z := p.Detector.Z0
	if p.Detector.AtParaxialFocus {
		z = sys.Focus
	}
	sys.Detector = surface.NewOutputPlane(z, p.Detector.ApertureRadius)

	return sys, nil
}

// Surfaces is the full propagation sequence: every lens, then the detector.
func (s *System) Surfaces() []surface.Surface {
	out := make([]surface.Surface, 0, len(s.Lenses)+1)
	out = append(out, s.Lenses...)
	return append(out, s.Detector)
}

// NewBundle builds the system's configured bundle, collimated along +z, with
// the given maximum radius.
func (s *System) NewBundle(maxRadius float64) []*ray.Ray {
	return bundle.New(s.Bundle.Rings, maxRadius, s.Bundle.Growth, s.Bundle.StartZ, vec3.T{0, 0, 1})
}
