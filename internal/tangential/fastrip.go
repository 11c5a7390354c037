package tangential

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/grid"
)

const DefaultStrips = 20

// Blend controls how strip forces are pulled towards the linear estimate
// at small creepage.
type Blend struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	ClipMin   float64 `yaml:"clip_min" json:"clip_min"`
	ClipMax   float64 `yaml:"clip_max" json:"clip_max"`
}

func DefaultBlend() Blend {
	return Blend{Threshold: 1e-4, ClipMin: 0.8, ClipMax: 1.2}
}

func (b Blend) Validate() error {
	if b.Threshold < 0 || !(b.ClipMin > 0) || b.ClipMax < b.ClipMin {
		return fmt.Errorf("%w: blend threshold %g clip [%g, %g]",
			contact.ErrInvalidParameter, b.Threshold, b.ClipMin, b.ClipMax)
	}
	return nil
}

// Ratio returns the clipped correction factor that maps force onto linear.
func (b Blend) Ratio(linear, force float64) float64 {
	if math.Abs(force) <= forceFloor {
		return 1
	}
	return math.Min(math.Max(linear/force, b.ClipMin), b.ClipMax)
}

// StripReport describes what the strip solver did on top of the march.
type StripReport struct {
	Strips      []grid.Strip
	Marching    contact.ForceResultant
	LinearFx    float64
	LinearFy    float64
	CorrectionX float64
	CorrectionY float64
	Blended     bool
}

// FaStrip is FastSim with per-strip flexibilities derived from strip
// theory, plus a clipped blend towards linear theory at small creepage.
type FaStrip struct {
	base   *FastSim
	strips int
	blend  Blend
}

func NewFaStrip(base *FastSim, strips int, blend Blend) *FaStrip {
	return &FaStrip{base: base, strips: strips, blend: blend}
}

func (f *FaStrip) Name() string { return "fastrip" }

func (f *FaStrip) Blend() Blend { return f.blend }

func (f *FaStrip) Strips() int { return f.strips }

func (f *FaStrip) Solve(patch *contact.Patch, c contact.Creepage) (*Solution, error) {
	if err := f.blend.Validate(); err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}

	sol, err := f.base.prepare(patch, c)
	if err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}

	strips, err := sol.Grid.Strips(f.strips)
	if err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}

	p := f.base.params
	for _, s := range strips {
		if len(s.Rows) == 0 {
			continue
		}
		flex, err := StripFlexibility(s.HalfLength, s.Width, p.PoissonRatio, p.ShearModulus)
		if err != nil {
			return nil, &contact.SolveError{Stage: f.Name(), Wrapped: fmt.Errorf("strip %d: %w", s.Index, err)}
		}
		yc := s.YCenter
		march(sol, s.Rows, flex, c, func(int) float64 { return yc })
	}

	marching := integrate(sol)

	whole, err := KalkerFlexibility(patch.A, patch.B, p.ShearModulus)
	if err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}
	linX, linY := LinearForces(patch.A, patch.B, whole, c)

	report := &StripReport{
		Strips:      strips,
		Marching:    marching,
		LinearFx:    linX,
		LinearFy:    linY,
		CorrectionX: 1,
		CorrectionY: 1,
	}

	result := marching
	if c.Below(f.blend.Threshold) {
		report.Blended = true
		report.CorrectionX = f.blend.Ratio(linX, marching.Fx)
		report.CorrectionY = f.blend.Ratio(linY, marching.Fy)
		result.Fx *= report.CorrectionX
		result.Fy *= report.CorrectionY
	}

	sol.ForceResultant = result
	sol.Strip = report
	return sol, nil
}
