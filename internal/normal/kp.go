// Package normal implements the non-Hertzian normal contact model of
// Kik and Piotrowski and its modified variant for elongated patches.
package normal

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/grid"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultVirtualPenetration = 0.55
	DefaultSemiAxesRatioLimit = 5.0
	DefaultTolerance          = 1e-9
	DefaultMaxIterations      = 50
	DefaultDiscretization     = 50
)

// Load selects the loading mode. Exactly one field must be positive.
type Load struct {
	NormalForce float64
	Penetration float64
}

func (l Load) validate() error {
	force := l.NormalForce > 0
	pen := l.Penetration > 0
	if force == pen || l.NormalForce < 0 || l.Penetration < 0 {
		return fmt.Errorf("%w: force=%g penetration=%g", contact.ErrInvalidLoad, l.NormalForce, l.Penetration)
	}
	return nil
}

// Params describes the contact geometry, materials and iteration limits.
type Params struct {
	WheelRadius    float64
	RailRadius     float64
	Wheel          contact.Material
	Rail           contact.Material
	YawAngle       float64
	Discretization int

	// VirtualPenetration is the KP ratio between virtual and actual penetration.
	VirtualPenetration float64
	// SemiAxesRatioLimit is the ratio above which the modified model
	// treats the patch as non-elliptical.
	SemiAxesRatioLimit float64

	Tolerance     float64
	MaxIterations int
}

// DefaultParams returns steel wheel and rail with tread radii.
func DefaultParams() Params {
	return Params{
		WheelRadius:        0.46,
		RailRadius:         0.3,
		Wheel:              contact.Steel,
		Rail:               contact.Steel,
		Discretization:     DefaultDiscretization,
		VirtualPenetration: DefaultVirtualPenetration,
		SemiAxesRatioLimit: DefaultSemiAxesRatioLimit,
		Tolerance:          DefaultTolerance,
		MaxIterations:      DefaultMaxIterations,
	}
}

// Validate checks radii, materials, discretization and iteration settings.
func (p Params) Validate() error {
	if !(p.WheelRadius > 0) || !(p.RailRadius > 0) {
		return fmt.Errorf("%w: wheel radius %g, rail radius %g", contact.ErrInvalidGeometry, p.WheelRadius, p.RailRadius)
	}
	if err := p.Wheel.Validate(); err != nil {
		return fmt.Errorf("wheel: %w", err)
	}
	if err := p.Rail.Validate(); err != nil {
		return fmt.Errorf("rail: %w", err)
	}
	if p.Discretization < 1 {
		return fmt.Errorf("%w: discretization %d", contact.ErrInvalidResolution, p.Discretization)
	}
	if !(p.VirtualPenetration > 0) || p.VirtualPenetration > 1 {
		return fmt.Errorf("%w: virtual penetration ratio %g", contact.ErrInvalidParameter, p.VirtualPenetration)
	}
	if !(p.Tolerance > 0) || p.MaxIterations < 1 {
		return fmt.Errorf("%w: tolerance %g, max iterations %d", contact.ErrInvalidParameter, p.Tolerance, p.MaxIterations)
	}
	return nil
}

// Solver produces a contact patch for a given load.
type Solver interface {
	Name() string
	Solve(load Load) (*contact.Patch, error)
}

// KikPiotrowski is the KP normal contact model. With Modified set, the
// semi-axes and pressure exponent are corrected for patches whose
// semi-axes ratio exceeds SemiAxesRatioLimit.
type KikPiotrowski struct {
	params   Params
	modified bool
}

func NewKikPiotrowski(p Params) *KikPiotrowski {
	return &KikPiotrowski{params: p}
}

func NewModifiedKikPiotrowski(p Params) *KikPiotrowski {
	if p.SemiAxesRatioLimit <= 0 {
		p.SemiAxesRatioLimit = DefaultSemiAxesRatioLimit
	}
	return &KikPiotrowski{params: p, modified: true}
}

func (k *KikPiotrowski) Name() string {
	if k.modified {
		return "mkp"
	}
	return "kp"
}

func (k *KikPiotrowski) Params() Params { return k.params }

// Solve returns the patch for the given load. With a penetration the patch
// follows directly; with a normal force the penetration is iterated until
// the integrated pressure matches the force.
func (k *KikPiotrowski) Solve(load Load) (*contact.Patch, error) {
	if err := k.params.Validate(); err != nil {
		return nil, &contact.SolveError{Stage: k.Name(), Wrapped: err}
	}
	if err := load.validate(); err != nil {
		return nil, &contact.SolveError{Stage: k.Name(), Wrapped: err}
	}

	if load.Penetration > 0 {
		patch, err := k.patchFor(load.Penetration)
		if err != nil {
			return nil, &contact.SolveError{Stage: k.Name(), Wrapped: err}
		}
		return patch, nil
	}

	patch, err := k.equilibrium(load.NormalForce)
	if err != nil {
		return nil, &contact.SolveError{Stage: k.Name(), Wrapped: err}
	}
	return patch, nil
}

// Penetration returns the approach that carries the given normal force.
func (k *KikPiotrowski) Penetration(force float64) (float64, error) {
	patch, err := k.Solve(Load{NormalForce: force})
	if err != nil {
		return 0, err
	}
	return patch.Penetration, nil
}

// NormalForce returns the force carried at the given penetration.
func (k *KikPiotrowski) NormalForce(penetration float64) (float64, error) {
	patch, err := k.Solve(Load{Penetration: penetration})
	if err != nil {
		return 0, err
	}
	return patch.NormalForce, nil
}

func (k *KikPiotrowski) equilibrium(target float64) (*contact.Patch, error) {
	p := k.params
	curv := CurvaturesFor(p.WheelRadius, p.RailRadius, p.YawAngle)
	estar := contact.EquivalentModulus(p.Wheel, p.Rail)

	// closed-form KP estimate: F = (2/3)·π²·E*·δ·b with b = √(εδ/B)
	delta := math.Pow(3*target*math.Sqrt(curv.Lateral)/
		(2*math.Pi*math.Pi*estar*math.Sqrt(p.VirtualPenetration)), 2.0/3.0)

	residual := math.Inf(1)
	for iter := 1; iter <= p.MaxIterations; iter++ {
		patch, err := k.patchFor(delta)
		if err != nil {
			return nil, err
		}

		residual = math.Abs(patch.NormalForce-target) / target
		log.WithFields(log.Fields{
			"model":       k.Name(),
			"iteration":   iter,
			"penetration": delta,
			"force":       patch.NormalForce,
			"residual":    residual,
		}).Debug("normal equilibrium step")

		if residual <= p.Tolerance {
			return scaleToForce(patch, target), nil
		}

		next := delta * math.Pow(target/patch.NormalForce, 2.0/3.0)
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
			return nil, &contact.ConvergenceError{Iterations: iter, Target: target, Residual: residual}
		}
		delta = next
	}

	return nil, &contact.ConvergenceError{Iterations: p.MaxIterations, Target: target, Residual: residual}
}

// patchFor evaluates the KP forward map at penetration delta.
func (k *KikPiotrowski) patchFor(delta float64) (*contact.Patch, error) {
	p := k.params
	curv := CurvaturesFor(p.WheelRadius, p.RailRadius, p.YawAngle)
	if !(curv.Longitudinal > 0) || !(curv.Lateral > 0) {
		return nil, fmt.Errorf("%w: curvatures %+v", contact.ErrInvalidGeometry, curv)
	}
	estar := contact.EquivalentModulus(p.Wheel, p.Rail)

	virtual := p.VirtualPenetration * delta
	a := math.Sqrt(virtual / curv.Longitudinal)
	b := math.Sqrt(virtual / curv.Lateral)
	ratio := math.Max(a/b, b/a)
	exponent := 0.5
	nonElliptical := false

	if k.modified && ratio > p.SemiAxesRatioLimit {
		nonElliptical = true
		correction := 1.0 - 0.25*(1.0-p.SemiAxesRatioLimit/ratio)
		if a > b {
			a *= math.Sqrt(correction)
		} else {
			b *= math.Sqrt(correction)
		}
		exponent = 0.5 + 0.1*(ratio-p.SemiAxesRatioLimit)
	}

	g, err := grid.New(a, b, p.Discretization)
	if err != nil {
		return nil, err
	}

	patch := &contact.Patch{
		A:             a,
		B:             b,
		Area:          math.Pi * a * b,
		Penetration:   delta,
		MaxPressure:   math.Pi * estar * delta / a,
		Exponent:      exponent,
		SemiAxesRatio: ratio,
		NonElliptical: nonElliptical,
		Resolution:    p.Discretization,
	}
	patch.Pressure, patch.NormalForce = sample(patch, g)
	patch.MeanPressure = patch.NormalForce / patch.Area

	return patch, nil
}

// sample evaluates the patch pressure on g and integrates it.
func sample(patch *contact.Patch, g *grid.Grid) (*mat.Dense, float64) {
	pressure := mat.NewDense(g.N, g.N, nil)
	total := 0.0
	for j := 0; j < g.N; j++ {
		for i := 0; i < g.N; i++ {
			if !g.Mask[j][i] {
				continue
			}
			v := patch.PressureAt(g.X[i], g.Y[j])
			pressure.Set(j, i, v)
			total += v
		}
	}
	return pressure, total * g.CellArea()
}

// scaleToForce closes the remaining equilibrium residual by scaling the pressure.
func scaleToForce(patch *contact.Patch, force float64) *contact.Patch {
	s := force / patch.NormalForce
	out := *patch
	out.MaxPressure *= s
	out.NormalForce = force
	out.MeanPressure = force / out.Area
	scaled := mat.NewDense(patch.Resolution, patch.Resolution, nil)
	scaled.Scale(s, patch.Pressure)
	out.Pressure = scaled
	return &out
}

// EllipticPatch builds a semi-ellipsoidal patch with half-axes a, b that
// carries exactly force on an n×n grid. It is meant for driving the
// tangential solvers with prescribed geometry.
func EllipticPatch(a, b, force float64, n int) (*contact.Patch, error) {
	g, err := grid.New(a, b, n)
	if err != nil {
		return nil, err
	}
	if !(force > 0) {
		return nil, fmt.Errorf("%w: force=%g", contact.ErrInvalidLoad, force)
	}

	patch := &contact.Patch{
		A:             a,
		B:             b,
		Area:          math.Pi * a * b,
		MaxPressure:   1.5 * force / (math.Pi * a * b),
		Exponent:      0.5,
		SemiAxesRatio: math.Max(a/b, b/a),
		Resolution:    n,
	}
	patch.Pressure, patch.NormalForce = sample(patch, g)
	if patch.NormalForce == 0 {
		return nil, fmt.Errorf("%w: grid %d too coarse for a=%g b=%g", contact.ErrDegenerateGeometry, n, a, b)
	}
	return scaleToForce(patch, force), nil
}
