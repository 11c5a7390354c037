package contact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Material holds the elastic constants of one body.
type Material struct {
	YoungsModulus float64 `yaml:"youngs_modulus" json:"youngs_modulus"`
	PoissonRatio  float64 `yaml:"poisson_ratio" json:"poisson_ratio"`
}

// Steel is the default wheel and rail material.
var Steel = Material{YoungsModulus: 210e9, PoissonRatio: 0.3}

// Validate rejects non-positive moduli and Poisson ratios outside [0, 0.5).
func (m Material) Validate() error {
	if !(m.YoungsModulus > 0) {
		return fmt.Errorf("%w: youngs modulus %g", ErrInvalidGeometry, m.YoungsModulus)
	}
	if m.PoissonRatio < 0 || m.PoissonRatio >= 0.5 {
		return fmt.Errorf("%w: poisson ratio %g", ErrInvalidGeometry, m.PoissonRatio)
	}
	return nil
}

// ShearModulus returns E / (2(1+ν)).
func (m Material) ShearModulus() float64 {
	return m.YoungsModulus / (2 * (1 + m.PoissonRatio))
}

// EquivalentModulus combines two bodies into the contact modulus E*.
func EquivalentModulus(a, b Material) float64 {
	return 1.0 / ((1-a.PoissonRatio*a.PoissonRatio)/a.YoungsModulus +
		(1-b.PoissonRatio*b.PoissonRatio)/b.YoungsModulus)
}

// Creepage is the normalized rigid slip between wheel and rail.
// Longitudinal and Lateral are dimensionless, Spin is in 1/m.
type Creepage struct {
	Longitudinal float64 `yaml:"longitudinal" json:"longitudinal"`
	Lateral      float64 `yaml:"lateral" json:"lateral"`
	Spin         float64 `yaml:"spin" json:"spin"`
}

// IsZero reports whether all three creepages are zero.
func (c Creepage) IsZero() bool {
	return c.Longitudinal == 0 && c.Lateral == 0 && c.Spin == 0
}

// Below reports whether both translational creepages are smaller than threshold.
func (c Creepage) Below(threshold float64) bool {
	return math.Abs(c.Longitudinal) < threshold && math.Abs(c.Lateral) < threshold
}

func (c Creepage) String() string {
	return fmt.Sprintf("ξ=%.3e η=%.3e φ=%.3e/m", c.Longitudinal, c.Lateral, c.Spin)
}

// Patch is the result of a normal contact solve. A is the half-axis along
// the rolling direction, B the lateral one.
//
// Pressure is sampled at the cell centres of a Resolution×Resolution grid
// over [-A, A]×[-B, B] (row index lateral, column index rolling). It must
// not be modified.
type Patch struct {
	A, B          float64
	Area          float64
	NormalForce   float64
	Penetration   float64
	MaxPressure   float64
	MeanPressure  float64
	Exponent      float64
	SemiAxesRatio float64
	NonElliptical bool
	Resolution    int
	Pressure      *mat.Dense
}

// PressureAt evaluates the patch pressure at a patch-local point.
func (p *Patch) PressureAt(x, y float64) float64 {
	if p.A <= 0 || p.B <= 0 {
		return 0
	}
	rho := (x/p.A)*(x/p.A) + (y/p.B)*(y/p.B)
	if rho >= 1 {
		return 0
	}
	return p.MaxPressure * math.Pow(1-rho, p.Exponent)
}

// CheckDimensions guards consumers against zero or negative half-axes.
func (p *Patch) CheckDimensions() error {
	if p == nil {
		return fmt.Errorf("%w: nil patch", ErrDegenerateGeometry)
	}
	if !(p.A > 0) || !(p.B > 0) {
		return fmt.Errorf("%w: a=%g b=%g", ErrDegenerateGeometry, p.A, p.B)
	}
	return nil
}

// ForceResultant is the integrated tangential response of a patch.
type ForceResultant struct {
	Fx           float64 `json:"fx"`
	Fy           float64 `json:"fy"`
	Mz           float64 `json:"mz"`
	AdhesionArea float64 `json:"adhesion_area"`
}

// Magnitude returns |(Fx, Fy)|.
func (f ForceResultant) Magnitude() float64 {
	return math.Hypot(f.Fx, f.Fy)
}
