package tangential

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/grid"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultFriction       = 0.3
	DefaultDiscretization = 50

	// forceFloor is the resultant magnitude below which a force is treated
	// as zero when forming correction ratios.
	forceFloor = 1e-10
)

// Params holds the material and friction inputs of the tangential solvers.
type Params struct {
	PoissonRatio float64
	ShearModulus float64
	Friction     float64
	// Discretization is the number of points per direction. Zero means
	// the resolution of the incoming patch.
	Discretization int
}

// DefaultParams returns steel on steel with the default friction and grid.
func DefaultParams() Params {
	return Params{
		PoissonRatio:   contact.Steel.PoissonRatio,
		ShearModulus:   contact.Steel.ShearModulus(),
		Friction:       DefaultFriction,
		Discretization: DefaultDiscretization,
	}
}

// Validate checks the shear modulus, Poisson ratio, friction and grid size.
func (p Params) Validate() error {
	if !(p.ShearModulus > 0) {
		return fmt.Errorf("%w: shear modulus %g", contact.ErrInvalidGeometry, p.ShearModulus)
	}
	if p.PoissonRatio < 0 || p.PoissonRatio >= 0.5 {
		return fmt.Errorf("%w: poisson ratio %g", contact.ErrInvalidGeometry, p.PoissonRatio)
	}
	if p.Friction < 0 || math.IsNaN(p.Friction) {
		return fmt.Errorf("%w: friction coefficient %g", contact.ErrInvalidParameter, p.Friction)
	}
	if p.Discretization < 0 {
		return fmt.Errorf("%w: discretization %d", contact.ErrInvalidResolution, p.Discretization)
	}
	return nil
}

// Solver computes the tangential traction over a contact patch.
type Solver interface {
	Name() string
	Solve(patch *contact.Patch, c contact.Creepage) (*Solution, error)
}

// Solution is the tangential response of one patch. All fields are
// co-indexed with Grid (row lateral, column rolling) and are zero outside
// the patch.
type Solution struct {
	contact.ForceResultant

	Grid     *grid.Grid
	Friction float64

	Pressure   *mat.Dense
	ShearX     *mat.Dense
	ShearY     *mat.Dense
	SlipX      *mat.Dense
	SlipY      *mat.Dense
	RigidSlipX *mat.Dense
	RigidSlipY *mat.Dense
	Adhesion   [][]bool

	// Strip is set by strip-theory solvers only.
	Strip *StripReport
}

// TractionBound returns μ·p at grid point (j, i).
func (s *Solution) TractionBound(j, i int) float64 {
	return s.Friction * s.Pressure.At(j, i)
}

// FastSim is Kalker's simplified-theory marching algorithm.
type FastSim struct {
	params Params
}

// NewFastSim returns a FastSim solver for p.
func NewFastSim(p Params) *FastSim {
	return &FastSim{params: p}
}

func (f *FastSim) Name() string { return "fastsim" }

func (f *FastSim) Params() Params { return f.params }

// Solve marches every grid row from the leading edge with the whole-patch
// Kalker flexibility.
func (f *FastSim) Solve(patch *contact.Patch, c contact.Creepage) (*Solution, error) {
	sol, err := f.prepare(patch, c)
	if err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}

	flex, err := KalkerFlexibility(patch.A, patch.B, f.params.ShearModulus)
	if err != nil {
		return nil, &contact.SolveError{Stage: f.Name(), Wrapped: err}
	}

	g := sol.Grid
	rows := make([]int, g.N)
	for j := range rows {
		rows[j] = j
	}
	march(sol, rows, flex, c, func(j int) float64 { return g.Y[j] })
	sol.ForceResultant = integrate(sol)

	return sol, nil
}

// prepare validates inputs, lays out the grid and samples the pressure
// and rigid slip fields.
func (f *FastSim) prepare(patch *contact.Patch, c contact.Creepage) (*Solution, error) {
	if err := patch.CheckDimensions(); err != nil {
		return nil, err
	}
	if err := f.params.Validate(); err != nil {
		return nil, err
	}

	n := f.params.Discretization
	if n == 0 {
		n = patch.Resolution
	}
	g, err := grid.New(patch.A, patch.B, n)
	if err != nil {
		return nil, err
	}
	if g.Inside == 0 {
		return nil, fmt.Errorf("%w: no grid points inside patch", contact.ErrDegenerateGeometry)
	}

	sol := &Solution{
		Grid:       g,
		Friction:   f.params.Friction,
		Pressure:   mat.NewDense(n, n, nil),
		ShearX:     mat.NewDense(n, n, nil),
		ShearY:     mat.NewDense(n, n, nil),
		SlipX:      mat.NewDense(n, n, nil),
		SlipY:      mat.NewDense(n, n, nil),
		RigidSlipX: mat.NewDense(n, n, nil),
		RigidSlipY: mat.NewDense(n, n, nil),
		Adhesion:   make([][]bool, n),
	}

	reuse := patch.Pressure != nil && patch.Resolution == n
	for j := 0; j < n; j++ {
		sol.Adhesion[j] = make([]bool, n)
		y := g.Y[j]
		for i := 0; i < n; i++ {
			if !g.Mask[j][i] {
				continue
			}
			x := g.X[i]
			if reuse {
				sol.Pressure.Set(j, i, patch.Pressure.At(j, i))
			} else {
				sol.Pressure.Set(j, i, patch.PressureAt(x, y))
			}
			sol.RigidSlipX.Set(j, i, c.Longitudinal-c.Spin*y)
			sol.RigidSlipY.Set(j, i, c.Lateral+c.Spin*x)
		}
	}

	return sol, nil
}

// march fills shear, slip and adhesion for the given rows. Rows are
// independent; within a row the traction is carried from the leading edge
// (x = +a) towards the trailing edge. spinY gives the lateral coordinate
// used in the longitudinal spin term for row j.
func march(sol *Solution, rows []int, flex Flexibility, c contact.Creepage, spinY func(j int) float64) {
	g := sol.Grid
	dx := g.Dx

	for _, j := range rows {
		ys := spinY(j)
		var tx, ty float64

		for i := g.N - 1; i >= 0; i-- {
			if !g.Mask[j][i] {
				continue
			}
			x := g.X[i]

			trialX := tx + dx*(c.Longitudinal/flex.L1-c.Spin*ys/flex.L3)
			trialY := ty + dx*(c.Lateral/flex.L2+c.Spin*x/flex.L3)
			mag := math.Hypot(trialX, trialY)
			bound := sol.TractionBound(j, i)

			if mag > 0 && mag >= bound {
				scale := bound / mag
				tx, ty = trialX*scale, trialY*scale
				sol.SlipX.Set(j, i, flex.L1*(trialX-tx)/dx)
				sol.SlipY.Set(j, i, flex.L2*(trialY-ty)/dx)
			} else {
				tx, ty = trialX, trialY
				sol.Adhesion[j][i] = true
			}

			sol.ShearX.Set(j, i, tx)
			sol.ShearY.Set(j, i, ty)
		}
	}
}

// integrate sums the shear field into forces, spin moment and adhesion fraction.
func integrate(sol *Solution) contact.ForceResultant {
	g := sol.Grid
	dA := g.CellArea()

	var res contact.ForceResultant
	adhesion := 0
	for j := 0; j < g.N; j++ {
		y := g.Y[j]
		for i := 0; i < g.N; i++ {
			if !g.Mask[j][i] {
				continue
			}
			tx, ty := sol.ShearX.At(j, i), sol.ShearY.At(j, i)
			res.Fx += tx * dA
			res.Fy += ty * dA
			res.Mz += (g.X[i]*ty - y*tx) * dA
			if sol.Adhesion[j][i] {
				adhesion++
			}
		}
	}
	res.AdhesionArea = float64(adhesion) / float64(g.Inside)
	return res
}
