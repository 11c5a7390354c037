// Package wear estimates wheel material loss from the frictional work in
// the contact patch with the USFD T-gamma model.
package wear

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/tangential"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SteelDensity is the default wheel density in kg/m³.
const SteelDensity = 7850.0

// Coefficients of the piecewise wear-rate law. Rates are in μg/(m·mm²),
// T-gamma in N/mm².
type Coefficients struct {
	K1 float64 `yaml:"k1" json:"k1"`
	T1 float64 `yaml:"t1" json:"t1"`
	K2 float64 `yaml:"k2" json:"k2"`
	T2 float64 `yaml:"t2" json:"t2"`
	K3 float64 `yaml:"k3" json:"k3"`
	C3 float64 `yaml:"c3" json:"c3"`
}

// R8TUIC60 are the twin-disc fits for an R8T wheel on UIC60 900A rail.
var R8TUIC60 = Coefficients{K1: 5.3, T1: 10.4, K2: 55.0, T2: 77.2, K3: 61.9, C3: 4778.7}

type pair struct{ wheel, rail string }

var known = map[pair]Coefficients{
	{"R8T", "UIC60 900A"}: R8TUIC60,
}

// Pairs lists the material pairs with measured coefficients.
func Pairs() []string {
	out := make([]string, 0, len(known))
	for p := range known {
		out = append(out, p.wheel+"/"+p.rail)
	}
	sort.Strings(out)
	return out
}

// Regime names the wear regime of a T-gamma value.
type Regime int

const (
	Mild Regime = iota
	Severe
	Catastrophic
)

func (r Regime) String() string {
	switch r {
	case Mild:
		return "mild"
	case Severe:
		return "severe"
	default:
		return "catastrophic"
	}
}

// Model is the USFD wear model for one wheel/rail material pair.
type Model struct {
	Wheel  string
	Rail   string
	coeffs Coefficients
}

// NewModel looks up the coefficients for the material pair. Unknown pairs
// fall back to the R8T/UIC60 900A values.
func NewModel(wheel, rail string) *Model {
	c, ok := known[pair{wheel, rail}]
	if !ok {
		log.WithFields(log.Fields{"wheel": wheel, "rail": rail}).
			Warn("no wear coefficients for material pair, using R8T/UIC60 900A")
		c = R8TUIC60
	}
	return &Model{Wheel: wheel, Rail: rail, coeffs: c}
}

// NewModelWithCoefficients builds a model from explicit coefficients.
func NewModelWithCoefficients(wheel, rail string, c Coefficients) (*Model, error) {
	if !(c.T1 > 0) || c.T2 < c.T1 || c.K1 < 0 || c.K2 < 0 || c.K3 < 0 {
		return nil, fmt.Errorf("%w: wear coefficients %+v", contact.ErrInvalidParameter, c)
	}
	return &Model{Wheel: wheel, Rail: rail, coeffs: c}, nil
}

func (m *Model) Coefficients() Coefficients { return m.coeffs }

func (m *Model) Regime(tgamma float64) Regime {
	switch {
	case tgamma < m.coeffs.T1:
		return Mild
	case tgamma <= m.coeffs.T2:
		return Severe
	default:
		return Catastrophic
	}
}

// Rate returns the wear rate in μg/(m·mm²) for T-gamma in N/mm².
func (m *Model) Rate(tgamma float64) float64 {
	switch m.Regime(tgamma) {
	case Mild:
		return m.coeffs.K1 * tgamma
	case Severe:
		return m.coeffs.K2
	default:
		return m.coeffs.K3*tgamma - m.coeffs.C3
	}
}

// Depth converts T-gamma into a wear depth in mm after slidingDistance
// metres of rolling on a material of the given density in kg/m³.
func (m *Model) Depth(tgamma, slidingDistance, density float64) float64 {
	return m.Rate(tgamma) / (density * 1e-9) * slidingDistance / 1000.0
}

// Volume returns the worn volume in mm³ for a contact area in mm², using
// the mean rate over the supplied T-gamma samples.
func (m *Model) Volume(tgamma []float64, slidingDistance, area, density float64) float64 {
	if len(tgamma) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range tgamma {
		total += m.Rate(t)
	}
	mean := total / float64(len(tgamma))
	return mean / (density * 1e-9) * slidingDistance * area / 1000.0
}

// GlobalTGamma is the frictional work of the resultant, |F·γ|, divided by
// area when area is positive.
func GlobalTGamma(f contact.ForceResultant, c contact.Creepage, area float64) float64 {
	tg := math.Abs(f.Fx*c.Longitudinal + f.Fy*c.Lateral)
	if area > 0 {
		tg /= area
	}
	return tg
}

// Result holds the wear fields of one patch, co-indexed with the
// tangential grid. Depths are in mm and Volume in mm³.
type Result struct {
	TGamma *mat.Dense
	Rate   *mat.Dense
	Depth  *mat.Dense

	MaxTGamma  float64
	MeanTGamma float64
	MaxDepth   float64
	Volume     float64
	// Regimes counts in-patch points per regime.
	Regimes map[Regime]int
}

// Evaluate applies the model pointwise to a tangential solution. The local
// T-gamma is |τ·s| converted to N/mm².
func (m *Model) Evaluate(sol *tangential.Solution, slidingDistance, density float64) (*Result, error) {
	if sol == nil || sol.Grid == nil {
		return nil, fmt.Errorf("%w: empty tangential solution", contact.ErrDegenerateGeometry)
	}
	if slidingDistance < 0 || !(density > 0) {
		return nil, fmt.Errorf("%w: sliding distance %g, density %g",
			contact.ErrInvalidParameter, slidingDistance, density)
	}

	g := sol.Grid
	res := &Result{
		TGamma:  mat.NewDense(g.N, g.N, nil),
		Rate:    mat.NewDense(g.N, g.N, nil),
		Depth:   mat.NewDense(g.N, g.N, nil),
		Regimes: make(map[Regime]int),
	}

	samples := make([]float64, 0, g.Inside)
	for j := 0; j < g.N; j++ {
		for i := 0; i < g.N; i++ {
			if !g.Mask[j][i] {
				continue
			}
			work := sol.ShearX.At(j, i)*sol.SlipX.At(j, i) + sol.ShearY.At(j, i)*sol.SlipY.At(j, i)
			tg := math.Abs(work) * 1e-6

			res.TGamma.Set(j, i, tg)
			res.Rate.Set(j, i, m.Rate(tg))
			d := m.Depth(tg, slidingDistance, density)
			res.Depth.Set(j, i, d)

			res.MaxTGamma = math.Max(res.MaxTGamma, tg)
			res.MaxDepth = math.Max(res.MaxDepth, d)
			res.Regimes[m.Regime(tg)]++
			samples = append(samples, tg)
		}
	}

	if len(samples) > 0 {
		res.MeanTGamma = floats.Sum(samples) / float64(len(samples))
	}

	areaMM2 := float64(g.Inside) * g.CellArea() * 1e6
	res.Volume = m.Volume(samples, slidingDistance, areaMM2, density)

	return res, nil
}
