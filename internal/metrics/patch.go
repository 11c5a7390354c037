package metrics

import "math"

// Adhesion is the smallest adhesion fraction observed.
type Adhesion struct {
	name    string
	min     float64
	samples int
}

func NewAdhesion() *Adhesion {
	return &Adhesion{name: "min_adhesion", min: 1}
}

func (a *Adhesion) Name() string { return a.name }

func (a *Adhesion) Observe(o Observation) {
	if o.Solution == nil {
		return
	}
	a.min = math.Min(a.min, o.Solution.AdhesionArea)
	a.samples++
}

func (a *Adhesion) Value() float64 {
	if a.samples == 0 {
		return 1.0
	}
	return a.min
}

func (a *Adhesion) Reset() {
	a.min = 1
	a.samples = 0
}

type PeakPressure struct {
	name string
	peak float64
}

func NewPeakPressure() *PeakPressure {
	return &PeakPressure{name: "peak_pressure"}
}

func (p *PeakPressure) Name() string { return p.name }

func (p *PeakPressure) Observe(o Observation) {
	if o.Patch == nil {
		return
	}
	p.peak = math.Max(p.peak, o.Patch.MaxPressure)
}

func (p *PeakPressure) Value() float64 { return p.peak }

func (p *PeakPressure) Reset() { p.peak = 0 }
