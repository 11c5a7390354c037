package metrics

import "math"

// Utilization is the peak traction coefficient |F|/(μ·N) seen so far.
type Utilization struct {
	name string
	peak float64
}

func NewUtilization() *Utilization {
	return &Utilization{name: "utilization"}
}

func (u *Utilization) Name() string { return u.name }

func (u *Utilization) Observe(o Observation) {
	if o.Patch == nil || o.Solution == nil || o.Patch.NormalForce <= 0 || o.Solution.Friction <= 0 {
		return
	}
	v := o.Solution.Magnitude() / (o.Solution.Friction * o.Patch.NormalForce)
	u.peak = math.Max(u.peak, v)
}

func (u *Utilization) Value() float64 { return u.peak }

func (u *Utilization) Reset() { u.peak = 0 }

// FrictionalPower is the mean power dissipated in the patch at a given
// rolling speed, V·|Fx·ξ + Fy·η + Mz·φ|, in W.
type FrictionalPower struct {
	name    string
	speed   float64
	sum     float64
	samples int
}

func NewFrictionalPower(speed float64) *FrictionalPower {
	return &FrictionalPower{name: "frictional_power", speed: speed}
}

func (f *FrictionalPower) Name() string { return f.name }

func (f *FrictionalPower) Observe(o Observation) {
	if o.Solution == nil {
		return
	}
	c := o.Creepage
	s := o.Solution
	f.sum += f.speed * math.Abs(s.Fx*c.Longitudinal+s.Fy*c.Lateral+s.Mz*c.Spin)
	f.samples++
}

func (f *FrictionalPower) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.sum / float64(f.samples)
}

func (f *FrictionalPower) Reset() {
	f.sum = 0
	f.samples = 0
}
