package normal

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/grid"
)

func integrate(t *testing.T, p *contact.Patch) float64 {
	t.Helper()
	g, err := grid.New(p.A, p.B, p.Resolution)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	total := 0.0
	for j := 0; j < g.N; j++ {
		for i := 0; i < g.N; i++ {
			total += p.Pressure.At(j, i)
		}
	}
	return total * g.CellArea()
}

func TestKP_ForceEquilibrium(t *testing.T) {
	forces := []float64{10e3, 50e3, 100e3, 250e3}

	for _, model := range []*KikPiotrowski{NewKikPiotrowski(DefaultParams()), NewModifiedKikPiotrowski(DefaultParams())} {
		for _, f := range forces {
			patch, err := model.Solve(Load{NormalForce: f})
			if err != nil {
				t.Fatalf("%s: solve %g N failed: %v", model.Name(), f, err)
			}

			got := integrate(t, patch)
			if math.Abs(got-f)/f > 0.01 {
				t.Errorf("%s: integrated pressure %g N, want %g N", model.Name(), got, f)
			}
			if patch.NormalForce != f {
				t.Errorf("%s: patch force %g, want %g", model.Name(), patch.NormalForce, f)
			}
		}
	}
}

func TestKP_PenetrationRoundTrip(t *testing.T) {
	kp := NewKikPiotrowski(DefaultParams())

	delta, err := kp.Penetration(80e3)
	if err != nil {
		t.Fatalf("Penetration failed: %v", err)
	}
	if delta <= 0 {
		t.Fatalf("penetration = %g, want positive", delta)
	}

	force, err := kp.NormalForce(delta)
	if err != nil {
		t.Fatalf("NormalForce failed: %v", err)
	}
	if math.Abs(force-80e3)/80e3 > 1e-6 {
		t.Errorf("round trip force = %g, want 80000", force)
	}
}

func TestKP_PenetrationModeIntegralMatchesForce(t *testing.T) {
	kp := NewKikPiotrowski(DefaultParams())
	patch, err := kp.Solve(Load{Penetration: 5e-5})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	got := integrate(t, patch)
	if math.Abs(got-patch.NormalForce)/patch.NormalForce > 1e-9 {
		t.Errorf("integral %g differs from reported force %g", got, patch.NormalForce)
	}
}

func TestKP_NonHertzianShape(t *testing.T) {
	p := DefaultParams()
	kp := NewKikPiotrowski(p)
	patch, err := kp.Solve(Load{Penetration: 1e-4})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	curv := CurvaturesFor(p.WheelRadius, p.RailRadius, 0)
	wantA := math.Sqrt(DefaultVirtualPenetration * 1e-4 / curv.Longitudinal)
	wantB := math.Sqrt(DefaultVirtualPenetration * 1e-4 / curv.Lateral)
	if math.Abs(patch.A-wantA) > 1e-12 || math.Abs(patch.B-wantB) > 1e-12 {
		t.Errorf("half-axes (%g, %g), want (%g, %g)", patch.A, patch.B, wantA, wantB)
	}
	if patch.NonElliptical {
		t.Error("KP patch should not be flagged non-elliptical")
	}
}

func TestMKP_ElongatedPatchCorrection(t *testing.T) {
	p := DefaultParams()
	p.RailRadius = 50.0 // nearly flat rail head: long lateral axis

	kp, err := NewKikPiotrowski(p).Solve(Load{Penetration: 1e-4})
	if err != nil {
		t.Fatalf("kp failed: %v", err)
	}
	mkp, err := NewModifiedKikPiotrowski(p).Solve(Load{Penetration: 1e-4})
	if err != nil {
		t.Fatalf("mkp failed: %v", err)
	}

	if kp.SemiAxesRatio <= DefaultSemiAxesRatioLimit {
		t.Fatalf("test geometry ratio %g not above limit", kp.SemiAxesRatio)
	}
	if !mkp.NonElliptical {
		t.Error("expected non-elliptical flag")
	}
	if mkp.B >= kp.B {
		t.Errorf("major axis not reduced: mkp b=%g, kp b=%g", mkp.B, kp.B)
	}
	if mkp.Exponent <= 0.5 {
		t.Errorf("exponent = %g, want > 0.5", mkp.Exponent)
	}
	if mkp.A != kp.A {
		t.Errorf("minor axis changed: %g vs %g", mkp.A, kp.A)
	}
}

func TestKP_ConcretePressureLevel(t *testing.T) {
	kp := NewKikPiotrowski(DefaultParams())
	patch, err := kp.Solve(Load{NormalForce: 40e3})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if patch.A < 2.5e-3 || patch.A > 4e-3 {
		t.Errorf("a = %g m, want a few millimetres", patch.A)
	}
	if patch.MeanPressure < 1e9 || patch.MeanPressure > 2e9 {
		t.Errorf("mean pressure = %g Pa, want ~1.5 GPa", patch.MeanPressure)
	}
}

func TestKP_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		load   Load
		want   error
	}{
		{"zero wheel radius", func(p *Params) { p.WheelRadius = 0 }, Load{NormalForce: 1e4}, contact.ErrInvalidGeometry},
		{"negative rail radius", func(p *Params) { p.RailRadius = -0.3 }, Load{NormalForce: 1e4}, contact.ErrInvalidGeometry},
		{"zero modulus", func(p *Params) { p.Rail.YoungsModulus = 0 }, Load{NormalForce: 1e4}, contact.ErrInvalidGeometry},
		{"no load", func(p *Params) {}, Load{}, contact.ErrInvalidLoad},
		{"both loads", func(p *Params) {}, Load{NormalForce: 1e4, Penetration: 1e-5}, contact.ErrInvalidLoad},
		{"negative force", func(p *Params) {}, Load{NormalForce: -1e4}, contact.ErrInvalidLoad},
		{"zero discretization", func(p *Params) { p.Discretization = 0 }, Load{NormalForce: 1e4}, contact.ErrInvalidResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := NewKikPiotrowski(p).Solve(tt.load)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestKP_ConvergenceError(t *testing.T) {
	p := DefaultParams()
	p.MaxIterations = 1
	p.Tolerance = 1e-300

	_, err := NewKikPiotrowski(p).Solve(Load{NormalForce: 1e5})
	var ce *contact.ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConvergenceError, got %v", err)
	}
	if !errors.Is(err, contact.ErrConvergence) {
		t.Error("error should match ErrConvergence")
	}
	if ce.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", ce.Iterations)
	}
}

func TestCurvaturesFor_Yaw(t *testing.T) {
	c0 := CurvaturesFor(0.46, 0.3, 0)
	c90 := CurvaturesFor(0.46, 0.3, math.Pi/2)

	if math.Abs(c0.Longitudinal-c90.Lateral) > 1e-12 || math.Abs(c0.Lateral-c90.Longitudinal) > 1e-12 {
		t.Errorf("90° yaw should swap curvatures: %+v vs %+v", c0, c90)
	}
	if math.Abs(c0.Sum()-c90.Sum()) > 1e-12 {
		t.Error("yaw rotation should preserve the curvature sum")
	}
}

func TestEllipticPatch(t *testing.T) {
	patch, err := EllipticPatch(3.15e-3, 4e-3, 60e3, 60)
	if err != nil {
		t.Fatalf("EllipticPatch failed: %v", err)
	}
	if got := integrate(t, patch); math.Abs(got-60e3)/60e3 > 1e-9 {
		t.Errorf("integrated force = %g", got)
	}

	if _, err := EllipticPatch(0, 4e-3, 60e3, 60); !errors.Is(err, contact.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func BenchmarkKP_Force(b *testing.B) {
	kp := NewKikPiotrowski(DefaultParams())
	for i := 0; i < b.N; i++ {
		_, _ = kp.Solve(Load{NormalForce: 80e3})
	}
}
