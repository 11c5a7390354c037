package wear

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/normal"
	"github.com/san-kum/wheelrail/internal/tangential"
)

func TestModel_Rate(t *testing.T) {
	m := NewModel("R8T", "UIC60 900A")

	tests := []struct {
		name   string
		tgamma float64
		want   float64
		regime Regime
	}{
		{"zero", 0, 0, Mild},
		{"mild", 5, 5.3 * 5, Mild},
		{"severe lower edge", 10.4, 55, Severe},
		{"severe", 40, 55, Severe},
		{"severe upper edge", 77.2, 55, Severe},
		{"catastrophic", 100, 61.9*100 - 4778.7, Catastrophic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Rate(tt.tgamma); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Rate(%g) = %g, want %g", tt.tgamma, got, tt.want)
			}
			if got := m.Regime(tt.tgamma); got != tt.regime {
				t.Errorf("Regime(%g) = %v, want %v", tt.tgamma, got, tt.regime)
			}
		})
	}
}

func TestModel_UnknownPairFallsBack(t *testing.T) {
	m := NewModel("ER7", "R260")
	if m.Coefficients() != R8TUIC60 {
		t.Errorf("expected fallback coefficients, got %+v", m.Coefficients())
	}
}

func TestModel_Depth(t *testing.T) {
	m := NewModel("R8T", "UIC60 900A")
	got := m.Depth(5, 1000, SteelDensity)
	want := 26.5 / (SteelDensity * 1e-9) * 1000 / 1000
	if math.Abs(got-want) > 1e-9*want {
		t.Errorf("Depth = %g, want %g", got, want)
	}
	if m.Depth(5, 0, SteelDensity) != 0 {
		t.Error("no sliding should give no wear")
	}
}

func TestModel_Volume(t *testing.T) {
	m := NewModel("R8T", "UIC60 900A")
	if m.Volume(nil, 10, 100, SteelDensity) != 0 {
		t.Error("empty samples should give zero volume")
	}
	got := m.Volume([]float64{2, 4}, 10, 100, SteelDensity)
	want := 5.3 * 3 / (SteelDensity * 1e-9) * 10 * 100 / 1000
	if math.Abs(got-want) > 1e-9*want {
		t.Errorf("Volume = %g, want %g", got, want)
	}
}

func TestNewModelWithCoefficients_Invalid(t *testing.T) {
	_, err := NewModelWithCoefficients("a", "b", Coefficients{T1: 10, T2: 5})
	if !errors.Is(err, contact.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestGlobalTGamma(t *testing.T) {
	f := contact.ForceResultant{Fx: 1000, Fy: -500}
	c := contact.Creepage{Longitudinal: 1e-3, Lateral: -2e-3}
	if got := GlobalTGamma(f, c, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("GlobalTGamma = %g, want 2", got)
	}
	if got := GlobalTGamma(f, c, 4); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("GlobalTGamma per area = %g, want 0.5", got)
	}
}

func TestModel_Evaluate(t *testing.T) {
	patch, err := normal.NewKikPiotrowski(normal.DefaultParams()).Solve(normal.Load{NormalForce: 80e3})
	if err != nil {
		t.Fatalf("normal solve: %v", err)
	}
	m := NewModel("R8T", "UIC60 900A")

	stick, err := tangential.NewFastSim(tangential.DefaultParams()).Solve(patch, contact.Creepage{})
	if err != nil {
		t.Fatalf("tangential solve: %v", err)
	}
	none, err := m.Evaluate(stick, 100, SteelDensity)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if none.MaxDepth != 0 || none.Volume != 0 {
		t.Errorf("full adhesion should not wear: depth %g volume %g", none.MaxDepth, none.Volume)
	}

	slipping, err := tangential.NewFastSim(tangential.DefaultParams()).Solve(patch, contact.Creepage{Longitudinal: 5e-3})
	if err != nil {
		t.Fatalf("tangential solve: %v", err)
	}
	res, err := m.Evaluate(slipping, 100, SteelDensity)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.MaxTGamma <= 0 || res.MaxDepth <= 0 || res.Volume <= 0 {
		t.Errorf("expected wear under slip, got %+v", res)
	}
	total := 0
	for _, n := range res.Regimes {
		total += n
	}
	if total != slipping.Grid.Inside {
		t.Errorf("regime counts %d, want %d", total, slipping.Grid.Inside)
	}
}

func TestModel_EvaluateInvalid(t *testing.T) {
	m := NewModel("R8T", "UIC60 900A")
	if _, err := m.Evaluate(nil, 1, SteelDensity); !errors.Is(err, contact.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}
