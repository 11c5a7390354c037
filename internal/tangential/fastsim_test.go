package tangential

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/normal"
)

// referencePatch is a 3.15 mm × 4 mm semi-ellipsoidal patch with a peak
// pressure of about 1500 MPa.
func referencePatch(t testing.TB) *contact.Patch {
	t.Helper()
	a, b := 3.15e-3, 4e-3
	force := 1500e6 * math.Pi * a * b / 1.5
	patch, err := normal.EllipticPatch(a, b, force, DefaultDiscretization)
	if err != nil {
		t.Fatalf("EllipticPatch: %v", err)
	}
	return patch
}

func TestKalkerFlexibility(t *testing.T) {
	g := contact.Steel.ShearModulus()
	round, err := KalkerFlexibility(1e-3, 1e-3, g)
	if err != nil {
		t.Fatalf("KalkerFlexibility failed: %v", err)
	}
	if round.L1 <= 0 || round.L2 <= 0 || round.L3 <= 0 {
		t.Errorf("non-positive flexibility %+v", round)
	}

	tests := []struct {
		name string
		a, b float64
		g    float64
		want error
	}{
		{"zero a", 0, 1e-3, g, contact.ErrDegenerateGeometry},
		{"zero b", 1e-3, 0, g, contact.ErrDegenerateGeometry},
		{"zero G", 1e-3, 1e-3, 0, contact.ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := KalkerFlexibility(tt.a, tt.b, tt.g); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestKalkerCoefficients_Symmetry(t *testing.T) {
	c11a, c22a, c23a := KalkerCoefficients(2, 1)
	c11b, c22b, c23b := KalkerCoefficients(1, 2)
	if c11a <= c11b || c22a >= c22b || c23a >= c23b {
		t.Errorf("unexpected ordering: (%g %g %g) vs (%g %g %g)", c11a, c22a, c23a, c11b, c22b, c23b)
	}
}

func TestFastSim_ZeroCreepage(t *testing.T) {
	sol, err := NewFastSim(DefaultParams()).Solve(referencePatch(t), contact.Creepage{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Fx != 0 || sol.Fy != 0 || sol.Mz != 0 {
		t.Errorf("expected zero resultant, got %+v", sol.ForceResultant)
	}
	if sol.AdhesionArea != 1 {
		t.Errorf("adhesion = %g, want 1", sol.AdhesionArea)
	}
}

func TestFastSim_ReferenceScenario(t *testing.T) {
	sol, err := NewFastSim(DefaultParams()).Solve(referencePatch(t), contact.Creepage{Longitudinal: 0.01})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Fx <= 0 {
		t.Errorf("Fx = %g, want positive", sol.Fx)
	}
	if sol.AdhesionArea <= 0 || sol.AdhesionArea >= 1 {
		t.Errorf("adhesion = %g, want in (0, 1)", sol.AdhesionArea)
	}
	if math.Abs(sol.Fy) > 1e-6*sol.Fx {
		t.Errorf("Fy = %g for pure longitudinal creepage", sol.Fy)
	}
}

func TestFastSim_CoulombBound(t *testing.T) {
	creepages := []contact.Creepage{
		{Longitudinal: 1e-3},
		{Lateral: -4e-3},
		{Longitudinal: 2e-3, Lateral: 1e-3, Spin: 0.5},
		{Spin: -2},
	}

	for _, c := range creepages {
		t.Run(c.String(), func(t *testing.T) {
			sol, err := NewFastSim(DefaultParams()).Solve(referencePatch(t), c)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			g := sol.Grid
			for j := 0; j < g.N; j++ {
				for i := 0; i < g.N; i++ {
					tau := math.Hypot(sol.ShearX.At(j, i), sol.ShearY.At(j, i))
					bound := sol.TractionBound(j, i)
					if tau > bound*(1+1e-12) {
						t.Fatalf("(%d,%d): |τ|=%g exceeds μp=%g", j, i, tau, bound)
					}
					if g.Mask[j][i] && !sol.Adhesion[j][i] && math.Abs(tau-bound) > 1e-9*bound {
						t.Fatalf("(%d,%d): slip point not on the bound", j, i)
					}
				}
			}
		})
	}
}

func TestFastSim_SignSymmetry(t *testing.T) {
	patch := referencePatch(t)
	fs := NewFastSim(DefaultParams())

	tests := []struct {
		name       string
		c, flipped contact.Creepage
		sign       [3]float64
	}{
		{
			name:    "all components",
			c:       contact.Creepage{Longitudinal: 1.5e-3, Lateral: -7e-4, Spin: 0.8},
			flipped: contact.Creepage{Longitudinal: -1.5e-3, Lateral: 7e-4, Spin: -0.8},
			sign:    [3]float64{-1, -1, -1},
		},
		{
			name:    "lateral only",
			c:       contact.Creepage{Longitudinal: 2e-3, Lateral: 1e-3},
			flipped: contact.Creepage{Longitudinal: 2e-3, Lateral: -1e-3},
			sign:    [3]float64{1, -1, -1},
		},
	}

	near := func(got, want float64) bool {
		return math.Abs(got-want) <= 1e-9*math.Abs(want)+1e-12
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := fs.Solve(patch, tt.c)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			neg, err := fs.Solve(patch, tt.flipped)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}

			if !near(neg.Fx, tt.sign[0]*pos.Fx) || !near(neg.Fy, tt.sign[1]*pos.Fy) || !near(neg.Mz, tt.sign[2]*pos.Mz) {
				t.Errorf("resultants %+v vs %+v", pos.ForceResultant, neg.ForceResultant)
			}
			if !near(neg.AdhesionArea, pos.AdhesionArea) {
				t.Errorf("adhesion differs: %g vs %g", pos.AdhesionArea, neg.AdhesionArea)
			}
		})
	}
}

func TestFastSim_LinearRegime(t *testing.T) {
	patch := referencePatch(t)
	p := DefaultParams()
	p.Discretization = 120
	c := contact.Creepage{Longitudinal: 1e-6}

	sol, err := NewFastSim(p).Solve(patch, c)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	flex, _ := KalkerFlexibility(patch.A, patch.B, p.ShearModulus)
	linX, _ := LinearForces(patch.A, patch.B, flex, c)

	if sol.AdhesionArea < 0.95 {
		t.Errorf("adhesion = %g, expected near full stick", sol.AdhesionArea)
	}
	if math.Abs(sol.Fx-linX)/linX > 0.05 {
		t.Errorf("Fx = %g, linear estimate %g", sol.Fx, linX)
	}
}

func TestFastSim_RigidSlipField(t *testing.T) {
	c := contact.Creepage{Longitudinal: 1e-3, Lateral: 2e-3, Spin: 0.4}
	sol, err := NewFastSim(DefaultParams()).Solve(referencePatch(t), c)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	g := sol.Grid
	j, i := g.N/3, g.N/2
	if !g.Mask[j][i] {
		t.Skip("sample point outside patch")
	}
	wantX := c.Longitudinal - c.Spin*g.Y[j]
	wantY := c.Lateral + c.Spin*g.X[i]
	if sol.RigidSlipX.At(j, i) != wantX || sol.RigidSlipY.At(j, i) != wantY {
		t.Errorf("rigid slip (%g, %g), want (%g, %g)", sol.RigidSlipX.At(j, i), sol.RigidSlipY.At(j, i), wantX, wantY)
	}
}

func TestFastSim_InvalidInputs(t *testing.T) {
	good := referencePatch(t)

	tests := []struct {
		name   string
		patch  *contact.Patch
		mutate func(*Params)
		want   error
	}{
		{"zero a", &contact.Patch{A: 0, B: 1e-3, MaxPressure: 1e9, Exponent: 0.5, Resolution: 10}, func(*Params) {}, contact.ErrDegenerateGeometry},
		{"zero b", &contact.Patch{A: 1e-3, B: 0, MaxPressure: 1e9, Exponent: 0.5, Resolution: 10}, func(*Params) {}, contact.ErrDegenerateGeometry},
		{"nil patch", nil, func(*Params) {}, contact.ErrDegenerateGeometry},
		{"zero shear modulus", good, func(p *Params) { p.ShearModulus = 0 }, contact.ErrInvalidGeometry},
		{"negative friction", good, func(p *Params) { p.Friction = -0.1 }, contact.ErrInvalidParameter},
		{"negative discretization", good, func(p *Params) { p.Discretization = -1 }, contact.ErrInvalidResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := NewFastSim(p).Solve(tt.patch, contact.Creepage{Longitudinal: 1e-3})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFastSim_FollowsPatchResolution(t *testing.T) {
	patch := referencePatch(t)
	p := DefaultParams()
	p.Discretization = 0

	sol, err := NewFastSim(p).Solve(patch, contact.Creepage{Lateral: 1e-3})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Grid.N != patch.Resolution {
		t.Errorf("grid N = %d, want patch resolution %d", sol.Grid.N, patch.Resolution)
	}
}

func BenchmarkFastSim(b *testing.B) {
	patch := referencePatch(b)
	fs := NewFastSim(DefaultParams())
	c := contact.Creepage{Longitudinal: 2e-3, Lateral: 1e-3, Spin: 0.3}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fs.Solve(patch, c)
	}
}
