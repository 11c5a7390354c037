package tangential

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/normal"
)

var _ = Describe("tangential solvers", func() {
	var patch *contact.Patch

	BeforeEach(func() {
		var err error
		patch, err = normal.NewKikPiotrowski(normal.DefaultParams()).Solve(normal.Load{NormalForce: 80e3})
		Expect(err).NotTo(HaveOccurred())
	})

	solvers := []struct {
		name  string
		build func() Solver
	}{
		{"fastsim", func() Solver { return NewFastSim(DefaultParams()) }},
		{"fastrip", func() Solver {
			return NewFaStrip(NewFastSim(DefaultParams()), DefaultStrips, DefaultBlend())
		}},
	}

	for _, s := range solvers {
		build := s.build
		mirrored := s.name == "fastsim"

		Context(s.name, func() {
			DescribeTable("keeps every point within the Coulomb bound",
				func(c contact.Creepage) {
					sol, err := build().Solve(patch, c)
					Expect(err).NotTo(HaveOccurred())

					g := sol.Grid
					for j := 0; j < g.N; j++ {
						for i := 0; i < g.N; i++ {
							tau := math.Hypot(sol.ShearX.At(j, i), sol.ShearY.At(j, i))
							Expect(tau).To(BeNumerically("<=", sol.TractionBound(j, i)*(1+1e-12)))
						}
					}
				},
				Entry("longitudinal", contact.Creepage{Longitudinal: 3e-3}),
				Entry("lateral", contact.Creepage{Lateral: -2e-3}),
				Entry("spin", contact.Creepage{Spin: 1.5}),
				Entry("combined", contact.Creepage{Longitudinal: 1e-3, Lateral: 1e-3, Spin: -0.7}),
			)

			It("produces no traction at zero creepage", func() {
				sol, err := build().Solve(patch, contact.Creepage{})
				Expect(err).NotTo(HaveOccurred())
				Expect(sol.Fx).To(BeZero())
				Expect(sol.Fy).To(BeZero())
				Expect(sol.Mz).To(BeZero())
				Expect(sol.AdhesionArea).To(Equal(1.0))
			})

			It("flips the resultant with the creepage sign", func() {
				c := contact.Creepage{Longitudinal: 8e-4, Lateral: 3e-4, Spin: 0.2}
				pos, err := build().Solve(patch, c)
				Expect(err).NotTo(HaveOccurred())
				neg, err := build().Solve(patch, contact.Creepage{
					Longitudinal: -c.Longitudinal, Lateral: -c.Lateral, Spin: -c.Spin,
				})
				Expect(err).NotTo(HaveOccurred())

				Expect(neg.Fx).To(BeNumerically("~", -pos.Fx, 1e-9*math.Abs(pos.Fx)))
				Expect(neg.Fy).To(BeNumerically("~", -pos.Fy, 1e-9*math.Abs(pos.Fy)))
				Expect(neg.Mz).To(BeNumerically("~", -pos.Mz, 1e-9*math.Abs(pos.Mz)+1e-15))
			})

			It("flips only Fy with the lateral creepage sign", func() {
				pos, err := build().Solve(patch, contact.Creepage{Longitudinal: 2e-3, Lateral: 1e-3})
				Expect(err).NotTo(HaveOccurred())
				neg, err := build().Solve(patch, contact.Creepage{Longitudinal: 2e-3, Lateral: -1e-3})
				Expect(err).NotTo(HaveOccurred())

				Expect(neg.Fx).To(BeNumerically("~", pos.Fx, 1e-9*math.Abs(pos.Fx)))
				Expect(neg.Fy).To(BeNumerically("~", -pos.Fy, 1e-9*math.Abs(pos.Fy)))
				Expect(neg.AdhesionArea).To(BeNumerically("~", pos.AdhesionArea, 1e-12))

				// Mz keeps a y·τx term that cancels only over mirror-symmetric
				// rows. Strip bands are half-open, so rows lying on a band edge
				// join the upper strip and fastrip's Mz is not antisymmetric.
				if mirrored {
					Expect(neg.Mz).To(BeNumerically("~", -pos.Mz, 1e-9*math.Abs(pos.Mz)+1e-12))
				}
			})

			It("gives the force the sign of the creepage", func() {
				sol, err := build().Solve(patch, contact.Creepage{Longitudinal: 2e-3, Lateral: -2e-3})
				Expect(err).NotTo(HaveOccurred())
				Expect(sol.Fx).To(BeNumerically(">", 0))
				Expect(sol.Fy).To(BeNumerically("<", 0))
			})

			It("loses adhesion as creepage grows", func() {
				prev := 1.0
				for _, xi := range []float64{1e-4, 1e-3, 3e-3, 1e-2} {
					sol, err := build().Solve(patch, contact.Creepage{Longitudinal: xi})
					Expect(err).NotTo(HaveOccurred())
					Expect(sol.AdhesionArea).To(BeNumerically("<=", prev))
					prev = sol.AdhesionArea
				}
				Expect(prev).To(BeNumerically("<", 1))
			})

			It("rejects a degenerate patch", func() {
				flat := &contact.Patch{A: 0, B: 5e-3, Resolution: 20}
				_, err := build().Solve(flat, contact.Creepage{Longitudinal: 1e-3})
				Expect(err).To(MatchError(contact.ErrDegenerateGeometry))
			})
		})
	}

	Describe("strip blend", func() {
		It("stays inside the clip band below threshold and vanishes above it", func() {
			blend := DefaultBlend()
			s := NewFaStrip(NewFastSim(DefaultParams()), DefaultStrips, blend)

			small, err := s.Solve(patch, contact.Creepage{Longitudinal: 3e-5})
			Expect(err).NotTo(HaveOccurred())
			Expect(small.Strip.Blended).To(BeTrue())
			Expect(small.Fx / small.Strip.Marching.Fx).To(And(
				BeNumerically(">=", blend.ClipMin-1e-12),
				BeNumerically("<=", blend.ClipMax+1e-12),
			))

			large, err := s.Solve(patch, contact.Creepage{Longitudinal: 3e-3})
			Expect(err).NotTo(HaveOccurred())
			Expect(large.Strip.Blended).To(BeFalse())
			Expect(large.ForceResultant).To(Equal(large.Strip.Marching))
		})
	})
})
