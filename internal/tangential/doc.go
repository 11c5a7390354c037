// Package tangential computes the tangential traction over a wheel–rail
// contact patch from the creepages.
//
// Two solvers implement [Solver]:
//
//   - [FastSim]: Kalker's simplified theory, one flexibility for the whole patch
//   - [FaStrip]: FastSim with per-strip flexibilities and a clipped blend
//     towards linear theory below [Blend] Threshold
//
// Both march each lateral row from the leading edge (x = +a) towards the
// trailing edge, carrying the traction of the previous point and capping it
// at the Coulomb bound μ·p.
//
// # Example
//
//	fs := tangential.NewFastSim(tangential.DefaultParams())
//	strip := tangential.NewFaStrip(fs, tangential.DefaultStrips, tangential.DefaultBlend())
//	sol, err := strip.Solve(patch, contact.Creepage{Longitudinal: 2e-3})
//
// # Thread Safety
//
// Solvers hold only their parameters and may be shared between goroutines.
package tangential
