// Package contact holds the data model shared by the wheel–rail contact solvers.
//
// The types flow through a single evaluation, leaf first:
//
//   - [Material]: elastic constants of one body
//   - [Creepage]: longitudinal, lateral and spin creepage
//   - [Patch]: contact half-axes plus the normal pressure field
//   - [ForceResultant]: tangential forces, spin moment and adhesion fraction
//
// # Example
//
//	patch, _ := normal.NewKikPiotrowski(params).Solve(normal.Load{NormalForce: 80e3})
//	sol, _ := tangential.NewFastSim(tp).Solve(patch, contact.Creepage{Longitudinal: 1e-3})
//	fmt.Println(sol.Fx, sol.AdhesionArea)
//
// # Immutability
//
// Values are created fresh for every solve and are never mutated after they
// are returned. Callers that need a modified patch must build a new one.
package contact
