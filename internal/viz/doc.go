// Package viz renders contact results in the terminal.
//
// The package provides:
//
//   - [Canvas]: braille dot canvas drawing the adhesion and slip zones of a patch
//   - [CreepChart] and [ProfileChart]: asciigraph plots of creep curves and
//     of the centre-line traction against the traction bound
//   - [Explorer]: a Bubble Tea program that re-solves the tangential
//     problem as creepages are adjusted
//
// # Key Bindings
//
//	Tab   - Select creepage component
//	↑/↓   - Adjust by one step
//	+/-   - Scale the step
//	R     - Reset
//	S     - Save the current run
//	?     - Show help overlay
package viz
