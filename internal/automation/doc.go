// Package automation runs batches of contact evaluations: YAML scenarios
// that chain presets and overrides, and Monte Carlo perturbation of an
// operating point.
package automation
