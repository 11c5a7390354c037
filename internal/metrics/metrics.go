// Package metrics accumulates scalar indicators over a series of contact
// evaluations, such as the points of a creep curve.
package metrics

import (
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/tangential"
)

// Observation is one solved contact.
type Observation struct {
	Patch    *contact.Patch
	Solution *tangential.Solution
	Creepage contact.Creepage
}

type Metric interface {
	Name() string
	Observe(o Observation)
	Value() float64
	Reset()
}

// Defaults returns the metrics reported for every run.
func Defaults(speed float64) []Metric {
	return []Metric{
		NewUtilization(),
		NewFrictionalPower(speed),
		NewAdhesion(),
		NewPeakPressure(),
	}
}

// Collect reads every metric into a name-keyed map.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
