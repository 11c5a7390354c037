package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/normal"
	"github.com/san-kum/wheelrail/internal/tangential"
)

type Registry struct {
	normal     map[string]func(normal.Params) normal.Solver
	tangential map[string]func(tangential.Params, config.TangentialConfig) tangential.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		normal:     make(map[string]func(normal.Params) normal.Solver),
		tangential: make(map[string]func(tangential.Params, config.TangentialConfig) tangential.Solver),
	}

	r.normal["kp"] = func(p normal.Params) normal.Solver { return normal.NewKikPiotrowski(p) }
	r.normal["mkp"] = func(p normal.Params) normal.Solver { return normal.NewModifiedKikPiotrowski(p) }

	r.tangential["fastsim"] = func(p tangential.Params, _ config.TangentialConfig) tangential.Solver {
		return tangential.NewFastSim(p)
	}
	r.tangential["fastrip"] = func(p tangential.Params, tc config.TangentialConfig) tangential.Solver {
		strips := tc.Strips
		if strips == 0 {
			strips = tangential.DefaultStrips
		}
		return tangential.NewFaStrip(tangential.NewFastSim(p), strips, tc.Blend)
	}

	return r
}

func (r *Registry) GetNormal(name string, p normal.Params) (normal.Solver, error) {
	fn, ok := r.normal[name]
	if !ok {
		return nil, fmt.Errorf("unknown normal model: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) GetTangential(name string, p tangential.Params, tc config.TangentialConfig) (tangential.Solver, error) {
	fn, ok := r.tangential[name]
	if !ok {
		return nil, fmt.Errorf("unknown tangential model: %s", name)
	}
	return fn(p, tc), nil
}

func (r *Registry) ListNormal() []string {
	return sortedKeys(r.normal)
}

func (r *Registry) ListTangential() []string {
	return sortedKeys(r.tangential)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
