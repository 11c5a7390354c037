package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/metrics"
	"github.com/san-kum/wheelrail/internal/normal"
	"github.com/san-kum/wheelrail/internal/tangential"
	"github.com/san-kum/wheelrail/internal/wear"
	log "github.com/sirupsen/logrus"
)

// Result is one full evaluation: patch, traction and optional wear.
type Result struct {
	Creepage contact.Creepage
	Patch    *contact.Patch
	Solution *tangential.Solution
	Wear     *wear.Result
	Metrics  map[string]float64
	Elapsed  time.Duration
}

// Forces is the compact output of a single evaluation.
type Forces struct {
	Fn           float64 `json:"fn"`
	Fx           float64 `json:"fx"`
	Fy           float64 `json:"fy"`
	Mz           float64 `json:"mz"`
	AdhesionArea float64 `json:"adhesion_area"`
}

// Pipeline chains a normal solver, a tangential solver and, when enabled,
// the wear model. Evaluate may be called concurrently only when no metrics
// are attached.
type Pipeline struct {
	cfg        *config.Config
	normal     normal.Solver
	tangential tangential.Solver
	wear       *wear.Model
	metrics    []metrics.Metric
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Setup validates the config and builds the solvers from the registry.
func (p *Pipeline) Setup(reg *Registry, ms []metrics.Metric) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	ns, err := reg.GetNormal(p.cfg.Normal.Model, p.cfg.NormalParams())
	if err != nil {
		return err
	}
	ts, err := reg.GetTangential(p.cfg.Tangential.Model, p.cfg.TangentialParams(), p.cfg.Tangential)
	if err != nil {
		return err
	}

	p.normal = ns
	p.tangential = ts
	p.metrics = ms
	if p.cfg.Wear.Enabled {
		p.wear = wear.NewModel(p.cfg.Wear.WheelMaterial, p.cfg.Wear.RailMaterial)
	}
	return nil
}

func (p *Pipeline) Config() *config.Config { return p.cfg }

func (p *Pipeline) Normal() normal.Solver { return p.normal }

func (p *Pipeline) Tangential() tangential.Solver { return p.tangential }

// Patch solves the normal problem for the configured load.
func (p *Pipeline) Patch() (*contact.Patch, error) {
	if p.normal == nil {
		return nil, fmt.Errorf("pipeline not setup")
	}
	return p.normal.Solve(p.cfg.NormalLoad())
}

// Evaluate runs the tangential stage (and wear) on an existing patch.
func (p *Pipeline) Evaluate(ctx context.Context, patch *contact.Patch, c contact.Creepage) (*Result, error) {
	if p.tangential == nil {
		return nil, fmt.Errorf("pipeline not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	sol, err := p.tangential.Solve(patch, c)
	if err != nil {
		return nil, err
	}

	res := &Result{Creepage: c, Patch: patch, Solution: sol}
	if p.wear != nil {
		res.Wear, err = p.wear.Evaluate(sol, p.cfg.Wear.SlidingDistance, p.cfg.Wear.Density)
		if err != nil {
			return nil, fmt.Errorf("wear: %w", err)
		}
	}
	res.Elapsed = time.Since(start)

	for _, m := range p.metrics {
		m.Observe(metrics.Observation{Patch: patch, Solution: sol, Creepage: c})
	}

	log.WithFields(log.Fields{
		"normal":     p.normal.Name(),
		"tangential": p.tangential.Name(),
		"creepage":   c.String(),
		"fx":         sol.Fx,
		"fy":         sol.Fy,
		"adhesion":   sol.AdhesionArea,
	}).Debug("contact evaluated")

	return res, nil
}

// Run solves the configured load and creepage end to end.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	patch, err := p.Patch()
	if err != nil {
		return nil, err
	}
	res, err := p.Evaluate(ctx, patch, p.cfg.Creepage)
	if err != nil {
		return nil, err
	}
	if len(p.metrics) > 0 {
		res.Metrics = metrics.Collect(p.metrics)
	}
	return res, nil
}

// Forces evaluates the contact at a prescribed penetration and returns the
// normal force together with the tangential resultant.
func (p *Pipeline) Forces(ctx context.Context, penetration float64, c contact.Creepage) (Forces, error) {
	if p.normal == nil {
		return Forces{}, fmt.Errorf("pipeline not setup")
	}
	patch, err := p.normal.Solve(normal.Load{Penetration: penetration})
	if err != nil {
		return Forces{}, err
	}
	res, err := p.Evaluate(ctx, patch, c)
	if err != nil {
		return Forces{}, err
	}
	return Forces{
		Fn:           patch.NormalForce,
		Fx:           res.Solution.Fx,
		Fy:           res.Solution.Fy,
		Mz:           res.Solution.Mz,
		AdhesionArea: res.Solution.AdhesionArea,
	}, nil
}
