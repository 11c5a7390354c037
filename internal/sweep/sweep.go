// Package sweep evaluates creep curves: one creepage component is varied
// while the patch and the remaining creepages stay fixed.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/metrics"
	"github.com/san-kum/wheelrail/internal/tangential"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Point is one evaluated creepage. Coefficient is |F|/N.
type Point struct {
	Value       float64                `json:"value"`
	Creepage    contact.Creepage       `json:"creepage"`
	Forces      contact.ForceResultant `json:"forces"`
	Coefficient float64                `json:"coefficient"`
	Blended     bool                   `json:"blended"`
}

type Curve struct {
	Axis        string             `json:"axis"`
	Base        contact.Creepage   `json:"base"`
	Normal      string             `json:"normal_model"`
	Tangential  string             `json:"tangential_model"`
	NormalForce float64            `json:"normal_force"`
	Friction    float64            `json:"friction"`
	Points      []Point            `json:"points"`
	Metrics     map[string]float64 `json:"metrics"`
	Elapsed     time.Duration      `json:"elapsed"`
}

// Values returns n evenly spaced values from min to max inclusive.
func Values(min, max float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d sweep points", contact.ErrInvalidResolution, n)
	}
	return floats.Span(make([]float64, n), min, max), nil
}

// Runner fans sweep points out over a fixed pool of workers.
type Runner struct {
	pipeline *experiment.Pipeline
	workers  int
	speed    float64
}

// New returns a runner on a set-up pipeline without attached metrics.
// workers ≤ 0 means one per CPU.
func New(p *experiment.Pipeline, workers int, speed float64) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{pipeline: p, workers: workers, speed: speed}
}

// Run solves the patch once and evaluates every value of axis on top of
// base. Points are returned in the order of values.
func (r *Runner) Run(ctx context.Context, axis config.Axis, base contact.Creepage, values []float64) (*Curve, error) {
	start := time.Now()

	patch, err := r.pipeline.Patch()
	if err != nil {
		return nil, err
	}

	n := len(values)
	points := make([]Point, n)
	sols := make([]*tangential.Solution, n)
	errs := make([]error, n)
	jobs := make(chan int)

	workers := r.workers
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				c := axis.With(base, values[idx])
				res, err := r.pipeline.Evaluate(ctx, patch, c)
				if err != nil {
					errs[idx] = err
					continue
				}
				sols[idx] = res.Solution
				points[idx] = Point{
					Value:       values[idx],
					Creepage:    c,
					Forces:      res.Solution.ForceResultant,
					Coefficient: res.Solution.Magnitude() / patch.NormalForce,
					Blended:     res.Solution.Strip != nil && res.Solution.Strip.Blended,
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("point %d (%s=%g): %w", i, axis, values[i], err)
		}
	}

	// metrics are not safe for concurrent use, so they see the points in order
	ms := metrics.Defaults(r.speed)
	for i, p := range points {
		for _, m := range ms {
			m.Observe(metrics.Observation{Patch: patch, Solution: sols[i], Creepage: p.Creepage})
		}
	}

	cfg := r.pipeline.Config()
	curve := &Curve{
		Axis:        axis.String(),
		Base:        base,
		Normal:      r.pipeline.Normal().Name(),
		Tangential:  r.pipeline.Tangential().Name(),
		NormalForce: patch.NormalForce,
		Friction:    cfg.Tangential.Friction,
		Points:      points,
		Metrics:     metrics.Collect(ms),
		Elapsed:     time.Since(start),
	}

	log.WithFields(log.Fields{
		"axis":    curve.Axis,
		"points":  n,
		"workers": workers,
		"elapsed": curve.Elapsed,
	}).Info("creep curve complete")

	return curve, nil
}

// Coefficients returns |F|/N for every point.
func (c *Curve) Coefficients() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Coefficient
	}
	return out
}

// Columns lists the names accepted by Column.
var Columns = []string{"fx", "fy", "mz", "adhesion", "coefficient"}

// Column extracts one per-point quantity by name.
func (c *Curve) Column(name string) ([]float64, error) {
	if !slices.Contains(Columns, name) {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		switch name {
		case "fx":
			out[i] = p.Forces.Fx
		case "fy":
			out[i] = p.Forces.Fy
		case "mz":
			out[i] = p.Forces.Mz
		case "adhesion":
			out[i] = p.Forces.AdhesionArea
		default:
			out[i] = p.Coefficient
		}
	}
	return out, nil
}

// Values returns the swept creepage values.
func (c *Curve) Values() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Value
	}
	return out
}

// Saturation is the largest traction coefficient on the curve.
func (c *Curve) Saturation() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return floats.Max(c.Coefficients())
}
