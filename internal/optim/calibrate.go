// Package optim fits the strip-solver blend constants to reference creep
// data by exhaustive grid search.
package optim

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/sweep"
	"github.com/san-kum/wheelrail/internal/tangential"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	ParamThreshold = "threshold"
	ParamClipMin   = "clip_min"
	ParamClipMax   = "clip_max"
)

// Reference is a measured or externally computed creep curve: traction
// coefficients |F|/N at creepages along one axis.
type Reference struct {
	Name   string           `yaml:"name"`
	Axis   string           `yaml:"axis"`
	Base   contact.Creepage `yaml:"base"`
	Points []ReferencePoint `yaml:"points"`
}

type ReferencePoint struct {
	Value       float64 `yaml:"value"`
	Coefficient float64 `yaml:"coefficient"`
}

func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ref Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &ref, nil
}

func SaveReference(path string, ref *Reference) error {
	data, err := yaml.Marshal(ref)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReferenceFromCurve turns a computed creep curve into a reference.
func ReferenceFromCurve(name string, curve *sweep.Curve) *Reference {
	ref := &Reference{Name: name, Axis: curve.Axis, Base: curve.Base}
	for _, p := range curve.Points {
		ref.Points = append(ref.Points, ReferencePoint{Value: p.Value, Coefficient: p.Coefficient})
	}
	return ref
}

func (r *Reference) Validate() error {
	if _, err := config.ParseAxis(r.Axis); err != nil {
		return err
	}
	if len(r.Points) == 0 {
		return fmt.Errorf("%w: reference has no points", contact.ErrInvalidParameter)
	}
	return nil
}

func (r *Reference) values() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Value
	}
	return out
}

func (r *Reference) coefficients() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Coefficient
	}
	return out
}

// BlendGrid lists candidate values for each blend constant.
type BlendGrid struct {
	Thresholds []float64 `yaml:"thresholds"`
	ClipMin    []float64 `yaml:"clip_min"`
	ClipMax    []float64 `yaml:"clip_max"`
}

func DefaultBlendGrid() BlendGrid {
	return BlendGrid{
		Thresholds: []float64{1e-5, 1e-4, 1e-3},
		ClipMin:    []float64{0.6, 0.7, 0.8, 0.9, 1.0},
		ClipMax:    []float64{1.0, 1.1, 1.2, 1.3, 1.4},
	}
}

func (g BlendGrid) search() *GridSearch {
	return NewGridSearch(
		[]string{ParamThreshold, ParamClipMin, ParamClipMax},
		[][]float64{g.Thresholds, g.ClipMin, g.ClipMax},
	)
}

func blendFrom(params map[string]float64) tangential.Blend {
	return tangential.Blend{
		Threshold: params[ParamThreshold],
		ClipMin:   params[ParamClipMin],
		ClipMax:   params[ParamClipMax],
	}
}

// Calibration is the outcome of CalibrateBlend. Error is the RMS
// difference in traction coefficient.
type Calibration struct {
	Blend        tangential.Blend
	Error        float64
	InitialError float64
	Candidates   int
	Curve        *sweep.Curve
	Elapsed      time.Duration
}

// Calibrator scores blend constants of the strip solver against a reference.
type Calibrator struct {
	cfg     config.Config
	ref     *Reference
	axis    config.Axis
	workers int
}

// NewCalibrator copies cfg and forces the strip solver.
func NewCalibrator(cfg *config.Config, ref *Reference, workers int) (*Calibrator, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	axis, _ := config.ParseAxis(ref.Axis)
	c := *cfg
	c.Tangential.Model = "fastrip"
	return &Calibrator{cfg: c, ref: ref, axis: axis, workers: workers}, nil
}

// Curve evaluates the reference creepages with blend b.
func (c *Calibrator) Curve(ctx context.Context, b tangential.Blend) (*sweep.Curve, error) {
	cfg := c.cfg
	cfg.Tangential.Blend = b
	p := experiment.New(&cfg)
	if err := p.Setup(experiment.NewRegistry(), nil); err != nil {
		return nil, err
	}
	return sweep.New(p, c.workers, cfg.Sweep.Speed).Run(ctx, c.axis, c.ref.Base, c.ref.values())
}

// Score is the RMS coefficient error of blend b.
func (c *Calibrator) Score(ctx context.Context, b tangential.Blend) (float64, error) {
	curve, err := c.Curve(ctx, b)
	if err != nil {
		return 0, err
	}
	return rmsError(curve.Coefficients(), c.ref.coefficients()), nil
}

func rmsError(model, ref []float64) float64 {
	return floats.Distance(model, ref, 2) / math.Sqrt(float64(len(ref)))
}

// Calibrate grid-searches the blend constants.
func (c *Calibrator) Calibrate(ctx context.Context, grid BlendGrid) (*Calibration, error) {
	start := time.Now()

	initial, err := c.Score(ctx, c.cfg.Tangential.Blend)
	if err != nil {
		return nil, fmt.Errorf("initial blend: %w", err)
	}

	gs := grid.search()
	log.WithFields(log.Fields{
		"reference":  c.ref.Name,
		"points":     len(c.ref.Points),
		"candidates": gs.Size(),
	}).Info("calibrating blend constants")

	best, score, err := gs.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		return c.Score(ctx, blendFrom(params))
	})
	if err != nil {
		return nil, err
	}

	blend := blendFrom(best)
	curve, err := c.Curve(ctx, blend)
	if err != nil {
		return nil, err
	}

	cal := &Calibration{
		Blend:        blend,
		Error:        score,
		InitialError: initial,
		Candidates:   gs.Size(),
		Curve:        curve,
		Elapsed:      time.Since(start),
	}

	log.WithFields(log.Fields{
		"threshold": blend.Threshold,
		"clip_min":  blend.ClipMin,
		"clip_max":  blend.ClipMax,
		"rms":       score,
		"initial":   initial,
		"elapsed":   cal.Elapsed,
	}).Info("calibration complete")

	return cal, nil
}
