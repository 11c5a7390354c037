package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/storage"
	"github.com/san-kum/wheelrail/internal/sweep"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted batch of contact evaluations.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from Config (a YAML file), else Preset, else the
// defaults, and applies the non-zero overrides on top. With Sweep set the
// step evaluates the configured creep curve instead of a single point.
type ScenarioStep struct {
	Name        string            `yaml:"name"`
	Preset      string            `yaml:"preset"`
	Config      string            `yaml:"config"`
	Normal      string            `yaml:"normal"`
	Tangential  string            `yaml:"tangential"`
	NormalForce float64           `yaml:"normal_force"`
	Penetration float64           `yaml:"penetration"`
	Friction    float64           `yaml:"friction"`
	Creepage    *contact.Creepage `yaml:"creepage"`
	Wear        *bool             `yaml:"wear"`
	Sweep       bool              `yaml:"sweep"`
	Save        bool              `yaml:"save"`
}

// StepResult holds the output of one step; exactly one of Result and
// Curve is set.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *experiment.Result
	Curve  *sweep.Curve
	RunID  string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// BuildConfig resolves the configuration of a step.
func (s ScenarioStep) BuildConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Normal != "" {
		cfg.Normal.Model = s.Normal
	}
	if s.Tangential != "" {
		cfg.Tangential.Model = s.Tangential
	}
	if s.NormalForce > 0 {
		cfg.Load = config.LoadConfig{NormalForce: s.NormalForce}
	}
	if s.Penetration > 0 {
		cfg.Load = config.LoadConfig{Penetration: s.Penetration}
	}
	if s.Friction > 0 {
		cfg.Tangential.Friction = s.Friction
	}
	if s.Creepage != nil {
		cfg.Creepage = *s.Creepage
	}
	if s.Wear != nil {
		cfg.Wear.Enabled = *s.Wear
	}
	return cfg, nil
}

// RunScenario executes the steps in order. Steps marked Save are written
// to st when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		log.WithFields(log.Fields{"scenario": scenario.Name, "step": name}).Infof("running step %d/%d", i+1, len(scenario.Steps))

		cfg, err := step.BuildConfig()
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}

		p := experiment.New(cfg)
		if err := p.Setup(registry, nil); err != nil {
			return results, fmt.Errorf("%s setup: %w", name, err)
		}

		out := StepResult{Name: name, Config: cfg}
		if step.Sweep {
			axis, _ := cfg.SweepAxis()
			values, err := sweep.Values(cfg.Sweep.Min, cfg.Sweep.Max, cfg.Sweep.Points)
			if err != nil {
				return results, fmt.Errorf("%s: %w", name, err)
			}
			out.Curve, err = sweep.New(p, cfg.Sweep.Workers, cfg.Sweep.Speed).Run(ctx, axis, cfg.Creepage, values)
			if err != nil {
				return results, fmt.Errorf("%s run: %w", name, err)
			}
		} else {
			out.Result, err = p.Run(ctx)
			if err != nil {
				return results, fmt.Errorf("%s run: %w", name, err)
			}
		}

		if step.Save && st != nil {
			if out.Curve != nil {
				out.RunID, err = st.SaveCurve(cfg, out.Curve)
			} else {
				out.RunID, err = st.Save(cfg, out.Result, p.Normal().Name(), p.Tangential().Name())
			}
			if err != nil {
				return results, fmt.Errorf("%s save: %w", name, err)
			}
		}

		results = append(results, out)
	}

	return results, nil
}

// MonteCarloConfig perturbs the operating point of Base uniformly:
// translational creepages by ±Perturbation, spin by ±SpinPerturbation and
// friction by ±FrictionSpread.
type MonteCarloConfig struct {
	Base             *config.Config
	Perturbation     float64
	SpinPerturbation float64
	FrictionSpread   float64
	NumTrials        int
	Seed             int64
}

type MonteCarloResult struct {
	TrialID     int
	Creepage    contact.Creepage
	Friction    float64
	Forces      contact.ForceResultant
	Coefficient float64
	// FullSlip marks trials with no adhesion left in the patch.
	FullSlip bool
}

// RunMonteCarlo solves the patch once and evaluates NumTrials perturbed
// operating points on it.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("%w: %d trials", contact.ErrInvalidParameter, cfg.NumTrials)
	}

	base := experiment.New(cfg.Base)
	if err := base.Setup(registry, nil); err != nil {
		return nil, err
	}
	patch, err := base.Patch()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	spread := func(w float64) float64 { return (rng.Float64() - 0.5) * 2 * w }

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		c := cfg.Base.Creepage
		c.Longitudinal += spread(cfg.Perturbation)
		c.Lateral += spread(cfg.Perturbation)
		c.Spin += spread(cfg.SpinPerturbation)

		p := base
		mu := cfg.Base.Tangential.Friction
		if cfg.FrictionSpread > 0 {
			trialCfg := *cfg.Base
			mu = trialCfg.Tangential.Friction + spread(cfg.FrictionSpread)
			trialCfg.Tangential.Friction = mu
			p = experiment.New(&trialCfg)
			if err := p.Setup(registry, nil); err != nil {
				return nil, fmt.Errorf("trial %d: %w", trial, err)
			}
		}

		res, err := p.Evaluate(ctx, patch, c)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID:     trial,
			Creepage:    c,
			Friction:    mu,
			Forces:      res.Solution.ForceResultant,
			Coefficient: res.Solution.Magnitude() / patch.NormalForce,
			FullSlip:    res.Solution.AdhesionArea == 0,
		})

		if (trial+1)%100 == 0 {
			log.WithField("trials", trial+1).Infof("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloSummary holds sample statistics over all trials.
type MonteCarloSummary struct {
	Trials          int
	MeanFx, StdFx   float64
	MeanFy, StdFy   float64
	MeanCoefficient float64
	StdCoefficient  float64
	MeanAdhesion    float64
	FullSlip        int
}

func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	n := len(results)
	s := MonteCarloSummary{Trials: n}
	if n == 0 {
		return s
	}

	fx := make([]float64, n)
	fy := make([]float64, n)
	coef := make([]float64, n)
	adh := make([]float64, n)
	for i, r := range results {
		fx[i] = r.Forces.Fx
		fy[i] = r.Forces.Fy
		coef[i] = r.Coefficient
		adh[i] = r.Forces.AdhesionArea
		if r.FullSlip {
			s.FullSlip++
		}
	}

	s.MeanFx, s.StdFx = stat.MeanStdDev(fx, nil)
	s.MeanFy, s.StdFy = stat.MeanStdDev(fy, nil)
	s.MeanCoefficient, s.StdCoefficient = stat.MeanStdDev(coef, nil)
	s.MeanAdhesion = stat.Mean(adh, nil)
	return s
}
