package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/wheelrail/internal/automation"
	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/optim"
	"github.com/san-kum/wheelrail/internal/storage"
	"github.com/san-kum/wheelrail/internal/viz"
	"github.com/spf13/cobra"
)

var (
	referenceFile string
	referenceRun  string
	thresholds    []float64
	clipMin       []float64
	clipMax       []float64
	writeConfig   string

	trials           int
	perturbation     float64
	spinPerturbation float64
	frictionSpread   float64
	seed             int64
)

func addCalibrateFlags(cmd *cobra.Command) {
	grid := optim.DefaultBlendGrid()
	f := cmd.Flags()
	f.StringVar(&referenceFile, "reference", "", "reference creep curve (yaml)")
	f.StringVar(&referenceRun, "run", "", "use a stored sweep run as the reference")
	f.Float64SliceVar(&thresholds, "thresholds", grid.Thresholds, "candidate blend thresholds")
	f.Float64SliceVar(&clipMin, "clip-min", grid.ClipMin, "candidate lower clips")
	f.Float64SliceVar(&clipMax, "clip-max", grid.ClipMax, "candidate upper clips")
	f.IntVar(&sweepWorkers, "workers", 0, "parallel workers (0: one per CPU)")
	f.StringVar(&writeConfig, "write", "", "save the calibrated config to this file")
}

func loadReference() (*optim.Reference, error) {
	switch {
	case referenceFile != "" && referenceRun != "":
		return nil, fmt.Errorf("use either --reference or --run")
	case referenceFile != "":
		return optim.LoadReference(referenceFile)
	case referenceRun != "":
		st := storage.New(dataDir)
		meta, err := st.Load(referenceRun)
		if err != nil {
			return nil, err
		}
		if meta.Kind != storage.KindSweep {
			return nil, fmt.Errorf("run %s is not a sweep", meta.ID)
		}
		curve, err := loadCurve(st, meta)
		if err != nil {
			return nil, err
		}
		return optim.ReferenceFromCurve(meta.ID, curve), nil
	}
	return nil, fmt.Errorf("a reference is required (--reference or --run)")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	ref, err := loadReference()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cal, err := optim.NewCalibrator(cfg, ref, cfg.Sweep.Workers)
	if err != nil {
		return err
	}
	res, err := cal.Calibrate(cmd.Context(), optim.BlendGrid{
		Thresholds: thresholds,
		ClipMin:    clipMin,
		ClipMax:    clipMax,
	})
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("blend calibration: " + ref.Name))
	fmt.Println(viz.Metric("candidates", "%d", res.Candidates))
	fmt.Println(viz.Metric("threshold", "%g", res.Blend.Threshold))
	fmt.Println(viz.Metric("clip", "[%g, %g]", res.Blend.ClipMin, res.Blend.ClipMax))
	fmt.Println(viz.Metric("rms error", "%.4e (was %.4e)", res.Error, res.InitialError))
	fmt.Println(viz.Metric("elapsed", "%v", res.Elapsed.Round(time.Millisecond)))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tREFERENCE\tMODEL\tBLENDED\n", ref.Axis)
	for i, pt := range res.Curve.Points {
		fmt.Fprintf(w, "%.4e\t%.4f\t%.4f\t%t\n", pt.Value, ref.Points[i].Coefficient, pt.Coefficient, pt.Blended)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if writeConfig != "" {
		out := *cfg
		out.Tangential.Model = "fastrip"
		out.Tangential.Blend = res.Blend
		if err := config.Save(writeConfig, &out); err != nil {
			return err
		}
		fmt.Printf("\ncalibrated config written to %s\n", writeConfig)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(sc.Name))
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODELS\tFX (N)\tFY (N)\tADHESION\tRESULT\tRUN")
	for _, r := range results {
		models := r.Config.Normal.Model + "+" + r.Config.Tangential.Model
		if r.Curve != nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\tsaturation %.4f\t%s\n", r.Name, models, r.Curve.Saturation(), r.RunID)
			continue
		}
		sol := r.Result.Solution
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.3f\t|F|/N %.4f\t%s\n",
			r.Name, models, sol.Fx, sol.Fy, sol.AdhesionArea, sol.Magnitude()/r.Result.Patch.NormalForce, r.RunID)
	}
	return w.Flush()
}

func addMonteCarloFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&trials, "trials", 200, "number of trials")
	f.Float64Var(&perturbation, "perturbation", 5e-4, "uniform spread of ξ and η")
	f.Float64Var(&spinPerturbation, "spin-perturbation", 0, "uniform spread of φ in 1/m")
	f.Float64Var(&frictionSpread, "friction-spread", 0, "uniform spread of μ")
	f.Int64Var(&seed, "seed", 0, "random seed (0: time based)")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:             cfg,
		Perturbation:     perturbation,
		SpinPerturbation: spinPerturbation,
		FrictionSpread:   frictionSpread,
		NumTrials:        trials,
		Seed:             seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	s := automation.MonteCarloStats(results)
	fmt.Println(viz.Title.Render(fmt.Sprintf("monte carlo around %s", cfg.Creepage)))
	fmt.Println(viz.Metric("trials", "%d", s.Trials))
	fmt.Println(viz.Metric("Fx", "%.1f ± %.1f N", s.MeanFx, s.StdFx))
	fmt.Println(viz.Metric("Fy", "%.1f ± %.1f N", s.MeanFy, s.StdFy))
	fmt.Println(viz.Metric("|F|/N", "%.4f ± %.4f", s.MeanCoefficient, s.StdCoefficient))
	fmt.Println(viz.Metric("adhesion", "%.1f %%", s.MeanAdhesion*100))
	fmt.Println(viz.Metric("full slip", "%d / %d", s.FullSlip, s.Trials))
	return nil
}
