package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/export"
	"github.com/san-kum/wheelrail/internal/metrics"
	"github.com/san-kum/wheelrail/internal/store"
	"github.com/san-kum/wheelrail/internal/sweep"
	"github.com/san-kum/wheelrail/internal/viz"
	"github.com/san-kum/wheelrail/internal/wear"
	"github.com/spf13/cobra"
)

var (
	wheelMaterial   string
	railMaterial    string
	slidingDistance float64
	listPairs       bool
)

func addWearFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&wheelMaterial, "wheel-material", "R8T", "wheel steel grade")
	f.StringVar(&railMaterial, "rail-material", "UIC60 900A", "rail steel grade")
	f.Float64Var(&slidingDistance, "distance", config.DefaultSlidingDistance, "rolling distance in m")
	f.BoolVar(&listPairs, "pairs", false, "list material pairs with measured coefficients")
}

func applyWearFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("wheel-material") {
		cfg.Wear.WheelMaterial = wheelMaterial
	}
	if f.Changed("rail-material") {
		cfg.Wear.RailMaterial = railMaterial
	}
	if f.Changed("distance") {
		cfg.Wear.SlidingDistance = slidingDistance
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), metrics.Defaults(cfg.Sweep.Speed)); err != nil {
		return err
	}

	res, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	runID := ""
	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err = st.Save(cfg, res, p.Normal().Name(), p.Tangential().Name())
		if err != nil {
			return err
		}
	}

	if jsonOut {
		return store.ExportJSONStdout(res, p.Normal().Name(), p.Tangential().Name())
	}

	printResult(p, res)
	if runID != "" {
		fmt.Println(viz.Metric("run id", "%s", runID))
	}
	if showPlot {
		fmt.Println()
		fmt.Println(viz.ProfileChart(res.Solution, 70, 12))
	}
	return nil
}

func printResult(p *experiment.Pipeline, res *experiment.Result) {
	patch, sol := res.Patch, res.Solution

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s + %s", p.Normal().Name(), p.Tangential().Name())))
	fmt.Println(viz.Metric("creepage", "%s", res.Creepage))
	fmt.Println(viz.Separator(48))
	fmt.Println(viz.Metric("normal force", "%.2f kN", patch.NormalForce*1e-3))
	fmt.Println(viz.Metric("penetration", "%.4f mm", patch.Penetration*1e3))
	fmt.Println(viz.Metric("semi-axes", "a=%.3f b=%.3f mm", patch.A*1e3, patch.B*1e3))
	fmt.Println(viz.Metric("p0", "%.1f MPa", patch.MaxPressure*1e-6))
	if patch.NonElliptical {
		fmt.Println(viz.Metric("shape", "non-elliptic (b/a=%.2f)", patch.SemiAxesRatio))
	}
	fmt.Println(viz.Separator(48))
	fmt.Println(viz.Metric("Fx", "%+.3f kN", sol.Fx*1e-3))
	fmt.Println(viz.Metric("Fy", "%+.3f kN", sol.Fy*1e-3))
	fmt.Println(viz.Metric("Mz", "%+.4f N·m", sol.Mz))
	fmt.Println(viz.Metric("|F|/N", "%.4f (μ=%.2f)", sol.Magnitude()/patch.NormalForce, sol.Friction))
	fmt.Println(viz.Metric("adhesion", "%.1f %%", sol.AdhesionArea*100))
	if sr := sol.Strip; sr != nil {
		fmt.Println(viz.Metric("strips", "%d (blended: %t)", len(sr.Strips), sr.Blended))
	}

	if w := res.Wear; w != nil {
		fmt.Println(viz.Separator(48))
		for _, line := range wearSummary(w, 0) {
			fmt.Println(line)
		}
	}

	if len(res.Metrics) > 0 {
		fmt.Println(viz.Separator(48))
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(viz.Metric(name, "%.6g", res.Metrics[name]))
		}
	}
}

// wearSummary formats the wear result rows. The wear model reports depth
// in mm and volume in mm³; distance > 0 adds the rolled distance.
func wearSummary(w *wear.Result, distance float64) []string {
	lines := []string{
		viz.Metric("max Tγ", "%.3f N/mm²", w.MaxTGamma),
	}
	if distance > 0 {
		lines = append(lines, viz.Metric("mean Tγ", "%.3f N/mm²", w.MeanTGamma))
	}
	lines = append(lines, viz.Metric("max depth", "%.3e mm", w.MaxDepth))
	if distance > 0 {
		lines = append(lines, viz.Metric("volume", "%.3e mm³ over %g m", w.Volume, distance))
	} else {
		lines = append(lines, viz.Metric("wear volume", "%.3e mm³", w.Volume))
	}
	return lines
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd, nil)
	if err != nil {
		return err
	}
	cfg := p.Config()

	axis, err := cfg.SweepAxis()
	if err != nil {
		return err
	}
	values, err := sweep.Values(cfg.Sweep.Min, cfg.Sweep.Max, cfg.Sweep.Points)
	if err != nil {
		return err
	}

	curve, err := sweep.New(p, cfg.Sweep.Workers, cfg.Sweep.Speed).Run(cmd.Context(), axis, cfg.Creepage, values)
	if err != nil {
		return err
	}

	runID := ""
	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		if runID, err = st.SaveCurve(cfg, curve); err != nil {
			return err
		}
	}
	if outPath != "" {
		if err := export.SaveCreepCurve(curve, outPath, column); err != nil {
			return err
		}
	}

	if jsonOut {
		return store.ExportCurveJSONStdout(curve)
	}

	if err := printCurve(curve); err != nil {
		return err
	}
	chart, err := viz.CreepChart(curve, column, 70, 12)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(chart)
	fmt.Println()
	fmt.Println(viz.Metric("saturation", "%.4f (μ=%.2f)", curve.Saturation(), curve.Friction))
	fmt.Println(viz.Metric("elapsed", "%v", curve.Elapsed))
	if runID != "" {
		fmt.Println(viz.Metric("run id", "%s", runID))
	}
	if outPath != "" {
		fmt.Println(viz.Metric("image", "%s", outPath))
	}
	return nil
}

func printCurve(curve *sweep.Curve) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFX (N)\tFY (N)\tMZ (N·m)\tADHESION\t|F|/N\n", curve.Axis)
	for _, pt := range curve.Points {
		fmt.Fprintf(w, "%.4e\t%.1f\t%.1f\t%.3f\t%.3f\t%.4f\n",
			pt.Value, pt.Forces.Fx, pt.Forces.Fy, pt.Forces.Mz, pt.Forces.AdhesionArea, pt.Coefficient)
	}
	return w.Flush()
}

func runWear(cmd *cobra.Command, args []string) error {
	if listPairs {
		fmt.Println("material pairs:")
		for _, pair := range wear.Pairs() {
			fmt.Printf("  %s\n", pair)
		}
		return nil
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Wear.Enabled = true

	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), nil); err != nil {
		return err
	}
	res, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := res.Wear
	model := wear.NewModel(cfg.Wear.WheelMaterial, cfg.Wear.RailMaterial)
	c := model.Coefficients()
	global := wear.GlobalTGamma(res.Solution.ForceResultant, res.Creepage, res.Patch.Area)

	fmt.Println(viz.Title.Render(fmt.Sprintf("USFD wear: %s on %s", cfg.Wear.WheelMaterial, cfg.Wear.RailMaterial)))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("K1=%g T1=%g K2=%g T2=%g K3=%g C3=%g", c.K1, c.T1, c.K2, c.T2, c.K3, c.C3)))
	fmt.Println(viz.Separator(48))
	fmt.Println(viz.Metric("global Tγ", "%.3f N/mm² (%s)", global, model.Regime(global)))
	for _, line := range wearSummary(w, cfg.Wear.SlidingDistance) {
		fmt.Println(line)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGIME\tPOINTS\tSHARE")
	total := 0
	for _, n := range w.Regimes {
		total += n
	}
	for _, r := range []wear.Regime{wear.Mild, wear.Severe, wear.Catastrophic} {
		share := 0.0
		if total > 0 {
			share = float64(w.Regimes[r]) / float64(total)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", r, w.Regimes[r], share*100)
	}
	return tw.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd, nil)
	if err != nil {
		return err
	}
	save := func(res *experiment.Result) (string, error) {
		st, err := openStore()
		if err != nil {
			return "", err
		}
		return st.Save(p.Config(), res, p.Normal().Name(), p.Tangential().Name())
	}
	return viz.RunExplorer(p, save)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	fmt.Println("normal:")
	for _, name := range reg.ListNormal() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("tangential:")
	for _, name := range reg.ListTangential() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
