package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/export"
	"github.com/san-kum/wheelrail/internal/storage"
	"github.com/san-kum/wheelrail/internal/store"
	"github.com/san-kum/wheelrail/internal/sweep"
	"github.com/san-kum/wheelrail/internal/viz"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tNORMAL\tTANGENTIAL\tFN (kN)\tDETAIL")

	for _, run := range runs {
		detail := run.Creepage.String()
		if run.Kind == storage.KindSweep {
			detail = fmt.Sprintf("%s, %d points", run.Axis, run.Points)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Normal,
			run.Tangential,
			run.NormalForce*1e-3,
			detail,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.Metric("kind", "%s", meta.Kind))
	fmt.Println(viz.Metric("time", "%s", meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Println(viz.Metric("models", "%s + %s", meta.Normal, meta.Tangential))
	fmt.Println(viz.Metric("normal force", "%.2f kN", meta.NormalForce*1e-3))
	fmt.Println(viz.Metric("friction", "%.2f", meta.Friction))
	fmt.Println(viz.Metric("creepage", "%s", meta.Creepage))

	if meta.Kind == storage.KindSweep {
		fmt.Println(viz.Metric("axis", "%s (%d points)", meta.Axis, meta.Points))
	} else {
		fmt.Println(viz.Separator(48))
		fmt.Println(viz.Metric("semi-axes", "a=%.3f b=%.3f mm", meta.SemiAxisA*1e3, meta.SemiAxisB*1e3))
		fmt.Println(viz.Metric("p0", "%.1f MPa", meta.MaxPressure*1e-6))
		fmt.Println(viz.Metric("Fx", "%+.3f kN", meta.Result.Fx*1e-3))
		fmt.Println(viz.Metric("Fy", "%+.3f kN", meta.Result.Fy*1e-3))
		fmt.Println(viz.Metric("Mz", "%+.4f N·m", meta.Result.Mz))
		fmt.Println(viz.Metric("adhesion", "%.1f %%", meta.Result.AdhesionArea*100))
		if meta.WearVolume > 0 {
			fmt.Println(viz.Metric("wear volume", "%.3e mm³", meta.WearVolume))
		}
	}

	if len(meta.Metrics) > 0 {
		fmt.Println(viz.Separator(48))
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(viz.Metric(name, "%.6g", meta.Metrics[name]))
		}
	}
	return nil
}

// replay re-evaluates a stored solve run from its saved config.
func replay(ctx context.Context, meta *storage.RunMetadata) (*experiment.Pipeline, *experiment.Result, error) {
	if meta.Config == nil {
		return nil, nil, fmt.Errorf("run %s has no stored config", meta.ID)
	}
	cfg := *meta.Config
	cfg.Creepage = meta.Creepage
	p := experiment.New(&cfg)
	if err := p.Setup(experiment.NewRegistry(), nil); err != nil {
		return nil, nil, err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, res, nil
}

// loadCurve rebuilds a creep curve from a stored sweep run.
func loadCurve(st *storage.Store, meta *storage.RunMetadata) (*sweep.Curve, error) {
	points, err := st.LoadCurve(meta.ID)
	if err != nil {
		return nil, err
	}
	return &sweep.Curve{
		Axis:        meta.Axis,
		Base:        meta.Creepage,
		Normal:      meta.Normal,
		Tangential:  meta.Tangential,
		NormalForce: meta.NormalForce,
		Friction:    meta.Friction,
		Points:      points,
		Metrics:     meta.Metrics,
	}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if meta.Kind == storage.KindSweep {
		curve, err := loadCurve(st, meta)
		if err != nil {
			return err
		}
		if len(curve.Points) == 0 {
			return fmt.Errorf("no data to plot")
		}
		if outPath != "" {
			return export.SaveCreepCurve(curve, outPath, column)
		}
		chart, err := viz.CreepChart(curve, column, 80, 15)
		if err != nil {
			return err
		}
		fmt.Printf("run: %s\n\n", meta.ID)
		fmt.Println(chart)
		return nil
	}

	_, res, err := replay(cmd.Context(), meta)
	if err != nil {
		return err
	}
	if outPath != "" {
		if cmd.Flags().Changed("column") {
			return export.SaveField(res.Solution, column, outPath)
		}
		return export.SaveTractionProfile(res.Solution, outPath)
	}

	canvas := viz.NewCanvas(60, 15)
	canvas.DrawPatch(res.Solution)
	fmt.Printf("run: %s\n\n", meta.ID)
	fmt.Println(canvas.String())
	fmt.Println(viz.ProfileChart(res.Solution, 80, 12))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if meta.Kind == storage.KindSweep {
		points, err := st.LoadCurve(meta.ID)
		if err != nil {
			return err
		}
		if err := w.Write([]string{meta.Axis, "fx", "fy", "mz", "adhesion", "coefficient"}); err != nil {
			return err
		}
		for _, pt := range points {
			row := []string{
				formatFloat(pt.Value),
				formatFloat(pt.Forces.Fx),
				formatFloat(pt.Forces.Fy),
				formatFloat(pt.Forces.Mz),
				formatFloat(pt.Forces.AdhesionArea),
				formatFloat(pt.Coefficient),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	rows, err := st.LoadField(meta.ID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to export")
	}
	if err := w.Write([]string{"x", "y", "pressure", "shear_x", "shear_y", "slip_x", "slip_y", "adhesion", "tgamma"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Pressure),
			formatFloat(r.ShearX), formatFloat(r.ShearY),
			formatFloat(r.SlipX), formatFloat(r.SlipY),
			strconv.FormatBool(r.Adhesion), formatFloat(r.TGamma),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if meta.Kind == storage.KindSweep {
		curve, err := loadCurve(st, meta)
		if err != nil {
			return err
		}
		if outPath != "" {
			return store.ExportCurveJSON(outPath, curve)
		}
		return store.ExportCurveJSONStdout(curve)
	}

	p, res, err := replay(cmd.Context(), meta)
	if err != nil {
		return err
	}
	res.Metrics = meta.Metrics
	if outPath != "" {
		return store.ExportJSON(outPath, res, p.Normal().Name(), p.Tangential().Name())
	}
	return store.ExportJSONStdout(res, p.Normal().Name(), p.Tangential().Name())
}
