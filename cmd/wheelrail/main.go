package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/metrics"
	"github.com/san-kum/wheelrail/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	// contact model
	normalModel     string
	tangentialModel string
	normalForce     float64
	penetration     float64
	xi              float64
	eta             float64
	phi             float64
	friction        float64
	yawAngle        float64
	wheelRadius     float64
	railRadius      float64
	normalGrid      int
	tangentialGrid  int
	strips          int
	withWear        bool

	// sweep
	sweepAxis    string
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	sweepWorkers int
	speed        float64

	// output
	noSave   bool
	jsonOut  bool
	showPlot bool
	outPath  string
	column   string
)

// main registers the commands and runs the root command, exiting with
// status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "wheelrail",
		Short: "wheel-rail rolling contact solver",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wheelrail", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve one contact: patch, traction and optional wear",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	addContactFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	solveCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	solveCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the centre-line traction")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compute a creep curve",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addContactFlags(sweepCmd)
	addSweepFlags(sweepCmd)
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	sweepCmd.Flags().BoolVar(&jsonOut, "json", false, "print the curve as JSON")
	sweepCmd.Flags().StringVar(&outPath, "out", "", "also render the curve to an image (.png, .svg, .pdf)")
	sweepCmd.Flags().StringVar(&column, "column", "coefficient", "column to plot")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "explore creepage interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addContactFlags(liveCmd)

	wearCmd := &cobra.Command{
		Use:   "wear",
		Short: "evaluate USFD wear for one contact",
		Args:  cobra.NoArgs,
		RunE:  runWear,
	}
	addContactFlags(wearCmd)
	addWearFlags(wearCmd)

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "fit strip blend constants to a reference creep curve",
		Args:  cobra.NoArgs,
		RunE:  runCalibrate,
	}
	addContactFlags(calibrateCmd)
	addCalibrateFlags(calibrateCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML batch of contact evaluations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the operating point and summarise the forces",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addContactFlags(montecarloCmd)
	addMonteCarloFlags(montecarloCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list contact presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list normal and tangential solvers",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal or to an image",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outPath, "out", "", "render to an image (.png, .svg, .pdf) instead of the terminal")
	plotCmd.Flags().StringVar(&column, "column", "coefficient", "curve column, or field (pressure, shear, slip) for solve runs")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "write to file instead of stdout")

	rootCmd.AddCommand(solveCmd, sweepCmd, liveCmd, wearCmd, calibrateCmd, scenarioCmd, montecarloCmd,
		presetsCmd, modelsCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}

func addContactFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&normalModel, "normal", config.DefaultNormalModel, "normal solver (kp, mkp)")
	f.StringVar(&tangentialModel, "tangential", config.DefaultTangentialModel, "tangential solver (fastsim, fastrip)")
	f.Float64Var(&normalForce, "force", config.DefaultNormalForce, "normal force in N")
	f.Float64Var(&penetration, "penetration", 0, "prescribed penetration in m (replaces --force)")
	f.Float64Var(&xi, "xi", 0, "longitudinal creepage")
	f.Float64Var(&eta, "eta", 0, "lateral creepage")
	f.Float64Var(&phi, "phi", 0, "spin creepage in 1/m")
	f.Float64Var(&friction, "friction", 0.3, "coefficient of friction")
	f.Float64Var(&yawAngle, "yaw", 0, "yaw angle in rad")
	f.Float64Var(&wheelRadius, "wheel-radius", config.DefaultWheelRadius, "wheel rolling radius in m")
	f.Float64Var(&railRadius, "rail-radius", config.DefaultRailRadius, "rail head transverse radius in m")
	f.IntVar(&normalGrid, "grid", 0, "normal discretization (points per axis)")
	f.IntVar(&tangentialGrid, "tgrid", 0, "tangential discretization (0: patch resolution)")
	f.IntVar(&strips, "strips", 0, "number of strips (fastrip)")
	f.BoolVar(&withWear, "wear", false, "evaluate USFD wear")
}

func addSweepFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sweepAxis, "axis", "longitudinal", "swept creepage (longitudinal, lateral, spin)")
	f.Float64Var(&sweepMin, "min", 0, "first creepage value")
	f.Float64Var(&sweepMax, "max", 1e-2, "last creepage value")
	f.IntVar(&sweepPoints, "points", config.DefaultSweepPoints, "number of points")
	f.IntVar(&sweepWorkers, "workers", 0, "parallel workers (0: one per CPU)")
	f.Float64Var(&speed, "speed", config.DefaultSpeed, "rolling speed in m/s for frictional power")
}

// resolveConfig layers preset, YAML file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.Merge(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("normal") {
		cfg.Normal.Model = normalModel
	}
	if f.Changed("tangential") {
		cfg.Tangential.Model = tangentialModel
	}
	if f.Changed("force") {
		cfg.Load = config.LoadConfig{NormalForce: normalForce}
	}
	if f.Changed("penetration") {
		cfg.Load = config.LoadConfig{Penetration: penetration}
	}
	if f.Changed("xi") {
		cfg.Creepage.Longitudinal = xi
	}
	if f.Changed("eta") {
		cfg.Creepage.Lateral = eta
	}
	if f.Changed("phi") {
		cfg.Creepage.Spin = phi
	}
	if f.Changed("friction") {
		cfg.Tangential.Friction = friction
	}
	if f.Changed("yaw") {
		cfg.Normal.YawAngle = yawAngle
	}
	if f.Changed("wheel-radius") {
		cfg.Normal.WheelRadius = wheelRadius
	}
	if f.Changed("rail-radius") {
		cfg.Normal.RailRadius = railRadius
	}
	if f.Changed("grid") {
		cfg.Normal.Discretization = normalGrid
	}
	if f.Changed("tgrid") {
		cfg.Tangential.Discretization = tangentialGrid
	}
	if f.Changed("strips") {
		cfg.Tangential.Strips = strips
	}
	if f.Changed("wear") {
		cfg.Wear.Enabled = withWear
	}
	if f.Changed("axis") {
		cfg.Sweep.Axis = sweepAxis
	}
	if f.Changed("min") {
		cfg.Sweep.Min = sweepMin
	}
	if f.Changed("max") {
		cfg.Sweep.Max = sweepMax
	}
	if f.Changed("points") {
		cfg.Sweep.Points = sweepPoints
	}
	if f.Changed("workers") {
		cfg.Sweep.Workers = sweepWorkers
	}
	if f.Changed("speed") {
		cfg.Sweep.Speed = speed
	}
	applyWearFlags(cmd, cfg)
	return cfg, nil
}

// newPipeline resolves the config and builds a set-up pipeline.
func newPipeline(cmd *cobra.Command, ms []metrics.Metric) (*experiment.Pipeline, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), ms); err != nil {
		return nil, err
	}
	return p, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
