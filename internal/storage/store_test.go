package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/metrics"
	"github.com/san-kum/wheelrail/internal/sweep"
)

func solve(t *testing.T, cfg *config.Config) (*experiment.Pipeline, *experiment.Result) {
	t.Helper()
	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), metrics.Defaults(20)); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return p, res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("curving")
	p, res := solve(t, cfg)

	runID, err := st.Save(cfg, res, p.Normal().Name(), p.Tangential().Name())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Kind != KindSolve {
		t.Errorf("expected kind solve, got %s", meta.Kind)
	}
	if meta.Tangential != "fastrip" {
		t.Errorf("expected fastrip, got %s", meta.Tangential)
	}
	if meta.Result != res.Solution.ForceResultant {
		t.Errorf("result %+v, want %+v", meta.Result, res.Solution.ForceResultant)
	}
	if meta.WearVolume <= 0 {
		t.Errorf("expected wear volume for curving preset, got %g", meta.WearVolume)
	}
	if meta.Config == nil || meta.Config.Normal.YawAngle != cfg.Normal.YawAngle {
		t.Error("config not stored")
	}

	rows, err := st.LoadField(runID)
	if err != nil {
		t.Fatalf("load field failed: %v", err)
	}
	if len(rows) != res.Solution.Grid.Inside {
		t.Errorf("expected %d field rows, got %d", res.Solution.Grid.Inside, len(rows))
	}
	adhesion := 0
	for _, r := range rows {
		if r.Adhesion {
			adhesion++
		}
	}
	if got := float64(adhesion) / float64(len(rows)); got != res.Solution.AdhesionArea {
		t.Errorf("stored adhesion fraction %g, want %g", got, res.Solution.AdhesionArea)
	}
}

func TestStoreSaveCurve(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), nil); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	values, _ := sweep.Values(0, 5e-3, 5)
	curve, err := sweep.New(p, 2, 20).Run(context.Background(), config.Longitudinal, contact.Creepage{}, values)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	runID, err := st.SaveCurve(cfg, curve)
	if err != nil {
		t.Fatalf("save curve failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, runID, "curve.csv")); os.IsNotExist(err) {
		t.Error("curve.csv not created")
	}

	points, err := st.LoadCurve(runID)
	if err != nil {
		t.Fatalf("load curve failed: %v", err)
	}
	if len(points) != len(values) {
		t.Fatalf("expected %d points, got %d", len(values), len(points))
	}
	for i, pt := range points {
		if pt.Value != values[i] {
			t.Errorf("point %d value %g, want %g", i, pt.Value, values[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg := config.DefaultConfig()
	p, res := solve(t, cfg)
	for i := 0; i < 2; i++ {
		if _, err := st.Save(cfg, res, p.Normal().Name(), p.Tangential().Name()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
