package viz

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/sweep"
)

// testContext mirrors testing.T.Context (Go 1.24+): a context cancelled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func pipeline(t *testing.T, c contact.Creepage) *experiment.Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Creepage = c
	p := experiment.New(cfg)
	if err := p.Setup(experiment.NewRegistry(), nil); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return p
}

func TestCanvas_SetAndClear(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(10, 10)

	if !c.IsSet(0, 0) || !c.IsSet(3, 3) {
		t.Error("dots not set")
	}
	if c.IsSet(1, 0) {
		t.Error("unexpected dot")
	}
	if got := c.String(); got != "⠁⢀\n" {
		t.Errorf("String() = %q", got)
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left dots")
	}
}

func countDots(c *Canvas) int {
	n := 0
	for y := 0; y < 4*c.Height; y++ {
		for x := 0; x < 2*c.Width; x++ {
			if c.IsSet(x, y) {
				n++
			}
		}
	}
	return n
}

func TestCanvas_DrawPatch(t *testing.T) {
	stick := pipeline(t, contact.Creepage{})
	res, err := stick.Run(testContext(t))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	full := NewCanvas(20, 6)
	full.DrawPatch(res.Solution)

	slide := pipeline(t, contact.Creepage{Longitudinal: 5e-2})
	res2, err := slide.Run(testContext(t))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	slipping := NewCanvas(20, 6)
	slipping.DrawPatch(res2.Solution)

	if countDots(slipping) >= countDots(full) {
		t.Errorf("slip map should be sparser than full adhesion: %d vs %d", countDots(slipping), countDots(full))
	}

	// patch centre is inside the ellipse, corners are not
	if !full.IsSet(20, 12) {
		t.Error("centre should be filled under full adhesion")
	}
	if full.IsSet(0, 0) || full.IsSet(39, 23) {
		t.Error("corners should be empty")
	}

	empty := NewCanvas(4, 2)
	empty.DrawPatch(nil)
	if countDots(empty) != 0 {
		t.Error("nil solution should draw nothing")
	}
}

func TestCharts(t *testing.T) {
	p := pipeline(t, contact.Creepage{Longitudinal: 1e-3})
	values, _ := sweep.Values(0, 4e-3, 5)
	curve, err := sweep.New(p, 1, 20).Run(testContext(t), config.Longitudinal, contact.Creepage{}, values)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	chart, err := CreepChart(curve, "fx", 40, 6)
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if !strings.Contains(chart, "fx vs longitudinal") {
		t.Errorf("missing caption in %q", chart)
	}
	if _, err := CreepChart(curve, "speed", 40, 6); err == nil {
		t.Error("expected error for unknown column")
	}

	res, err := p.Run(testContext(t))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	shear, bound := CentreLine(res.Solution)
	if len(shear) == 0 || len(shear) != len(bound) {
		t.Fatalf("centre line lengths %d/%d", len(shear), len(bound))
	}
	for i := range shear {
		if shear[i] > bound[i]*(1+1e-9) {
			t.Errorf("τx above μp at %d", i)
		}
	}
	if out := ProfileChart(res.Solution, 30, 5); !strings.Contains(out, "centre line") {
		t.Error("profile chart missing caption")
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExplorer_Keys(t *testing.T) {
	saved := 0
	m, err := NewExplorer(pipeline(t, contact.Creepage{}), func(*experiment.Result) (string, error) {
		saved++
		return "solve_1", nil
	})
	if err != nil {
		t.Fatalf("explorer failed: %v", err)
	}

	m.Update(key("up"))
	m.Update(key("up"))
	if got := m.Creepage().Longitudinal; got < 1.99e-4 || got > 2.01e-4 {
		t.Errorf("ξ = %g, want 2e-4", got)
	}
	if m.Result().Solution.Fx <= 0 {
		t.Error("positive ξ should give positive Fx")
	}

	m.Update(key("tab"))
	if m.Axis() != config.Lateral {
		t.Errorf("axis = %s, want lateral", m.Axis())
	}
	m.Update(key("+"))
	if m.Step() != 1e-3 {
		t.Errorf("step = %g, want 1e-3", m.Step())
	}
	m.Update(key("down"))
	if m.Creepage().Lateral != -1e-3 {
		t.Errorf("η = %g, want -1e-3", m.Creepage().Lateral)
	}
	if m.Result().Solution.Fy >= 0 {
		t.Error("negative η should give negative Fy")
	}

	m.Update(key("s"))
	if saved != 1 || !strings.Contains(m.View(), "saved solve_1") {
		t.Error("save not reported")
	}

	m.Update(key("r"))
	if !m.Creepage().IsZero() {
		t.Errorf("reset left %v", m.Creepage())
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestExplorer_View(t *testing.T) {
	m, err := NewExplorer(pipeline(t, contact.Creepage{Longitudinal: 2e-3}), nil)
	if err != nil {
		t.Fatalf("explorer failed: %v", err)
	}
	view := m.View()
	for _, want := range []string{"ADHESION MAP", "KP + FASTSIM", "longitudinal", "utilization"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.Update(key("s"))
	if !strings.Contains(m.View(), "saving disabled") {
		t.Error("expected disabled save status")
	}

	m.Update(key("?"))
	if !strings.Contains(m.View(), "CREEPAGE EXPLORER") {
		t.Error("help overlay not shown")
	}
}

func TestExplorer_SaveError(t *testing.T) {
	m, err := NewExplorer(pipeline(t, contact.Creepage{}), func(*experiment.Result) (string, error) {
		return "", errors.New("disk full")
	})
	if err != nil {
		t.Fatalf("explorer failed: %v", err)
	}
	m.Update(key("s"))
	if !strings.Contains(m.View(), "save failed: disk full") {
		t.Error("save error not shown")
	}
}
