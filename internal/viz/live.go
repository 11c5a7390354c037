package viz

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
)

const (
	mapWidth        = 40
	mapHeight       = 12
	chartWidth      = 44
	chartHeight     = 8
	historyLength   = 60
	defaultStep     = 1e-4
	defaultSpinStep = 0.1
)

var axes = []config.Axis{config.Longitudinal, config.Lateral, config.Spin}

// SaveFunc persists the current evaluation and returns a run id.
type SaveFunc func(res *experiment.Result) (string, error)

// Explorer is an interactive view of one contact patch under changing
// creepage. The patch is solved once; every key press re-runs the
// tangential stage.
type Explorer struct {
	pipeline *experiment.Pipeline
	patch    *contact.Patch
	initial  contact.Creepage
	creepage contact.Creepage
	selected int
	steps    [3]float64
	result   *experiment.Result
	err      error
	canvas   *Canvas
	history  []float64
	save     SaveFunc
	status   string
	showHelp bool
}

// NewExplorer solves the patch of a set-up pipeline and evaluates the
// configured creepage. save may be nil.
func NewExplorer(p *experiment.Pipeline, save SaveFunc) (*Explorer, error) {
	patch, err := p.Patch()
	if err != nil {
		return nil, err
	}
	c := p.Config().Creepage
	m := &Explorer{
		pipeline: p,
		patch:    patch,
		initial:  c,
		creepage: c,
		steps:    [3]float64{defaultStep, defaultStep, defaultSpinStep},
		canvas:   NewCanvas(mapWidth, mapHeight),
		history:  make([]float64, 0, historyLength),
		save:     save,
	}
	m.evaluate()
	return m, nil
}

func (m *Explorer) Creepage() contact.Creepage { return m.creepage }

func (m *Explorer) Result() *experiment.Result { return m.result }

func (m *Explorer) Axis() config.Axis { return axes[m.selected] }

func (m *Explorer) Step() float64 { return m.steps[m.selected] }

func (m *Explorer) evaluate() {
	res, err := m.pipeline.Evaluate(context.Background(), m.patch, m.creepage)
	m.err = err
	if err != nil {
		return
	}
	m.result = res
	m.canvas.DrawPatch(res.Solution)

	m.history = append(m.history, res.Solution.Magnitude()/m.patch.NormalForce)
	if len(m.history) > historyLength {
		m.history = m.history[1:]
	}
}

func (m *Explorer) value() float64 {
	switch m.Axis() {
	case config.Lateral:
		return m.creepage.Lateral
	case config.Spin:
		return m.creepage.Spin
	}
	return m.creepage.Longitudinal
}

func (m *Explorer) adjust(dir float64) {
	m.creepage = m.Axis().With(m.creepage, m.value()+dir*m.Step())
	m.status = ""
	m.evaluate()
}

func (m *Explorer) scaleStep(factor float64) {
	m.steps[m.selected] *= factor
}

func (m *Explorer) reset() {
	m.creepage = m.initial
	m.history = m.history[:0]
	m.status = ""
	m.evaluate()
}

func (m *Explorer) Init() tea.Cmd { return nil }

func (m *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.selected = (m.selected + 1) % len(axes)
	case "shift+tab":
		m.selected = (m.selected + len(axes) - 1) % len(axes)
	case "up", "k", "right", "l":
		m.adjust(1)
	case "down", "j", "left", "h":
		m.adjust(-1)
	case "+", "=":
		m.scaleStep(10)
	case "-", "_":
		m.scaleStep(0.1)
	case "0":
		m.creepage = m.Axis().With(m.creepage, 0)
		m.evaluate()
	case "r":
		m.reset()
	case "s":
		m.saveRun()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Explorer) saveRun() {
	if m.save == nil || m.result == nil {
		m.status = "saving disabled"
		return
	}
	id, err := m.save(m.result)
	if err != nil {
		m.status = "save failed: " + err.Error()
		return
	}
	m.status = "saved " + id
}

func (m *Explorer) View() string {
	left := Title.Render("ADHESION MAP") + "  " + Subtle.Render("rolling →") + "\n" +
		m.canvas.String() + Subtle.Render("solid: adhesion  checkered: slip")

	var s strings.Builder
	cfg := m.pipeline.Config()
	s.WriteString(Title.Render(strings.ToUpper(fmt.Sprintf("%s + %s", m.pipeline.Normal().Name(), m.pipeline.Tangential().Name()))) + "\n")
	s.WriteString(Metric("normal force", "%.1f kN", m.patch.NormalForce*1e-3) + "\n")
	s.WriteString(Metric("semi-axes", "%.2f × %.2f mm", m.patch.A*1e3, m.patch.B*1e3) + "\n")
	s.WriteString(Metric("p0", "%.0f MPa", m.patch.MaxPressure*1e-6) + "\n")
	s.WriteString(Metric("friction", "%.2f", cfg.Tangential.Friction) + "\n\n")

	s.WriteString("CREEPAGE\n")
	vals := [3]float64{m.creepage.Longitudinal, m.creepage.Lateral, m.creepage.Spin}
	for i, a := range axes {
		line := fmt.Sprintf("%-13s %+.3e  (±%.0e)", a.String(), vals[i], m.steps[i])
		if i == m.selected {
			s.WriteString(Selected.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(ErrorText.Render(m.err.Error()) + "\n")
	} else if m.result != nil {
		sol := m.result.Solution
		coef := sol.Magnitude() / m.patch.NormalForce
		s.WriteString(Metric("Fx", "%+.2f kN", sol.Fx*1e-3) + "\n")
		s.WriteString(Metric("Fy", "%+.2f kN", sol.Fy*1e-3) + "\n")
		s.WriteString(Metric("Mz", "%+.3f N·m", sol.Mz) + "\n")
		s.WriteString(Metric("|F|/N", "%.4f", coef) + "\n")
		s.WriteString(Metric("adhesion", "%.1f %%", sol.AdhesionArea*100) + "\n")
		util := 0.0
		if sol.Friction > 0 {
			util = math.Min(coef/sol.Friction, 1)
		}
		s.WriteString(MetricLabel.Render("utilization") + UtilizationBar(util, 20) + "\n")
		if sol.Strip != nil && sol.Strip.Blended {
			s.WriteString(Subtle.Render(fmt.Sprintf("blended ×%.3f / ×%.3f", sol.Strip.CorrectionX, sol.Strip.CorrectionY)) + "\n")
		}
	}
	if len(m.history) > 1 {
		s.WriteString("\n" + asciigraph.Plot(m.history,
			asciigraph.Height(3),
			asciigraph.Width(30),
			asciigraph.Caption("|F|/N history"),
		) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + KeyHint.Render(m.status) + "\n")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(left), Panel.Render(s.String()))

	var bottom string
	if m.result != nil {
		bottom = ProfileChart(m.result.Solution, chartWidth, chartHeight)
	}
	help := KeyHint.Render("tab: axis  ↑↓: adjust  +/-: step  0: zero  r: reset  s: save  ?: help  q: quit")
	view := lipgloss.JoinVertical(lipgloss.Left, top, bottom, Separator(chartWidth+10), help)

	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
╔══════════════════════════════════════╗
║            CREEPAGE EXPLORER         ║
╠══════════════════════════════════════╣
║  Tab      - Next creepage component  ║
║  Up/K     - Increase by one step     ║
║  Down/J   - Decrease by one step     ║
║  + / -    - Step ×10 / ÷10           ║
║  0        - Zero the component       ║
║  R        - Reset creepage           ║
║  S        - Save run                 ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// RunExplorer starts the explorer on the alternate screen.
func RunExplorer(p *experiment.Pipeline, save SaveFunc) error {
	m, err := NewExplorer(p, save)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
