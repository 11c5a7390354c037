// Package export renders creep curves and contact fields to image files.
// The format follows the file extension: .png is rasterized at a fixed
// DPI, anything gonum/plot understands (.svg, .pdf, .eps) is vector.
package export

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/wheelrail/internal/sweep"
	"github.com/san-kum/wheelrail/internal/tangential"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	dpi           = 150
)

var axisLabels = map[string]string{
	"longitudinal": "ξ (-)",
	"lateral":      "η (-)",
	"spin":         "φ (1/m)",
}

var columnLabels = map[string]string{
	"fx":          "Fx (N)",
	"fy":          "Fy (N)",
	"mz":          "Mz (N·m)",
	"adhesion":    "adhesion fraction (-)",
	"coefficient": "|F|/N (-)",
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(8)
	p.Y.Padding = vg.Points(8)
}

// Save writes p to path, choosing the format from the extension.
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) != ".png" {
		return p.Save(DefaultWidth, DefaultHeight, path)
	}

	c := vgimg.NewWith(vgimg.UseWH(DefaultWidth, DefaultHeight), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return bw.Flush()
}

// CreepCurvePlot draws the named columns of curve against the swept value.
func CreepCurvePlot(curve *sweep.Curve, columns ...string) (*plot.Plot, error) {
	if len(curve.Points) == 0 {
		return nil, fmt.Errorf("empty creep curve")
	}
	if len(columns) == 0 {
		columns = []string{"coefficient"}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Creep curve (%s, %s)", curve.Tangential, curve.Axis)
	p.X.Label.Text = axisLabels[curve.Axis]
	if len(columns) == 1 {
		p.Y.Label.Text = columnLabels[columns[0]]
	}
	stylePlot(p)

	xs := curve.Values()
	for k, name := range columns {
		ys, err := curve.Column(name)
		if err != nil {
			return nil, err
		}
		line, err := plotter.NewLine(xys(xs, ys))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(k)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p, nil
}

// SaveCreepCurve renders curve to path.
func SaveCreepCurve(curve *sweep.Curve, path string, columns ...string) error {
	p, err := CreepCurvePlot(curve, columns...)
	if err != nil {
		return err
	}
	return Save(p, path)
}

// CentreRow is the grid row closest to the lateral centre line.
func CentreRow(sol *tangential.Solution) int {
	return sol.Grid.N / 2
}

// TractionProfilePlot draws the longitudinal traction and the traction
// bound μp along the centre row of the patch.
func TractionProfilePlot(sol *tangential.Solution) (*plot.Plot, error) {
	if sol == nil || sol.Grid == nil {
		return nil, fmt.Errorf("no traction field")
	}
	g := sol.Grid
	j := CentreRow(sol)

	var xs, shear, bound, neg []float64
	for i := 0; i < g.N; i++ {
		if !g.Mask[j][i] {
			continue
		}
		xs = append(xs, g.X[i]*1e3)
		shear = append(shear, sol.ShearX.At(j, i)*1e-6)
		b := sol.TractionBound(j, i) * 1e-6
		bound = append(bound, b)
		neg = append(neg, -b)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("centre row %d is outside the patch", j)
	}

	p := plot.New()
	p.Title.Text = "Traction along the centre line"
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "stress (MPa)"
	stylePlot(p)

	series := []struct {
		name string
		ys   []float64
	}{
		{"τx", shear},
		{"μp", bound},
		{"-μp", neg},
	}
	for k, s := range series {
		line, err := plotter.NewLine(xys(xs, s.ys))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(k)
		if k > 0 {
			line.LineStyle.Dashes = plotutil.Dashes(1)
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func SaveTractionProfile(sol *tangential.Solution, path string) error {
	p, err := TractionProfilePlot(sol)
	if err != nil {
		return err
	}
	return Save(p, path)
}

// Fields accepted by FieldPlot.
var Fields = []string{"pressure", "shear", "slip"}

// FieldPlot draws one solution field over the patch as a heat map. Points
// outside the ellipse are drawn as zero.
func FieldPlot(sol *tangential.Solution, field string) (*plot.Plot, error) {
	if sol == nil || sol.Grid == nil {
		return nil, fmt.Errorf("no traction field")
	}

	var z fieldGrid
	z.sol = sol
	switch field {
	case "pressure":
		z.value = func(j, i int) float64 { return sol.Pressure.At(j, i) * 1e-6 }
	case "shear":
		z.value = func(j, i int) float64 { return hypot(sol.ShearX, sol.ShearY, j, i) * 1e-6 }
	case "slip":
		z.value = func(j, i int) float64 { return hypot(sol.SlipX, sol.SlipY, j, i) }
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Contact %s", field)
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"
	stylePlot(p)

	hm := plotter.NewHeatMap(z, palette.Heat(32, 1))
	p.Add(hm)
	return p, nil
}

func SaveField(sol *tangential.Solution, field, path string) error {
	p, err := FieldPlot(sol, field)
	if err != nil {
		return err
	}
	return Save(p, path)
}

// fieldGrid adapts a solution field to plotter.GridXYZ. Columns follow
// the rolling direction, rows the lateral one, both in millimetres.
type fieldGrid struct {
	sol   *tangential.Solution
	value func(j, i int) float64
}

func (f fieldGrid) Dims() (c, r int) { return f.sol.Grid.N, f.sol.Grid.N }

func (f fieldGrid) Z(c, r int) float64 {
	if !f.sol.Grid.Mask[r][c] {
		return 0
	}
	return f.value(r, c)
}

func (f fieldGrid) X(c int) float64 { return f.sol.Grid.X[c] * 1e3 }

func (f fieldGrid) Y(r int) float64 { return f.sol.Grid.Y[r] * 1e3 }

func hypot(x, y *mat.Dense, j, i int) float64 {
	return math.Hypot(x.At(j, i), y.At(j, i))
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
