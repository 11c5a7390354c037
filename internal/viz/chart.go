package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/wheelrail/internal/sweep"
	"github.com/san-kum/wheelrail/internal/tangential"
)

// CreepChart plots one column of a creep curve against the swept creepage.
func CreepChart(curve *sweep.Curve, column string, width, height int) (string, error) {
	data, err := curve.Column(column)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty creep curve")
	}
	values := curve.Values()
	caption := fmt.Sprintf("%s vs %s [%.3g, %.3g]", column, curve.Axis, values[0], values[len(values)-1])
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// CentreLine returns the longitudinal traction and its bound μp in MPa
// along the row closest to y = 0, leading edge last.
func CentreLine(sol *tangential.Solution) (shear, bound []float64) {
	if sol == nil || sol.Grid == nil {
		return nil, nil
	}
	g := sol.Grid
	j := g.N / 2
	for i := 0; i < g.N; i++ {
		if !g.Mask[j][i] {
			continue
		}
		shear = append(shear, sol.ShearX.At(j, i)*1e-6)
		bound = append(bound, sol.TractionBound(j, i)*1e-6)
	}
	return shear, bound
}

// ProfileChart plots τx (blue) against μp (red) along the centre line.
func ProfileChart(sol *tangential.Solution, width, height int) string {
	shear, bound := CentreLine(sol)
	if len(shear) < 2 {
		return Subtle.Render("(no traction profile)")
	}
	return asciigraph.PlotMany([][]float64{shear, bound},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption("τx and μp along the centre line (MPa)"),
	)
}
