// Package grid lays out the sampling grid over an elliptical contact patch.
package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wheelrail/internal/contact"
)

// Grid is a cell-centred N×N sampling of [-A, A]×[-B, B]. Column index i
// runs along the rolling direction (X), row index j along the lateral
// direction (Y). Mask[j][i] marks points inside the ellipse.
type Grid struct {
	A, B   float64
	N      int
	Dx, Dy float64
	X      []float64
	Y      []float64
	Mask   [][]bool
	Inside int
}

// New builds the grid for half-axes a, b with n points per direction.
func New(a, b float64, n int) (*Grid, error) {
	if !(a > 0) || !(b > 0) {
		return nil, fmt.Errorf("%w: a=%g b=%g", contact.ErrDegenerateGeometry, a, b)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d", contact.ErrInvalidResolution, n)
	}

	g := &Grid{
		A:    a,
		B:    b,
		N:    n,
		Dx:   2 * a / float64(n),
		Dy:   2 * b / float64(n),
		X:    make([]float64, n),
		Y:    make([]float64, n),
		Mask: make([][]bool, n),
	}

	for i := 0; i < n; i++ {
		g.X[i] = -a + (float64(i)+0.5)*g.Dx
		g.Y[i] = -b + (float64(i)+0.5)*g.Dy
	}

	for j := 0; j < n; j++ {
		g.Mask[j] = make([]bool, n)
		yr := g.Y[j] / b
		for i := 0; i < n; i++ {
			xr := g.X[i] / a
			if xr*xr+yr*yr <= 1.0 {
				g.Mask[j][i] = true
				g.Inside++
			}
		}
	}

	return g, nil
}

// CellArea is the integration weight dx·dy.
func (g *Grid) CellArea() float64 {
	return g.Dx * g.Dy
}

// RowEmpty reports whether row j has no points inside the patch.
func (g *Grid) RowEmpty(j int) bool {
	for _, in := range g.Mask[j] {
		if in {
			return false
		}
	}
	return true
}

// Strip is a lateral band of grid rows.
type Strip struct {
	Index      int
	YMin, YMax float64
	YCenter    float64
	Width      float64
	HalfLength float64
	Rows       []int
}

// Ratio is the strip width over the local patch length.
func (s Strip) Ratio() float64 {
	return s.Width / (2 * s.HalfLength)
}

// Strips splits [-B, B] into k equal bands and assigns each grid row to
// the band containing its Y coordinate (half-open [YMin, YMax)).
func (g *Grid) Strips(k int) ([]Strip, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: strips=%d", contact.ErrInvalidResolution, k)
	}

	width := 2 * g.B / float64(k)
	edges := make([]float64, k+1)
	for s := 0; s < k; s++ {
		edges[s] = -g.B + float64(s)*width
	}
	edges[k] = g.B

	strips := make([]Strip, k)
	for s := range strips {
		yc := (edges[s] + edges[s+1]) / 2
		ratio := yc / g.B
		strips[s] = Strip{
			Index:      s,
			YMin:       edges[s],
			YMax:       edges[s+1],
			YCenter:    yc,
			Width:      width,
			HalfLength: g.A * math.Sqrt(math.Max(0, 1-ratio*ratio)),
		}
	}

	// first band whose upper edge lies above y
	for j, y := range g.Y {
		s := sort.Search(k, func(i int) bool { return edges[i+1] > y })
		if s == k {
			s = k - 1
		}
		strips[s].Rows = append(strips[s].Rows, j)
	}

	return strips, nil
}
