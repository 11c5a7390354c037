package viz

import (
	"math"
	"strings"

	"github.com/san-kum/wheelrail/internal/tangential"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a dot canvas of Width×Height braille cells, so 2·Width by
// 4·Height addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// DrawPatch renders the adhesion map of sol filling the whole canvas.
// Rolling direction runs left to right, the leading edge on the right.
// Adhesion cells are solid, slip cells are checkered and the ellipse
// outline is always drawn.
func (c *Canvas) DrawPatch(sol *tangential.Solution) {
	c.Clear()
	if sol == nil || sol.Grid == nil {
		return
	}
	g := sol.Grid
	dotsX, dotsY := 2*c.Width, 4*c.Height

	for py := 0; py < dotsY; py++ {
		y := g.B - (float64(py)+0.5)/float64(dotsY)*2*g.B
		j := int((y + g.B) / g.Dy)
		if j < 0 || j >= g.N {
			continue
		}
		for px := 0; px < dotsX; px++ {
			x := -g.A + (float64(px)+0.5)/float64(dotsX)*2*g.A
			i := int((x + g.A) / g.Dx)
			if i < 0 || i >= g.N || !g.Mask[j][i] {
				continue
			}
			if sol.Adhesion[j][i] || (px+py)%2 == 0 {
				c.Set(px, py)
			}
		}
	}

	steps := 4 * (dotsX + dotsY)
	for k := 0; k < steps; k++ {
		t := 2 * math.Pi * float64(k) / float64(steps)
		px := int((math.Cos(t) + 1) / 2 * float64(dotsX-1))
		py := int((1 - math.Sin(t)) / 2 * float64(dotsY-1))
		c.Set(px, py)
	}
}
