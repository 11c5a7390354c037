package normal

import "math"

// Curvatures are the relative principal curvatures of the undeformed gap
// h(x, y) = A·x² + B·y², in 1/m.
type Curvatures struct {
	Longitudinal float64
	Lateral      float64
}

// Sum returns A + B.
func (c Curvatures) Sum() float64 {
	return c.Longitudinal + c.Lateral
}

// CurvaturesFor derives the gap curvatures from the wheel rolling radius,
// the rail head radius and the wheelset yaw angle.
func CurvaturesFor(wheelRadius, railRadius, yaw float64) Curvatures {
	a := 1 / (2 * wheelRadius)
	b := 1 / (2 * railRadius)

	if math.Abs(yaw) > 1e-6 {
		c, s := math.Cos(yaw), math.Sin(yaw)
		a, b = a*c*c+b*s*s, b*c*c+a*s*s
	}

	return Curvatures{Longitudinal: a, Lateral: b}
}
