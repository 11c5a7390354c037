package tangential

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelrail/internal/contact"
)

// Flexibility holds the simplified-theory flexibility parameters in m/Pa.
// L1 couples longitudinal traction, L2 lateral traction and L3 spin.
type Flexibility struct {
	L1, L2, L3 float64
}

// KalkerCoefficients returns the polynomial fits of C11, C22 and C23 for
// half-axes a (rolling) and b (lateral).
func KalkerCoefficients(a, b float64) (c11, c22, c23 float64) {
	g := math.Max(a/b, b/a)
	if a >= b {
		return 2.39 + 0.338*g, 2.39 + 0.517/g, 0.442 + 0.165/g
	}
	return 2.39 + 0.338/g, 2.39 + 0.517*g, 0.442 + 0.165*g
}

// KalkerFlexibility is the whole-patch flexibility used by FastSim.
func KalkerFlexibility(a, b, shearModulus float64) (Flexibility, error) {
	if !(a > 0) || !(b > 0) {
		return Flexibility{}, fmt.Errorf("%w: a=%g b=%g", contact.ErrDegenerateGeometry, a, b)
	}
	if !(shearModulus > 0) {
		return Flexibility{}, fmt.Errorf("%w: shear modulus %g", contact.ErrInvalidGeometry, shearModulus)
	}

	c11, c22, c23 := KalkerCoefficients(a, b)
	return Flexibility{
		L1: 8 * a / (3 * c11 * shearModulus),
		L2: 8 * a / (3 * c22 * shearModulus),
		L3: math.Pi * a * math.Sqrt(a/b) / (4 * shearModulus * c23),
	}, nil
}

// StripFlexibility is the local flexibility of a strip with half-length
// halfLength and width w. Narrow strips (small w/2a_k) approach the
// two-dimensional line-contact values.
func StripFlexibility(halfLength, width, poisson, shearModulus float64) (Flexibility, error) {
	if !(halfLength > 0) || !(width > 0) {
		return Flexibility{}, fmt.Errorf("%w: strip half-length %g, width %g",
			contact.ErrDegenerateGeometry, halfLength, width)
	}
	if !(shearModulus > 0) {
		return Flexibility{}, fmt.Errorf("%w: shear modulus %g", contact.ErrInvalidGeometry, shearModulus)
	}

	r := width / (2 * halfLength)
	widen := 1 + 1.15*r
	l1 := 4 * (1 - poisson) * halfLength / (math.Pi * shearModulus) * widen
	l2 := 4 * halfLength / (math.Pi * shearModulus) * widen

	return Flexibility{
		L1: l1,
		L2: l2,
		L3: math.Sqrt(l1*l2) * (1 + 0.5*math.Sqrt(r)),
	}, nil
}

// LinearForces is the small-creepage linear estimate of Fx and Fy for a
// patch with half-axes a, b under flexibility f.
func LinearForces(a, b float64, f Flexibility, c contact.Creepage) (fx, fy float64) {
	area := 8 * a * a * b / 3
	fx = area * c.Longitudinal / f.L1
	fy = area*c.Lateral/f.L2 + math.Pi*a*a*a*b/4*c.Spin/f.L3
	return fx, fy
}
