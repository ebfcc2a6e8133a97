package gate

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Matrix conventions: the first listed qubit of a gate is the most
// significant bit of the local basis index, matching the register-wide bit
// order. Rotations follow the standard generators RX(t)=exp(-i*t*X/2),
// RY(t)=exp(-i*t*Y/2), RZ(t)=exp(-i*t*Z/2) and their two-qubit XX/YY/ZZ
// analogues; the same convention is assumed by the reduced-state Bloch
// extraction and by the test oracles.

const invSqrt2 = 1.0 / math.Sqrt2

func dense2(a, b, c, d complex128) *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{a, b, c, d})
}

func matI() *mat.CDense { return dense2(1, 0, 0, 1) }
func matX() *mat.CDense { return dense2(0, 1, 1, 0) }
func matY() *mat.CDense { return dense2(0, -1i, 1i, 0) }
func matZ() *mat.CDense { return dense2(1, 0, 0, -1) }

func matH() *mat.CDense {
	h := complex(invSqrt2, 0)
	return dense2(h, h, h, -h)
}

func matS() *mat.CDense { return dense2(1, 0, 0, 1i) }

func matT() *mat.CDense {
	return dense2(1, 0, 0, cmplx.Exp(complex(0, math.Pi/4)))
}

func matSqrtX() *mat.CDense {
	p := complex(0.5, 0.5)  // (1+i)/2
	m := complex(0.5, -0.5) // (1-i)/2
	return dense2(p, m, m, p)
}

func matSqrtY() *mat.CDense {
	p := complex(0.5, 0.5)
	return dense2(p, -p, p, p)
}

func matRX(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return dense2(c, s, s, c)
}

func matRY(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return dense2(c, -s, s, c)
}

func matRZ(theta float64) *mat.CDense {
	return dense2(cmplx.Exp(complex(0, -theta/2)), 0, 0, cmplx.Exp(complex(0, theta/2)))
}

func matP(phi float64) *mat.CDense {
	return dense2(1, 0, 0, cmplx.Exp(complex(0, phi)))
}

func matCNOT() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	})
}

func matCZ() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, -1,
	})
}

func matSWAP() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	})
}

func matCY() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, -1i,
		0, 0, 1i, 0,
	})
}

func matCH() *mat.CDense {
	h := complex(invSqrt2, 0)
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, h, h,
		0, 0, h, -h,
	})
}

func matRXX(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return mat.NewCDense(4, 4, []complex128{
		c, 0, 0, s,
		0, c, s, 0,
		0, s, c, 0,
		s, 0, 0, c,
	})
}

func matRYY(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return mat.NewCDense(4, 4, []complex128{
		c, 0, 0, -s,
		0, c, s, 0,
		0, s, c, 0,
		-s, 0, 0, c,
	})
}

func matRZZ(theta float64) *mat.CDense {
	e0 := cmplx.Exp(complex(0, -theta/2))
	e1 := cmplx.Exp(complex(0, theta/2))
	return mat.NewCDense(4, 4, []complex128{
		e0, 0, 0, 0,
		0, e1, 0, 0,
		0, 0, e1, 0,
		0, 0, 0, e0,
	})
}

// CCNOT: qubits [control, control, target].
func matCCNOT() *mat.CDense {
	m := identity(8)
	m.Set(6, 6, 0)
	m.Set(7, 7, 0)
	m.Set(6, 7, 1)
	m.Set(7, 6, 1)
	return m
}

// FREDKIN: qubits [control, swap, swap].
func matFREDKIN() *mat.CDense {
	m := identity(8)
	m.Set(5, 5, 0)
	m.Set(6, 6, 0)
	m.Set(5, 6, 1)
	m.Set(6, 5, 1)
	return m
}

func identity(n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
