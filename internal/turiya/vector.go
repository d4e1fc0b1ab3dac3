// Package turiya implements a LinUCB contextual bandit: one learned linear
// model per arm, selecting by upper confidence bound over a shared
// context vector.
package turiya

import (
	"errors"
	"math"
)

// ErrSingularMatrix is returned when a Cholesky decomposition fails
// because the matrix lost positive-definiteness.
var ErrSingularMatrix = errors.New("turiya: matrix is not positive definite")

// matrix is a dense square matrix stored row-major.
type matrix [][]float64

func newIdentity(d int) matrix {
	m := make(matrix, d)
	for i := range m {
		m[i] = make([]float64, d)
		m[i][i] = 1
	}
	return m
}

// addOuter adds scale * x*x^T into m in place.
func (m matrix) addOuter(x []float64, scale float64) {
	for i := range x {
		if x[i] == 0 {
			continue
		}
		row := m[i]
		for j := range x {
			row[j] += scale * x[i] * x[j]
		}
	}
}

func addScaled(dst, x []float64, scale float64) {
	for i := range x {
		dst[i] += scale * x[i]
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// cholesky decomposes symmetric positive-definite m into lower-triangular
// L such that m = L L^T.
func cholesky(m matrix) (matrix, error) {
	d := len(m)
	l := make(matrix, d)
	for i := range l {
		l[i] = make([]float64, d)
	}
	for i := 0; i < d; i++ {
		for j := 0; j <= i; j++ {
			sum := m[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, ErrSingularMatrix
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, nil
}

// solveCholesky solves (L L^T) x = b given L from cholesky(A), via forward
// then backward substitution.
func solveCholesky(l matrix, b []float64) []float64 {
	d := len(l)
	y := make([]float64, d)
	for i := 0; i < d; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}
	x := make([]float64, d)
	for i := d - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < d; k++ {
			sum -= l[k][i] * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x
}

// quadForm computes x^T A^-1 x by solving A z = x then taking x . z,
// reusing the Cholesky factor already computed for theta.
func quadForm(l matrix, x []float64) float64 {
	z := solveCholesky(l, x)
	return dot(x, z)
}
