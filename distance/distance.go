// Public domain.

// Package distance, metrics for comparing an observation against a group
// centroid in a small composition space.
//
// All functions are pure.  Vectors passed in are not modified.
package distance

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Result is a distance along with a flag recording whether the requested
// metric could not be used and Euclidean distance was substituted.
type Result struct {
	Distance float64
	Fallback bool
}

// Euclidean returns the straight line distance between a and b.
//
// a and b must be the same length.
func Euclidean(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("distance: vector length mismatch")
	}
	var s float64
	for i, ai := range a {
		d := ai - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// Mahalanobis computes the covariance weighted distance of x from mu,
//
//   d = sqrt((x - mu)ᵀ Σ⁻¹ (x - mu))
//
// The inverse is never formed.  Σ is Cholesky factored and the system
// Σ y = (x - mu) solved for y.  A covariance that is not positive definite
// (singular, or not a covariance at all) cannot be factored; Euclidean
// distance is returned in that case with Fallback set.  A nil cov is
// treated the same way.
func Mahalanobis(x, mu []float64, cov *mat.SymDense) Result {
	if len(x) != len(mu) {
		panic("distance: vector length mismatch")
	}
	if cov == nil || cov.SymmetricDim() != len(x) {
		return Result{Euclidean(x, mu), true}
	}
	diff := make([]float64, len(x))
	zero := true
	for i := range x {
		diff[i] = x[i] - mu[i]
		if diff[i] != 0 {
			zero = false
		}
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(cov); !ok {
		return Result{Euclidean(x, mu), true}
	}
	if zero {
		// identical vectors.  exactly zero regardless of conditioning.
		return Result{}
	}
	d := mat.NewVecDense(len(diff), diff)
	var y mat.VecDense
	if err := ch.SolveVecTo(&y, d); err != nil {
		return Result{Euclidean(x, mu), true}
	}
	q := mat.Dot(d, &y)
	if q < 0 {
		// roundoff on a nearly singular matrix
		q = 0
	}
	return Result{Distance: math.Sqrt(q)}
}

// DiagonalMahalanobis is Mahalanobis distance for the covariance σ²·I.
//
// It reduces to Euclidean distance divided by sigma.  Sigma <= 0 cannot
// describe a dispersion; Euclidean distance is returned with Fallback set.
func DiagonalMahalanobis(x, mu []float64, sigma float64) Result {
	e := Euclidean(x, mu)
	if !(sigma > 0) || math.IsInf(sigma, 1) {
		return Result{e, true}
	}
	return Result{Distance: e / sigma}
}

// Covariance builds a symmetric matrix from rows.  Only the upper triangle
// is read.  It returns nil if rows is not square.
func Covariance(rows [][]float64) *mat.SymDense {
	n := len(rows)
	if n == 0 {
		return nil
	}
	data := make([]float64, n*n)
	for i, r := range rows {
		if len(r) != n {
			return nil
		}
		copy(data[i*n:], r)
	}
	return mat.NewSymDense(n, data)
}

// ScaledIdentity returns s·I of dimension n.
func ScaledIdentity(n int, s float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, s)
	}
	return m
}
