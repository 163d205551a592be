// Package distance provides the pluggable pairwise-distance functions used by
// both clustering engines and the quality metrics. All functions are pure and
// stateless over fixed-length numeric vectors.
package distance

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"clusterkit/internal/core"
)

// Metric identifies a distance function. It is a closed enumeration: unknown
// values are rejected when the function is resolved, not silently defaulted.
type Metric string

const (
	Euclidean Metric = "euclidean"
	Manhattan Metric = "manhattan"
	Cosine    Metric = "cosine"
	Chebyshev Metric = "chebyshev"
	Minkowski Metric = "minkowski"
)

// Func computes the distance between two equal-length vectors.
type Func func(a, b []float64) float64

// ForMetric resolves a Metric to its distance function. p is the Minkowski
// order and is ignored for every other metric.
func ForMetric(m Metric, p float64) (Func, error) {
	switch m {
	case Euclidean, "":
		return EuclideanDistance, nil
	case Manhattan:
		return ManhattanDistance, nil
	case Cosine:
		return CosineDistance, nil
	case Chebyshev:
		return ChebyshevDistance, nil
	case Minkowski:
		if p < 1 {
			return nil, fmt.Errorf("%w: minkowski order must be >= 1, got %g", core.ErrInvalidParams, p)
		}
		return MinkowskiDistance(p), nil
	default:
		return nil, fmt.Errorf("%w: unknown distance metric %q", core.ErrInvalidParams, m)
	}
}

// EuclideanDistance is the L2 distance.
func EuclideanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// SquaredEuclidean is the L2 distance without the final square root. Ward
// linkage and the variance statistics are defined over it.
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ManhattanDistance is the L1 (city-block) distance.
func ManhattanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// ChebyshevDistance is the L-infinity distance.
func ChebyshevDistance(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// CosineDistance is 1 - cosine similarity. Zero vectors are treated as
// maximally distant rather than producing NaN.
func CosineDistance(a, b []float64) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 1.0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	// Clamp to [-1, 1] against floating point drift.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1.0 - sim
}

// MinkowskiDistance returns the Lp distance for the given order.
func MinkowskiDistance(p float64) Func {
	return func(a, b []float64) float64 {
		return floats.Distance(a, b, p)
	}
}

// Matrix computes the full symmetric pairwise distance matrix. With
// workers > 1, rows are partitioned across goroutines; each unordered pair is
// owned by its smaller index, so every cell is written exactly once and the
// result is identical to the sequential computation regardless of scheduling.
func Matrix(vectors [][]float64, fn Func, workers int) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	fill := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := i + 1; j < n; j++ {
				d := fn(vectors[i], vectors[j])
				matrix[i][j] = d
				matrix[j][i] = d
			}
		}
	}

	if workers <= 1 || n < 2*workers {
		fill(0, n)
		return matrix
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fill(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	return matrix
}
