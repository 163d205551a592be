package distance

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEuclideanDistance(t *testing.T) {
	if d := EuclideanDistance([]float64{0, 0}, []float64{3, 4}); !almostEqual(d, 5) {
		t.Errorf("expected 5, got %v", d)
	}
	if d := EuclideanDistance([]float64{1, 2, 3}, []float64{1, 2, 3}); !almostEqual(d, 0) {
		t.Errorf("identical vectors should be at distance 0, got %v", d)
	}
}

func TestManhattanDistance(t *testing.T) {
	if d := ManhattanDistance([]float64{0, 0}, []float64{3, 4}); !almostEqual(d, 7) {
		t.Errorf("expected 7, got %v", d)
	}
}

func TestChebyshevDistance(t *testing.T) {
	if d := ChebyshevDistance([]float64{0, 0}, []float64{3, 4}); !almostEqual(d, 4) {
		t.Errorf("expected 4, got %v", d)
	}
}

func TestCosineDistance(t *testing.T) {
	// Orthogonal vectors are at distance 1, parallel at 0, opposite at 2.
	if d := CosineDistance([]float64{1, 0}, []float64{0, 1}); !almostEqual(d, 1) {
		t.Errorf("orthogonal: expected 1, got %v", d)
	}
	if d := CosineDistance([]float64{2, 2}, []float64{4, 4}); !almostEqual(d, 0) {
		t.Errorf("parallel: expected 0, got %v", d)
	}
	if d := CosineDistance([]float64{1, 0}, []float64{-1, 0}); !almostEqual(d, 2) {
		t.Errorf("opposite: expected 2, got %v", d)
	}
}

func TestCosineDistance_ZeroVector(t *testing.T) {
	if d := CosineDistance([]float64{0, 0}, []float64{1, 2}); !almostEqual(d, 1) {
		t.Errorf("zero vector should be maximally dissimilar, got %v", d)
	}
}

func TestMinkowskiDistance(t *testing.T) {
	// p=2 must agree with euclidean.
	fn := MinkowskiDistance(2)
	a, b := []float64{1, 1}, []float64{4, 5}
	if d := fn(a, b); !almostEqual(d, EuclideanDistance(a, b)) {
		t.Errorf("minkowski p=2 should match euclidean: %v", d)
	}
	// p=1 must agree with manhattan.
	fn = MinkowskiDistance(1)
	if d := fn(a, b); !almostEqual(d, ManhattanDistance(a, b)) {
		t.Errorf("minkowski p=1 should match manhattan: %v", d)
	}
}

func TestForMetric(t *testing.T) {
	for _, m := range []Metric{Euclidean, Manhattan, Cosine, Chebyshev} {
		if _, err := ForMetric(m, 0); err != nil {
			t.Errorf("metric %q should be accepted: %v", m, err)
		}
	}
	if _, err := ForMetric("", 0); err != nil {
		t.Errorf("empty metric should default to euclidean: %v", err)
	}
	if _, err := ForMetric("mahalanobis", 0); err == nil {
		t.Error("unknown metric should be rejected")
	}
	if _, err := ForMetric(Minkowski, 0.5); err == nil {
		t.Error("minkowski with p < 1 should be rejected")
	}
	if _, err := ForMetric(Minkowski, 3); err != nil {
		t.Errorf("minkowski with p=3 should be accepted: %v", err)
	}
}

func TestMatrix(t *testing.T) {
	vectors := [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}}
	got := Matrix(vectors, EuclideanDistance, 1)

	for i := range vectors {
		if !almostEqual(got[i][i], 0) {
			t.Errorf("diagonal [%d][%d] should be 0, got %v", i, i, got[i][i])
		}
		for j := range vectors {
			if !almostEqual(got[i][j], got[j][i]) {
				t.Errorf("matrix should be symmetric at (%d, %d)", i, j)
			}
		}
	}
	if !almostEqual(got[0][1], 1) {
		t.Errorf("expected d(0,1)=1, got %v", got[0][1])
	}
	if !almostEqual(got[0][2], 10) {
		t.Errorf("expected d(0,2)=10, got %v", got[0][2])
	}
}

func TestMatrix_ParallelMatchesSequential(t *testing.T) {
	vectors := make([][]float64, 50)
	for i := range vectors {
		vectors[i] = []float64{float64(i), float64(i * i % 17), float64(i % 5)}
	}
	seq := Matrix(vectors, EuclideanDistance, 1)
	par := Matrix(vectors, EuclideanDistance, 4)
	for i := range seq {
		for j := range seq[i] {
			if !almostEqual(seq[i][j], par[i][j]) {
				t.Fatalf("parallel result diverges at (%d, %d): %v vs %v", i, j, seq[i][j], par[i][j])
			}
		}
	}
}
