package quality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// contingency cross-tabulates ground-truth classes against predicted
// clusters. Noise labels participate as their own group so the comparison
// covers every point.
type contingency struct {
	cells map[[2]int]int // (class, cluster) -> count
	rows  map[int]int    // class -> count
	cols  map[int]int    // cluster -> count
	n     int
}

func newContingency(trueLabels, labels []int) *contingency {
	t := &contingency{
		cells: make(map[[2]int]int),
		rows:  make(map[int]int),
		cols:  make(map[int]int),
		n:     len(labels),
	}
	for i := range labels {
		t.cells[[2]int{trueLabels[i], labels[i]}]++
		t.rows[trueLabels[i]]++
		t.cols[labels[i]]++
	}
	return t
}

func pairs(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(combin.Binomial(n, 2))
}

// adjustedRandIndex is the chance-corrected pair-counting agreement between
// the two partitions: 1 for identical partitions, around 0 for independent
// ones. Two trivial partitions with no pair structure compare as identical.
func (t *contingency) adjustedRandIndex() float64 {
	var index, sumA, sumB float64
	for _, c := range t.cells {
		index += pairs(c)
	}
	for _, c := range t.rows {
		sumA += pairs(c)
	}
	for _, c := range t.cols {
		sumB += pairs(c)
	}
	total := pairs(t.n)
	if total == 0 {
		return 1
	}
	expected := sumA * sumB / total
	maxIndex := (sumA + sumB) / 2
	if maxIndex == expected {
		return 1
	}
	return (index - expected) / (maxIndex - expected)
}

// entropy of a count distribution, in nats.
func entropy(counts map[int]int, n int) float64 {
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h -= p * math.Log(p)
	}
	return h
}

// normalizedMutualInfo is MI(U, V) / sqrt(H(U) * H(V)). Either partition
// having zero entropy yields 1 when both do and 0 otherwise.
func (t *contingency) normalizedMutualInfo() float64 {
	hu := entropy(t.rows, t.n)
	hv := entropy(t.cols, t.n)
	if hu == 0 || hv == 0 {
		if hu == 0 && hv == 0 {
			return 1
		}
		return 0
	}
	return t.mutualInfo() / math.Sqrt(hu*hv)
}

func (t *contingency) mutualInfo() float64 {
	var mi float64
	n := float64(t.n)
	for key, c := range t.cells {
		if c == 0 {
			continue
		}
		pij := float64(c) / n
		pi := float64(t.rows[key[0]]) / n
		pj := float64(t.cols[key[1]]) / n
		mi += pij * math.Log(pij/(pi*pj))
	}
	return mi
}

// vMeasure returns homogeneity (each cluster holds one class), completeness
// (each class lands in one cluster), and their harmonic mean. A zero-entropy
// reference side scores 1 for its metric.
func (t *contingency) vMeasure() (homogeneity, completeness, v float64) {
	hc := entropy(t.rows, t.n)
	hk := entropy(t.cols, t.n)

	homogeneity = 1.0
	if hc > 0 {
		homogeneity = 1 - t.conditionalEntropy(true)/hc
	}
	completeness = 1.0
	if hk > 0 {
		completeness = 1 - t.conditionalEntropy(false)/hk
	}
	if homogeneity+completeness > 0 {
		v = 2 * homogeneity * completeness / (homogeneity + completeness)
	}
	return homogeneity, completeness, v
}

// conditionalEntropy computes H(class | cluster) when classGiven is true,
// H(cluster | class) otherwise. Iteration is over sorted keys so the
// floating-point sum is reproducible.
func (t *contingency) conditionalEntropy(classGiven bool) float64 {
	keys := make([][2]int, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	var h float64
	n := float64(t.n)
	for _, key := range keys {
		c := t.cells[key]
		if c == 0 {
			continue
		}
		var given int
		if classGiven {
			given = t.cols[key[1]]
		} else {
			given = t.rows[key[0]]
		}
		pij := float64(c) / n
		h -= pij * math.Log(float64(c)/float64(given))
	}
	return h
}
