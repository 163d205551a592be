package dbscan

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"clusterkit/internal/core"
)

// defaultMinPts derives a density threshold from the dataset shape:
// max(2, min(2*D, floor(log2(N)))).
func defaultMinPts(n, dims int) int {
	minPts := 2 * dims
	if l := int(math.Floor(math.Log2(float64(n)))); l < minPts {
		minPts = l
	}
	if minPts < 2 {
		minPts = 2
	}
	return minPts
}

// estimateEps derives eps from the k-distance curve with k = minPts: each
// sampled point's distance to its k-th nearest neighbor, sorted descending.
// The estimate is the curve's elbow (largest discrete curvature), capped by a
// conservative quantile of the same distances so a sharp early elbow on a
// noisy curve cannot inflate eps.
func (e *Engine) estimateEps(points []core.Point, minPts int) float64 {
	sample := points
	if len(sample) > e.opts.SampleSize {
		sample = sample[:e.opts.SampleSize]
	}
	if len(sample) < 2 {
		return 0 // rejected by the eps validation that follows
	}

	kdist := make([]float64, len(sample))
	workers := e.opts.Workers
	if workers < 1 || len(sample) < 2*workers {
		workers = 1
	}
	chunk := (len(sample) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > len(sample) {
			hi = len(sample)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			ds := make([]float64, 0, len(sample)-1)
			for i := lo; i < hi; i++ {
				ds = ds[:0]
				for j := range sample {
					if j == i {
						continue
					}
					ds = append(ds, e.dist(sample[i].Features, sample[j].Features))
				}
				sort.Float64s(ds)
				k := minPts
				if k > len(ds) {
					k = len(ds)
				}
				kdist[i] = ds[k-1]
			}
		}(lo, hi)
	}
	wg.Wait()

	// Quantile wants the values ascending; the elbow scan wants them
	// descending.
	asc := append([]float64(nil), kdist...)
	sort.Float64s(asc)
	bound := stat.Quantile(e.opts.Quantile, stat.Empirical, asc, nil)

	desc := append([]float64(nil), kdist...)
	sort.Sort(sort.Reverse(sort.Float64Slice(desc)))

	elbow := desc[0]
	if len(desc) >= 3 {
		bestCurv := math.Inf(-1)
		for i := 1; i < len(desc)-1; i++ {
			curv := math.Abs(desc[i-1] - 2*desc[i] + desc[i+1])
			if curv > bestCurv {
				bestCurv = curv
				elbow = desc[i]
			}
		}
	}
	if bound < elbow {
		return bound
	}
	return elbow
}
