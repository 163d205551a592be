package quality

import (
	"math"
	"sort"

	"clusterkit/internal/core"
	"clusterkit/internal/distance"
)

// partition is the noise-free view of a labelled dataset that the internal
// metrics operate on: member indices and centroids per cluster, with cluster
// keys in sorted order so every metric iterates deterministically.
type partition struct {
	data    []core.Point
	keys    []int           // sorted distinct non-noise labels
	members map[int][]int   // label -> point indices
	cent    map[int][]float64 // label -> centroid
	noise   int
	total   int // non-noise point count
}

func newPartition(data []core.Point, labels []int) *partition {
	p := &partition{
		data:    data,
		members: make(map[int][]int),
		cent:    make(map[int][]float64),
	}
	for i, l := range labels {
		if l == core.NoiseLabel {
			p.noise++
			continue
		}
		p.members[l] = append(p.members[l], i)
		p.total++
	}
	for l := range p.members {
		p.keys = append(p.keys, l)
	}
	sort.Ints(p.keys)

	dims := len(data[0].Features)
	for _, l := range p.keys {
		c := make([]float64, dims)
		for _, i := range p.members[l] {
			for d, v := range data[i].Features {
				c[d] += v
			}
		}
		for d := range c {
			c[d] /= float64(len(p.members[l]))
		}
		p.cent[l] = c
	}
	return p
}

// grandCentroid is the mean of all non-noise points.
func (p *partition) grandCentroid() []float64 {
	dims := len(p.data[0].Features)
	g := make([]float64, dims)
	for _, l := range p.keys {
		for _, i := range p.members[l] {
			for d, v := range p.data[i].Features {
				g[d] += v
			}
		}
	}
	for d := range g {
		g[d] /= float64(p.total)
	}
	return g
}

// silhouette is the mean silhouette coefficient over non-noise points:
// (b - a) / max(a, b) with a the mean intra-cluster distance and b the best
// mean distance to another cluster. Points alone in their cluster score 0.
// Fewer than two clusters scores 0.
func (e *Evaluator) silhouette(p *partition) float64 {
	if len(p.keys) < 2 || p.total == 0 {
		return 0
	}
	var sum float64
	for _, l := range p.keys {
		for _, i := range p.members[l] {
			if len(p.members[l]) == 1 {
				continue // contributes 0
			}
			var a float64
			for _, j := range p.members[l] {
				if j != i {
					a += e.dist(p.data[i].Features, p.data[j].Features)
				}
			}
			a /= float64(len(p.members[l]) - 1)

			b := math.Inf(1)
			for _, other := range p.keys {
				if other == l {
					continue
				}
				var mean float64
				for _, j := range p.members[other] {
					mean += e.dist(p.data[i].Features, p.data[j].Features)
				}
				mean /= float64(len(p.members[other]))
				if mean < b {
					b = mean
				}
			}
			if m := math.Max(a, b); m > 0 {
				sum += (b - a) / m
			}
		}
	}
	return sum / float64(p.total)
}

// daviesBouldin is the mean over clusters of the worst (Si + Sj) / d(ci, cj)
// ratio, where S is the mean member-to-centroid distance. Lower is better.
// Pairs with coincident centroids are skipped rather than divided by zero.
func (e *Evaluator) daviesBouldin(p *partition) float64 {
	if len(p.keys) < 2 {
		return 0
	}
	scatter := make(map[int]float64, len(p.keys))
	for _, l := range p.keys {
		var s float64
		for _, i := range p.members[l] {
			s += e.dist(p.data[i].Features, p.cent[l])
		}
		scatter[l] = s / float64(len(p.members[l]))
	}
	var sum float64
	for _, li := range p.keys {
		worst := 0.0
		for _, lj := range p.keys {
			if li == lj {
				continue
			}
			d := e.dist(p.cent[li], p.cent[lj])
			if d == 0 {
				continue
			}
			if r := (scatter[li] + scatter[lj]) / d; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	return sum / float64(len(p.keys))
}

// calinskiHarabasz is the between/within dispersion ratio
// [trace(B)/(k-1)] / [trace(W)/(n-k)], squared euclidean regardless of the
// configured metric. A zero within-cluster scatter returns a large finite
// stand-in so reports stay serializable.
func (e *Evaluator) calinskiHarabasz(p *partition) float64 {
	k, n := len(p.keys), p.total
	if k < 2 || n <= k {
		return 0
	}
	grand := p.grandCentroid()
	var between, within float64
	for _, l := range p.keys {
		between += float64(len(p.members[l])) * distance.SquaredEuclidean(p.cent[l], grand)
		for _, i := range p.members[l] {
			within += distance.SquaredEuclidean(p.data[i].Features, p.cent[l])
		}
	}
	if within == 0 {
		if between == 0 {
			return 0
		}
		return 1e12
	}
	return (between / float64(k-1)) / (within / float64(n-k))
}

// dunn is the minimum inter-cluster point distance over the maximum cluster
// diameter. Higher is better; an all-singleton partition (zero diameter)
// returns 0.
func (e *Evaluator) dunn(p *partition) float64 {
	if len(p.keys) < 2 {
		return 0
	}
	minInter := math.Inf(1)
	for a := 0; a < len(p.keys); a++ {
		for b := a + 1; b < len(p.keys); b++ {
			for _, i := range p.members[p.keys[a]] {
				for _, j := range p.members[p.keys[b]] {
					if d := e.dist(p.data[i].Features, p.data[j].Features); d < minInter {
						minInter = d
					}
				}
			}
		}
	}
	maxDiameter := 0.0
	for _, l := range p.keys {
		m := p.members[l]
		for a := 0; a < len(m); a++ {
			for b := a + 1; b < len(m); b++ {
				if d := e.dist(p.data[m[a]].Features, p.data[m[b]].Features); d > maxDiameter {
					maxDiameter = d
				}
			}
		}
	}
	if maxDiameter == 0 {
		return 0
	}
	return minInter / maxDiameter
}
