package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Agglomerative clusters the rows of x bottom-up under the given
// linkage and returns the full merge history. Distances are Euclidean.
//
// The pairwise matrix is updated in place with the Lance-Williams
// recurrences, so each merge costs O(n) and the whole build O(n^3) in
// the worst scan; lesson-sized inputs stay well inside that.
func Agglomerative(x *mat.Dense, linkage Linkage) (*Dendrogram, error) {
	n, dim := x.Dims()
	if n == 0 {
		return nil, fmt.Errorf("cluster: empty input")
	}
	switch linkage {
	case Single, Complete, Average, Ward:
	default:
		return nil, fmt.Errorf("cluster: unknown linkage %d", int(linkage))
	}

	// Ward's recurrence works on squared distances; heights are the
	// square roots, matching SciPy.
	squared := linkage == Ward

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 0.0
			for k := 0; k < dim; k++ {
				diff := x.At(i, k) - x.At(j, k)
				d += diff * diff
			}
			if !squared {
				d = math.Sqrt(d)
			}
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// Slot i carries a live cluster; merging folds slot j into slot i.
	active := make([]bool, n)
	size := make([]int, n)
	id := make([]int, n)
	for i := range active {
		active[i] = true
		size[i] = 1
		id[i] = i
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		// Closest active pair; scan order breaks ties, so runs are
		// deterministic.
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}

		height := best
		if squared {
			height = math.Sqrt(best)
		}
		a, b := id[bi], id[bj]
		if a > b {
			a, b = b, a
		}
		merged := size[bi] + size[bj]
		merges = append(merges, Merge{A: a, B: b, Distance: height, Size: merged})

		// Lance-Williams update of every remaining cluster's distance
		// to the merged pair.
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			dki, dkj, dij := dist[k][bi], dist[k][bj], dist[bi][bj]
			var d float64
			switch linkage {
			case Single:
				d = math.Min(dki, dkj)
			case Complete:
				d = math.Max(dki, dkj)
			case Average:
				ni, nj := float64(size[bi]), float64(size[bj])
				d = (ni*dki + nj*dkj) / (ni + nj)
			case Ward:
				ni, nj, nk := float64(size[bi]), float64(size[bj]), float64(size[k])
				d = ((ni+nk)*dki + (nj+nk)*dkj - nk*dij) / (ni + nj + nk)
			}
			dist[k][bi] = d
			dist[bi][k] = d
		}

		active[bj] = false
		size[bi] = merged
		id[bi] = n + step
	}

	return &Dendrogram{n: n, linkage: linkage, merges: merges}, nil
}
