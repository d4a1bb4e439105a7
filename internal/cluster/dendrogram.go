package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Merge is one dendrogram row: clusters A and B joined at Distance into
// a cluster of Size points. Original points are clusters 0..n-1; the
// cluster created by merge i gets id n+i.
type Merge struct {
	A, B     int
	Distance float64
	Size     int
}

// Dendrogram is the full merge history of one agglomerative run.
type Dendrogram struct {
	n       int
	linkage Linkage
	merges  []Merge
}

// Merges returns the merge rows in order of increasing height.
func (d *Dendrogram) Merges() []Merge {
	out := make([]Merge, len(d.merges))
	copy(out, d.merges)
	return out
}

// NumObservations returns the number of clustered points.
func (d *Dendrogram) NumObservations() int {
	return d.n
}

// Linkage returns the linkage the dendrogram was built with.
func (d *Dendrogram) Linkage() Linkage {
	return d.linkage
}

// CutK cuts the dendrogram into exactly k flat clusters by replaying
// all but the last k-1 merges. Labels are 0..k-1 in order of first
// appearance.
func (d *Dendrogram) CutK(k int) ([]int, error) {
	if k < 1 || k > d.n {
		return nil, fmt.Errorf("cluster: cannot cut %d observations into %d clusters", d.n, k)
	}
	return d.labelsAfter(d.n - k), nil
}

// CutDistance cuts at a merge height: every merge at or below the
// threshold is applied. Labels are 0..m-1 in order of first appearance,
// for however many clusters survive.
func (d *Dendrogram) CutDistance(threshold float64) []int {
	applied := 0
	for applied < len(d.merges) && d.merges[applied].Distance <= threshold {
		applied++
	}
	return d.labelsAfter(applied)
}

// labelsAfter replays the first `applied` merges through a union-find
// and canonicalizes component ids to dense labels.
func (d *Dendrogram) labelsAfter(applied int) []int {
	parent := make([]int, d.n+applied)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for step := 0; step < applied; step++ {
		m := d.merges[step]
		root := d.n + step
		parent[find(m.A)] = root
		parent[find(m.B)] = root
	}

	labels := make([]int, d.n)
	canonical := make(map[int]int)
	for i := 0; i < d.n; i++ {
		root := find(i)
		label, ok := canonical[root]
		if !ok {
			label = len(canonical)
			canonical[root] = label
		}
		labels[i] = label
	}
	return labels
}

// Cophenetic returns the n x n matrix of cophenetic distances: the
// height of the merge where each pair of points first shares a cluster.
func (d *Dendrogram) Cophenetic() *mat.SymDense {
	coph := mat.NewSymDense(d.n, nil)

	// members[c] lists the original points inside cluster c.
	members := make(map[int][]int, d.n+len(d.merges))
	for i := 0; i < d.n; i++ {
		members[i] = []int{i}
	}
	for step, m := range d.merges {
		a, b := members[m.A], members[m.B]
		for _, p := range a {
			for _, q := range b {
				coph.SetSym(p, q, m.Distance)
			}
		}
		merged := make([]int, 0, len(a)+len(b))
		merged = append(merged, a...)
		merged = append(merged, b...)
		members[d.n+step] = merged
		delete(members, m.A)
		delete(members, m.B)
	}
	return coph
}
