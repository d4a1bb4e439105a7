// Package cluster implements agglomerative hierarchical clustering over
// gonum matrices.
//
// Agglomerative starts from singleton clusters and repeatedly merges
// the closest pair under the chosen linkage, recording each merge in a
// SciPy-convention dendrogram: row i holds [a, b, distance, size] and
// the merged cluster gets id n+i. Flat labelings come from cutting the
// dendrogram by cluster count (CutK) or merge height (CutDistance).
package cluster
