// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cluster provides bottom-up hierarchical (agglomerative)
// clustering.
//
// Example:
//
//	dend, err := cluster.Agglomerative(points, cluster.Ward)
//	if err != nil {
//	    return err
//	}
//	labels, err := dend.CutK(3)
package cluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/primer-ml/primer/internal/cluster"
)

// Linkage selects how inter-cluster distance is measured.
type Linkage = cluster.Linkage

// Linkage methods.
const (
	Single   Linkage = cluster.Single
	Complete Linkage = cluster.Complete
	Average  Linkage = cluster.Average
	Ward     Linkage = cluster.Ward
)

// ParseLinkage maps a linkage name ("single", "complete", "average",
// "ward") to its constant.
func ParseLinkage(s string) (Linkage, error) {
	return cluster.ParseLinkage(s)
}

// Merge is one step of the agglomeration: clusters A and B joined at
// the given distance into a cluster of Size observations.
type Merge = cluster.Merge

// Dendrogram is the full merge history, cuttable into flat clusterings.
type Dendrogram = cluster.Dendrogram

// Agglomerative clusters the rows of x bottom-up until one cluster
// remains, returning the dendrogram.
func Agglomerative(x *mat.Dense, linkage Linkage) (*Dendrogram, error) {
	return cluster.Agglomerative(x, linkage)
}

// Purity scores a flat clustering against known labels: the fraction of
// points assigned to their cluster's majority class.
func Purity(labels, truth []int) (float64, error) {
	return cluster.Purity(labels, truth)
}
