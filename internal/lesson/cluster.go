package lesson

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/primer-ml/primer/internal/cluster"
	"github.com/primer-ml/primer/internal/config"
	"github.com/primer-ml/primer/internal/dataset"
)

// blobCenters places k cluster centers evenly on a circle, far enough
// apart that the configured stddev keeps them separable.
func blobCenters(k int) [][]float64 {
	const radius = 6.0
	centers := make([][]float64, k)
	for i := range centers {
		angle := 2 * math.Pi * float64(i) / float64(k)
		centers[i] = []float64{radius * math.Cos(angle), radius * math.Sin(angle)}
	}
	return centers
}

// RunCluster builds the dendrogram over the configured points and cuts
// it into the requested number of clusters. With generated blobs the
// true assignment is known, so purity is reported as well.
func RunCluster(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cc := cfg.Cluster

	var (
		points *mat.Dense
		truth  []int
	)
	if cc.CSVPath != "" {
		logger.Info("Loading points", zap.String("path", cc.CSVPath))
		var err error
		points, err = dataset.LoadPointsCSV(cc.CSVPath)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("Generating blobs",
			zap.Int("samples", cc.Samples),
			zap.Int("centers", cc.Clusters),
			zap.Float64("stddev", cc.Stddev))
		points, truth = dataset.MakeBlobs(cc.Samples, blobCenters(cc.Clusters), cc.Stddev, cfg.Seed)
	}
	rows, cols := points.Dims()
	logger.Info("Points ready", zap.Int("observations", rows), zap.Int("dims", cols))

	linkage, err := cluster.ParseLinkage(cc.Linkage)
	if err != nil {
		return nil, err
	}
	dend, err := cluster.Agglomerative(points, linkage)
	if err != nil {
		return nil, err
	}
	merges := dend.Merges()
	for i, m := range merges {
		logger.Debug("Merge",
			zap.Int("step", i),
			zap.Int("a", m.A),
			zap.Int("b", m.B),
			zap.Float64("distance", m.Distance),
			zap.Int("size", m.Size))
	}

	labels, err := dend.CutK(cc.Clusters)
	if err != nil {
		return nil, err
	}
	sizes := make([]int, cc.Clusters)
	for _, l := range labels {
		sizes[l]++
	}
	for id, size := range sizes {
		logger.Info("Cluster", zap.Int("id", id), zap.Int("size", size))
	}

	metrics := map[string]float64{
		"clusters": float64(cc.Clusters),
		"merges":   float64(len(merges)),
	}
	if len(merges) > 0 {
		metrics["max_merge_distance"] = merges[len(merges)-1].Distance
	}
	if truth != nil {
		purity, err := cluster.Purity(labels, truth)
		if err != nil {
			return nil, err
		}
		metrics["purity"] = purity
		rec.Record(0, "purity", purity)
		logger.Info("Purity against generating blobs", zap.Float64("purity", purity))
	}

	logger.Info("Clustering complete",
		zap.String("linkage", linkage.String()),
		zap.Int("clusters", cc.Clusters))
	return metrics, nil
}
