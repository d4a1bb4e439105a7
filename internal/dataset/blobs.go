package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// defaultBlobCenters spreads three clusters far enough apart that every
// linkage method recovers them.
var defaultBlobCenters = [][]float64{
	{0, 0},
	{6, 6},
	{0, 7},
}

// MakeBlobs samples numSamples points from Gaussian clusters around the
// given centers, round-robin so the clusters stay balanced. Centers nil
// means three well-separated 2-D clusters. Returns the points as a
// [numSamples, dim] matrix and the generating cluster index per point.
func MakeBlobs(numSamples int, centers [][]float64, stddev float64, seed int64) (*mat.Dense, []int) {
	if len(centers) == 0 {
		centers = defaultBlobCenters
	}
	if stddev <= 0 {
		stddev = 0.5
	}
	dim := len(centers[0])
	rng := rand.New(rand.NewSource(seed))

	x := mat.NewDense(numSamples, dim, nil)
	y := make([]int, numSamples)
	for i := 0; i < numSamples; i++ {
		c := i % len(centers)
		y[i] = c
		for j := 0; j < dim; j++ {
			x.Set(i, j, centers[c][j]+rng.NormFloat64()*stddev)
		}
	}
	return x, y
}
