package cluster_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/primer-ml/primer/internal/cluster"
	"github.com/primer-ml/primer/internal/dataset"
)

// chain1D is four points on a line with a gap before the last.
func chain1D() *mat.Dense {
	return mat.NewDense(4, 1, []float64{0, 1, 2, 10})
}

func requireMerges(t *testing.T, got, want []cluster.Merge) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("merge table mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleLinkage(t *testing.T) {
	d, err := cluster.Agglomerative(chain1D(), cluster.Single)
	require.NoError(t, err)

	requireMerges(t, d.Merges(), []cluster.Merge{
		{A: 0, B: 1, Distance: 1, Size: 2},
		{A: 2, B: 4, Distance: 1, Size: 3},
		{A: 3, B: 5, Distance: 8, Size: 4},
	})
}

func TestCompleteLinkage(t *testing.T) {
	d, err := cluster.Agglomerative(chain1D(), cluster.Complete)
	require.NoError(t, err)

	requireMerges(t, d.Merges(), []cluster.Merge{
		{A: 0, B: 1, Distance: 1, Size: 2},
		{A: 2, B: 4, Distance: 2, Size: 3},
		{A: 3, B: 5, Distance: 10, Size: 4},
	})
}

func TestAverageLinkage(t *testing.T) {
	d, err := cluster.Agglomerative(chain1D(), cluster.Average)
	require.NoError(t, err)

	requireMerges(t, d.Merges(), []cluster.Merge{
		{A: 0, B: 1, Distance: 1, Size: 2},
		{A: 2, B: 4, Distance: 1.5, Size: 3},
		{A: 3, B: 5, Distance: 9, Size: 4},
	})
}

// Ward heights follow SciPy: singletons merge at their Euclidean
// distance, and the next height comes from the Lance-Williams
// recurrence on squared distances, square-rooted.
func TestWardLinkage(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 2, 10})
	d, err := cluster.Agglomerative(x, cluster.Ward)
	require.NoError(t, err)

	requireMerges(t, d.Merges(), []cluster.Merge{
		{A: 0, B: 1, Distance: 2, Size: 2},
		{A: 2, B: 3, Distance: math.Sqrt(108), Size: 3},
	})
}

func TestMergeHeightsAreMonotone(t *testing.T) {
	x, _ := dataset.MakeBlobs(30, nil, 0.8, 3)
	for _, linkage := range []cluster.Linkage{cluster.Single, cluster.Complete, cluster.Average, cluster.Ward} {
		d, err := cluster.Agglomerative(x, linkage)
		require.NoError(t, err, linkage.String())
		merges := d.Merges()
		for i := 1; i < len(merges); i++ {
			assert.GreaterOrEqual(t, merges[i].Distance, merges[i-1].Distance,
				"%s heights must not decrease", linkage)
		}
	}
}

func TestCutK(t *testing.T) {
	// Three tight pairs.
	x := mat.NewDense(6, 2, []float64{
		0, 0,
		0.1, 0,
		5, 5,
		5.1, 5,
		0, 9,
		0, 9.1,
	})
	d, err := cluster.Agglomerative(x, cluster.Average)
	require.NoError(t, err)

	labels, err := d.CutK(3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, labels)

	all, err := d.CutK(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, all)

	singletons, err := d.CutK(6)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, singletons)

	_, err = d.CutK(0)
	assert.Error(t, err)
	_, err = d.CutK(7)
	assert.Error(t, err)
}

func TestCutDistance(t *testing.T) {
	d, err := cluster.Agglomerative(chain1D(), cluster.Single)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1}, d.CutDistance(1.5))
	assert.Equal(t, []int{0, 1, 2, 3}, d.CutDistance(0.5))
	assert.Equal(t, []int{0, 0, 0, 0}, d.CutDistance(100))
}

func TestCophenetic(t *testing.T) {
	d, err := cluster.Agglomerative(chain1D(), cluster.Single)
	require.NoError(t, err)

	coph := d.Cophenetic()
	assert.Equal(t, 1.0, coph.At(0, 1))
	assert.Equal(t, 1.0, coph.At(0, 2))
	assert.Equal(t, 1.0, coph.At(1, 2))
	for i := 0; i < 3; i++ {
		assert.Equal(t, 8.0, coph.At(i, 3), "pair (%d, 3)", i)
	}
	assert.Equal(t, 8.0, coph.At(3, 0), "symmetric access")
}

func TestDeterministic(t *testing.T) {
	x, _ := dataset.MakeBlobs(40, nil, 0.6, 11)
	a, err := cluster.Agglomerative(x, cluster.Ward)
	require.NoError(t, err)
	b, err := cluster.Agglomerative(x, cluster.Ward)
	require.NoError(t, err)
	requireMerges(t, a.Merges(), b.Merges())
}

func TestRecoversGeneratedBlobs(t *testing.T) {
	x, truth := dataset.MakeBlobs(60, nil, 0.4, 7)
	d, err := cluster.Agglomerative(x, cluster.Ward)
	require.NoError(t, err)

	labels, err := d.CutK(3)
	require.NoError(t, err)
	purity, err := cluster.Purity(labels, truth)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purity, 0.95)
}

func TestPurity(t *testing.T) {
	// Perfect clustering under renamed labels.
	p, err := cluster.Purity([]int{0, 0, 1, 1}, []int{1, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	// One point sits in the wrong cluster.
	p, err = cluster.Purity([]int{0, 0, 0, 1}, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.75, p)

	_, err = cluster.Purity([]int{0}, []int{0, 1})
	assert.Error(t, err)
}

func TestParseLinkage(t *testing.T) {
	for _, name := range []string{"single", "complete", "average", "ward"} {
		linkage, err := cluster.ParseLinkage(name)
		require.NoError(t, err)
		assert.Equal(t, name, linkage.String())
	}
	_, err := cluster.ParseLinkage("centroid")
	assert.Error(t, err)
}

func TestAgglomerativeRejectsEmptyInput(t *testing.T) {
	_, err := cluster.Agglomerative(mat.NewDense(1, 1, []float64{1}), cluster.Single)
	require.NoError(t, err, "a single point is a valid, merge-free dendrogram")

	var empty mat.Dense
	_, err = cluster.Agglomerative(&empty, cluster.Single)
	assert.Error(t, err)
}
