package tree

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned by prediction methods before Fit succeeds.
var ErrNotFitted = errors.New("tree: classifier is not fitted")

// Config controls tree growth. The zero value grows an unpruned tree:
// unlimited depth, split any node with at least two samples.
type Config struct {
	// MaxDepth caps tree depth; 0 means unlimited. A tree of depth 0
	// is a single leaf.
	MaxDepth int
	// MinSamplesSplit is the smallest node that may still split.
	// Values below 2 mean 2.
	MinSamplesSplit int
	// MinImpurityDecrease requires each split to reduce the weighted
	// impurity by at least this much, sklearn-style:
	// (n_node / n_total) * (impurity - weighted child impurity).
	MinImpurityDecrease float64
}

// node is one tree node; leaves have no children.
type node struct {
	feature     int     // split feature, -1 on leaves
	threshold   float64 // left subtree takes x[feature] <= threshold
	left, right *node
	classCounts []int
	prediction  int
	impurity    float64
	samples     int
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// Classifier is a CART decision-tree classifier.
type Classifier struct {
	config      Config
	root        *node
	numFeatures int
	numClasses  int
	importances []float64
}

// NewClassifier builds an unfitted classifier.
func NewClassifier(config Config) *Classifier {
	if config.MinSamplesSplit < 2 {
		config.MinSamplesSplit = 2
	}
	return &Classifier{config: config}
}

// Fit grows the tree on x ([samples, features]) and labels y. Labels
// are class indices 0..k-1; k is taken from the largest label seen.
func (c *Classifier) Fit(x *mat.Dense, y []int) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return fmt.Errorf("tree: empty training set")
	}
	if rows != len(y) {
		return fmt.Errorf("tree: x has %d rows but y has %d labels", rows, len(y))
	}
	numClasses := 0
	for i, label := range y {
		if label < 0 {
			return fmt.Errorf("tree: negative label %d at sample %d", label, i)
		}
		if label+1 > numClasses {
			numClasses = label + 1
		}
	}

	c.numFeatures = cols
	c.numClasses = numClasses
	c.importances = make([]float64, cols)

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	c.root = c.build(x, y, indices, 0, rows)

	total := 0.0
	for _, imp := range c.importances {
		total += imp
	}
	if total > 0 {
		for i := range c.importances {
			c.importances[i] /= total
		}
	}
	return nil
}

// build grows the subtree over the samples selected by indices.
func (c *Classifier) build(x *mat.Dense, y []int, indices []int, depth, totalSamples int) *node {
	counts := make([]int, c.numClasses)
	for _, idx := range indices {
		counts[y[idx]]++
	}
	n := &node{
		feature:     -1,
		classCounts: counts,
		prediction:  argmax(counts),
		impurity:    gini(counts, len(indices)),
		samples:     len(indices),
	}

	if n.impurity == 0 || len(indices) < c.config.MinSamplesSplit {
		return n
	}
	if c.config.MaxDepth > 0 && depth >= c.config.MaxDepth {
		return n
	}

	feature, threshold, gain, ok := c.bestSplit(x, y, indices, n)
	if !ok {
		return n
	}
	weightedGain := float64(len(indices)) / float64(totalSamples) * gain
	if weightedGain < c.config.MinImpurityDecrease {
		return n
	}

	var leftIdx, rightIdx []int
	for _, idx := range indices {
		if x.At(idx, feature) <= threshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}

	c.importances[feature] += weightedGain
	n.feature = feature
	n.threshold = threshold
	n.left = c.build(x, y, leftIdx, depth+1, totalSamples)
	n.right = c.build(x, y, rightIdx, depth+1, totalSamples)
	return n
}

// bestSplit sweeps every feature's sorted values and returns the
// threshold with the largest impurity decrease. ok is false when no
// feature has two distinct values.
func (c *Classifier) bestSplit(x *mat.Dense, y []int, indices []int, n *node) (feature int, threshold, gain float64, ok bool) {
	total := len(indices)
	bestGain := -1.0

	type sample struct {
		value float64
		class int
	}
	sorted := make([]sample, total)

	for f := 0; f < c.numFeatures; f++ {
		for i, idx := range indices {
			sorted[i] = sample{value: x.At(idx, f), class: y[idx]}
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })

		leftCounts := make([]int, c.numClasses)
		rightCounts := append([]int(nil), n.classCounts...)

		for i := 0; i < total-1; i++ {
			leftCounts[sorted[i].class]++
			rightCounts[sorted[i].class]--
			if sorted[i].value == sorted[i+1].value {
				continue
			}
			nLeft := i + 1
			nRight := total - nLeft
			childImpurity := (float64(nLeft)*gini(leftCounts, nLeft) +
				float64(nRight)*gini(rightCounts, nRight)) / float64(total)
			g := n.impurity - childImpurity
			if g > bestGain {
				bestGain = g
				feature = f
				threshold = (sorted[i].value + sorted[i+1].value) / 2
			}
		}
	}

	if bestGain < 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, bestGain, true
}

// gini computes 1 - sum(p_k^2) for class counts over n samples.
func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sumSq := 0.0
	for _, count := range counts {
		p := float64(count) / float64(n)
		sumSq += p * p
	}
	return 1 - sumSq
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

// Predict returns the majority class of the leaf each row lands in.
func (c *Classifier) Predict(x *mat.Dense) ([]int, error) {
	if c.root == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != c.numFeatures {
		return nil, fmt.Errorf("tree: x has %d features, classifier was fitted on %d", cols, c.numFeatures)
	}
	predictions := make([]int, rows)
	for i := 0; i < rows; i++ {
		predictions[i] = c.leafFor(x, i).prediction
	}
	return predictions, nil
}

// PredictProba returns per-class probabilities, the normalized class
// counts of each row's leaf, as a [rows, classes] matrix.
func (c *Classifier) PredictProba(x *mat.Dense) (*mat.Dense, error) {
	if c.root == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != c.numFeatures {
		return nil, fmt.Errorf("tree: x has %d features, classifier was fitted on %d", cols, c.numFeatures)
	}
	probs := mat.NewDense(rows, c.numClasses, nil)
	for i := 0; i < rows; i++ {
		leaf := c.leafFor(x, i)
		for k, count := range leaf.classCounts {
			probs.Set(i, k, float64(count)/float64(leaf.samples))
		}
	}
	return probs, nil
}

func (c *Classifier) leafFor(x *mat.Dense, row int) *node {
	n := c.root
	for !n.isLeaf() {
		if x.At(row, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

// Score returns mean accuracy on the given data.
func (c *Classifier) Score(x *mat.Dense, y []int) (float64, error) {
	predictions, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(predictions) != len(y) {
		return 0, fmt.Errorf("tree: got %d labels for %d predictions", len(y), len(predictions))
	}
	correct := 0
	for i, p := range predictions {
		if p == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y)), nil
}

// FeatureImportances returns the normalized impurity decrease per
// feature. Zero before Fit.
func (c *Classifier) FeatureImportances() []float64 {
	out := make([]float64, len(c.importances))
	copy(out, c.importances)
	return out
}

// NumClasses returns the number of classes seen during Fit.
func (c *Classifier) NumClasses() int {
	return c.numClasses
}

// Depth returns the fitted tree's depth; a lone leaf has depth 0.
func (c *Classifier) Depth() int {
	return depthOf(c.root)
}

func depthOf(n *node) int {
	if n == nil || n.isLeaf() {
		return 0
	}
	left := depthOf(n.left)
	right := depthOf(n.right)
	if left > right {
		return left + 1
	}
	return right + 1
}
