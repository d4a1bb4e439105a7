package cluster

import "fmt"

// Purity scores a flat clustering against known generating labels: each
// cluster votes for its most common true label, and Purity is the
// fraction of points matching their cluster's vote. 1.0 means every
// cluster is label-pure.
func Purity(labels, truth []int) (float64, error) {
	if len(labels) != len(truth) {
		return 0, fmt.Errorf("cluster: %d labels vs %d truth values", len(labels), len(truth))
	}
	if len(labels) == 0 {
		return 0, fmt.Errorf("cluster: empty labeling")
	}

	votes := make(map[int]map[int]int)
	for i, c := range labels {
		if votes[c] == nil {
			votes[c] = make(map[int]int)
		}
		votes[c][truth[i]]++
	}

	correct := 0
	for _, counts := range votes {
		best := 0
		for _, count := range counts {
			if count > best {
				best = count
			}
		}
		correct += best
	}
	return float64(correct) / float64(len(labels)), nil
}
