package cluster

import "fmt"

// Linkage selects how inter-cluster distance is measured.
type Linkage int

const (
	// Single takes the minimum pairwise distance (nearest neighbor).
	Single Linkage = iota
	// Complete takes the maximum pairwise distance (farthest neighbor).
	Complete
	// Average takes the mean pairwise distance (UPGMA).
	Average
	// Ward merges the pair with the smallest within-cluster variance
	// increase, with SciPy's square-root heights.
	Ward
)

func (l Linkage) String() string {
	switch l {
	case Single:
		return "single"
	case Complete:
		return "complete"
	case Average:
		return "average"
	case Ward:
		return "ward"
	default:
		return fmt.Sprintf("Linkage(%d)", int(l))
	}
}

// ParseLinkage maps a linkage name to its constant; lesson flags use it.
func ParseLinkage(s string) (Linkage, error) {
	switch s {
	case "single":
		return Single, nil
	case "complete":
		return Complete, nil
	case "average":
		return Average, nil
	case "ward":
		return Ward, nil
	default:
		return 0, fmt.Errorf("unknown linkage %q (want single, complete, average, or ward)", s)
	}
}
