package tree

import (
	"fmt"
	"strings"
)

// ExportText renders the fitted tree in the indented format of
// sklearn's export_text. featureNames may be nil; features then print
// as feature_0, feature_1, ...
func (c *Classifier) ExportText(featureNames []string) string {
	if c.root == nil {
		return "<unfitted tree>\n"
	}
	var sb strings.Builder
	c.exportNode(&sb, c.root, 0, featureNames)
	return sb.String()
}

func (c *Classifier) exportNode(sb *strings.Builder, n *node, depth int, featureNames []string) {
	indent := strings.Repeat("|   ", depth)
	if n.isLeaf() {
		fmt.Fprintf(sb, "%s|--- class: %d (%d/%d)\n", indent, n.prediction, n.classCounts[n.prediction], n.samples)
		return
	}
	name := fmt.Sprintf("feature_%d", n.feature)
	if n.feature < len(featureNames) {
		name = featureNames[n.feature]
	}
	fmt.Fprintf(sb, "%s|--- %s <= %.2f\n", indent, name, n.threshold)
	c.exportNode(sb, n.left, depth+1, featureNames)
	fmt.Fprintf(sb, "%s|--- %s >  %.2f\n", indent, name, n.threshold)
	c.exportNode(sb, n.right, depth+1, featureNames)
}
