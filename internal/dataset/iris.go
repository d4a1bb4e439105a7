package dataset

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// irisCSV is the classic 150-flower table (Fisher 1936), baked in so
// the decision-tree lesson needs no files.
//
//go:embed data/iris.csv
var irisCSV string

// IrisData is the Iris table in the shape the tree and clustering
// lessons consume: a gonum feature matrix plus class indices.
type IrisData struct {
	X            *mat.Dense // [150, 4]
	Y            []int      // class index into ClassNames
	FeatureNames []string
	ClassNames   []string
}

// LoadIris parses the embedded Iris CSV. Classes are indexed in order
// of first appearance: setosa 0, versicolor 1, virginica 2.
func LoadIris() (*IrisData, error) {
	records, err := csv.NewReader(strings.NewReader(irisCSV)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded iris data: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("embedded iris data is empty")
	}

	header := records[0]
	records = records[1:]
	numFeatures := len(header) - 1

	x := mat.NewDense(len(records), numFeatures, nil)
	y := make([]int, len(records))
	classIndex := make(map[string]int)
	var classNames []string

	for i, record := range records {
		if len(record) != numFeatures+1 {
			return nil, fmt.Errorf("row %d: got %d columns, want %d", i+1, len(record), numFeatures+1)
		}
		for j := 0; j < numFeatures; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i+1, j+1, err)
			}
			x.Set(i, j, v)
		}
		name := record[numFeatures]
		idx, ok := classIndex[name]
		if !ok {
			idx = len(classNames)
			classIndex[name] = idx
			classNames = append(classNames, name)
		}
		y[i] = idx
	}

	return &IrisData{
		X:            x,
		Y:            y,
		FeatureNames: header[:numFeatures],
		ClassNames:   classNames,
	}, nil
}
