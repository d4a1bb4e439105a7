package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// LoadPointsCSV reads an all-numeric CSV as a point matrix, one row per
// observation. A non-numeric first row is treated as a header and
// skipped, the same sniff the MNIST CSV loader uses.
func LoadPointsCSV(filename string) (*mat.Dense, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open points file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s contains no data rows", filename)
	}

	dim := len(records[0])
	x := mat.NewDense(len(records), dim, nil)
	for i, record := range records {
		if len(record) != dim {
			return nil, fmt.Errorf("row %d: got %d columns, want %d", i+1, len(record), dim)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i+1, j+1, err)
			}
			x.Set(i, j, v)
		}
	}
	return x, nil
}
