// Package dataset loads the reference price dataset used for grading.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/criyle/go-grader/frame"
)

const dateLayout = "2006-01-02"

// Load reads a CSV of closing prices with a leading Date column into a
// frame. Cells that do not parse as numbers become NaN; a malformed date
// is an error.
func Load(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("dataset: %s is empty", path)
	}
	header := records[0]
	if len(header) < 2 || header[0] != "Date" {
		return nil, fmt.Errorf("dataset: %s must start with a Date column", path)
	}
	cols := header[1:]

	index := make([]time.Time, 0, len(records)-1)
	data := make([][]float64, 0, len(records)-1)
	for n, rec := range records[1:] {
		t, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", n+2, err)
		}
		row := make([]float64, len(cols))
		for j := range cols {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				v = math.NaN()
			}
			row[j] = v
		}
		index = append(index, t)
		data = append(data, row)
	}
	return frame.FromData(index, cols, data)
}
