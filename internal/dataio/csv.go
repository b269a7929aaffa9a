// Package dataio reads the data of a run from delimited text files.
package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rwhender/BayesicFitting/pkg/domain"
)

// Columns selects the columns holding x, y and the optional weights.
type Columns struct {
	X, Y int
	// Weight < 0 means no weights.
	Weight int
	Header bool
	// Comma is the field delimiter; 0 means ','.
	Comma rune
}

// Dataset is the data of a problem.
type Dataset struct {
	X, Y, Weights []float64
	Header        []string
}

// Load reads path.
func Load(path string, cols Columns) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data: %w", err)
	}
	defer f.Close()
	ds, err := Read(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses delimited records. Blank lines and lines starting with '#'
// are skipped.
func Read(r io.Reader, cols Columns) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	if cols.Comma != 0 {
		cr.Comma = cols.Comma
	}
	need := max(cols.X, cols.Y, cols.Weight) + 1

	ds := &Dataset{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && cols.Header {
			ds.Header = rec
			continue
		}
		if len(rec) < need {
			return nil, fmt.Errorf("%w: record %d has %d fields, need %d", domain.ErrInvalidProblem, line, len(rec), need)
		}
		x, err := parse(rec, cols.X, line)
		if err != nil {
			return nil, err
		}
		y, err := parse(rec, cols.Y, line)
		if err != nil {
			return nil, err
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, y)
		if cols.Weight >= 0 {
			w, err := parse(rec, cols.Weight, line)
			if err != nil {
				return nil, err
			}
			ds.Weights = append(ds.Weights, w)
		}
	}
	if len(ds.Y) == 0 {
		return nil, fmt.Errorf("%w: no data records", domain.ErrInvalidProblem)
	}
	return ds, nil
}

func parse(rec []string, col, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: record %d column %d: %v", domain.ErrInvalidProblem, line, col, err)
	}
	return v, nil
}
