package net

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

var (
	ErrColumnCount = errors.New("mismatch in expected input/output count vs number of columns in CSV")
	ErrClassIndex  = errors.New("class index out of range")
	ErrNoData      = errors.New("csv file has no data rows")
)

// TrainingSet is one input vector and its expected output. Expected is nil
// for unsupervised training.
type TrainingSet struct {
	Input    []float64
	Expected []float64
}

// Sets pairs inputs with expected outputs. expected may be nil.
func Sets(inputs, expected [][]float64) []TrainingSet {
	sets := make([]TrainingSet, len(inputs))
	for i := range inputs {
		sets[i].Input = inputs[i]
		if expected != nil {
			sets[i].Expected = expected[i]
		}
	}
	return sets
}

// CSVOptions controls how rows become training sets.
type CSVOptions struct {
	Inputs  int
	Outputs int

	// OneHot reads a single trailing class-index column and expands it to
	// Outputs values, 1 at the class index and 0 elsewhere.
	OneHot bool

	// Header skips the first line.
	Header bool

	// Stride takes every Stride-th data row. 0 or 1 takes all rows.
	Stride int

	// Shuffle randomizes the order of the resulting sets when non-nil.
	Shuffle *rand.Rand
}

func (o CSVOptions) columns() int {
	if o.OneHot {
		return o.Inputs + 1
	}
	return o.Inputs + o.Outputs
}

// LoadCSV loads training sets from a CSV file.
func LoadCSV(filename string, opts CSVOptions) ([]TrainingSet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV reads training sets from r. Every row must have exactly
// Inputs + Outputs columns, or Inputs + 1 with OneHot.
func ReadCSV(r io.Reader, opts CSVOptions) ([]TrainingSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cols := opts.columns()
	startRow := 0
	if opts.Header {
		if len(records) > 0 && len(records[0]) != cols {
			return nil, fmt.Errorf("%w: header has %d columns, want %d", ErrColumnCount, len(records[0]), cols)
		}
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrNoData
	}

	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}

	var sets []TrainingSet
	for i := startRow; i < len(records); i += stride {
		record := records[i]
		if len(record) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrColumnCount, i, len(record), cols)
		}

		values := make([]float64, len(record))
		for j, valStr := range record {
			val, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			values[j] = val
		}

		set := TrainingSet{Input: values[:opts.Inputs:opts.Inputs]}
		if opts.OneHot {
			class := values[opts.Inputs]
			if !(class >= 0 && class < float64(opts.Outputs)) || class != math.Trunc(class) {
				return nil, fmt.Errorf("%w: row %d has class %v, want 0..%d", ErrClassIndex, i, class, opts.Outputs-1)
			}
			set.Expected = make([]float64, opts.Outputs)
			set.Expected[int(class)] = 1
		} else {
			set.Expected = values[opts.Inputs:]
		}
		sets = append(sets, set)
	}

	if opts.Shuffle != nil {
		opts.Shuffle.Shuffle(len(sets), func(a, b int) {
			sets[a], sets[b] = sets[b], sets[a]
		})
	}
	return sets, nil
}

// Normalize performs min-max normalization of the inputs in place.
func Normalize(sets []TrainingSet) {
	if len(sets) == 0 {
		return
	}

	numFeatures := len(sets[0].Input)
	min := make([]float64, numFeatures)
	max := make([]float64, numFeatures)
	copy(min, sets[0].Input)
	copy(max, sets[0].Input)

	for _, s := range sets {
		for i, val := range s.Input {
			if val < min[i] {
				min[i] = val
			}
			if val > max[i] {
				max[i] = val
			}
		}
	}

	for _, s := range sets {
		for i := range s.Input {
			diff := max[i] - min[i]
			if diff != 0 {
				s.Input[i] = (s.Input[i] - min[i]) / diff
			} else {
				s.Input[i] = 0
			}
		}
	}
}

// Split splits the sets into two based on the given ratio (0.0 to 1.0).
func Split(sets []TrainingSet, ratio float64) (train, test []TrainingSet) {
	if ratio <= 0 {
		return nil, sets
	}
	if ratio >= 1 {
		return sets, nil
	}
	splitIdx := int(float64(len(sets)) * ratio)
	return sets[:splitIdx], sets[splitIdx:]
}
