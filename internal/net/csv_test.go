package net

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "sets.csv")
	data := "x1,x2,y\n1.0,2.0,0.5\n4.0, 5.0,1.5\n"
	require.NoError(t, os.WriteFile(filename, []byte(data), 0o644))

	sets, err := LoadCSV(filename, CSVOptions{Inputs: 2, Outputs: 1, Header: true})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, []float64{1, 2}, sets[0].Input)
	assert.Equal(t, []float64{0.5}, sets[0].Expected)
	assert.Equal(t, []float64{4, 5}, sets[1].Input)
	assert.Equal(t, []float64{1.5}, sets[1].Expected)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{Inputs: 1, Outputs: 1})
	assert.Error(t, err)
}

func TestReadCSVOneHot(t *testing.T) {
	sets, err := ReadCSV(strings.NewReader("0.1,0.2,2\n0.3,0.4,0\n"), CSVOptions{Inputs: 2, Outputs: 3, OneHot: true})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, []float64{0, 0, 1}, sets[0].Expected)
	assert.Equal(t, []float64{1, 0, 0}, sets[1].Expected)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts CSVOptions
		err  error
	}{
		{"short row", "1,2,3\n1,2\n", CSVOptions{Inputs: 2, Outputs: 1}, ErrColumnCount},
		{"long row", "1,2,3,4\n", CSVOptions{Inputs: 2, Outputs: 1}, ErrColumnCount},
		{"header width", "a,b\n1,2,3\n", CSVOptions{Inputs: 2, Outputs: 1, Header: true}, ErrColumnCount},
		{"class too large", "1,2,3\n", CSVOptions{Inputs: 2, Outputs: 3, OneHot: true}, ErrClassIndex},
		{"class negative", "1,2,-1\n", CSVOptions{Inputs: 2, Outputs: 3, OneHot: true}, ErrClassIndex},
		{"class fractional", "1,2,0.5\n", CSVOptions{Inputs: 2, Outputs: 3, OneHot: true}, ErrClassIndex},
		{"class huge", "0.5,1e20\n", CSVOptions{Inputs: 1, Outputs: 2, OneHot: true}, ErrClassIndex},
		{"class infinite", "0.5,Inf\n", CSVOptions{Inputs: 1, Outputs: 2, OneHot: true}, ErrClassIndex},
		{"class negative infinite", "0.5,-Inf\n", CSVOptions{Inputs: 1, Outputs: 2, OneHot: true}, ErrClassIndex},
		{"class NaN", "0.5,NaN\n", CSVOptions{Inputs: 1, Outputs: 2, OneHot: true}, ErrClassIndex},
		{"empty", "", CSVOptions{Inputs: 2, Outputs: 1}, ErrNoData},
		{"header only", "a,b,c\n", CSVOptions{Inputs: 2, Outputs: 1, Header: true}, ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), tt.opts)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestReadCSVSeparateSlices(t *testing.T) {
	sets, err := ReadCSV(strings.NewReader("1,2,3,4\n"), CSVOptions{Inputs: 2, Outputs: 2})
	require.NoError(t, err)
	require.Len(t, sets, 1)

	grown := append(sets[0].Input, 9)
	assert.Equal(t, []float64{1, 2, 9}, grown)
	assert.Equal(t, []float64{3, 4}, sets[0].Expected)
}

func TestReadCSVParseError(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,x,3\n"), CSVOptions{Inputs: 2, Outputs: 1})
	assert.Error(t, err)
}

func TestReadCSVStride(t *testing.T) {
	data := "0,0\n1,1\n2,2\n3,3\n4,4\n"
	sets, err := ReadCSV(strings.NewReader(data), CSVOptions{Inputs: 1, Outputs: 1, Stride: 2})
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, []float64{0}, sets[0].Input)
	assert.Equal(t, []float64{2}, sets[1].Input)
	assert.Equal(t, []float64{4}, sets[2].Input)
}

func TestReadCSVShuffleSeeded(t *testing.T) {
	data := "0,0\n1,1\n2,2\n3,3\n4,4\n5,5\n"
	a, err := ReadCSV(strings.NewReader(data), CSVOptions{Inputs: 1, Outputs: 1, Shuffle: rand.New(rand.NewSource(3))})
	require.NoError(t, err)
	b, err := ReadCSV(strings.NewReader(data), CSVOptions{Inputs: 1, Outputs: 1, Shuffle: rand.New(rand.NewSource(3))})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// rows stay paired with their expected values
	for _, s := range a {
		assert.Equal(t, s.Input, s.Expected)
	}
}

func TestNormalize(t *testing.T) {
	sets := Sets([][]float64{{0, 5}, {10, 5}, {5, 5}}, nil)
	Normalize(sets)

	assert.Equal(t, []float64{0, 0}, sets[0].Input)
	assert.Equal(t, []float64{1, 0}, sets[1].Input)
	assert.Equal(t, []float64{0.5, 0}, sets[2].Input)
	assert.Nil(t, sets[0].Expected)

	Normalize(nil)
}

func TestSplit(t *testing.T) {
	sets := Sets([][]float64{{1}, {2}, {3}, {4}}, [][]float64{{1}, {2}, {3}, {4}})

	train, test := Split(sets, 0.75)
	assert.Len(t, train, 3)
	assert.Len(t, test, 1)
	assert.Equal(t, []float64{4}, test[0].Expected)

	train, test = Split(sets, 0)
	assert.Empty(t, train)
	assert.Len(t, test, 4)

	train, test = Split(sets, 1)
	assert.Len(t, train, 4)
	assert.Empty(t, test)
}

func TestSpirals(t *testing.T) {
	sets := Spirals(20, 3, 0.1, rand.New(rand.NewSource(1)))
	require.Len(t, sets, 60)

	counts := make([]int, 3)
	for _, s := range sets {
		require.Len(t, s.Input, 2)
		require.Len(t, s.Expected, 3)
		assert.LessOrEqual(t, s.Input[0]*s.Input[0]+s.Input[1]*s.Input[1], 1.0)
		for c, v := range s.Expected {
			if v == 1 {
				counts[c]++
			}
		}
	}
	assert.Equal(t, []int{20, 20, 20}, counts)

	again := Spirals(20, 3, 0.1, rand.New(rand.NewSource(1)))
	assert.Equal(t, sets, again)
}
