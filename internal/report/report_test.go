package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/DavidQChuang/SimpleAI/internal/activations"
	"github.com/DavidQChuang/SimpleAI/internal/layer"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/DavidQChuang/SimpleAI/internal/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNet(t *testing.T) *net.Network {
	t.Helper()
	n, err := net.New(nil,
		layer.Spec{Neurons: 2, Activation: activations.Linear, Name: "in"},
		layer.Spec{Neurons: 2, Activation: activations.Sigmoid, Name: "out", Init: weights.Constant{Value: 0.5}},
	)
	require.NoError(t, err)
	return n
}

func TestNetwork(t *testing.T) {
	var buf bytes.Buffer
	Network(&buf, testNet(t))

	out := buf.String()
	assert.Contains(t, out, "Activation")
	assert.Contains(t, out, "sigmoid")
	assert.Contains(t, out, "[ 0.5000, 0.5000 ]")
	assert.Contains(t, out, "out")
}

func TestChange(t *testing.T) {
	before := testNet(t)
	after := before.Clone()
	after.Layer(1).Weights()[0] = 1.5

	var buf bytes.Buffer
	require.NoError(t, Change(&buf, before, after))
	assert.Contains(t, buf.String(), "[ 1.5000, 0.5000 ]")
	assert.Contains(t, buf.String(), "1.000e+00")

	other, err := net.New(nil, layer.Spec{Neurons: 1, Activation: activations.Linear})
	require.NoError(t, err)
	assert.Error(t, Change(&buf, before, other))
}

func TestResults(t *testing.T) {
	n := testNet(t)
	sets := net.Sets([][]float64{{0, 0}, {1, 1}}, [][]float64{{0.5, 0.5}, {1, 0}})

	var buf bytes.Buffer
	Results(&buf, n, sets)
	out := buf.String()
	assert.Contains(t, out, "NNOutputs")
	// zero input gives sigmoid(0) on both outputs, a perfect match
	assert.Contains(t, out, "0.000000e+00")

	buf.Reset()
	Results(&buf, n, net.Sets([][]float64{{1}}, nil))
	assert.Contains(t, buf.String(), "[ FAILED ]")
}

func TestClusters(t *testing.T) {
	n := testNet(t)
	copy(n.Layer(1).Weights(), []float64{1, 0, 0, 1})

	var buf bytes.Buffer
	Clusters(&buf, n, [][]float64{{2, -2}, {-2, 2}})
	lines := strings.Split(buf.String(), "\n")

	var clusters []string
	for _, l := range lines {
		fields := strings.Split(l, "|")
		if len(fields) > 4 {
			clusters = append(clusters, strings.TrimSpace(fields[4]))
		}
	}
	assert.Equal(t, []string{"Cluster", "1", "2"}, clusters)
}

func TestTrendAndSummary(t *testing.T) {
	h := trainer.NewHistory(10)
	h.Start(1)
	h.Record(1, 0.5)
	h.Record(2, 0.7)
	h.Record(3, 0.7)

	var buf bytes.Buffer
	Trend(&buf, h)
	out := buf.String()
	assert.Contains(t, out, "5.000000e-01")
	assert.Contains(t, out, "MSE trend")
	for _, mark := range []string{"<", ">", "="} {
		assert.Contains(t, out, mark)
	}

	buf.Reset()
	Summary(&buf, trainer.Result{Status: trainer.Converged, Epochs: 3, MSE: 0.001, History: h})
	assert.Contains(t, buf.String(), "Succeeded - Reached minimum MSE target")
	assert.Contains(t, buf.String(), "1.000000e-03")
}

func TestTrendNotFinite(t *testing.T) {
	h := trainer.NewHistory(10)
	h.Start(1)
	h.Record(1, 4)
	h.Record(2, 1e200)
	h.Record(3, math.Inf(1))

	var buf bytes.Buffer
	require.NotPanics(t, func() { Trend(&buf, h) })
	out := buf.String()
	assert.Contains(t, out, "+Inf")
	assert.Contains(t, out, "MSE trend")

	// nothing finite after the start leaves the table alone
	h = trainer.NewHistory(10)
	h.Start(1)
	h.Record(1, math.NaN())
	h.Record(2, math.Inf(1))

	buf.Reset()
	require.NotPanics(t, func() { Trend(&buf, h) })
	assert.Contains(t, buf.String(), "NaN")
	assert.NotContains(t, buf.String(), "MSE trend")
}
