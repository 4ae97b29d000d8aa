// Package report renders human-readable diagnostics for networks and
// training runs. The output is for people, not for parsing.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/DavidQChuang/SimpleAI/internal/loss"
	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

func vector(v []float64, prec int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', prec, 64)
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

func layerName(n *net.Network, i int) string {
	if name := n.Layer(i).Name(); name != "" {
		return name
	}
	return "#" + strconv.Itoa(i)
}

// Network writes one row per neuron with its input weights.
func Network(w io.Writer, n *net.Network) {
	t := newTable(w, "Layer", "Activation", "Neuron", "Weights")
	for i, l := range n.Layers() {
		for nIdx := 0; nIdx < l.Size(); nIdx++ {
			t.Append([]string{
				layerName(n, i),
				l.Kind().String(),
				strconv.Itoa(nIdx),
				vector(l.NeuronWeights(nIdx), 4),
			})
		}
	}
	t.Render()
}

// Change writes each neuron's weights before and after training and the
// size of the change. after must be a trained clone of before.
func Change(w io.Writer, before, after *net.Network) error {
	if before.Depth() != after.Depth() || before.WeightCount() != after.WeightCount() {
		return fmt.Errorf("networks differ in shape: %d/%d layers, %d/%d weights",
			before.Depth(), after.Depth(), before.WeightCount(), after.WeightCount())
	}

	t := newTable(w, "Layer", "Neuron", "Before", "After", "|Δ|")
	for i, l := range before.Layers() {
		for nIdx := 0; nIdx < l.Size(); nIdx++ {
			b := l.NeuronWeights(nIdx)
			a := after.Layer(i).NeuronWeights(nIdx)
			t.Append([]string{
				layerName(before, i),
				strconv.Itoa(nIdx),
				vector(b, 4),
				vector(a, 4),
				strconv.FormatFloat(floats.Distance(a, b, 2), 'e', 3, 64),
			})
		}
	}
	t.Render()
	return nil
}

// Results runs every set through n and writes inputs, expected outputs,
// network outputs and the set's MSE.
func Results(w io.Writer, n *net.Network, sets []net.TrainingSet) {
	t := newTable(w, "Set", "Inputs", "ExpOutputs", "NNOutputs", "MSError")
	for i, s := range sets {
		row := []string{strconv.Itoa(i), vector(s.Input, 3), vector(s.Expected, 6)}
		out, err := n.Execute(s.Input)
		switch {
		case err != nil:
			row = append(row, "[ FAILED ]", "[ FAILED ]")
		case len(s.Expected) == len(out):
			row = append(row, vector(out, 6), strconv.FormatFloat(loss.MSE{}.Forward(out, s.Expected), 'e', 6, 64))
		default:
			row = append(row, vector(out, 6), "-")
		}
		t.Append(row)
	}
	t.Render()
}

// Clusters writes the winning output (1-based) for each input vector.
func Clusters(w io.Writer, n *net.Network, inputs [][]float64) {
	t := newTable(w, "Set", "IN", "OUT", "Cluster")
	for i, in := range inputs {
		out, err := n.Execute(in)
		if err != nil {
			t.Append([]string{strconv.Itoa(i), vector(in, 8), "[ FAILED ]", "-"})
			continue
		}
		t.Append([]string{
			strconv.Itoa(i),
			vector(in, 8),
			vector(out, 8),
			strconv.Itoa(floats.MaxIdx(out) + 1),
		})
	}
	t.Render()
}

// Summary writes the final result line of a run.
func Summary(w io.Writer, res trainer.Result) {
	fmt.Fprintf(w, "%-10s | %-38s | Epoch %-3d\n", "Result", res.Status, res.Epochs)
	fmt.Fprintf(w, "%-10s | [ %.6e ]\n", "MMSError", res.MSE)
	fmt.Fprintf(w, "%-10s | %s\n", "Run", res.RunID)
	fmt.Fprintf(w, "%-10s | %s\n", "Time", res.Elapsed)
}

// Trend writes the retained MSE samples with their direction marks and, for
// more than one sample, a plot. The plot stops at the first MSE that is not
// finite; the table shows every sample.
func Trend(w io.Writer, h *trainer.History) {
	samples := h.Samples()
	t := newTable(w, "Epoch", "MSE", "")
	t.Append([]string{"-", strconv.FormatFloat(h.Initial(), 'e', 6, 64), ""})
	series := make([]float64, 0, len(samples)+1)
	plotting := finite(h.Initial())
	if plotting {
		series = append(series, h.Initial())
	}
	for _, s := range samples {
		t.Append([]string{
			strconv.Itoa(s.Epoch),
			strconv.FormatFloat(s.MSE, 'e', 6, 64),
			s.Trend.Mark(),
		})
		plotting = plotting && finite(s.MSE)
		if plotting {
			series = append(series, s.MSE)
		}
	}
	t.Render()

	if len(series) > 1 {
		fmt.Fprintln(w, asciigraph.Plot(series,
			asciigraph.Height(8),
			asciigraph.Caption("MSE trend")))
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
