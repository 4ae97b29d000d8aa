package trainer

import "sort"

const (
	historyHead    = 5
	historyTail    = 5
	historySamples = 15
)

// Trend is the direction of the MSE since the previous sample.
type Trend int

const (
	Same Trend = iota
	Rose
	Fell
)

// Mark returns ">" for Rose, "<" for Fell and "=" otherwise.
func (t Trend) Mark() string {
	switch t {
	case Rose:
		return ">"
	case Fell:
		return "<"
	default:
		return "="
	}
}

// Sample is one (epoch, MSE) point.
type Sample struct {
	Epoch int
	MSE   float64
	Trend Trend
}

// History keeps the first epochs, every stride-th epoch and the last epochs
// of a run. Its size is bounded by the epoch target, not the run length.
type History struct {
	initial float64
	stride  int

	kept []Sample

	// ring of the most recent samples
	tail  [historyTail]Sample
	count int
}

// NewHistory sizes a history for a run of at most epochTarget epochs. Such a
// run keeps no more than head + samples + tail entries.
func NewHistory(epochTarget int) *History {
	stride := (epochTarget + historySamples - 1) / historySamples
	if stride < 1 {
		stride = 1
	}
	return &History{stride: stride}
}

// Start sets the MSE before the first epoch.
func (h *History) Start(initial float64) {
	h.initial = initial
}

// Initial returns the MSE before the first epoch.
func (h *History) Initial() float64 { return h.initial }

// Stride returns the sampling interval between head and tail.
func (h *History) Stride() int { return h.stride }

// Record adds the mean MSE of epoch (1-based).
func (h *History) Record(epoch int, mse float64) {
	s := Sample{Epoch: epoch, MSE: mse}
	if epoch <= historyHead || epoch%h.stride == 0 {
		h.kept = append(h.kept, s)
	}
	h.tail[h.count%historyTail] = s
	h.count++
}

// Len returns the number of recorded epochs.
func (h *History) Len() int { return h.count }

// Last returns the most recent sample.
func (h *History) Last() (Sample, bool) {
	if h.count == 0 {
		return Sample{}, false
	}
	return h.tail[(h.count-1)%historyTail], true
}

// Samples returns the retained samples in epoch order, each marked against
// the sample before it. The first is marked against the initial MSE.
func (h *History) Samples() []Sample {
	n := h.count
	if n > historyTail {
		n = historyTail
	}
	out := make([]Sample, 0, len(h.kept)+n)
	out = append(out, h.kept...)
	for i := h.count - n; i < h.count; i++ {
		s := h.tail[i%historyTail]
		if h.contains(s.Epoch) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Epoch < out[b].Epoch })

	prev := h.initial
	for i := range out {
		switch {
		case out[i].MSE > prev:
			out[i].Trend = Rose
		case out[i].MSE < prev:
			out[i].Trend = Fell
		default:
			out[i].Trend = Same
		}
		prev = out[i].MSE
	}
	return out
}

func (h *History) contains(epoch int) bool {
	i := sort.Search(len(h.kept), func(i int) bool { return h.kept[i].Epoch >= epoch })
	return i < len(h.kept) && h.kept[i].Epoch == epoch
}
