// Package metrics exposes training progress to Prometheus.
package metrics

import (
	"net/http"

	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "simpleai"

// Metrics is a trainer.Callback that records every run it observes.
type Metrics struct {
	trainer.BaseCallback

	Runs     *prometheus.CounterVec
	Epochs   *prometheus.CounterVec
	MSE      *prometheus.GaugeVec
	Weights  *prometheus.GaugeVec
	Duration *prometheus.HistogramVec

	current string
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_runs_total",
				Help:      "Finished training runs by trainer and outcome.",
			}, []string{"trainer", "status"}),
		Epochs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_epochs_total",
				Help:      "Completed training epochs.",
			}, []string{"trainer"}),
		MSE: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "training_mse",
				Help:      "Mean squared error of the latest epoch.",
			}, []string{"trainer"}),
		Weights: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "network_weights",
				Help:      "Number of weights in the network being trained.",
			}, []string{"trainer"}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Wall time of training runs.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}, []string{"trainer"}),
	}
	reg.MustRegister(m.Runs, m.Epochs, m.MSE, m.Weights, m.Duration)
	return m
}

func (m *Metrics) OnTrainBegin(run trainer.Run, n *net.Network) {
	m.current = run.Trainer
	m.Weights.WithLabelValues(run.Trainer).Set(float64(n.WeightCount()))
}

func (m *Metrics) OnEpochEnd(epoch int, mse float64, n *net.Network) {
	m.Epochs.WithLabelValues(m.current).Inc()
	m.MSE.WithLabelValues(m.current).Set(mse)
}

func (m *Metrics) OnTrainEnd(res trainer.Result, n *net.Network) {
	m.Runs.WithLabelValues(res.Trainer, statusLabel(res.Status)).Inc()
	m.Duration.WithLabelValues(res.Trainer).Observe(res.Elapsed.Seconds())
}

func statusLabel(s trainer.Status) string {
	switch s {
	case trainer.Converged:
		return "converged"
	case trainer.Exhausted:
		return "exhausted"
	case trainer.Diverged:
		return "diverged"
	case trainer.Stopped:
		return "stopped"
	default:
		return "failed"
	}
}

// Serve exposes the gatherer on addr under /metrics in the background.
func Serve(addr string, g prometheus.Gatherer, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
