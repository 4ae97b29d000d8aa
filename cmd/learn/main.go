package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DavidQChuang/SimpleAI/internal/config"
	"github.com/DavidQChuang/SimpleAI/internal/experiment"
	"github.com/DavidQChuang/SimpleAI/internal/metrics"
	"github.com/DavidQChuang/SimpleAI/internal/trainer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func main() {
	preset := flag.String("preset", "", "built-in experiment: "+strings.Join(config.Presets(), ", "))
	file := flag.String("config", "", "experiment yaml file")
	seed := flag.Int64("seed", 0, "reseed weights and data shuffling")
	list := flag.Bool("list", false, "list the built-in experiments")
	csvLog := flag.String("csv-log", "", "append per-epoch mse to this csv file")
	metricsAddr := flag.String("metrics", "", "serve prometheus metrics on this address, e.g. :2112")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *list {
		for _, name := range config.Presets() {
			e, err := config.Preset(name)
			if err != nil {
				log.Fatal().Err(err).Str("preset", name).Msg("broken preset")
			}
			fmt.Printf("%-12s %-22s %s\n", name, e.Trainer, e.Description)
		}
		return
	}

	var (
		e   *config.Experiment
		err error
	)
	switch {
	case *file != "":
		e, err = config.Load(*file)
	case *preset != "":
		e, err = config.Preset(*preset)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("could not load experiment")
	}

	opts := []experiment.Option{
		experiment.WithOutput(os.Stdout),
		experiment.WithLogger(log.Logger),
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts = append(opts, experiment.WithSeed(*seed))
		}
	})
	if *csvLog != "" {
		opts = append(opts, experiment.WithCallbacks(trainer.NewCSVLogger(*csvLog, true, log.Logger)))
	}
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, experiment.WithCallbacks(metrics.New(reg)))
		srv := metrics.Serve(*metricsAddr, reg, log.Logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	out, err := experiment.NewRunner(opts...).Run(e)
	if err != nil {
		log.Error().Err(err).Str("experiment", e.Name).Msg("training failed")
		os.Exit(1)
	}
	log.Debug().
		Str("run", out.Result.RunID.String()).
		Str("status", out.Result.Status.String()).
		Msg("done")
}
