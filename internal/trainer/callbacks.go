package trainer

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/DavidQChuang/SimpleAI/internal/net"
	"github.com/rs/zerolog"
)

// Callback observes a training run.
type Callback interface {
	OnTrainBegin(run Run, n *net.Network)
	OnTrainEnd(res Result, n *net.Network)
	OnEpochBegin(epoch int, n *net.Network)
	OnEpochEnd(epoch int, mse float64, n *net.Network)
	OnSetEnd(set int, mse float64, n *net.Network)
}

// Stopper is a callback that can end a run early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(run Run, n *net.Network)              {}
func (c BaseCallback) OnTrainEnd(res Result, n *net.Network)             {}
func (c BaseCallback) OnEpochBegin(epoch int, n *net.Network)            {}
func (c BaseCallback) OnEpochEnd(epoch int, mse float64, n *net.Network) {}
func (c BaseCallback) OnSetEnd(set int, mse float64, n *net.Network)     {}

// Logger logs the epoch MSE every Interval epochs.
type Logger struct {
	BaseCallback
	Log      zerolog.Logger
	Interval int
}

// NewLogger creates a Logger.
func NewLogger(log zerolog.Logger, interval int) *Logger {
	return &Logger{Log: log, Interval: interval}
}

func (c *Logger) OnEpochEnd(epoch int, mse float64, n *net.Network) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		c.Log.Info().Int("epoch", epoch).Float64("mse", mse).Msg("epoch")
	}
}

func (c *Logger) OnSetEnd(set int, mse float64, n *net.Network) {
	c.Log.Trace().Int("set", set).Float64("mse", mse).Msg("set")
}

// EarlyStopping stops training when the MSE has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestMSE      float64
	numBadEpochs int
	Stopped      bool
}

// NewEarlyStopping creates an EarlyStopping callback.
func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestMSE:   math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnTrainBegin(run Run, n *net.Network) {
	c.bestMSE = math.MaxFloat64
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnEpochEnd(epoch int, mse float64, n *net.Network) {
	if mse < c.bestMSE-c.Threshold {
		c.bestMSE = mse
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		c.Stopped = true
	}
}

// ShouldStop implements Stopper.
func (c *EarlyStopping) ShouldStop() bool { return c.Stopped }

// CSVLogger writes one row per epoch to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool
	Log      zerolog.Logger

	run    Run
	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger. File errors are logged to log.
func NewCSVLogger(filename string, append bool, log zerolog.Logger) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
		Log:      log,
	}
}

func (c *CSVLogger) OnTrainBegin(run Run, n *net.Network) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.Log.Error().Err(err).Str("file", c.Filename).Msg("csv logger: failed to open file")
		return
	}
	c.run = run
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// header only for a fresh file
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.writer.Write([]string{"run", "trainer", "epoch", "mse", "time_seconds"})
		c.writer.Flush()
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, mse float64, n *net.Network) {
	if c.writer == nil {
		return
	}

	elapsed := time.Since(c.start).Seconds()
	record := []string{
		c.run.ID.String(),
		c.run.Trainer,
		strconv.Itoa(epoch),
		strconv.FormatFloat(mse, 'e', 6, 64),
		fmt.Sprintf("%.3f", elapsed),
	}

	if err := c.writer.Write(record); err != nil {
		c.Log.Error().Err(err).Msg("csv logger: failed to write record")
	}
	c.writer.Flush()
}

func (c *CSVLogger) OnTrainEnd(res Result, n *net.Network) {
	if c.file != nil {
		c.writer.Flush()
		c.file.Close()
		c.file = nil
		c.writer = nil
	}
}
