package logging

import (
	"io"
	"log"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/workout-timer/internal/config"
)

// UIBufferSize is how many lines the UI channel holds before lines are dropped
const UIBufferSize = 256

// Logging is the process-wide logger: a rotating file plus a line channel
// the UI tails.
type Logging struct {
	Logger  *log.Logger
	UILines <-chan string

	file *lumberjack.Logger
	ui   *lineWriter
}

// New creates the logger described by cfg
func New(cfg config.Config) *Logging {
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	}
	return newLogging(file, file)
}

func newLogging(out io.Writer, file *lumberjack.Logger) *Logging {
	lines := make(chan string, UIBufferSize)
	ui := &lineWriter{ch: lines}
	return &Logging{
		Logger:  log.New(io.MultiWriter(out, ui), "", log.Ltime|log.Lmicroseconds),
		UILines: lines,
		file:    file,
		ui:      ui,
	}
}

// Dropped reports lines the UI channel could not take
func (l *Logging) Dropped() uint64 {
	return l.ui.dropped.Load()
}

// Close flushes and closes the log file. The UI channel is left open.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// lineWriter forwards each written line to ch without ever blocking the logger
type lineWriter struct {
	ch      chan<- string
	dropped atomic.Uint64
}

func (w *lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		select {
		case w.ch <- line:
		default:
			w.dropped.Add(1)
		}
	}
	return len(p), nil
}
