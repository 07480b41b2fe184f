// Package report provides the sinks that receive per-item handler statuses.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Status is a single handler result, tagged with the item it was produced for
type Status struct {
	RunID  string `json:"run_id"`
	Index  int    `json:"index"`
	Item   string `json:"item"`
	Status int    `json:"status"`
}

// Line renders the status the way it is written to standard output
func (s Status) Line() string {
	return fmt.Sprintf("return = %d", s.Status)
}

// Reporter receives handler statuses in traversal order.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, status Status) error
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(ctx context.Context, status Status) error

// Report implements Reporter
func (f ReporterFunc) Report(ctx context.Context, status Status) error {
	return f(ctx, status)
}

// Discard drops every status
var Discard Reporter = ReporterFunc(func(context.Context, Status) error { return nil })

// WriterReporter writes one "return = <status>" line per status
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a reporter writing to w
func NewWriter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

// NewStdout creates a reporter writing to the process's standard output
func NewStdout() *WriterReporter {
	return NewWriter(os.Stdout)
}

// Report implements Reporter
func (r *WriterReporter) Report(_ context.Context, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := fmt.Fprintln(r.w, status.Line()); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

// LogReporter emits each status as a structured log entry
type LogReporter struct {
	logger *zap.Logger
}

// NewLog creates a reporter logging through logger. A nil logger discards entries.
func NewLog(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger}
}

// Report implements Reporter
func (r *LogReporter) Report(_ context.Context, status Status) error {
	r.logger.Info(status.Line(),
		zap.String("run_id", status.RunID),
		zap.String("item", status.Item),
		zap.Int("index", status.Index),
		zap.Int("status", status.Status))
	return nil
}

type multi []Reporter

// Multi fans each status out to reporters in order, stopping at the first error
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Report(ctx context.Context, status Status) error {
	for _, r := range m {
		if err := r.Report(ctx, status); err != nil {
			return err
		}
	}
	return nil
}
