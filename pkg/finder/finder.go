// Package finder walks a fixed, ordered list of items and invokes a caller-supplied handler
// on each one, reporting every handler status to a reporter.
//
// The package-level Dispatch walks the default cheese list and prints one
// "return = <status>" line per item to standard output:
//
//	err := finder.Dispatch(finder.HandlerFunc(func(ctx context.Context, item string) (int, error) {
//	    fmt.Println("We found", item)
//	    return 0, nil
//	}))
//
// Handler errors stop the walk and are returned exactly as the handler produced them.
package finder

import (
	"context"
	"time"

	"github.com/google/uuid"
	sdkerrors "github.com/wehubfusion/cheesefinder/pkg/errors"
	"github.com/wehubfusion/cheesefinder/pkg/iteration"
	"github.com/wehubfusion/cheesefinder/pkg/report"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "cheesefinder/finder"

// Config holds configuration for a Finder
type Config struct {
	Reporter       report.Reporter      // Sink for per-item statuses (default: stdout)
	Logger         *zap.Logger          // Structured logger (default: no-op)
	TracerProvider trace.TracerProvider // Span source (default: global provider)
	HaltOnNonZero  bool                 // Stop after reporting the first nonzero status
}

// DefaultConfig returns a configuration that reports to standard output and never halts on status
func DefaultConfig() Config {
	return Config{
		Reporter: report.NewStdout(),
		Logger:   zap.NewNop(),
	}
}

// Finder dispatches a handler over an immutable, ordered list of items
type Finder struct {
	items         []string
	reporter      report.Reporter
	logger        *zap.Logger
	tracer        trace.Tracer
	haltOnNonZero bool
}

// New creates a Finder over the default cheese list
func New(config Config) *Finder {
	return NewWithItems(cheeses[:], config)
}

// NewWithItems creates a Finder over a copy of items. Order is preserved.
func NewWithItems(items []string, config Config) *Finder {
	owned := make([]string, len(items))
	copy(owned, items)

	if config.Reporter == nil {
		config.Reporter = report.NewStdout()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}

	return &Finder{
		items:         owned,
		reporter:      config.Reporter,
		logger:        config.Logger,
		tracer:        config.TracerProvider.Tracer(tracerName),
		haltOnNonZero: config.HaltOnNonZero,
	}
}

// Items returns a copy of the items this Finder walks
func (f *Finder) Items() []string {
	out := make([]string, len(f.items))
	copy(out, f.items)
	return out
}

// Len returns the number of items visited per dispatch
func (f *Finder) Len() int {
	return len(f.items)
}

// Find invokes handler once per item, in order, and reports each status tagged with its item.
//
// A nonzero status is reported and the walk continues unless HaltOnNonZero is set.
// A handler error is returned unchanged and no later item is visited.
// A reporter error stops the walk and is returned as a REPORT_FAILED error.
func (f *Finder) Find(ctx context.Context, handler Handler) error {
	if isNilHandler(handler) {
		return sdkerrors.NewError(sdkerrors.CodeInvalidHandler, "handler cannot be nil", nil)
	}

	runID := uuid.NewString()
	ctx, span := f.tracer.Start(ctx, "finder.Find",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("items.count", len(f.items)),
		))
	defer span.End()

	start := time.Now()
	logger := f.logger.With(zap.String("run_id", runID))

	err := iteration.Walk(ctx, f.items, func(ctx context.Context, item string, index int) error {
		return f.visit(ctx, logger, runID, handler, item, index)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("Dispatch stopped early",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("Dispatch completed",
		zap.Int("items", len(f.items)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (f *Finder) visit(ctx context.Context, logger *zap.Logger, runID string, handler Handler, item string, index int) error {
	ctx, span := f.tracer.Start(ctx, "finder.handle",
		trace.WithAttributes(
			attribute.String("item", item),
			attribute.Int("item.index", index),
		))
	defer span.End()

	status, err := handler.Handle(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("Handler failed",
			zap.String("item", item),
			zap.Int("index", index),
			zap.Error(err))
		return err
	}
	span.SetAttributes(attribute.Int("handler.status", status))

	logger.Debug("Handler returned",
		zap.String("item", item),
		zap.Int("index", index),
		zap.Int("status", status))

	if err := f.reporter.Report(ctx, report.Status{RunID: runID, Index: index, Item: item, Status: status}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report failed")
		return sdkerrors.NewItemError(sdkerrors.CodeReportFailed, item, "failed to report status", err)
	}

	if status != 0 && f.haltOnNonZero {
		span.SetStatus(codes.Error, "nonzero status")
		return sdkerrors.NewItemError(sdkerrors.CodeNonZeroStatus, item, "halting on nonzero status",
			statusError(status))
	}

	return nil
}

// isNilHandler catches a nil interface and a nil HandlerFunc stored in one
func isNilHandler(handler Handler) bool {
	if handler == nil {
		return true
	}
	fn, ok := handler.(HandlerFunc)
	return ok && fn == nil
}

type statusError int

func (s statusError) Error() string {
	return report.Status{Status: int(s)}.Line()
}

// Dispatch walks the default cheese list, printing "return = <status>" for each item to standard output.
func Dispatch(handler Handler) error {
	return New(DefaultConfig()).Find(context.Background(), handler)
}

// DispatchWithUserData is Dispatch for callbacks that take an explicit user-data value.
// userData reaches fn unchanged on every call.
func DispatchWithUserData[T any](fn UserDataFunc[T], userData T) error {
	return Dispatch(WithUserData(fn, userData))
}
