// Command cheesefinder walks the cheese list, announcing each cheese and printing the handler status.
//
// Configuration comes from CHEESEFINDER_* environment variables (see internal/config), or from a
// YAML file passed as the only argument.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/wehubfusion/cheesefinder/internal/config"
	natsconn "github.com/wehubfusion/cheesefinder/internal/nats"
	"github.com/wehubfusion/cheesefinder/internal/tracing"
	"github.com/wehubfusion/cheesefinder/pkg/callback"
	"github.com/wehubfusion/cheesefinder/pkg/finder"
	"github.com/wehubfusion/cheesefinder/pkg/handlers"
	"github.com/wehubfusion/cheesefinder/pkg/report"
	"github.com/wehubfusion/cheesefinder/pkg/script"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup runs before exit
func realMain(args []string) int {
	var configPath string
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cheesefinder: %v\n", err)
		return 2
	}

	logger, err := newLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cheesefinder: failed to build logger: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flushSentry := setupSentry(cfg.Sentry, logger)
	defer flushSentry()

	if err := run(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Error("Dispatch failed", zap.Error(err))
		if cfg.Sentry.DSN != "" {
			sentry.CaptureException(err)
		}
		return 1
	}
	return 0
}

// run builds the handler and sinks from cfg and performs one dispatch writing to out
func run(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger) error {
	handler, err := buildHandler(cfg.Finder, out)
	if err != nil {
		return err
	}

	reporters := []report.Reporter{report.NewWriter(out)}
	if cfg.Logger.Level == "debug" {
		reporters = append(reporters, report.NewLog(logger.Named("status")))
	}

	if cfg.NATS.URL != "" {
		connCfg := natsconn.DefaultConnectionConfig(cfg.NATS.URL)
		connCfg.Token = cfg.NATS.Token
		conn, err := natsconn.Connect(ctx, connCfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := natsconn.Close(conn); err != nil {
				logger.Warn("Failed to close NATS connection", zap.Error(err))
			}
		}()

		pubCfg := callback.DefaultConfig()
		pubCfg.Subject = cfg.NATS.Subject
		pubCfg.MaxRetries = cfg.NATS.MaxRetries
		pubCfg.RetryDelay = cfg.NATS.RetryDelay
		pubCfg.Logger = logger
		publisher, err := callback.NewPublisherWithConfig(conn, pubCfg)
		if err != nil {
			return err
		}
		reporters = append(reporters, publisher)
	}

	if cfg.Tracing.Enabled {
		tcfg := tracing.DefaultConfig(cfg.Tracing.ServiceName)
		tcfg.Environment = cfg.Tracing.Environment
		tcfg.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
		tcfg.SampleRatio = cfg.Tracing.SampleRatio
		shutdown, err := tracing.SetupTracing(ctx, tcfg, logger)
		if err != nil {
			logger.Warn("Failed to setup tracing, continuing without tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.ShutdownTracing(shutdown, logger) }()
		}
	}

	f := finder.New(finder.Config{
		Reporter:      report.Multi(reporters...),
		Logger:        logger,
		HaltOnNonZero: cfg.Finder.HaltOnNonZero,
	})
	return f.Find(ctx, handler)
}

func buildHandler(cfg config.FinderConfig, out io.Writer) (finder.Handler, error) {
	if cfg.Script == "" {
		return handlers.Announce(out), nil
	}

	source, err := os.ReadFile(cfg.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	scfg := script.DefaultConfig()
	scfg.Timeout = cfg.ScriptTimeout
	scfg.SecurityLevel = cfg.SecurityLevel
	// console output shares the stream with the status lines
	scfg.Console = out
	return script.New(string(source), scfg)
}

func newLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	// stdout carries the status lines
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// setupSentry initialises Sentry when a DSN is configured and returns a flush function
func setupSentry(cfg config.SentryConfig, logger *zap.Logger) func() {
	if cfg.DSN == "" {
		return func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		logger.Warn("Failed to initialise Sentry", zap.Error(err))
		return func() {}
	}

	return func() { sentry.Flush(2 * time.Second) }
}
