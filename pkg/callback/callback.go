// Package callback publishes handler statuses to a NATS subject so other services can follow a dispatch.
package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wehubfusion/cheesefinder/pkg/concurrency"
	sdkerrors "github.com/wehubfusion/cheesefinder/pkg/errors"
	"github.com/wehubfusion/cheesefinder/pkg/report"
	"go.uber.org/zap"
)

// ResultType classifies a published status
type ResultType string

const (
	ResultTypeSuccess ResultType = "success" // status == 0
	ResultTypeWarning ResultType = "warning" // status != 0
)

// Conn is the part of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// Config holds configuration for the publisher
type Config struct {
	Subject       string                    // Subject to publish statuses to (default: "cheese.result")
	MaxRetries    int                       // Maximum number of retry attempts (default: 3)
	RetryDelay    time.Duration             // Delay between retries (default: 1s)
	EnableLogging bool                      // Enable logging of operations (default: true)
	Logger        *zap.Logger               // Custom logger instance (optional, no-op if nil)
	Breaker       concurrency.BreakerConfig // Circuit breaker thresholds
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Subject:       "cheese.result",
		MaxRetries:    3,
		RetryDelay:    time.Second,
		EnableLogging: true,
		Logger:        zap.NewNop(),
		Breaker:       concurrency.DefaultBreakerConfig(),
	}
}

// Envelope is the JSON document published for each status
type Envelope struct {
	report.Status
	ResultType ResultType `json:"result_type"`
	ReportedAt string     `json:"reported_at"`
}

// Publisher is a report.Reporter that publishes each status to NATS
type Publisher struct {
	conn    Conn
	config  *Config
	logger  *zap.Logger
	breaker *concurrency.CircuitBreaker
	now     func() time.Time
}

var _ report.Reporter = (*Publisher)(nil)

// NewPublisher creates a publisher with the default configuration
func NewPublisher(conn Conn) (*Publisher, error) {
	return NewPublisherWithConfig(conn, DefaultConfig())
}

// NewPublisherWithConfig creates a publisher with custom configuration.
// You can pass your own zap logger via config.Logger.
func NewPublisherWithConfig(conn Conn, config *Config) (*Publisher, error) {
	if conn == nil {
		return nil, sdkerrors.NewError(sdkerrors.CodeNotConnected, "connection cannot be nil", nil)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Subject == "" {
		config.Subject = DefaultConfig().Subject
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Publisher{
		conn:    conn,
		config:  config,
		logger:  logger,
		breaker: concurrency.NewCircuitBreaker(config.Breaker),
		now:     time.Now,
	}, nil
}

// Report implements report.Reporter by publishing the status with retry
func (p *Publisher) Report(ctx context.Context, status report.Status) error {
	if !p.breaker.Allow() {
		err := sdkerrors.NewItemError(sdkerrors.CodeCircuitOpen, status.Item, "publish rejected", nil)
		p.logOperation(status, err)
		return err
	}

	data, err := json.Marshal(p.envelope(status))
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	if err := p.publishWithRetry(ctx, data); err != nil {
		p.breaker.RecordFailure()
		wrapped := sdkerrors.NewItemError(sdkerrors.CodePublishFailed, status.Item, "publish failed", err)
		p.logOperation(status, wrapped)
		return wrapped
	}

	p.breaker.RecordSuccess()
	p.logOperation(status, nil)
	return nil
}

// Breaker exposes the circuit breaker guarding publishes
func (p *Publisher) Breaker() *concurrency.CircuitBreaker {
	return p.breaker
}

func (p *Publisher) envelope(status report.Status) Envelope {
	resultType := ResultTypeSuccess
	if status.Status != 0 {
		resultType = ResultTypeWarning
	}
	return Envelope{
		Status:     status,
		ResultType: resultType,
		ReportedAt: p.now().UTC().Format(time.RFC3339),
	}
}

// publishWithRetry attempts to publish a message with retry logic
func (p *Publisher) publishWithRetry(ctx context.Context, data []byte) error {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("publish cancelled during retry: %w", ctx.Err())
			case <-time.After(p.config.RetryDelay):
			}
		}

		err := p.conn.Publish(p.config.Subject, data)
		if err == nil {
			return nil
		}

		lastErr = err
		if p.config.EnableLogging {
			p.logger.Warn("Publish attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", p.config.MaxRetries+1),
				zap.String("subject", p.config.Subject),
				zap.Error(err))
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", p.config.MaxRetries+1, lastErr)
}

func (p *Publisher) logOperation(status report.Status, err error) {
	if !p.config.EnableLogging {
		return
	}

	fields := []zap.Field{
		zap.String("subject", p.config.Subject),
		zap.String("run_id", status.RunID),
		zap.String("item", status.Item),
		zap.Int("status", status.Status),
	}
	if err != nil {
		p.logger.Error("Failed to publish status", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug("Published status", fields...)
}
