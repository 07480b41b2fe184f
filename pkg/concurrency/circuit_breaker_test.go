package concurrency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		ResetTimeout:     time.Minute,
		Now:              clock.Now,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cb := newTestBreaker(clock)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Unix(1000, 0)})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cb := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	clock.Advance(30 * time.Second)
	assert.False(t, cb.Allow())

	clock.Advance(30 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cb := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(time.Minute)
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Unix(1000, 0)})
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{})

	assert.Equal(t, 5, cb.config.FailureThreshold)
	assert.Equal(t, 2, cb.config.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cb.config.ResetTimeout)
	assert.NotNil(t, cb.config.Now)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}
