package search

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(threshold, reset)
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreakerOpensOnConsecutiveFailures(t *testing.T) {
	cb, clock := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.CanProceed())

	cb.RecordFailure()
	assert.False(t, cb.CanProceed())

	isOpen, failures, total := cb.GetStatus()
	assert.True(t, isOpen)
	assert.Equal(t, 3, failures)
	assert.Equal(t, 3, total)

	clock.advance(time.Minute + time.Second)
	assert.True(t, cb.CanProceed())
	isOpen, failures, total = cb.GetStatus()
	assert.False(t, isOpen)
	assert.Zero(t, failures)
	assert.Zero(t, total)
}

func TestCircuitBreakerSuccessResetsStreak(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.True(t, cb.CanProceed())
}

func TestCircuitBreakerOpensOnFailureRate(t *testing.T) {
	cb, _ := newTestBreaker(5, time.Minute)

	// alternate so the streak never reaches the threshold
	for i := 0; i < 10; i++ {
		cb.RecordSuccess()
		cb.RecordFailure()
	}
	assert.False(t, cb.CanProceed())
}

type flakyIndexer struct {
	err   error
	calls int
}

func (f *flakyIndexer) IndexProperty(*models.Property) error     { f.calls++; return f.err }
func (f *flakyIndexer) IndexProperties([]models.Property) error { f.calls++; return f.err }
func (f *flakyIndexer) DeleteProperty(int) error                 { f.calls++; return f.err }
func (f *flakyIndexer) Search(string, int64) ([]models.Property, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.Property{{ID: 1}}, nil
}

func TestGuardedSkipsCallsWhileOpen(t *testing.T) {
	next := &flakyIndexer{err: errors.New("connection refused")}
	cb, clock := newTestBreaker(2, time.Minute)
	g := NewGuarded(next, cb)

	assert.Error(t, g.IndexProperty(&models.Property{ID: 1}))
	assert.Error(t, g.DeleteProperty(1))
	require.Equal(t, 2, next.calls)

	_, err := g.Search("x", 5)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, g.IndexProperties(nil), ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)

	next.err = nil
	clock.advance(2 * time.Minute)
	hits, err := g.Search("x", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, 3, next.calls)
}
