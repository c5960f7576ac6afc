package search

import (
	"errors"
	"sync"
	"time"

	"property-listing/internal/logging"
	"property-listing/internal/models"
)

// ErrCircuitOpen is returned while the breaker is skipping search calls
var ErrCircuitOpen = errors.New("search temporarily unavailable")

// CircuitBreaker stops calling the search engine after repeated failures
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	failures            int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	now   func() time.Time
	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker that opens after
// failureThreshold consecutive failures
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests++
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = cb.now()

	if cb.isOpen {
		return
	}

	if cb.consecutiveFailures >= cb.failureThreshold {
		cb.isOpen = true
		logging.Logger.Warnf("Search circuit breaker open: %d consecutive failures, retrying after %v",
			cb.consecutiveFailures, cb.resetTimeout)
		return
	}

	// Flapping engines: check the failure rate once there is enough history
	if cb.totalRequests >= 20 {
		failureRate := float64(cb.failures) / float64(cb.totalRequests)
		if failureRate >= 0.40 {
			cb.isOpen = true
			logging.Logger.Warnf("Search circuit breaker open: failure rate %.1f%% (%d/%d), retrying after %v",
				failureRate*100, cb.failures, cb.totalRequests, cb.resetTimeout)
		}
	}
}

// CanProceed reports whether calls are allowed. Once the reset timeout has
// passed the breaker closes again and counting starts over.
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		logging.Logger.Infof("Search circuit breaker half-open after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.failures = 0
		cb.totalRequests = 0
		cb.consecutiveFailures = 0
		return true
	}

	return false
}

// GetStatus returns current circuit breaker status
func (cb *CircuitBreaker) GetStatus() (isOpen bool, failures int, total int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.isOpen, cb.failures, cb.totalRequests
}

// Guarded wraps an Indexer with a CircuitBreaker
type Guarded struct {
	next    Indexer
	breaker *CircuitBreaker
}

// NewGuarded returns next guarded by breaker
func NewGuarded(next Indexer, breaker *CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) call(fn func() error) error {
	if !g.breaker.CanProceed() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}

func (g *Guarded) IndexProperty(property *models.Property) error {
	return g.call(func() error { return g.next.IndexProperty(property) })
}

func (g *Guarded) IndexProperties(properties []models.Property) error {
	return g.call(func() error { return g.next.IndexProperties(properties) })
}

func (g *Guarded) DeleteProperty(id int) error {
	return g.call(func() error { return g.next.DeleteProperty(id) })
}

func (g *Guarded) Search(query string, limit int64) ([]models.Property, error) {
	var hits []models.Property
	err := g.call(func() error {
		var err error
		hits, err = g.next.Search(query, limit)
		return err
	})
	return hits, err
}
