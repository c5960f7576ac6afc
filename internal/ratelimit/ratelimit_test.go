package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(perMinute, perHour, perDay int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, perDay, true)
	rl.now = clock.now
	return rl, clock
}

func TestDisabledAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.GetStats().Enabled)
}

func TestMinuteWindow(t *testing.T) {
	rl, clock := newTestLimiter(3, 0, 0)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.AllowRequest())

	clock.advance(61 * time.Second)
	assert.True(t, rl.AllowRequest())
}

func TestHourWindowOutlastsMinute(t *testing.T) {
	rl, clock := newTestLimiter(10, 2, 0)

	assert.True(t, rl.AllowRequest())
	clock.advance(2 * time.Minute)
	assert.True(t, rl.AllowRequest())
	clock.advance(2 * time.Minute)
	assert.False(t, rl.AllowRequest())

	clock.advance(time.Hour)
	assert.True(t, rl.AllowRequest())
}

func TestStats(t *testing.T) {
	rl, _ := newTestLimiter(5, 50, 500)
	rl.AllowRequest()
	rl.AllowRequest()

	stats := rl.GetStats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.RequestsLastMinute)
	assert.Equal(t, 3, stats.RemainingThisMinute)
	assert.Equal(t, 48, stats.RemainingThisHour)
	assert.Equal(t, 498, stats.RemainingThisDay)

	rl.Reset()
	assert.Equal(t, 0, rl.GetStats().RequestsLastDay)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 0, 0)

	r := gin.New()
	r.POST("/properties", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/properties", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/properties", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "Too many requests")
}
