package httpkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiterEnforcesBurstPerClient(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 2, nil)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestIPRateLimiterDropsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, nil)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	assert.Equal(t, 2, l.size())

	now = now.Add(limiterIdleTTL + time.Minute)
	l.allow("10.0.0.3")
	assert.Equal(t, 1, l.size())
}
