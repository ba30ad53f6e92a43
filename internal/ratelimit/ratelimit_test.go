package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "zero burst blocks everything", rps: 1, burst: 0, calls: 2, wantPass: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			krl := New(tt.rps, tt.burst)
			defer krl.Stop()

			passed := 0
			for range tt.calls {
				if krl.Allow("test") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	krl := PerMinute(1)
	defer krl.Stop()

	assert.True(t, krl.Allow("mluukkai"))
	assert.False(t, krl.Allow("mluukkai"))
	assert.True(t, krl.Allow("hellas"))
	assert.Equal(t, 2, krl.Len())
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	krl := NewWithTTL(1, 1, time.Minute)
	defer krl.Stop()

	krl.Allow("old")
	krl.Allow("fresh")

	krl.mu.Lock()
	krl.limiters["old"].lastSeen = time.Now().Add(-2 * time.Minute)
	krl.mu.Unlock()

	krl.evictIdle(time.Now())

	assert.Equal(t, 1, krl.Len())
	// An evicted key starts over with a full bucket.
	assert.True(t, krl.Allow("old"))
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
	assert.NoError(t, krl.Shutdown())
}
