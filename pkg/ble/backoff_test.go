package ble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsToMax(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    time.Second,
		Max:        8 * time.Second,
		Multiplier: 2,
		Jitter:     0, // deterministic
	})

	assert.Equal(t, 1*time.Second, b.Next())
	assert.Equal(t, 2*time.Second, b.Next())
	assert.Equal(t, 4*time.Second, b.Next())
	assert.Equal(t, 8*time.Second, b.Next())
	assert.Equal(t, 8*time.Second, b.Next(), "capped at max")
	assert.Equal(t, 5, b.Attempts())
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})

	b.Next()
	b.Next()
	b.Reset()

	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, InitialBackoff, b.Next())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    time.Second,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0.25,
	})

	for i := 0; i < 100; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff()
	assert.Equal(t, InitialBackoff, b.current)
	assert.Equal(t, MaxBackoff, b.max)
	assert.Equal(t, JitterFactor, b.jitter)
}

func TestBackoffDefaultJitterApplied(t *testing.T) {
	// The first delay of a fresh default backoff is the initial delay
	// plus up to 25% jitter; across many instances at least one must
	// actually jitter.
	sawJitter := false
	for i := 0; i < 100; i++ {
		d := NewBackoff().Next()
		assert.GreaterOrEqual(t, d, InitialBackoff)
		assert.LessOrEqual(t, d, InitialBackoff+InitialBackoff/4)
		if d > InitialBackoff {
			sawJitter = true
		}
	}
	assert.True(t, sawJitter, "default backoff never applied jitter")
}
