package clock_test

import (
	"testing"
	"time"

	"github.com/xarlytos/fitplanner/internal/clock"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	now := clock.RealClock{}.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestFakeClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	c := clock.NewFakeClock(fixed)
	assert.Equal(t, fixed, c.Now())
	assert.Equal(t, c.Now(), c.Now())

	c.AddDays(3)
	assert.Equal(t, time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC), c.Now())

	c.AddDays(-34)
	assert.Equal(t, time.Date(2024, 3, 31, 10, 30, 0, 0, time.UTC), c.Now())

	other := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(other)
	assert.Equal(t, other, c.Now())
}
