package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockIsUTCMicroseconds(t *testing.T) {
	now := NewRealClock().Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}

func TestMockClockSteps(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "zero step stays put")

	c.Step = time.Second
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour+2*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
