package clock

import (
	"sync"
	"time"
)

// Clock supplies timestamps for persisted records and generated documents.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() Clock {
	return RealClock{}
}

// Now returns the current UTC time truncated to microseconds, the finest
// precision both supported stores keep.
func (RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// MockClock is a settable clock for tests. Each call to Now advances it by
// Step so consecutive records get distinct timestamps.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	Step    time.Duration
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start.UTC()}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.current
	m.current = m.current.Add(m.Step)
	return now
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t.UTC()
	m.mu.Unlock()
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}
