package timers

import (
	"sync"
	"time"
)

// Manager schedules named, supersedable delayed callbacks. Starting a timer
// for a key replaces any pending timer for that same key.
type Manager interface {
	StartTimer(key string, timeout time.Duration, callback func())
	StopTimer(key string)
}

// InactivityTimerManager is the default Manager backed by time.AfterFunc.
type InactivityTimerManager struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewInactivityTimerManager() *InactivityTimerManager {
	return &InactivityTimerManager{timers: make(map[string]*time.Timer)}
}

// StartTimer schedules callback after timeout, superseding any pending timer
// for the same key.
func (m *InactivityTimerManager) StartTimer(key string, timeout time.Duration, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.timers[key]; ok {
		existing.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(timeout, func() {
		m.mu.Lock()
		if m.timers[key] == timer {
			delete(m.timers, key)
		}
		m.mu.Unlock()
		callback()
	})
	m.timers[key] = timer
}

// StopTimer cancels the pending timer for a key, if any.
func (m *InactivityTimerManager) StopTimer(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if timer, ok := m.timers[key]; ok {
		timer.Stop()
		delete(m.timers, key)
	}
}
