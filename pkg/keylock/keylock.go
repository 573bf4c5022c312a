// Package keylock provides per-key exclusive locks with a bounded wait.
//
// Mutating gift card operations serialize on the card's code, and issuance
// serializes on the issuing agent's calendar-month key, before touching
// storage. Operations on different keys run fully concurrently. The bounded
// wait is a liveness safeguard: a caller that cannot acquire the lock in time
// fails fast instead of queuing without bound.
package keylock

import (
	"errors"
	"sync"
	"time"
)

// ErrWaitTimeout is returned when the lock could not be acquired within the
// caller's wait budget.
var ErrWaitTimeout = errors.New("keylock: wait timeout")

type entry struct {
	ch   chan struct{}
	refs int
}

// Manager hands out exclusive locks keyed by string. The zero value is not
// usable; call NewManager.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewManager() *Manager {
	return &Manager{locks: make(map[string]*entry)}
}

// Acquire takes the exclusive lock for key, waiting at most wait. On success
// it returns a release function which must be called exactly once. On
// timeout it returns ErrWaitTimeout.
func (m *Manager) Acquire(key string, wait time.Duration) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.ch
				m.unref(key, e)
			})
		}
		return release, nil
	case <-timer.C:
		m.unref(key, e)
		return nil, ErrWaitTimeout
	}
}

// unref drops one reference and evicts the entry once nobody holds or waits
// on it, so the map does not grow with every key ever locked.
func (m *Manager) unref(key string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}
