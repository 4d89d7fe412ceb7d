package presenter

import (
	"sync"
	"time"
)

// Audience is the local bookkeeping of one subscriber. It keeps the newest
// state it has seen and declares the feed stale when nothing has arrived for
// longer than the timeout. Frames older than the current one are dropped.
type Audience struct {
	mu         sync.Mutex
	staleAfter time.Duration
	state      State
	lastSeen   time.Time
	seen       bool
}

func NewAudience(staleAfter time.Duration) *Audience {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Audience{staleAfter: staleAfter}
}

// Observe records s as received at now. It reports whether s replaced the
// current state.
func (a *Audience) Observe(s State, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen && s.Timestamp.Before(a.state.Timestamp) {
		return false
	}
	a.state = s
	a.lastSeen = now
	a.seen = true
	return true
}

// Current returns the latest state, if any.
func (a *Audience) Current() (State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.seen
}

// Stale reports whether no update has been observed within the timeout.
func (a *Audience) Stale(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.seen || now.Sub(a.lastSeen) > a.staleAfter
}

// Age returns the time since the last observed update.
func (a *Audience) Age(now time.Time) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.seen {
		return 0
	}
	return now.Sub(a.lastSeen)
}
