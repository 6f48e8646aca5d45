package ratelimit

import (
	"sync"
	"time"
)

// Key identifies a rate-limit bucket: one client fingerprint on one route.
type Key struct {
	Client string
	Route  string
}

// record tracks request counts for a single key within the current window.
// Once blocked, a record stays blocked until its window expires AND a new
// request arrives; the reset is lazy, never proactive.
type record struct {
	count         int
	windowResetAt time.Time
	blocked       bool
}

// Status aggregates the limiter table for operational introspection.
type Status struct {
	ActiveClients  int   `json:"active_clients"`
	BlockedClients int   `json:"blocked_clients"`
	TotalRequests  int64 `json:"total_requests"`
}

// Limiter is a fixed-window request counter with sticky blocking, keyed by
// (client, route). A single mutex guards the table so increment-and-check is
// atomic: two concurrent requests from one client cannot both slip past the
// threshold.
type Limiter struct {
	mu      sync.Mutex
	records map[Key]*record

	now func() time.Time
}

// NewLimiter creates an empty limiter table.
func NewLimiter() *Limiter {
	return &Limiter{
		records: make(map[Key]*record),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it may proceed.
// The window length and request cap are supplied per call so different
// routes can carry different budgets over one shared table.
func (l *Limiter) Allow(key Key, window time.Duration, maxRequests int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	rec, ok := l.records[key]
	if !ok {
		l.records[key] = &record{
			count:         1,
			windowResetAt: now.Add(window),
		}
		return true
	}

	// Window rollover clears any block, even a sticky one.
	if now.After(rec.windowResetAt) {
		rec.count = 1
		rec.windowResetAt = now.Add(window)
		rec.blocked = false
		return true
	}

	if rec.blocked {
		return false
	}

	rec.count++
	if rec.count > maxRequests {
		rec.blocked = true
		return false
	}
	return true
}

// Sweep deletes expired records that are not blocked. Blocked records are
// intentionally retained: they are only superseded by the next request to
// that key triggering a window rollover, so a silent abuser stays visible
// in Status until it returns.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, rec := range l.records {
		if now.After(rec.windowResetAt) && !rec.blocked {
			delete(l.records, key)
		}
	}
}

// Status aggregates over all records. Introspection only; decisions are
// made solely by Allow.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Status
	for _, rec := range l.records {
		s.ActiveClients++
		if rec.blocked {
			s.BlockedClients++
		}
		s.TotalRequests += int64(rec.count)
	}
	return s
}
