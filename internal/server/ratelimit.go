package server

import (
	"sync"
	"time"
)

const (
	loginWindow      = 15 * time.Minute
	loginMaxAttempts = 20
)

// loginLimiter is a light per-IP attempt counter for the login endpoint.
// Counters reset after the window elapses.
type loginLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	now      func() time.Time
}

type attemptRecord struct {
	count int
	since time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{attempts: make(map[string]*attemptRecord), now: time.Now}
}

// allow records one attempt for ip and reports whether it is within budget.
func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := l.attempts[ip]
	if rec == nil || now.Sub(rec.since) > loginWindow {
		rec = &attemptRecord{since: now}
		l.attempts[ip] = rec
	}
	if rec.count >= loginMaxAttempts {
		return false
	}
	rec.count++
	return true
}
