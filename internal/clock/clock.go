// Package clock provides the wall clock used by the workflow and a fixed
// clock for tests.
package clock

import (
	"sync"
	"time"

	"AutoPublisher/internal/ports"
)

// Real reads time.Now in the configured location.
type Real struct {
	loc *time.Location
}

var _ ports.Clock = Real{}

// NewReal returns a clock reporting times in loc (UTC when nil).
func NewReal(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{loc: loc}
}

func (r Real) Now() time.Time {
	if r.loc == nil {
		return time.Now()
	}
	return time.Now().In(r.loc)
}

// Fixed always reports the same instant until Set is called.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

var _ ports.Clock = (*Fixed)(nil)

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}
