// Package timex holds the small timing helpers shared by the drivers and
// services: context-aware sleeps, deadlines and timer hygiene.
package timex

import (
	"context"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Deadline is a point in monotonic time after which a wait gives up.
// The zero Deadline never expires.
type Deadline struct {
	at time.Time
}

// After returns a Deadline d from now. d <= 0 yields a Deadline that never expires.
func After(d time.Duration) Deadline {
	if d <= 0 {
		return Deadline{}
	}
	return Deadline{at: time.Now().Add(d)}
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	return !d.at.IsZero() && !time.Now().Before(d.at)
}

// Remaining returns the time left, or 0 once expired. A zero Deadline reports -1.
func (d Deadline) Remaining() time.Duration {
	if d.at.IsZero() {
		return -1
	}
	if r := time.Until(d.at); r > 0 {
		return r
	}
	return 0
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
