// Package clock supplies "today" under the service's fixed civil-time
// offset. Every day-span and overdue comparison goes through it, never
// through the host's local date.
package clock

import (
	"time"

	"github.com/pty0735/routinely/internal"
)

// KSTOffset is the fixed offset the service keeps civil time in (UTC+9).
const KSTOffset = 9 * time.Hour

type Clock interface {
	Today() internal.Date
}

// CivilClock reads the wall clock and shifts it by a fixed offset before
// truncating to a date. The host timezone never enters the calculation.
type CivilClock struct {
	Offset time.Duration
	now    func() time.Time
}

func NewKST() *CivilClock {
	return &CivilClock{Offset: KSTOffset, now: time.Now}
}

func (c *CivilClock) Today() internal.Date {
	now := c.now
	if now == nil {
		now = time.Now
	}
	return c.DateAt(now())
}

// DateAt is the pure core of Today: the civil date of instant t under the
// clock's offset.
func (c *CivilClock) DateAt(t time.Time) internal.Date {
	return internal.DateOf(t.UTC().Add(c.Offset))
}

// Fixed always answers the same date. For tests.
type Fixed struct {
	Date internal.Date
}

func (f Fixed) Today() internal.Date { return f.Date }
