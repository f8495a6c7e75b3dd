package referral

import (
	"sync/atomic"
	"time"
)

// stampClock hands out strictly increasing millisecond stamps. When the
// wall clock has not advanced (or stepped back) since the last stamp, the
// next stamp is the previous one plus one.
type stampClock struct {
	now  func() time.Time
	last atomic.Int64
}

func newStampClock(now func() time.Time) *stampClock {
	return &stampClock{now: now}
}

func (c *stampClock) next() int64 {
	for {
		prev := c.last.Load()
		ms := c.now().UnixMilli()
		if ms <= prev {
			ms = prev + 1
		}
		if c.last.CompareAndSwap(prev, ms) {
			return ms
		}
	}
}
