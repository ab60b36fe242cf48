package chat

import (
	"sync"
	"time"
)

// clock issues timestamps for new messages. Timestamps are Unix
// seconds and never go backwards, even if the wall clock does; the
// sequence number breaks ties between appends within the same second.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
	seq  uint64
}

// newClock creates a clock resuming from the given persisted state,
// zero values for an empty store. Resuming keeps timestamps and
// sequence numbers monotonic across process restarts.
func newClock(last int64, seq uint64) *clock {
	return &clock{now: time.Now, last: last, seq: seq}
}

// tick returns the next (timestamp, sequence) pair. Sequence numbers
// are unique and strictly increasing across the whole store.
func (c *clock) tick() (int64, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().Unix()
	if ts < c.last {
		ts = c.last
	}
	c.last = ts
	c.seq++
	return ts, c.seq
}
