// Package recency answers "how many novel identities in the last N hours"
// over a fixed-capacity ring of observations. Time is always injected as a
// monotonic millisecond counter (uint32); age arithmetic relies on unsigned
// wraparound, so entries recorded shortly before the counter rolls over are
// still aged correctly after it does.
package recency

// Capacity is the fixed number of ring slots. Independent of the recency
// window: the window filters on read, the cursor alone drives overwrite.
const Capacity = 2000

// Entry is one observed identity. A zero Timestamp marks a vacant slot,
// which is why the recorder never stores 0 for a live entry.
type Entry struct {
	Hash      uint32
	Timestamp uint32
	Stable    bool
}

// Tracker is the ring buffer of recent identity observations. It is not
// persisted and always starts empty.
type Tracker struct {
	buf  [Capacity]Entry
	head int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record stores a newly discovered identity, overwriting the oldest logical
// slot. Always succeeds; once capacity is exceeded old data is silently lost
// even if it was still within the recency window.
func (t *Tracker) Record(hash uint32, stable bool, now uint32) {
	if now == 0 {
		// 0 means vacant; nudge so the entry stays visible.
		now = 1
	}
	t.buf[t.head] = Entry{Hash: hash, Timestamp: now, Stable: stable}
	t.head = (t.head + 1) % Capacity
}

// recent reports whether a timestamp is strictly inside the window.
// Unsigned subtraction keeps the age correct across counter wraparound.
func recent(now, ts, window uint32) bool {
	return now-ts < window
}

// CountRecent returns the number of occupied slots younger than window.
// If stableOnly is set, random identities are skipped.
func (t *Tracker) CountRecent(now, window uint32, stableOnly bool) int {
	n := 0
	for i := range t.buf {
		e := &t.buf[i]
		if e.Timestamp == 0 {
			continue
		}
		if stableOnly && !e.Stable {
			continue
		}
		if recent(now, e.Timestamp, window) {
			n++
		}
	}
	return n
}

// CountBreakdown returns stable and random counts inside the window in a
// single scan.
func (t *Tracker) CountBreakdown(now, window uint32) (stable, random int) {
	for i := range t.buf {
		e := &t.buf[i]
		if e.Timestamp == 0 {
			continue
		}
		if !recent(now, e.Timestamp, window) {
			continue
		}
		if e.Stable {
			stable++
		} else {
			random++
		}
	}
	return stable, random
}

// Expire vacates slots older than the window. Housekeeping only: the count
// functions already filter by age, and expiry does not reclaim capacity.
func (t *Tracker) Expire(now, window uint32) {
	for i := range t.buf {
		e := &t.buf[i]
		if e.Timestamp != 0 && !recent(now, e.Timestamp, window) {
			e.Timestamp = 0
		}
	}
}
