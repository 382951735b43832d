// Package scan defines the wireless scanning surface of the daemon: the
// Scanner abstraction the tick loop drives, the dedup pipeline that turns
// raw advertisement addresses into novelty events, and the scan scheduling
// rules. The real radio lives behind the Scanner interface; tests and bench
// runs use the Fake.
package scan

import (
	"context"
	"math"
	"time"

	"github.com/sweeney/macagotchi/internal/bloom"
	"github.com/sweeney/macagotchi/internal/motion"
	"github.com/sweeney/macagotchi/internal/recency"
)

// Scan timing, carried over from the device tuning.
const (
	Duration       = 9 * time.Second
	NormalInterval = 90 * time.Second
	HungryInterval = 60 * time.Second
	SleepInterval  = 300 * time.Second
)

// NoveltyWindowMS is the recency window for novelty scoring: 12 hours.
const NoveltyWindowMS uint32 = 12 * 3600 * 1000

// hungryThreshold is the hunger level below which scans speed up.
const hungryThreshold = 30

// Result summarizes one scan cycle. Only never-seen-before identities count
// as new; TotalSeen includes duplicates.
type Result struct {
	NewStable uint32
	NewRandom uint32
	TotalSeen uint32
}

// New returns the number of novel identities in the result.
func (r Result) New() uint32 {
	return r.NewStable + r.NewRandom
}

// Scanner runs one scan cycle and reports what was discovered.
type Scanner interface {
	Scan(ctx context.Context, duration time.Duration) (Result, error)
	Close() error
}

// IsRandomized reports whether the address is locally administered
// (privacy-rotated): bit 1 of the first octet.
func IsRandomized(mac [6]byte) bool {
	return mac[0]&0x02 != 0
}

// FNV-1a constants, shared shape with the membership filter's probes.
const (
	offsetBasis uint32 = 2166136261
	fnvPrime    uint32 = 16777619
)

// Hash derives the 32-bit identity hash stored in recency entries. The raw
// address itself is never kept.
func Hash(mac [6]byte) uint32 {
	h := offsetBasis
	for i := 0; i < 6; i++ {
		h ^= uint32(mac[i])
		h *= fnvPrime
	}
	return h
}

// Dedup is the pipeline every observed advertisement runs through: skip if
// the membership filter has seen it, otherwise mark it seen and record it
// in the recency tracker.
type Dedup struct {
	filter  *bloom.Filter
	tracker *recency.Tracker
}

// NewDedup creates a pipeline over the given filter and tracker.
func NewDedup(f *bloom.Filter, t *recency.Tracker) *Dedup {
	return &Dedup{filter: f, tracker: t}
}

// Observe processes one raw address at tick now. Returns whether the
// identity was novel and whether it is stable (vendor-assigned).
func (d *Dedup) Observe(mac [6]byte, now uint32) (novel, stable bool) {
	stable = !IsRandomized(mac)
	if d.filter.Contains(mac) {
		return false, stable
	}
	d.filter.Add(mac)
	d.tracker.Record(Hash(mac), stable, now)
	return true, stable
}

// ChooseInterval selects the next scan interval. A sleeping creature scans
// rarely; a hungry one scans eagerly; otherwise the normal cadence applies.
func ChooseInterval(state motion.State, hunger int, sleeping bool) time.Duration {
	if sleeping {
		return SleepInterval
	}
	if hunger < hungryThreshold {
		return HungryInterval
	}
	return NormalInterval
}

// NoveltyScore maps a recency breakdown to a 0..10 score. Stable identities
// weigh full, random ones 0.3; the curve is logarithmic so ~40 weighted
// discoveries saturate it.
func NoveltyScore(stable, random int) int {
	weighted := float64(stable) + float64(random)*0.3
	score := 10.0 * math.Log(1.0+weighted) / math.Log(1.0+40.0)
	if score > 10.0 {
		score = 10.0
	}
	return int(score + 0.5)
}
