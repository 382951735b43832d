// Package egg runs the one-time environmental calibration phase. The device
// spends its first 48 hours as an "egg", counting discovered identities and
// estimating the local ratio of privacy-rotated addresses; once both the
// duration and a minimum discovery count are met the egg hatches, and the
// hatched flag is terminal. Progress survives power loss through the store.
package egg

// Duration and minimum discovery count for hatching. Both must be met;
// satisfying only one is insufficient.
const (
	DurationMS = int64(48 * 3600 * 1000)
	MinMacs    = 50
)

// Store is the slice of persisted state the controller needs. Implemented
// by internal/store.
type Store interface {
	Hatched() bool
	SetHatched(v bool)
	CalibrationStart() int64
	SetCalibrationStart(ms int64)
	RandRatio() float64
	SetRandRatio(r float64)
	MacTotal() uint32
	SetMacTotal(n uint32)
}

// Controller is the LEARNING -> HATCHED lifecycle state machine. Time is
// wall-clock epoch milliseconds: the 48-hour window has to survive reboots,
// unlike the engine's monotonic tick clock.
type Controller struct {
	store   Store
	startMS int64
	hatched bool

	total  uint32
	stable uint32
	random uint32
	ratio  float64
}

// NewController creates a controller over the given store. Call Begin before
// anything else.
func NewController(s Store) *Controller {
	return &Controller{store: s}
}

// Begin loads or initializes calibration state. Idempotent: if the creature
// already hatched it reports complete immediately without touching anything.
// The start timestamp is written exactly once, on the first-ever call.
func (c *Controller) Begin(now int64) bool {
	if c.hatched || c.store.Hatched() {
		c.hatched = true
		return true
	}

	c.startMS = c.store.CalibrationStart()
	if c.startMS == 0 {
		c.startMS = now
		c.store.SetCalibrationStart(now)
	}

	c.ratio = c.store.RandRatio()
	c.total = c.store.MacTotal()
	return false
}

// OnMacDiscovered counts one discovery and refreshes the rolling
// random-address ratio estimate.
func (c *Controller) OnMacDiscovered(stable bool) {
	c.total++
	if stable {
		c.stable++
	} else {
		c.random++
	}

	if classified := c.stable + c.random; classified > 0 {
		c.ratio = float64(c.random) / float64(classified)
	}
}

// IsComplete reports whether both hatch conditions hold: the full duration
// has elapsed and enough identities were discovered.
func (c *Controller) IsComplete(now int64) bool {
	if c.RemainingMs(now) > 0 {
		return false
	}
	return c.total >= MinMacs
}

// ProgressPercent returns elapsed wall time against the fixed duration,
// clamped to [0, 100].
func (c *Controller) ProgressPercent(now int64) int {
	elapsed := now - c.startMS
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= DurationMS {
		return 100
	}
	return int(elapsed * 100 / DurationMS)
}

// RemainingMs returns the wall time left before the duration condition is
// met, clamped to [0, DurationMS].
func (c *Controller) RemainingMs(now int64) int64 {
	elapsed := now - c.startMS
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= DurationMS {
		return 0
	}
	return DurationMS - elapsed
}

// Lock persists the final ratio and total and sets the hatched flag. The
// transition is one-way: after Lock, Begin always reports complete and
// further discovery recording has no external effect.
func (c *Controller) Lock() {
	c.store.SetRandRatio(c.ratio)
	c.store.SetMacTotal(c.total)
	c.store.SetHatched(true)
	c.hatched = true
}

// Hatched reports whether the controller has locked.
func (c *Controller) Hatched() bool { return c.hatched }

// RandRatio returns the current random-address ratio estimate.
func (c *Controller) RandRatio() float64 { return c.ratio }

// MacTotal returns the total discovery count.
func (c *Controller) MacTotal() uint32 { return c.total }
