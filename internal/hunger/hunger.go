// Package hunger models the creature's bounded hunger resource. Novel
// identity discoveries feed it, elapsed time decays it, and the current
// motion state selects the decay rate. Pure logic with injectable time
// (monotonic millisecond ticks) and injectable randomness.
package hunger

import (
	"math/rand"

	"github.com/sweeney/macagotchi/internal/motion"
)

// Max is the hunger ceiling; the floor is 0.
const Max = 100

// Feed means, carried over from the device tuning. A stable discovery is
// worth more than a privacy-rotated one.
const (
	stableFeedMean = 10
	randomFeedMean = 3
)

// Decay rates in points per minute. A stationary device in a known
// environment starves faster than one being carried around.
const (
	decayIdlePerMin   = 2
	decayActivePerMin = 1
)

// decayInterval is the minimum elapsed time between decay applications.
const decayInterval uint32 = 60000

// Model is the clamped hunger scalar plus its decay bookkeeping.
type Model struct {
	value       int
	lastDecayMS uint32
	rng         *rand.Rand
}

// New creates a model with the given starting value (clamped to [0, Max]).
// The rand source drives feed increment jitter; tests pass a seeded source.
func New(initial int, rng *rand.Rand) *Model {
	m := &Model{rng: rng}
	m.Set(initial)
	return m
}

// Feed adds a randomized increment for one newly discovered identity:
// stable draws from [8,12], random from [2,4]. Clamps at Max.
func (m *Model) Feed(stable bool) {
	var points int
	if stable {
		points = stableFeedMean - 2 + m.rng.Intn(5)
	} else {
		points = randomFeedMean - 1 + m.rng.Intn(3)
	}

	m.value += points
	if m.value > Max {
		m.value = Max
	}
}

// DecayTick applies the per-minute decay at most once per elapsed minute,
// no matter how often it is called. Floors at 0.
func (m *Model) DecayTick(state motion.State, now uint32) {
	if now-m.lastDecayMS < decayInterval {
		return
	}
	m.lastDecayMS = now

	decay := decayActivePerMin
	if state == motion.Stationary {
		decay = decayIdlePerMin
	}

	m.value -= decay
	if m.value < 0 {
		m.value = 0
	}
}

// Get returns the current hunger value.
func (m *Model) Get() int { return m.value }

// Set overwrites the hunger value, clamped to [0, Max]. Used when restoring
// persisted state.
func (m *Model) Set(v int) {
	if v < 0 {
		v = 0
	}
	if v > Max {
		v = Max
	}
	m.value = v
}
