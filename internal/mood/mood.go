// Package mood decides the creature's displayed mood from hunger, motion,
// and novelty signals. The decision is a strict priority cascade; a
// short-lived transient override (shake anger, petting) beats the cascade
// and expires lazily whenever mood is read.
package mood

import "github.com/sweeney/macagotchi/internal/motion"

// Mood is the creature's discrete emotional state.
type Mood string

const (
	Calm     Mood = "CALM"
	Happy    Mood = "HAPPY"
	Excited  Mood = "EXCITED"
	Shocked  Mood = "SHOCKED"
	Sleeping Mood = "SLEEPING"
	Angry    Mood = "ANGRY"
)

// ordinals is the persisted 8-bit encoding order. Must stay stable across
// releases or restored moods shift.
var ordinals = []Mood{Calm, Happy, Excited, Shocked, Sleeping, Angry}

// Ordinal returns the persisted encoding of a mood. Unknown moods encode
// as Calm.
func Ordinal(m Mood) int {
	for i, v := range ordinals {
		if v == m {
			return i
		}
	}
	return 0
}

// FromOrdinal decodes a persisted mood value, defaulting to Calm.
func FromOrdinal(n int) Mood {
	if n < 0 || n >= len(ordinals) {
		return Calm
	}
	return ordinals[n]
}

// Decision thresholds.
const (
	excitedNewPerScan = 10
	happyNewPerScan   = 3
	happyRecent12h    = 20
	calmHungerFloor   = 20

	shakeAngerMS uint32 = 5000
)

// Engine holds the base mood plus an optional transient override.
type Engine struct {
	base Mood

	overrideActive bool
	override       Mood
	overrideEndMS  uint32
}

// NewEngine creates an engine with the given base mood (typically restored
// from the store, else Calm).
func NewEngine(initial Mood) *Engine {
	return &Engine{base: initial}
}

// Update recomputes the base mood. Rules fire in strict priority order; the
// first match wins:
//
//  1. an unexpired transient override
//  2. shaken motion (installs a 5 s ANGRY override)
//  3. hunger 0            -> SHOCKED
//  4. >= 10 new this scan -> EXCITED
//  5. >= 3 new this scan or >= 20 recent in 12 h -> HAPPY
//  6. hunger > 20         -> CALM
//  7. otherwise           -> SHOCKED
//
// Rule 6 covers both the well-fed and hungry-but-not-critical bands; they
// map to the same mood, so a single branch at >20 suffices.
func (e *Engine) Update(hunger int, state motion.State, newThisScan, recent12h int, now uint32) {
	if e.overrideActive {
		if !expired(now, e.overrideEndMS) {
			e.base = e.override
			return
		}
		e.overrideActive = false
	}

	if state == motion.Shaken {
		e.ForceTransient(Angry, shakeAngerMS, now)
		return
	}

	switch {
	case hunger == 0:
		e.base = Shocked
	case newThisScan >= excitedNewPerScan:
		e.base = Excited
	case newThisScan >= happyNewPerScan || recent12h >= happyRecent12h:
		e.base = Happy
	case hunger > calmHungerFloor:
		e.base = Calm
	default:
		e.base = Shocked
	}
}

// Current returns the active transient override if unexpired, else the base
// mood. Expiry is only ever checked here and in Update; there is no timer.
func (e *Engine) Current(now uint32) Mood {
	if e.overrideActive && !expired(now, e.overrideEndMS) {
		return e.override
	}
	return e.base
}

// expired reports whether the wrapped tick clock has reached end. Signed
// distance keeps the comparison correct across counter wraparound.
func expired(now, end uint32) bool {
	return int32(now-end) >= 0
}

// ForceTransient installs an override expiring at now+durationMs and sets
// the base mood to the same value, so base-mood reads during the override's
// own installation stay consistent.
func (e *Engine) ForceTransient(m Mood, durationMs, now uint32) {
	e.override = m
	e.overrideEndMS = now + durationMs
	e.overrideActive = true
	e.base = m
}
