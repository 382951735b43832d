// Package status provides a thread-safe status tracker for the macagotchi
// daemon. The tick loop writes into it; the HTTP server and MQTT heartbeat
// read point-in-time snapshots out of it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/macagotchi/internal/mood"
	"github.com/sweeney/macagotchi/internal/motion"
)

// Phase is the daemon lifecycle phase.
type Phase string

const (
	PhaseSensorCal Phase = "SENSOR_CALIBRATION"
	PhaseEgg       Phase = "EGG"
	PhaseNormal    Phase = "NORMAL"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	StatePath   string
}

// Egg carries calibration-phase progress for display.
type Egg struct {
	ProgressPercent int
	RemainingMs     int64
	MacCount        uint32
	RandRatio       float64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Phase         Phase
	Mood          mood.Mood
	Hunger        int
	Motion        motion.State
	NoveltyScore  int
	NewLastScan   uint32
	Recent12h     int
	MacToday      uint32
	MacTotal      uint32
	Egg           Egg
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     PhaseSensorCal,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetPhase sets the lifecycle phase.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	t.snap.Phase = p
	t.mu.Unlock()
}

// UpdateCreature sets the per-tick creature state.
// Called from the tick loop on every tick.
func (t *Tracker) UpdateCreature(m mood.Mood, hunger int, state motion.State) {
	t.mu.Lock()
	t.snap.Mood = m
	t.snap.Hunger = hunger
	t.snap.Motion = state
	t.mu.Unlock()
}

// UpdateScan records the result of the latest scan cycle.
func (t *Tracker) UpdateScan(newThisScan uint32, recent12h, noveltyScore int, macToday, macTotal uint32) {
	t.mu.Lock()
	t.snap.NewLastScan = newThisScan
	t.snap.Recent12h = recent12h
	t.snap.NoveltyScore = noveltyScore
	t.snap.MacToday = macToday
	t.snap.MacTotal = macTotal
	t.mu.Unlock()
}

// UpdateEgg records calibration-phase progress.
func (t *Tracker) UpdateEgg(e Egg) {
	t.mu.Lock()
	t.snap.Egg = e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
