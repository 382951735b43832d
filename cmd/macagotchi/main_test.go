package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/macagotchi/internal/bloom"
	"github.com/sweeney/macagotchi/internal/buttons"
	"github.com/sweeney/macagotchi/internal/egg"
	"github.com/sweeney/macagotchi/internal/hunger"
	"github.com/sweeney/macagotchi/internal/mood"
	"github.com/sweeney/macagotchi/internal/motion"
	"github.com/sweeney/macagotchi/internal/mqtt"
	"github.com/sweeney/macagotchi/internal/recency"
	"github.com/sweeney/macagotchi/internal/scan"
	"github.com/sweeney/macagotchi/internal/sensor"
	"github.com/sweeney/macagotchi/internal/status"
	"github.com/sweeney/macagotchi/internal/store"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's
// goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeatButtons returns n copies of sample.
func repeatButtons(sample buttons.Sample, n int) []buttons.Sample {
	out := make([]buttons.Sample, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

type testDaemon struct {
	d   *daemon
	st  *store.Store
	pub *mqtt.FakePublisher
}

// newTestDaemon wires a daemon over fakes. Scan batches, button samples and
// accelerometer magnitudes can be adjusted on the returned pieces before
// driving the loop.
func newTestDaemon(t *testing.T, start time.Time, batches ...[][6]byte) *testDaemon {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	filter, err := bloom.New(1000, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	recent := recency.NewTracker()
	dedup := scan.NewDedup(filter, recent)

	pub := mqtt.NewFakePublisher()

	d := &daemon{
		store:     st,
		filter:    filter,
		recent:    recent,
		motion:    motion.NewClassifier(),
		hunger:    hunger.New(50, rand.New(rand.NewSource(1))),
		mood:      mood.NewEngine(mood.Calm),
		egg:       egg.NewController(st),
		decoder:   buttons.NewDecoder(),
		btns:      buttons.NewFakeReader(repeatButtons(buttons.Sample{}, 1)),
		sensor:    sensor.NewFakeReader([]int32{sensor.OneG}),
		scanner:   scan.NewFake(dedup, func() uint32 { return 1 }, batches...),
		publisher: pub,
		mqttConn:  pub,
		tracker:   status.NewTracker(start, status.Config{}),

		phase:       status.PhaseNormal,
		start:       start,
		lastMood:    mood.Calm,
		macTotal:    0,
		lastPersist: start,
	}
	d.tracker.SetPhase(d.phase)

	return &testDaemon{d: d, st: st, pub: pub}
}

// drive runs runLoop for nTicks ticks and then delivers the signal.
func drive(t *testing.T, d *daemon, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(d, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)
	clock := fakeClock(start, 100*time.Millisecond)

	if err := drive(t, td.d, clock, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(td.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(td.pub.SystemEvents))
	}
	se := td.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)
	clock := fakeClock(start, 100*time.Millisecond)

	if err := drive(t, td.d, clock, 2, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(td.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(td.pub.SystemEvents))
	}
	if td.pub.SystemEvents[0].Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", td.pub.SystemEvents[0].Reason)
	}
}

func TestRunLoopScanFeedsHunger(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := [][6]byte{
		{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x01},
		{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x02},
	}
	td := newTestDaemon(t, start, batch)

	// 30s steps: the scan interval (90s) elapses on the 4th tick.
	clock := fakeClock(start, 30*time.Second)

	if err := drive(t, td.d, clock, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Two stable discoveries feed at least 8 each; at most one decay tick
	// (minute boundary) subtracts 2 before the scan lands.
	if got := td.d.hunger.Get(); got < 64 {
		t.Errorf("hunger after feeding: got %d, want >= 64", got)
	}

	// One SCAN event with the discovery counts.
	var scans []mqtt.Event
	for _, e := range td.pub.Events {
		if e.Type == mqtt.EventScan {
			scans = append(scans, e)
		}
	}
	if len(scans) != 1 {
		t.Fatalf("expected 1 SCAN event, got %d", len(scans))
	}
	if scans[0].NewStable != 2 {
		t.Errorf("NewStable: got %d, want 2", scans[0].NewStable)
	}

	// Shutdown persisted the fed hunger.
	if got := td.st.Hunger(); got < 64 {
		t.Errorf("persisted hunger: got %d, want >= 64", got)
	}
}

func TestRunLoopEggPhaseHatches(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := [][6]byte{{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x01}}
	td := newTestDaemon(t, start, batch)

	// Calibration started 49h ago with 49 identities already counted: one
	// more discovery completes it.
	td.st.SetCalibrationStart(start.Add(-49 * time.Hour).UnixMilli())
	td.st.SetMacTotal(49)
	td.d.egg = egg.NewController(td.st)
	td.d.egg.Begin(start.UnixMilli())
	td.d.phase = status.PhaseEgg
	td.d.tracker.SetPhase(status.PhaseEgg)

	clock := fakeClock(start, 30*time.Second)

	if err := drive(t, td.d, clock, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if td.d.phase != status.PhaseNormal {
		t.Errorf("phase after hatch: got %q, want NORMAL", td.d.phase)
	}
	if !td.st.Hatched() {
		t.Error("hatched flag not persisted")
	}

	var hatched int
	for _, e := range td.pub.Events {
		if e.Type == mqtt.EventHatched {
			hatched++
		}
	}
	if hatched != 1 {
		t.Errorf("expected 1 HATCHED event, got %d", hatched)
	}
}

func TestRunLoopPetButtonLiftsMood(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)

	// Button 2 pressed on the first tick, released on the second: a short
	// press, which pets the creature.
	td.d.btns = buttons.NewFakeReader([]buttons.Sample{
		{Btn2: true},
		{},
	})

	clock := fakeClock(start, 100*time.Millisecond)

	if err := drive(t, td.d, clock, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var moodChanges []mqtt.Event
	for _, e := range td.pub.Events {
		if e.Type == mqtt.EventMoodChange {
			moodChanges = append(moodChanges, e)
		}
	}
	if len(moodChanges) == 0 {
		t.Fatal("expected a MOOD_CHANGE event after petting")
	}
	if moodChanges[0].Mood != mood.Happy {
		t.Errorf("mood: got %q, want HAPPY", moodChanges[0].Mood)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)
	td.d.heartbeatEvery = 15 * time.Minute
	td.d.lastHeartbeat = start

	// 5-minute steps: ticks at 0, 5, 10, 15 minutes; the last one fires the
	// heartbeat.
	clock := fakeClock(start, 5*time.Minute)

	if err := drive(t, td.d, clock, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var heartbeats, shutdowns int
	for _, se := range td.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			if se.RawPayload == nil {
				t.Error("HEARTBEAT missing status payload")
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopSensorErrorContinues(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)

	broken := sensor.NewFakeReader(nil)
	broken.ReadError = os.ErrDeadlineExceeded
	td.d.sensor = broken

	clock := fakeClock(start, 100*time.Millisecond)

	if err := drive(t, td.d, clock, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// SHUTDOWN still published despite sensor faults.
	found := false
	for _, se := range td.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event after sensor errors")
	}
}

func TestRunLoopPeriodicPersist(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	td := newTestDaemon(t, start)
	td.d.persistEvery = 5 * time.Minute
	td.d.macTotal = 123

	clock := fakeClock(start, 5*time.Minute)

	if err := drive(t, td.d, clock, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := td.st.MacTotal(); got != 123 {
		t.Errorf("persisted mac total: got %d, want 123", got)
	}
	if _, ok := td.st.Bloom(); !ok {
		t.Error("expected bloom filter persisted")
	}
}
