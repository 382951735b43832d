package egg

import "testing"

// memStore is an in-memory Store for tests.
type memStore struct {
	hatched  bool
	calStart int64
	ratio    float64
	macTotal uint32

	calStartWrites int
}

func (m *memStore) Hatched() bool               { return m.hatched }
func (m *memStore) SetHatched(v bool)           { m.hatched = v }
func (m *memStore) CalibrationStart() int64     { return m.calStart }
func (m *memStore) SetCalibrationStart(ms int64) {
	m.calStart = ms
	m.calStartWrites++
}
func (m *memStore) RandRatio() float64     { return m.ratio }
func (m *memStore) SetRandRatio(r float64) { m.ratio = r }
func (m *memStore) MacTotal() uint32       { return m.macTotal }
func (m *memStore) SetMacTotal(n uint32)   { m.macTotal = n }

const start = int64(1_700_000_000_000)

func TestBeginInitializesStartOnce(t *testing.T) {
	s := &memStore{ratio: 0.5}
	c := NewController(s)

	if complete := c.Begin(start); complete {
		t.Fatal("fresh controller should not report complete")
	}
	if s.calStart != start {
		t.Errorf("start timestamp not persisted: %d", s.calStart)
	}

	// A later Begin (e.g. after reboot) must not overwrite the start.
	c2 := NewController(s)
	c2.Begin(start + 3600_000)
	if s.calStart != start {
		t.Errorf("start timestamp overwritten: %d", s.calStart)
	}
	if s.calStartWrites != 1 {
		t.Errorf("expected exactly one start write, got %d", s.calStartWrites)
	}
}

func TestCompletionRequiresBothConditions(t *testing.T) {
	s := &memStore{}
	c := NewController(s)
	c.Begin(start)

	// Time done, count short.
	for i := 0; i < 10; i++ {
		c.OnMacDiscovered(true)
	}
	if c.IsComplete(start + DurationMS) {
		t.Error("complete with only 10 discoveries")
	}

	// Count done, time short.
	for i := 0; i < 40; i++ {
		c.OnMacDiscovered(true)
	}
	if c.IsComplete(start + DurationMS - 1) {
		t.Error("complete before 48h elapsed")
	}

	// Both conditions met.
	if !c.IsComplete(start + DurationMS) {
		t.Error("should be complete with 50 discoveries after 48h")
	}
}

func TestRandRatioEstimate(t *testing.T) {
	s := &memStore{}
	c := NewController(s)
	c.Begin(start)

	c.OnMacDiscovered(true)
	c.OnMacDiscovered(false)
	c.OnMacDiscovered(false)
	c.OnMacDiscovered(false)

	if got := c.RandRatio(); got != 0.75 {
		t.Errorf("expected ratio 0.75, got %g", got)
	}
	if c.MacTotal() != 4 {
		t.Errorf("expected total 4, got %d", c.MacTotal())
	}
}

func TestProgressAndRemaining(t *testing.T) {
	s := &memStore{}
	c := NewController(s)
	c.Begin(start)

	if got := c.ProgressPercent(start); got != 0 {
		t.Errorf("progress at start: expected 0, got %d", got)
	}
	if got := c.ProgressPercent(start + DurationMS/2); got != 50 {
		t.Errorf("progress at half: expected 50, got %d", got)
	}
	if got := c.ProgressPercent(start + 2*DurationMS); got != 100 {
		t.Errorf("progress past end must clamp to 100, got %d", got)
	}

	if got := c.RemainingMs(start + DurationMS/2); got != DurationMS/2 {
		t.Errorf("remaining at half: expected %d, got %d", DurationMS/2, got)
	}
	if got := c.RemainingMs(start + 2*DurationMS); got != 0 {
		t.Errorf("remaining past end must clamp to 0, got %d", got)
	}
	// Clock skew before start clamps rather than going negative.
	if got := c.RemainingMs(start - 1000); got != DurationMS {
		t.Errorf("remaining before start must clamp to full duration, got %d", got)
	}
}

func TestLockIsTerminal(t *testing.T) {
	s := &memStore{}
	c := NewController(s)
	c.Begin(start)

	for i := 0; i < 60; i++ {
		c.OnMacDiscovered(i%3 == 0)
	}
	c.Lock()

	if !s.hatched {
		t.Fatal("Lock must persist the hatched flag")
	}
	if s.macTotal != 60 {
		t.Errorf("Lock must persist total, got %d", s.macTotal)
	}
	if s.ratio != c.RandRatio() {
		t.Errorf("Lock must persist ratio, got %g", s.ratio)
	}

	// A fresh controller over the same store reports complete immediately,
	// without re-reading counts.
	c2 := NewController(s)
	if !c2.Begin(start + 10*DurationMS) {
		t.Error("Begin after Lock should report complete")
	}
	if !c2.Hatched() {
		t.Error("controller should be hatched after Begin on a locked store")
	}
}

func TestRestoreAccumulatedState(t *testing.T) {
	s := &memStore{calStart: start, ratio: 0.6, macTotal: 30}
	c := NewController(s)

	if complete := c.Begin(start + 1000); complete {
		t.Fatal("unhatched store should not report complete")
	}
	if c.MacTotal() != 30 {
		t.Errorf("expected restored total 30, got %d", c.MacTotal())
	}
	if c.RandRatio() != 0.6 {
		t.Errorf("expected restored ratio 0.6, got %g", c.RandRatio())
	}
}
