package hunger

import (
	"math/rand"
	"testing"

	"github.com/sweeney/macagotchi/internal/motion"
)

func newModel(t *testing.T, initial int) *Model {
	t.Helper()
	return New(initial, rand.New(rand.NewSource(1)))
}

func TestFeedNeverExceedsMax(t *testing.T) {
	m := newModel(t, 95)
	for i := 0; i < 50; i++ {
		m.Feed(true)
		if m.Get() > Max {
			t.Fatalf("hunger %d exceeds max after feed %d", m.Get(), i)
		}
	}
	if m.Get() != Max {
		t.Errorf("expected hunger pinned at %d, got %d", Max, m.Get())
	}
}

func TestFeedIncrementRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		m := New(0, rng)
		m.Feed(true)
		if got := m.Get(); got < 8 || got > 12 {
			t.Fatalf("stable feed increment %d outside [8,12]", got)
		}
	}
	for i := 0; i < 200; i++ {
		m := New(0, rng)
		m.Feed(false)
		if got := m.Get(); got < 2 || got > 4 {
			t.Fatalf("random feed increment %d outside [2,4]", got)
		}
	}
}

func TestDecayAtMostOncePerMinute(t *testing.T) {
	m := newModel(t, 50)

	m.DecayTick(motion.Stationary, 60000)
	if m.Get() != 48 {
		t.Fatalf("expected 48 after first decay, got %d", m.Get())
	}

	// Second call within the same interval is a no-op.
	m.DecayTick(motion.Stationary, 90000)
	if m.Get() != 48 {
		t.Errorf("decay applied twice within one minute: %d", m.Get())
	}

	// Next full interval elapses (measured from the last application).
	m.DecayTick(motion.Stationary, 120000)
	if m.Get() != 46 {
		t.Errorf("expected 46 after second interval, got %d", m.Get())
	}
}

func TestDecayRateByMotionState(t *testing.T) {
	cases := []struct {
		state motion.State
		want  int
	}{
		{motion.Stationary, 48},
		{motion.Carried, 49},
		{motion.InTransit, 49},
		{motion.Shaken, 49},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			m := newModel(t, 50)
			m.DecayTick(tc.state, 60000)
			if m.Get() != tc.want {
				t.Errorf("state %s: expected %d, got %d", tc.state, tc.want, m.Get())
			}
		})
	}
}

func TestDecayFloorsAtZero(t *testing.T) {
	m := newModel(t, 1)
	m.DecayTick(motion.Stationary, 60000)
	if m.Get() != 0 {
		t.Fatalf("expected floor at 0, got %d", m.Get())
	}
	m.DecayTick(motion.Stationary, 120000)
	if m.Get() != 0 {
		t.Errorf("hunger went negative: %d", m.Get())
	}
}

func TestDecayBeforeFirstInterval(t *testing.T) {
	m := newModel(t, 50)
	m.DecayTick(motion.Stationary, 59999)
	if m.Get() != 50 {
		t.Errorf("decay applied before a full minute elapsed: %d", m.Get())
	}
}

func TestSetClamps(t *testing.T) {
	m := newModel(t, 50)
	m.Set(150)
	if m.Get() != Max {
		t.Errorf("Set(150) should clamp to %d, got %d", Max, m.Get())
	}
	m.Set(-5)
	if m.Get() != 0 {
		t.Errorf("Set(-5) should clamp to 0, got %d", m.Get())
	}
}
