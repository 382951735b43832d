// Package buttons turns two raw push-button levels into discrete press
// events: short press, long hold, and a combined both-buttons diagnostic
// hold. The decoder is pure logic over injected tick time; raw levels come
// from a Reader with real (GPIO) and fake implementations.
package buttons

// Event is a decoded button action. At most one event is produced per poll.
type Event string

const (
	None         Event = "NONE"
	Btn1Short    Event = "BTN1_SHORT"
	Btn1Hold     Event = "BTN1_HOLD"
	Btn2Short    Event = "BTN2_SHORT"
	Btn2Hold     Event = "BTN2_HOLD"
	BothHoldLong Event = "BOTH_HOLD_LONG"
)

// Press timing thresholds in milliseconds.
const (
	DebounceMS uint32 = 50
	HoldMS     uint32 = 2000
	BothHoldMS uint32 = 10000
)

// Reader reads the two button levels (true = pressed).
type Reader interface {
	Read() (btn1, btn2 bool, err error)
	Close() error
}

type btnState struct {
	down       bool
	pressedAt  uint32
	holdFired  bool
	suppressed bool
}

// Decoder tracks press timing for both buttons. Shorts fire on release
// after the debounce window; holds fire once while still held; while both
// buttons are down the individual buttons are suppressed in favor of the
// combined hold.
type Decoder struct {
	b1, b2 btnState

	bothActive bool
	bothAt     uint32
	bothFired  bool
}

// NewDecoder creates a decoder with both buttons released.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Poll consumes one sample of raw levels at tick now and returns the event
// it completes, if any.
func (d *Decoder) Poll(raw1, raw2 bool, now uint32) Event {
	pressEdge(&d.b1, raw1, now)
	pressEdge(&d.b2, raw2, now)

	if raw1 && raw2 {
		if !d.bothActive {
			d.bothActive = true
			d.bothAt = now
			d.bothFired = false
		}
		d.b1.suppressed = true
		d.b2.suppressed = true
		if !d.bothFired && now-d.bothAt >= BothHoldMS {
			d.bothFired = true
			return BothHoldLong
		}
		return None
	}
	d.bothActive = false

	e1 := resolve(&d.b1, raw1, now, Btn1Short, Btn1Hold)
	e2 := resolve(&d.b2, raw2, now, Btn2Short, Btn2Hold)
	if e1 != None {
		return e1
	}
	return e2
}

func pressEdge(s *btnState, raw bool, now uint32) {
	if raw && !s.down {
		s.down = true
		s.pressedAt = now
		s.holdFired = false
		s.suppressed = false
	}
}

func resolve(s *btnState, raw bool, now uint32, short, hold Event) Event {
	if raw {
		if s.down && !s.suppressed && !s.holdFired && now-s.pressedAt >= HoldMS {
			s.holdFired = true
			return hold
		}
		return None
	}

	if !s.down {
		return None
	}
	s.down = false
	if s.suppressed || s.holdFired {
		return None
	}

	held := now - s.pressedAt
	switch {
	case held >= HoldMS:
		return hold
	case held >= DebounceMS:
		return short
	default:
		// Bounce, not a press.
		return None
	}
}
