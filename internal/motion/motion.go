// Package motion classifies how the device is being handled from a stream of
// acceleration-magnitude samples. Pure logic: the classifier is a total
// function of its rolling history and never fails. Samples arrive in raw
// accelerometer units where resting 1g reads ~16384.
package motion

// State is the discrete physical-handling state.
type State string

const (
	Stationary State = "STATIONARY"
	Carried    State = "CARRIED"
	InTransit  State = "IN_TRANSIT"
	Shaken     State = "SHAKEN"
)

// Baseline is the magnitude a resting device reads (1g).
const Baseline int32 = 16384

// Thresholds (empirical, carried over from the device tuning).
const (
	shakeThreshold  int32 = 2500 // instantaneous |mag - 1g| spike
	carriedVariance int64 = 800
	transitVariance int64 = 200
)

const historySize = 16

// Classifier keeps a 16-sample rolling magnitude history and the last
// classified state. The zero-filled initial history biases early readings
// toward low variance, which reads as stationary.
type Classifier struct {
	history [historySize]int32
	idx     int
	state   State
}

// NewClassifier creates a classifier in the stationary state.
func NewClassifier() *Classifier {
	return &Classifier{state: Stationary}
}

// Sample records one magnitude reading and returns the resulting state.
// A spike beyond the shake threshold classifies Shaken immediately and skips
// the variance evaluation for this tick. Otherwise the population variance
// of the history selects Carried, InTransit, or Stationary. No hysteresis:
// the state may flicker at threshold boundaries.
func (c *Classifier) Sample(mag int32) State {
	c.history[c.idx] = mag
	c.idx = (c.idx + 1) % historySize

	deviation := mag - Baseline
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > shakeThreshold {
		c.state = Shaken
		return c.state
	}

	variance := c.variance()
	switch {
	case variance > carriedVariance*carriedVariance:
		c.state = Carried
	case variance > transitVariance*transitVariance:
		c.state = InTransit
	default:
		c.state = Stationary
	}
	return c.state
}

// variance computes the population variance of the rolling history in
// integer arithmetic; no floats anywhere in the hot path.
func (c *Classifier) variance() int64 {
	var mean int64
	for _, m := range c.history {
		mean += int64(m)
	}
	mean /= historySize

	var variance int64
	for _, m := range c.history {
		d := int64(m) - mean
		variance += d * d
	}
	return variance / historySize
}

// State returns the last classified state without consuming a sample.
func (c *Classifier) State() State {
	return c.state
}
