// Package sensor provides the accelerometer magnitude source with hardware
// abstraction. The real implementation reads a Linux IIO sysfs device; the
// fake allows testing without hardware. Readings are raw accelerometer
// units where resting 1g reads ~16384, matching what the motion classifier
// expects.
package sensor

import (
	"fmt"
	"math"
	"time"
)

// OneG is the magnitude a resting device should read after zero-point
// calibration.
const OneG int32 = 16384

// Reader yields calibrated acceleration-vector magnitudes.
type Reader interface {
	// Magnitude returns the current acceleration magnitude in raw units.
	Magnitude() (int32, error)

	// Close releases sensor resources.
	Close() error
}

// RawReader reads uncorrected 3-axis samples. Used by the calibration
// routine, which runs before zero offsets exist.
type RawReader interface {
	ReadRaw() (x, y, z int32, err error)
}

// Offsets are the zero-point corrections added to raw axis readings so a
// resting device reads (0, 0, OneG).
type Offsets struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Magnitude computes the acceleration-vector magnitude from axis readings.
func Magnitude(x, y, z int32) int32 {
	fx, fy, fz := float64(x), float64(y), float64(z)
	return int32(math.Sqrt(fx*fx + fy*fy + fz*fz))
}

// Calibrate runs the blocking zero-point routine: it averages the given
// number of raw samples (the device must be at rest, Z up) and derives
// offsets that zero X and Y and pin Z at 1g. With the device defaults
// (200 samples, 20ms apart) this takes about four seconds. This is the one
// deliberately blocking call in the engine's orbit.
func Calibrate(r RawReader, samples int, delay time.Duration) (Offsets, error) {
	if samples <= 0 {
		return Offsets{}, fmt.Errorf("sensor: sample count must be positive, got %d", samples)
	}

	var sumX, sumY, sumZ int64
	for i := 0; i < samples; i++ {
		x, y, z, err := r.ReadRaw()
		if err != nil {
			return Offsets{}, fmt.Errorf("sensor: calibration read %d: %w", i, err)
		}
		sumX += int64(x)
		sumY += int64(y)
		sumZ += int64(z)
		if delay > 0 && i < samples-1 {
			time.Sleep(delay)
		}
	}

	n := int64(samples)
	return Offsets{
		X: int32(-(sumX / n)),
		Y: int32(-(sumY / n)),
		Z: int32(-(sumZ/n)) + OneG,
	}, nil
}
