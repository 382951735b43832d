package sensor

import "errors"

// FakeReader is a test double that returns scripted magnitude samples.
type FakeReader struct {
	// Samples contains scripted magnitudes. Each call to Magnitude
	// consumes the next sample; when exhausted the last one repeats.
	Samples []int32

	index int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Magnitude.
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []int32) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Magnitude returns the next scripted sample.
func (f *FakeReader) Magnitude() (int32, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeRawReader returns scripted 3-axis samples for calibration tests.
type FakeRawReader struct {
	X, Y, Z   int32
	ReadError error
	Reads     int
}

// ReadRaw returns the fixed axis readings.
func (f *FakeRawReader) ReadRaw() (int32, int32, int32, error) {
	if f.ReadError != nil {
		return 0, 0, 0, f.ReadError
	}
	f.Reads++
	return f.X, f.Y, f.Z, nil
}
