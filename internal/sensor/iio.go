package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIOReader reads a 3-axis accelerometer exposed through the Linux
// industrial I/O sysfs interface (in_accel_{x,y,z}_raw under an
// iio:deviceN directory). Raw readings are scaled so 1g reads OneG, then
// corrected by the persisted zero offsets.
type IIOReader struct {
	dir     string
	scale   float64
	offsets Offsets
}

// NewIIOReader opens the IIO device directory. scale converts one raw LSB
// into engine units (for a +/-2g 16-bit part reporting 1g as 16384 the
// scale is 1.0). Fails if the axis files are not readable.
func NewIIOReader(dir string, scale float64, offsets Offsets) (*IIOReader, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("sensor: scale must be positive, got %g", scale)
	}
	r := &IIOReader{dir: dir, scale: scale, offsets: offsets}
	for _, axis := range []string{"x", "y", "z"} {
		if _, err := r.readAxis(axis); err != nil {
			return nil, fmt.Errorf("sensor: probe %s axis: %w", axis, err)
		}
	}
	return r, nil
}

// SetOffsets replaces the zero-point corrections, e.g. after calibration.
func (r *IIOReader) SetOffsets(o Offsets) {
	r.offsets = o
}

func (r *IIOReader) readAxis(axis string) (int32, error) {
	path := filepath.Join(r.dir, "in_accel_"+axis+"_raw")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return int32(float64(v) * r.scale), nil
}

// ReadRaw returns scaled but offset-uncorrected axis readings.
func (r *IIOReader) ReadRaw() (int32, int32, int32, error) {
	x, err := r.readAxis("x")
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := r.readAxis("y")
	if err != nil {
		return 0, 0, 0, err
	}
	z, err := r.readAxis("z")
	if err != nil {
		return 0, 0, 0, err
	}
	return x, y, z, nil
}

// Magnitude returns the offset-corrected acceleration magnitude.
func (r *IIOReader) Magnitude() (int32, error) {
	x, y, z, err := r.ReadRaw()
	if err != nil {
		return 0, err
	}
	return Magnitude(x+r.offsets.X, y+r.offsets.Y, z+r.offsets.Z), nil
}

// Close releases the reader. Sysfs needs no teardown.
func (r *IIOReader) Close() error {
	return nil
}
