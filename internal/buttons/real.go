//go:build linux

package buttons

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Default pin assignments (BCM numbering).
const (
	DefaultPinBtn1 = 17
	DefaultPinBtn2 = 27
)

// RealReader reads the two push buttons from the Linux GPIO character
// device. Buttons are wired active-low with pull-ups: raw 0 = pressed.
type RealReader struct {
	chip *gpiocdev.Chip
	btn1 *gpiocdev.Line
	btn2 *gpiocdev.Line
}

// NewRealReader requests the two button lines as inputs with pull-ups.
func NewRealReader(pinBtn1, pinBtn2 int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line1, err := chip.RequestLine(pinBtn1, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request btn1 pin %d: %w", pinBtn1, err)
	}

	line2, err := chip.RequestLine(pinBtn2, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		line1.Close()
		chip.Close()
		return nil, fmt.Errorf("request btn2 pin %d: %w", pinBtn2, err)
	}

	return &RealReader{chip: chip, btn1: line1, btn2: line2}, nil
}

// Read returns the logical button states. Inverts raw levels: active-low
// wiring means raw 0 = pressed.
func (r *RealReader) Read() (bool, bool, error) {
	raw1, err := r.btn1.Value()
	if err != nil {
		return false, false, fmt.Errorf("read btn1: %w", err)
	}
	raw2, err := r.btn2.Value()
	if err != nil {
		return false, false, fmt.Errorf("read btn2: %w", err)
	}
	return raw1 == 0, raw2 == 0, nil
}

// Close releases the GPIO lines.
func (r *RealReader) Close() error {
	var errs []error
	if r.btn1 != nil {
		if err := r.btn1.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close btn1: %w", err))
		}
	}
	if r.btn2 != nil {
		if err := r.btn2.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close btn2: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
