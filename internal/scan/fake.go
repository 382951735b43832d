package scan

import (
	"context"
	"time"
)

// Fake is a test double Scanner fed with scripted advertisement batches.
// Each Scan consumes the next batch and runs every address through the real
// dedup pipeline, so novelty accounting behaves exactly as it would against
// a radio. When batches are exhausted the last one repeats, which naturally
// yields all-duplicate scans.
type Fake struct {
	// Batches contains the raw addresses "heard" during each scan.
	Batches [][][6]byte

	index int

	// Now supplies the tick clock for recency entries.
	Now func() uint32

	// ScanError, if set, is returned by Scan.
	ScanError error

	// Closed tracks if Close was called.
	Closed bool

	dedup *Dedup
}

// NewFake creates a Fake over the given dedup pipeline.
func NewFake(dedup *Dedup, now func() uint32, batches ...[][6]byte) *Fake {
	return &Fake{Batches: batches, Now: now, dedup: dedup}
}

// Scan consumes the next scripted batch.
func (f *Fake) Scan(ctx context.Context, duration time.Duration) (Result, error) {
	if f.ScanError != nil {
		return Result{}, f.ScanError
	}
	if len(f.Batches) == 0 {
		return Result{}, nil
	}

	batch := f.Batches[f.index]
	if f.index < len(f.Batches)-1 {
		f.index++
	}

	var r Result
	now := f.Now()
	for _, mac := range batch {
		r.TotalSeen++
		novel, stable := f.dedup.Observe(mac, now)
		if !novel {
			continue
		}
		if stable {
			r.NewStable++
		} else {
			r.NewRandom++
		}
	}
	return r, nil
}

// Close marks the scanner as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
