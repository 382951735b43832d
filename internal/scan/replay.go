package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

// Replay is a Scanner fed from a text file of MAC addresses, for running the
// daemon on hardware without a radio. Each batch is a group of lines
// separated by a blank line; '#' starts a comment. Batches cycle, so the
// replay never runs out.
type Replay struct {
	batches [][][6]byte
	index   int
	now     func() uint32
	dedup   *Dedup
}

// NewReplay loads the replay file at path.
func NewReplay(path string, dedup *Dedup, now func() uint32) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	batches, err := parseBatches(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("replay file %s has no addresses", path)
	}

	return &Replay{batches: batches, now: now, dedup: dedup}, nil
}

func parseBatches(r io.Reader) ([][][6]byte, error) {
	var batches [][][6]byte
	var current [][6]byte

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			if len(current) > 0 {
				batches = append(batches, current)
				current = nil
			}
			continue
		}

		hw, err := net.ParseMAC(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(hw) != 6 {
			return nil, fmt.Errorf("line %d: %q is not a 48-bit address", line, text)
		}
		var mac [6]byte
		copy(mac[:], hw)
		current = append(current, mac)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}

// Scan runs the next batch through the dedup pipeline.
func (r *Replay) Scan(ctx context.Context, duration time.Duration) (Result, error) {
	batch := r.batches[r.index]
	r.index = (r.index + 1) % len(r.batches)

	var res Result
	now := r.now()
	for _, mac := range batch {
		res.TotalSeen++
		novel, stable := r.dedup.Observe(mac, now)
		if !novel {
			continue
		}
		if stable {
			res.NewStable++
		} else {
			res.NewRandom++
		}
	}
	return res, nil
}

// Close is a no-op; the file is read eagerly.
func (r *Replay) Close() error {
	return nil
}
