// Package store persists the creature's durable state (calibration record,
// hunger, mood, membership filter bits, accelerometer offsets) in a
// file-backed key-value datastore. One key per value, mirroring the
// device's NVS layout; missing or mis-typed values degrade to defaults
// rather than failing. Scalars are stored as float64 so values read back
// identically before and after a JSON reload.
package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/keshon/datastore"

	"github.com/sweeney/macagotchi/internal/sensor"
)

// Storage keys.
const (
	keyCalStart     = "cal_start"
	keyHatched      = "hatched"
	keyRandRatio    = "rand_ratio"
	keyMacTotal     = "mac_total"
	keyHunger       = "hunger"
	keyMood         = "mood"
	keyBloom        = "bloom_data"
	keyAccelOffsets = "accel_offsets"
)

// Defaults applied when a key has never been written.
const (
	defaultHunger    = 70
	defaultRandRatio = 0.5
)

// Store wraps the datastore with typed accessors for the persisted layout.
type Store struct {
	ds *datastore.DataStore
}

// Open creates or loads the store at the given file path.
func Open(path string) (*Store, error) {
	ds, err := datastore.New(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{ds: ds}, nil
}

// Flush writes the current state to disk immediately, on top of the
// datastore's own periodic autosave.
func (s *Store) Flush() error {
	return s.ds.SaveToFile()
}

// Close flushes and releases the datastore.
func (s *Store) Close() error {
	return s.ds.Close()
}

func (s *Store) getFloat(key string, def float64) float64 {
	v, ok := s.ds.Get(key)
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return f
}

func (s *Store) getBool(key string) bool {
	v, ok := s.ds.Get(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// CalibrationStart returns the persisted egg start timestamp (epoch ms),
// 0 if never set.
func (s *Store) CalibrationStart() int64 {
	return int64(s.getFloat(keyCalStart, 0))
}

// SetCalibrationStart persists the egg start timestamp.
func (s *Store) SetCalibrationStart(ms int64) {
	s.ds.Add(keyCalStart, float64(ms))
}

// Hatched returns the terminal hatched flag.
func (s *Store) Hatched() bool {
	return s.getBool(keyHatched)
}

// SetHatched persists the hatched flag.
func (s *Store) SetHatched(v bool) {
	s.ds.Add(keyHatched, v)
}

// RandRatio returns the persisted random-address ratio, 0.5 if never set.
func (s *Store) RandRatio() float64 {
	return s.getFloat(keyRandRatio, defaultRandRatio)
}

// SetRandRatio persists the random-address ratio.
func (s *Store) SetRandRatio(r float64) {
	s.ds.Add(keyRandRatio, r)
}

// MacTotal returns the persisted total discovery count.
func (s *Store) MacTotal() uint32 {
	return uint32(s.getFloat(keyMacTotal, 0))
}

// SetMacTotal persists the total discovery count.
func (s *Store) SetMacTotal(n uint32) {
	s.ds.Add(keyMacTotal, float64(n))
}

// Hunger returns the persisted hunger value, 70 if never set.
func (s *Store) Hunger() int {
	return int(s.getFloat(keyHunger, defaultHunger))
}

// SetHunger persists the hunger value.
func (s *Store) SetHunger(v int) {
	s.ds.Add(keyHunger, float64(v))
}

// MoodOrdinal returns the persisted mood encoding, 0 (calm) if never set.
func (s *Store) MoodOrdinal() int {
	return int(s.getFloat(keyMood, 0))
}

// SetMoodOrdinal persists the mood encoding.
func (s *Store) SetMoodOrdinal(n int) {
	s.ds.Add(keyMood, float64(n))
}

// Bloom returns the persisted membership filter bit array, or ok=false if
// never saved or unreadable.
func (s *Store) Bloom() ([]byte, bool) {
	v, ok := s.ds.Get(keyBloom)
	if !ok {
		return nil, false
	}
	enc, ok := v.(string)
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetBloom persists the membership filter bit array.
func (s *Store) SetBloom(data []byte) {
	s.ds.Add(keyBloom, base64.StdEncoding.EncodeToString(data))
}

// AccelOffsets returns the persisted accelerometer zero offsets, or
// ok=false if the sensor was never calibrated.
func (s *Store) AccelOffsets() (sensor.Offsets, bool) {
	v, ok := s.ds.Get(keyAccelOffsets)
	if !ok {
		return sensor.Offsets{}, false
	}

	// The value is an Offsets struct in-process and a generic map after a
	// file reload; a JSON round-trip handles both.
	raw, err := json.Marshal(v)
	if err != nil {
		return sensor.Offsets{}, false
	}
	var off sensor.Offsets
	if err := json.Unmarshal(raw, &off); err != nil {
		return sensor.Offsets{}, false
	}
	return off, true
}

// SetAccelOffsets persists the accelerometer zero offsets.
func (s *Store) SetAccelOffsets(off sensor.Offsets) {
	s.ds.Add(keyAccelOffsets, off)
}
