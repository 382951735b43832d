package store

import (
	"path/filepath"
	"testing"

	"github.com/sweeney/macagotchi/internal/sensor"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestDefaults(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "state.json"))
	defer s.Close()

	if s.CalibrationStart() != 0 {
		t.Errorf("default cal start should be 0, got %d", s.CalibrationStart())
	}
	if s.Hatched() {
		t.Error("default hatched should be false")
	}
	if s.RandRatio() != 0.5 {
		t.Errorf("default ratio should be 0.5, got %g", s.RandRatio())
	}
	if s.Hunger() != 70 {
		t.Errorf("default hunger should be 70, got %d", s.Hunger())
	}
	if s.MoodOrdinal() != 0 {
		t.Errorf("default mood ordinal should be 0, got %d", s.MoodOrdinal())
	}
	if s.MacTotal() != 0 {
		t.Errorf("default mac total should be 0, got %d", s.MacTotal())
	}
	if _, ok := s.Bloom(); ok {
		t.Error("bloom should be absent by default")
	}
	if _, ok := s.AccelOffsets(); ok {
		t.Error("accel offsets should be absent by default")
	}
}

func TestRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := openStore(t, path)
	s.SetCalibrationStart(1_700_000_000_000)
	s.SetHatched(true)
	s.SetRandRatio(0.75)
	s.SetMacTotal(1234)
	s.SetHunger(42)
	s.SetMoodOrdinal(3)
	s.SetBloom([]byte{0x01, 0x02, 0xFF, 0x00, 0x80})
	s.SetAccelOffsets(sensor.Offsets{X: -120, Y: 80, Z: -116})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen from disk: values come back through the JSON layer.
	s2 := openStore(t, path)
	defer s2.Close()

	if got := s2.CalibrationStart(); got != 1_700_000_000_000 {
		t.Errorf("cal start: got %d", got)
	}
	if !s2.Hatched() {
		t.Error("hatched flag lost")
	}
	if got := s2.RandRatio(); got != 0.75 {
		t.Errorf("ratio: got %g", got)
	}
	if got := s2.MacTotal(); got != 1234 {
		t.Errorf("mac total: got %d", got)
	}
	if got := s2.Hunger(); got != 42 {
		t.Errorf("hunger: got %d", got)
	}
	if got := s2.MoodOrdinal(); got != 3 {
		t.Errorf("mood ordinal: got %d", got)
	}

	bloom, ok := s2.Bloom()
	if !ok {
		t.Fatal("bloom missing after reopen")
	}
	want := []byte{0x01, 0x02, 0xFF, 0x00, 0x80}
	if len(bloom) != len(want) {
		t.Fatalf("bloom length %d, want %d", len(bloom), len(want))
	}
	for i := range want {
		if bloom[i] != want[i] {
			t.Fatalf("bloom byte %d: got %#x, want %#x", i, bloom[i], want[i])
		}
	}

	off, ok := s2.AccelOffsets()
	if !ok {
		t.Fatal("accel offsets missing after reopen")
	}
	if off != (sensor.Offsets{X: -120, Y: 80, Z: -116}) {
		t.Errorf("accel offsets: got %+v", off)
	}
}

func TestInProcessReadback(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "state.json"))
	defer s.Close()

	s.SetHunger(55)
	if got := s.Hunger(); got != 55 {
		t.Errorf("in-process hunger readback: got %d", got)
	}

	s.SetAccelOffsets(sensor.Offsets{X: 1, Y: 2, Z: 3})
	off, ok := s.AccelOffsets()
	if !ok || off != (sensor.Offsets{X: 1, Y: 2, Z: 3}) {
		t.Errorf("in-process offsets readback: ok=%v got %+v", ok, off)
	}
}
