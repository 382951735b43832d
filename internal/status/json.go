package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Phase         string     `json:"phase"`
	Mood          string     `json:"mood"`
	Hunger        int        `json:"hunger"`
	Motion        string     `json:"motion"`
	NoveltyScore  int        `json:"novelty_score"`
	NewLastScan   uint32     `json:"new_last_scan"`
	Recent12h     int        `json:"recent_12h"`
	MacToday      uint32     `json:"mac_today"`
	MacTotal      uint32     `json:"mac_total"`
	Egg           *EggJSON   `json:"egg,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// EggJSON is the JSON representation of calibration progress, present only
// during the egg phase.
type EggJSON struct {
	ProgressPercent int     `json:"progress_percent"`
	RemainingMs     int64   `json:"remaining_ms"`
	MacCount        uint32  `json:"mac_count"`
	RandRatio       float64 `json:"rand_ratio"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	StatePath   string `json:"state_path"`
}

func buildInner(snap Snapshot) StatusInner {
	m := string(snap.Mood)
	if m == "" {
		m = "UNKNOWN"
	}
	mo := string(snap.Motion)
	if mo == "" {
		mo = "UNKNOWN"
	}

	inner := StatusInner{
		Phase:         string(snap.Phase),
		Mood:          m,
		Hunger:        snap.Hunger,
		Motion:        mo,
		NoveltyScore:  snap.NoveltyScore,
		NewLastScan:   snap.NewLastScan,
		Recent12h:     snap.Recent12h,
		MacToday:      snap.MacToday,
		MacTotal:      snap.MacTotal,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			StatePath:   snap.Config.StatePath,
		},
	}

	if snap.Phase == PhaseEgg {
		inner.Egg = &EggJSON{
			ProgressPercent: snap.Egg.ProgressPercent,
			RemainingMs:     snap.Egg.RemainingMs,
			MacCount:        snap.Egg.MacCount,
			RandRatio:       snap.Egg.RandRatio,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
