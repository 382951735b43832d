// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/macagotchi/internal/mood"
	"github.com/sweeney/macagotchi/internal/motion"
)

// Topic is the MQTT topic for creature events.
const Topic = "pets/macagotchi/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "pets/macagotchi/system"

// EventType identifies the kind of creature event.
type EventType string

const (
	// EventMoodChange is published when the creature's mood transitions.
	EventMoodChange EventType = "MOOD_CHANGE"
	// EventHatched is published once when the egg hatches.
	EventHatched EventType = "HATCHED"
	// EventScan is published after each BLE scan completes.
	EventScan EventType = "SCAN"
)

// Event represents a creature event to publish.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	Mood         mood.Mood
	Hunger       int
	Motion       motion.State
	NoveltyScore int
	NewStable    uint32
	NewRandom    uint32
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a creature event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pet PetPayload `json:"pet"`
}

// PetPayload contains the creature event details.
type PetPayload struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	Mood         string `json:"mood"`
	Hunger       int    `json:"hunger"`
	Motion       string `json:"motion"`
	NoveltyScore int    `json:"novelty_score"`
	NewStable    uint32 `json:"new_stable"`
	NewRandom    uint32 `json:"new_random"`
}

// FormatPayload creates the JSON payload for a creature event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Pet: PetPayload{
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
			Event:        string(event.Type),
			Mood:         string(event.Mood),
			Hunger:       event.Hunger,
			Motion:       string(event.Motion),
			NoveltyScore: event.NoveltyScore,
			NewStable:    event.NewStable,
			NewRandom:    event.NewRandom,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
