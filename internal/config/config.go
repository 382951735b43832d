// Package config loads daemon settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds daemon settings. Values come from environment variables, with
// an optional .env file loaded first. Command-line flags take precedence and
// use these values as their defaults.
type Config struct {
	Broker    string        `env:"MACAGOTCHI_BROKER" envDefault:"tcp://localhost:1883"`
	HTTPAddr  string        `env:"MACAGOTCHI_HTTP_ADDR" envDefault:":8080"`
	StatePath string        `env:"MACAGOTCHI_STATE_PATH" envDefault:"/var/lib/macagotchi/state.json"`
	Poll      time.Duration `env:"MACAGOTCHI_POLL" envDefault:"100ms"`
	Heartbeat time.Duration `env:"MACAGOTCHI_HEARTBEAT" envDefault:"15m"`
	Persist   time.Duration `env:"MACAGOTCHI_PERSIST" envDefault:"5m"`

	// Accelerometer sysfs device.
	IIODir   string  `env:"MACAGOTCHI_IIO_DIR" envDefault:"/sys/bus/iio/devices/iio:device0"`
	IIOScale float64 `env:"MACAGOTCHI_IIO_SCALE" envDefault:"1.0"`

	// BCM pin numbers for the two buttons.
	PinBtn1 int `env:"MACAGOTCHI_PIN_BTN1" envDefault:"17"`
	PinBtn2 int `env:"MACAGOTCHI_PIN_BTN2" envDefault:"27"`

	// Path to a MAC replay file for running without a BLE radio.
	ScanReplay string `env:"MACAGOTCHI_SCAN_REPLAY" envDefault:""`

	LogLevel string `env:"MACAGOTCHI_LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file if present, then parses the environment.
func Load() (Config, error) {
	// Missing .env is fine; system environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
