package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SerialPort string
	BaudRate   int
	Backoff    time.Duration // wait between reconnect attempts
	Grace      time.Duration // post-connect window where input is dropped
	Freshness  time.Duration // pull-mode freshness window
}

const (
	defaultSerialPort = "/dev/ttyUSB0"
	defaultBaudRate   = 9600
	defaultBackoff    = 5 * time.Second
	defaultGrace      = 2 * time.Second
	defaultFreshness  = 2 * time.Second
)

func Load() Config {
	cfg := Config{
		SerialPort: defaultSerialPort,
		BaudRate:   defaultBaudRate,
		Backoff:    defaultBackoff,
		Grace:      defaultGrace,
		Freshness:  defaultFreshness,
	}

	if v := os.Getenv("SERIAL_PORT"); v != "" {
		cfg.SerialPort = v
	}
	if v := os.Getenv("BAUD_RATE"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			cfg.BaudRate = baud
		}
	}
	if v := os.Getenv("SERIAL_BACKOFF_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Backoff = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("SERIAL_GRACE_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Grace = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("UID_FRESHNESS_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Freshness = time.Duration(s) * time.Second
		}
	}

	return cfg
}
