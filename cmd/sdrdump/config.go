package main

import (
	"os"
	"time"

	"github.com/k-sone/ipmisdr"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config file of sdrdump. Zero values fall back to the client defaults.
type config struct {
	Fixture            string        `yaml:"fixture"`
	HeaderAttempts     int           `yaml:"header_attempts"`
	BodyAttempts       int           `yaml:"body_attempts"`
	ReadBytes          uint8         `yaml:"read_bytes"`
	ReadBytesStep      uint8         `yaml:"read_bytes_step"`
	BackoffUnit        time.Duration `yaml:"backoff_unit"`
	ReservationBackoff time.Duration `yaml:"reservation_backoff"`
	RequestRate        float64       `yaml:"request_rate"`
}

func loadConfig(path string) (*config, error) {
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func (c *config) arguments() ipmisdr.Arguments {
	return ipmisdr.Arguments{
		HeaderAttempts:     c.HeaderAttempts,
		BodyAttempts:       c.BodyAttempts,
		ReadBytes:          c.ReadBytes,
		ReadBytesStep:      c.ReadBytesStep,
		BackoffUnit:        c.BackoffUnit,
		ReservationBackoff: c.ReservationBackoff,
		RequestRate:        rate.Limit(c.RequestRate),
	}
}
