package bmcsim

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fixture describes a simulated BMC.
type Fixture struct {
	SDRVersion    uint8    `yaml:"sdr_version"`    // The default is 0x51
	SDRRepository *bool    `yaml:"sdr_repository"` // The default is true
	LastAddTime   uint32   `yaml:"last_add_time"`
	Records       []Record `yaml:"records"`
	Sensors       []Sensor `yaml:"sensors"`
	Faults        Faults   `yaml:"faults"`
}

// Record holds a whole SDR, header included, as hex. Whitespace is ignored.
type Record struct {
	Name string `yaml:"name"`
	Data string `yaml:"data"`
}

func (r *Record) bytes() ([]byte, error) {
	s := strings.Join(strings.Fields(r.Data), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "record %q", r.Name)
	}
	return b, nil
}

// Sensor is the reading state of one sensor number.
type Sensor struct {
	Number           uint8   `yaml:"number"`
	Reading          uint8   `yaml:"reading"`
	UpdateInProgress bool    `yaml:"update_in_progress"`
	States           []uint8 `yaml:"states"` // Up to two state bytes
}

// Faults injected into Get SDR responses.
type Faults struct {
	MaxReadBytes           int `yaml:"max_read_bytes"`           // Longer reads fail with "cannot return number of requested data bytes"
	CancelReservationEvery int `yaml:"cancel_reservation_every"` // Every Nth Get SDR cancels the reservation
	Busy                   int `yaml:"busy"`                     // The first N Get SDR fail with "response could not be provided"
}

// Parses a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	f := &Fixture{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "parse fixture")
	}
	return f, nil
}

// Loads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture")
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	return f, nil
}
