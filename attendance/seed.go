package attendance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hris-labs/shiftgate/directory"
	"github.com/hris-labs/shiftgate/shift"
)

// Seed is a YAML file of session definitions imported with ReplaceAll.
//
//	sessions:
//	  - session_name: morning
//	    time_in: "07:00"
//	    time_out: "12:00"
//	    late_time: "00:15:00"
type Seed struct {
	Sessions []SeedSession `yaml:"sessions"`
}

// SeedSession mirrors the directory wire format. ID is optional.
type SeedSession struct {
	ID          int64   `yaml:"id,omitempty"`
	SessionName string  `yaml:"session_name"`
	TimeIn      string  `yaml:"time_in"`
	TimeOut     string  `yaml:"time_out"`
	LateTime    *string `yaml:"late_time,omitempty"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) ([]shift.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	sessions, err := ParseSeed(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sessions, nil
}

// ParseSeed decodes a seed document. Unknown fields are rejected.
func ParseSeed(r io.Reader) ([]shift.Session, error) {
	var seed Seed
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return []shift.Session{}, nil
		}
		return nil, fmt.Errorf("parsing seed: %w", err)
	}

	sessions := make([]shift.Session, 0, len(seed.Sessions))
	for i, s := range seed.Sessions {
		sess, err := directory.SessionPayload{
			ID:          s.ID,
			SessionName: s.SessionName,
			TimeIn:      s.TimeIn,
			TimeOut:     s.TimeOut,
			LateTime:    s.LateTime,
		}.Session()
		if err != nil {
			return nil, fmt.Errorf("sessions[%d]: %w", i, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
