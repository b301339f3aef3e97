package directory

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hris-labs/shiftgate/shift"
)

// SessionPayload is the wire shape of one session in a directory response.
type SessionPayload struct {
	ID          int64   `json:"id"`
	SessionName string  `json:"session_name"`
	TimeIn      string  `json:"time_in"`
	TimeOut     string  `json:"time_out"`
	LateTime    *string `json:"late_time"`
}

// Session converts the payload to a shift.Session. An empty late_time is
// treated the same as null.
func (p SessionPayload) Session() (shift.Session, error) {
	start, err := shift.ParseTimeOfDay(p.TimeIn)
	if err != nil {
		return shift.Session{}, fmt.Errorf("session %d time_in: %w", p.ID, err)
	}
	end, err := shift.ParseTimeOfDay(p.TimeOut)
	if err != nil {
		return shift.Session{}, fmt.Errorf("session %d time_out: %w", p.ID, err)
	}
	s := shift.Session{
		ID:    p.ID,
		Name:  p.SessionName,
		Start: start,
		End:   end,
	}
	if p.LateTime != nil && strings.TrimSpace(*p.LateTime) != "" {
		d, err := shift.ParseClockDuration(*p.LateTime)
		if err != nil {
			return shift.Session{}, fmt.Errorf("session %d late_time: %w", p.ID, err)
		}
		s.LateThreshold = &d
	}
	if err := s.Validate(); err != nil {
		return shift.Session{}, err
	}
	return s, nil
}

// FromSession converts a shift.Session to its wire shape.
func FromSession(s shift.Session) SessionPayload {
	p := SessionPayload{
		ID:          s.ID,
		SessionName: s.Name,
		TimeIn:      s.Start.String(),
		TimeOut:     s.End.String(),
	}
	if s.LateThreshold != nil {
		late := shift.FormatClockDuration(*s.LateThreshold)
		p.LateTime = &late
	}
	return p
}

// FromSessions converts a list, preserving order. The result is never nil so
// it encodes as a JSON array.
func FromSessions(sessions []shift.Session) []SessionPayload {
	out := make([]SessionPayload, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, FromSession(s))
	}
	return out
}

// DecodeSessions parses a directory response body. Any malformed entry fails
// the whole payload.
func DecodeSessions(r io.Reader) ([]shift.Session, error) {
	var payload []SessionPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding sessions: %w", err)
	}
	sessions := make([]shift.Session, 0, len(payload))
	for _, p := range payload {
		s, err := p.Session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
