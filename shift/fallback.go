package shift

import "time"

// Session names produced by Classify.
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
	SessionNight     = "night"
)

// Classify maps a timestamp to a session name from its hour alone:
// [06:00, 12:00) is morning, [12:00, 18:00) is afternoon, anything else is
// night. It is used whenever the session directory cannot answer.
func Classify(t time.Time) string {
	return classifyHour(t.Hour())
}

func classifyHour(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return SessionMorning
	case hour >= 12 && hour < 18:
		return SessionAfternoon
	default:
		return SessionNight
	}
}
