package shift

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// ErrInvalidSession is returned when a session definition is malformed.
var ErrInvalidSession = errors.New("invalid session")

// Session is a named attendance window. When End is before Start the window
// spans midnight. A nil LateThreshold means lateness is never flagged.
type Session struct {
	ID            int64
	Name          string
	Start         TimeOfDay
	End           TimeOfDay
	LateThreshold *time.Duration
}

// Overnight reports whether the window wraps past midnight.
func (s Session) Overnight() bool {
	return s.Start > s.End
}

// Contains reports whether tod falls inside the window. Same-day windows are
// half-open [Start, End); a zero-width window (Start == End) never matches.
// This is the only containment test used by the engine.
func (s Session) Contains(tod TimeOfDay) bool {
	if s.Start <= s.End {
		return s.Start <= tod && tod < s.End
	}
	return tod >= s.Start || tod < s.End
}

// MatchesName compares name against the session name using Unicode case folding.
func (s Session) MatchesName(name string) bool {
	return FoldName(s.Name) == FoldName(name)
}

// LateInstant returns Start plus the late threshold, and false when no
// threshold is configured.
func (s Session) LateInstant() (TimeOfDay, bool) {
	if s.LateThreshold == nil {
		return 0, false
	}
	return s.Start.Add(*s.LateThreshold), true
}

// Validate checks the invariants a stored session must satisfy.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSession)
	}
	if s.Start < 0 || s.Start >= SecondsPerDay || s.End < 0 || s.End >= SecondsPerDay {
		return fmt.Errorf("%w: %s: time of day out of range", ErrInvalidSession, s.Name)
	}
	if s.LateThreshold != nil && *s.LateThreshold < 0 {
		return fmt.Errorf("%w: %s: negative late threshold", ErrInvalidSession, s.Name)
	}
	return nil
}

// FoldName normalises a session name for case-insensitive comparison.
// A Caser is stateful, so one is built per call.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// FindSession returns the first session in list order that contains tod.
func FindSession(sessions []Session, tod TimeOfDay) (Session, bool) {
	for _, s := range sessions {
		if s.Contains(tod) {
			return s, true
		}
	}
	return Session{}, false
}

// LookupSession returns the first session whose name matches name.
func LookupSession(sessions []Session, name string) (Session, bool) {
	for _, s := range sessions {
		if s.MatchesName(name) {
			return s, true
		}
	}
	return Session{}, false
}
