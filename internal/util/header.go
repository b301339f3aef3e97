package util

import "strings"

// SplitHeader splits a configured "Name: Value" line. ok is false when the
// line has no colon or an empty name.
func SplitHeader(line string) (name, value string, ok bool) {
	name, value, found := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}
