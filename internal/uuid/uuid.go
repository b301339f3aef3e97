// Package uuid generates record identifiers.
package uuid

import "github.com/google/uuid"

// New returns a time-ordered (version 7) UUID string, so identifiers created
// later sort after earlier ones.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}
