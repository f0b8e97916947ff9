// Package idgen mints identifiers, adapted from the teacher's
// utils/random_util.go (GetUUID) down to the one generator this module
// actually needs: session and context-activation-scope correlation ids.
package idgen

import "github.com/google/uuid"

// New returns a fresh random identifier suitable for log correlation.
func New() string {
	return uuid.NewString()
}
