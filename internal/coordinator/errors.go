package coordinator

import (
	"errors"
	"fmt"
	"strings"
)

// Lifecycle errors. These are checked before any other validation and
// carry distinct, user-visible messages.
var (
	// ErrNotStarted is returned by synchronization calls before Start.
	ErrNotStarted = errors.New("coordinator not started")

	// ErrDisposed is returned by synchronization calls after Stop. A
	// stopped coordinator cannot be restarted.
	ErrDisposed = errors.New("coordinator disposed")

	// ErrInvalidVolume is returned when a synchronization call carries
	// a volume outside the 0-100 range. Range checking happens at the
	// entry point so an out-of-range value is never published to a
	// retained status topic.
	ErrInvalidVolume = errors.New("volume out of range")
)

// PartialSyncError reports a fan-out where one or more downstream legs
// failed. It is the expected failure shape for multi-protocol fan-out,
// not an exceptional path.
type PartialSyncError struct {
	// Attempted is the number of downstream legs attempted.
	Attempted int

	// Failed names the protocols whose leg failed.
	Failed []Protocol
}

// Error formats the partial failure, e.g.
// "Partial sync failure: 1/2 failed (KNX)".
func (e *PartialSyncError) Error() string {
	names := make([]string, len(e.Failed))
	for i, p := range e.Failed {
		names[i] = string(p)
	}
	return fmt.Sprintf("Partial sync failure: %d/%d failed (%s)",
		len(e.Failed), e.Attempted, strings.Join(names, ", "))
}
