package audio

import "github.com/google/uuid"

// GenerateID creates a new unique identifier for a zone.
//
// Client IDs are never generated; they come from the Snapcast server
// (typically the client's MAC address). Zones created ahead of their
// Snapcast group get a UUID until they are bound to a group.
func GenerateID() string {
	return uuid.New().String()
}
