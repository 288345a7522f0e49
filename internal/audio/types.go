package audio

import (
	"fmt"
	"time"
)

// Volume bounds. Volumes are integer percentages throughout.
const (
	MinVolume = 0
	MaxVolume = 100
)

// Client is an audio endpoint (a Snapcast client) known to the system.
//
// The KNX group addresses are optional per-client mappings; an empty
// string means the client has no KNX representation for that datapoint
// and the KNX leg is skipped for it.
type Client struct {
	// ID is the Snapcast client identifier (typically the MAC address).
	ID string

	// Name is the human-readable client name.
	Name string

	// Host is the hostname the client runs on.
	Host string

	// Volume is the last known volume percentage (0-100).
	Volume int

	// Muted is the last known mute state.
	Muted bool

	// Connected is the last known connectivity state.
	Connected bool

	// ZoneID is the zone this client belongs to, empty if unassigned.
	ZoneID string

	// KNXVolumeGA is the group address for volume (DPT 5.001), empty if
	// unmapped.
	KNXVolumeGA string

	// KNXMuteGA is the group address for mute (DPT 1.001), empty if
	// unmapped.
	KNXMuteGA string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the client's fields.
func (c *Client) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidClient)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidClient)
	}
	if c.Volume < MinVolume || c.Volume > MaxVolume {
		return fmt.Errorf("%w: volume must be %d-%d, got %d", ErrInvalidClient, MinVolume, MaxVolume, c.Volume)
	}
	return nil
}

// Zone is a room-level grouping of clients playing one stream. A zone
// maps 1:1 onto a Snapcast group; the zone ID is the group ID.
type Zone struct {
	// ID is the zone identifier (the Snapcast group ID).
	ID string

	// Name is the human-readable zone name.
	Name string

	// Volume is the last known zone volume percentage (0-100).
	Volume int

	// Muted is the last known zone mute state.
	Muted bool

	// KNXVolumeGA is the group address for zone volume (DPT 5.001),
	// empty if unmapped.
	KNXVolumeGA string

	// KNXMuteGA is the group address for zone mute (DPT 1.001), empty
	// if unmapped.
	KNXMuteGA string

	// StreamID is the stream currently assigned to the zone, empty if
	// none.
	StreamID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the zone's fields.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidZone)
	}
	if z.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidZone)
	}
	if z.Volume < MinVolume || z.Volume > MaxVolume {
		return fmt.Errorf("%w: volume must be %d-%d, got %d", ErrInvalidZone, MinVolume, MaxVolume, z.Volume)
	}
	return nil
}
