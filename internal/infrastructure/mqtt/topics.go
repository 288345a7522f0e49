package mqtt

import "fmt"

// Topic prefixes for the SoundBridge MQTT hierarchy.
//
// Status topics are retained so late subscribers immediately see current
// state. Command topics are not retained — a command is an event, not state.
const (
	// TopicPrefix is the base for all SoundBridge topics.
	TopicPrefix = "soundbridge"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "soundbridge/system"
)

// Topics provides builders for SoundBridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.ClientVolume("kitchen")
//	// Returns: "soundbridge/client/kitchen/volume"
type Topics struct{}

// =============================================================================
// Client Status Topics (retained)
// =============================================================================

// ClientVolume returns the status topic for a client's volume.
//
// Example: soundbridge/client/kitchen/volume
func (Topics) ClientVolume(clientID string) string {
	return fmt.Sprintf("%s/client/%s/volume", TopicPrefix, clientID)
}

// ClientMute returns the status topic for a client's mute state.
//
// Example: soundbridge/client/kitchen/mute
func (Topics) ClientMute(clientID string) string {
	return fmt.Sprintf("%s/client/%s/mute", TopicPrefix, clientID)
}

// ClientConnected returns the status topic for a client's connectivity.
//
// Example: soundbridge/client/kitchen/connected
func (Topics) ClientConnected(clientID string) string {
	return fmt.Sprintf("%s/client/%s/connected", TopicPrefix, clientID)
}

// =============================================================================
// Zone Status Topics (retained)
// =============================================================================

// ZoneVolume returns the status topic for a zone's volume.
//
// Example: soundbridge/zone/living-room/volume
func (Topics) ZoneVolume(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/volume", TopicPrefix, zoneID)
}

// ZoneMute returns the status topic for a zone's mute state.
//
// Example: soundbridge/zone/living-room/mute
func (Topics) ZoneMute(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/mute", TopicPrefix, zoneID)
}

// ZoneStream returns the status topic for a zone's assigned stream.
//
// Example: soundbridge/zone/living-room/stream
func (Topics) ZoneStream(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/stream", TopicPrefix, zoneID)
}

// =============================================================================
// Stream Topics
// =============================================================================

// StreamStatus returns the status topic for a stream's playback state.
//
// Example: soundbridge/stream/spotify/status
func (Topics) StreamStatus(streamID string) string {
	return fmt.Sprintf("%s/stream/%s/status", TopicPrefix, streamID)
}

// StreamCommand returns the command topic for stream transport commands
// (PLAY, STOP, PAUSE).
//
// Example: soundbridge/stream/spotify/command
func (Topics) StreamCommand(streamID string) string {
	return fmt.Sprintf("%s/stream/%s/command", TopicPrefix, streamID)
}

// =============================================================================
// Command Topics (inbound, not retained)
// =============================================================================

// ClientVolumeSet returns the command topic for setting a client's volume.
//
// Example: soundbridge/client/kitchen/volume/set
func (Topics) ClientVolumeSet(clientID string) string {
	return fmt.Sprintf("%s/client/%s/volume/set", TopicPrefix, clientID)
}

// ClientMuteSet returns the command topic for setting a client's mute state.
//
// Example: soundbridge/client/kitchen/mute/set
func (Topics) ClientMuteSet(clientID string) string {
	return fmt.Sprintf("%s/client/%s/mute/set", TopicPrefix, clientID)
}

// ZoneVolumeSet returns the command topic for setting a zone's volume.
//
// Example: soundbridge/zone/living-room/volume/set
func (Topics) ZoneVolumeSet(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/volume/set", TopicPrefix, zoneID)
}

// ZoneMuteSet returns the command topic for setting a zone's mute state.
//
// Example: soundbridge/zone/living-room/mute/set
func (Topics) ZoneMuteSet(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/mute/set", TopicPrefix, zoneID)
}

// ZoneStreamSet returns the command topic for assigning a stream to a zone.
//
// Example: soundbridge/zone/living-room/stream/set
func (Topics) ZoneStreamSet(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/stream/set", TopicPrefix, zoneID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: soundbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllClientVolumeCommands returns a pattern matching all client volume commands.
//
// Pattern: soundbridge/client/+/volume/set
func (Topics) AllClientVolumeCommands() string {
	return fmt.Sprintf("%s/client/+/volume/set", TopicPrefix)
}

// AllClientMuteCommands returns a pattern matching all client mute commands.
//
// Pattern: soundbridge/client/+/mute/set
func (Topics) AllClientMuteCommands() string {
	return fmt.Sprintf("%s/client/+/mute/set", TopicPrefix)
}

// AllZoneVolumeCommands returns a pattern matching all zone volume commands.
//
// Pattern: soundbridge/zone/+/volume/set
func (Topics) AllZoneVolumeCommands() string {
	return fmt.Sprintf("%s/zone/+/volume/set", TopicPrefix)
}

// AllZoneMuteCommands returns a pattern matching all zone mute commands.
//
// Pattern: soundbridge/zone/+/mute/set
func (Topics) AllZoneMuteCommands() string {
	return fmt.Sprintf("%s/zone/+/mute/set", TopicPrefix)
}

// AllZoneStreamCommands returns a pattern matching all zone stream assignments.
//
// Pattern: soundbridge/zone/+/stream/set
func (Topics) AllZoneStreamCommands() string {
	return fmt.Sprintf("%s/zone/+/stream/set", TopicPrefix)
}

// AllStreamCommands returns a pattern matching all stream transport commands.
//
// Pattern: soundbridge/stream/+/command
func (Topics) AllStreamCommands() string {
	return fmt.Sprintf("%s/stream/+/command", TopicPrefix)
}

// AllTopics returns a pattern matching all SoundBridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: soundbridge/#
func (Topics) AllTopics() string {
	return "soundbridge/#"
}
