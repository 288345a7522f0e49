package audio

import "errors"

// Domain errors for the audio package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, audio.ErrClientNotFound) {
//	    // handle not found case
//	}
var (
	// ErrClientNotFound is returned when a client ID does not exist.
	ErrClientNotFound = errors.New("audio: client not found")

	// ErrClientExists is returned when creating a client with an ID that
	// already exists.
	ErrClientExists = errors.New("audio: client already exists")

	// ErrZoneNotFound is returned when a zone ID does not exist.
	ErrZoneNotFound = errors.New("audio: zone not found")

	// ErrZoneExists is returned when creating a zone with an ID that
	// already exists.
	ErrZoneExists = errors.New("audio: zone already exists")

	// ErrInvalidClient is returned when client validation fails.
	ErrInvalidClient = errors.New("audio: invalid client")

	// ErrInvalidZone is returned when zone validation fails.
	ErrInvalidZone = errors.New("audio: invalid zone")
)
