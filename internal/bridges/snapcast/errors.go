package snapcast

import "errors"

// Domain errors for the Snapcast bridge package.
var (
	// ErrNotConnected is returned when an operation requires a connection
	// but the client is not connected to the Snapcast server.
	ErrNotConnected = errors.New("snapcast: not connected to server")

	// ErrConnectionFailed is returned when the connection to the server fails.
	ErrConnectionFailed = errors.New("snapcast: connection failed")

	// ErrRequestFailed is returned when the server rejects a request or
	// the request cannot be delivered.
	ErrRequestFailed = errors.New("snapcast: request failed")

	// ErrTimeout is returned when the server does not answer in time.
	ErrTimeout = errors.New("snapcast: request timed out")
)
