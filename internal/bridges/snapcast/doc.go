// Package snapcast provides the Snapcast leg of the coordinator.
//
// The client speaks Snapcast's JSON-RPC 2.0 control protocol over a
// plain TCP connection (default port 1705, newline-delimited messages).
// Requests are correlated to responses by id; server notifications
// (volume changes, client connect/disconnect, stream reassignment) are
// dispatched to registered callbacks so the coordinator can fan them
// out to the other protocols.
//
// Connection loss triggers automatic reconnection with exponential
// backoff until Close is called.
package snapcast
