// Package subsonic provides the Subsonic leg of the coordinator.
//
// The coordinator only needs Subsonic for health aggregation and stream
// metadata, so the client is deliberately small: authenticated REST
// calls against the Subsonic API (rest/ping, rest/getMusicFolders)
// using the salted-token scheme introduced in API 1.13.0.
package subsonic
