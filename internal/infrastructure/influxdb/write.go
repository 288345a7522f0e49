package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordSyncEvent writes a single protocol synchronization event.
//
// This is the primary telemetry hook for the coordinator: one point per
// fan-out, tagged with the operation kind, target entity, and source
// protocol. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - operation: The synchronization kind (e.g., "volume", "mute", "playback")
//   - target: The client, zone, or stream identifier
//   - source: The protocol the change originated on
//   - attempted: Number of downstream legs attempted
//   - failed: Number of downstream legs that failed
//
// Example:
//
//	client.RecordSyncEvent("volume", "kitchen", "mqtt", 2, 0)
func (c *Client) RecordSyncEvent(operation, target, source string, attempted, failed int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sync_events",
		map[string]string{
			"operation": operation,
			"target":    target,
			"source":    source,
		},
		map[string]interface{}{
			"attempted": attempted,
			"failed":    failed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordDebounce writes a point recording a debounced (collapsed) call.
//
// One point per rejection lets burst behaviour be graphed against the
// accepted fan-outs in sync_events.
func (c *Client) RecordDebounce(operation, target string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sync_debounced",
		map[string]string{
			"operation": operation,
			"target":    target,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordProtocolHealth writes an availability sample for one protocol.
//
// Called from periodic health aggregation so protocol uptime can be
// tracked over time.
func (c *Client) RecordProtocolHealth(protocol string, available bool) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if available {
		value = 1
	}

	point := write.NewPoint(
		"protocol_health",
		map[string]string{
			"protocol": protocol,
		},
		map[string]interface{}{
			"available": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
