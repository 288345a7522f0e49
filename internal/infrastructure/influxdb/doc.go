// Package influxdb provides optional sync telemetry for SoundBridge Core.
//
// It wraps the InfluxDB v2 Go client with non-blocking, batched writes of
// coordinator synchronization events: one point per fan-out (tagged with
// operation, target, and source protocol), one per debounced call, and
// periodic protocol availability samples.
//
// The package is config-gated; when influxdb.enabled is false, Connect
// returns ErrDisabled and the coordinator runs without telemetry.
package influxdb
