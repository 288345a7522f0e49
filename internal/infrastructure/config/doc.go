// Package config handles loading and validation of SoundBridge Core configuration.
//
// Configuration is loaded from a YAML file with environment variable overrides.
// The loading order is: defaults → YAML file → environment variables.
//
// Environment variables follow the pattern SOUNDBRIDGE_SECTION_KEY, for
// example SOUNDBRIDGE_MQTT_HOST or SOUNDBRIDGE_SUBSONIC_PASSWORD.
//
// Per-protocol enabled flags (mqtt.enabled, snapcast.enabled, knx.enabled,
// subsonic.enabled) drive which fan-out legs the coordinator attempts and
// which protocols appear in health aggregation.
package config
