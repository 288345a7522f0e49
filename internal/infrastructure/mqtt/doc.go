// Package mqtt provides the MQTT client for SoundBridge Core.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection with subscription restoration, Last Will and Testament
// for offline detection, and a topic builder for the SoundBridge
// topic hierarchy.
//
// # Topic Hierarchy
//
// Status topics (retained):
//
//	soundbridge/client/{id}/volume
//	soundbridge/client/{id}/mute
//	soundbridge/client/{id}/connected
//	soundbridge/zone/{id}/volume
//	soundbridge/zone/{id}/mute
//	soundbridge/stream/{id}/status
//
// Command topics (inbound, not retained):
//
//	soundbridge/client/{id}/volume/set
//	soundbridge/client/{id}/mute/set
//	soundbridge/zone/{id}/volume/set
//	soundbridge/zone/{id}/mute/set
//
// System:
//
//	soundbridge/system/status   (online/offline, LWT)
//
// # Thread Safety
//
// All exported methods are safe for concurrent use from multiple goroutines.
// Subscriptions are tracked and automatically restored on reconnection.
package mqtt
