package coordinator

import (
	"context"

	"github.com/dwrenn/soundbridge-core/internal/bridges/knx"
	"github.com/dwrenn/soundbridge-core/internal/bridges/snapcast"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/mqtt"
)

// AudioServer is the Snapcast-facing surface the coordinator consumes.
// Implemented by snapcast.Client; mocked in tests.
type AudioServer interface {
	SetClientVolume(ctx context.Context, clientID string, percent int) error
	SetClientMute(ctx context.Context, clientID string, muted bool) error
	SetGroupStream(ctx context.Context, groupID, streamID string) error
	GetStatus(ctx context.Context) (*snapcast.ServerStatus, error)
	IsConnected() bool
}

// MessageBus is the MQTT-facing surface the coordinator consumes.
// Implemented by mqtt.Client; mocked in tests.
type MessageBus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// BuildingBus is the KNX-facing surface the coordinator consumes.
// Implemented by knx.Client; mocked in tests.
type BuildingBus interface {
	SendVolumeCommand(ctx context.Context, ga knx.GroupAddress, volume int) error
	SendBooleanCommand(ctx context.Context, ga knx.GroupAddress, value bool) error
	IsConnected() bool
}

// MediaLibrary is the Subsonic-facing surface the coordinator consumes.
// Implemented by subsonic.Client; mocked in tests. Only the
// availability probe is needed for health aggregation.
type MediaLibrary interface {
	IsAvailable(ctx context.Context) bool
}

// Telemetry receives sync metrics. Implemented by influxdb.Client; a
// nil Telemetry disables recording.
type Telemetry interface {
	RecordSyncEvent(operation, target, source string, attempted, failed int)
	RecordDebounce(operation, target string)
	RecordProtocolHealth(protocol string, available bool)
}
