package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dwrenn/soundbridge-core/internal/audio"
	"github.com/dwrenn/soundbridge-core/internal/bridges/knx"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/config"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/logging"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/mqtt"
)

// Lifecycle states. Stopped is terminal: a disposed coordinator cannot
// be restarted.
const (
	stateNotStarted int32 = iota
	stateStarted
	stateStopped
)

// statusQoS is the QoS level for state publications.
const statusQoS = 1

// Playback status strings published to MQTT.
const (
	statusPlaying = "playing"
	statusStopped = "stopped"
	statusPaused  = "paused"
	statusUnknown = "unknown"
)

// Deps bundles the coordinator's collaborators. Enabled flags in Config
// gate which legs are attempted; a disabled protocol's client may be
// nil.
type Deps struct {
	Config       *config.Config
	AudioServer  AudioServer
	MessageBus   MessageBus
	BuildingBus  BuildingBus
	MediaLibrary MediaLibrary
	Clients      audio.ClientRepository
	Zones        audio.ZoneRepository
	Logger       *logging.Logger
	Telemetry    Telemetry
}

// Coordinator owns the fan-out/synchronization algorithm, debounce
// state, lifecycle, and health aggregation.
//
// All public methods are safe for concurrent use. Synchronization calls
// for different targets proceed in parallel; the debounce map is the
// only shared mutable state and is guarded per key.
type Coordinator struct {
	cfg      *config.Config
	audioSrv AudioServer
	bus      MessageBus
	building BuildingBus
	library  MediaLibrary
	clients  audio.ClientRepository
	zones    audio.ZoneRepository
	logger   *logging.Logger
	tel      Telemetry

	topics   mqtt.Topics
	debounce *debouncer

	state   atomic.Int32
	stateMu sync.Mutex // serializes Start/Stop transitions

	// subscriptions tracks command topics subscribed during Start so
	// Stop can unsubscribe them.
	subscriptions []string
}

// New creates a coordinator in the NotStarted state.
func New(deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Coordinator{
		cfg:      deps.Config,
		audioSrv: deps.AudioServer,
		bus:      deps.MessageBus,
		building: deps.BuildingBus,
		library:  deps.MediaLibrary,
		clients:  deps.Clients,
		zones:    deps.Zones,
		logger:   logger,
		tel:      deps.Telemetry,
		debounce: newDebouncer(deps.Config.GetDebounceWindow()),
	}
}

// Start transitions the coordinator to Started. Idempotent: a second
// call returns success without repeating subscription setup.
//
// Command-topic subscription failures are logged as warnings but do not
// fail startup; protocols that did come up remain usable. The initial
// state resync against the audio server is best-effort.
func (c *Coordinator) Start(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	switch c.state.Load() {
	case stateStarted:
		return nil
	case stateStopped:
		return ErrDisposed
	}

	if c.cfg.MQTT.Enabled && c.bus != nil {
		c.subscribeCommands()
	}

	if c.cfg.Snapcast.Enabled && c.audioSrv != nil {
		c.resyncFromAudioServer(ctx)
	}

	c.state.Store(stateStarted)
	c.logger.Info("coordinator started",
		"snapcast", c.cfg.Snapcast.Enabled,
		"mqtt", c.cfg.MQTT.Enabled,
		"knx", c.cfg.KNX.Enabled,
		"subsonic", c.cfg.Subsonic.Enabled,
	)
	return nil
}

// Stop transitions the coordinator to Stopped and releases command
// subscriptions. Idempotent; stopping a never-started coordinator
// succeeds. Stopped is terminal.
func (c *Coordinator) Stop() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state.Load() == stateStopped {
		return nil
	}

	for _, topic := range c.subscriptions {
		if err := c.bus.Unsubscribe(topic); err != nil {
			c.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
	c.subscriptions = nil

	c.state.Store(stateStopped)
	c.logger.Info("coordinator stopped")
	return nil
}

// checkStarted gates every synchronization entry point.
func (c *Coordinator) checkStarted() error {
	switch c.state.Load() {
	case stateStarted:
		return nil
	case stateStopped:
		return ErrDisposed
	default:
		return ErrNotStarted
	}
}

// leg is one downstream protocol call within a fan-out.
type leg struct {
	protocol Protocol
	call     func(ctx context.Context) error
}

// fanOut issues all legs concurrently and aggregates the outcome.
// Panics in a leg are recovered and counted as that leg's failure.
// Context cancellation surfaces as a cancellation error, not a partial
// failure.
func (c *Coordinator) fanOut(ctx context.Context, operation, target string, source Protocol, legs []leg) error {
	if len(legs) == 0 {
		return nil
	}

	results := make([]error, len(legs))
	var wg sync.WaitGroup
	for i, l := range legs {
		wg.Add(1)
		go func(i int, l leg) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = fmt.Errorf("%s leg panic: %v", l.protocol, r)
				}
			}()
			results[i] = l.call(ctx)
		}(i, l)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s sync cancelled: %w", operation, err)
	}

	var failed []Protocol
	for i, err := range results {
		if err != nil {
			failed = append(failed, legs[i].protocol)
			c.logger.Error("downstream sync failed",
				"operation", operation,
				"target", target,
				"protocol", legs[i].protocol,
				"error", err,
			)
		}
	}

	if c.tel != nil {
		c.tel.RecordSyncEvent(operation, target, string(source), len(legs), len(failed))
	}

	if len(failed) > 0 {
		return &PartialSyncError{Attempted: len(legs), Failed: failed}
	}
	return nil
}

// SynchronizeVolumeChange propagates a client volume change to every
// enabled protocol except the source.
//
// The KNX leg addresses the client's zone volume group address and is
// skipped when the client has no zone or the zone has no address; a
// missing zone never fails the call. Bursts for the same client within
// the debounce window collapse into a success-shaped no-op.
func (c *Coordinator) SynchronizeVolumeChange(ctx context.Context, clientID string, volume int, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}
	if err := validateVolume(volume); err != nil {
		return err
	}

	client, err := c.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, audio.ErrClientNotFound) {
			return fmt.Errorf("Client with ID %s not found", clientID)
		}
		c.logger.Error("volume sync: client lookup failed", "client_id", clientID, "error", err)
		return fmt.Errorf("Volume sync error: %w", err)
	}

	zone := c.resolveZone(ctx, client.ZoneID)

	if !c.debounce.accept(opVolumeSync, clientID) {
		c.recordDebounce(opVolumeSync, clientID)
		return nil
	}

	var legs []leg
	if c.cfg.Snapcast.Enabled && source != ProtocolSnapcast {
		legs = append(legs, leg{ProtocolSnapcast, func(ctx context.Context) error {
			return c.audioSrv.SetClientVolume(ctx, clientID, volume)
		}})
	}
	if ga := c.knxVolumeAddress(client, zone); c.cfg.KNX.Enabled && source != ProtocolKNX && ga != "" {
		legs = append(legs, leg{ProtocolKNX, func(ctx context.Context) error {
			return c.sendKNXVolume(ctx, ga, volume)
		}})
	}
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.ClientVolume(clientID), []byte(strconv.Itoa(volume)), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, opVolumeSync, clientID, source, legs)
}

// SynchronizeZoneVolumeChange mirrors volume synchronization at zone
// granularity: MQTT zone status topic and KNX zone group address,
// excluding the source. Snapcast has no zone-level volume call.
func (c *Coordinator) SynchronizeZoneVolumeChange(ctx context.Context, zoneID string, volume int, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}
	if err := validateVolume(volume); err != nil {
		return err
	}

	zone, err := c.zones.GetByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, audio.ErrZoneNotFound) {
			return fmt.Errorf("Zone with ID %s not found", zoneID)
		}
		c.logger.Error("zone volume sync: zone lookup failed", "zone_id", zoneID, "error", err)
		return fmt.Errorf("Zone volume sync error: %w", err)
	}

	if !c.debounce.accept(opZoneVolumeSync, zoneID) {
		c.recordDebounce(opZoneVolumeSync, zoneID)
		return nil
	}

	var legs []leg
	if c.cfg.KNX.Enabled && source != ProtocolKNX && zone.KNXVolumeGA != "" {
		ga := zone.KNXVolumeGA
		legs = append(legs, leg{ProtocolKNX, func(ctx context.Context) error {
			return c.sendKNXVolume(ctx, ga, volume)
		}})
	}
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.ZoneVolume(zoneID), []byte(strconv.Itoa(volume)), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, opZoneVolumeSync, zoneID, source, legs)
}

// SynchronizeZoneMuteChange mirrors zone volume synchronization for the
// mute datapoint: MQTT zone mute topic and the zone's KNX mute group
// address, excluding the source.
func (c *Coordinator) SynchronizeZoneMuteChange(ctx context.Context, zoneID string, muted bool, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}

	zone, err := c.zones.GetByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, audio.ErrZoneNotFound) {
			return fmt.Errorf("Zone with ID %s not found", zoneID)
		}
		c.logger.Error("zone mute sync: zone lookup failed", "zone_id", zoneID, "error", err)
		return fmt.Errorf("Zone mute sync error: %w", err)
	}

	if !c.debounce.accept(opZoneMuteSync, zoneID) {
		c.recordDebounce(opZoneMuteSync, zoneID)
		return nil
	}

	var legs []leg
	if c.cfg.KNX.Enabled && source != ProtocolKNX && zone.KNXMuteGA != "" {
		ga := zone.KNXMuteGA
		legs = append(legs, leg{ProtocolKNX, func(ctx context.Context) error {
			return c.sendKNXBoolean(ctx, ga, muted)
		}})
	}
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.ZoneMute(zoneID), []byte(strconv.FormatBool(muted)), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, opZoneMuteSync, zoneID, source, legs)
}

// SynchronizeMuteChange propagates a client mute change. Same shape as
// volume synchronization; the KNX leg uses the mute group address.
func (c *Coordinator) SynchronizeMuteChange(ctx context.Context, clientID string, muted bool, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}

	client, err := c.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, audio.ErrClientNotFound) {
			return fmt.Errorf("Client with ID %s not found", clientID)
		}
		c.logger.Error("mute sync: client lookup failed", "client_id", clientID, "error", err)
		return fmt.Errorf("Mute sync error: %w", err)
	}

	zone := c.resolveZone(ctx, client.ZoneID)

	if !c.debounce.accept(opMuteSync, clientID) {
		c.recordDebounce(opMuteSync, clientID)
		return nil
	}

	var legs []leg
	if c.cfg.Snapcast.Enabled && source != ProtocolSnapcast {
		legs = append(legs, leg{ProtocolSnapcast, func(ctx context.Context) error {
			return c.audioSrv.SetClientMute(ctx, clientID, muted)
		}})
	}
	if ga := c.knxMuteAddress(client, zone); c.cfg.KNX.Enabled && source != ProtocolKNX && ga != "" {
		legs = append(legs, leg{ProtocolKNX, func(ctx context.Context) error {
			return c.sendKNXBoolean(ctx, ga, muted)
		}})
	}
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.ClientMute(clientID), []byte(strconv.FormatBool(muted)), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, opMuteSync, clientID, source, legs)
}

// SynchronizePlaybackCommand maps a transport command to a canonical
// status string and publishes it to the stream's MQTT status topic.
// Without a stream ID the command cannot be attributed and the call
// succeeds without a downstream call.
func (c *Coordinator) SynchronizePlaybackCommand(ctx context.Context, command, streamID string, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}

	status := mapPlaybackCommand(command)

	if streamID == "" {
		return nil
	}

	var legs []leg
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.StreamStatus(streamID), []byte(status), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, "playback", streamID, source, legs)
}

// mapPlaybackCommand translates a transport-level command to its
// canonical status string.
func mapPlaybackCommand(command string) string {
	switch command {
	case "PLAY":
		return statusPlaying
	case "STOP":
		return statusStopped
	case "PAUSE":
		return statusPaused
	default:
		return statusUnknown
	}
}

// SynchronizeStreamAssignment forwards a group-to-stream assignment to
// the audio server. When the audio server is itself the source it
// already holds the authoritative state and the call is a no-op
// success.
func (c *Coordinator) SynchronizeStreamAssignment(ctx context.Context, groupID, streamID string, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}

	if source == ProtocolSnapcast {
		return nil
	}

	var legs []leg
	if c.cfg.Snapcast.Enabled {
		legs = append(legs, leg{ProtocolSnapcast, func(ctx context.Context) error {
			return c.audioSrv.SetGroupStream(ctx, groupID, streamID)
		}})
	}

	return c.fanOut(ctx, "stream_assignment", groupID, source, legs)
}

// SynchronizeClientStatus publishes client connectivity to the MQTT
// status topic. Connectivity is sourced from the audio server's
// supervisory channel, so this is a single-leg operation.
func (c *Coordinator) SynchronizeClientStatus(ctx context.Context, clientID string, connected bool, source Protocol) error {
	if err := c.checkStarted(); err != nil {
		return err
	}

	var legs []leg
	if c.cfg.MQTT.Enabled && source != ProtocolMQTT {
		legs = append(legs, leg{ProtocolMQTT, func(context.Context) error {
			return c.bus.Publish(c.topics.ClientConnected(clientID), []byte(strconv.FormatBool(connected)), statusQoS, true)
		}})
	}

	return c.fanOut(ctx, "client_status", clientID, source, legs)
}

// GetProtocolHealth probes every enabled protocol and returns its
// availability. A probe that panics is logged and omitted from the
// result; disabled protocols are absent entirely. The map is
// recomputed on every call, never cached.
func (c *Coordinator) GetProtocolHealth(ctx context.Context) map[Protocol]bool {
	health := make(map[Protocol]bool)

	if c.cfg.Snapcast.Enabled {
		c.probe(health, ProtocolSnapcast, func() bool { return c.audioSrv.IsConnected() })
	}
	if c.cfg.MQTT.Enabled {
		c.probe(health, ProtocolMQTT, func() bool { return c.bus.IsConnected() })
	}
	if c.cfg.KNX.Enabled {
		c.probe(health, ProtocolKNX, func() bool { return c.building.IsConnected() })
	}
	if c.cfg.Subsonic.Enabled {
		c.probe(health, ProtocolSubsonic, func() bool { return c.library.IsAvailable(ctx) })
	}

	return health
}

// probe runs one availability check with panic recovery. On panic the
// protocol is omitted from the map rather than reported unhealthy.
func (c *Coordinator) probe(health map[Protocol]bool, protocol Protocol, fn func() bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Error checking protocol health", "protocol", protocol, "panic", r)
		}
	}()

	available := fn()
	health[protocol] = available

	if c.tel != nil {
		c.tel.RecordProtocolHealth(string(protocol), available)
	}
}

// resolveZone looks up a client's zone, tolerating absence: a missing
// zone only disables the KNX leg, it never fails the synchronization.
func (c *Coordinator) resolveZone(ctx context.Context, zoneID string) *audio.Zone {
	if zoneID == "" {
		return nil
	}

	zone, err := c.zones.GetByID(ctx, zoneID)
	if err != nil {
		if !errors.Is(err, audio.ErrZoneNotFound) {
			c.logger.Warn("zone lookup failed, skipping KNX leg", "zone_id", zoneID, "error", err)
		}
		return nil
	}
	return zone
}

// knxVolumeAddress picks the volume group address for a client's KNX
// leg: the client's own mapping wins, the zone's is the fallback.
func (c *Coordinator) knxVolumeAddress(client *audio.Client, zone *audio.Zone) string {
	if client.KNXVolumeGA != "" {
		return client.KNXVolumeGA
	}
	if zone != nil {
		return zone.KNXVolumeGA
	}
	return ""
}

// knxMuteAddress mirrors knxVolumeAddress for the mute datapoint.
func (c *Coordinator) knxMuteAddress(client *audio.Client, zone *audio.Zone) string {
	if client.KNXMuteGA != "" {
		return client.KNXMuteGA
	}
	if zone != nil {
		return zone.KNXMuteGA
	}
	return ""
}

// sendKNXVolume parses the group address and writes the volume. A bad
// address counts as a KNX leg failure.
func (c *Coordinator) sendKNXVolume(ctx context.Context, gaStr string, volume int) error {
	ga, err := knx.ParseGroupAddress(gaStr)
	if err != nil {
		return err
	}
	return c.building.SendVolumeCommand(ctx, ga, volume)
}

// sendKNXBoolean parses the group address and writes a boolean value.
func (c *Coordinator) sendKNXBoolean(ctx context.Context, gaStr string, value bool) error {
	ga, err := knx.ParseGroupAddress(gaStr)
	if err != nil {
		return err
	}
	return c.building.SendBooleanCommand(ctx, ga, value)
}

// validateVolume rejects volumes outside the 0-100 range before any
// downstream leg can see them.
func validateVolume(volume int) error {
	if volume < audio.MinVolume || volume > audio.MaxVolume {
		return fmt.Errorf("%w: must be %d-%d, got %d", ErrInvalidVolume, audio.MinVolume, audio.MaxVolume, volume)
	}
	return nil
}

func (c *Coordinator) recordDebounce(operation, target string) {
	if c.tel != nil {
		c.tel.RecordDebounce(operation, target)
	}
}
