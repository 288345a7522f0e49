package coordinator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dwrenn/soundbridge-core/internal/bridges/knx"
	"github.com/dwrenn/soundbridge-core/internal/bridges/snapcast"
)

// AudioEventSource is the notification side of the audio server
// connection. BindAudioEvents registers coordinator callbacks here so
// server-originated changes fan out like any other source.
type AudioEventSource interface {
	SetOnClientVolumeChanged(callback func(clientID string, percent int, muted bool))
	SetOnClientConnect(callback func(client snapcast.ClientInfo))
	SetOnClientDisconnect(callback func(clientID string))
	SetOnGroupStreamChanged(callback func(groupID, streamID string))
}

// BindAudioEvents wires audio server notifications into the
// synchronization entry points with the audio server as source. Each
// notification is handled in its own goroutine so a slow downstream
// protocol never backs up the notification stream.
func (c *Coordinator) BindAudioEvents(src AudioEventSource) {
	src.SetOnClientVolumeChanged(func(clientID string, percent int, muted bool) {
		go func() {
			ctx := context.Background()
			if err := c.SynchronizeVolumeChange(ctx, clientID, percent, ProtocolSnapcast); err != nil {
				c.logger.Error("volume notification sync failed", "client_id", clientID, "error", err)
			}
			if err := c.SynchronizeMuteChange(ctx, clientID, muted, ProtocolSnapcast); err != nil {
				c.logger.Error("mute notification sync failed", "client_id", clientID, "error", err)
			}
		}()
	})

	src.SetOnClientConnect(func(client snapcast.ClientInfo) {
		go func() {
			if err := c.SynchronizeClientStatus(context.Background(), client.ID, true, ProtocolSnapcast); err != nil {
				c.logger.Error("connect notification sync failed", "client_id", client.ID, "error", err)
			}
		}()
	})

	src.SetOnClientDisconnect(func(clientID string) {
		go func() {
			if err := c.SynchronizeClientStatus(context.Background(), clientID, false, ProtocolSnapcast); err != nil {
				c.logger.Error("disconnect notification sync failed", "client_id", clientID, "error", err)
			}
		}()
	})

	src.SetOnGroupStreamChanged(func(groupID, streamID string) {
		go func() {
			if !c.cfg.MQTT.Enabled {
				return
			}
			if err := c.bus.Publish(c.topics.ZoneStream(groupID), []byte(streamID), statusQoS, true); err != nil {
				c.logger.Error("stream notification publish failed", "zone_id", groupID, "error", err)
			}
		}()
	})
}

// KNXEventSource is the notification side of the building bus
// connection. BindKNXEvents registers a telegram callback here so
// wall-switch writes fan out with the building bus as source.
type KNXEventSource interface {
	SetOnTelegram(callback func(knx.Telegram))
}

// BindKNXEvents wires inbound group telegrams into the synchronization
// entry points. The destination group address is reverse-mapped to the
// zone or client that carries it; zone mappings take precedence since
// they are the common configuration.
func (c *Coordinator) BindKNXEvents(src KNXEventSource) {
	src.SetOnTelegram(func(t knx.Telegram) {
		go c.handleTelegram(t)
	})
}

func (c *Coordinator) handleTelegram(t knx.Telegram) {
	if !t.IsWrite() {
		return
	}

	ctx := context.Background()
	ga := t.Destination.String()

	zones, err := c.zones.List(ctx)
	if err != nil {
		c.logger.Error("telegram handling: zone list failed", "error", err)
		return
	}
	for _, zone := range zones {
		switch ga {
		case zone.KNXVolumeGA:
			c.applyTelegramVolume(t, "zone", zone.ID, func(volume int) error {
				return c.SynchronizeZoneVolumeChange(ctx, zone.ID, volume, ProtocolKNX)
			})
			return
		case zone.KNXMuteGA:
			c.applyTelegramMute(t, "zone", zone.ID, func(muted bool) error {
				return c.SynchronizeZoneMuteChange(ctx, zone.ID, muted, ProtocolKNX)
			})
			return
		}
	}

	clients, err := c.clients.List(ctx)
	if err != nil {
		c.logger.Error("telegram handling: client list failed", "error", err)
		return
	}
	for _, client := range clients {
		switch ga {
		case client.KNXVolumeGA:
			c.applyTelegramVolume(t, "client", client.ID, func(volume int) error {
				return c.SynchronizeVolumeChange(ctx, client.ID, volume, ProtocolKNX)
			})
			return
		case client.KNXMuteGA:
			c.applyTelegramMute(t, "client", client.ID, func(muted bool) error {
				return c.SynchronizeMuteChange(ctx, client.ID, muted, ProtocolKNX)
			})
			return
		}
	}

	// Telegram for a group address nobody is mapped to; normal on a
	// shared bus.
	c.logger.Debug("unmapped group telegram ignored", "group_address", ga)
}

func (c *Coordinator) applyTelegramVolume(t knx.Telegram, kind, targetID string, sync func(volume int) error) {
	percent, err := knx.DecodeDPT5(t.Data)
	if err != nil {
		c.logger.Warn("telegram volume decode failed",
			"group_address", t.Destination, "target", kind+"/"+targetID, "error", err)
		return
	}
	if err := sync(int(math.Round(percent))); err != nil {
		c.logger.Error("telegram volume sync failed",
			"target", kind+"/"+targetID, "error", err)
	}
}

func (c *Coordinator) applyTelegramMute(t knx.Telegram, kind, targetID string, sync func(muted bool) error) {
	muted, err := knx.DecodeDPT1(t.Data)
	if err != nil {
		c.logger.Warn("telegram mute decode failed",
			"group_address", t.Destination, "target", kind+"/"+targetID, "error", err)
		return
	}
	if err := sync(muted); err != nil {
		c.logger.Error("telegram mute sync failed",
			"target", kind+"/"+targetID, "error", err)
	}
}

// subscribeCommands registers handlers for the inbound MQTT command
// hierarchy. Each failed subscription is logged and skipped; the
// coordinator starts with whatever subset succeeded.
func (c *Coordinator) subscribeCommands() {
	qos := byte(c.cfg.MQTT.QoS)

	subs := []struct {
		topic   string
		handler func(topic string, payload []byte) error
	}{
		{c.topics.AllClientVolumeCommands(), c.handleClientVolumeCommand},
		{c.topics.AllClientMuteCommands(), c.handleClientMuteCommand},
		{c.topics.AllZoneVolumeCommands(), c.handleZoneVolumeCommand},
		{c.topics.AllZoneMuteCommands(), c.handleZoneMuteCommand},
		{c.topics.AllZoneStreamCommands(), c.handleZoneStreamCommand},
		{c.topics.AllStreamCommands(), c.handleStreamCommand},
	}

	for _, s := range subs {
		if err := c.bus.Subscribe(s.topic, qos, s.handler); err != nil {
			c.logger.Warn("command subscription failed", "topic", s.topic, "error", err)
			continue
		}
		c.subscriptions = append(c.subscriptions, s.topic)
	}
}

// topicSegment extracts the identifier segment of a command topic,
// e.g. the client ID from soundbridge/client/{id}/volume/set.
func topicSegment(topic string, index int) (string, error) {
	parts := strings.Split(topic, "/")
	if index >= len(parts) || parts[index] == "" {
		return "", fmt.Errorf("malformed command topic %q", topic)
	}
	return parts[index], nil
}

func (c *Coordinator) handleClientVolumeCommand(topic string, payload []byte) error {
	clientID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	volume, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return fmt.Errorf("invalid volume payload %q on %s: %w", payload, topic, err)
	}
	return c.SynchronizeVolumeChange(context.Background(), clientID, volume, ProtocolMQTT)
}

func (c *Coordinator) handleClientMuteCommand(topic string, payload []byte) error {
	clientID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	muted, err := strconv.ParseBool(strings.TrimSpace(string(payload)))
	if err != nil {
		return fmt.Errorf("invalid mute payload %q on %s: %w", payload, topic, err)
	}
	return c.SynchronizeMuteChange(context.Background(), clientID, muted, ProtocolMQTT)
}

func (c *Coordinator) handleZoneVolumeCommand(topic string, payload []byte) error {
	zoneID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	volume, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return fmt.Errorf("invalid volume payload %q on %s: %w", payload, topic, err)
	}
	return c.SynchronizeZoneVolumeChange(context.Background(), zoneID, volume, ProtocolMQTT)
}

func (c *Coordinator) handleZoneMuteCommand(topic string, payload []byte) error {
	zoneID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	muted, err := strconv.ParseBool(strings.TrimSpace(string(payload)))
	if err != nil {
		return fmt.Errorf("invalid mute payload %q on %s: %w", payload, topic, err)
	}
	return c.SynchronizeZoneMuteChange(context.Background(), zoneID, muted, ProtocolMQTT)
}

func (c *Coordinator) handleZoneStreamCommand(topic string, payload []byte) error {
	zoneID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	streamID := strings.TrimSpace(string(payload))
	if streamID == "" {
		return fmt.Errorf("empty stream payload on %s", topic)
	}
	return c.SynchronizeStreamAssignment(context.Background(), zoneID, streamID, ProtocolMQTT)
}

func (c *Coordinator) handleStreamCommand(topic string, payload []byte) error {
	streamID, err := topicSegment(topic, 2)
	if err != nil {
		return err
	}
	command := strings.ToUpper(strings.TrimSpace(string(payload)))
	return c.SynchronizePlaybackCommand(context.Background(), command, streamID, ProtocolMQTT)
}

// resyncFromAudioServer publishes the audio server's full current state
// to the retained MQTT status topics. Run once at startup so the bus
// reflects reality after a restart; failures are logged, not fatal.
func (c *Coordinator) resyncFromAudioServer(ctx context.Context) {
	if !c.cfg.MQTT.Enabled || c.bus == nil {
		return
	}

	status, err := c.audioSrv.GetStatus(ctx)
	if err != nil {
		c.logger.Warn("startup resync skipped, audio server status unavailable", "error", err)
		return
	}

	publish := func(topic string, payload string) {
		if err := c.bus.Publish(topic, []byte(payload), statusQoS, true); err != nil {
			c.logger.Warn("resync publish failed", "topic", topic, "error", err)
		}
	}

	for _, group := range status.Server.Groups {
		publish(c.topics.ZoneStream(group.ID), group.StreamID)
		for _, client := range group.Clients {
			publish(c.topics.ClientVolume(client.ID), strconv.Itoa(client.Config.Volume.Percent))
			publish(c.topics.ClientMute(client.ID), strconv.FormatBool(client.Config.Volume.Muted))
			publish(c.topics.ClientConnected(client.ID), strconv.FormatBool(client.Connected))
		}
	}
	for _, stream := range status.Server.Streams {
		publish(c.topics.StreamStatus(stream.ID), stream.Status)
	}

	c.logger.Info("startup resync published",
		"zones", len(status.Server.Groups),
		"streams", len(status.Server.Streams),
	)
}
