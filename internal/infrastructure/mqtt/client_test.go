package mqtt

import (
	"strings"
	"testing"

	"github.com/dwrenn/soundbridge-core/internal/infrastructure/config"
)

func testMQTTConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "test-client",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testMQTTConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.ClientID != "test-client" {
		t.Errorf("ClientID = %q, want test-client", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
	if !opts.CleanSession {
		t.Error("CleanSession should be enabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig should be set when TLS is enabled")
	}
}

func TestBuildClientOptions_Auth(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Auth.Username = "user"
	cfg.Auth.Password = "pass"
	opts := buildClientOptions(cfg)

	if opts.Username != "user" {
		t.Errorf("Username = %q, want user", opts.Username)
	}
	if opts.Password != "pass" {
		t.Errorf("Password not carried through")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testMQTTConfig()
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if !opts.WillEnabled {
		t.Fatal("LWT should be enabled")
	}
	if opts.WillTopic != "soundbridge/system/status" {
		t.Errorf("WillTopic = %q, want soundbridge/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("LWT should be retained")
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("LWT payload lacks offline status: %s", payload)
	}
	if !strings.Contains(payload, `"client_id":"test-client"`) {
		t.Errorf("LWT payload lacks client_id: %s", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("c1")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("c1")
	if !strings.Contains(offline, `"status":"offline"`) {
		t.Errorf("offline payload = %s", offline)
	}
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload should mark graceful shutdown: %s", offline)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{
		cfg:           testMQTTConfig(),
		subscriptions: make(map[string]subscription),
	}

	// Direct map manipulation mirrors what Subscribe/Unsubscribe maintain;
	// broker round-trips need a live broker and are not covered here.
	c.subMu.Lock()
	c.subscriptions["soundbridge/client/+/volume/set"] = subscription{
		topic: "soundbridge/client/+/volume/set",
		qos:   1,
	}
	c.subMu.Unlock()

	if !c.HasSubscription("soundbridge/client/+/volume/set") {
		t.Error("HasSubscription() = false for tracked topic")
	}
	if c.HasSubscription("soundbridge/other") {
		t.Error("HasSubscription() = true for untracked topic")
	}
	if got := c.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", got)
	}
}
