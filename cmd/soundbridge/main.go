// SoundBridge Core - Multi-Room Audio Orchestrator
//
// This is the main entry point for the SoundBridge Core application.
// SoundBridge keeps multi-room audio state consistent across every
// control plane in the building:
//   - Snapcast for synchronized playback
//   - MQTT for home automation integration
//   - KNX for wall switches and building control
//   - Subsonic-compatible servers for the media library
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/dwrenn/soundbridge-core/migrations"

	"github.com/dwrenn/soundbridge-core/internal/audio"
	"github.com/dwrenn/soundbridge-core/internal/bridges/knx"
	"github.com/dwrenn/soundbridge-core/internal/bridges/snapcast"
	"github.com/dwrenn/soundbridge-core/internal/bridges/subsonic"
	"github.com/dwrenn/soundbridge-core/internal/coordinator"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/config"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/database"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/influxdb"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/logging"
	"github.com/dwrenn/soundbridge-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SoundBridge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	clientRepo := audio.NewSQLiteClientRepository(db.DB)
	zoneRepo := audio.NewSQLiteZoneRepository(db.DB)

	deps := coordinator.Deps{
		Config:  cfg,
		Clients: clientRepo,
		Zones:   zoneRepo,
		Logger:  log,
	}

	// Connect to MQTT broker (if enabled)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		deps.MessageBus = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to the Snapcast server (if enabled)
	var snapClient *snapcast.Client
	if cfg.Snapcast.Enabled {
		snapClient, err = snapcast.Connect(ctx, snapcast.Config{
			Host:           cfg.Snapcast.Host,
			Port:           cfg.Snapcast.Port,
			RequestTimeout: cfg.GetSnapcastTimeout(),
		})
		if err != nil {
			return fmt.Errorf("connecting to Snapcast: %w", err)
		}
		defer func() {
			log.Info("disconnecting from Snapcast")
			if closeErr := snapClient.Close(); closeErr != nil {
				log.Error("error closing Snapcast", "error", closeErr)
			}
		}()
		snapClient.SetLogger(log)
		log.Info("Snapcast connected",
			"server", fmt.Sprintf("%s:%d", cfg.Snapcast.Host, cfg.Snapcast.Port),
		)
		deps.AudioServer = snapClient
	} else {
		log.Info("Snapcast disabled")
	}

	// Connect to knxd (if enabled)
	var knxClient *knx.Client
	if cfg.KNX.Enabled {
		var knxErr error
		knxClient, knxErr = knx.Connect(ctx, knx.ClientConfig{
			Host: cfg.KNX.KNXDHost,
			Port: cfg.KNX.KNXDPort,
		})
		if knxErr != nil {
			return fmt.Errorf("connecting to knxd: %w", knxErr)
		}
		defer func() {
			log.Info("disconnecting from knxd")
			if closeErr := knxClient.Close(); closeErr != nil {
				log.Error("error closing knxd connection", "error", closeErr)
			}
		}()
		knxClient.SetLogger(log)
		log.Info("knxd connected",
			"daemon", fmt.Sprintf("%s:%d", cfg.KNX.KNXDHost, cfg.KNX.KNXDPort),
		)
		deps.BuildingBus = knxClient
	} else {
		log.Info("KNX disabled")
	}

	// Media library client (if enabled)
	if cfg.Subsonic.Enabled {
		subClient, subErr := subsonic.New(subsonic.Config{
			URL:      cfg.Subsonic.URL,
			Username: cfg.Subsonic.Username,
			Password: cfg.Subsonic.Password,
			Client:   cfg.Subsonic.Client,
		})
		if subErr != nil {
			return fmt.Errorf("creating Subsonic client: %w", subErr)
		}
		log.Info("media library configured", "url", cfg.Subsonic.URL)
		deps.MediaLibrary = subClient
	} else {
		log.Info("media library disabled")
	}

	// Connect to InfluxDB (optional telemetry)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		deps.Telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the protocol coordinator
	coord := coordinator.New(deps)
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	defer func() {
		log.Info("stopping coordinator")
		if stopErr := coord.Stop(); stopErr != nil {
			log.Error("error stopping coordinator", "error", stopErr)
		}
	}()

	// Wire protocol notifications into the coordinator
	if snapClient != nil {
		coord.BindAudioEvents(snapClient)
	}
	if knxClient != nil {
		coord.BindKNXEvents(knxClient)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Coordinator
	// 2. InfluxDB (if enabled)
	// 3. knxd, Snapcast, MQTT (as enabled)
	// 4. Database

	log.Info("SoundBridge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SOUNDBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SOUNDBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
