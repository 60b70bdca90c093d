// riglab - Hardware Attack Bench Orchestrator
//
// This is the main entry point for the riglab daemon. riglab keeps a
// pool of bench instruments (glitchers, bus adapters, debug probes)
// detected over USB, publishes their status over MQTT, and runs
// fault-injection campaigns against a target on request.
//
// The daemon is deliberately thin: all orchestration logic lives in the
// internal packages; this file wires configuration, infrastructure
// connections, and the campaign control surface together.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/riglab-core/internal/backend/sim"
	"github.com/nerrad567/riglab-core/internal/detect"
	"github.com/nerrad567/riglab-core/internal/infrastructure/config"
	"github.com/nerrad567/riglab-core/internal/infrastructure/database"
	"github.com/nerrad567/riglab-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/riglab-core/internal/infrastructure/logging"
	"github.com/nerrad567/riglab-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/riglab-core/internal/pool"
	"github.com/nerrad567/riglab-core/internal/runlog"
)

// Build metadata, injected via
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// Ctrl+C and SIGTERM both cancel the root context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run carries the daemon lifecycle; main stays a thin exit-code shim so
// tests can drive the full boot path with a cancellable context.
func run(ctx context.Context) error {
	// Bootstrap logger; replaced once the config is in.
	log := logging.Default()
	log.Info("riglab starting",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("config loaded", "path", configPath, "rig", cfg.Rig.ID)

	log = logging.New(cfg.Logging, version)
	log.Info("logger ready",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the runlog database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing runlog database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("closing runlog database", "error", closeErr)
		}
	}()
	log.Info("runlog database open", "path", cfg.Database.Path)

	runs := runlog.NewSQLiteRepository(db)
	if schemaErr := runs.EnsureSchema(ctx); schemaErr != nil {
		return fmt.Errorf("preparing runlog schema: %w", schemaErr)
	}
	log.Info("runlog schema ready")

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		defer func() {
			log.Info("disconnecting MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("MQTT disconnect", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("influxdb connect: %w", err)
		}
		defer func() {
			log.Info("flushing and closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("InfluxDB close", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB batch write", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled, telemetry stays local")
	}

	// Register the simulated backend. Real adapter backends register
	// themselves the same way when their packages are linked in.
	sim.Register()

	// Build the detector and pool
	enumerator := detect.NewUSBEnumerator()
	enumerator.SetLogger(log)
	detector := detect.NewDetector(enumerator)
	detector.SetLogger(log)
	if cfg.Detect.Probe {
		detector.SetProbe(serialProbe)
	}

	devicePool := pool.New(detector)
	devicePool.SetLogger(log)

	if _, scanErr := devicePool.Scan(ctx); scanErr != nil {
		log.Warn("initial device scan failed", "error", scanErr)
	}
	publishDeviceStatus(devicePool, mqttClient, influxClient, log)

	// Campaign control surface
	runner := newCampaignRunner(cfg, devicePool, runs, mqttClient, influxClient, log)
	if mqttClient != nil {
		controlTopic := mqtt.Topics{}.ControlCampaign()
		subErr := mqttClient.Subscribe(controlTopic, byte(cfg.MQTT.QoS), func(_ string, payload []byte) error {
			runner.HandleControl(ctx, payload)
			return nil
		})
		if subErr != nil {
			return fmt.Errorf("subscribing to campaign control: %w", subErr)
		}
		log.Info("campaign control listening", "topic", controlTopic)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("startup health check: %w", err)
	}
	log.Info("health checks passed")

	log.Info("riglab ready")

	// Periodic rescan keeps the pool tracking hot-plugged hardware
	if interval := cfg.ScanInterval(); interval > 0 {
		go scanLoop(ctx, devicePool, mqttClient, influxClient, log, interval)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown requested")
	runner.CancelActive()

	log.Info("riglab stopped")
	return nil
}

// getConfigPath resolves the config file location: RIGLAB_CONFIG when
// set, the in-tree default otherwise.
func getConfigPath() string {
	if path := os.Getenv("RIGLAB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck pings each wired infrastructure connection once at
// startup. mqttClient and influxClient are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// scanLoop rescans the USB bus on a fixed interval until ctx is done.
func scanLoop(ctx context.Context, devicePool *pool.Pool, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := devicePool.Scan(ctx); err != nil {
				log.Warn("device scan failed", "error", err)
				continue
			}
			publishDeviceStatus(devicePool, mqttClient, influxClient, log)
		}
	}
}

// publishDeviceStatus pushes a retained status payload per pool device
// and a health point per device to InfluxDB. Both sinks are optional.
func publishDeviceStatus(devicePool *pool.Pool, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) {
	devices := devicePool.Devices()

	for _, d := range devices {
		if influxClient != nil {
			influxClient.WriteDeviceHealth(d.ID, string(d.Health), d.TotalFailures)
		}

		if mqttClient == nil {
			continue
		}
		payload, err := json.Marshal(map[string]any{
			"id":           d.ID,
			"label":        d.Descriptor.Label,
			"type":         d.Descriptor.Type,
			"serial":       d.Descriptor.Serial,
			"capabilities": d.Descriptor.Capabilities,
			"role":         d.Role,
			"stale":        d.Stale,
			"claimed":      d.Claimed,
			"health":       d.Health,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Error("marshalling device status", "device", d.ID, "error", err)
			continue
		}
		topic := mqtt.Topics{}.DeviceStatus(d.ID)
		if err := mqttClient.PublishRetained(topic, payload); err != nil {
			log.Warn("publishing device status", "device", d.ID, "error", err)
		}
	}

	if mqttClient != nil {
		payload, err := json.Marshal(map[string]any{
			"devices":   len(devices),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err == nil {
			//nolint:errcheck // scan summary is advisory telemetry
			mqttClient.Publish(mqtt.Topics{}.DeviceScan(), payload, 0, false)
		}
	}
}

// serialProbe sends a benign identification request to a CDC serial port
// and returns whatever the board replies within a short window. Used to
// tell apart boards that share the generic RP2040 USB identity.
func serialProbe(ctx context.Context, port string) (string, error) {
	f, err := os.OpenFile(port, os.O_RDWR, 0)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", port, err)
	}
	defer f.Close() //nolint:errcheck // read-mostly probe, close error carries no signal

	if _, err := f.Write([]byte("i\r\n")); err != nil {
		return "", fmt.Errorf("writing probe to %s: %w", port, err)
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 256)
		n, readErr := f.Read(buf)
		ch <- result{data: buf[:n], err: readErr}
	}()

	timer := time.NewTimer(500 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("probe on %s: no reply", port)
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading probe reply from %s: %w", port, r.err)
		}
		return string(r.data), nil
	}
}
