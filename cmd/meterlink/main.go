// meterlink - field meter and sensor collection service
//
// meterlink polls power, gas and heat meters over Modbus/TCP on a
// clock-aligned schedule, receives pushed air-quality and receptacle
// datagrams over UDP, and forwards every normalised reading to the
// configured delivery sinks (HTTP ingestion endpoint, MQTT, InfluxDB).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/nerrad567/meterlink/migrations"

	"github.com/nerrad567/meterlink/internal/api"
	"github.com/nerrad567/meterlink/internal/auth"
	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/collect"
	"github.com/nerrad567/meterlink/internal/delivery"
	"github.com/nerrad567/meterlink/internal/infrastructure/config"
	"github.com/nerrad567/meterlink/internal/infrastructure/database"
	"github.com/nerrad567/meterlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/meterlink/internal/infrastructure/logging"
	"github.com/nerrad567/meterlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/meterlink/internal/jobs"
	"github.com/nerrad567/meterlink/internal/scheduler"
	"github.com/nerrad567/meterlink/internal/status"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "hash-api-key":
		err = hashAPIKey(os.Args[2:], os.Stdout)
	case len(os.Args) > 1 && os.Args[1] == "migrate":
		err = migrate(ctx, os.Args[2:], os.Stdout)
	default:
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting meterlink",
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
	log = logging.New(cfg.Logging, version, cfg.Site.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	applied, migrateErr := db.Migrate(ctx)
	if migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete", "applied", len(applied))

	snapshot, err := loadCatalog(ctx, cfg.Catalog, db, log)
	if err != nil {
		return err
	}

	components := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
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
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		components["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", net.JoinHostPort(cfg.MQTT.Broker.Host, strconv.Itoa(cfg.MQTT.Broker.Port)),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		components["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	dispatcher := buildDispatcher(cfg, mqttClient, influxClient)
	dispatcher.SetLogger(log.Component("delivery"))
	log.Info("delivery configured", "sinks", dispatcher.Sinks())

	tracker := status.NewTracker()
	sched, err := buildScheduler(cfg, snapshot, dispatcher, tracker, log)
	if err != nil {
		return err
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log.Component("api"),
		Tracker:    tracker,
		Version:    version,
		SiteID:     cfg.Site.ID,
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if startErr := sched.Start(ctx); startErr != nil {
		return fmt.Errorf("starting scheduler: %w", startErr)
	}
	defer sched.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Scheduler (waits for in-flight cycles)
	// 2. API server
	// 3. InfluxDB, MQTT (if enabled)
	// 4. Database
	return nil
}

// getConfigPath returns the configuration file path.
// Uses METERLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("METERLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// hashAPIKey prints the Argon2id hash of the key in args, for use as
// api.auth.api_key_hash.
func hashAPIKey(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: meterlink hash-api-key <key>")
	}
	hash, err := auth.HashAPIKey(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// loadCatalog seeds the catalog from CSV when configured, then builds the
// read-only snapshot shared by every job.
func loadCatalog(ctx context.Context, cfg config.CatalogConfig, db *database.DB, log *logging.Logger) (*catalog.Snapshot, error) {
	repo := catalog.NewSQLiteRepository(db.DB)

	if cfg.SeedDir != "" {
		if err := catalog.ImportCSV(ctx, repo, cfg.SeedDir); err != nil {
			return nil, fmt.Errorf("seeding catalog from %s: %w", cfg.SeedDir, err)
		}
		log.Info("catalog seeded", "dir", cfg.SeedDir)
	}

	snapshot, err := catalog.Load(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	log.Info("catalog loaded",
		"registers", snapshot.MemoryMap.Len(),
		"power_points", len(snapshot.PowerPoints),
		"gas_points", len(snapshot.GasPoints),
		"heat_points", len(snapshot.HeatPoints),
	)
	return snapshot, nil
}

// buildDispatcher wires every enabled delivery sink.
//
// Parameters:
//   - cfg: Application configuration
//   - mqttClient: Connected MQTT client, or nil when disabled
//   - influxClient: Connected InfluxDB client, or nil when disabled
func buildDispatcher(cfg *config.Config, mqttClient *mqtt.Client, influxClient *influxdb.Client) *delivery.Dispatcher {
	var sinks []delivery.Sink
	if cfg.Delivery.Enabled {
		sinks = append(sinks, delivery.NewHTTPSink(cfg.Delivery.URL, cfg.Delivery.APIKey, cfg.GetDeliveryTimeout()))
	}
	if mqttClient != nil {
		sinks = append(sinks, delivery.NewMQTTSink(mqttClient))
	}
	if influxClient != nil {
		sinks = append(sinks, delivery.NewInfluxSink(influxClient))
	}
	return delivery.NewDispatcher(sinks...)
}

// runnable is what buildScheduler needs from each job.
type runnable interface {
	scheduler.Job
	Name() string
	SetLogger(jobs.Logger)
	SetCounter(jobs.RecordCounter)
}

// buildScheduler creates one scheduled job per enabled collector.
//
// Returns:
//   - *scheduler.Scheduler: Scheduler ready to start
//   - error: If no job is enabled or a job is rejected
func buildScheduler(
	cfg *config.Config,
	snapshot *catalog.Snapshot,
	d jobs.Deliverer,
	tracker *status.Tracker,
	log *logging.Logger,
) (*scheduler.Scheduler, error) {
	dialer := collect.ModbusDialer{Timeout: cfg.GetConnectTimeout()}
	collectLog := log.Component("collect")

	poller := collect.NewPoller(dialer, collect.PollerConfig{
		BatchTimeout:         cfg.GetBatchTimeout(),
		MaxConcurrentBatches: cfg.Collector.MaxConcurrentBatches,
	})
	poller.SetLogger(collectLog)

	gas := collect.NewGasCollector(dialer, cfg.GetBatchTimeout())
	gas.SetLogger(collectLog)
	heat := collect.NewHeatCollector(dialer, cfg.GetBatchTimeout())
	heat.SetLogger(collectLog)

	type entry struct {
		job      runnable
		schedule config.JobConfig
	}
	entries := []entry{
		{jobs.NewPowerJob(snapshot, poller, d), cfg.Collector.Power},
		{jobs.NewMeterJob(jobs.NameGas, snapshot.GasPoints, gas, d), cfg.Collector.Gas},
		{jobs.NewMeterJob(jobs.NameHeat, snapshot.HeatPoints, heat, d), cfg.Collector.Heat},
		{jobs.NewUDPJob(jobs.UDPConfig{
			ListenAddress: cfg.UDP.ListenAddress,
			ReceiveWindow: cfg.GetReceiveWindow(),
			BufferSize:    cfg.UDP.BufferSize,
		}, snapshot, d), cfg.UDP.Job()},
	}

	sched := scheduler.New()
	sched.SetLogger(log.Component("scheduler"))
	sched.SetObserver(tracker)

	jobLog := log.Component("jobs")
	added := 0
	for _, e := range entries {
		if !e.schedule.Enabled {
			log.Info("job disabled", "job", e.job.Name())
			continue
		}
		e.job.SetLogger(jobLog)
		e.job.SetCounter(tracker)

		err := sched.Add(scheduler.ScheduledJob{
			Name:   e.job.Name(),
			Period: e.schedule.PeriodDuration(),
			Delay:  e.schedule.DelayDuration(),
			Job:    e.job,
		})
		if err != nil {
			return nil, fmt.Errorf("scheduling %s: %w", e.job.Name(), err)
		}
		tracker.Register(e.job.Name(), e.schedule.PeriodDuration())
		added++
	}

	if added == 0 {
		return nil, errors.New("no collection jobs enabled")
	}
	return sched, nil
}
