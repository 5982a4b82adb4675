package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mokkiwahti/mokkiwahti-core/internal/api"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/config"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/influxdb"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/logging"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/mqtt"
	"github.com/mokkiwahti/mokkiwahti-core/internal/ingest"
	"github.com/mokkiwahti/mokkiwahti-core/internal/schema"
	"github.com/mokkiwahti/mokkiwahti-core/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, path)
		},
	}
}

// run wires the components together and blocks until ctx is cancelled.
// Deferred cleanups run in reverse order of startup.
func run(ctx context.Context, cfg *config.Config, configPath string) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting Mökkiwahti",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", configPath,
	)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", len(applied))

	st := store.New(db)
	schemas := schema.Entities()

	// InfluxDB is optional; the API works without it.
	var sink api.MeasurementSink
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sink = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		var ing *ingest.Ingestor
		mqttClient, ing, err = startIngest(cfg.MQTT, st, schemas, sink, log)
		if err != nil {
			return err
		}
		defer stopIngest(ing, mqttClient, log)
	} else {
		log.Info("MQTT ingest disabled")
	}

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Store:   st,
		Version: version,
		Schemas: schemas,
		Sink:    sink,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// startIngest connects to the broker and subscribes the measurement
// ingestor. Both are released with stopIngest.
func startIngest(cfg config.MQTTConfig, st *store.Store, schemas *schema.Set, sink api.MeasurementSink, log *logging.Logger) (*mqtt.Client, *ingest.Ingestor, error) {
	client, err := mqtt.Connect(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	ing, err := ingest.New(ingest.Deps{
		Subscriber: client,
		Store:      st,
		Validator:  schemas.Measurement,
		Topics:     client.Topics(),
		QoS:        byte(cfg.QoS), // #nosec G115 -- validated to 0..2
		Sink:       sink,
		Logger:     log,
	})
	if err == nil {
		err = ing.Start()
	}
	if err != nil {
		client.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("starting measurement ingest: %w", err)
	}
	return client, ing, nil
}

// stopIngest drops the measurement subscription, then disconnects.
func stopIngest(ing interface{ Stop() error }, client io.Closer, log *logging.Logger) {
	log.Info("stopping measurement ingest")
	if err := ing.Stop(); err != nil {
		log.Warn("error stopping measurement ingest", "error", err)
	}
	log.Info("disconnecting from MQTT")
	if err := client.Close(); err != nil {
		log.Error("error closing MQTT", "error", err)
	}
}

// healthCheck verifies the connections opened by run. mqttClient and
// influxClient are nil when disabled.
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
