package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/logging"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/mqtt"
	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
	"github.com/mokkiwahti/mokkiwahti-core/internal/schema"
	"github.com/mokkiwahti/mokkiwahti-core/internal/store"
)

// messageTimeout bounds the transaction for a single message.
const messageTimeout = 10 * time.Second

// Subscriber is the part of the MQTT client the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Sink receives measurements after they have been committed.
type Sink interface {
	WriteMeasurement(m *model.Measurement)
}

// Deps holds the Ingestor's collaborators. Sink may be nil.
type Deps struct {
	Subscriber Subscriber
	Store      *store.Store
	Validator  *schema.Validator
	Topics     mqtt.Topics
	QoS        byte
	Sink       Sink
	Logger     *logging.Logger
}

// Ingestor subscribes to sensor measurement topics and persists readings.
type Ingestor struct {
	sub       Subscriber
	store     *store.Store
	validator *schema.Validator
	topics    mqtt.Topics
	qos       byte
	sink      Sink
	logger    *logging.Logger

	mu      sync.Mutex
	started bool
}

// New validates deps and returns an Ingestor. Call Start to subscribe.
func New(deps Deps) (*Ingestor, error) {
	if deps.Subscriber == nil {
		return nil, errors.New("ingest: subscriber is required")
	}
	if deps.Store == nil {
		return nil, errors.New("ingest: store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Validator == nil {
		deps.Validator = schema.Entities().Measurement
	}

	return &Ingestor{
		sub:       deps.Subscriber,
		store:     deps.Store,
		validator: deps.Validator,
		topics:    deps.Topics,
		qos:       deps.QoS,
		sink:      deps.Sink,
		logger:    deps.Logger.With("component", "ingest"),
	}, nil
}

// Start subscribes to the wildcard measurement topic.
func (i *Ingestor) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	topic := i.topics.SensorMeasurements()
	if err := i.sub.Subscribe(topic, i.qos, i.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	i.started = true
	i.logger.Info("measurement ingest started", "topic", topic)
	return nil
}

// Stop unsubscribes. Messages already being handled are completed.
func (i *Ingestor) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		return ErrNotStarted
	}
	i.started = false
	if err := i.sub.Unsubscribe(i.topics.SensorMeasurements()); err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	i.logger.Info("measurement ingest stopped")
	return nil
}

// handleMessage is the MQTT callback. Its error is logged by the client.
func (i *Ingestor) handleMessage(topic string, payload []byte) error {
	name, ok := i.topics.SensorFromTopic(topic)
	if !ok {
		rejected("topic")
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	m, err := i.Ingest(ctx, name, payload)
	if err != nil {
		rejected(reason(err))
		return err
	}

	i.logger.Debug("measurement ingested", "sensor", name, "id", m.ID)
	return nil
}

// Ingest validates payload and stores it as a measurement of the named
// sensor. The sink, if any, is called after the commit.
func (i *Ingestor) Ingest(ctx context.Context, sensorName string, payload []byte) (*model.Measurement, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidPayload)
	}
	if err := i.validator.Validate(doc); err != nil {
		return nil, err
	}

	m := &model.Measurement{}
	if err := m.Deserialize(doc); err != nil {
		return nil, err
	}

	err := i.store.WithTx(ctx, func(tx *store.Tx) error {
		sensor, err := tx.SensorByName(ctx, sensorName)
		if err != nil {
			return err
		}
		m.Sensor = sensor
		return tx.CreateMeasurement(ctx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("storing measurement for sensor %q: %w", sensorName, err)
	}

	metrics.GetOrCreateCounter(`mokkiwahti_measurements_stored_total{source="mqtt"}`).Inc()
	if i.sink != nil {
		i.sink.WriteMeasurement(m)
	}
	return m, nil
}

func rejected(reason string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`mokkiwahti_ingest_rejected_total{reason=%q}`, reason)).Inc()
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		return "payload"
	case errors.Is(err, schema.ErrValidation), errors.Is(err, model.ErrInvalidDocument):
		return "validation"
	case errors.Is(err, store.ErrNotFound):
		return "unknown_sensor"
	default:
		return "store"
	}
}
