//go:build integration

package mqtt

import (
	"testing"
	"time"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/logging"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_SubscribeRoundtrip(t *testing.T) {
	client, err := Connect(testConfig(), logging.Discard())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	topics := client.Topics()
	err = client.Subscribe(topics.SensorMeasurements(), 1, func(topic string, _ []byte) error {
		name, _ := topics.SensorFromTopic(topic)
		received <- name
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.SensorMeasurements()) {
		t.Error("subscription not tracked")
	}

	token := client.client.Publish(topics.SensorMeasurement("temp-1"), 1, false, []byte(`{}`))
	token.WaitTimeout(5 * time.Second)

	select {
	case name := <-received:
		if name != "temp-1" {
			t.Errorf("sensor = %q, want temp-1", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(topics.SensorMeasurements()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}
