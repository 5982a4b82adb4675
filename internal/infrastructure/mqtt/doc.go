// Package mqtt connects Mökkiwahti to an MQTT broker so that sensors can
// report measurements without going through the HTTP API.
//
// Sensors publish JSON readings to
//
//	<prefix>/sensors/<sensor-name>/measurements
//
// and the ingest package subscribes to the wildcard form of that topic.
// The client keeps a retained online/offline document on
// <prefix>/system/status and registers the offline document as its Last
// Will, so a crash is visible to other subscribers.
//
// Subscriptions are tracked and restored after an automatic reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	err = client.Subscribe(topics.SensorMeasurements(), 1,
//	    func(topic string, payload []byte) error {
//	        name, _ := topics.SensorFromTopic(topic)
//	        ...
//	    })
package mqtt
