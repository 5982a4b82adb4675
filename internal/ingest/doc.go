// Package ingest stores measurements that sensors publish over MQTT.
//
// A message on <prefix>/sensors/<name>/measurements carries the same JSON
// document accepted by POST /api/sensors/<name>/measurements/. It goes
// through the same schema validation and is persisted in its own
// transaction, inheriting the sensor's current location. Messages for
// unknown sensors or with invalid payloads are logged and dropped; MQTT
// has no channel to report them back to the publisher.
package ingest
