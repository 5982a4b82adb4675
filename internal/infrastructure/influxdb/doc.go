// Package influxdb mirrors stored measurements into InfluxDB so they can be
// charted alongside other time series.
//
// Each measurement becomes one point in the "environment" series, tagged
// with the sensor and location names and carrying temperature and humidity
// fields at the reading's own timestamp. Writes are non-blocking and
// batched by the client library; asynchronous write failures are handed to
// the callback set with SetOnError.
//
// SQLite remains the system of record. A disabled or unreachable InfluxDB
// never fails an API request.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirroring switched off
//	}
//	defer client.Close()
//
//	client.WriteMeasurement(m)
package influxdb
