// Package metrics defines the observability events emitted by the bot:
// handled commands, schedule saves and the shape of the schedule after each
// committed change. Sinks such as the Prometheus and InfluxDB sinks in
// infra/metrics implement the recorder interfaces; NewMultiSink fans events
// out to several of them.
package metrics
