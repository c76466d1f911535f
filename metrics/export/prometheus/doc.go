// Package prometheus exposes check-in engine metrics through the Prometheus client
// library.
//
// [NewCollector] wraps an engine as a prometheus.Collector that converts each
// [goCheckin.MetricsSnapshot] into constant metrics at scrape time. Counter names are
// prefixed checkin_*_total; latency histograms are checkin_*_latency_seconds.
// [Handler] serves a private registry holding one collector.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
