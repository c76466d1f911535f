// Package internaldefs holds the metric names, help strings and latency bucket bounds
// of the check-in engine.
//
// The Prometheus and OTel exporters both read these tables, so a scrape and an OTel
// collection report the same series for the same engine.
package internaldefs
