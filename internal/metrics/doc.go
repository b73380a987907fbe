// Package metrics records allocation search outcomes. The Prometheus
// collector backs the /metrics endpoint; Nop is used by the CLI and tests.
package metrics
