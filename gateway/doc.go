// Package gateway is the HTTP front end for the analyzer.
//
// It exposes stream management and data ingest as a small REST surface
// under /realtime, live result push over WebSocket at /realtime/watch/{id},
// aggregated health at /health, and Prometheus metrics at /metrics. Ingest
// requests share a token bucket so a runaway producer cannot starve the
// rest of the API.
package gateway
