// Package streamwatch provides a real-time streaming analysis service.
//
// StreamWatch accepts named data streams of tabular records, buffers them
// per stream, and analyzes threshold-triggered batches on a single
// background worker. Each batch produces summary statistics, a two-point
// trend per numeric column, and threshold alerts. Results are cached with
// expiry and pushed to subscribers.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          HTTP Gateway               │  REST ingest + WebSocket push
//	│   (gateway: mux, CORS, limits)      │
//	└─────────────────────────────────────┘
//	           ↓ produces records
//	┌─────────────────────────────────────┐
//	│       Realtime Analyzer             │  Stream registry, batcher,
//	│  (realtime: buffers, worker, FIFO)  │  single analysis worker
//	└─────────────────────────────────────┘
//	           ↓ caches / notifies
//	┌─────────────────────────────────────┐
//	│     Result Cache + Subscribers      │  memory / NATS KV / hybrid,
//	│  (cache: TTL stores with fallback)  │  callbacks + WebSocket clients
//	└─────────────────────────────────────┘
//
// Supporting packages:
//   - metric: Prometheus registry plus a capped metric-sample collector
//   - natsclient: NATS connection management for the KV cache backend
//   - health: standard health status reporting
//   - config: JSON configuration with defaults and validation
//   - errors: error classification and wrapping helpers
//
// The service is explicitly constructed and lifecycle-managed; there is no
// package-level singleton state.
package streamwatch
