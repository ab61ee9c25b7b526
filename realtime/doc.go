// Package realtime implements streaming analysis over tabular record
// streams. Producers register streams with an Analyzer and append records
// to per-stream buffers; when a buffer reaches its configured batch size
// the batch is handed to a single background worker that computes per
// column summary statistics, two-point trends, and threshold alerts.
//
// Results flow through a cache.Store (a latest-result slot plus a capped
// rolling history) before registered subscribers are notified, so a
// subscriber can always read back the result it was just handed.
//
// Producers never block on analysis: the hand-off queue is unbounded and
// the buffer swap happens under the stream's own lock, so concurrent
// appends to one stream cannot lose or double-count records across a
// flush.
package realtime
