package realtime

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/streamwatch/cache"
	"github.com/c360/streamwatch/errors"
	"github.com/c360/streamwatch/health"
	"github.com/c360/streamwatch/metric"
)

// Status represents the current status of the analyzer
type Status int

// Possible analyzer statuses
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Retention defaults
const (
	// DefaultLatestTTL bounds how long the latest result slot lives.
	DefaultLatestTTL = 5 * time.Minute
	// DefaultHistoryTTL bounds how long the rolling history lives.
	DefaultHistoryTTL = time.Hour
	// DefaultHistoryLimit caps the rolling history length.
	DefaultHistoryLimit = 100

	// defaultPollInterval is the worker's idle sleep between queue checks.
	defaultPollInterval = 100 * time.Millisecond

	serviceName = "realtime-analyzer"
)

// stream holds the mutable state of one registered stream. Its mutex is the
// critical section for the append / threshold-check / copy-and-clear
// sequence, so concurrent producers can never lose or double-count records
// across a flush.
type stream struct {
	mu         sync.Mutex
	source     string
	config     StreamConfig
	status     string
	lastUpdate time.Time
	buffer     []Record
}

// Analyzer owns all active streams, buffers incoming records per stream,
// and dispatches threshold-triggered batches to a single background worker
// that computes statistics, trends, and alerts. Results are written to the
// cache before subscribers are notified.
//
// The zero value is not usable; construct with New and drive the lifecycle
// with Start and Stop.
type Analyzer struct {
	logger       *slog.Logger
	store        cache.Store
	collector    *metric.Collector
	metrics      *metric.Metrics
	latestTTL    time.Duration
	historyTTL   time.Duration
	historyLimit int
	pollInterval time.Duration

	// Registry state
	mu          sync.RWMutex
	streams     map[string]*stream
	subscribers map[string][]*subscription
	nextSubID   uint64

	// Unbounded FIFO work queue; producers never block on enqueue
	queueMu sync.Mutex
	queue   []batchTask

	// Lifecycle
	status      atomic.Value // Status
	lifecycleMu sync.Mutex
	done        chan struct{}
	wg          sync.WaitGroup
}

// AnalyzerOption is a functional option for configuring an Analyzer
type AnalyzerOption func(*Analyzer)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithCollector sets the metric sample collector
func WithCollector(collector *metric.Collector) AnalyzerOption {
	return func(a *Analyzer) {
		a.collector = collector
	}
}

// WithMetrics sets the Prometheus metrics registry
func WithMetrics(registry *metric.MetricsRegistry) AnalyzerOption {
	return func(a *Analyzer) {
		if registry != nil {
			a.metrics = registry.CoreMetrics()
		}
	}
}

// WithHistoryLimit overrides the rolling history cap
func WithHistoryLimit(limit int) AnalyzerOption {
	return func(a *Analyzer) {
		if limit > 0 {
			a.historyLimit = limit
		}
	}
}

// WithTTLs overrides the cache retention for the latest-result slot and
// the rolling history
func WithTTLs(latest, history time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if latest > 0 {
			a.latestTTL = latest
		}
		if history > 0 {
			a.historyTTL = history
		}
	}
}

// WithPollInterval overrides the worker's idle sleep. Tests use this to
// tighten the loop.
func WithPollInterval(interval time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if interval > 0 {
			a.pollInterval = interval
		}
	}
}

// New creates an Analyzer backed by the given result store.
func New(store cache.Store, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger:       slog.Default().With("service", serviceName),
		store:        store,
		latestTTL:    DefaultLatestTTL,
		historyTTL:   DefaultHistoryTTL,
		historyLimit: DefaultHistoryLimit,
		pollInterval: defaultPollInterval,
		streams:      make(map[string]*stream),
		subscribers:  make(map[string][]*subscription),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.setStatus(StatusStopped)
	return a
}

// Status returns the current analyzer status
func (a *Analyzer) Status() Status {
	return a.status.Load().(Status)
}

func (a *Analyzer) setStatus(s Status) {
	a.status.Store(s)
	if a.metrics != nil {
		a.metrics.RecordServiceStatus(serviceName, int(s))
	}
}

// Health reports the analyzer's health status
func (a *Analyzer) Health() health.Status {
	switch a.Status() {
	case StatusRunning:
		return health.NewHealthy(serviceName, "analysis worker running")
	case StatusStarting:
		return health.NewDegraded(serviceName, "analyzer is starting")
	case StatusStopping:
		return health.NewDegraded(serviceName, "analyzer is stopping")
	default:
		return health.NewUnhealthy(serviceName, "analyzer is stopped")
	}
}

// Start launches the background analysis worker. Starting a running
// analyzer is a no-op.
func (a *Analyzer) Start(ctx context.Context) error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	current := a.Status()
	if current == StatusRunning || current == StatusStarting {
		return nil
	}
	if current == StatusStopping {
		// A previous Stop timed out with the worker still alive. Spawning
		// a second worker here would race the old one on the queue.
		return errors.WrapTransient(
			fmt.Errorf("previous worker has not exited"),
			"Analyzer", "Start", "restart")
	}

	a.setStatus(StatusStarting)
	a.done = make(chan struct{})

	a.wg.Add(1)
	go a.worker(ctx)

	a.setStatus(StatusRunning)
	a.logger.Info("analysis worker started")
	return nil
}

// Stop signals the worker and blocks until it has exited or the timeout
// elapses. In-flight analysis of the current batch completes; queued
// batches are not started. On timeout the analyzer remains in the
// stopping state and a further Stop call waits for the worker again.
func (a *Analyzer) Stop(timeout time.Duration) error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	current := a.Status()
	if current == StatusStopped {
		return nil
	}
	if current != StatusStopping {
		a.setStatus(StatusStopping)
		close(a.done)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	finished := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(timeout):
		// Leave the status at stopping so Start refuses to spawn a second
		// worker beside the leaked one. A later Stop may still reap it.
		return errors.WrapTransient(
			fmt.Errorf("worker did not exit within %s", timeout),
			"Analyzer", "Stop", "graceful shutdown")
	}

	a.setStatus(StatusStopped)
	a.logger.Info("analysis worker stopped")
	return nil
}

// AddStream registers a stream with an empty buffer and active status.
// Registering an existing id overwrites its prior state.
func (a *Analyzer) AddStream(streamID, source string, cfg StreamConfig) string {
	a.mu.Lock()
	a.streams[streamID] = &stream{
		source:     source,
		config:     cfg,
		status:     "active",
		lastUpdate: time.Now(),
	}
	count := len(a.streams)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordStreamsActive(count)
	}
	a.logger.Info("stream registered", "stream", streamID, "source", source,
		"batch_size", cfg.batchSize())
	return streamID
}

// UpdateStreamData appends records to a stream's buffer and returns false
// when the stream is unknown. When the buffer reaches the configured batch
// size it is atomically copied and cleared, and the batch is enqueued for
// analysis. Enqueue is fire-and-forget: the caller never waits on analysis.
//
// The length check runs after every append, so a buffer sitting at or over
// the threshold flushes again on each call until drained.
func (a *Analyzer) UpdateStreamData(streamID string, records []Record) bool {
	a.mu.RLock()
	s, ok := a.streams[streamID]
	a.mu.RUnlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, records...)
	s.lastUpdate = time.Now()

	if len(s.buffer) >= s.config.batchSize() {
		batch := make([]Record, len(s.buffer))
		copy(batch, s.buffer)
		s.buffer = s.buffer[:0]
		a.enqueue(batchTask{
			streamID:   streamID,
			records:    batch,
			config:     s.config,
			dispatched: time.Now(),
		})
	}
	s.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordRecordsReceived(streamID, len(records))
	}
	if a.collector != nil {
		a.collector.RecordMetric("stream_records_received", float64(len(records)),
			map[string]string{"stream": streamID})
	}
	return true
}

// ActiveStreams returns a snapshot of all registered streams.
func (a *Analyzer) ActiveStreams() map[string]StreamInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := make(map[string]StreamInfo, len(a.streams))
	for id, s := range a.streams {
		s.mu.Lock()
		snapshot[id] = StreamInfo{
			Status:     s.status,
			LastUpdate: s.lastUpdate,
			BufferSize: len(s.buffer),
		}
		s.mu.Unlock()
	}
	return snapshot
}

// RemoveStream drops a stream and its subscribers. Removing an unknown
// stream is a tolerated no-op; the method always reports success.
func (a *Analyzer) RemoveStream(streamID string) bool {
	a.mu.Lock()
	delete(a.streams, streamID)
	delete(a.subscribers, streamID)
	count := len(a.streams)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordStreamsActive(count)
	}
	return true
}

// subscription pairs a callback with an id so it can be removed later.
type subscription struct {
	id uint64
	fn Subscriber
}

// Subscribe registers a callback invoked with each analysis result for the
// stream. Subscribers are called in registration order. The returned
// cancel func removes the subscription; calling it more than once is safe.
func (a *Analyzer) Subscribe(streamID string, fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}

	a.mu.Lock()
	a.nextSubID++
	sub := &subscription{id: a.nextSubID, fn: fn}
	a.subscribers[streamID] = append(a.subscribers[streamID], sub)
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		subs := a.subscribers[streamID]
		for i, s := range subs {
			if s.id == sub.id {
				a.subscribers[streamID] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// LatestAnalysis returns the cached latest result for a stream, or
// errors.ErrKeyNotFound when no result is available.
func (a *Analyzer) LatestAnalysis(ctx context.Context, streamID string) (*Result, error) {
	data, err := a.store.Get(ctx, LatestKey(streamID))
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.WrapInvalid(err, "Analyzer", "LatestAnalysis", "result decode")
	}
	return &result, nil
}

// AnalysisHistory returns up to limit most-recent results for a stream,
// oldest first. A stream with no history yields an empty slice.
func (a *Analyzer) AnalysisHistory(ctx context.Context, streamID string, limit int) ([]Result, error) {
	history, err := a.loadHistory(ctx, streamID)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

// enqueue appends a task to the unbounded FIFO queue.
func (a *Analyzer) enqueue(task batchTask) {
	a.queueMu.Lock()
	a.queue = append(a.queue, task)
	depth := len(a.queue)
	a.queueMu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordQueueDepth(depth)
	}
}

// dequeue pops the oldest task, if any.
func (a *Analyzer) dequeue() (batchTask, bool) {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()

	if len(a.queue) == 0 {
		return batchTask{}, false
	}
	task := a.queue[0]
	a.queue = a.queue[1:]

	if a.metrics != nil {
		a.metrics.RecordQueueDepth(len(a.queue))
	}
	return task, true
}

// worker is the single consumer of the analysis queue. It polls the queue
// and idles briefly when empty; the short sleep keeps shutdown responsive
// without an event-driven wakeup, which batch throughput does not need.
func (a *Analyzer) worker(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, ok := a.dequeue()
		if !ok {
			select {
			case <-a.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(a.pollInterval):
			}
			continue
		}

		a.process(ctx, task)
	}
}

// process analyzes one batch. Every failure mode is contained here: one
// bad batch must never kill the worker.
func (a *Analyzer) process(ctx context.Context, task batchTask) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic during batch analysis",
				"stream", task.streamID, "panic", r)
			if a.metrics != nil {
				a.metrics.RecordBatchAnalyzed(task.streamID, "panic")
			}
		}
	}()

	start := time.Now()
	result, err := analyzeBatch(task.records, task.config, time.Now())
	if err != nil {
		a.logger.Error("batch analysis failed, batch abandoned",
			"stream", task.streamID, "rows", len(task.records), "error", err)
		if a.metrics != nil {
			a.metrics.RecordBatchAnalyzed(task.streamID, "error")
		}
		return
	}

	// Cache write happens before notification so subscribers can rely on
	// the result being observable
	a.cacheResult(ctx, task.streamID, result)
	a.notifySubscribers(task.streamID, result)

	if a.metrics != nil {
		a.metrics.RecordBatchAnalyzed(task.streamID, "success")
		a.metrics.RecordAnalysisDuration(task.streamID, time.Since(start))
		for _, alert := range result.Alerts {
			a.metrics.RecordAlert(task.streamID, string(alert.Severity))
		}
	}
	if a.collector != nil {
		a.collector.RecordMetric("batches_analyzed", 1,
			map[string]string{"stream": task.streamID})
	}
}

// cacheResult writes the latest-result slot and appends to the capped
// rolling history. Cache failures degrade to a logged warning; they never
// abort the batch.
func (a *Analyzer) cacheResult(ctx context.Context, streamID string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		a.logger.Error("result encode failed", "stream", streamID, "error", err)
		return
	}

	if err := a.store.Set(ctx, LatestKey(streamID), data, a.latestTTL); err != nil {
		a.logger.Warn("latest result not cached", "stream", streamID, "error", err)
	}

	history, err := a.loadHistory(ctx, streamID)
	if err != nil {
		a.logger.Warn("history read failed, starting fresh", "stream", streamID, "error", err)
		history = nil
	}

	history = append(history, result)
	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}

	historyData, err := json.Marshal(history)
	if err != nil {
		a.logger.Error("history encode failed", "stream", streamID, "error", err)
		return
	}
	if err := a.store.Set(ctx, HistoryKey(streamID), historyData, a.historyTTL); err != nil {
		a.logger.Warn("history not cached", "stream", streamID, "error", err)
	}
}

// loadHistory reads the rolling history list, mapping a missing key to an
// empty history.
func (a *Analyzer) loadHistory(ctx context.Context, streamID string) ([]Result, error) {
	data, err := a.store.Get(ctx, HistoryKey(streamID))
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return []Result{}, nil
		}
		return nil, err
	}

	var history []Result
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.WrapInvalid(err, "Analyzer", "loadHistory", "history decode")
	}
	return history, nil
}

// notifySubscribers invokes each subscriber in registration order. A
// panicking subscriber is logged and skipped; the rest still run.
func (a *Analyzer) notifySubscribers(streamID string, result Result) {
	a.mu.RLock()
	subs := make([]*subscription, len(a.subscribers[streamID]))
	copy(subs, a.subscribers[streamID])
	a.mu.RUnlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("subscriber panicked",
						"stream", streamID, "subscriber", sub.id, "panic", r)
				}
			}()
			sub.fn(result)
		}()
	}
}
