package gateway

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/c360/streamwatch/errors"
	"github.com/c360/streamwatch/health"
	"github.com/c360/streamwatch/realtime"
)

// createStreamRequest registers a new stream.
type createStreamRequest struct {
	StreamID string                `json:"stream_id"`
	Source   string                `json:"source"`
	Config   realtime.StreamConfig `json:"config"`
}

// recordList accepts either a JSON array of records or a single record
// object, so producers can post one row without wrapping it.
type recordList []realtime.Record

func (rl *recordList) UnmarshalJSON(data []byte) error {
	var many []realtime.Record
	if err := json.Unmarshal(data, &many); err == nil {
		*rl = many
		return nil
	}

	var one realtime.Record
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*rl = recordList{one}
	return nil
}

// ingestRequest appends records to a stream's buffer.
type ingestRequest struct {
	StreamID string     `json:"stream_id"`
	Records  recordList `json:"records"`
}

func (s *Server) handleCreateStream(w http.ResponseWriter, r *http.Request) {
	var req createStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StreamID == "" {
		s.writeError(w, http.StatusBadRequest, "stream_id is required")
		return
	}

	id := s.analyzer.AddStream(req.StreamID, req.Source, req.Config)
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"stream_id": id,
		"status":    "active",
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.ingestLimiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StreamID == "" {
		s.writeError(w, http.StatusBadRequest, "stream_id is required")
		return
	}
	if len(req.Records) == 0 {
		s.writeError(w, http.StatusBadRequest, "records must not be empty")
		return
	}

	if !s.analyzer.UpdateStreamData(req.StreamID, []realtime.Record(req.Records)) {
		s.writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"stream_id": req.StreamID,
		"accepted":  len(req.Records),
	})
}

func (s *Server) handleListStreams(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"streams": s.analyzer.ActiveStreams(),
	})
}

func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")

	result, err := s.analyzer.LatestAnalysis(r.Context(), streamID)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			s.writeError(w, http.StatusNotFound, "no analysis available")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	history, err := s.analyzer.AnalysisHistory(r.Context(), streamID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"stream_id": streamID,
		"count":     len(history),
		"history":   history,
	})
}

func (s *Server) handleRemoveStream(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	s.analyzer.RemoveStream(streamID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"stream_id": streamID,
		"removed":   true,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	statuses := make([]health.Status, 0, len(s.sources))
	for _, src := range s.sources {
		statuses = append(statuses, src.Health())
	}
	overall := health.Aggregate("streamwatch", statuses...)

	code := http.StatusOK
	if overall.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, overall)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"uptime":  s.collector.Uptime().Round(time.Second).String(),
		"metrics": s.collector.All(),
	})
}
