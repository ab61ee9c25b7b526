package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/streamwatch/realtime"
)

// WebSocket timing parameters
const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second

	// wsSendBuffer bounds queued results per client; a slow client
	// drops results rather than stalling the analysis worker
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		// CORS is enforced at the HTTP layer
		return true
	},
}

// handleWatch upgrades the connection and streams each analysis result for
// the stream to the client as JSON until either side disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")

	if _, ok := s.analyzer.ActiveStreams()[streamID]; !ok {
		s.writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "stream", streamID, "error", err)
		return
	}

	results := make(chan realtime.Result, wsSendBuffer)
	cancel := s.analyzer.Subscribe(streamID, func(result realtime.Result) {
		select {
		case results <- result:
		default:
			s.logger.Warn("websocket client too slow, result dropped", "stream", streamID)
		}
	})

	s.logger.Info("websocket watcher connected", "stream", streamID)
	go s.wsReadLoop(conn)
	s.wsWriteLoop(conn, streamID, results, cancel)
}

// wsReadLoop drains client frames so pong handling and close detection
// work. Watch connections carry no client data.
func (s *Server) wsReadLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsWriteLoop pushes results and pings until the connection fails.
func (s *Server) wsWriteLoop(conn *websocket.Conn, streamID string, results <-chan realtime.Result, cancel func()) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
		s.logger.Info("websocket watcher disconnected", "stream", streamID)
	}()

	for {
		select {
		case result := <-results:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(result); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
