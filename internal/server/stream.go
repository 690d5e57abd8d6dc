package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cwbudde/algo-modsynth/synth/engine"
	"github.com/cwbudde/algo-modsynth/synth/graph"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame is one websocket telemetry message.
type Frame struct {
	Blocks uint64                              `json:"blocks"`
	Nodes  map[graph.NodeID]map[string]float64 `json:"nodes"`
}

const writeWait = time.Second

// handleStream sends a telemetry Frame every telemetry interval until the
// client goes away. Client messages are read and discarded.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer ws.Close()

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.telemetryEvery)
	defer ticker.Stop()

	for {
		var frame Frame

		_ = s.Do(func(e *engine.Engine) error {
			frame = Frame{Blocks: e.Blocks(), Nodes: e.TelemetrySnapshot()}
			return nil
		})

		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))

		err := ws.WriteJSON(frame)
		if err != nil {
			s.logger.Debug("telemetry stream closed", slog.Any("error", err))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
