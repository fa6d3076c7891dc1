package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Sangwon91/prior/protocol"
)

// Server exposes a Bridge over WebSocket. Every connection both feeds chat
// messages into the bridge and streams the bridge's messages back out, so
// an agent process and any number of frontends can attach to the same
// conversation.
type Server struct {
	bridge   *Bridge
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer wraps a bridge. A nil logger falls back to slog.Default.
func NewServer(bridge *Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bridge: bridge,
		upgrader: websocket.Upgrader{
			// Local tool: browser frontends connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler with the WebSocket endpoints mounted at
// /ws/agent and /ws/tui. Both endpoints behave identically; the split keeps
// the two sides distinguishable in logs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/agent", s.serveWS("agent"))
	mux.HandleFunc("/ws/tui", s.serveWS("tui"))
	return mux
}

func (s *Server) serveWS(side string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "websocket upgrade failed",
				slog.String("side", side),
				slog.String("error", err.Error()),
			)
			return
		}

		s.logger.DebugContext(r.Context(), "websocket connected",
			slog.String("side", side),
			slog.String("remote", conn.RemoteAddr().String()),
		)
		s.handleConnection(r.Context(), side, conn)
	}
}

// handleConnection pumps messages in both directions until either side
// drops. Writes are serialized; gorilla connections allow one concurrent
// writer.
func (s *Server) handleConnection(ctx context.Context, side string, conn *websocket.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := s.bridge.Subscribe()
	defer sub.Close()

	var writeMutex sync.Mutex
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		for {
			message, err := sub.Receive(ctx)
			if err != nil {
				return
			}

			data, err := message.Encode()
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to encode outbound message",
					slog.String("side", side),
					slog.String("error", err.Error()),
				)
				continue
			}

			writeMutex.Lock()
			err = conn.WriteMessage(websocket.TextMessage, data)
			writeMutex.Unlock()
			if err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		message, err := protocol.DecodeChatMessage(data)
		if err != nil {
			// Malformed frames are dropped, matching the tolerant
			// behavior frontends expect during reconnects.
			s.logger.DebugContext(ctx, "dropping invalid inbound frame",
				slog.String("side", side),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := s.bridge.Send(ctx, message); err != nil {
			s.logger.ErrorContext(ctx, "failed to route inbound message",
				slog.String("side", side),
				slog.String("error", err.Error()),
			)
		}
	}

	cancel()
	wg.Wait()

	s.logger.DebugContext(ctx, "websocket disconnected",
		slog.String("side", side),
	)
}
