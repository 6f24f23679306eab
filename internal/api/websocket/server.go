package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development (TODO: restrict in production)
	},
}

// Server answers questions over a WebSocket. Each incoming text frame is an
// independent question; nothing carries over between frames, so a dropped
// connection loses no state.
type Server struct {
	port     string
	server   *http.Server
	pipeline *service.Pipeline
	log      *logrus.Logger
}

// NewServer creates a new WebSocket server
func NewServer(pipeline *service.Pipeline, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{pipeline: pipeline, log: log}
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/ask", s.handleAsk)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	s.log.WithField("port", port).Info("WebSocket server listening")
	return s.server.ListenAndServe()
}

type wsQuestion struct {
	Question string `json:"question"`
}

type wsError struct {
	Error string `json:"error"`
}

// handleAsk upgrades the connection and answers questions until the client
// goes away.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("⚠️  failed to upgrade connection")
		return
	}
	defer conn.Close()

	for {
		var q wsQuestion
		if err := conn.ReadJSON(&q); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("client connection closed")
			}
			return
		}
		if q.Question == "" {
			if err := conn.WriteJSON(wsError{Error: "missing question field"}); err != nil {
				return
			}
			continue
		}

		answer := s.pipeline.Ask(r.Context(), q.Question)
		if err := conn.WriteJSON(answer); err != nil {
			return
		}
	}
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
