package server

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"swarm-relay/domain"
	"time"

	"github.com/gorilla/websocket"
)

//go:embed ui/index.html
var indexHTML []byte

type statusProvider interface {
	Status() domain.RelayStatus
}

type statusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Room      string `json:"room,omitempty"`
	Peers     int    `json:"peers"`
	Clients   int    `json:"clients"`
}

// NewRouter serves the UI at "/", upgrades sockets on "/" and "/ws",
// reports liveness on "/status" and answers 404 everywhere else,
// plain requests to "/ws" included.
func NewRouter(log *slog.Logger, ws http.Handler, status statusProvider) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound(w)
			return
		}
		// The browser UI opens its socket on the page origin.
		if websocket.IsWebSocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(indexHTML)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(indexHTML); err != nil {
			log.Debug("Failed to write UI", "error", err)
		}
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			notFound(w)
			return
		}
		ws.ServeHTTP(w, r)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		current := status.Status()
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(statusResponse{
			Status:    "online",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Room:      current.Room,
			Peers:     current.Peers,
			Clients:   current.Clients,
		})
		if err != nil {
			log.Debug("Failed to write status", "error", err)
		}
	})
	return mux
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}
