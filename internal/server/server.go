package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codepair/realtime/internal/docsync"
	"codepair/realtime/internal/presence"
)

// Server routes incoming connections by path: /sync-<session> carries
// document sync, /presence carries the presence channel, everything
// else is plain HTTP. Upgrade requests to unknown paths are torn down
// at the TCP level without a websocket handshake.
type Server struct {
	sync     *docsync.Handler
	presence *presence.Handler
	ping     func(context.Context) error
}

// New builds the router. ping is optional; when set it backs the
// health endpoint.
func New(sync *docsync.Handler, pres *presence.Handler, ping func(context.Context) error) http.Handler {
	s := &Server{sync: sync, presence: pres, ping: ping}

	r := mux.NewRouter()
	r.PathPrefix("/sync-").HandlerFunc(s.handleSync)
	r.PathPrefix("/presence").Handler(pres)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFoundHandler = http.HandlerFunc(s.handleUnknown)
	return r
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/sync-")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		log.Printf("server: destroying connection to malformed sync path %q", r.URL.Path)
		destroy(w)
		return
	}
	s.sync.ServeSession(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "degraded", "error": err.Error()}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleUnknown closes upgrade attempts to unrecognized paths without
// completing a handshake; plain requests get a JSON 404.
func (s *Server) handleUnknown(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		log.Printf("server: destroying upgrade to unknown path %q", r.URL.Path)
		destroy(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
}

func destroy(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}
