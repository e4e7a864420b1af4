// Package adminhttp exposes a relay's health and stats over a small JSON
// HTTP API, in the shape of the teacher's cmd/explorer server.
package adminhttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"protocol-v2/relay"
)

// Server exposes one relay's health/stats over HTTP.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	relay      *relay.Relay
	startedAt  time.Time
}

// NewServer constructs the router and HTTP server for relay r, listening
// on addr.
func NewServer(addr string, r *relay.Relay) *Server {
	s := &Server{router: mux.NewRouter(), relay: r, startedAt: time.Now()}
	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s
}

// Start blocks serving HTTP until the server is shut down or fails.
func (s *Server) Start() error { return s.httpServer.ListenAndServe() }

// Close shuts the HTTP server down.
func (s *Server) Close() error { return s.httpServer.Close() }

func (s *Server) routes() {
	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Info("adminhttp: request served")
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_seconds"`
	Domain  string `json:"domain"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{
		Status:  "ok",
		UptimeS: int64(time.Since(s.startedAt).Seconds()),
		Domain:  s.relay.Domain.Domain.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.relay.StatsSnapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
