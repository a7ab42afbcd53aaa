package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/flow-controller/internal/model"
	"github.com/thatsimonsguy/flow-controller/internal/status"
)

// Server exposes controller state over HTTP. It is read-only: nothing here
// can start or stop a measurement.
type Server struct {
	tracker  *status.Tracker
	triggers []model.Trigger
	httpSrv  *http.Server
}

type StatusResponse struct {
	status.Snapshot
	UptimeSeconds int64 `json:"uptime_seconds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(tracker *status.Tracker, triggers []model.Trigger) *Server {
	return &Server{
		tracker:  tracker,
		triggers: triggers,
	}
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/triggers", s.getTriggers).Methods(http.MethodGet)
	r.HandleFunc("/api/triggers/{id}", s.getTrigger).Methods(http.MethodGet)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		r.ServeHTTP(w, req)
	})
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("address", addr).Msg("Starting status API server")

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status API: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Snapshot:      snap,
		UptimeSeconds: int64(snap.Uptime().Seconds()),
	})
}

func (s *Server) getTriggers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.triggers)
}

func (s *Server) getTrigger(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := model.FindTrigger(s.triggers, id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Trigger not found")
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
