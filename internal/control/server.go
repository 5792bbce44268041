// Package control exposes the daemon's HTTP control surface: starting and
// hot-swapping shows, stopping them, and querying status.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/moricard/tabletopd/internal/engine"
	"github.com/moricard/tabletopd/internal/presets"
	"github.com/moricard/tabletopd/internal/state"
)

// Server is the HTTP control server. It is the only writer of the persisted
// show state.
type Server struct {
	addr    string
	engine  *engine.Engine
	presets *presets.Registry
	store   *state.Store

	mu     sync.Mutex
	active *state.Show

	httpServer *http.Server
}

// NewServer creates a control server.
func NewServer(host string, port int, eng *engine.Engine, reg *presets.Registry, store *state.Store) *Server {
	return &Server{
		addr:    fmt.Sprintf("%s:%d", host, port),
		engine:  eng,
		presets: reg,
		store:   store,
	}
}

// Restore restarts the persisted show, if any. Called once on boot so a
// daemon restart does not leave the table dark.
func (s *Server) Restore() error {
	show, err := s.store.Load()
	if err != nil {
		return err
	}
	if show == nil {
		return nil
	}

	log.Info().
		Str("preset", show.Preset).
		Str("session_id", show.SessionID).
		Msg("Restoring persisted show")

	s.engine.Start(show.Config)

	s.mu.Lock()
	s.active = show
	s.mu.Unlock()
	return nil
}

// Handler returns the control server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /show", s.handleShow)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /presets", s.handlePresets)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run starts the control server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting control server")

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Control server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// showRequest starts a show from a named preset or an inline configuration.
type showRequest struct {
	Preset string         `json:"preset,omitempty"`
	Config *engine.Config `json:"config,omitempty"`
}

type showResponse struct {
	SessionID string `json:"session_id"`
	Preset    string `json:"preset,omitempty"`
	Swapped   bool   `json:"swapped"`
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := req.Config
	if req.Preset != "" {
		preset, ok := s.presets.Get(req.Preset)
		if !ok {
			httpError(w, http.StatusNotFound, fmt.Sprintf("unknown preset %q", req.Preset))
			return
		}
		cfg = preset
	}
	if cfg == nil {
		httpError(w, http.StatusBadRequest, "request must carry a preset name or an inline config")
		return
	}

	swapped := s.engine.IsRunning()
	if swapped {
		// Hot-swap: the running loop adopts the new config at the top of
		// its next pass, lights stay on throughout.
		s.engine.UpdateConfig(cfg)
	} else {
		s.engine.Start(cfg)
	}

	show := &state.Show{
		SessionID: uuid.NewString(),
		Preset:    req.Preset,
		Config:    cfg,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.active = show
	s.mu.Unlock()

	if err := s.store.Save(show); err != nil {
		log.Warn().Err(err).Msg("Failed to persist show state")
	}

	log.Info().
		Str("preset", req.Preset).
		Str("session_id", show.SessionID).
		Bool("swapped", swapped).
		Msg("Show started")

	writeJSON(w, http.StatusOK, showResponse{
		SessionID: show.SessionID,
		Preset:    req.Preset,
		Swapped:   swapped,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()

	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear show state")
	}

	log.Info().Msg("Show stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

type statusResponse struct {
	Running   bool   `json:"running"`
	Preset    string `json:"preset,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Running: s.engine.IsRunning()}

	s.mu.Lock()
	if s.active != nil {
		resp.Preset = s.active.Preset
		resp.SessionID = s.active.SessionID
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"presets": s.presets.Names()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
