// Package server provides the optional HTTP viewer for the sketch.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/gentle/internal/server/api"
	"github.com/ayusman/gentle/internal/sketch"
	"github.com/ayusman/gentle/internal/store"
)

// Source is the running sketch as seen by the HTTP viewer.
type Source interface {
	State() sketch.State
	Frame() ([]byte, bool)
	RequestSnapshot()
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Source    Source
}

// Server represents the HTTP server for the sketch.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register snapshot API handler if Store is configured
	if s.config.Store != nil {
		var request func()
		if s.config.Source != nil {
			request = s.config.Source.RequestSnapshot
		}
		snapshots := api.NewSnapshotHandler(s.config.Store, request)
		s.mux.Handle("/api/snapshots", snapshots)
		s.mux.Handle("/api/snapshots/", snapshots)
	}

	// Register live endpoints if a running sketch is attached
	if s.config.Source != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Source))

		s.landmarks = NewLandmarksHandler(s.config.Source)
		s.mux.Handle("/api/landmarks", s.landmarks)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleState handles GET requests to /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.config.Source.State()
	response := map[string]interface{}{
		"grip":      st.Grip,
		"hands":     len(st.Hands),
		"particles": st.Particles,
		"image":     st.Image,
		"paused":    st.Paused,
		"width":     st.Width,
		"height":    st.Height,
		"frame":     st.Frame,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops the landmark broadcaster.
func (s *Server) Close() {
	if s.landmarks != nil {
		s.landmarks.Close()
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("HTTP viewer listening on %s", addr)

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
