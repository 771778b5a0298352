// Package api provides HTTP API handlers for the snapshot gallery.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ayusman/gentle/internal/store"
)

// SnapshotHandler handles HTTP requests for snapshot resources.
type SnapshotHandler struct {
	store   *store.Store
	request func()
}

// NewSnapshotHandler creates a new SnapshotHandler with the given store.
// request asks the running sketch for a new snapshot; nil disables POST.
func NewSnapshotHandler(s *store.Store, request func()) *SnapshotHandler {
	return &SnapshotHandler{store: s, request: request}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/snapshots, /api/snapshots/{id} or /api/snapshots/{id}/image
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/image"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type snapshotResponse struct {
	ID        string `json:"id"`
	Image     string `json:"image"`
	Grip      bool   `json:"grip"`
	Particles int    `json:"particles"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Snapshot to a snapshotResponse.
func toResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		Image:     s.Image,
		Grip:      s.Grip,
		Particles: s.Particles,
		Width:     s.Width,
		Height:    s.Height,
		URL:       "/api/snapshots/" + s.ID + "/image",
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/snapshots and returns all snapshots, newest first.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{
		Snapshots: make([]snapshotResponse, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		response.Snapshots = append(response.Snapshots, toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots. The sketch saves on its next frame.
func (h *SnapshotHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.request == nil {
		writeError(w, http.StatusServiceUnavailable, "Sketch is not running")
		return
	}

	h.request()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

// get handles GET /api/snapshots/{id}.
func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(snap))
}

// image handles GET /api/snapshots/{id}/image and serves the PNG.
func (h *SnapshotHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if _, err := os.Stat(snap.Path); err != nil {
		writeError(w, http.StatusNotFound, "Snapshot file missing")
		return
	}
	http.ServeFile(w, r, snap.Path)
}

// delete handles DELETE /api/snapshots/{id}, removing the row and the file.
func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	snap, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if err := h.store.Snapshots().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}

	if err := os.Remove(snap.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to remove snapshot file %s: %v", snap.Path, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SnapshotHandler) lookup(w http.ResponseWriter, id string) (*store.Snapshot, bool) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return nil, false
	}
	return snap, true
}
