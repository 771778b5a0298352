package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gentle/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// broadcastInterval paces the landmark broadcast at about 15 FPS.
const broadcastInterval = 66 * time.Millisecond

// landmarksMessage is sent to every client on each broadcast tick.
type landmarksMessage struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Grip      bool                     `json:"grip"`
	MSE       float64                  `json:"mse"`
	Particles int                      `json:"particles"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarksHandler broadcasts hand landmarks and the grip signal via WebSocket.
type LandmarksHandler struct {
	source  Source
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	stop    chan struct{}
	once    sync.Once
}

// NewLandmarksHandler creates a LandmarksHandler and starts its broadcaster.
func NewLandmarksHandler(source Source) *LandmarksHandler {
	h := &LandmarksHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
		stop:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcaster. Connected clients are left to the HTTP server.
func (h *LandmarksHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

// broadcast sends the latest sketch state to all connected clients.
func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		st := h.source.State()
		msg, err := json.Marshal(landmarksMessage{
			Hands:     st.Hands,
			Grip:      st.Grip,
			MSE:       st.MSE,
			Particles: st.Particles,
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("encode landmarks: %v", err)
			continue
		}

		// Writes hold the lock: a websocket connection allows one writer at a time.
		h.mu.Lock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.Unlock()
	}
}
