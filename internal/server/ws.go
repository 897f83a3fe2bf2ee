package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHandler broadcasts the hands-free session status via WebSocket.
type StatusHandler struct {
	controller *session.Controller
	interval   time.Duration
	clients    map[*websocket.Conn]bool
	mu         sync.RWMutex
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewStatusHandler creates a new StatusHandler for the given controller.
func NewStatusHandler(c *session.Controller) *StatusHandler {
	h := &StatusHandler{
		controller: c,
		interval:   time.Second,
		clients:    make(map[*websocket.Conn]bool),
		stop:       make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close stops the broadcast loop. Safe to call more than once.
func (h *StatusHandler) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Send the current status before registering the connection, so this
	// write cannot race the broadcast ticker. After registration the ticker
	// goroutine is the connection's only writer.
	if msg, err := h.statusMessage(); err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

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

// broadcast sends the session status to all connected clients until Close.
func (h *StatusHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		h.mu.RLock()
		empty := len(h.clients) == 0
		h.mu.RUnlock()
		if empty {
			continue
		}

		msg, err := h.statusMessage()
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}

func (h *StatusHandler) statusMessage() ([]byte, error) {
	return json.Marshal(map[string]any{
		"status":    h.controller.Status(),
		"timestamp": time.Now().UnixMilli(),
	})
}
