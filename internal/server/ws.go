package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/session"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one message of the /api/events feed.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types.
const (
	EventDetections = "detections"
	EventHands      = "hands"
	EventStatus     = "status"
	EventMetrics    = "metrics"
	EventError      = "error"
)

// EventHub broadcasts session events to WebSocket clients. It is a session.Sink.
type EventHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	log     logrus.FieldLogger
}

// NewEventHub creates an EventHub with no clients.
func NewEventHub(log logrus.FieldLogger) *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]bool),
		log:     log.WithField("component", "events"),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
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
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one event to every client. Clients that fail to receive it are dropped.
func (h *EventHub) Broadcast(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.WithError(err).Debug("dropping websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *EventHub) OnDetections(r session.Result) { h.Broadcast(EventDetections, r) }

func (h *EventHub) OnHandUpdate(u session.HandUpdate) { h.Broadcast(EventHands, u) }

func (h *EventHub) OnStatusChange(st session.Status) { h.Broadcast(EventStatus, st) }

func (h *EventHub) OnMetrics(m session.Metrics) { h.Broadcast(EventMetrics, m) }

func (h *EventHub) OnError(err error) {
	h.Broadcast(EventError, map[string]string{"error": err.Error()})
}
