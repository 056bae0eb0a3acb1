// Package broadcast pushes room translations to connected WebSocket clients.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"speech-translation-service/internal/models"
	"speech-translation-service/internal/observability/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 32
)

type client struct {
	roomID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub manages WebSocket connections grouped by room.
type Hub struct {
	rooms      map[string]map[*client]struct{}
	broadcast  chan models.TranslationEvent
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	mu   sync.RWMutex
	done chan struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Hub{
		rooms:      make(map[string]map[*client]struct{}),
		broadcast:  make(chan models.TranslationEvent, 100),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			// Origin checks belong to the upstream gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: m,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Run dispatches registrations and events until ctx is done. A hub runs
// once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*client]struct{})
			h.mu.Unlock()
			h.metrics.RecordBroadcastClients(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.roomID] == nil {
				h.rooms[c.roomID] = make(map[*client]struct{})
			}
			h.rooms[c.roomID][c] = struct{}{}
			total := h.countLocked()
			h.mu.Unlock()
			h.metrics.RecordBroadcastClients(total)
			h.logger.Debug().Str("roomId", c.roomID).Int("total", total).Msg("Client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			total := h.countLocked()
			h.mu.Unlock()
			h.metrics.RecordBroadcastClients(total)
			h.logger.Debug().Str("roomId", c.roomID).Int("total", total).Msg("Client disconnected")

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to marshal event")
				continue
			}
			h.mu.Lock()
			for c := range h.rooms[event.RoomID] {
				select {
				case c.send <- payload:
				default:
					// Slow consumer.
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
			h.metrics.RecordBroadcast()
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	clients, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
}

func (h *Hub) countLocked() int {
	n := 0
	for _, clients := range h.rooms {
		n += len(clients)
	}
	return n
}

// Clients returns the number of clients connected to roomID.
func (h *Hub) Clients(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Publish queues event for delivery to its room.
func (h *Hub) Publish(ctx context.Context, event models.TranslationEvent) error {
	if event.RoomID == "" {
		return nil
	}
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name returns the store name.
func (h *Hub) Name() string {
	return "broadcast"
}

// Append implements history.Store for room-scoped records; user-scoped
// records have no audience and are ignored.
func (h *Hub) Append(ctx context.Context, scope models.Scope, rec models.TranslationRecord) error {
	if !scope.IsRoom() {
		return nil
	}
	return h.Publish(ctx, models.TranslationEvent{
		EventType: models.EventRoomTranslationCreated,
		EventID:   rec.ID,
		RoomID:    scope.RoomID,
		UserID:    scope.UserID,
		Timestamp: time.Now().UnixMilli(),
		Record:    rec,
	})
}

// ServeWS upgrades the request and subscribes the connection to roomID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	c := &client{roomID: roomID, conn: conn, send: make(chan []byte, clientSendSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump drains client frames so control messages are processed and
// disconnects are noticed.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
