package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/logging"
)

const (
	sendBuffer   = 256
	pongWait     = 60 * time.Second
	pingInterval = 50 * time.Second
	writeWait    = 10 * time.Second
	maxMessage   = 64 * 1024
)

// Message is the envelope for every event in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler reacts to viewer lifecycle and inbound events.
// admin reports whether the connection presented the admin token.
type Handler interface {
	OnConnect(viewerID string, admin bool)
	OnMessage(viewerID, event string, data json.RawMessage)
	OnDisconnect(viewerID string)
}

type client struct {
	id    string
	admin bool
	conn  *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// offer queues payload without blocking; false when the client is closed or its buffer is full.
func (c *client) offer(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Hub owns live-view WebSocket connections keyed by viewer id.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*client
	handler   Handler
	authorize func(r *http.Request) bool
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// SetHandler installs the inbound handler; call before serving.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// SetAuthorizer installs the admin check run on every upgrade request.
// Without one no viewer is an admin.
func (h *Hub) SetAuthorizer(authorize func(r *http.Request) bool) {
	h.mu.Lock()
	h.authorize = authorize
	h.mu.Unlock()
}

func (h *Hub) isAdmin(r *http.Request) bool {
	h.mu.RLock()
	authorize := h.authorize
	h.mu.RUnlock()
	return authorize != nil && authorize(r)
}

func (h *Hub) currentHandler() Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	admin := h.isAdmin(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), admin: admin, conn: conn, send: make(chan []byte, sendBuffer)}
	logger := logging.WithViewer(h.logger, c.id)

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	logger.Info().Bool("admin", admin).Msg("Viewer connected")

	go h.writePump(c, logger)

	if handler := h.currentHandler(); handler != nil {
		handler.OnConnect(c.id, c.admin)
	}

	h.readPump(c, logger)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()

	if handler := h.currentHandler(); handler != nil {
		handler.OnDisconnect(c.id)
	}
	logger.Info().Msg("Viewer disconnected")
}

func (h *Hub) readPump(c *client, logger zerolog.Logger) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
		if msg.Event == "" {
			continue
		}
		logger.Debug().Str("event", msg.Event).Msg("Received viewer event")

		if handler := h.currentHandler(); handler != nil {
			handler.OnMessage(c.id, msg.Event, msg.Data)
		}
	}
}

func (h *Hub) writePump(c *client, logger zerolog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: raw})
}

// Send delivers one event to a viewer. It reports false when the viewer is gone or too slow.
func (h *Hub) Send(viewerID, event string, data any) bool {
	payload, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return false
	}

	h.mu.RLock()
	c, ok := h.clients[viewerID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.offer(payload)
}

// SendTo delivers one event to each listed viewer, encoding it once.
func (h *Hub) SendTo(viewerIDs []string, event string, data any) {
	if len(viewerIDs) == 0 {
		return
	}
	payload, err := encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(viewerIDs))
	for _, id := range viewerIDs {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.offer(payload) {
			h.logger.Debug().Str("viewer_id", c.id).Str("event", event).Msg("Viewer buffer full, dropping event")
		}
	}
}

// Broadcast delivers one event to every connected viewer.
func (h *Hub) Broadcast(event string, data any) {
	h.SendTo(h.Viewers(), event, data)
}

// Viewers lists connected viewer ids.
func (h *Hub) Viewers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		c.conn.Close()
	}
	h.logger.Info().Int("viewers", len(clients)).Msg("Closed all WebSocket connections")
}
