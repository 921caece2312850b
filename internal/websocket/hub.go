package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Message represents a WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// incomingMessage is a message from a client with its payload left raw for
// the handler to decode.
type incomingMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc handles one incoming message type from a client.
type HandlerFunc func(c *Client, payload json.RawMessage)

// Hub manages WebSocket connections and broadcasts.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	dropped    atomic.Int64
	mu         sync.RWMutex
	logger     zerolog.Logger

	handlersMu   sync.RWMutex
	handlers     map[string]HandlerFunc
	onConnect    func(*Client)
	onDisconnect func(*Client)
}

// Client represents a WebSocket connection.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
		handlers:   make(map[string]HandlerFunc),
	}
}

// Handle registers the handler for an incoming message type. Handlers run on
// the sending client's read goroutine, so messages from one client are
// handled in order.
func (h *Hub) Handle(msgType string, fn HandlerFunc) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[msgType] = fn
}

// OnConnect registers a callback run when a client is registered.
func (h *Hub) OnConnect(fn func(*Client)) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.onConnect = fn
}

// OnDisconnect registers a callback run after a client is removed.
func (h *Hub) OnDisconnect(fn func(*Client)) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.onDisconnect = fn
}

// Run starts the hub's main loop. It returns when ctx is cancelled, closing
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("client", client.ID).Msg("Client connected")

			h.handlersMu.RLock()
			fn := h.onConnect
			h.handlersMu.RUnlock()
			if fn != nil {
				fn(client)
			}

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn().Str("client", client.ID).Msg("Dropping slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	h.logger.Debug().Str("client", client.ID).Msg("Client disconnected")

	h.handlersMu.RLock()
	fn := h.onDisconnect
	h.handlersMu.RUnlock()
	if fn != nil {
		fn(client)
	}
}

// dispatch routes a raw client message to its registered handler.
func (h *Hub) dispatch(c *Client, data []byte) {
	var msg incomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Debug().Err(err).Str("client", c.ID).Msg("Ignoring malformed message")
		return
	}

	h.handlersMu.RLock()
	fn, ok := h.handlers[msg.Type]
	h.handlersMu.RUnlock()
	if !ok {
		h.logger.Debug().Str("type", msg.Type).Msg("No handler for message type")
		return
	}
	fn(c, msg.Payload)
}

// Broadcast sends a message to all connected clients. It never blocks; when
// the queue is full the message is dropped and counted. Drops are not logged
// because log lines are themselves broadcast.
func (h *Hub) Broadcast(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode broadcast")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns how many broadcasts were dropped on a full queue.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// Send queues a message for this client only. Messages to a disconnected or
// backed-up client are dropped.
func (c *Client) Send(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn().Str("client", c.ID).Str("type", msgType).Msg("Client queue full, dropping message")
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// readPump reads messages from the connection and dispatches them.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client", c.ID).Msg("Unexpected close")
			}
			break
		}
		c.hub.dispatch(c, message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
