package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message events sent to clients
const (
	EventHello = "hello"
	EventFrame = "frame"
	EventState = "state"
	EventError = "error"
)

// Message is what the server sends
type Message struct {
	Event    string              `json:"event"`
	ClientID string              `json:"client_id,omitempty"`
	Frame    *engine.Frame       `json:"frame,omitempty"`
	State    *service.BoardState `json:"state,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// ClientMessage is what a client sends: {"type":"key","key":"ArrowUp"},
// {"type":"start"} or {"type":"restart"}
type ClientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

// Metrics receives connection telemetry. telemetry.Collector implements it.
type Metrics interface {
	SetClients(n int)
	RecordMessage(direction string)
	RecordRateLimited()
}

type nopMetrics struct{}

func (nopMetrics) SetClients(int) {}

func (nopMetrics) RecordMessage(string) {}

func (nopMetrics) RecordRateLimited() {}

// Client represents a WebSocket client
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	mu      sync.Mutex
	mounted bool
}

// ID returns the client id
func (c *Client) ID() string {
	return c.id
}

// envelope is one outbound message; a nil client means every client
type envelope struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients map[*Client]bool
	count   int32

	// Outbound messages, broadcast and direct, in the order they were queued
	outbound chan envelope

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	log     logrus.FieldLogger
	metrics Metrics
}

// NewHub creates a new WebSocket hub. metrics may be nil.
func NewHub(logger logrus.FieldLogger, metrics Metrics) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		outbound:   make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.WithField("component", "ws_hub"),
		metrics:    metrics,
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.unregisterClient(client)
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case env := <-h.outbound:
			h.deliver(env)
		}
	}
}

// Register adds client unless the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client; it is a no-op once the hub has stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Clients returns the number of registered clients
func (h *Hub) Clients() int {
	return int(atomic.LoadInt32(&h.count))
}

// Broadcast queues msg for every client. It never blocks; when the hub is
// saturated the message is dropped.
func (h *Hub) Broadcast(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal broadcast message")
		return false
	}

	select {
	case h.outbound <- envelope{data: data}:
		return true
	default:
		h.log.WithField("event", msg.Event).Debug("hub saturated, message dropped")
		return false
	}
}

// registerClient adds a client
func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	n := atomic.AddInt32(&h.count, 1)
	h.metrics.SetClients(int(n))

	h.log.WithFields(logrus.Fields{"client_id": client.id, "clients": n}).Info("client registered")
}

// unregisterClient removes a client and closes its send channel
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	n := atomic.AddInt32(&h.count, -1)
	h.metrics.SetClients(int(n))

	h.log.WithFields(logrus.Fields{"client_id": client.id, "clients": n}).Info("client unregistered")
}

// broadcastMessage sends data to every client, dropping clients that fall behind
func (h *Hub) broadcastMessage(data []byte) {
	for client := range h.clients {
		select {
		case client.send <- data:
			h.metrics.RecordMessage("out")
		default:
			h.unregisterClient(client)
		}
	}
}

// sendDirect queues a message for one client only. It shares the broadcast
// queue, so the client sees both kinds in the order they were sent.
func (c *Client) sendDirect(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.hub.outbound <- envelope{client: c, data: data}:
	default:
	}
}

// deliver hands env to its client, or to everyone when it has none. Direct
// messages for clients that are gone are dropped.
func (h *Hub) deliver(env envelope) {
	if env.client == nil {
		h.broadcastMessage(env.data)
		return
	}
	if !h.clients[env.client] {
		return
	}
	select {
	case env.client.send <- env.data:
		h.metrics.RecordMessage("out")
	default:
		h.unregisterClient(env.client)
	}
}

// readPump pumps messages from the WebSocket connection to handle
func (c *Client) readPump(handle func(*Client, ClientMessage)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("client_id", c.id).Warn("websocket read error")
			}
			return
		}
		c.hub.metrics.RecordMessage("in")

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendDirect(&Message{Event: EventError, Error: "malformed message"})
			continue
		}
		handle(c, msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// BroadcastState sends state to every client
func (h *Hub) BroadcastState(state *service.BoardState) bool {
	return h.Broadcast(&Message{Event: EventState, State: state})
}
