package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
)

// Key message rate limit per client
const (
	DefaultKeyRate  = 20
	DefaultKeyBurst = 5
)

// Handler upgrades /ws requests and routes client messages to the board service
type Handler struct {
	hub      *Hub
	svc      service.BoardService
	surface  engine.Surface
	log      logrus.FieldLogger
	keyRate  rate.Limit
	keyBurst int
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithKeyRate sets the per-client key message rate
func WithKeyRate(perSecond float64, burst int) HandlerOption {
	return func(h *Handler) {
		h.keyRate = rate.Limit(perSecond)
		h.keyBurst = burst
	}
}

// WithLogger sets the handler logger
func WithLogger(logger logrus.FieldLogger) HandlerOption {
	return func(h *Handler) {
		h.log = logger.WithField("component", "ws")
	}
}

// NewHandler creates a handler mounting surface for clients that send a size
func NewHandler(hub *Hub, svc service.BoardService, surface engine.Surface, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:      hub,
		svc:      svc,
		surface:  surface,
		log:      hub.log,
		keyRate:  DefaultKeyRate,
		keyBurst: DefaultKeyBurst,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles /ws?size=N&profile=name. A size mounts the board on the
// shared remote surface; without one the client only spectates.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "size must be a positive integer", http.StatusBadRequest)
			return
		}
		size = n
	}
	profile := r.URL.Query().Get("profile")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(h.keyRate, h.keyBurst),
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	client.sendDirect(&Message{Event: EventHello, ClientID: client.id})

	// The request context ends with ServeHTTP; client work outlives it
	ctx := context.Background()
	if size > 0 {
		h.mount(ctx, client, size, profile)
	} else if state, err := h.svc.State(ctx); err == nil {
		client.sendDirect(&Message{Event: EventState, State: state})
	}

	go client.writePump()
	go func() {
		client.readPump(func(c *Client, msg ClientMessage) { h.handleMessage(ctx, c, msg) })
		h.disconnect(ctx, client)
	}()
}

func (h *Handler) mount(ctx context.Context, c *Client, size int, profile string) {
	state, err := h.svc.Mount(ctx, service.MountRequest{
		Owner:   c.id,
		Surface: h.surface,
		Size:    size,
		Profile: profile,
	})
	if err != nil {
		h.log.WithError(err).WithField("client_id", c.id).Warn("mount failed")
		c.sendDirect(&Message{Event: EventError, Error: err.Error()})
		return
	}

	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	h.hub.Broadcast(&Message{Event: EventState, State: state})
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, msg ClientMessage) {
	switch msg.Type {
	case "key":
		if !c.limiter.Allow() {
			h.hub.metrics.RecordRateLimited()
			return
		}
		if _, err := h.svc.Press(ctx, msg.Key); err != nil {
			c.sendDirect(&Message{Event: EventError, Error: err.Error()})
		}

	case "start":
		h.reply(c, func() (*service.BoardState, error) { return h.svc.Start(ctx, service.StartRequest{}) }, true)

	case "restart":
		h.reply(c, func() (*service.BoardState, error) { return h.svc.Restart(ctx) }, true)

	case "state":
		h.reply(c, func() (*service.BoardState, error) { return h.svc.State(ctx) }, false)

	default:
		c.sendDirect(&Message{Event: EventError, Error: "unknown message type: " + msg.Type})
	}
}

// reply runs op and sends the state to c, or to everyone when broadcast is set
func (h *Handler) reply(c *Client, op func() (*service.BoardState, error), broadcast bool) {
	state, err := op()
	if err != nil {
		c.sendDirect(&Message{Event: EventError, Error: err.Error()})
		return
	}
	msg := &Message{Event: EventState, State: state}
	if broadcast {
		h.hub.Broadcast(msg)
		return
	}
	c.sendDirect(msg)
}

// disconnect unregisters c and unmounts the board if c still owns it
func (h *Handler) disconnect(ctx context.Context, c *Client) {
	h.hub.Unregister(c)
	c.conn.Close()

	c.mu.Lock()
	mounted := c.mounted
	c.mu.Unlock()
	if !mounted {
		return
	}

	err := h.svc.Unmount(ctx, c.id)
	switch {
	case err == nil:
		if state, err := h.svc.State(ctx); err == nil {
			h.hub.Broadcast(&Message{Event: EventState, State: state})
		}
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrNotMounted):
		h.log.WithField("client_id", c.id).Debug("binding already moved on, nothing to unmount")
	default:
		h.log.WithError(err).WithField("client_id", c.id).Warn("unmount failed")
	}
}
