package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"collabolab/internal/logger"
	"collabolab/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var ErrNotConnected = errors.New("device not connected")

// Message is the payload delivered to a device.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type envelope struct {
	Topic string `json:"topic,omitempty"`
	Message
}

type client struct {
	conn  *websocket.Conn
	token string
	send  chan []byte
	done  chan struct{}
	once  sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub delivers messages to devices connected over WebSocket. Devices are
// addressed by the token they connected with; topics fan out to every token
// subscribed to them. Subscriptions outlive connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	topics   map[string]map[string]struct{}
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		topics:  make(map[string]map[string]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Send delivers msg to every connection of the device token.
func (h *Hub) Send(ctx context.Context, token string, msg Message) error {
	return h.deliver(ctx, token, envelope{Message: msg})
}

// SendToTopic delivers msg to every connected subscriber of topic.
// Subscribers without a live connection are skipped.
func (h *Hub) SendToTopic(ctx context.Context, topic string, msg Message) error {
	h.mu.RLock()
	tokens := make([]string, 0, len(h.topics[topic]))
	for token := range h.topics[topic] {
		tokens = append(tokens, token)
	}
	h.mu.RUnlock()

	var errs error
	for _, token := range tokens {
		err := h.deliver(ctx, token, envelope{Topic: topic, Message: msg})
		if err != nil && !errors.Is(err, ErrNotConnected) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (h *Hub) deliver(ctx context.Context, token string, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[token]))
	for c := range h.clients[token] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return ErrNotConnected
	}

	for _, c := range conns {
		select {
		case c.send <- data:
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, token, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]struct{})
	}
	h.topics[topic][token] = struct{}{}
	return nil
}

func (h *Hub) Unsubscribe(_ context.Context, token, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, token)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	return nil
}

// Subscribed reports whether token is subscribed to topic.
func (h *Hub) Subscribed(token, topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.topics[topic][token]
	return ok
}

// Connected reports whether the token has at least one live connection.
func (h *Hub) Connected(token string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[token]) > 0
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.token] == nil {
		h.clients[c.token] = make(map[*client]struct{})
	}
	h.clients[c.token][c] = struct{}{}
	h.mu.Unlock()
	metrics.PushConnections.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.token]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			metrics.PushConnections.Dec()
		}
		if len(conns) == 0 {
			delete(h.clients, c.token)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Close drops every live connection.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*client
	for _, conns := range h.clients {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.unregister(c)
		c.conn.Close()
	}
}

// ServeWS upgrades the request and streams messages for the device token
// given in the "token" query parameter until the connection drops.
func (h *Hub) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{
		conn:  conn,
		token: token,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
	h.register(cl)

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket closed", "error", err)
			}
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
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				h.unregister(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
