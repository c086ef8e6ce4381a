// Package notify keeps the registry of connected update clients and fans
// entry changes out to them over WebSockets.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	tokenGenerator "github.com/sethvargo/go-password/password"

	"todolist/backend/internal/api"
	"todolist/backend/internal/logger"
	"todolist/backend/internal/metrics"
	"todolist/backend/internal/model"
)

const (
	DefaultTokenTTL   = 2 * time.Minute
	DefaultBufferSize = 16

	tokenLength = 48
	tokenDigits = 10
)

// ErrUnknownToken is returned when a connect token was never issued, has
// already been used or has expired.
var ErrUnknownToken = errors.New("unknown channel token")

// Channel is what a client needs to connect: its id and a one-shot token.
type Channel struct {
	ClientID string
	Token    string
	Expires  time.Time
}

// Client is a registered update client. Messages are queued on a bounded
// buffer drained by the connection's writer.
type Client struct {
	id   string
	send chan []byte
}

func (c *Client) ID() string { return c.id }

// Messages yields queued payloads and is closed when the client is removed.
func (c *Client) Messages() <-chan []byte { return c.send }

type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	pending map[string]Channel

	tokenTTL   time.Duration
	bufferSize int
	now        func() time.Time
}

type Option func(*Hub)

func WithTokenTTL(ttl time.Duration) Option {
	return func(h *Hub) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		pending:    make(map[string]Channel),
		tokenTTL:   DefaultTokenTTL,
		bufferSize: DefaultBufferSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open issues a new client id and the token that connects it.
func (h *Hub) Open() (Channel, error) {
	token, err := tokenGenerator.Generate(tokenLength, tokenDigits, 0, false, true)
	if err != nil {
		return Channel{}, fmt.Errorf("generate channel token: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.expireLocked()
	ch := Channel{
		ClientID: uuid.NewString(),
		Token:    token,
		Expires:  h.now().Add(h.tokenTTL),
	}
	h.pending[token] = ch
	return ch, nil
}

// Claim consumes token and returns the client id it was issued for.
func (h *Hub) Claim(token string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.expireLocked()
	ch, ok := h.pending[token]
	if !ok {
		return "", ErrUnknownToken
	}
	delete(h.pending, token)
	return ch.ClientID, nil
}

func (h *Hub) expireLocked() {
	now := h.now()
	for token, ch := range h.pending {
		if !now.Before(ch.Expires) {
			delete(h.pending, token)
		}
	}
}

// Add registers id. Adding an id that is already registered returns the
// existing client.
func (h *Hub) Add(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		return c
	}
	c := &Client{id: id, send: make(chan []byte, h.bufferSize)}
	h.clients[id] = c
	metrics.SetUpdateClients(len(h.clients))
	logger.Debug("update client added", "module", "notify", "action", "add", "resource", "client", "result", "ok", "client_id", id)
	return c
}

// Remove unregisters id and closes its queue. Removing an unknown id is a
// no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	metrics.SetUpdateClients(len(h.clients))
	logger.Debug("update client removed", "module", "notify", "action", "remove", "resource", "client", "result", "ok", "client_id", id)
}

// Len reports the number of registered clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues change for every registered client without blocking. A
// client whose buffer is full is dropped.
func (h *Hub) Publish(change model.Change) {
	payload, err := json.Marshal(api.FromChange(change))
	if err != nil {
		logger.Error("encode update", "module", "notify", "action", "publish", "resource", "update", "result", "failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- payload:
			metrics.RecordNotification("sent")
		default:
			metrics.RecordNotification("dropped")
			logger.Warn("update client too slow", "module", "notify", "action", "publish", "resource", "client", "result", "dropped", "client_id", id)
			h.removeLocked(id)
		}
	}
}

// Close removes every client and discards pending tokens.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id := range h.clients {
		h.removeLocked(id)
	}
	clear(h.pending)
}
