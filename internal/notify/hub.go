// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// RelayChannel is the Valkey pub/sub channel shared by all instances.
const RelayChannel = "cognitio:notifications"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16

	// adminCheckTimeout bounds the admin re-check made per admin broadcast.
	adminCheckTimeout = 2 * time.Second
)

// AdminCheck reports whether a connected user still holds admin rights.
// It is consulted for every admin broadcast, so revoked rights take
// effect without the stream reconnecting.
type AdminCheck func(ctx context.Context) bool

// envelope wraps an event on the relay channel. Origin lets an instance
// skip the copies of its own events.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

type client struct {
	userID uuid.UUID
	admin  AdminCheck // nil for members
	send   chan []byte
}

func (c *client) wants(ctx context.Context, ev Event) bool {
	switch ev.Audience {
	case AudienceAdmins:
		if c.admin == nil {
			return false
		}
		ctx, cancel := context.WithTimeout(ctx, adminCheckTimeout)
		defer cancel()
		return c.admin(ctx)
	default:
		return ev.Recipient == c.userID
	}
}

// Hub fans events out to connected websocket clients. With a Valkey
// client attached, events are also published on RelayChannel and events
// from other instances are delivered locally by Run.
type Hub struct {
	id       string
	rdb      *redis.Client
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub. rdb may be nil for a single-instance deployment.
// allowOrigin reports whether a browser origin may open a stream; nil
// accepts same-origin requests only.
func NewHub(rdb *redis.Client, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		id:  uuid.NewString(),
		rdb: rdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Notify delivers ev to local clients and publishes it for other instances.
func (h *Hub) Notify(ctx context.Context, ev Event) {
	h.deliver(ctx, ev)
	if h.rdb == nil {
		return
	}
	data, err := json.Marshal(envelope{Origin: h.id, Event: ev})
	if err != nil {
		slog.Error("encode notification", "error", err)
		return
	}
	if err := h.rdb.Publish(ctx, RelayChannel, data).Err(); err != nil {
		slog.Warn("relay notification", "error", err)
	}
}

// Run consumes the relay channel until ctx is cancelled. It returns
// immediately when no Valkey client is attached.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, RelayChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("decode relayed notification", "error", err)
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.deliver(ctx, env.Event)
		}
	}
}

// Clients returns the number of connected streams.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encode notification", "error", err)
		return
	}

	// Admin checks may hit storage, so recipients are picked outside the lock.
	h.mu.RLock()
	candidates := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		candidates = append(candidates, c)
	}
	h.mu.RUnlock()

	var targets []*client
	for _, c := range candidates {
		if c.wants(ctx, ev) {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range targets {
		if _, ok := h.clients[c]; !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer: drop it, the browser reconnects.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Serve upgrades the request and streams the user's events until the
// connection closes. admin is nil for members.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID, admin AdminCheck) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{userID: userID, admin: admin, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

// readPump discards inbound frames and unregisters the client on close.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
