// Package feed pushes live notification and escalation updates to portal
// clients over WebSocket.
package feed

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/metrics"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// writeTimeout bounds each broadcast write so one stalled client cannot
// hold up the rest.
const writeTimeout = 5 * time.Second

// Hub tracks connected feed clients and broadcasts updates to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades to WebSocket, registers the client, and blocks in a
// read loop until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("feed: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	h.register(conn)
	defer h.unregister(conn)

	ctx := r.Context()
	h.send(ctx, conn, ServerMessage{Type: "hello"})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("feed: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}
		if msg.Type == "ping" {
			h.send(ctx, conn, ServerMessage{Type: "pong"})
		}
	}
}

// BroadcastNotification pushes a new notification to every client.
func (h *Hub) BroadcastNotification(ctx context.Context, n types.Notification) {
	h.broadcast(ctx, ServerMessage{Type: "notification", Notification: &n})
}

// BroadcastEscalation pushes a fired escalation step to every client.
func (h *Hub) BroadcastEscalation(ctx context.Context, fired escalation.FiredStep) {
	h.broadcast(ctx, ServerMessage{Type: "escalation", Escalation: &fired})
}

// HandleEvent implements the event bus Handler interface, so the hub can
// subscribe directly for new-notification broadcasts.
func (h *Hub) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	h.BroadcastNotification(ctx, evt.Notification)
	return nil
}

func (h *Hub) broadcast(ctx context.Context, msg ServerMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.send(ctx, c, msg)
	}
}

func (h *Hub) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, conn, msg); err != nil {
		log.Printf("feed: write failed, dropping client: %v", err)
		h.unregister(conn)
		conn.CloseNow()
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	metrics.FeedClients.Set(float64(len(h.clients)))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.FeedClients.Set(float64(len(h.clients)))
	}
}
