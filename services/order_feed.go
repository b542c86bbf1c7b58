package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MightyWarner19/grainlly/models"
)

// FeedConn is the part of a websocket connection the hub writes to.
type FeedConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// OrderFeedHub pushes order events to connected back-office dashboards.
// It is registered as a Notifier alongside the other channels.
type OrderFeedHub struct {
	mu      sync.Mutex
	clients map[FeedConn]struct{}
	logger  *zap.Logger
}

func NewOrderFeedHub(logger *zap.Logger) *OrderFeedHub {
	return &OrderFeedHub{clients: make(map[FeedConn]struct{}), logger: logger}
}

func (h *OrderFeedHub) Register(c FeedConn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *OrderFeedHub) Unregister(c FeedConn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		_ = c.Close()
	}
	h.mu.Unlock()
}

func (h *OrderFeedHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify broadcasts order events. Connections that fail a write are dropped.
func (h *OrderFeedHub) Notify(_ context.Context, event string, payload interface{}) error {
	if _, ok := payload.(models.OrderEvent); !ok {
		return nil
	}
	data, err := json.Marshal(envelope{Event: event, Timestamp: time.Now().UnixMilli(), Data: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("Dropping order feed client", zap.Error(err))
			delete(h.clients, c)
			_ = c.Close()
		}
	}
	return nil
}
