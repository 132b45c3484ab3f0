package handlers

import (
	"github.com/gofiber/contrib/websocket"

	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

const feedBuffer = 64

// FeedHandler streams cache changes to websocket clients so open views stay
// current without polling.
type FeedHandler struct {
	engine SyncEngine
	logger *logger.Logger
}

func NewFeedHandler(engine SyncEngine, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{engine: engine, logger: logger}
}

func (h *FeedHandler) Handle(c *websocket.Conn) {
	filter := c.Query("customer_id")
	events := make(chan syncengine.Event, feedBuffer)

	unsubscribe := h.engine.Subscribe(func(ev syncengine.Event) {
		if filter != "" && ev.ID != filter {
			return
		}
		select {
		case events <- ev:
		default:
			// slow client; it can refetch
		}
	})
	defer unsubscribe()

	h.logger.Infow("feed_client_connected", "customer_id", filter)

	// The reader only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Infow("feed_client_disconnected", "customer_id", filter)
			return
		case ev := <-events:
			if err := c.WriteJSON(ev); err != nil {
				h.logger.Warnw("feed_write_failed", "error", err)
				return
			}
		}
	}
}
