package api

import (
	"sync"
	"time"

	"mailpane/models"
	"mailpane/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Notification tells a browser that its page changed
type Notification struct {
	ID   string    `json:"id"`
	Type string    `json:"type"` // always "render" for now
	View string    `json:"view"`
	Time time.Time `json:"time"`
}

// NotificationHandler fans render notifications out to the websockets
// subscribed to a view session.
type NotificationHandler struct {
	secret      string
	subscribers map[string]map[string]chan Notification // view id -> subscriber id -> channel
	mu          sync.RWMutex
}

// NewNotificationHandler creates a new notification handler. secret verifies
// push tokens.
func NewNotificationHandler(secret string) *NotificationHandler {
	return &NotificationHandler{
		secret:      secret,
		subscribers: make(map[string]map[string]chan Notification),
	}
}

// Upgrade admits websocket upgrades that carry a valid push token and
// stores the token's view id in c.Locals("view_id").
func (h *NotificationHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	viewID, err := ParsePushToken(c.Query("token"), h.secret)
	if err != nil {
		return utils.ForbiddenError("Invalid push token", err)
	}
	c.Locals("view_id", viewID)
	return c.Next()
}

// Subscribe registers a listener for viewID
func (h *NotificationHandler) Subscribe(viewID string) (string, <-chan Notification) {
	subscriberID := uuid.New().String()
	ch := make(chan Notification, 10)

	h.mu.Lock()
	if h.subscribers[viewID] == nil {
		h.subscribers[viewID] = make(map[string]chan Notification)
	}
	h.subscribers[viewID][subscriberID] = ch
	h.mu.Unlock()

	return subscriberID, ch
}

// Unsubscribe removes a listener and closes its channel
func (h *NotificationHandler) Unsubscribe(viewID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[viewID]
	if ch, ok := subs[subscriberID]; ok {
		delete(subs, subscriberID)
		close(ch)
	}
	if len(subs) == 0 {
		delete(h.subscribers, viewID)
	}
}

// SubscriberCount returns the number of listeners of viewID
func (h *NotificationHandler) SubscriberCount(viewID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[viewID])
}

// NotifyRender tells every listener of viewID that the page now shows mode.
// Listeners whose buffer is full miss the notification.
func (h *NotificationHandler) NotifyRender(viewID string, mode models.ViewMode) {
	n := Notification{
		ID:   uuid.New().String(),
		Type: "render",
		View: mode.String(),
		Time: time.Now(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for subscriberID, ch := range h.subscribers[viewID] {
		select {
		case ch <- n:
		default:
			utils.Log.Warn("Notification channel full for subscriber %s", subscriberID)
		}
	}
}

// HandleWebSocket streams notifications until the client goes away
func (h *NotificationHandler) HandleWebSocket(c *websocket.Conn) {
	viewID, _ := c.Locals("view_id").(string)
	subscriberID, ch := h.Subscribe(viewID)
	defer h.Unsubscribe(viewID, subscriberID)

	log := utils.Log.WithFields(map[string]interface{}{"view": viewID, "subscriber": subscriberID})
	log.Debug("WebSocket subscriber connected")

	// The client never sends anything; reading only detects the close.
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
		case n := <-ch:
			if err := c.WriteJSON(n); err != nil {
				log.Warn("Failed to send WebSocket notification: %v", err)
				return
			}
		case <-closed:
			log.Debug("WebSocket subscriber disconnected")
			return
		}
	}
}
