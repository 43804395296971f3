package messaging

import (
	"sync"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
)

type SSEClient struct {
	Recipient string
	Channel   chan *model.Notification
}

// NotificationHub fans notifications out to the SSE clients of their
// recipient. A client that falls behind misses notifications rather than
// blocking the hub.
type NotificationHub struct {
	clients    map[string][]*SSEClient
	register   chan *SSEClient
	unregister chan *SSEClient
	broadcast  chan *model.Notification
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients:    make(map[string][]*SSEClient),
		register:   make(chan *SSEClient),
		unregister: make(chan *SSEClient),
		broadcast:  make(chan *model.Notification, 100),
		done:       make(chan struct{}),
	}
}

func (h *NotificationHub) Run() {
	log := logger.Component("notification_hub")
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for recipient, clients := range h.clients {
				for _, c := range clients {
					close(c.Channel)
				}
				delete(h.clients, recipient)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Recipient] = append(h.clients[client.Recipient], client)
			h.mu.Unlock()
			log.WithField("recipient", client.Recipient).Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.Recipient]
			for i, c := range clients {
				if c == client {
					h.clients[client.Recipient] = append(clients[:i], clients[i+1:]...)
					close(client.Channel)
					break
				}
			}
			if len(h.clients[client.Recipient]) == 0 {
				delete(h.clients, client.Recipient)
			}
			h.mu.Unlock()
			log.WithField("recipient", client.Recipient).Debug("client unregistered")

		case n := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[n.Recipient] {
				select {
				case client.Channel <- n:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *NotificationHub) RegisterClient(recipient string) *SSEClient {
	client := &SSEClient{
		Recipient: recipient,
		Channel:   make(chan *model.Notification, 10),
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Channel)
	}
	return client
}

func (h *NotificationHub) UnregisterClient(client *SSEClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *NotificationHub) Send(n *model.Notification) {
	select {
	case h.broadcast <- n:
	case <-h.done:
	}
}

func (h *NotificationHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
