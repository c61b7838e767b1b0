package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"weatherclassifier/internal/logger"
)

const (
	broadcastBuffer = 64

	// DefaultPongWait is how long a viewer may stay silent before its read deadline expires.
	DefaultPongWait = 60 * time.Second

	writeWait = 10 * time.Second
)

// HubService fans classification events out to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	pongWait   time.Duration
	logger     *logger.Logger
}

// Option configures a HubService.
type Option func(*HubService)

// WithPongWait overrides DefaultPongWait. Pings are sent at 9/10 of it.
func WithPongWait(d time.Duration) Option {
	return func(h *HubService) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

func NewHubService(logger *logger.Logger, opts ...Option) *HubService {
	h := &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		pongWait:   DefaultPongWait,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PongWait is the read deadline viewers get, extended on every pong.
func (h *HubService) PongWait() time.Duration {
	return h.pongWait
}

// Run processes registrations, broadcasts and keepalive pings until Stop is called.
// All writes to client connections happen here.
func (h *HubService) Run() {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-ticker.C:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					h.logger.Warning("Ping failed, dropping viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Stop ends Run and closes every client connection.
func (h *HubService) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every viewer. It never blocks; when the queue
// is full the message is dropped and false is returned.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Broadcast queue full, dropping message")
		return false
	}
}

// Publish encodes v as JSON and broadcasts it.
func (h *HubService) Publish(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast message: %w", err)
	}
	h.Broadcast(data)
	return nil
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
