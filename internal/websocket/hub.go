package sessionws

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

// Hub keeps every open live-feed connection keyed by user id and pushes
// workout session events to the users involved.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	done       chan struct{}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

type envelope struct {
	userIDs []string
	payload []byte
}

type controlMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 64),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.close()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case message := <-h.broadcast:
			seen := make(map[string]struct{}, len(message.userIDs))
			for _, userID := range message.userIDs {
				if _, dup := seen[userID]; dup {
					continue
				}
				seen[userID] = struct{}{}
				h.sendToUser(userID, message.payload)
			}
		}
	}
}

// Register adds client to the hub. A client registered after the hub stopped
// is closed straight away so its pumps exit.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishSessionEvent queues event for every connection of userIDs. When the
// queue is full the event is dropped; clients reload state on reconnect.
func (h *Hub) PublishSessionEvent(userIDs []int64, event models.SessionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("session hub encode event: %v", err)
		return
	}

	recipients := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		recipients = append(recipients, strconv.FormatInt(id, 10))
	}

	select {
	case h.broadcast <- &envelope{userIDs: recipients, payload: payload}:
	default:
		log.Printf("session hub queue full, dropping %s for session %d", event.Type, event.SessionID)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.offer(payload) {
			delete(set, client)
			client.close()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump only answers pings; the feed is server to client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming controlMessage
		response := controlMessage{Type: "error", Message: "unsupported message type"}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			response.Message = "invalid message payload"
		} else if incoming.Type == "ping" {
			response = controlMessage{Type: "pong"}
		}
		if !c.reply(response) {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// reply queues a control message for the writer. It reports false once the
// client is closed or too far behind to keep.
func (c *Client) reply(message controlMessage) bool {
	payload, err := json.Marshal(message)
	if err != nil {
		return true
	}
	return c.offer(payload)
}

// offer is a non-blocking send that never touches a closed channel.
func (c *Client) offer(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
