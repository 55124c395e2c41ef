package ws

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

// Hub fans notification events out to connected users. It only pushes what
// the services already persisted; a user with no open connection simply reads
// the notification from the database later.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type Event struct {
	Type        string `json:"type"`
	ContractID  string `json:"contract_id,omitempty"`
	TrialID     string `json:"trial_id,omitempty"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	recipientID string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 64),
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

func (h *Hub) Run() {
	for {
		select {
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
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PushNotification queues a persisted notification for live delivery. It
// never blocks the caller: a full hub drops the push, the database row is
// still there.
func (h *Hub) PushNotification(recipientID int64, notification *models.Notification) {
	event := &Event{
		Type:        notification.Type,
		Message:     notification.Message,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		recipientID: strconv.FormatInt(recipientID, 10),
	}
	if notification.ContractID != nil {
		event.ContractID = strconv.FormatInt(*notification.ContractID, 10)
	}
	if notification.TrialID != nil {
		event.TrialID = strconv.FormatInt(*notification.TrialID, 10)
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("notification hub encode event: %v", err)
		return
	}
	h.sendToUser(event.recipientID, encoded)
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump discards inbound frames; the stream is push-only. It exists to
// detect the close handshake and unregister the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
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
