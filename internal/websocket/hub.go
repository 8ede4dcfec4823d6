// Package chatws fans realtime change events out to connected clients.
// Each user may hold several connections (tabs, devices); the hub routes a
// change to every connection of every concerned user.
package chatws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/Kalwarein/edu-harmony-link/internal/events"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
)

const seenRingSize = 256

type Hub struct {
	bus        *events.Bus
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// sendMu guards send and closed: the hub loop closes the channel on
	// eviction while ReadPump may still be queueing error frames.
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	// dedupe ring: bus delivery is at-least-once
	seen      map[string]struct{}
	seenOrder []string
}

// trySend queues a frame without blocking. Reports false when the client
// is closed or its buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
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

// closeSend is idempotent and safe against concurrent trySend calls.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type sender interface {
	SendMessage(
		ctx context.Context,
		actorID string,
		conversationID string,
		content string,
		attachment *services.AttachmentUpload,
	) (*services.ChatDelivery, error)
}

// Envelope is the wire format pushed to clients: a table change or an
// error.
type Envelope struct {
	Type      string        `json:"type"`
	Table     events.Table  `json:"table,omitempty"`
	Action    events.Action `json:"action,omitempty"`
	RowID     string        `json:"row_id,omitempty"`
	Data      any           `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp string        `json:"timestamp"`
}

func NewHub(bus *events.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
		seen:   make(map[string]struct{}, seenRingSize),
	}
}

// Run is the hub loop. Changes for a given row are applied in the order the
// bus delivers them; the loop is single-goroutine so fan-out never reorders.
func (h *Hub) Run(ctx context.Context) {
	changes, cancel := h.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
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
				client.closeSend()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case change, ok := <-changes:
			if !ok {
				return
			}
			h.deliver(change)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) deliver(change events.Change) {
	encoded, err := json.Marshal(Envelope{
		Type:      "change",
		Table:     change.Table,
		Action:    change.Action,
		RowID:     change.RowID,
		Data:      change.Payload,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		log.Printf("hub: encode change: %v", err)
		return
	}

	if len(change.Recipients) == 0 {
		for userID := range h.clients {
			h.sendToUser(userID, change, encoded)
		}
		return
	}

	for _, userID := range change.Recipients {
		h.sendToUser(userID, change, encoded)
	}
}

func (h *Hub) sendToUser(userID string, change events.Change, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if client.alreadySeen(change) {
			continue
		}
		if !client.trySend(payload) {
			delete(set, client)
			client.closeSend()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// alreadySeen records the change against a bounded ring so a re-published
// event is not pushed twice to the same connection.
func (c *Client) alreadySeen(change events.Change) bool {
	if change.RowID == "" {
		return false
	}

	key := string(change.Table) + ":" + string(change.Action) + ":" + change.RowID
	if _, ok := c.seen[key]; ok {
		return true
	}

	c.seen[key] = struct{}{}
	c.seenOrder = append(c.seenOrder, key)
	if len(c.seenOrder) > seenRingSize {
		oldest := c.seenOrder[0]
		c.seenOrder = c.seenOrder[1:]
		delete(c.seen, oldest)
	}
	return false
}

// ReadPump accepts outbound direct messages over the socket. Deliveries
// come back through the bus, so there is no direct echo here.
func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}
		if incoming.ConversationID == "" {
			writeError(c, "invalid conversation id")
			continue
		}

		if _, err := service.SendMessage(
			context.Background(),
			c.userID,
			incoming.ConversationID,
			incoming.Content,
			nil,
		); err != nil {
			writeError(c, "failed to send message")
			continue
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

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Envelope{
		Type:      "error",
		Error:     message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	// dropped when the client is evicted or backed up; slow consumers
	// already lose events under the bus contract
	_ = client.trySend(payload)
}
