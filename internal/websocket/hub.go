package livews

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/presence"
	"github.com/kiarash-j/TutorLinkBack/internal/services"
)

// Hub owns the live connections. One user may hold several connections
// (several tabs); each gets every push addressed to that user.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *ChatFrame
	push       chan *directPush

	logger *zap.Logger
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	clientID string
	userID   int64
	send     chan []byte

	// sendMu serializes enqueues against the close of send, so presence
	// forwarders and the read pump never write to a closed channel.
	sendMu sync.Mutex
	closed bool

	mu      sync.Mutex
	watches map[int64]func()
}

type directPush struct {
	userID  int64
	payload []byte
}

type sender interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		role string,
		conversationID int64,
		content string,
	) (*services.ChatDelivery, error)
}

// ChatFrame is the wire shape for chat traffic over the socket.
type ChatFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	RecipientID    string `json:"recipient_id,omitempty"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

type presenceFrame struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Online bool   `json:"online"`
}

type errorFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ChatFrame, 64),
		push:       make(chan *directPush, 256),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		clientID: uuid.NewString(),
		userID:   userID,
		send:     make(chan []byte, 32),
		watches:  make(map[int64]func()),
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
				client.closeSend()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case frame := <-h.broadcast:
			h.deliver(frame)
		case direct := <-h.push:
			h.sendToUser(direct.userID, direct.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	client.cancelWatches()
	h.unregister <- client
}

// PushToUser delivers a payload to every live connection of one user.
// Best-effort: an offline user simply has no connections registered.
func (h *Hub) PushToUser(userID int64, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("hub encode push", zap.Error(err))
		return
	}
	select {
	case h.push <- &directPush{userID: userID, payload: encoded}:
	default:
		h.logger.Warn("hub push queue full, dropping", zap.Int64("user_id", userID))
	}
}

func (h *Hub) deliver(frame *ChatFrame) {
	encoded, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("hub encode chat frame", zap.Error(err))
		return
	}

	senderID, _ := strconv.ParseInt(frame.SenderID, 10, 64)
	h.sendToUser(senderID, encoded)
	if frame.RecipientID != "" && frame.RecipientID != frame.SenderID {
		recipientID, _ := strconv.ParseInt(frame.RecipientID, 10, 64)
		h.sendToUser(recipientID, encoded)
	}
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.trySend(payload) {
			delete(set, client)
			client.cancelWatches()
			client.closeSend()
			h.logger.Warn("dropping slow client",
				zap.String("client_id", client.clientID),
				zap.Int64("user_id", userID))
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// trySend enqueues a payload on a live client. It reports false only for a
// full buffer; a client that has already been dropped accepts silently.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend is the only closer of the send channel. Idempotent, so the
// drop path and a later Unregister do not race.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type inboundFrame struct {
	Type           string  `json:"type"`
	ClientTime     int64   `json:"client_time"`
	UserIDs        []int64 `json:"user_ids"`
	ConversationID string  `json:"conversation_id"`
	Content        string  `json:"content"`
}

// ReadPump consumes client frames until the connection drops: heartbeats
// feed the presence tracker, watch frames attach presence subscriptions,
// message frames go through the chat service.
func (c *Client) ReadPump(service sender, tracker *presence.Tracker, role string) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming inboundFrame
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid frame payload")
			continue
		}

		switch incoming.Type {
		case "heartbeat":
			tracker.Heartbeat(context.Background(), c.userID, incoming.ClientTime)
		case "watch_presence":
			c.watch(tracker, incoming.UserIDs)
		case "unwatch_presence":
			c.unwatch(incoming.UserIDs)
		case "message":
			c.handleChatMessage(service, role, incoming)
		default:
			c.writeError("unsupported frame type")
		}
	}
}

func (c *Client) handleChatMessage(service sender, role string, incoming inboundFrame) {
	conversationID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
	if err != nil || conversationID <= 0 {
		c.writeError("invalid conversation id")
		return
	}

	delivery, err := service.SendMessage(
		context.Background(),
		c.userID,
		role,
		conversationID,
		incoming.Content,
	)
	if err != nil {
		c.writeError("failed to send message")
		return
	}

	c.hub.broadcast <- &ChatFrame{
		Type:           "message",
		ConversationID: strconv.FormatInt(delivery.Message.ConversationID, 10),
		SenderID:       strconv.FormatInt(delivery.Message.SenderID, 10),
		RecipientID:    strconv.FormatInt(delivery.RecipientID, 10),
		Content:        delivery.Message.Content,
		Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
	}
}

// watch subscribes the connection to each user's derived presence and
// forwards emits as presence frames. Watching the same user twice is a
// no-op.
func (c *Client) watch(tracker *presence.Tracker, userIDs []int64) {
	for _, userID := range userIDs {
		c.mu.Lock()
		if _, exists := c.watches[userID]; exists {
			c.mu.Unlock()
			continue
		}

		stream, cancel := tracker.Subscribe(context.Background(), userID)
		c.watches[userID] = cancel
		c.mu.Unlock()

		go c.forwardPresence(userID, stream)
	}
}

func (c *Client) unwatch(userIDs []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, userID := range userIDs {
		if cancel, exists := c.watches[userID]; exists {
			cancel()
			delete(c.watches, userID)
		}
	}
}

func (c *Client) cancelWatches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, cancel := range c.watches {
		cancel()
		delete(c.watches, userID)
	}
}

func (c *Client) forwardPresence(userID int64, stream <-chan bool) {
	for online := range stream {
		encoded, err := json.Marshal(presenceFrame{
			Type:   "presence",
			UserID: userID,
			Online: online,
		})
		if err != nil {
			c.hub.logger.Error("encode presence frame",
				zap.String("client_id", c.clientID),
				zap.Error(err))
			continue
		}
		// Slow consumer drops the frame; the next edge will catch up.
		c.trySend(encoded)
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

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(errorFrame{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	if !c.trySend(payload) {
		c.hub.Unregister(c)
	}
}
