package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrHubBusy is returned when the broadcast queue is full.
var ErrHubBusy = errors.New("mwi broadcast queue is full")

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeMWI         MessageType = "mwi"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      MessageType `json:"type"`
	MailboxID uint        `json:"mailbox_id,omitempty"`
	MWI       *MWIPayload `json:"mwi,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// MWIPayload is the message-waiting state of a mailbox.
type MWIPayload struct {
	Read      int    `json:"read"`
	Unread    int    `json:"unread"`
	Waiting   bool   `json:"waiting"`
	UpdatedAt string `json:"updated_at"`
}

// NewMWIPayload builds the payload for the given counters.
func NewMWIPayload(read, unread int) *MWIPayload {
	return &MWIPayload{
		Read:      read,
		Unread:    unread,
		Waiting:   unread > 0,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Hub tracks websocket clients and the mailboxes they watch, and fans MWI
// updates out to them.
type Hub struct {
	clients map[*Client]bool

	// mailboxID -> set of clients
	subscriptions map[uint]map[*Client]bool

	register           chan *Client
	unregister         chan *Client
	subscribe          chan *subscriptionRequest
	unsubscribeMailbox chan *subscriptionRequest
	broadcast          chan *broadcastMessage
	done               chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

type subscriptionRequest struct {
	client    *Client
	mailboxID uint
}

type broadcastMessage struct {
	mailboxID uint
	message   []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:            make(map[*Client]bool),
		subscriptions:      make(map[uint]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		subscribe:          make(chan *subscriptionRequest),
		unsubscribeMailbox: make(chan *subscriptionRequest),
		broadcast:          make(chan *broadcastMessage, 256),
		done:               make(chan struct{}),
		logger:             logger,
	}
}

// Run processes hub events until ctx is cancelled. Remaining clients are
// disconnected on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			clear(h.clients)
			clear(h.subscriptions)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for mailboxID, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, mailboxID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered")

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.mailboxID] == nil {
				h.subscriptions[req.mailboxID] = make(map[*Client]bool)
			}
			h.subscriptions[req.mailboxID][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed to mailbox", slog.Uint64("mailbox_id", uint64(req.mailboxID)))

		case req := <-h.unsubscribeMailbox:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.mailboxID]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.mailboxID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed from mailbox", slog.Uint64("mailbox_id", uint64(req.mailboxID)))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.subscriptions[msg.mailboxID] {
				select {
				case client.send <- msg.message:
				default:
					// Slow client; it picks up the next update.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.send(h.register, client)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.send(h.unregister, client)
}

// Subscribe subscribes a client to a mailbox
func (h *Hub) Subscribe(client *Client, mailboxID uint) {
	h.sendSubscription(h.subscribe, &subscriptionRequest{client: client, mailboxID: mailboxID})
}

// Unsubscribe unsubscribes a client from a mailbox
func (h *Hub) Unsubscribe(client *Client, mailboxID uint) {
	h.sendSubscription(h.unsubscribeMailbox, &subscriptionRequest{client: client, mailboxID: mailboxID})
}

// send and sendSubscription give up once Run has returned.
func (h *Hub) send(ch chan *Client, client *Client) {
	select {
	case ch <- client:
	case <-h.done:
	}
}

func (h *Hub) sendSubscription(ch chan *subscriptionRequest, req *subscriptionRequest) {
	select {
	case ch <- req:
	case <-h.done:
	}
}

// Subscribers returns the number of clients watching mailboxID.
func (h *Hub) Subscribers(mailboxID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[mailboxID])
}

// PublishMWI queues an MWI update for the subscribers of mailboxID. It never
// blocks: a full queue yields ErrHubBusy.
func (h *Hub) PublishMWI(mailboxID uint, payload *MWIPayload) error {
	data, err := json.Marshal(WSMessage{
		Type:      MessageTypeMWI,
		MailboxID: mailboxID,
		MWI:       payload,
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- &broadcastMessage{mailboxID: mailboxID, message: data}:
		return nil
	default:
		h.logger.Warn("dropping mwi update", slog.Uint64("mailbox_id", uint64(mailboxID)))
		return ErrHubBusy
	}
}
