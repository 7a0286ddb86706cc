package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the fan-out payload emitted after a log entry is merged.
type Event struct {
	EventID         uuid.UUID `json:"eventId"`
	ContractAddress string    `json:"contractAddress"`
	Action          string    `json:"action"`
	ActorAddress    string    `json:"actorAddress"`
	Stage           string    `json:"stage"`
	Verified        bool      `json:"verified"`
	Timestamp       int64     `json:"timestamp"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewEvent builds an event with a fresh ID.
func NewEvent(contractAddress, action, actor, stage string, verified bool, timestamp int64) *Event {
	return &Event{
		EventID:         uuid.New(),
		ContractAddress: contractAddress,
		Action:          action,
		ActorAddress:    actor,
		Stage:           stage,
		Verified:        verified,
		Timestamp:       timestamp,
		CreatedAt:       time.Now().UTC(),
	}
}

// Broadcaster delivers events to connected subscribers, best effort.
type Broadcaster interface {
	BroadcastToRecipients(recipients []string, message *SSEMessage)
}

// Publisher hands events to an external message bus, best effort.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// SSEClient is one active event-stream subscription. Address is the party
// address the subscriber watches for.
type SSEClient struct {
	ClientID    string
	Address     string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a subscription with a buffered channel.
func NewSSEClient(clientID, address string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		Address:     address,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage is one server-sent event frame.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a message with a fresh ID.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
