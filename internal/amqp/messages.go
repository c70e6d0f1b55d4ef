package amqp

import (
	"encoding/json"
	"time"

	"pfbt/internal/core"
)

// ChangeMessage is the wire form of a core.Change on the change feed.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	EntityID  string    `json:"entity_id"`
	UserID    string    `json:"user_id"`
	Summary   string    `json:"summary,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage builds a message from c. A zero change time is stamped now.
func NewChangeMessage(c core.Change) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ChangeMessage{
		Entity:    c.Entity,
		Op:        c.Op,
		EntityID:  c.EntityID,
		UserID:    c.UserID,
		Summary:   c.Summary,
		Timestamp: ts,
	}
}

// Change converts the message back into the domain type.
func (m *ChangeMessage) Change() core.Change {
	return core.Change{
		Entity:   m.Entity,
		Op:       m.Op,
		EntityID: m.EntityID,
		UserID:   m.UserID,
		Summary:  m.Summary,
		At:       m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
