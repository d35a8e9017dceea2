package events

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces a committed mutation. It carries only the entity
// kind, row ID and action; consumers fetch whatever state they need from
// the database, so a stale message can never overwrite newer data.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage builds a message stamped with the current time.
func NewChangeMessage(entity string, id int64, action string) *ChangeMessage {
	return &ChangeMessage{Entity: entity, ID: id, Action: action, Timestamp: time.Now()}
}

// ToJSON converts the message to its wire form.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses a wire-form message.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
