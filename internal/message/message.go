// Package message defines the wire types moved across the bus: user messages
// travelling between transports and applications, and delivery events tied to
// previously sent outbound messages. Only the fields the dispatcher routes on
// are modelled; everything else rides along in the raw payload.
package message

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a user message moving through the dispatcher, in either
// direction. TransportName identifies the transport endpoint the message
// originated from (inbound) or targets (outbound).
type Message struct {
	MessageID     string    `json:"message_id"`
	TransportName string    `json:"transport_name"`
	ToAddr        string    `json:"to_addr"`
	FromAddr      string    `json:"from_addr"`
	Content       string    `json:"content,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// Event is a delivery report or acknowledgement for an outbound message.
// UserMessageID correlates back to the original message's MessageID. The
// payload is opaque to routing.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	UserMessageID string          `json:"user_message_id"`
	TransportName string          `json:"transport_name,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// New creates an outbound-ready message with a fresh message id.
func New(transportName, toAddr, fromAddr, content string) *Message {
	return &Message{
		MessageID:     uuid.NewString(),
		TransportName: transportName,
		ToAddr:        toAddr,
		FromAddr:      fromAddr,
		Content:       content,
		Timestamp:     time.Now().UTC(),
	}
}

// User returns the identifier of the user a message is from.
func (m *Message) User() string {
	return m.FromAddr
}

// Encode serializes the message for bus transport.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Encode serializes the event for bus transport.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeMessage parses a message from its bus representation.
func DecodeMessage(body []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeEvent parses an event from its bus representation.
func DecodeEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// FirstWord returns the first whitespace-delimited token of content, or an
// empty string when there is none. In SMS land this token is the keyword.
func FirstWord(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
