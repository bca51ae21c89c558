// Package domain contains core concepts of the relay.
// This file defines RelayMessage, the only unit pushed to UI clients.
package domain

import (
	"encoding/json"
	"fmt"

	"swarm-relay/errors"
)

type MessageKind string

const (
	KindMessage MessageKind = "message"
	KindSystem  MessageKind = "system"
)

// RelayMessage is either a chat line with a sender or a system notice.
type RelayMessage struct {
	Kind   MessageKind `json:"type"`
	Sender string      `json:"sender,omitempty"`
	Text   string      `json:"text"`
}

func ChatMessage(sender, text string) RelayMessage {
	return RelayMessage{Kind: KindMessage, Sender: sender, Text: text}
}

func SystemMessage(text string) RelayMessage {
	return RelayMessage{Kind: KindSystem, Text: text}
}

// Validate enforces that a chat line always carries its sender.
func (m RelayMessage) Validate() error {
	switch m.Kind {
	case KindMessage:
		if m.Sender == "" {
			return errors.ErrEmptySender
		}
		return nil
	case KindSystem:
		return nil
	default:
		return fmt.Errorf("%w: message kind %q", errors.ErrInvalidFrame, m.Kind)
	}
}

// Encode returns the JSON frame sent over the socket.
// A system message never leaks a sender field.
func (m RelayMessage) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Kind == KindSystem {
		m.Sender = ""
	}
	return json.Marshal(m)
}
