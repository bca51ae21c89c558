package domain

import (
	"encoding/json"
	"fmt"

	"swarm-relay/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type FrameType string

const (
	FrameChat    FrameType = "chat"
	FrameCommand FrameType = "command"
)

// ClientFrame is one JSON object received from a UI client.
// Text and Command may be empty strings, they are relayed as such.
type ClientFrame struct {
	Type    FrameType
	Text    string
	Command string
}

// wireFrame tells a missing field apart from an empty one.
type wireFrame struct {
	Type    FrameType `json:"type" validate:"required,oneof=chat command"`
	Text    *string   `json:"text" validate:"required_if=Type chat"`
	Command *string   `json:"command" validate:"required_if=Type command"`
}

// DecodeFrame parses and validates a raw socket frame.
func DecodeFrame(raw []byte) (ClientFrame, error) {
	var wire wireFrame
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ClientFrame{}, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	switch wire.Type {
	case FrameChat, FrameCommand:
	default:
		return ClientFrame{}, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, wire.Type)
	}
	if err := validate.Struct(wire); err != nil {
		return ClientFrame{}, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	frame := ClientFrame{Type: wire.Type}
	if wire.Text != nil {
		frame.Text = *wire.Text
	}
	if wire.Command != nil {
		frame.Command = *wire.Command
	}
	return frame, nil
}
