package domain

import (
	"testing"

	"swarm-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	t.Run("chat frame", func(t *testing.T) {
		frame, err := DecodeFrame([]byte(`{"type":"chat","text":"hi"}`))
		require.NoError(t, err)
		require.Equal(t, ClientFrame{Type: FrameChat, Text: "hi"}, frame)
	})

	t.Run("command frame", func(t *testing.T) {
		frame, err := DecodeFrame([]byte(`{"type":"command","command":"join abcd"}`))
		require.NoError(t, err)
		require.Equal(t, ClientFrame{Type: FrameCommand, Command: "join abcd"}, frame)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`hello`))
		require.ErrorIs(t, err, errors.ErrInvalidFrame)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"type":"typing"}`))
		require.ErrorIs(t, err, errors.ErrUnknownFrameType)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"text":"hi"}`))
		require.ErrorIs(t, err, errors.ErrUnknownFrameType)
	})

	t.Run("chat without text", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"type":"chat"}`))
		require.ErrorIs(t, err, errors.ErrInvalidFrame)
	})

	t.Run("command without command", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"type":"command"}`))
		require.ErrorIs(t, err, errors.ErrInvalidFrame)
	})

	t.Run("empty chat text is a chat line", func(t *testing.T) {
		frame, err := DecodeFrame([]byte(`{"type":"chat","text":""}`))
		require.NoError(t, err)
		require.Equal(t, ClientFrame{Type: FrameChat, Text: ""}, frame)
	})

	t.Run("empty command is a command", func(t *testing.T) {
		frame, err := DecodeFrame([]byte(`{"type":"command","command":""}`))
		require.NoError(t, err)
		require.Equal(t, ClientFrame{Type: FrameCommand, Command: ""}, frame)
	})
}
