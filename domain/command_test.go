package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"create", CreateCommand{}},
		{"  CREATE  ", CreateCommand{}},
		{"join abcd", JoinCommand{Key: "abcd"}},
		{"Join   abcd extra", JoinCommand{Key: "abcd"}},
		{"join", JoinCommand{}},
		{"info", InfoCommand{}},
		{"dance now", UnknownCommand{Name: "dance", Raw: "dance now"}},
		{"", UnknownCommand{Raw: ""}},
		{"   ", UnknownCommand{Raw: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			require.Equal(t, tt.want, ParseCommand(tt.line))
		})
	}
}

func TestCommand_Verb(t *testing.T) {
	require.Equal(t, "create", CreateCommand{}.Verb())
	require.Equal(t, "join", JoinCommand{Key: "x"}.Verb())
	require.Equal(t, "info", InfoCommand{}.Verb())
	require.Equal(t, "dance", UnknownCommand{Name: "dance"}.Verb())
}
