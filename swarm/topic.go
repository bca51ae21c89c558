package swarm

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	relayerrors "swarm-relay/errors"
)

const (
	topicSize       = 32
	roomTopicPrefix = "swarm-relay/room/"
)

// newTopic returns a random 32-byte room topic, hex encoded.
func newTopic() (string, error) {
	buf := make([]byte, topicSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// validateTopic accepts the hex encoding of exactly 32 bytes.
func validateTopic(key string) error {
	raw, err := hex.DecodeString(key)
	if err != nil {
		return fmt.Errorf("%w: %v", relayerrors.ErrInvalidTopic, err)
	}
	if len(raw) != topicSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", relayerrors.ErrInvalidTopic, topicSize, len(raw))
	}
	return nil
}

func pubsubTopicName(key string) string {
	return roomTopicPrefix + key
}
