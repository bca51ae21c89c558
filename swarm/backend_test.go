package swarm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"swarm-relay/domain/event"
	relayerrors "swarm-relay/errors"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	b, err := New(context.Background(), log, Config{
		ListenAddrs:     []string{"/ip4/127.0.0.1/tcp/0"},
		EventBufferSize: 64,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func connect(t *testing.T, from, to *Backend) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := from.host.Connect(ctx, peer.AddrInfo{ID: to.host.ID(), Addrs: to.host.Addrs()})
	require.NoError(t, err)
}

func TestBackend_RoomLifecycle(t *testing.T) {
	req := require.New(t)
	b := newTestBackend(t)
	ctx := context.Background()

	// Without a room nothing can be sent
	req.ErrorIs(b.SendMessage(ctx, "hi"), relayerrors.ErrNoActiveRoom)

	// A created room has a fresh 32-byte topic
	created, err := b.CreateRoom(ctx)
	req.NoError(err)
	req.True(created.Done)
	req.NoError(validateTopic(created.Topic))
	req.Equal(uint64(1), created.Seq)
	req.NoError(b.SendMessage(ctx, "hi"))

	// Joining the same room again is a no-op
	again, err := b.JoinRoom(ctx, created.Topic)
	req.NoError(err)
	req.Equal(created, again)

	// An invalid key keeps the current room
	_, err = b.JoinRoom(ctx, "abc123")
	req.ErrorIs(err, relayerrors.ErrInvalidTopic)
	req.NoError(b.SendMessage(ctx, "still here"))

	// Another room replaces the previous one
	other := strings.Repeat("01", topicSize)
	joined, err := b.JoinRoom(ctx, other)
	req.NoError(err)
	req.Equal(other, joined.Topic)
	req.Greater(joined.Seq, created.Seq)
}

func TestBackend_Close(t *testing.T) {
	req := require.New(t)
	b := newTestBackend(t)

	_, err := b.CreateRoom(context.Background())
	req.NoError(err)

	req.NoError(b.Close())
	req.NoError(b.Close())

	// The event stream ends
	for range b.Events() {
	}
	_, err = b.JoinRoom(context.Background(), strings.Repeat("01", topicSize))
	req.ErrorIs(err, relayerrors.ErrSwarmClosed)
}

func TestBackend_MemberID(t *testing.T) {
	b := newTestBackend(t)

	require.Equal(t, "abcdefgh", b.MemberID("12D3KooWabcdefgh"))
	require.Equal(t, "short", b.MemberID("short"))
	require.Equal(t, Version, b.Version())
}

func TestBackend_TwoPeersExchangeMessages(t *testing.T) {
	req := require.New(t)
	alice := newTestBackend(t)
	bob := newTestBackend(t)
	ctx := context.Background()

	// Given two connected nodes in the same room
	room, err := alice.CreateRoom(ctx)
	req.NoError(err)
	_, err = bob.JoinRoom(ctx, room.Topic)
	req.NoError(err)
	connect(t, bob, alice)

	req.Eventually(func() bool { return alice.PeerCount() == 1 && bob.PeerCount() == 1 },
		5*time.Second, 20*time.Millisecond)

	// When alice publishes until the gossip mesh carries it
	var received event.PeerData
	req.Eventually(func() bool {
		_ = alice.SendMessage(ctx, "hi")
		for {
			select {
			case evt := <-bob.Events():
				if data, ok := evt.(event.PeerData); ok {
					received = data
					return true
				}
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}
	}, 10*time.Second, 100*time.Millisecond)

	// Then bob sees the peer message with alice's member id
	var payload wireMessage
	req.NoError(json.Unmarshal(received.Payload, &payload))
	req.Equal("hi", payload.Message)
	req.Equal(alice.MemberID(received.Peer), received.MemberID)
	req.Equal(alice.ID(), string(received.Peer))
}

func TestBackend_PeerConnectedEvent(t *testing.T) {
	req := require.New(t)
	alice := newTestBackend(t)
	bob := newTestBackend(t)

	connect(t, bob, alice)

	req.Eventually(func() bool {
		select {
		case evt := <-alice.Events():
			connected, ok := evt.(event.PeerConnected)
			return ok && string(connected.Peer) == bob.ID()
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
