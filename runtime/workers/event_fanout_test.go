package workers

import (
	"context"
	"errors"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
	"swarm-relay/mocks"
	"swarm-relay/runtime"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Broadcast(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	first := mocks.NewMockSink(ctrl)
	second := mocks.NewMockSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, time.Second)

	// Given two connected clients
	mockRegistry.EXPECT().Snapshot().Return([]contract.Sink{first, second}).Times(1)
	var received [][]byte
	record := func(_ context.Context, payload []byte) error {
		received = append(received, payload)
		return nil
	}
	first.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(1)
	second.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(record).Times(1)

	// When a chat message is broadcast
	fanout.Broadcast(context.Background(), domain.ChatMessage("me", "hi"))

	// Then both receive the same encoded message
	req.Len(received, 2)
	req.JSONEq(`{"type":"message","sender":"me","text":"hi"}`, string(received[0]))
	req.Equal(received[0], received[1])
}

func TestEventFanout_BroadcastDropsFailingClient(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	broken := mocks.NewMockSink(ctrl)
	healthy := mocks.NewMockSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, time.Second)

	// Given a client whose socket is gone and a healthy one
	mockRegistry.EXPECT().Snapshot().Return([]contract.Sink{broken, healthy}).Times(1)
	broken.EXPECT().ID().Return("broken").AnyTimes()
	broken.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("broken pipe")).Times(1)
	delivered := false
	healthy.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []byte) error {
		delivered = true
		return nil
	}).Times(1)

	// Then the broken client is removed and closed
	mockRegistry.EXPECT().Remove(broken).Times(1)
	broken.EXPECT().Close().Return(nil).Times(1)

	// When a system message is broadcast
	fanout.Broadcast(context.Background(), domain.SystemMessage("Connected peers: 2"))

	// Then the healthy one still got it
	req.True(delivered)
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slow := mocks.NewMockSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, 50*time.Millisecond)

	// Given a client that blocks until its deadline
	mockRegistry.EXPECT().Snapshot().Return([]contract.Sink{slow}).Times(1)
	slow.EXPECT().ID().Return("slow").AnyTimes()
	slow.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	}).Times(1)
	mockRegistry.EXPECT().Remove(slow).Times(1)
	slow.EXPECT().Close().Return(nil).Times(1)

	// When a message is broadcast
	start := time.Now()
	fanout.Broadcast(context.Background(), domain.SystemMessage("hello"))

	// Then the broadcast does not wait much longer than the sink timeout
	req.Less(time.Since(start), time.Second)
}

func TestEventFanout_SendTo(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, time.Second)

	var payload []byte
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p []byte) error {
		payload = p
		return nil
	}).Times(1)

	// When a reply is sent to a single client
	err := fanout.SendTo(context.Background(), sink, domain.SystemMessage("No room joined yet."))

	// Then only that client gets it, without a sender
	req.NoError(err)
	req.JSONEq(`{"type":"system","text":"No room joined yet."}`, string(payload))
}

func TestEventFanout_SendToFailureDropsClient(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, time.Second)

	sendErr := errors.New("closed")
	sink.EXPECT().ID().Return("gone").AnyTimes()
	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(sendErr).Times(1)
	mockRegistry.EXPECT().Remove(sink).Times(1)
	sink.EXPECT().Close().Return(nil).Times(1)

	err := fanout.SendTo(context.Background(), sink, domain.SystemMessage("hello"))

	req.ErrorIs(err, sendErr)
}

func TestEventFanout_InvalidMessageNotSent(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	fanout := NewEventFanout(log, mockRegistry, time.Second)

	// Given a chat message without sender, nothing is looked up nor sent
	mockRegistry.EXPECT().Snapshot().Times(0)

	fanout.Broadcast(context.Background(), domain.ChatMessage("", "orphan"))
}

// ctxSink fails only when the context it is given is done.
type ctxSink struct {
	id     string
	sent   int
	closed bool
}

func (s *ctxSink) ID() string { return s.id }

func (s *ctxSink) Send(ctx context.Context, _ []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sent++
	return nil
}

func (s *ctxSink) Close() error {
	s.closed = true
	return nil
}

func TestEventFanout_CanceledCallerKeepsClients(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	alice, bob := &ctxSink{id: "alice"}, &ctxSink{id: "bob"}
	registry.Add(alice)
	registry.Add(bob)

	fanout := NewEventFanout(log, registry, time.Second)

	// Given the caller context is already canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When a broadcast and a reply are attempted under it
	fanout.Broadcast(ctx, domain.SystemMessage("Connected peers: 3"))
	err := fanout.SendTo(ctx, alice, domain.SystemMessage("No room joined yet."))

	// Then nobody is dropped nor closed
	req.ErrorIs(err, context.Canceled)
	req.Equal(2, registry.Len())
	req.False(alice.closed)
	req.False(bob.closed)

	// And a later broadcast still reaches both
	fanout.Broadcast(context.Background(), domain.SystemMessage("Connected peers: 3"))
	req.Equal(1, alice.sent)
	req.Equal(1, bob.sent)
}

func TestEventFanout_CanceledMidBroadcastKeepsClients(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := runtime.NewRegistry()
	first := mocks.NewMockSink(ctrl)
	second := &ctxSink{id: "second"}
	first.EXPECT().ID().Return("first").AnyTimes()
	registry.Add(first)
	registry.Add(second)

	fanout := NewEventFanout(log, registry, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	// Given the caller is canceled while the first client is being written
	first.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(sinkCtx context.Context, _ []byte) error {
		cancel()
		return sinkCtx.Err()
	}).Times(1)
	first.EXPECT().Close().Times(0)

	// When the broadcast runs
	fanout.Broadcast(ctx, domain.SystemMessage("Server shutting down"))

	// Then the registry is untouched
	req.Equal(2, registry.Len())
	req.False(second.closed)
}
