// Package runtime wires UI clients, room state and the swarm together.
// It holds no transport code: sockets live in the server package, peers in the swarm package.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
)

// LocalSender labels chat lines typed by a local UI client.
const LocalSender = "me"

const (
	noRoomText   = "No room joined yet."
	shutdownText = "Server shutting down"
)

type Relay struct {
	log        *slog.Logger
	registry   contract.IRegistry
	fanout     contract.IBroadcaster
	room       *domain.RoomState
	swarm      contract.ISwarm
	dispatcher contract.IDispatcher
}

func NewRelay(log *slog.Logger, registry contract.IRegistry, fanout contract.IBroadcaster,
	room *domain.RoomState, swarm contract.ISwarm, dispatcher contract.IDispatcher) *Relay {
	return &Relay{
		log:        log,
		registry:   registry,
		fanout:     fanout,
		room:       room,
		swarm:      swarm,
		dispatcher: dispatcher,
	}
}

// Attach registers a freshly upgraded client and tells it which room is active.
func (r *Relay) Attach(ctx context.Context, sink contract.Sink) {
	r.registry.Add(sink)
	r.log.Info("New client connected", "client_id", sink.ID(), "clients", r.registry.Len())

	text := noRoomText
	if topic, ok := r.room.Current(); ok {
		text = fmt.Sprintf("Current room: %s", topic)
	}
	if err := r.fanout.SendTo(ctx, sink, domain.SystemMessage(text)); err != nil {
		r.log.Debug("Welcome message not delivered", "client_id", sink.ID(), "error", err)
	}
}

// Detach forgets a client. Calling it more than once is harmless.
func (r *Relay) Detach(sink contract.Sink) {
	r.registry.Remove(sink)
	r.log.Info("Client disconnected", "client_id", sink.ID(), "clients", r.registry.Len())
}

// HandleFrame routes one inbound frame. Chat lines are relayed right away,
// command lines are handed back so that the caller queues them for Dispatch.
// Malformed frames are logged and dropped, the connection stays open.
func (r *Relay) HandleFrame(ctx context.Context, sink contract.Sink, raw []byte) (string, bool) {
	frame, err := domain.DecodeFrame(raw)
	if err != nil {
		r.log.Warn("Dropping malformed frame", "client_id", sink.ID(), "error", err)
		return "", false
	}
	switch frame.Type {
	case domain.FrameChat:
		r.chat(ctx, frame.Text)
		return "", false
	case domain.FrameCommand:
		return frame.Command, true
	default:
		return "", false
	}
}

// Dispatch runs one command line on behalf of sink.
func (r *Relay) Dispatch(ctx context.Context, sink contract.Sink, line string) {
	r.dispatcher.Dispatch(ctx, sink, line)
}

func (r *Relay) chat(ctx context.Context, text string) {
	if err := r.swarm.SendMessage(ctx, text); err != nil {
		r.log.Warn("Message not sent to the swarm", "error", err)
	}
	r.fanout.Broadcast(ctx, domain.ChatMessage(LocalSender, text))
}

// JoinAtStartup joins the room given on the command line and reports the outcome to every client.
func (r *Relay) JoinAtStartup(ctx context.Context, key string) {
	r.log.Info("Attempting to join room with hashcode", "key", key)
	result, err := r.swarm.JoinRoom(ctx, key)
	switch {
	case err != nil:
		r.log.Error("Error joining room", "key", key, "error", err)
		r.fanout.Broadcast(ctx, domain.SystemMessage(fmt.Sprintf("Error joining room: %v", err)))
	case !result.Done:
		r.log.Error("Failed to join room with hashcode", "key", key)
		r.fanout.Broadcast(ctx, domain.SystemMessage(fmt.Sprintf("Failed to join room with hashcode: %s", key)))
	default:
		if !r.room.Apply(result) {
			r.log.Debug("Room result superseded by a newer join", "topic", result.Topic, "seq", result.Seq)
		}
		r.log.Info("Successfully joined room", "topic", result.Topic)
		r.fanout.Broadcast(ctx, domain.SystemMessage(fmt.Sprintf("Joined room with hashcode: %s", key)))
	}
}

func (r *Relay) Status() domain.RelayStatus {
	topic, _ := r.room.Current()
	return domain.RelayStatus{Room: topic, Peers: r.swarm.PeerCount(), Clients: r.registry.Len()}
}

// Shutdown warns every client, then releases the swarm.
// Sockets and listeners are closed afterwards by the server.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.fanout.Broadcast(ctx, domain.SystemMessage(shutdownText))
	return r.swarm.Close()
}
