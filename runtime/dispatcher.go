package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
)

const (
	roomNone         = "None"
	joinUsage        = "Please provide a room topic to join"
	createFailedText = "Failed to create chat room"
	joinFailedText   = "Failed to join chat room"
)

// Dispatcher runs the commands typed by UI clients against the swarm.
//
// Create and join suspend on the swarm. The caller must not hand a second
// line from the same client before the previous Dispatch returned; lines
// from different clients may run concurrently, the room state then keeps
// whichever call resolved last.
type Dispatcher struct {
	log    *slog.Logger
	swarm  contract.ISwarm
	room   *domain.RoomState
	fanout contract.IBroadcaster
}

var _ contract.IDispatcher = (*Dispatcher)(nil)

func NewDispatcher(log *slog.Logger, swarm contract.ISwarm, room *domain.RoomState, fanout contract.IBroadcaster) *Dispatcher {
	return &Dispatcher{log: log, swarm: swarm, room: room, fanout: fanout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, issuer contract.Sink, line string) {
	switch cmd := domain.ParseCommand(line).(type) {
	case domain.CreateCommand:
		d.create(ctx, issuer)
	case domain.JoinCommand:
		d.join(ctx, issuer, cmd.Key)
	case domain.InfoCommand:
		d.info(ctx, issuer)
	case domain.UnknownCommand:
		d.reply(ctx, issuer, fmt.Sprintf("Unknown command: %s", cmd.Name))
	default:
		d.log.Error("Unhandled command variant", "command", cmd.Verb())
	}
}

func (d *Dispatcher) create(ctx context.Context, issuer contract.Sink) {
	result, err := d.swarm.CreateRoom(ctx)
	if err != nil || !result.Done {
		d.log.Warn("Room creation failed", "client_id", issuer.ID(), "error", err)
		d.reply(ctx, issuer, createFailedText)
		return
	}
	d.applyRoom(result)

	text := fmt.Sprintf("Created and joined new chat room: %s", result.Topic)
	d.log.Info(text)
	d.reply(ctx, issuer, text)
	d.fanout.Broadcast(ctx, domain.SystemMessage(text))
}

func (d *Dispatcher) join(ctx context.Context, issuer contract.Sink, key string) {
	if key == "" {
		d.reply(ctx, issuer, joinUsage)
		return
	}
	result, err := d.swarm.JoinRoom(ctx, key)
	if err != nil || !result.Done {
		d.log.Warn("Room join failed", "client_id", issuer.ID(), "key", key, "error", err)
		d.reply(ctx, issuer, joinFailedText)
		return
	}
	d.applyRoom(result)

	text := fmt.Sprintf("Joined chat room: %s", result.Topic)
	d.log.Info(text)
	d.fanout.Broadcast(ctx, domain.SystemMessage(text))
}

func (d *Dispatcher) applyRoom(result domain.RoomResult) {
	if !d.room.Apply(result) {
		d.log.Debug("Room result superseded by a newer join", "topic", result.Topic, "seq", result.Seq)
	}
}

func (d *Dispatcher) info(ctx context.Context, issuer contract.Sink) {
	topic, ok := d.room.Current()
	if !ok {
		topic = roomNone
	}
	d.reply(ctx, issuer, fmt.Sprintf("Swarm Relay v.%s\nCurrent room: %s\nConnected peers: %d",
		d.swarm.Version(), topic, d.swarm.PeerCount()))
}

func (d *Dispatcher) reply(ctx context.Context, issuer contract.Sink, text string) {
	if err := d.fanout.SendTo(ctx, issuer, domain.SystemMessage(text)); err != nil {
		d.log.Debug("Reply not delivered", "client_id", issuer.ID(), "error", err)
	}
}
