package workers

import (
	"context"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
	"time"
)

// EventFanout broadcasts relay messages to every connected UI client.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. A client whose write fails is removed from the
// registry and closed, the others still receive the message.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

var _ contract.IBroadcaster = (*EventFanout)(nil)

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Broadcast encodes the message once, then writes it to each member of
// the registry snapshot taken at call time, in snapshot order.
// A done ctx stops the broadcast without dropping anyone.
func (f *EventFanout) Broadcast(ctx context.Context, msg domain.RelayMessage) {
	payload, err := msg.Encode()
	if err != nil {
		f.log.Error("Dropping invalid relay message", "error", err)
		return
	}
	if err := ctx.Err(); err != nil {
		f.log.Debug("Broadcast skipped, caller context done", "error", err)
		return
	}
	for _, sink := range f.registry.Snapshot() {
		if err := f.deliver(ctx, sink, payload); err != nil {
			if ctx.Err() != nil {
				// The caller went away mid-broadcast, the sinks are not at fault.
				f.log.Debug("Broadcast interrupted", "client_id", sink.ID(), "error", err)
				return
			}
			f.log.Warn("Broadcast delivery failed, dropping client",
				"client_id", sink.ID(),
				"error", err)
			f.drop(sink)
		}
	}
}

// SendTo replies to a single client. The client is dropped on failure,
// exactly like during a broadcast, unless the failure comes from ctx itself.
func (f *EventFanout) SendTo(ctx context.Context, sink contract.Sink, msg domain.RelayMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := f.deliver(ctx, sink, payload); err != nil {
		if ctx.Err() != nil {
			return err
		}
		f.log.Warn("Reply delivery failed, dropping client",
			"client_id", sink.ID(),
			"error", err)
		f.drop(sink)
		return err
	}
	return nil
}

func (f *EventFanout) deliver(ctx context.Context, sink contract.Sink, payload []byte) error {
	if f.sinkTimeout <= 0 {
		return sink.Send(ctx, payload)
	}
	sinkCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
	defer cancel()
	return sink.Send(sinkCtx, payload)
}

func (f *EventFanout) drop(sink contract.Sink) {
	f.registry.Remove(sink)
	if err := sink.Close(); err != nil {
		f.log.Debug("Closing dropped client failed", "client_id", sink.ID(), "error", err)
	}
}
