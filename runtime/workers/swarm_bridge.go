package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
	"swarm-relay/domain/event"
)

var _ contract.Worker = (*SwarmBridge)(nil)

// SwarmBridge turns what happens in the swarm into messages for the UI clients.
// It owns no peer state: the swarm backend keeps track of its peers.
type SwarmBridge struct {
	log    *slog.Logger
	swarm  contract.ISwarm
	fanout contract.IBroadcaster
}

// peerPayload is the JSON object peers exchange, {"message": "..."}.
type peerPayload struct {
	Message *string `json:"message"`
}

func NewSwarmBridge(log *slog.Logger, swarm contract.ISwarm, fanout contract.IBroadcaster) *SwarmBridge {
	return &SwarmBridge{log: log, swarm: swarm, fanout: fanout}
}

func (w *SwarmBridge) Run(ctx context.Context) error {
	events := w.swarm.Events()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping swarm bridge")
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				w.log.Info("Swarm event stream closed")
				return nil
			}
			w.Handle(ctx, evt)
		}
	}
}

// Handle reacts to a single swarm event.
func (w *SwarmBridge) Handle(ctx context.Context, evt event.SwarmEvent) {
	switch e := evt.(type) {
	case event.PeerConnected:
		memberID := w.memberID(e.Peer, e.MemberID)
		w.log.Info(fmt.Sprintf("New peer %s joined", memberID))
		w.fanout.Broadcast(ctx, domain.SystemMessage(fmt.Sprintf("New peer %s joined", memberID)))
	case event.PeerData:
		w.relayPeerData(ctx, e)
	case event.PeerFailed:
		w.log.Warn("Connection error", "peer", w.memberID(e.Peer, e.MemberID), "error", e.Err)
	case event.SwarmUpdated:
		w.log.Info(fmt.Sprintf("Number of connections is now %d", e.PeerCount))
		w.fanout.Broadcast(ctx, domain.SystemMessage(fmt.Sprintf("Connected peers: %d", e.PeerCount)))
	default:
		w.log.Warn("Unknown swarm event", "type", fmt.Sprintf("%T", evt))
	}
}

// relayPeerData forwards a peer message. Anything that is not {"message": string}
// is dropped here and never reaches the UI clients.
func (w *SwarmBridge) relayPeerData(ctx context.Context, e event.PeerData) {
	memberID := w.memberID(e.Peer, e.MemberID)
	var payload peerPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		w.log.Warn("Error processing peer data", "peer", memberID, "error", err)
		return
	}
	if payload.Message == nil {
		w.log.Warn("Peer data without message field", "peer", memberID)
		return
	}
	w.fanout.Broadcast(ctx, domain.ChatMessage(memberID, *payload.Message))
}

func (w *SwarmBridge) memberID(peer domain.PeerID, known string) string {
	if known != "" {
		return known
	}
	return w.swarm.MemberID(peer)
}
