// Package swarm is the peer-to-peer side of the relay, built on libp2p.
// A room is a gossipsub topic derived from a shared 32-byte key; peers on
// the local network are found with mDNS.
package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"swarm-relay/contract"
	"swarm-relay/domain"
	"swarm-relay/domain/event"
	relayerrors "swarm-relay/errors"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
)

// Version is reported by the info command.
const Version = "1.0.0"

const memberIDLength = 8

type Config struct {
	ListenAddrs     []string
	MDNSServiceTag  string // empty disables local discovery
	EventBufferSize int
}

// wireMessage is what peers publish in a room.
type wireMessage struct {
	Message string `json:"message"`
}

type room struct {
	key    string
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

type Backend struct {
	log    *slog.Logger
	host   host.Host
	pubsub *pubsub.PubSub
	mdns   mdns.Service

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex // guards room and roomSeq
	room    *room
	roomSeq uint64

	eventsMu sync.RWMutex // guards closed and the send side of events
	events   chan event.SwarmEvent
	closed   bool
}

var _ contract.ISwarm = (*Backend)(nil)

// New starts a libp2p host with the given identity and joins no room yet.
func New(ctx context.Context, log *slog.Logger, cfg Config, identity crypto.PrivKey) (*Backend, error) {
	ctx, cancel := context.WithCancel(ctx)

	opts := []libp2p.Option{libp2p.ListenAddrStrings(cfg.ListenAddrs...)}
	if identity != nil {
		opts = append(opts, libp2p.Identity(identity))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		_ = h.Close()
		cancel()
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	b := &Backend{
		log:    log,
		host:   h,
		pubsub: ps,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan event.SwarmEvent, max(cfg.EventBufferSize, 1)),
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF:    b.onConnected,
		DisconnectedF: b.onDisconnected,
	})

	if cfg.MDNSServiceTag != "" {
		service := mdns.NewMdnsService(h, cfg.MDNSServiceTag, &discoveryNotifee{ctx: ctx, log: log, host: h})
		if err := service.Start(); err != nil {
			log.Warn("mDNS setup failed", "error", err)
		} else {
			b.mdns = service
		}
	}
	return b, nil
}

func (b *Backend) Events() <-chan event.SwarmEvent {
	return b.events
}

// CreateRoom draws a fresh topic and joins it.
func (b *Backend) CreateRoom(ctx context.Context) (domain.RoomResult, error) {
	topic, err := newTopic()
	if err != nil {
		return domain.RoomResult{}, fmt.Errorf("failed to generate topic: %w", err)
	}
	return b.JoinRoom(ctx, topic)
}

// JoinRoom subscribes to the room derived from key and leaves the previous one.
// On failure the previous room is kept.
func (b *Backend) JoinRoom(ctx context.Context, key string) (domain.RoomResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoomResult{}, err
	}
	if err := validateTopic(key); err != nil {
		return domain.RoomResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return domain.RoomResult{}, relayerrors.ErrSwarmClosed
	}
	if b.room != nil && b.room.key == key {
		return domain.RoomResult{Done: true, Topic: key, Seq: b.roomSeq}, nil
	}

	topic, err := b.pubsub.Join(pubsubTopicName(key))
	if err != nil {
		return domain.RoomResult{}, fmt.Errorf("failed to join topic: %w", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		_ = topic.Close()
		return domain.RoomResult{}, fmt.Errorf("failed to subscribe topic: %w", err)
	}

	b.leaveLocked()

	roomCtx, cancel := context.WithCancel(b.ctx)
	r := &room{key: key, topic: topic, sub: sub, cancel: cancel, done: make(chan struct{})}
	b.room = r
	b.roomSeq++
	go b.readLoop(roomCtx, r)

	b.log.Info("Joined swarm room", "topic", key, "seq", b.roomSeq)
	return domain.RoomResult{Done: true, Topic: key, Seq: b.roomSeq}, nil
}

// SendMessage publishes text to the peers of the active room.
func (b *Backend) SendMessage(ctx context.Context, text string) error {
	b.mu.Lock()
	r := b.room
	b.mu.Unlock()
	if r == nil {
		return relayerrors.ErrNoActiveRoom
	}

	data, err := json.Marshal(wireMessage{Message: text})
	if err != nil {
		return err
	}
	return r.topic.Publish(ctx, data)
}

func (b *Backend) PeerCount() int {
	return len(b.host.Network().Peers())
}

func (b *Backend) Version() string {
	return Version
}

// MemberID shortens a peer id to its last characters, the part that differs between peers.
func (b *Backend) MemberID(p domain.PeerID) string {
	return memberID(string(p))
}

// ID is the peer id of this node.
func (b *Backend) ID() string {
	return b.host.ID().String()
}

// Addrs lists the multiaddresses peers can dial.
func (b *Backend) Addrs() []string {
	addrs := b.host.Addrs()
	result := make([]string, len(addrs))
	for i, addr := range addrs {
		result[i] = fmt.Sprintf("%s/p2p/%s", addr, b.host.ID())
	}
	return result
}

// Close leaves the room, stops discovery and the host, then closes the event stream.
// Further calls are no-ops.
func (b *Backend) Close() error {
	b.eventsMu.Lock()
	if b.closed {
		b.eventsMu.Unlock()
		return nil
	}
	b.closed = true
	close(b.events)
	b.eventsMu.Unlock()

	b.mu.Lock()
	b.cancel()
	b.leaveLocked()
	b.mu.Unlock()

	if b.mdns != nil {
		if err := b.mdns.Close(); err != nil {
			b.log.Debug("Closing mDNS failed", "error", err)
		}
	}
	return b.host.Close()
}

func (b *Backend) leaveLocked() {
	if b.room == nil {
		return
	}
	r := b.room
	b.room = nil
	r.cancel()
	r.sub.Cancel()
	<-r.done
	if err := r.topic.Close(); err != nil {
		b.log.Debug("Closing topic failed", "topic", r.key, "error", err)
	}
}

func (b *Backend) readLoop(ctx context.Context, r *room) {
	defer close(r.done)
	self := b.host.ID()
	for {
		msg, err := r.sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				b.emit(event.PeerFailed{Err: err, At: time.Now()})
			}
			return
		}
		from := msg.GetFrom()
		if from == self {
			continue
		}
		b.emit(event.PeerData{
			Peer:     toPeerID(from),
			MemberID: memberID(from.String()),
			Payload:  msg.Data,
			At:       time.Now(),
		})
	}
}

func (b *Backend) onConnected(n network.Network, conn network.Conn) {
	p := conn.RemotePeer()
	// A peer may open several connections, only the first one is news.
	if len(n.ConnsToPeer(p)) == 1 {
		b.emit(event.PeerConnected{Peer: toPeerID(p), MemberID: memberID(p.String()), At: time.Now()})
	}
	b.emit(event.SwarmUpdated{PeerCount: len(n.Peers()), At: time.Now()})
}

func (b *Backend) onDisconnected(n network.Network, conn network.Conn) {
	if n.Connectedness(conn.RemotePeer()) == network.Connected {
		return
	}
	b.emit(event.SwarmUpdated{PeerCount: len(n.Peers()), At: time.Now()})
}

// emit never blocks: libp2p notifications run on the network goroutines.
func (b *Backend) emit(evt event.SwarmEvent) {
	b.eventsMu.RLock()
	defer b.eventsMu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- evt:
	default:
		b.log.Warn("Swarm event channel full, event dropped", "type", fmt.Sprintf("%T", evt))
	}
}

func toPeerID(p peer.ID) domain.PeerID {
	return domain.PeerID(p.String())
}

func memberID(id string) string {
	if len(id) <= memberIDLength {
		return id
	}
	return id[len(id)-memberIDLength:]
}
