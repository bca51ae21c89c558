package swarm

import (
	"context"
	"log/slog"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
)

const discoveryConnectTimeout = 10 * time.Second

// discoveryNotifee dials every peer announced on the local network by mDNS.
type discoveryNotifee struct {
	ctx  context.Context
	log  *slog.Logger
	host host.Host
}

func (n *discoveryNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == n.host.ID() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(n.ctx, discoveryConnectTimeout)
		defer cancel()
		if err := n.host.Connect(ctx, pi); err != nil {
			n.log.Debug("Failed to connect to discovered peer", "peer", pi.ID.String(), "error", err)
		}
	}()
}
