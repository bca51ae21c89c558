package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"swarm-relay/contract"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const writeWait = 10 * time.Second

// relay is what a connection needs from runtime.Relay.
type relay interface {
	Attach(ctx context.Context, sink contract.Sink)
	Detach(sink contract.Sink)
	HandleFrame(ctx context.Context, sink contract.Sink, raw []byte) (string, bool)
	Dispatch(ctx context.Context, sink contract.Sink, line string)
}

type SocketConfig struct {
	ReadLimit         int64
	PongTimeout       time.Duration // 0 disables keep-alive
	PingInterval      time.Duration
	CommandBufferSize int
}

// WebSocketHandler upgrades HTTP requests and runs one session per browser:
// Connecting -> Open -> Closed, with a single detach whichever side ends it.
type WebSocketHandler struct {
	ctx      context.Context
	log      *slog.Logger
	relay    relay
	cfg      SocketConfig
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
	closing atomic.Bool
}

// NewWebSocketHandler builds the upgrade handler. ctx bounds the lifetime of every session.
func NewWebSocketHandler(ctx context.Context, log *slog.Logger, relay relay, cfg SocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:   ctx,
		log:   log,
		relay: relay,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			// The UI is served by this same process on a local port.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closing.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn)
	if !h.track(client) {
		_ = client.Close()
		return
	}
	defer h.untrack(client)
	h.serve(client)
}

func (h *WebSocketHandler) serve(client *Client) {
	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	var detachOnce sync.Once
	detach := func() {
		detachOnce.Do(func() {
			h.relay.Detach(client)
			_ = client.Close()
		})
	}
	defer detach()

	h.relay.Attach(ctx, client)

	commands := make(chan string, max(h.cfg.CommandBufferSize, 1))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(commands)
		return h.readLoop(gctx, client, commands)
	})
	g.Go(func() error {
		h.commandLoop(client, commands)
		return nil
	})
	g.Go(func() error {
		return h.pingLoop(gctx, client)
	})
	g.Go(func() error {
		// Unblocks the reader once the session is over, whatever ended it.
		<-gctx.Done()
		detach()
		return nil
	})

	switch err := g.Wait(); {
	case err == nil, isExpectedClose(err):
		h.log.Debug("WebSocket closed", "client_id", client.ID(), "reason", err)
	default:
		h.log.Warn("WebSocket error", "client_id", client.ID(), "error", err)
	}
}

// readLoop always ends with an error: the read fails once the socket is gone.
func (h *WebSocketHandler) readLoop(ctx context.Context, client *Client, commands chan<- string) error {
	conn := client.conn
	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}
	if h.cfg.PongTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		line, isCommand := h.relay.HandleFrame(ctx, client, data)
		if !isCommand {
			continue
		}
		select {
		case commands <- line:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.log.Warn("Command queue full, command dropped", "client_id", client.ID(), "command", line)
		}
	}
}

// commandLoop runs the commands of one client one after the other.
// It uses the handler context rather than the session one: a create or join
// already sent to the swarm completes even if its issuer went away.
func (h *WebSocketHandler) commandLoop(client *Client, commands <-chan string) {
	for line := range commands {
		h.relay.Dispatch(h.ctx, client, line)
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, client *Client) error {
	if h.cfg.PongTimeout <= 0 || h.cfg.PingInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := client.ping(time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// CloseAll stops accepting upgrades, closes every open socket and waits for the sessions to end.
func (h *WebSocketHandler) CloseAll() {
	h.closing.Store(true)
	h.mu.Lock()
	for client := range h.clients {
		_ = client.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *WebSocketHandler) track(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing.Load() {
		return false
	}
	h.clients[client] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *WebSocketHandler) untrack(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	h.wg.Done()
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure)
}
