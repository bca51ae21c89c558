package server

import (
	"context"
	"swarm-relay/contract"
	relayerrors "swarm-relay/errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

var _ contract.Sink = (*Client)(nil)

// Client is one browser connected over a WebSocket.
// gorilla/websocket allows a single concurrent writer, writes are serialized here;
// Close and control frames may run concurrently with them.
type Client struct {
	id        string
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{id: uuid.NewString(), conn: conn, closed: make(chan struct{})}
}

func (c *Client) ID() string { return c.id }

// Send writes one text frame. The context deadline, if any, becomes the write deadline.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return relayerrors.ErrSinkClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) ping(deadline time.Time) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// Close sends a close frame when possible and releases the socket. Only the first call does anything.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod))
		err = c.conn.Close()
	})
	return err
}
