package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	cerrors "cogentcore.org/core/base/errors"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/oxy-plot/engine/session"
)

// client is the implementation of the Client interface.
type client struct {
	url    string
	sess   session.Session
	logger *slog.Logger

	dialer         *websocket.Dialer
	header         http.Header
	reconnectDelay time.Duration

	outbound chan []byte
}

// Client connects a session to the host over a websocket. Inbound frames are decoded and
// queued on the session in arrival order; snapshot replies are written back on the same
// connection.
type Client interface {
	// Run dials the host and pumps messages until ctx is done. With a reconnect delay
	// set, a dropped connection is redialed after the delay; otherwise Run returns the
	// connection error.
	//
	// Parameters:
	//   - ctx: stops the client
	//
	// Returns:
	//   - error: the dial or connection error, or the context error
	Run(ctx context.Context) error

	// Serve pumps messages over an already established connection until it fails or ctx
	// is done. The connection is closed on return.
	//
	// Parameters:
	//   - ctx: stops the pumps
	//   - conn: the websocket connection
	//
	// Returns:
	//   - error: the connection error, or the context error
	Serve(ctx context.Context, conn *websocket.Conn) error
}

var _ Client = &client{}

// NewClient creates a new Client for a session.
//
// Parameters:
//   - url: the host websocket url
//   - sess: the session receiving host events, must not be nil
//   - options: functional options to configure the client
//
// Returns:
//   - Client: the new client
func NewClient(url string, sess session.Session, options ...ClientBuilderOption) Client {
	if sess == nil {
		panic("transport: session is required")
	}
	c := &client{
		url:      url,
		sess:     sess,
		logger:   slog.Default(),
		dialer:   websocket.DefaultDialer,
		outbound: make(chan []byte, 64),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *client) Run(ctx context.Context) error {
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err == nil {
			c.logger.Info("connected to host", "url", c.url)
			err = c.Serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.reconnectDelay <= 0 {
			return fmt.Errorf("host connection %s: %w", c.url, err)
		}
		c.logger.Warn("host connection lost", "url", c.url, "err", err, "retry", c.reconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *client) Serve(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.read(gctx, conn)
	})
	g.Go(func() error {
		return c.write(gctx, conn)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the reader.
		return conn.Close()
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *client) read(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errConnectionClosed
			}
			return fmt.Errorf("read: %w", err)
		}
		msg, err := Decode(data)
		if err != nil {
			cerrors.Log(err)
			continue
		}
		if snap, ok := msg.(*session.Snapshot); ok {
			snap.Reply = c.replyInserted
		}
		if err := c.sess.Send(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *client) write(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			return nil
		case frame := <-c.outbound:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

// replyInserted runs on the session loop and must not block it.
func (c *client) replyInserted(id, plotID string) {
	frame, err := Encode(KindInserted, Inserted{ID: id, PlotID: plotID})
	if cerrors.Log(err) != nil {
		return
	}
	select {
	case c.outbound <- frame:
	default:
		c.logger.Warn("dropping insert notification, outbound queue full", "id", id, "plot", plotID)
	}
}

var errConnectionClosed = errors.New("host closed the connection")
