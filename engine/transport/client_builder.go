package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ClientBuilderOption is a functional option for configuring a Client.
// Use the With* functions to create options.
type ClientBuilderOption func(c *client)

// WithLogger sets the logger connection events are reported to.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - ClientBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ClientBuilderOption {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer sets the websocket dialer.
//
// Parameters:
//   - d: the dialer, nil keeps websocket.DefaultDialer
//
// Returns:
//   - ClientBuilderOption: option function to apply
func WithDialer(d *websocket.Dialer) ClientBuilderOption {
	return func(c *client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHeader sets the HTTP header sent with the websocket handshake.
//
// Parameters:
//   - h: the request header
//
// Returns:
//   - ClientBuilderOption: option function to apply
func WithHeader(h http.Header) ClientBuilderOption {
	return func(c *client) {
		c.header = h
	}
}

// WithReconnectDelay makes Run redial a dropped connection after d. Zero disables
// reconnecting.
//
// Parameters:
//   - d: the delay between attempts
//
// Returns:
//   - ClientBuilderOption: option function to apply
func WithReconnectDelay(d time.Duration) ClientBuilderOption {
	return func(c *client) {
		c.reconnectDelay = d
	}
}
