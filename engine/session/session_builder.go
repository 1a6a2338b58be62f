package session

import (
	"log/slog"
)

// SessionBuilderOption is a functional option for configuring a Session.
// Use the With* functions to create options.
type SessionBuilderOption func(s *session)

// WithLogger sets the logger handler errors and scene loads are reported to.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SessionBuilderOption {
	return func(s *session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInboxSize sets how many messages may be queued before Send blocks.
//
// Parameters:
//   - n: the inbox capacity
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithInboxSize(n int) SessionBuilderOption {
	return func(s *session) {
		if n >= 0 {
			s.inbox = make(chan Message, n)
		}
	}
}

// WithErrorListener sets a function called with every message whose handler failed.
// It runs on the loop goroutine.
//
// Parameters:
//   - fn: the listener
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithErrorListener(fn func(msg Message, err error)) SessionBuilderOption {
	return func(s *session) {
		s.onError = fn
	}
}
