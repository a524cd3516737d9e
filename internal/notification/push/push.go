// Package push defines the outbound push-transport contract.
//
// The transport itself (FCM or equivalent) runs as an external collaborator
// with its own retry semantics; this engine only submits requests and
// classifies failures.
package push

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotRegistered marks the permanent failure class: the address is no
// longer valid at the transport and must be cleared so future dispatches
// skip the push step until the guardian re-registers.
var ErrNotRegistered = errors.New("push address not registered")

// Message is one outbound push request.
type Message struct {
	Title string
	Body  string
	// Data is the flat key/value payload clients branch on.
	Data map[string]string
}

// Sender submits a push request for a registered address.
type Sender interface {
	Send(ctx context.Context, addr string, msg Message) error
}

// LogSender logs instead of delivering. Used in development and tests when
// no push transport is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, addr string, msg Message) error {
	s.logger.InfoContext(ctx, "push (log only)",
		"addr", addr,
		"title", msg.Title,
		"type", msg.Data["type"],
	)
	return nil
}
