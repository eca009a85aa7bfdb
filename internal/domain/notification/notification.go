// Package notification defines the fire-and-forget notification
// collaborator. Delivery failures are logged and never block cart or order
// state transitions.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event names the notification kinds emitted by the transaction core.
type Event string

const (
	EventOrderCreated  Event = "order.created"
	EventOrderStatus   Event = "order.status_changed"
	EventOrderRefunded Event = "order.refunded"
	EventReturnRequest Event = "order.return_requested"
	EventCartAbandoned Event = "cart.abandoned"
)

// Sender is the external notification collaborator.
type Sender interface {
	Send(ctx context.Context, event Event, payload map[string]any) error
}

// Dispatch sends asynchronously with its own deadline, detached from the
// caller's context so a finished request does not cancel delivery. Errors
// are logged, never returned.
func Dispatch(lg *zap.Logger, s Sender, event Event, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.Send(ctx, event, payload); err != nil {
			lg.Warn("notification send failed",
				zap.String("event", string(event)),
				zap.Error(err),
			)
		}
	}()
}

var _ Sender = (*LogSender)(nil)

// LogSender logs notifications instead of delivering them. Used until a
// real dispatcher is wired in.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// Send logs the event and payload.
func (s *LogSender) Send(_ context.Context, event Event, payload map[string]any) error {
	s.lg.Info("notification",
		zap.String("event", string(event)),
		zap.Any("payload", payload),
	)
	return nil
}
