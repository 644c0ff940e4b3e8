// Package notify delivers post-commit money events to per-user channels.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

// Payload encodes the event body published on the user's channel.
func Payload(event domain.MoneyEvent) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s event: %w", event.Name, err)
	}
	return string(b), nil
}

// LogNotifier only logs events. It is used when no broker is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Notify(ctx context.Context, event domain.MoneyEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Notification emitted",
		slog.String("event", event.Name),
		slog.String("channel", event.Channel()),
		slog.String("ref_number", event.RefNumber),
		slog.String("amount", event.Amount))
	return nil
}
