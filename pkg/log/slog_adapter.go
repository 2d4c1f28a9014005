package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes connectivity events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}

	// Add optional identifiers
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Signal != nil:
		attrs = append(attrs, slog.String("signal", event.Signal.Name))
		if event.Signal.SSID != "" {
			attrs = append(attrs, slog.String("ssid", event.Signal.SSID))
		}
		if event.Signal.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Signal.Detail))
		}
	case event.Portal != nil:
		attrs = append(attrs,
			slog.String("method", event.Portal.Method),
			slog.String("path", event.Portal.Path),
			slog.Int("status", event.Portal.Status),
		)
		if event.Portal.RemoteAddr != "" {
			attrs = append(attrs, slog.String("remote_addr", event.Portal.RemoteAddr))
		}
	case event.Validation != nil:
		attrs = append(attrs,
			slog.String("ssid", event.Validation.SSID),
			slog.String("outcome", event.Validation.Outcome),
			slog.Duration("elapsed", event.Validation.Elapsed),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_context", event.Error.Context),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "connectivity", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
