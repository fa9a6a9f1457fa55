package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes codec events to an slog.Logger.
// Useful during development to see events on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level, or Warn level for error events.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
		slog.String("msg_type", event.MessageType.String()),
	}
	if event.MessageCode != 0 {
		attrs = append(attrs, slog.Uint64("msg_code", uint64(event.MessageCode)))
	}

	level := slog.LevelDebug
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Header != nil:
		attrs = append(attrs,
			slog.Uint64("profile_id", uint64(event.Header.ProfileID)),
			slog.Uint64("components", uint64(event.Header.ComponentCount)),
		)
		if event.Header.AlertCode != nil {
			attrs = append(attrs, slog.Uint64("alert_code", uint64(*event.Header.AlertCode)))
		}
		if event.Header.AlertTimestamp != nil {
			attrs = append(attrs, slog.Uint64("alert_timestamp", uint64(*event.Header.AlertTimestamp)))
		}
		if event.Header.Size > 0 {
			attrs = append(attrs, slog.Int("size", event.Header.Size))
		}
	case event.Component != nil:
		c := event.Component
		attrs = append(attrs,
			slog.Int("index", c.Index),
			slog.Uint64("cluster", uint64(c.ClusterID)),
			slog.Uint64("command", uint64(c.CommandID)),
			slog.Uint64("tsn", uint64(c.SequenceNumber)),
			slog.Int("length", c.Length),
			slog.Bool("encrypted", c.Encrypted),
		)
		if c.FrameCounter != nil {
			attrs = append(attrs, slog.Uint64("frame_counter", uint64(*c.FrameCounter)))
		}
		if c.FromDateTime != nil {
			attrs = append(attrs, slog.Uint64("from_date_time", uint64(*c.FromDateTime)))
		}
		if c.Decrypted != nil {
			attrs = append(attrs, slog.Bool("decrypted", *c.Decrypted))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "gbz", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
