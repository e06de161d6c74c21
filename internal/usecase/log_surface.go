package usecase

import (
	"log/slog"

	"jklm-bridge/internal/domain"
)

// LogSurface is a headless control surface that records settings and status
// changes in the log.
type LogSurface struct {
	logger *slog.Logger
	phase  domain.Phase
}

var _ domain.ControlSurface = (*LogSurface)(nil)

// NewLogSurface creates a LogSurface.
func NewLogSurface(logger *slog.Logger) *LogSurface {
	return &LogSurface{logger: logger}
}

// SetSetting logs the new value.
func (s *LogSurface) SetSetting(key string, value any) {
	s.logger.Info("setting", "key", key, "value", value)
}

// SetStatus logs phase transitions only.
func (s *LogSurface) SetStatus(status domain.Status) {
	phase := status.Phase()
	if phase == s.phase {
		return
	}
	s.phase = phase
	s.logger.Info("status", "phase", string(phase), "relay", status.Relay.String(), "channel_id", status.ChannelID)
}
