package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"jklm-bridge/internal/domain"
	"jklm-bridge/pkg/wire"
)

// ConfigSync keeps the operator settings consistent between the control
// surface and the endpoint. Concurrent edits on both sides resolve as last
// applied wins.
type ConfigSync struct {
	settings *domain.Settings
	sender   Sender
	surface  domain.ControlSurface
	logger   *slog.Logger
}

// NewConfigSync creates a ConfigSync over settings.
func NewConfigSync(settings *domain.Settings, sender Sender, surface domain.ControlSurface, logger *slog.Logger) *ConfigSync {
	return &ConfigSync{settings: settings, sender: sender, surface: surface, logger: logger}
}

// Settings returns the live settings.
func (c *ConfigSync) Settings() *domain.Settings { return c.settings }

// LocalChange stores an operator edit and, when connected, sends exactly one
// single-key configUpdate. The value is stored even while disconnected; the
// endpoint receives it with the full map on the next connect.
func (c *ConfigSync) LocalChange(key string, value any) error {
	v, err := c.settings.Set(key, value)
	if err != nil {
		return err
	}

	if c.sender.State() != domain.Connected {
		c.logger.Debug("setting changed while disconnected", "key", key, "value", v)
		return nil
	}
	msg, err := wire.Encode(wire.EventConfigUpdate, map[string]any{key: v})
	if err != nil {
		return domain.NewDomainError("ConfigSync.LocalChange", domain.ErrEncodePayload, err.Error())
	}
	c.sender.Send(msg)
	c.logger.Info("setting sent", "key", key, "value", v)
	return nil
}

// SendFull sends every setting as one configUpdate.
func (c *ConfigSync) SendFull() {
	msg, err := wire.Encode(wire.EventConfigUpdate, c.settings.Snapshot())
	if err != nil {
		c.logger.Error("encode settings", "error", err)
		return
	}
	c.sender.Send(msg)
}

// Apply merges an inbound configUpdate into the settings and mirrors each
// accepted key on the control surface without sending anything back. Unknown
// keys and invalid values are skipped; the rest still apply.
func (c *ConfigSync) Apply(data json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var update map[string]any
	if err := dec.Decode(&update); err != nil || update == nil {
		return domain.NewDomainError("ConfigSync.Apply", domain.ErrMalformedEnvelope, "configUpdate data must be an object")
	}

	keys := make([]string, 0, len(update))
	for k := range update {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v, err := c.settings.Set(key, update[key])
		switch {
		case errors.Is(err, domain.ErrUnknownSetting):
			c.logger.Debug("ignoring unknown setting", "key", key)
			continue
		case err != nil:
			c.logger.Warn("ignoring invalid setting", "key", key, "error", err, "code", string(domain.ErrorCodeOf(err)))
			continue
		}
		c.surface.SetSetting(key, v)
	}
	return nil
}

// CustomMessage sends free text typed by the operator. Blank text and text
// typed while disconnected are dropped.
func (c *ConfigSync) CustomMessage(text string) bool {
	if strings.TrimSpace(text) == "" || c.sender.State() != domain.Connected {
		return false
	}
	msg, err := wire.Encode(wire.EventCustomMessage, text)
	if err != nil {
		return false
	}
	return c.sender.Send(msg)
}
