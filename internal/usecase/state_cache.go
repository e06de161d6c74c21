package usecase

import "encoding/json"

// StateCache retains the most recent snapshot payload, already encoded, for
// replay to a freshly connected endpoint. Last write wins; there is no expiry.
type StateCache struct {
	data json.RawMessage
}

// Store overwrites the cached snapshot.
func (c *StateCache) Store(data json.RawMessage) {
	c.data = append(json.RawMessage(nil), data...)
}

// Load returns the cached snapshot, if any.
func (c *StateCache) Load() (json.RawMessage, bool) {
	return c.data, c.data != nil
}

// Clear drops the cached snapshot.
func (c *StateCache) Clear() { c.data = nil }
