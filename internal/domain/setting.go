package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// SettingKind is the value type of an operator setting.
type SettingKind int

const (
	SettingBool SettingKind = iota
	SettingNumber
)

func (k SettingKind) String() string {
	if k == SettingNumber {
		return "number"
	}
	return "bool"
}

// SettingSpec describes one operator-adjustable setting.
// Number settings are seconds by convention; no unit is checked.
type SettingSpec struct {
	Key     string
	Label   string
	Group   string
	Kind    SettingKind
	Default any // bool or float64
}

// SettingsSchema is the fixed set of settings, in control surface order.
var SettingsSchema = []SettingSpec{
	{Key: "active", Label: "Enable bot", Group: "general", Kind: SettingBool, Default: true},
	{Key: "autojoin", Label: "Auto-join round", Group: "general", Kind: SettingBool, Default: false},
	{Key: "suicide", Label: "Lose life on purpose", Group: "general", Kind: SettingBool, Default: false},
	{Key: "strategy_longest", Label: "Maximize length", Group: "strategy", Kind: SettingBool, Default: false},
	{Key: "strategy_alphabet", Label: "Maximize alphabet", Group: "strategy", Kind: SettingBool, Default: false},
	{Key: "strategy_shortest", Label: "Panic mode (short words)", Group: "strategy", Kind: SettingBool, Default: false},
	{Key: "minTypingDelay", Label: "Min typing delay", Group: "timing", Kind: SettingNumber, Default: 0.05},
	{Key: "maxTypingDelay", Label: "Max typing delay", Group: "timing", Kind: SettingNumber, Default: 0.15},
	{Key: "startDelayMin", Label: "Start delay min", Group: "timing", Kind: SettingNumber, Default: 0.5},
	{Key: "startDelayMax", Label: "Start delay max", Group: "timing", Kind: SettingNumber, Default: 1.5},
}

// LookupSetting returns the schema entry for key.
func LookupSetting(key string) (SettingSpec, bool) {
	for _, s := range SettingsSchema {
		if s.Key == key {
			return s, true
		}
	}
	return SettingSpec{}, false
}

// Coerce converts v into the setting's value type. Booleans accept bool only;
// numbers accept any finite numeric value, json.Number, or a numeric string.
func (s SettingSpec) Coerce(v any) (any, error) {
	switch s.Kind {
	case SettingBool:
		b, ok := v.(bool)
		if !ok {
			return nil, NewDomainError("Setting.Coerce", ErrInvalidSetting, fmt.Sprintf("%s: want bool, got %T", s.Key, v))
		}
		return b, nil
	case SettingNumber:
		f, err := toFloat(v)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, NewDomainError("Setting.Coerce", ErrInvalidSetting, fmt.Sprintf("%s: want number, got %v", s.Key, v))
		}
		return f, nil
	default:
		return nil, NewDomainError("Setting.Coerce", ErrInvalidSetting, s.Key)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// Settings holds the current value of every schema setting. The zero value is
// not usable; call NewSettings.
type Settings struct {
	values map[string]any
}

// NewSettings returns settings at their schema defaults.
func NewSettings() *Settings {
	s := &Settings{values: make(map[string]any, len(SettingsSchema))}
	for _, spec := range SettingsSchema {
		s.values[spec.Key] = spec.Default
	}
	return s
}

// Get returns the current value of key.
func (s *Settings) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Bool returns the current value of a bool setting, false if absent.
func (s *Settings) Bool(key string) bool {
	b, _ := s.values[key].(bool)
	return b
}

// Number returns the current value of a number setting, 0 if absent.
func (s *Settings) Number(key string) float64 {
	f, _ := s.values[key].(float64)
	return f
}

// Set validates and stores value for key, returning the coerced value.
func (s *Settings) Set(key string, value any) (any, error) {
	spec, ok := LookupSetting(key)
	if !ok {
		return nil, NewDomainError("Settings.Set", ErrUnknownSetting, key)
	}
	v, err := spec.Coerce(value)
	if err != nil {
		return nil, err
	}
	s.values[key] = v
	return v, nil
}

// Snapshot returns a copy of every setting keyed by name.
func (s *Settings) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
