package settings

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// dbConfig is an immutable snapshot of the settings table.
type dbConfig struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var current atomic.Pointer[dbConfig]

// StoreDBConfig replaces the process-wide settings snapshot.
func StoreDBConfig(updatedAt time.Time, values map[string]json.RawMessage) {
	copied := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		copied[key] = value
	}
	current.Store(&dbConfig{updatedAt: updatedAt, values: copied})
}

// DBConfigValue returns the raw JSON value for a settings key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snapshot := current.Load()
	if snapshot == nil {
		return nil, false
	}
	value, ok := snapshot.values[strings.TrimSpace(key)]
	return value, ok
}

// IntValue returns a settings key as a non-negative int, or the fallback.
func IntValue(key string, fallback int) int {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseNonNegativeInt(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// FloatValue returns a settings key as a non-negative float, or the fallback.
func FloatValue(key string, fallback float64) float64 {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseNonNegativeFloat(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// StringValue returns a settings key as a trimmed string, or the fallback.
func StringValue(key string, fallback string) string {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseString(raw)
	if !okParse || parsed == "" {
		return fallback
	}
	return parsed
}

// BoolValue returns a settings key as a bool, or the fallback.
func BoolValue(key string, fallback bool) bool {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseBool(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

func parseNonNegativeInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var parsedInt int
	if errUnmarshalInt := json.Unmarshal(raw, &parsedInt); errUnmarshalInt == nil {
		return parsedInt, parsedInt >= 0
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(parsedString))
		if errParse != nil {
			return 0, false
		}
		return parsed, parsed >= 0
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return 0, false
		}
		if parsedFloat < 0 || parsedFloat != math.Trunc(parsedFloat) {
			return 0, false
		}
		return int(parsedFloat), true
	}
	return 0, false
}

func parseNonNegativeFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return 0, false
		}
		return parsedFloat, parsedFloat >= 0
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.ParseFloat(strings.TrimSpace(parsedString), 64)
		if errParse != nil {
			return 0, false
		}
		return parsed, parsed >= 0
	}
	return 0, false
}

func parseString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var parsed string
	if errUnmarshal := json.Unmarshal(raw, &parsed); errUnmarshal == nil {
		return strings.TrimSpace(parsed), true
	}
	return "", false
}

func parseBool(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false, false
	}
	var parsedBool bool
	if errUnmarshal := json.Unmarshal(raw, &parsedBool); errUnmarshal == nil {
		return parsedBool, true
	}
	var parsedString string
	if errUnmarshal := json.Unmarshal(raw, &parsedString); errUnmarshal == nil {
		switch strings.ToLower(strings.TrimSpace(parsedString)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	}
	return false, false
}
