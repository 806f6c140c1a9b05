package domain

import (
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const networkCodeLength = 2

// Reading identifies a bounded numeric field.
type Reading string

const (
	ReadingMagnitude    Reading = "mag"
	ReadingLon          Reading = "lon"
	ReadingLat          Reading = "lat"
	ReadingDepth        Reading = "depth"
	ReadingCDI          Reading = "cdi"
	ReadingMMI          Reading = "mmi"
	ReadingSignificance Reading = "sig"
	ReadingGap          Reading = "gap"
)

type bounds struct {
	min, max float64
}

var readingBounds = map[Reading]bounds{
	ReadingMagnitude:    {-1.0, 10.0},
	ReadingLon:          {-180.0, 180.0},
	ReadingLat:          {-90.0, 90.0},
	ReadingDepth:        {-100, 1000},
	ReadingCDI:          {0.0, 12.0},
	ReadingMMI:          {0.0, 12.0},
	ReadingSignificance: {0, 1000},
	ReadingGap:          {0.0, 360.0},
}

var (
	alertLevels = []string{
		string(AlertGreen), string(AlertYellow), string(AlertOrange), string(AlertRed),
	}
	reviewStatuses = []string{
		string(StatusAutomatic), string(StatusReviewed), string(StatusDeleted),
	}
)

// ValidateNaming checks earthquake_id and title: a non-empty string.
func ValidateNaming(logger *slog.Logger, value any, field string) *string {
	if value == nil || value == "" {
		reject(logger, field, value, "No recorded value")
		return nil
	}
	s, ok := value.(string)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected string")
		return nil
	}
	return &s
}

// ValidateTime converts epoch milliseconds to a formatted UTC time. A
// non-integer or future time is replaced with the current time.
func ValidateTime(logger *slog.Logger, value any) *string {
	const field = "time"
	if value == nil {
		reject(logger, field, value, "No recorded value")
		return nil
	}

	current := now()
	ms, ok := asInteger(value)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected int for time in ms")
		return formatTime(current)
	}

	recorded := time.UnixMilli(ms).UTC()
	if recorded.After(current) {
		reject(logger, field, value, "Future earthquake cannot be predicted")
		return formatTime(current)
	}
	return formatTime(recorded)
}

// ValidateCount checks manually reported counts (felt, nst): a non-negative
// integer.
func ValidateCount(logger *slog.Logger, value any, field string) *int64 {
	if value == nil {
		reject(logger, field, value, "No recorded value")
		return nil
	}
	n, ok := asInteger(value)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected int")
		return nil
	}
	if n < 0 {
		reject(logger, field, value, "Value cannot be below 0")
		return nil
	}
	return &n
}

// ValidateStationDistance checks dmin, the horizontal distance to the
// nearest station: a non-negative number.
func ValidateStationDistance(logger *slog.Logger, value any) *float64 {
	const field = "dmin"
	if value == nil {
		reject(logger, field, value, "No recorded value")
		return nil
	}
	f, ok := asNumber(value)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected a number")
		return nil
	}
	if !(f >= 0) {
		reject(logger, field, value, "Value cannot be below 0")
		return nil
	}
	return &f
}

// ValidateCategory checks open-vocabulary codes (magtype, earthquake_type).
func ValidateCategory(logger *slog.Logger, value any, field string) *string {
	s, ok := value.(string)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected a string")
		return nil
	}
	return &s
}

// ValidateNetwork checks the two-letter network code.
func ValidateNetwork(logger *slog.Logger, value any) *string {
	const field = "network"
	s, ok := value.(string)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected a string")
		return nil
	}
	if utf8.RuneCountInString(s) != networkCodeLength {
		reject(logger, field, value, "Invalid length: expected 2")
		return nil
	}
	return &s
}

// ValidateAlert checks the PAGER alert level and lower-cases it.
func ValidateAlert(logger *slog.Logger, value any) *AlertLevel {
	s := validateEnum(logger, value, "alert", alertLevels)
	if s == nil {
		return nil
	}
	level := AlertLevel(*s)
	return &level
}

// ValidateStatus checks the review status and lower-cases it.
func ValidateStatus(logger *slog.Logger, value any) *ReviewStatus {
	s := validateEnum(logger, value, "status", reviewStatuses)
	if s == nil {
		return nil
	}
	status := ReviewStatus(*s)
	return &status
}

func validateEnum(logger *slog.Logger, value any, field string, allowed []string) *string {
	if value == nil || value == "" {
		reject(logger, field, value, "No recorded value")
		return nil
	}
	s, ok := value.(string)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected string")
		return nil
	}
	lower := strings.ToLower(s)
	for _, a := range allowed {
		if lower == a {
			return &lower
		}
	}
	logger.Warn("Value not recognised", "field", field, "value", value,
		"allowed", strings.Join(allowed, ", "))
	return nil
}

// ValidateReading checks a bounded numeric reading against its inclusive
// range. The value is returned unchanged when it passes.
func ValidateReading(logger *slog.Logger, value any, reading Reading) *float64 {
	field := string(reading)
	if value == nil {
		reject(logger, field, value, "No recorded value")
		return nil
	}
	b, ok := readingBounds[reading]
	if !ok {
		reject(logger, field, value, "Unknown reading type")
		return nil
	}
	f, ok := asNumber(value)
	if !ok {
		reject(logger, field, value, "Invalid data type: expected a number")
		return nil
	}
	// Written so NaN fails the check.
	if !(b.min <= f && f <= b.max) {
		logger.Warn("Value out of range", "field", field, "value", value, "min", b.min, "max", b.max)
		return nil
	}
	return &f
}

func reject(logger *slog.Logger, field string, value any, cause string) {
	logger.Warn(cause, "field", field, "value", value)
}

func formatTime(t time.Time) *string {
	s := t.UTC().Format(TimeLayout)
	return &s
}

// asInteger accepts Go integer types and integer json.Number literals.
// bool is a distinct type in Go, so it never matches.
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case json.Number:
		if strings.ContainsAny(string(n), ".eE") {
			return 0, false
		}
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// asNumber accepts any Go numeric type or json.Number.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if i, ok := asInteger(v); ok {
		return float64(i), true
	}
	return 0, false
}
