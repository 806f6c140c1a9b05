package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) *clockwork.FakeClock {
	t.Helper()
	fc := clockwork.NewFakeClockAt(at)
	SetClock(fc)
	t.Cleanup(func() { SetClock(nil) })
	return fc
}

func TestValidateNaming(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *string
	}{
		{"string", "ci40801680", ptr("ci40801680")},
		{"nil", nil, nil},
		{"empty", "", nil},
		{"number", json.Number("12"), nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateNaming(discardLogger(), tt.value, "earthquake_id"))
		})
	}
}

func TestValidateTime(t *testing.T) {
	current := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	freezeClock(t, current)
	nowFormatted := current.Format(TimeLayout)

	tests := []struct {
		name     string
		value    any
		expected *string
	}{
		{"epoch millis", json.Number("1718710078388"), ptr("2024/06/18 11:27:58")},
		{"go int", int64(1718710078388), ptr("2024/06/18 11:27:58")},
		{"epoch zero", json.Number("0"), ptr("1970/01/01 00:00:00")},
		{"exactly now", json.Number("1719835200000"), ptr(nowFormatted)},
		{"nil", nil, nil},
		{"float substitutes now", json.Number("1718710078388.5"), ptr(nowFormatted)},
		{"string substitutes now", "yesterday", ptr(nowFormatted)},
		{"bool substitutes now", true, ptr(nowFormatted)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateTime(discardLogger(), tt.value))
		})
	}
}

func TestValidateTime_FutureIsReplacedWithNow(t *testing.T) {
	current := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	freezeClock(t, current)
	future := current.Add(380 * 24 * time.Hour).UnixMilli()

	logger, buf := captureLogger()
	result := ValidateTime(logger, future)

	require.NotNil(t, result)
	assert.Equal(t, "2024/07/01 12:00:00", *result)
	assert.Contains(t, buf.String(), "Future earthquake cannot be predicted")
}

func TestValidateCount(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *int64
	}{
		{"positive", json.Number("24"), ptr(int64(24))},
		{"zero", json.Number("0"), ptr(int64(0))},
		{"go int", 7, ptr(int64(7))},
		{"go int8", int8(3), ptr(int64(3))},
		{"go int16", int16(300), ptr(int64(300))},
		{"go uint", uint(5), ptr(int64(5))},
		{"go uint8", uint8(9), ptr(int64(9))},
		{"go uint16", uint16(1200), ptr(int64(1200))},
		{"go uint32", uint32(40), ptr(int64(40))},
		{"go uint64", uint64(41), ptr(int64(41))},
		{"uint64 beyond int64", uint64(math.MaxUint64), nil},
		{"negative int8", int8(-2), nil},
		{"negative", json.Number("-1"), nil},
		{"fractional", json.Number("2.5"), nil},
		{"whole float literal", json.Number("3.0"), nil},
		{"exponent", json.Number("1e3"), nil},
		{"bool", true, nil},
		{"string", "12", nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateCount(discardLogger(), tt.value, "felt"))
		})
	}
}

func TestValidateStationDistance(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *float64
	}{
		{"fraction", json.Number("0.07391"), ptr(0.07391)},
		{"integer", json.Number("2"), ptr(2.0)},
		{"zero", 0.0, ptr(0.0)},
		{"negative", json.Number("-0.1"), nil},
		{"nan", math.NaN(), nil},
		{"bool", false, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateStationDistance(discardLogger(), tt.value))
		})
	}
}

func TestValidateCategory(t *testing.T) {
	assert.Equal(t, ptr("ml"), ValidateCategory(discardLogger(), "ml", "magtype"))
	assert.Equal(t, ptr("quarry blast"), ValidateCategory(discardLogger(), "quarry blast", "earthquake_type"))
	assert.Nil(t, ValidateCategory(discardLogger(), nil, "magtype"))
	assert.Nil(t, ValidateCategory(discardLogger(), json.Number("1"), "magtype"))
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *string
	}{
		{"two letters", "ci", ptr("ci")},
		{"upper case kept", "US", ptr("US")},
		{"one letter", "c", nil},
		{"three letters", "cix", nil},
		{"two characters, three bytes", "né", ptr("né")},
		{"three characters", "néé", nil},
		{"empty", "", nil},
		{"number", json.Number("12"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateNetwork(discardLogger(), tt.value))
		})
	}
}

func TestValidateAlert(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *AlertLevel
	}{
		{"green", "green", ptr(AlertGreen)},
		{"mixed case", "YeLLow", ptr(AlertYellow)},
		{"red", "RED", ptr(AlertRed)},
		{"unknown", "purple", nil},
		{"empty", "", nil},
		{"nil", nil, nil},
		{"number", json.Number("1"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateAlert(discardLogger(), tt.value))
		})
	}
}

func TestValidateStatus(t *testing.T) {
	assert.Equal(t, ptr(StatusReviewed), ValidateStatus(discardLogger(), "reviewed"))
	assert.Equal(t, ptr(StatusAutomatic), ValidateStatus(discardLogger(), "Automatic"))
	assert.Equal(t, ptr(StatusDeleted), ValidateStatus(discardLogger(), "DELETED"))
	assert.Nil(t, ValidateStatus(discardLogger(), "pending"))
	assert.Nil(t, ValidateStatus(discardLogger(), nil))
}

func TestValidateReading_Bounds(t *testing.T) {
	for reading, b := range readingBounds {
		t.Run(string(reading), func(t *testing.T) {
			logger := discardLogger()

			mid := (b.min + b.max) / 2
			assert.Equal(t, ptr(b.min), ValidateReading(logger, b.min, reading), "lower bound is inclusive")
			assert.Equal(t, ptr(b.max), ValidateReading(logger, b.max, reading), "upper bound is inclusive")
			assert.Equal(t, ptr(mid), ValidateReading(logger, mid, reading))

			assert.Nil(t, ValidateReading(logger, b.min-0.001, reading))
			assert.Nil(t, ValidateReading(logger, b.max+0.001, reading))
			assert.Nil(t, ValidateReading(logger, math.NaN(), reading))
			assert.Nil(t, ValidateReading(logger, nil, reading))
			assert.Nil(t, ValidateReading(logger, "1", reading))
			assert.Nil(t, ValidateReading(logger, true, reading))
		})
	}
}

func TestValidateReading_JSONNumbers(t *testing.T) {
	logger := discardLogger()

	assert.Equal(t, ptr(0.67), ValidateReading(logger, json.Number("0.67"), ReadingMagnitude))
	assert.Equal(t, ptr(-117.542), ValidateReading(logger, json.Number("-117.542"), ReadingLon))
	assert.Equal(t, ptr(67.0), ValidateReading(logger, json.Number("67"), ReadingGap))
	assert.Nil(t, ValidateReading(logger, json.Number("1e400"), ReadingDepth))
	assert.Nil(t, ValidateReading(logger, json.Number("-1.5"), ReadingMagnitude))
}

func TestValidateReading_GoIntegerKinds(t *testing.T) {
	logger := discardLogger()

	for _, v := range []any{int8(67), int16(67), int32(67), uint(67), uint8(67), uint16(67), uint32(67), uint64(67)} {
		assert.Equal(t, ptr(67.0), ValidateReading(logger, v, ReadingGap), "%T", v)
	}
	assert.Nil(t, ValidateReading(logger, uint16(361), ReadingGap))
}

func TestValidateReading_UnknownReading(t *testing.T) {
	logger, buf := captureLogger()

	assert.Nil(t, ValidateReading(logger, 1.0, Reading("tsunami")))
	assert.Contains(t, buf.String(), "Unknown reading type")
}

func ptr[T any](v T) *T {
	return &v
}
