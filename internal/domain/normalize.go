package domain

import (
	"log/slog"
	"math"
)

// Clean runs every extracted field through its validator. Fields that fail
// are nil in the result; Clean itself never fails.
func Clean(logger *slog.Logger, ex ExtractedEvent) NormalizedEvent {
	return NormalizedEvent{
		EarthquakeID:   ValidateNaming(logger, ex.EarthquakeID, "earthquake_id"),
		Alert:          ValidateAlert(logger, ex.Alert),
		Status:         ValidateStatus(logger, ex.Status),
		Network:        ValidateNetwork(logger, ex.Network),
		MagType:        ValidateCategory(logger, ex.MagType, "magtype"),
		EarthquakeType: ValidateCategory(logger, ex.EarthquakeType, "earthquake_type"),
		Magnitude:      ValidateReading(logger, ex.Magnitude, ReadingMagnitude),
		Lon:            ValidateReading(logger, ex.Lon, ReadingLon),
		Lat:            ValidateReading(logger, ex.Lat, ReadingLat),
		Depth:          ValidateReading(logger, ex.Depth, ReadingDepth),
		Time:           ValidateTime(logger, ex.Time),
		Felt:           ValidateCount(logger, ex.Felt, "felt"),
		CDI:            ValidateReading(logger, ex.CDI, ReadingCDI),
		MMI:            ValidateReading(logger, ex.MMI, ReadingMMI),
		Significance:   wholeNumber(logger, ValidateReading(logger, ex.Significance, ReadingSignificance), "sig"),
		NST:            ValidateCount(logger, ex.NST, "nst"),
		DMin:           ValidateStationDistance(logger, ex.DMin),
		Gap:            ValidateReading(logger, ex.Gap, ReadingGap),
		Title:          ValidateNaming(logger, ex.Title, "title"),
	}
}

// Normalize extracts and cleans a single raw event.
func Normalize(logger *slog.Logger, raw RawEvent) NormalizedEvent {
	return Clean(logger, ExtractFields(logger, raw))
}

// NormalizeBatch normalizes each raw event and keeps the usable ones, in
// input order. One bad event never affects the others.
func NormalizeBatch(logger *slog.Logger, raws []RawEvent) []NormalizedEvent {
	out := make([]NormalizedEvent, 0, len(raws))
	for i, raw := range raws {
		eventLogger := logger.With("feature", i)
		if id, ok := raw[idKey].(string); ok {
			eventLogger = logger.With("earthquake_id", id)
		}

		event := Normalize(eventLogger, raw)
		if !event.IsUsable() {
			eventLogger.Debug("dropping unusable earthquake")
			continue
		}
		out = append(out, event)
	}
	return out
}

// wholeNumber narrows a validated significance reading to an integer.
func wholeNumber(logger *slog.Logger, v *float64, field string) *int64 {
	if v == nil {
		return nil
	}
	if *v != math.Trunc(*v) {
		reject(logger, field, *v, "Invalid data type: expected a whole number")
		return nil
	}
	n := int64(*v)
	return &n
}
