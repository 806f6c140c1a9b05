package domain

import (
	"log/slog"
)

const (
	idKey          = "id"
	propertiesKey  = "properties"
	geometryKey    = "geometry"
	coordinatesKey = "coordinates"
)

// Axis names one component of a feature's [lon, lat, depth] coordinates.
type Axis string

const (
	AxisLon   Axis = "lon"
	AxisLat   Axis = "lat"
	AxisDepth Axis = "depth"
)

var axisIndex = map[Axis]int{
	AxisLon:   0,
	AxisLat:   1,
	AxisDepth: 2,
}

// GetProperty returns properties[name] from a raw event, or nil when the
// properties group or the key is absent. It never panics.
func GetProperty(logger *slog.Logger, raw RawEvent, name string) (value any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected error getting property", "property", name, "error", r)
			value = nil
		}
	}()

	group, ok := raw[propertiesKey]
	if !ok || group == nil {
		logger.Warn("Missing earthquake properties", "property", name)
		return nil
	}
	props, ok := group.(map[string]any)
	if !ok {
		logger.Warn("Malformed earthquake properties", "property", name)
		return nil
	}
	v, ok := props[name]
	if !ok {
		logger.Warn("Property not in data", "property", name)
		return nil
	}
	return v
}

// GetGeometry returns one axis of the feature's coordinates, or nil when the
// geometry is missing or malformed. It never panics.
func GetGeometry(logger *slog.Logger, raw RawEvent, axis Axis) (value any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected error getting geometry", "axis", axis, "error", r)
			value = nil
		}
	}()

	group, ok := raw[geometryKey]
	if !ok || group == nil {
		logger.Warn("Missing earthquake geometry", "axis", axis)
		return nil
	}
	geometry, ok := group.(map[string]any)
	if !ok {
		logger.Warn("Missing earthquake geometry", "axis", axis)
		return nil
	}
	coords, ok := geometry[coordinatesKey]
	if !ok || coords == nil {
		logger.Warn("Missing earthquake geometry coordinates", "axis", axis)
		return nil
	}
	idx, ok := axisIndex[axis]
	if !ok {
		logger.Warn("Invalid geometry parameter", "axis", axis)
		return nil
	}

	var triple []any
	switch c := coords.(type) {
	case []any:
		triple = c
	case []float64:
		triple = make([]any, len(c))
		for i, f := range c {
			triple[i] = f
		}
	default:
		logger.Warn("Earthquake geometry coordinates missing either lon/lat/depth", "axis", axis)
		return nil
	}
	if len(triple) != len(axisIndex) {
		logger.Warn("Earthquake geometry coordinates missing either lon/lat/depth",
			"axis", axis, "length", len(triple))
		return nil
	}
	return triple[idx]
}

// GetEarthquakeID returns the feature's top-level id, or nil when absent.
func GetEarthquakeID(logger *slog.Logger, raw RawEvent) any {
	v, ok := raw[idKey]
	if !ok {
		logger.Warn("Missing earthquake id")
		return nil
	}
	return v
}

// ExtractFields pulls every field the normalizer needs out of a raw event.
// Missing values come back as nil; it never fails.
func ExtractFields(logger *slog.Logger, raw RawEvent) ExtractedEvent {
	return ExtractedEvent{
		EarthquakeID:   GetEarthquakeID(logger, raw),
		Alert:          GetProperty(logger, raw, "alert"),
		Status:         GetProperty(logger, raw, "status"),
		Network:        GetProperty(logger, raw, "net"),
		MagType:        GetProperty(logger, raw, "magType"),
		EarthquakeType: GetProperty(logger, raw, "type"),
		Magnitude:      GetProperty(logger, raw, "mag"),
		Lon:            GetGeometry(logger, raw, AxisLon),
		Lat:            GetGeometry(logger, raw, AxisLat),
		Depth:          GetGeometry(logger, raw, AxisDepth),
		Time:           GetProperty(logger, raw, "time"),
		Felt:           GetProperty(logger, raw, "felt"),
		CDI:            GetProperty(logger, raw, "cdi"),
		MMI:            GetProperty(logger, raw, "mmi"),
		Significance:   GetProperty(logger, raw, "sig"),
		NST:            GetProperty(logger, raw, "nst"),
		DMin:           GetProperty(logger, raw, "dmin"),
		Gap:            GetProperty(logger, raw, "gap"),
		Title:          GetProperty(logger, raw, "title"),
	}
}

// HasEventTime reports whether the feature carries properties.time. Features
// without it are skipped before normalization.
func HasEventTime(raw RawEvent) bool {
	props, ok := raw[propertiesKey].(map[string]any)
	if !ok {
		return false
	}
	_, ok = props["time"]
	return ok
}
