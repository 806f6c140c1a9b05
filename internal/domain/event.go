package domain

// TimeLayout is the format used for normalized event times (UTC).
const TimeLayout = "2006/01/02 15:04:05"

// RawEvent is one GeoJSON feature exactly as decoded from the feed.
// Numbers are json.Number when decoded by the feed client; every Go integer
// and float kind is accepted as well.
type RawEvent map[string]any

// AlertLevel is a USGS PAGER alert level.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertOrange AlertLevel = "orange"
	AlertRed    AlertLevel = "red"
)

// ReviewStatus tells whether an event has been reviewed by a seismologist.
type ReviewStatus string

const (
	StatusAutomatic ReviewStatus = "automatic"
	StatusReviewed  ReviewStatus = "reviewed"
	StatusDeleted   ReviewStatus = "deleted"
)

// ExtractedEvent is the flat, unvalidated view of a RawEvent. Every field holds
// whatever the feed sent, or nil when it was missing.
type ExtractedEvent struct {
	EarthquakeID   any
	Alert          any
	Status         any
	Network        any
	MagType        any
	EarthquakeType any
	Magnitude      any
	Lon            any
	Lat            any
	Depth          any
	Time           any
	Felt           any
	CDI            any
	MMI            any
	Significance   any
	NST            any
	DMin           any
	Gap            any
	Title          any
}

// NormalizedEvent is a validated earthquake. A nil field means the value was
// missing or failed validation.
type NormalizedEvent struct {
	EarthquakeID   *string       `json:"earthquake_id"`
	Alert          *AlertLevel   `json:"alert"`
	Status         *ReviewStatus `json:"status"`
	Network        *string       `json:"network"`
	MagType        *string       `json:"magtype"`
	EarthquakeType *string       `json:"earthquake_type"`
	Magnitude      *float64      `json:"magnitude"`
	Lon            *float64      `json:"lon"`
	Lat            *float64      `json:"lat"`
	Depth          *float64      `json:"depth"`
	Time           *string       `json:"time"`
	Felt           *int64        `json:"felt"`
	CDI            *float64      `json:"cdi"`
	MMI            *float64      `json:"mmi"`
	Significance   *int64        `json:"significance"`
	NST            *int64        `json:"nst"`
	DMin           *float64      `json:"dmin"`
	Gap            *float64      `json:"gap"`
	Title          *string       `json:"title"`
}

// IsUsable reports whether the event has everything needed for persistence
// and alerting: lat, lon, magnitude and magtype.
func (e NormalizedEvent) IsUsable() bool {
	return e.Lat != nil && e.Lon != nil && e.Magnitude != nil && e.MagType != nil
}

// Location returns the epicentre, or false when either coordinate is missing.
func (e NormalizedEvent) Location() (Coordinate, bool) {
	if e.Lat == nil || e.Lon == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *e.Lat, Lon: *e.Lon}, true
}

// ID returns the earthquake id or "" when it is unknown.
func (e NormalizedEvent) ID() string {
	if e.EarthquakeID == nil {
		return ""
	}
	return *e.EarthquakeID
}

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Topic is a stored subscription criterion tied to a notification channel.
type Topic struct {
	ID           int64
	ARN          string
	Location     Coordinate
	MinMagnitude float64
}

// Subscriber is a user joined with one of their topics.
type Subscriber struct {
	UserID       int64
	Email        string
	Phone        string
	TopicARN     string
	MinMagnitude float64
}

// Alert is one publish: the event and the topic subscription it goes out on.
type Alert struct {
	Subscriber Subscriber
	Event      NormalizedEvent
	// Users lists everyone subscribed to Subscriber.TopicARN; one publish
	// reaches all of them.
	Users []int64
}
