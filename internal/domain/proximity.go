package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// earthRadiusKM is the IUGG mean Earth radius.
const earthRadiusKM = 6371.0088

var errMissingLocation = errors.New("event has no magnitude or location")

// DistanceKM returns the great-circle (haversine) distance between two points,
// truncated to whole kilometres.
func DistanceKM(a, b Coordinate) (int, error) {
	if err := checkCoordinate(a); err != nil {
		return 0, err
	}
	if err := checkCoordinate(b); err != nil {
		return 0, err
	}

	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	d := 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
	return int(d), nil
}

func checkCoordinate(c Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("coordinate (%v, %v) is not numeric", c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("coordinate (%v, %v) out of range", c.Lat, c.Lon)
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// NotificationRadius returns how far (km) an event of the given magnitude is
// announced. Each tier includes its lower bound.
func NotificationRadius(magnitude float64) float64 {
	switch {
	case magnitude < 4:
		return 50
	case magnitude < 5:
		return 150
	default:
		return 200
	}
}

// IsRelated reports whether a topic should hear about an event: the magnitude
// meets the topic minimum and the topic lies within the notification radius.
func IsRelated(event NormalizedEvent, topic Topic) (bool, error) {
	loc, ok := event.Location()
	if !ok || event.Magnitude == nil {
		return false, errMissingLocation
	}
	magnitude := *event.Magnitude
	if !(magnitude >= topic.MinMagnitude) {
		return false, nil
	}
	distance, err := DistanceKM(loc, topic.Location)
	if err != nil {
		return false, fmt.Errorf("topic %d: %w", topic.ID, err)
	}
	return float64(distance) <= NotificationRadius(magnitude), nil
}

// FindRelatedTopics returns the topics related to event, keeping their order.
// A topic that cannot be evaluated is logged and treated as unrelated.
func FindRelatedTopics(logger *slog.Logger, event NormalizedEvent, topics []Topic) []Topic {
	var related []Topic
	for _, topic := range topics {
		ok, err := IsRelated(event, topic)
		if err != nil {
			logger.Warn("skipping topic", "topic_id", topic.ID, "earthquake_id", event.ID(), "error", err)
			continue
		}
		if ok {
			related = append(related, topic)
		}
	}
	return related
}

// SubscriberDirectory looks up the users subscribed to a topic.
type SubscriberDirectory interface {
	SubscribersForTopic(ctx context.Context, topicID int64) ([]Subscriber, error)
}

// ExpandToSubscribers resolves the subscribers of every topic, keeping each
// user only once across the whole set.
func ExpandToSubscribers(ctx context.Context, logger *slog.Logger, topics []Topic, dir SubscriberDirectory) []Subscriber {
	return newExpander(logger, dir).expand(ctx, topics)
}

// MatchAlerts matches every event against every topic and returns at most one
// alert per topic address for the whole batch. A topic address is multicast,
// so one publish reaches every user on the topic; those users count as
// notified. A topic whose users were all notified already is skipped, and a
// user is alerted for the first event that reached them.
func MatchAlerts(ctx context.Context, logger *slog.Logger, events []NormalizedEvent, topics []Topic, dir SubscriberDirectory) []Alert {
	x := newExpander(logger, dir)
	published := make(map[string]struct{})
	var alerts []Alert
	for _, event := range events {
		for _, topic := range FindRelatedTopics(logger, event, topics) {
			subs := x.lookup(ctx, topic)
			if len(subs) == 0 {
				continue
			}
			address := subs[0].TopicARN
			if _, done := published[address]; done {
				continue
			}
			if !x.anyUnseen(subs) {
				continue
			}

			users := make([]int64, 0, len(subs))
			for _, sub := range subs {
				x.seen[sub.UserID] = struct{}{}
				users = append(users, sub.UserID)
			}
			published[address] = struct{}{}
			alerts = append(alerts, Alert{Subscriber: subs[0], Event: event, Users: users})
		}
	}
	return alerts
}

// expander remembers which users were already selected and which topics were
// already queried, so a batch never notifies a user twice or repeats a lookup.
type expander struct {
	logger  *slog.Logger
	dir     SubscriberDirectory
	seen    map[int64]struct{}
	byTopic map[int64][]Subscriber
}

func newExpander(logger *slog.Logger, dir SubscriberDirectory) *expander {
	return &expander{
		logger:  logger,
		dir:     dir,
		seen:    make(map[int64]struct{}),
		byTopic: make(map[int64][]Subscriber),
	}
}

// lookup returns the subscribers of topic, querying the directory once per
// batch. A failed lookup is logged and yields no subscribers.
func (x *expander) lookup(ctx context.Context, topic Topic) []Subscriber {
	if subs, ok := x.byTopic[topic.ID]; ok {
		return subs
	}
	subs, err := x.dir.SubscribersForTopic(ctx, topic.ID)
	if err != nil {
		x.logger.Error("get subscribers failed", "topic_id", topic.ID, "error", err)
		subs = nil
	}
	x.byTopic[topic.ID] = subs
	return subs
}

func (x *expander) anyUnseen(subs []Subscriber) bool {
	for _, sub := range subs {
		if _, ok := x.seen[sub.UserID]; !ok {
			return true
		}
	}
	return false
}

func (x *expander) expand(ctx context.Context, topics []Topic) []Subscriber {
	var out []Subscriber
	for _, topic := range topics {
		for _, sub := range x.lookup(ctx, topic) {
			if _, dup := x.seen[sub.UserID]; dup {
				continue
			}
			x.seen[sub.UserID] = struct{}{}
			out = append(out, sub)
		}
	}
	return out
}

// DefaultAlertSubject is the notification subject used unless configured.
const DefaultAlertSubject = "Earthquake Alert"

// FormatAlertMessage builds the notification body for an alert.
func FormatAlertMessage(a Alert) string {
	var b strings.Builder
	b.WriteString("Earthquake Alert! Magnitude ")
	b.WriteString(strconv.FormatFloat(a.Subscriber.MinMagnitude, 'f', -1, 64))
	b.WriteString(" or above earthquake detected in your area")
	if a.Event.Title != nil {
		b.WriteString(": ")
		b.WriteString(*a.Event.Title)
	}
	if a.Event.Time != nil {
		b.WriteString(" at ")
		b.WriteString(*a.Event.Time)
		b.WriteString(" UTC")
	}
	b.WriteString(".")
	return b.String()
}
