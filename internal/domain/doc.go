// Package domain models USGS earthquake feed data and the decisions made on it:
// field extraction, validation, normalization, dimension id resolution, and
// proximity matching against alert topics.
//
// # Data Source
//
// Events come from the USGS real-time GeoJSON summary feeds, e.g.
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson.
// Each feature carries a top-level "id", a "properties" object and a
// "geometry" object whose "coordinates" are [lon, lat, depth] in that order.
//
// # Feed Conventions
//
// Time:
//
//	"time" is epoch milliseconds (integer, UTC). It is stored formatted as
//	"YYYY/MM/DD HH:MM:SS". A non-integer time, or one later than now, is
//	replaced with the current time rather than dropped.
//
// Numbers:
//
//	Feed values are decoded as json.Number so integer and float literals stay
//	distinguishable. Counts (felt, nst) must be integer literals; readings
//	accept either. Booleans are never numeric.
//
// Reading ranges (inclusive):
//
//	mag [-1, 10] | lon [-180, 180] | lat [-90, 90] | depth [-100, 1000] km
//	cdi [0, 12]  | mmi [0, 12]     | sig [0, 1000] | gap [0, 360] degrees
//
// Categorical codes:
//
//	net is a two-letter network code ("ci", "us", "ak"). magType and type are
//	open vocabularies. alert is a PAGER level (green, yellow, orange, red) and
//	status one of automatic, reviewed, deleted; both are lower-cased.
//
// # Failure Model
//
// Every field is independently nullable. A rejected value becomes nil and the
// cause is logged; the rest of the record is still processed. An event is
// usable only when lat, lon, magnitude and magtype all survive validation.
//
// # Alert Radius
//
// A topic is related to an event when the event magnitude reaches the topic
// minimum and the great-circle distance is within a magnitude tier:
//
//	mag < 4: 50 km | 4 <= mag < 5: 150 km | mag >= 5: 200 km
package domain
