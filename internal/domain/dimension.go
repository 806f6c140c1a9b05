package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Dimension names a categorical lookup table.
type Dimension string

const (
	DimensionNetwork   Dimension = "network"
	DimensionMagType   Dimension = "magtype"
	DimensionEventType Dimension = "event_type"
	DimensionAlert     Dimension = "alert"
	DimensionStatus    Dimension = "status"
)

// DimensionCache maps categorical values of one family to their store ids.
// It lives for a single pipeline run and is never shared between runs.
type DimensionCache struct {
	family Dimension
	ids    map[string]int64
}

// NewDimensionCache seeds a cache with the rows already in the store.
func NewDimensionCache(family Dimension, rows map[string]int64) *DimensionCache {
	ids := make(map[string]int64, len(rows))
	for v, id := range rows {
		ids[v] = id
	}
	return &DimensionCache{family: family, ids: ids}
}

// Family returns the dimension this cache belongs to.
func (c *DimensionCache) Family() Dimension { return c.family }

// Lookup returns the cached id for value.
func (c *DimensionCache) Lookup(value string) (int64, bool) {
	id, ok := c.ids[value]
	return id, ok
}

// Len returns the number of cached values.
func (c *DimensionCache) Len() int { return len(c.ids) }

// InsertFunc inserts a new dimension value and returns its generated id.
type InsertFunc func(ctx context.Context, value string) (int64, error)

// GetOrCreateID resolves value from the cache, inserting it through insert on
// a miss. The cache is only updated after a successful insert.
func GetOrCreateID(ctx context.Context, value string, cache *DimensionCache, insert InsertFunc) (int64, error) {
	if id, ok := cache.Lookup(value); ok {
		return id, nil
	}
	id, err := insert(ctx, value)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", cache.family, value, err)
	}
	cache.ids[value] = id
	return id, nil
}

// DimensionInserter creates new rows in a dimension table.
type DimensionInserter interface {
	InsertDimension(ctx context.Context, family Dimension, value string) (int64, error)
}

// DimensionIDs are the resolved foreign keys for one event. nil means the
// event had no value for that dimension.
type DimensionIDs struct {
	Network   *int64
	MagType   *int64
	EventType *int64
	Alert     *int64
	Status    *int64
}

// Dimensions holds the per-run caches for every dimension family. Network,
// magtype and event type grow on demand; alert and status are closed sets and
// are only looked up.
type Dimensions struct {
	Networks   *DimensionCache
	MagTypes   *DimensionCache
	EventTypes *DimensionCache
	Alerts     *DimensionCache
	Statuses   *DimensionCache
}

// Resolve maps an event's categorical values to dimension ids, creating open
// vocabulary values as needed. An error means the event cannot be stored.
func (d *Dimensions) Resolve(ctx context.Context, logger *slog.Logger, ev NormalizedEvent, inserter DimensionInserter) (DimensionIDs, error) {
	var ids DimensionIDs
	var err error

	if ids.Network, err = d.resolveOpen(ctx, ev.Network, d.Networks, inserter); err != nil {
		return DimensionIDs{}, err
	}
	if ids.MagType, err = d.resolveOpen(ctx, ev.MagType, d.MagTypes, inserter); err != nil {
		return DimensionIDs{}, err
	}
	if ids.EventType, err = d.resolveOpen(ctx, ev.EarthquakeType, d.EventTypes, inserter); err != nil {
		return DimensionIDs{}, err
	}
	if ev.Alert != nil {
		ids.Alert = lookupClosed(logger, string(*ev.Alert), d.Alerts)
	}
	if ev.Status != nil {
		ids.Status = lookupClosed(logger, string(*ev.Status), d.Statuses)
	}
	return ids, nil
}

func (d *Dimensions) resolveOpen(ctx context.Context, value *string, cache *DimensionCache, inserter DimensionInserter) (*int64, error) {
	if value == nil {
		return nil, nil
	}
	family := cache.Family()
	id, err := GetOrCreateID(ctx, *value, cache, func(ctx context.Context, v string) (int64, error) {
		return inserter.InsertDimension(ctx, family, v)
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func lookupClosed(logger *slog.Logger, value string, cache *DimensionCache) *int64 {
	id, ok := cache.Lookup(value)
	if !ok {
		logger.Warn("dimension value not preloaded", "dimension", cache.Family(), "value", value)
		return nil
	}
	return &id
}
