package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Store implements the pipeline store on PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates any missing tables and seeds the closed dimensions.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type dimensionTable struct {
	table, idColumn, valueColumn string
}

var dimensionTables = map[domain.Dimension]dimensionTable{
	domain.DimensionNetwork:   {"networks", "network_id", "network_name"},
	domain.DimensionMagType:   {"magtypes", "magtype_id", "magtype_value"},
	domain.DimensionEventType: {"types", "type_id", "type_value"},
	domain.DimensionAlert:     {"alerts", "alert_id", "alert_value"},
	domain.DimensionStatus:    {"statuses", "status_id", "status_value"},
}

func tableFor(family domain.Dimension) (dimensionTable, error) {
	t, ok := dimensionTables[family]
	if !ok {
		return dimensionTable{}, fmt.Errorf("unknown dimension %q", family)
	}
	return t, nil
}

func (t dimensionTable) selectAllSQL() string {
	return fmt.Sprintf("SELECT %s, %s FROM %s", t.valueColumn, t.idColumn, t.table)
}

// The no-op update makes RETURNING yield the existing id when another run
// created the value first.
func (t dimensionTable) insertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO %[1]s (%[2]s) VALUES ($1) ON CONFLICT (%[2]s) DO UPDATE SET %[2]s = EXCLUDED.%[2]s RETURNING %[3]s",
		t.table, t.valueColumn, t.idColumn)
}

// LoadDimensions reads every dimension table into fresh caches for one run.
func (s *Store) LoadDimensions(ctx context.Context) (*domain.Dimensions, error) {
	caches := make(map[domain.Dimension]*domain.DimensionCache, len(dimensionTables))
	for family, t := range dimensionTables {
		rows, err := s.pool.Query(ctx, t.selectAllSQL())
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", t.table, err)
		}

		ids := make(map[string]int64)
		var (
			value string
			id    int64
		)
		if _, err := pgx.ForEachRow(rows, []any{&value, &id}, func() error {
			ids[value] = id
			return nil
		}); err != nil {
			return nil, fmt.Errorf("read %s: %w", t.table, err)
		}
		caches[family] = domain.NewDimensionCache(family, ids)
	}

	return &domain.Dimensions{
		Networks:   caches[domain.DimensionNetwork],
		MagTypes:   caches[domain.DimensionMagType],
		EventTypes: caches[domain.DimensionEventType],
		Alerts:     caches[domain.DimensionAlert],
		Statuses:   caches[domain.DimensionStatus],
	}, nil
}

// InsertDimension creates a dimension value and returns its id. A value that
// already exists returns the existing id.
func (s *Store) InsertDimension(ctx context.Context, family domain.Dimension, value string) (int64, error) {
	t, err := tableFor(family)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.pool.QueryRow(ctx, t.insertSQL(), value).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", t.table, err)
	}
	s.logger.Debug("dimension value created", "dimension", family, "value", value, "id", id)
	return id, nil
}

const insertEarthquakeSQL = `
INSERT INTO earthquakes (
    earthquake_id, alert_id, status_id, network_id, magtype_id, type_id,
    magnitude, lon, lat, depth, time, felt, cdi, mmi, significance, nst, dmin, gap, title
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
ON CONFLICT (earthquake_id) DO NOTHING`

// InsertEarthquake writes one event in its own transaction. An event already
// stored under the same earthquake_id is left unchanged.
func (s *Store) InsertEarthquake(ctx context.Context, ev domain.NormalizedEvent, ids domain.DimensionIDs) (err error) {
	args, err := earthquakeArgs(ev, ids)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("rollback failed", "earthquake_id", ev.ID(), "error", rbErr)
		}
	}()

	tag, err := tx.Exec(ctx, insertEarthquakeSQL, args...)
	if err != nil {
		return fmt.Errorf("insert earthquake %s: %w", ev.ID(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit earthquake %s: %w", ev.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("earthquake already stored", "earthquake_id", ev.ID())
	}
	return nil
}

func earthquakeArgs(ev domain.NormalizedEvent, ids domain.DimensionIDs) ([]any, error) {
	var at *time.Time
	if ev.Time != nil {
		t, err := time.Parse(domain.TimeLayout, *ev.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", *ev.Time, err)
		}
		at = &t
	}
	return []any{
		ev.EarthquakeID, ids.Alert, ids.Status, ids.Network, ids.MagType, ids.EventType,
		ev.Magnitude, ev.Lon, ev.Lat, ev.Depth, at, ev.Felt, ev.CDI, ev.MMI,
		ev.Significance, ev.NST, ev.DMin, ev.Gap, ev.Title,
	}, nil
}

// Topics returns every subscription topic in id order.
func (s *Store) Topics(ctx context.Context) ([]domain.Topic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT topic_id, topic_arn, lat, lon, min_magnitude FROM topics ORDER BY topic_id`)
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}
	topics, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Topic, error) {
		var t domain.Topic
		err := row.Scan(&t.ID, &t.ARN, &t.Location.Lat, &t.Location.Lon, &t.MinMagnitude)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	return topics, nil
}

const subscribersSQL = `
SELECT uta.user_id, COALESCE(u.email_address, ''), COALESCE(u.phone_number, ''), t.topic_arn, t.min_magnitude
FROM user_topic_assignments AS uta
JOIN users AS u ON u.user_id = uta.user_id
JOIN topics AS t ON t.topic_id = uta.topic_id
WHERE uta.topic_id = $1
ORDER BY uta.user_id`

// SubscribersForTopic returns the users subscribed to a topic.
func (s *Store) SubscribersForTopic(ctx context.Context, topicID int64) ([]domain.Subscriber, error) {
	rows, err := s.pool.Query(ctx, subscribersSQL, topicID)
	if err != nil {
		return nil, fmt.Errorf("select subscribers for topic %d: %w", topicID, err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Subscriber, error) {
		var sub domain.Subscriber
		err := row.Scan(&sub.UserID, &sub.Email, &sub.Phone, &sub.TopicARN, &sub.MinMagnitude)
		return sub, err
	})
	if err != nil {
		return nil, fmt.Errorf("read subscribers for topic %d: %w", topicID, err)
	}
	return subs, nil
}
