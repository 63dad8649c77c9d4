package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

const (
	defaultMaxConns     = 10
	defaultMinConns     = 1
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second

	// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
	uniqueViolation = "23505"
)

// schema creates the tables the importer reads and writes.
// The unique index on (meter_id, reading_date) enforces the conflict policy.
const schema = `
CREATE TABLE IF NOT EXISTS meters (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	meter_number TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS meters_tenant_number_idx
	ON meters (tenant_id, lower(meter_number));

CREATE TABLE IF NOT EXISTS meter_readings (
	id           BIGSERIAL PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	meter_id     TEXT NOT NULL REFERENCES meters (id),
	reading_date DATE NOT NULL,
	value        DOUBLE PRECISION NOT NULL,
	note         TEXT,
	recorded_by  TEXT NOT NULL,
	batch_id     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS meter_readings_meter_date_idx
	ON meter_readings (meter_id, reading_date);
`

// NewPool creates a pgx connection pool and validates the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: empty DSN")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse DSN: %w", err)
	}
	cfg.MaxConns = defaultMaxConns
	cfg.MinConns = defaultMinConns
	cfg.MaxConnLifetime = defaultConnLifetime
	cfg.MaxConnIdleTime = defaultConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return pool, nil
}

// Postgres is the production MeterDirectory and ReadingStore, scoped to a
// single tenant.
type Postgres struct {
	pool     *pgxpool.Pool
	tenantID string
}

// NewPostgres returns a tenant-scoped store on the given pool.
func NewPostgres(pool *pgxpool.Pool, tenantID string) *Postgres {
	return &Postgres{pool: pool, tenantID: tenantID}
}

// Migrate creates the tables and indexes if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Meters returns the tenant's meter directory.
func (p *Postgres) Meters(ctx context.Context) ([]types.Meter, error) {
	const query = `
		SELECT id, meter_number
		FROM meters
		WHERE tenant_id = $1
		ORDER BY meter_number
	`
	rows, err := p.pool.Query(ctx, query, p.tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list meters: %w", err)
	}
	defer rows.Close()

	var meters []types.Meter
	for rows.Next() {
		var m types.Meter
		if err := rows.Scan(&m.ID, &m.MeterNumber); err != nil {
			return nil, fmt.Errorf("store: scan meter: %w", err)
		}
		meters = append(meters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list meters: %w", err)
	}
	return meters, nil
}

// DeleteBy removes the tenant's reading for the meter and date.
func (p *Postgres) DeleteBy(ctx context.Context, meterID, date string) (int64, error) {
	const query = `
		DELETE FROM meter_readings
		WHERE tenant_id = $1 AND meter_id = $2 AND reading_date = $3::date
	`
	tag, err := p.pool.Exec(ctx, query, p.tenantID, meterID, date)
	if err != nil {
		return 0, fmt.Errorf("store: delete reading: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Insert stores a new reading.
func (p *Postgres) Insert(ctx context.Context, r types.Reading) error {
	const query = `
		INSERT INTO meter_readings (tenant_id, meter_id, reading_date, value, note, recorded_by, batch_id)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)
	`
	_, err := p.pool.Exec(ctx, query,
		p.tenantID,
		r.MeterID,
		r.Date,
		r.Value,
		r.Note,
		r.RecordedBy,
		r.BatchID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("store: meter %s on %s: %w", r.MeterID, r.Date, types.ErrDuplicateReading)
		}
		return fmt.Errorf("store: insert reading: %w", err)
	}
	return nil
}
