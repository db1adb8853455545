package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/checksum"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_observations (
	obs_key     CHAR(64) PRIMARY KEY,
	run_id      UUID         NOT NULL,
	hostel_name TEXT         NOT NULL,
	hostel_url  TEXT         NOT NULL,
	category    VARCHAR(16)  NOT NULL,
	stay_date   DATE         NOT NULL,
	adults      SMALLINT     NOT NULL,
	scraped     NUMERIC(10,2) NOT NULL,
	derived     NUMERIC(10,2) NOT NULL,
	scraped_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_price_observations_hostel     ON price_observations (hostel_url, stay_date);
CREATE INDEX IF NOT EXISTS idx_price_observations_scraped_at ON price_observations (scraped_at);
`

// Repository хранит историю цен в PostgreSQL.
type Repository struct {
	db             *sql.DB
	keys           *checksum.Generator
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(pingCtx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("Connected to PostgreSQL")
	return &Repository{
		db:             db,
		keys:           checksum.NewGenerator(),
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
	}, nil
}

// UpsertObservation: xmax = 0 только у только что вставленной строки.
func (r *Repository) UpsertObservation(ctx context.Context, obs *analysis.Observation) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO price_observations
			(obs_key, run_id, hostel_name, hostel_url, category, stay_date, adults, scraped, derived, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (obs_key) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			hostel_name = EXCLUDED.hostel_name,
			category = EXCLUDED.category,
			scraped = EXCLUDED.scraped,
			derived = EXCLUDED.derived,
			scraped_at = EXCLUDED.scraped_at
		RETURNING (xmax = 0) AS inserted`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var inserted bool
	err = stmt.QueryRowContext(ctx,
		r.keys.ObservationKey(obs.HostelURL, obs.Date, obs.Adults),
		obs.RunID, obs.HostelName, obs.HostelURL, string(obs.Category),
		obs.Date.UTC(), obs.Adults, obs.Scraped, obs.Derived, obs.ScrapedAt.UTC(),
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}
	return inserted, nil
}

func (r *Repository) ListObservations(ctx context.Context, hostelURL string, from, to time.Time) ([]analysis.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if hostelURL != "" {
		add("hostel_url = $%d", hostelURL)
	}
	if !from.IsZero() {
		add("stay_date >= $%d", from.UTC())
	}
	if !to.IsZero() {
		add("stay_date <= $%d", to.UTC())
	}

	query := `SELECT run_id, hostel_name, hostel_url, category, stay_date, adults, scraped, derived, scraped_at
		FROM price_observations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY stay_date, hostel_name, adults"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	var out []analysis.Observation
	for rows.Next() {
		var (
			obs      analysis.Observation
			category string
		)
		if err := rows.Scan(&obs.RunID, &obs.HostelName, &obs.HostelURL, &category, &obs.Date,
			&obs.Adults, &obs.Scraped, &obs.Derived, &obs.ScrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		obs.Category = hostels.Category(category)
		obs.Date = obs.Date.UTC()
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (r *Repository) LatestRun(ctx context.Context) (string, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		runID string
		at    time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT run_id, scraped_at FROM price_observations ORDER BY scraped_at DESC LIMIT 1`).Scan(&runID, &at)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to query database: %w", err)
	}
	return runID, at, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
