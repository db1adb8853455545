package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/checksum"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
)

const (
	dateLayout = "2006-01-02"
	// фиксированная ширина, чтобы ORDER BY по тексту совпадал с порядком времени
	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_observations (
	obs_key     TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	hostel_name TEXT NOT NULL,
	hostel_url  TEXT NOT NULL,
	category    TEXT NOT NULL,
	stay_date   TEXT NOT NULL,
	adults      INTEGER NOT NULL,
	scraped     REAL NOT NULL,
	derived     REAL NOT NULL,
	scraped_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_observations_hostel ON price_observations(hostel_url, stay_date);
CREATE INDEX IF NOT EXISTS idx_price_observations_scraped_at ON price_observations(scraped_at);
`

// Repository - локальная история цен в файле SQLite.
type Repository struct {
	db             *sql.DB
	keys           *checksum.Generator
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один writer; ":memory:" живёт только в одном соединении
	db.SetMaxOpenConns(1)

	r := &Repository{
		db:             db,
		keys:           checksum.NewGenerator(),
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return r, nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.commandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.commandTimeout)
}

func (r *Repository) UpsertObservation(ctx context.Context, obs *analysis.Observation) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.keys.ObservationKey(obs.HostelURL, obs.Date, obs.Adults)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Error("Failed to rollback transaction", "error", err.Error())
		}
	}()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_observations WHERE obs_key = ?`, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO price_observations
			(obs_key, run_id, hostel_name, hostel_url, category, stay_date, adults, scraped, derived, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(obs_key) DO UPDATE SET
			run_id = excluded.run_id,
			hostel_name = excluded.hostel_name,
			category = excluded.category,
			scraped = excluded.scraped,
			derived = excluded.derived,
			scraped_at = excluded.scraped_at`,
		key, obs.RunID, obs.HostelName, obs.HostelURL, string(obs.Category),
		obs.Date.UTC().Format(dateLayout), obs.Adults, obs.Scraped, obs.Derived,
		obs.ScrapedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return exists == 0, nil
}

func (r *Repository) ListObservations(ctx context.Context, hostelURL string, from, to time.Time) ([]analysis.Observation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if hostelURL != "" {
		where = append(where, "hostel_url = ?")
		args = append(args, hostelURL)
	}
	if !from.IsZero() {
		where = append(where, "stay_date >= ?")
		args = append(args, from.UTC().Format(dateLayout))
	}
	if !to.IsZero() {
		where = append(where, "stay_date <= ?")
		args = append(args, to.UTC().Format(dateLayout))
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
			obs                analysis.Observation
			category, stay, at string
		)
		if err := rows.Scan(&obs.RunID, &obs.HostelName, &obs.HostelURL, &category, &stay,
			&obs.Adults, &obs.Scraped, &obs.Derived, &at); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		obs.Category = hostels.Category(category)
		if obs.Date, err = time.Parse(dateLayout, stay); err != nil {
			return nil, fmt.Errorf("bad stay_date %q: %w", stay, err)
		}
		if obs.ScrapedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("bad scraped_at %q: %w", at, err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (r *Repository) LatestRun(ctx context.Context) (string, time.Time, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var runID, at string
	err := r.db.QueryRowContext(ctx,
		`SELECT run_id, scraped_at FROM price_observations ORDER BY scraped_at DESC LIMIT 1`).Scan(&runID, &at)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to query database: %w", err)
	}

	ts, err := time.Parse(timeLayout, at)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("bad scraped_at %q: %w", at, err)
	}
	return runID, ts, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
