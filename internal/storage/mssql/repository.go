package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/checksum"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
)

const schema = `
IF OBJECT_ID(N'dbo.TblPriceObservations', N'U') IS NULL
CREATE TABLE dbo.TblPriceObservations (
	[ObsKey]     CHAR(64)       NOT NULL PRIMARY KEY,
	[RunID]      VARCHAR(36)    NOT NULL,
	[HostelName] NVARCHAR(256)  NOT NULL,
	[HostelURL]  NVARCHAR(1024) NOT NULL,
	[Category]   NVARCHAR(16)   NOT NULL,
	[StayDate]   DATE           NOT NULL,
	[Adults]     TINYINT        NOT NULL,
	[Scraped]    DECIMAL(10,2)  NOT NULL,
	[Derived]    DECIMAL(10,2)  NOT NULL,
	[ScrapedAt]  DATETIME2      NOT NULL
);
`

type Repository struct {
	db             *sql.DB
	keys           *checksum.Generator
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
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

	return &Repository{
		db:             db,
		keys:           checksum.NewGenerator(),
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
	}, nil
}

// UpsertObservation сохраняет или обновляет наблюдение
func (r *Repository) UpsertObservation(ctx context.Context, obs *analysis.Observation) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	// MERGE statement для MS SQL
	query := `
		MERGE INTO dbo.TblPriceObservations AS target
		USING (SELECT @ObsKey AS ObsKey) AS source
		ON target.[ObsKey] = source.ObsKey
		WHEN MATCHED THEN
			UPDATE SET
				[RunID] = @RunID,
				[HostelName] = @HostelName,
				[Category] = @Category,
				[Scraped] = @Scraped,
				[Derived] = @Derived,
				[ScrapedAt] = @ScrapedAt
		WHEN NOT MATCHED THEN
			INSERT ([ObsKey], [RunID], [HostelName], [HostelURL], [Category], [StayDate], [Adults], [Scraped], [Derived], [ScrapedAt])
			VALUES (@ObsKey, @RunID, @HostelName, @HostelURL, @Category, @StayDate, @Adults, @Scraped, @Derived, @ScrapedAt)
		OUTPUT $action;
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("ObsKey", r.keys.ObservationKey(obs.HostelURL, obs.Date, obs.Adults)),
		sql.Named("RunID", obs.RunID),
		sql.Named("HostelName", obs.HostelName),
		sql.Named("HostelURL", obs.HostelURL),
		sql.Named("Category", string(obs.Category)),
		sql.Named("StayDate", obs.Date.UTC()),
		sql.Named("Adults", obs.Adults),
		sql.Named("Scraped", obs.Scraped),
		sql.Named("Derived", obs.Derived),
		sql.Named("ScrapedAt", obs.ScrapedAt.UTC()),
	).Scan(&action)
	if err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	return action == "INSERT", nil
}

// ListObservations возвращает наблюдения за период
func (r *Repository) ListObservations(ctx context.Context, hostelURL string, from, to time.Time) ([]analysis.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if hostelURL != "" {
		where = append(where, "[HostelURL] = @HostelURL")
		args = append(args, sql.Named("HostelURL", hostelURL))
	}
	if !from.IsZero() {
		where = append(where, "[StayDate] >= @From")
		args = append(args, sql.Named("From", from.UTC()))
	}
	if !to.IsZero() {
		where = append(where, "[StayDate] <= @To")
		args = append(args, sql.Named("To", to.UTC()))
	}

	query := `SELECT [RunID], [HostelName], [HostelURL], [Category], [StayDate], [Adults], [Scraped], [Derived], [ScrapedAt]
		FROM dbo.TblPriceObservations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY [StayDate], [HostelName], [Adults]"

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
		out = append(out, obs)
	}
	return out, rows.Err()
}

// LatestRun получает последний прогон
func (r *Repository) LatestRun(ctx context.Context) (string, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT TOP 1 [RunID], [ScrapedAt] FROM dbo.TblPriceObservations ORDER BY [ScrapedAt] DESC`

	var (
		runID string
		at    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&runID, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, fmt.Errorf("failed to query database: %w", err)
	}
	return runID, at.Time, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
