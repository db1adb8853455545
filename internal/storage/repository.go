package storage

import (
	"context"
	"fmt"
	"time"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/observability"
	"bcn-hostel-prices/internal/storage/mssql"
	"bcn-hostel-prices/internal/storage/postgres"
	"bcn-hostel-prices/internal/storage/sqlite"
)

// Repository интерфейс для работы с историей цен
type Repository interface {
	// UpsertObservation сохраняет или обновляет наблюдение (ключ: url + дата + взрослые), возвращает isNew
	UpsertObservation(ctx context.Context, obs *analysis.Observation) (isNew bool, err error)

	// ListObservations возвращает наблюдения за период; пустой hostelURL - все хостелы
	ListObservations(ctx context.Context, hostelURL string, from, to time.Time) ([]analysis.Observation, error)

	// LatestRun возвращает id и время последнего прогона; пустой id, если данных нет
	LatestRun(ctx context.Context) (runID string, at time.Time, err error)

	Close() error
}

// Open выбирает реализацию по storage.driver; для "none" возвращает nil.
func Open(ctx context.Context, cfg *config.Config, logger *observability.Logger) (Repository, error) {
	timeoutMS := cfg.Storage.CommandTimeoutMS
	switch cfg.Storage.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		repo, err := sqlite.NewRepository(ctx, cfg.Storage.DSN, timeoutMS, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		repo, err := postgres.NewRepository(ctx, cfg.Storage.DSN, timeoutMS, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "mssql":
		repo, err := mssql.NewRepository(ctx, cfg.Storage.DSN, timeoutMS, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// SaveAll сохраняет наблюдения по одному; ошибка прерывает запись.
func SaveAll(ctx context.Context, repo Repository, observations []analysis.Observation) (inserted, updated int, err error) {
	for i := range observations {
		isNew, err := repo.UpsertObservation(ctx, &observations[i])
		if err != nil {
			return inserted, updated, fmt.Errorf("save observation %s %s: %w",
				observations[i].HostelName, observations[i].Date.Format("2006-01-02"), err)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}
