package postgres

import (
	"context"
	"embed"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{
		db: pool,
	}
}

func InitStorage(ctx context.Context, dsn string, timeout time.Duration) (*Storage, error) {
	const op = "storage.postgres.InitStorage"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(pool), nil
}

// Migrate applies the embedded schema migrations. dsn is a postgres:// URL.
func Migrate(dsn string) error {
	const op = "storage.postgres.Migrate"

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, op)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, op)
	}

	return nil
}

func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}

	return dsn
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) ListCurrencies(ctx context.Context) ([]entities.Currency, error) {
	const op = "storage.postgres.ListCurrencies"

	rows, err := s.db.Query(ctx, `SELECT code, description FROM currencies ORDER BY code`)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	var currencies []entities.Currency
	for rows.Next() {
		var currency entities.Currency
		if err = rows.Scan(&currency.Code, &currency.Description); err != nil {
			return nil, errors.Wrap(err, op)
		}
		currencies = append(currencies, currency)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return currencies, nil
}

// SyncCurrencies makes the table equal to currencies in one transaction:
// outdated codes are deleted, new ones inserted, changed descriptions
// updated.
func (s *Storage) SyncCurrencies(ctx context.Context, currencies []entities.Currency) (added, removed int, err error) {
	const op = "storage.postgres.SyncCurrencies"

	if len(currencies) == 0 {
		return 0, 0, errors.Errorf("%s: refusing to sync an empty currency list", op)
	}

	codes := make([]string, len(currencies))
	for i, currency := range currencies {
		codes[i] = currency.Code
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, op)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM currencies WHERE NOT (code = ANY($1))`, codes)
	if err != nil {
		return 0, 0, errors.Wrap(err, op)
	}
	removed = int(tag.RowsAffected())

	batch := &pgx.Batch{}
	for _, currency := range currencies {
		batch.Queue(`
			INSERT INTO currencies (code, description)
			VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE
				SET description = EXCLUDED.description, updated_at = now()
				WHERE currencies.description IS DISTINCT FROM EXCLUDED.description
			RETURNING (xmax = 0) AS inserted
		`, currency.Code, currency.Description)
	}

	results := tx.SendBatch(ctx, batch)
	for range currencies {
		var inserted bool
		scanErr := results.QueryRow().Scan(&inserted)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			continue
		}
		if scanErr != nil {
			_ = results.Close()
			err = scanErr
			return 0, 0, errors.Wrap(err, op)
		}
		if inserted {
			added++
		}
	}

	if err = results.Close(); err != nil {
		return 0, 0, errors.Wrap(err, op)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, errors.Wrap(err, op)
	}

	return added, removed, nil
}
