// Package postgres provides a PostgreSQL bill store.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/store"
)

//go:embed 001_create_bills.sql
var migrationSQL string

// Config holds the PostgreSQL store configuration.
type Config struct {
	// DSN, when set, is used instead of the individual connection fields.
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int

	// ConnectAttempts is how many times start-up tries to reach the server.
	ConnectAttempts uint
	// ConnectDelay is the base delay between start-up attempts.
	ConnectDelay time.Duration

	// Location is used for times read back from the store.
	Location *time.Location
}

// Store is an api.BillStore backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	loc    *time.Location
	logger *slog.Logger
}

var _ api.BillStore = (*Store)(nil)

// New connects to PostgreSQL and applies the schema.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "postgres")

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}
	if cfg.ConnectAttempts == 0 {
		cfg.ConnectAttempts = 5
	}
	if cfg.ConnectDelay == 0 {
		cfg.ConnectDelay = time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	connStr := cfg.DSN
	if connStr == "" {
		connStr = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not reachable, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	s := &Store{pool: pool, loc: cfg.Location, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	s.logger.Info("running database migrations")
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	s.logger.Info("migrations completed successfully")
	return nil
}

// InsertBill stores b and returns its id. Inserts are never retried.
func (s *Store) InsertBill(ctx context.Context, b *api.BillRecord) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bills (account_id, direction, category, amount_cents, occurred_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		b.AccountID,
		string(b.Direction),
		string(b.Category),
		store.ToCents(b.Amount),
		store.ToMillis(b.OccurredAt),
		b.Note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting bill: %w", err)
	}
	return id, nil
}

// ListBills returns bills ordered by occurred_at descending.
func (s *Store) ListBills(ctx context.Context, opts api.ListOptions) ([]api.BillRecord, error) {
	query := `
		SELECT id, account_id, direction, category, amount_cents, occurred_at, note
		FROM bills
		ORDER BY occurred_at DESC, id DESC`
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bills: %w", err)
	}
	defer rows.Close()

	var out []api.BillRecord
	for rows.Next() {
		var (
			b         api.BillRecord
			direction string
			category  string
			cents     int64
			millis    int64
		)
		if err := rows.Scan(&b.ID, &b.AccountID, &direction, &category, &cents, &millis, &b.Note); err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		b.Direction = api.Direction(direction)
		b.Category = api.Category(category)
		b.Amount = store.FromCents(cents)
		b.OccurredAt = store.FromMillis(millis, s.loc)
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBill removes the bill with id.
func (s *Store) DeleteBill(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrBillNotFound
	}
	return nil
}

// SumByCategory sums one direction per category within [start, end].
func (s *Store) SumByCategory(ctx context.Context, dir api.Direction, start, end time.Time) ([]api.CategoryAmount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, SUM(amount_cents)::BIGINT AS total
		FROM bills
		WHERE direction = $1 AND occurred_at BETWEEN $2 AND $3
		GROUP BY category
		HAVING SUM(amount_cents) > 0
		ORDER BY total DESC, category ASC
	`, string(dir), store.ToMillis(start), store.ToMillis(end))
	if err != nil {
		return nil, fmt.Errorf("summing by category: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.CategoryAmount, error) {
		var (
			category string
			cents    int64
		)
		if err := row.Scan(&category, &cents); err != nil {
			return api.CategoryAmount{}, err
		}
		return api.CategoryAmount{Category: api.Category(category), Amount: store.FromCents(cents)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning category sums: %w", err)
	}
	return out, nil
}

// SumByDirection sums amounts per direction within [start, end].
func (s *Store) SumByDirection(ctx context.Context, start, end time.Time) ([]api.DirectionAmount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT direction, SUM(amount_cents)::BIGINT
		FROM bills
		WHERE occurred_at BETWEEN $1 AND $2
		GROUP BY direction
	`, store.ToMillis(start), store.ToMillis(end))
	if err != nil {
		return nil, fmt.Errorf("summing by direction: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.DirectionAmount, error) {
		var (
			direction string
			cents     int64
		)
		if err := row.Scan(&direction, &cents); err != nil {
			return api.DirectionAmount{}, err
		}
		return api.DirectionAmount{Direction: api.Direction(direction), Amount: store.FromCents(cents)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning direction sums: %w", err)
	}
	return out, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("closed PostgreSQL connection pool")
	}
	return nil
}
