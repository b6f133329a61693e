// Package sqlite provides the embedded single-file bill store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/store"
)

//go:embed 001_create_bills.sql
var migrationSQL string

// DefaultPath is used when Config.Path is empty.
const DefaultPath = "monay.db"

// Config holds the SQLite store configuration.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string
	// BusyTimeout bounds how long a writer waits on a locked database.
	BusyTimeout time.Duration
	// Location is used for times read back from the store.
	Location *time.Location
}

// Store is an api.BillStore backed by SQLite.
type Store struct {
	db     *sql.DB
	loc    *time.Location
	logger *slog.Logger
}

var _ api.BillStore = (*Store)(nil)

// New opens the database and applies the schema.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	memory := cfg.Path == ":memory:"
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One writer at a time; an in-memory database also exists per connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	s := &Store{
		db:     db,
		loc:    cfg.Location,
		logger: logger.With("component", "sqlite"),
	}
	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("opened SQLite store", "path", cfg.Path)
	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	for _, stmt := range strings.Split(migrationSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// InsertBill stores b and returns its id.
func (s *Store) InsertBill(ctx context.Context, b *api.BillRecord) (int64, error) {
	var note sql.NullString
	if b.Note != nil {
		note = sql.NullString{String: *b.Note, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (account_id, direction, category, amount_cents, occurred_at, note)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.AccountID, string(b.Direction), string(b.Category),
		store.ToCents(b.Amount), store.ToMillis(b.OccurredAt), note,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading bill id: %w", err)
	}
	return id, nil
}

// ListBills returns bills ordered by occurred_at descending.
func (s *Store) ListBills(ctx context.Context, opts api.ListOptions) ([]api.BillRecord, error) {
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, direction, category, amount_cents, occurred_at, note
		 FROM bills
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT ?`, limit)
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
			note      sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.AccountID, &direction, &category, &cents, &millis, &note); err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		b.Direction = api.Direction(direction)
		b.Category = api.Category(category)
		b.Amount = store.FromCents(cents)
		b.OccurredAt = store.FromMillis(millis, s.loc)
		if note.Valid {
			b.Note = &note.String
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBill removes the bill with id.
func (s *Store) DeleteBill(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return api.ErrBillNotFound
	}
	return nil
}

// SumByCategory sums one direction per category within [start, end].
func (s *Store) SumByCategory(ctx context.Context, dir api.Direction, start, end time.Time) ([]api.CategoryAmount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total
		 FROM bills
		 WHERE direction = ? AND occurred_at BETWEEN ? AND ?
		 GROUP BY category
		 HAVING total > 0
		 ORDER BY total DESC, category ASC`,
		string(dir), store.ToMillis(start), store.ToMillis(end))
	if err != nil {
		return nil, fmt.Errorf("summing by category: %w", err)
	}
	defer rows.Close()

	var out []api.CategoryAmount
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scanning category sum: %w", err)
		}
		out = append(out, api.CategoryAmount{Category: api.Category(category), Amount: store.FromCents(cents)})
	}
	return out, rows.Err()
}

// SumByDirection sums amounts per direction within [start, end].
func (s *Store) SumByDirection(ctx context.Context, start, end time.Time) ([]api.DirectionAmount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, SUM(amount_cents)
		 FROM bills
		 WHERE occurred_at BETWEEN ? AND ?
		 GROUP BY direction`,
		store.ToMillis(start), store.ToMillis(end))
	if err != nil {
		return nil, fmt.Errorf("summing by direction: %w", err)
	}
	defer rows.Close()

	var out []api.DirectionAmount
	for rows.Next() {
		var (
			direction string
			cents     int64
		)
		if err := rows.Scan(&direction, &cents); err != nil {
			return nil, fmt.Errorf("scanning direction sum: %w", err)
		}
		out = append(out, api.DirectionAmount{Direction: api.Direction(direction), Amount: store.FromCents(cents)})
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite database: %w", err)
	}
	s.logger.Info("closed SQLite store")
	return nil
}
