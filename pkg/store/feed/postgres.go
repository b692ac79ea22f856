package feed

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/gpu-yield/price-feed/pkg/models/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres stores the feed as an append-only table. Entry ids are the
// stringified bigserial primary keys, so newest-first reads order by id.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool against dsn, verifies it and applies
// the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Postgres{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// NewPostgresWithDB wraps an existing handle without running migrations,
// for tests that fake the database.
func NewPostgresWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) migrate() error {
	schema, err := migrationsFS.ReadFile("migrations/001_create_price_feed.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *Postgres) Append(ctx context.Context, rec store.FeedRecord) (string, error) {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO price_feed (fields) VALUES ($1) RETURNING id`, payload,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to append record: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}

func (s *Postgres) Recent(ctx context.Context, count int) ([]store.FeedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM price_feed ORDER BY id DESC LIMIT $1`, count,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	var records []store.FeedRecord
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		fields := map[string]string{}
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", id, err)
		}
		records = append(records, store.FeedRecord{ID: fmt.Sprintf("%d", id), Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed: %w", err)
	}
	return records, nil
}

func (s *Postgres) Trim(ctx context.Context, maxLen int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM price_feed
		 WHERE id <= (SELECT COALESCE(MAX(id), 0) FROM price_feed) - $1`, maxLen,
	)
	if err != nil {
		return fmt.Errorf("failed to trim feed: %w", err)
	}
	return nil
}

func (s *Postgres) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_feed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feed: %w", err)
	}
	return n, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Postgres) Close() error {
	return s.db.Close()
}
