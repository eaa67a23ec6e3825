package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/jimikki-app/backend/internal/store/migrations"
)

// Dialect selects the SQL flavour spoken by a SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// SQLStore implements Store on the user_data and user_sheets tables.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenPostgres connects through the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewSQLStore(ctx, db, DialectPostgres)
}

// OpenSQLite opens (or creates) a SQLite database file and applies migrations.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also lives and dies
	// with its connection.
	db.SetMaxOpenConns(1)
	return NewSQLStore(ctx, db, DialectSQLite)
}

// NewSQLStore wraps db after bringing its schema up to date.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	gooseDialect := "sqlite3"
	if dialect == DialectPostgres {
		gooseDialect = "pgx"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) GetUserData(ctx context.Context, email string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM user_data WHERE email = ?`), email).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user data: %w", err)
	}
	return data, nil
}

func (s *SQLStore) PutUserData(ctx context.Context, email, data string) error {
	const q = `INSERT INTO user_data (email, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), email, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save user data: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSheetID(ctx context.Context, email string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT sheet_id FROM user_sheets WHERE email = ?`), email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sheet record: %w", err)
	}
	return id, nil
}

func (s *SQLStore) PutSheetID(ctx context.Context, email, sheetID string) error {
	const q = `INSERT INTO user_sheets (email, sheet_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET sheet_id = excluded.sheet_id`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), email, sheetID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save sheet record: %w", err)
	}
	return nil
}

func (s *SQLStore) ListUserEmails(ctx context.Context, pageSize int32, pageToken string) ([]string, string, error) {
	cursor, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("invalid page token: %w", err)
	}
	size := normalizePageSize(pageSize)

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT email FROM user_data WHERE email > ? ORDER BY email LIMIT ?`),
		cursor, size+1)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, "", fmt.Errorf("failed to scan user: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}

	var nextToken string
	if len(emails) > size {
		emails = emails[:size]
		nextToken = EncodePageToken(emails[len(emails)-1])
	}
	return emails, nextToken, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
