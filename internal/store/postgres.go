package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps session text in the platform's sessions table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) LoadText(ctx context.Context, sessionID string) (string, bool, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT current_code FROM sessions WHERE id = $1`, sessionID,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session text: %w", err)
	}
	if !text.Valid {
		return "", false, nil
	}
	return text.String, true, nil
}

func (s *PostgresStore) SaveText(ctx context.Context, sessionID, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET current_code = $2, updated_at = NOW() WHERE id = $1`,
		sessionID, text,
	)
	if err != nil {
		return fmt.Errorf("save session text: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session text: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save session text: session %s not found", sessionID)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
