package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// AddSubscriber inserts an active subscriber unless the chat is already known.
func (r *SQLiteRepo) AddSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, bool, error) {
	now := time.Now().UTC().Unix()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (chat_id, active, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING`,
		chatID, now, now,
	)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	sub, err := r.GetSubscriber(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	return sub, n > 0, nil
}

// GetSubscriber returns a subscriber by chatID or ErrNotFound.
func (r *SQLiteRepo) GetSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, active, created_at, updated_at
		FROM subscribers
		WHERE chat_id = ?`,
		chatID,
	)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SetActive toggles the active flag.
func (r *SQLiteRepo) SetActive(ctx context.Context, chatID int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET active = ?, updated_at = ?
		WHERE chat_id = ?`,
		boolToInt(active), time.Now().UTC().Unix(), chatID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListActive returns every active subscriber ordered by chat id.
func (r *SQLiteRepo) ListActive(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, active, created_at, updated_at
		FROM subscribers
		WHERE active = 1
		ORDER BY chat_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteSubscriber removes a subscriber row.
func (r *SQLiteRepo) DeleteSubscriber(ctx context.Context, chatID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(s rowScanner) (*domain.Subscriber, error) {
	var (
		chatID    int64
		activeInt int
		createdAt int64
		updatedAt int64
	)
	if err := s.Scan(&chatID, &activeInt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.Subscriber{
		ChatID:    chatID,
		Active:    activeInt != 0,
		CreatedAt: unixUTC(createdAt),
		UpdatedAt: unixUTC(updatedAt),
	}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
