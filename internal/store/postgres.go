package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// PostgresRepo implements Repo on a pgx connection pool.
type PostgresRepo struct {
	db *pgxpool.Pool
}

// OpenPostgres runs migrations and connects a pool to dsn.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	if err := MigratePostgres(dsn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresRepo{db: pool}, nil
}

func (r *PostgresRepo) Close() error {
	r.db.Close()
	return nil
}

func (r *PostgresRepo) AddSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO subscribers (chat_id, active)
		VALUES ($1, TRUE)
		ON CONFLICT (chat_id) DO NOTHING`, chatID)
	if err != nil {
		return nil, false, err
	}
	sub, err := r.GetSubscriber(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	return sub, tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) GetSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{}
	err := r.db.QueryRow(ctx, `
		SELECT chat_id, active, created_at, updated_at
		FROM subscribers WHERE chat_id = $1`, chatID,
	).Scan(&sub.ChatID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return sub, nil
}

func (r *PostgresRepo) SetActive(ctx context.Context, chatID int64, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscribers SET active = $1, updated_at = now()
		WHERE chat_id = $2`, active, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, active, created_at, updated_at
		FROM subscribers WHERE active ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ChatID, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt, s.UpdatedAt = s.CreatedAt.UTC(), s.UpdatedAt.UTC()
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *PostgresRepo) DeleteSubscriber(ctx context.Context, chatID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
