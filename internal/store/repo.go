package store

import (
	"context"
	"errors"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// ErrNotFound is returned when no subscriber row matches.
var ErrNotFound = errors.New("subscriber not found")

// Repo defines storage operations for subscribers.
type Repo interface {
	// AddSubscriber creates an active subscriber. An existing row is left
	// untouched and returned with created=false.
	AddSubscriber(ctx context.Context, chatID int64) (sub *domain.Subscriber, created bool, err error)
	GetSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, error)
	SetActive(ctx context.Context, chatID int64, active bool) error
	ListActive(ctx context.Context) ([]domain.Subscriber, error)
	// DeleteSubscriber removes the row entirely.
	DeleteSubscriber(ctx context.Context, chatID int64) error
	Close() error
}
