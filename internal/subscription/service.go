// Package subscription implements subscribe/unsubscribe on top of the store
// and schedules the remainder of today on (re)activation.
package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/store"
)

// Store is the subset of store.Repo used here.
type Store interface {
	AddSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, bool, error)
	GetSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, error)
	SetActive(ctx context.Context, chatID int64, active bool) error
}

type TodayScheduler interface {
	ScheduleToday(ctx context.Context, subscriberID int64) (int, error)
}

type Service struct {
	store     Store
	scheduler TodayScheduler
	log       *zap.Logger
}

func New(st Store, sched TodayScheduler, log *zap.Logger) *Service {
	return &Service{store: st, scheduler: sched, log: log}
}

// Subscribe activates chatID, creating the record on first use. An already
// active subscriber gets domain.ErrAlreadyActive. A scheduling failure does
// not undo the subscription; the midnight run picks the subscriber up.
func (s *Service) Subscribe(ctx context.Context, chatID int64) error {
	sub, err := s.store.GetSubscriber(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, _, err := s.store.AddSubscriber(ctx, chatID); err != nil {
			return fmt.Errorf("add subscriber: %w", err)
		}
	case err != nil:
		return fmt.Errorf("get subscriber: %w", err)
	case sub.Active:
		return domain.ErrAlreadyActive
	default:
		if err := s.store.SetActive(ctx, chatID, true); err != nil {
			return fmt.Errorf("reactivate subscriber: %w", err)
		}
	}

	n, err := s.scheduler.ScheduleToday(ctx, chatID)
	if err != nil {
		s.log.Warn("schedule after subscribe failed", zap.Int64("chatID", chatID), zap.Error(err))
		return nil
	}
	s.log.Info("subscribed", zap.Int64("chatID", chatID), zap.Int("triggers", n))
	return nil
}

// Unsubscribe deactivates chatID. Pending triggers stay registered and are
// dropped by the dispatcher's active check at fire time.
func (s *Service) Unsubscribe(ctx context.Context, chatID int64) error {
	sub, err := s.store.GetSubscriber(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrNotSubscribed
	}
	if err != nil {
		return fmt.Errorf("get subscriber: %w", err)
	}
	if !sub.Active {
		return domain.ErrNotSubscribed
	}
	if err := s.store.SetActive(ctx, chatID, false); err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	s.log.Info("unsubscribed", zap.Int64("chatID", chatID))
	return nil
}

// Active reports whether chatID currently receives reminders. Unknown chats
// are simply inactive.
func (s *Service) Active(ctx context.Context, chatID int64) (bool, error) {
	sub, err := s.store.GetSubscriber(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get subscriber: %w", err)
	}
	return sub.Active, nil
}
