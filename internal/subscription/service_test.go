package subscription

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/store"
)

type storeStub struct {
	subs map[int64]*domain.Subscriber
}

func (s *storeStub) AddSubscriber(_ context.Context, chatID int64) (*domain.Subscriber, bool, error) {
	if sub, ok := s.subs[chatID]; ok {
		return sub, false, nil
	}
	sub := &domain.Subscriber{ChatID: chatID, Active: true}
	s.subs[chatID] = sub
	return sub, true, nil
}

func (s *storeStub) GetSubscriber(_ context.Context, chatID int64) (*domain.Subscriber, error) {
	sub, ok := s.subs[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *storeStub) SetActive(_ context.Context, chatID int64, active bool) error {
	sub, ok := s.subs[chatID]
	if !ok {
		return store.ErrNotFound
	}
	sub.Active = active
	return nil
}

type schedulerStub struct {
	calls []int64
	err   error
}

func (s *schedulerStub) ScheduleToday(_ context.Context, id int64) (int, error) {
	s.calls = append(s.calls, id)
	return 3, s.err
}

func TestSubscribeLifecycle(t *testing.T) {
	st := &storeStub{subs: map[int64]*domain.Subscriber{}}
	sched := &schedulerStub{}
	svc := New(st, sched, zap.NewNop())
	ctx := context.Background()

	if err := svc.Subscribe(ctx, 10); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := svc.Subscribe(ctx, 10); !errors.Is(err, domain.ErrAlreadyActive) {
		t.Fatalf("want ErrAlreadyActive, got %v", err)
	}
	if err := svc.Unsubscribe(ctx, 10); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := svc.Unsubscribe(ctx, 10); !errors.Is(err, domain.ErrNotSubscribed) {
		t.Fatalf("want ErrNotSubscribed, got %v", err)
	}
	if err := svc.Subscribe(ctx, 10); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if !st.subs[10].Active {
		t.Fatalf("subscriber should be active again")
	}
	if len(sched.calls) != 2 {
		t.Fatalf("want scheduling on each activation, got %v", sched.calls)
	}
}

func TestSubscribe_ScheduleFailureKeepsSubscription(t *testing.T) {
	st := &storeStub{subs: map[int64]*domain.Subscriber{}}
	svc := New(st, &schedulerStub{err: domain.ErrDataUnavailable}, zap.NewNop())
	if err := svc.Subscribe(context.Background(), 5); err != nil {
		t.Fatalf("subscribe should succeed despite scheduling failure: %v", err)
	}
	if !st.subs[5].Active {
		t.Fatalf("subscriber should be stored active")
	}
}

func TestUnsubscribe_Unknown(t *testing.T) {
	svc := New(&storeStub{subs: map[int64]*domain.Subscriber{}}, &schedulerStub{}, zap.NewNop())
	if err := svc.Unsubscribe(context.Background(), 1); !errors.Is(err, domain.ErrNotSubscribed) {
		t.Fatalf("want ErrNotSubscribed, got %v", err)
	}
}

func TestActive(t *testing.T) {
	st := &storeStub{subs: map[int64]*domain.Subscriber{}}
	svc := New(st, &schedulerStub{}, zap.NewNop())
	ctx := context.Background()

	if ok, err := svc.Active(ctx, 5); ok || err != nil {
		t.Fatalf("unknown chat: active=%v err=%v", ok, err)
	}
	if err := svc.Subscribe(ctx, 5); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if ok, err := svc.Active(ctx, 5); !ok || err != nil {
		t.Fatalf("after subscribe: active=%v err=%v", ok, err)
	}
	if err := svc.Unsubscribe(ctx, 5); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if ok, err := svc.Active(ctx, 5); ok || err != nil {
		t.Fatalf("after unsubscribe: active=%v err=%v", ok, err)
	}
}
