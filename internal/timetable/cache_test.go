package timetable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
)

type countingSource struct {
	mu     sync.Mutex
	calls  map[time.Month]int
	months map[time.Month]*domain.MonthTable
}

func (s *countingSource) FetchMonth(_ context.Context, _ int, month time.Month) (*domain.MonthTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[month]++
	m, ok := s.months[month]
	if !ok {
		return nil, errors.New("upstream 404")
	}
	return m, nil
}

func (s *countingSource) count(month time.Month) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[month]
}

func sampleMonth(t *testing.T, year int, month time.Month, days ...int) *domain.MonthTable {
	t.Helper()
	m := domain.NewMonthTable(year, month)
	for _, d := range days {
		for i, ev := range domain.Events() {
			if err := m.Set(d, ev, domain.TimeOfDay{Hour: 5 + 3*i, Minute: d % 60}); err != nil {
				t.Fatalf("set: %v", err)
			}
		}
	}
	return m
}

func TestCache_FetchesOncePerMonth(t *testing.T) {
	src := &countingSource{
		calls: map[time.Month]int{},
		months: map[time.Month]*domain.MonthTable{
			time.October:  sampleMonth(t, 2026, time.October, 30, 31),
			time.November: sampleMonth(t, 2026, time.November, 1),
		},
	}
	clk := clock.NewFake(time.Date(2026, time.October, 30, 12, 0, 0, 0, time.UTC))
	c := NewCache(src, clk, zap.NewNop())
	ctx := context.Background()

	for _, d := range []time.Time{
		time.Date(2026, time.October, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.October, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.October, 31, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := c.Get(ctx, d); err != nil {
			t.Fatalf("get %s: %v", d.Format("2006-01-02"), err)
		}
	}
	if src.count(time.October) != 1 || src.count(time.November) != 1 {
		t.Fatalf("want one fetch per month, got oct=%d nov=%d", src.count(time.October), src.count(time.November))
	}

	if err := c.Refresh(ctx, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if src.count(time.October) != 2 {
		t.Fatalf("refresh should refetch, got %d", src.count(time.October))
	}
}

func TestCache_MissingDayAndMonth(t *testing.T) {
	src := &countingSource{
		calls:  map[time.Month]int{},
		months: map[time.Month]*domain.MonthTable{time.October: sampleMonth(t, 2026, time.October, 1)},
	}
	clk := clock.NewFake(time.Date(2026, time.October, 31, 12, 0, 0, 0, time.UTC))
	c := NewCache(src, clk, zap.NewNop())
	ctx := context.Background()

	if _, err := c.Get(ctx, time.Date(2026, time.October, 31, 0, 0, 0, 0, time.UTC)); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("missing day: want ErrDataUnavailable, got %v", err)
	}

	nov := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, nov); !errors.Is(err, domain.ErrDataUnavailable) {
			t.Fatalf("missing month: want ErrDataUnavailable, got %v", err)
		}
	}
	if src.count(time.November) != 1 {
		t.Fatalf("failed month should be remembered, got %d fetches", src.count(time.November))
	}
	clk.Advance(failureTTL + time.Second)
	_, _ = c.Get(ctx, nov)
	if src.count(time.November) != 2 {
		t.Fatalf("failure should expire after TTL, got %d fetches", src.count(time.November))
	}
}

func TestCache_LoadRetriesRememberedFailure(t *testing.T) {
	src := &countingSource{
		calls:  map[time.Month]int{},
		months: map[time.Month]*domain.MonthTable{time.October: sampleMonth(t, 2026, time.October, 31)},
	}
	clk := clock.NewFake(time.Date(2026, time.October, 31, 23, 55, 0, 0, time.UTC))
	c := NewCache(src, clk, zap.NewNop())
	ctx := context.Background()
	nov := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)

	if _, err := c.Get(ctx, nov); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable before publication, got %v", err)
	}

	src.mu.Lock()
	src.months[time.November] = sampleMonth(t, 2026, time.November, 1)
	src.mu.Unlock()
	clk.Set(nov)

	if _, err := c.Get(ctx, nov); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("Get should still serve the remembered failure, got %v", err)
	}
	day, err := c.Load(ctx, nov)
	if err != nil {
		t.Fatalf("Load should refetch after a failure: %v", err)
	}
	if day.Month != time.November || day.Day != 1 {
		t.Fatalf("unexpected day %+v", day)
	}
	if _, err := c.Get(ctx, nov); err != nil {
		t.Fatalf("Get after a successful Load: %v", err)
	}
	if got := src.count(time.November); got != 2 {
		t.Fatalf("want 2 fetches of November, got %d", got)
	}
	if _, err := c.Load(ctx, nov); err != nil || src.count(time.November) != 2 {
		t.Fatalf("Load should reuse a loaded month, fetches=%d err=%v", src.count(time.November), err)
	}
}

func TestCache_CancelledFetchIsNotRemembered(t *testing.T) {
	oct := sampleMonth(t, 2026, time.October, 17)
	calls := 0
	src := SourceFunc(func(ctx context.Context, _ int, _ time.Month) (*domain.MonthTable, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return oct, nil
	})
	clk := clock.NewFake(time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC))
	c := NewCache(src, clk, zap.NewNop())
	date := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(cancelled, date)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("want a cancelled DataUnavailable error, got %v", err)
	}

	if _, err := c.Get(context.Background(), date); err != nil {
		t.Fatalf("a cancelled fetch must not be cached: %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 source calls, got %d", calls)
	}
}
