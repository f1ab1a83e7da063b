package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/timetable"
	"github.com/ykvlv/prayer-bot/internal/trigger"
)

func fullMonth(t *testing.T, year int, month time.Month) *domain.MonthTable {
	t.Helper()
	times := []string{"05:00", "06:30", "12:00", "15:00", "18:00", "19:30"}
	m := domain.NewMonthTable(year, month)
	for d := 1; d <= domain.DaysIn(year, month); d++ {
		for i, ev := range domain.Events() {
			tod, err := domain.ParseTimeOfDay(times[i])
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if err := m.Set(d, ev, tod); err != nil {
				t.Fatalf("set: %v", err)
			}
		}
	}
	return m
}

// publisher serves the months published so far.
type publisher struct {
	mu     sync.Mutex
	months map[time.Month]*domain.MonthTable
}

func (p *publisher) publish(m time.Month, table *domain.MonthTable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.months[m] = table
}

func (p *publisher) source() timetable.Source {
	return timetable.SourceFunc(func(_ context.Context, year int, month time.Month) (*domain.MonthTable, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		m, ok := p.months[month]
		if !ok {
			return nil, fmt.Errorf("%w: %04d-%02d not published", domain.ErrDataUnavailable, year, int(month))
		}
		return m, nil
	})
}

func TestRollover_RetriesMonthMissingAtLateLookup(t *testing.T) {
	pub := &publisher{months: map[time.Month]*domain.MonthTable{
		time.October: fullMonth(t, 2026, time.October),
	}}
	november := fullMonth(t, 2026, time.November)

	clk := clock.NewFake(time.Date(2026, time.October, 31, 23, 55, 0, 0, msk))
	log := zap.NewNop()
	cache := timetable.NewCache(pub.source(), clk, log)
	ctx := context.Background()

	// A late /next for Fajr looks at tomorrow before November is published.
	fajr := domain.Fajr
	if _, err := NewResolver(cache, msk).NextEvent(ctx, clk.Now(), &fajr); !errors.Is(err, domain.ErrNoUpcomingEvent) {
		t.Fatalf("want ErrNoUpcomingEvent, got %v", err)
	}

	pub.publish(time.November, november)
	clk.Set(time.Date(2026, time.November, 1, 0, 0, 0, 0, msk))

	subs := newMemSubscribers(1, 2, 3)
	reg := trigger.NewRegistry(clk, NewDispatcher(subs, &recordingSender{}, msk, log), log)
	New(cache, reg, subs, clk, msk, 2, log).Rollover(ctx)

	if got := reg.Pending(); got != 18 {
		t.Fatalf("pending triggers after midnight rollover: %d, want 18", got)
	}
}
