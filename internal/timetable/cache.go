package timetable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
)

const (
	// maxMonths keeps the current and the adjacent month, so looking at
	// tomorrow on the last day of a month does not evict today.
	maxMonths = 2
	// failureTTL throttles re-fetching a month the source could not serve.
	failureTTL = 10 * time.Minute
)

// lookup says how much of the cache a caller trusts.
type lookup int

const (
	cachedOrFailed lookup = iota // serve tables and recent failures
	retryFailed                  // serve tables, refetch after a failure
	reload                       // always refetch
)

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) String() string { return fmt.Sprintf("%04d-%02d", k.year, int(k.month)) }

func (k monthKey) before(o monthKey) bool {
	return k.year < o.year || (k.year == o.year && k.month < o.month)
}

type cacheEntry struct {
	table     *domain.MonthTable
	err       error
	fetchedAt time.Time
}

// Cache serves daily timetables, fetching whole months from a Source on demand.
type Cache struct {
	src   Source
	clock clock.Clock
	log   *zap.Logger

	mu      sync.RWMutex
	entries map[monthKey]cacheEntry
	group   singleflight.Group
}

func NewCache(src Source, clk clock.Clock, log *zap.Logger) *Cache {
	return &Cache{
		src:     src,
		clock:   clk,
		log:     log,
		entries: make(map[monthKey]cacheEntry),
	}
}

// Get returns the timetable for date's calendar day (date is read in its
// own location). It fails with domain.ErrDataUnavailable when the month
// cannot be loaded or has no row for the day.
func (c *Cache) Get(ctx context.Context, date time.Time) (domain.DailyTimetable, error) {
	return c.day(ctx, date, cachedOrFailed)
}

// Load is Get for the scheduler: a loaded month is reused, but a remembered
// fetch failure is retried at once instead of being served until it expires.
func (c *Cache) Load(ctx context.Context, date time.Time) (domain.DailyTimetable, error) {
	return c.day(ctx, date, retryFailed)
}

// Refresh drops any cached data for date's month and loads it again.
func (c *Cache) Refresh(ctx context.Context, date time.Time) error {
	_, err := c.month(ctx, monthKey{year: date.Year(), month: date.Month()}, reload)
	return err
}

func (c *Cache) day(ctx context.Context, date time.Time, mode lookup) (domain.DailyTimetable, error) {
	table, err := c.month(ctx, monthKey{year: date.Year(), month: date.Month()}, mode)
	if err != nil {
		return domain.DailyTimetable{}, err
	}
	return table.Day(date.Day())
}

func (c *Cache) month(ctx context.Context, key monthKey, mode lookup) (*domain.MonthTable, error) {
	if mode != reload {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			if e.err == nil {
				return e.table, nil
			}
			if mode == cachedOrFailed && c.clock.Now().Sub(e.fetchedAt) < failureTTL {
				return nil, e.err
			}
		}
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		table, err := c.src.FetchMonth(ctx, key.year, key.month)
		if err != nil && !errors.Is(err, domain.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
		}
		// A caller giving up says nothing about the source.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.store(key, cacheEntry{table: table, err: err, fetchedAt: c.clock.Now()})
		}
		if err != nil {
			c.log.Warn("timetable fetch failed", zap.String("month", key.String()), zap.Error(err))
			return nil, err
		}
		c.log.Info("timetable loaded", zap.String("month", key.String()), zap.Int("days", table.Len()))
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.MonthTable), nil
}

func (c *Cache) store(key monthKey, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	for len(c.entries) > maxMonths {
		var oldest monthKey
		first := true
		for k := range c.entries {
			if k == key {
				continue
			}
			if first || k.before(oldest) {
				oldest, first = k, false
			}
		}
		delete(c.entries, oldest)
	}
}
