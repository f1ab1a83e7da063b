// Package scheduler turns daily timetables into per-subscriber reminder
// triggers and answers "what's next" queries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/trigger"
)

// Timetables serves one day of timetable data.
type Timetables interface {
	Get(ctx context.Context, date time.Time) (domain.DailyTimetable, error)
}

// DayLoader serves one day of timetable data to the scheduler. Unlike
// Timetables.Get it must not answer with a remembered failure: a rollover
// that misses freshly published data skips every subscriber for a day.
type DayLoader interface {
	Load(ctx context.Context, date time.Time) (domain.DailyTimetable, error)
}

// Registrar is the part of the trigger registry the scheduler writes to.
type Registrar interface {
	Register(key trigger.Key, at time.Time, p trigger.Payload) (bool, error)
}

// ActiveLister lists subscribers eligible for reminders.
type ActiveLister interface {
	ListActive(ctx context.Context) ([]domain.Subscriber, error)
}

// Scheduler registers today's remaining reminders for subscribers and
// repeats that for everyone at each local midnight.
type Scheduler struct {
	timetables DayLoader
	registry   Registrar
	subs       ActiveLister
	clock      clock.Clock
	loc        *time.Location
	log        *zap.Logger
	workers    int

	cron *cron.Cron
}

// New creates a Scheduler working in the fixed timezone loc.
func New(tt DayLoader, reg Registrar, subs ActiveLister, clk clock.Clock, loc *time.Location, workers int, log *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = 8
	}
	return &Scheduler{
		timetables: tt,
		registry:   reg,
		subs:       subs,
		clock:      clk,
		loc:        loc,
		log:        log,
		workers:    workers,
	}
}

// ScheduleToday registers a trigger for every event of today that is still
// ahead of now. Already-registered keys are left alone. It returns the number
// of triggers created.
func (s *Scheduler) ScheduleToday(ctx context.Context, subscriberID int64) (int, error) {
	now := s.clock.Now().In(s.loc)
	day, err := s.timetables.Load(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("timetable for %s: %w", now.Format("2006-01-02"), err)
	}

	created := 0
	for _, occ := range day.Occurrences(s.loc) {
		if !occ.At.After(now) {
			continue
		}
		key := trigger.NewKey(now, occ.Event, subscriberID)
		ok, err := s.registry.Register(key, occ.At, trigger.Payload{Event: occ.Event, SubscriberID: subscriberID})
		switch {
		case errors.Is(err, domain.ErrAlreadyPast):
			// Became due between the check and the registration.
			continue
		case err != nil:
			return created, fmt.Errorf("register %s: %w", key, err)
		case ok:
			created++
			s.log.Debug("trigger registered",
				zap.Int64("chatID", subscriberID),
				zap.String("event", occ.Event.String()),
				zap.Time("at", occ.At),
			)
		}
	}
	return created, nil
}

// ScheduleAllActive runs ScheduleToday for each subscriber with bounded
// concurrency. Failures are logged per subscriber and never abort the batch.
func (s *Scheduler) ScheduleAllActive(ctx context.Context, subs []domain.Subscriber) (scheduled, failed int) {
	type result struct {
		n   int
		err error
	}
	results := make([]result, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, sub := range subs {
		if !sub.Active {
			continue
		}
		g.Go(func() error {
			n, err := s.ScheduleToday(gctx, sub.ChatID)
			results[i] = result{n: n, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.err != nil {
			failed++
			s.log.Warn("schedule failed; skipping subscriber this cycle",
				zap.Int64("chatID", subs[i].ChatID), zap.Error(r.err))
			continue
		}
		scheduled += r.n
	}
	return scheduled, failed
}

// Rollover re-schedules every active subscriber for the new day.
func (s *Scheduler) Rollover(ctx context.Context) {
	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		s.log.Error("list active subscribers failed", zap.Error(err))
		return
	}
	scheduled, failed := s.ScheduleAllActive(ctx, subs)
	s.log.Info("daily schedule built",
		zap.String("date", s.clock.Now().In(s.loc).Format("2006-01-02")),
		zap.Int("subscribers", len(subs)),
		zap.Int("triggers", scheduled),
		zap.Int("failed", failed),
	)
}

// Start schedules the remainder of today for all active subscribers and
// installs the midnight job in the scheduler's timezone.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLogger{s.log})),
	)
	if _, err := s.cron.AddFunc("0 0 * * *", func() { s.Rollover(ctx) }); err != nil {
		return fmt.Errorf("add midnight job: %w", err)
	}
	s.Rollover(ctx)
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("tz", s.loc.String()))
	return nil
}

// Stop halts the midnight job and waits for a running rollover to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopping")
}
