package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// lookaheadDays is today plus tomorrow.
const lookaheadDays = 2

// Resolver answers "what's next" from the timetable alone.
type Resolver struct {
	timetables Timetables
	loc        *time.Location
}

func NewResolver(tt Timetables, loc *time.Location) *Resolver {
	return &Resolver{timetables: tt, loc: loc}
}

// NextEvent returns the first occurrence strictly after now within today and
// tomorrow. With a requested event only that event is considered. A missing
// timetable for tomorrow narrows the window instead of failing; an empty
// window yields domain.ErrNoUpcomingEvent.
func (r *Resolver) NextEvent(ctx context.Context, now time.Time, requested *domain.Event) (domain.Occurrence, error) {
	if requested != nil && !requested.Valid() {
		return domain.Occurrence{}, fmt.Errorf("%w: %d", domain.ErrUnknownEvent, int(*requested))
	}
	now = now.In(r.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)

	var candidates []domain.Occurrence
	for i := 0; i < lookaheadDays; i++ {
		date := today.AddDate(0, 0, i)
		day, err := r.timetables.Get(ctx, date)
		if err != nil {
			if i == 0 {
				return domain.Occurrence{}, err
			}
			if errors.Is(err, domain.ErrDataUnavailable) {
				break
			}
			return domain.Occurrence{}, err
		}
		for _, occ := range day.Occurrences(r.loc) {
			if requested != nil && occ.Event != *requested {
				continue
			}
			if occ.At.After(now) {
				candidates = append(candidates, occ)
			}
		}
		if len(candidates) > 0 {
			break
		}
	}
	if len(candidates) == 0 {
		return domain.Occurrence{}, domain.ErrNoUpcomingEvent
	}
	domain.SortOccurrences(candidates)
	return candidates[0], nil
}

// Day returns the timetable offset days from now's date (0 today, 1 tomorrow).
func (r *Resolver) Day(ctx context.Context, now time.Time, offset int) (domain.DailyTimetable, error) {
	now = now.In(r.loc)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc).AddDate(0, 0, offset)
	return r.timetables.Get(ctx, date)
}
