// Package timetable loads monthly prayer timetables from an external source
// and serves them day by day.
package timetable

import (
	"context"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// Source fetches one month of timetable data. Implementations report
// unreachable or malformed data as domain.ErrDataUnavailable.
type Source interface {
	FetchMonth(ctx context.Context, year int, month time.Month) (*domain.MonthTable, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, year int, month time.Month) (*domain.MonthTable, error)

func (f SourceFunc) FetchMonth(ctx context.Context, year int, month time.Month) (*domain.MonthTable, error) {
	return f(ctx, year, month)
}
