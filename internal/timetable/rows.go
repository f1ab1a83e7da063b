package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// buildMonth turns raw table rows into a MonthTable. The first row whose
// cells name at least one event is the header. A "day"/"date" column, when
// present, gives each row's day of month; otherwise rows are taken in order.
// Rows that do not start with a day number (titles, notes) are skipped.
func buildMonth(year int, month time.Month, rows [][]string) (*domain.MonthTable, error) {
	hdr := -1
	var cols map[domain.Event]int
	dayCol := -1
	for i, row := range rows {
		c, d := headerColumns(row)
		if len(c) > 0 {
			hdr, cols, dayCol = i, c, d
			break
		}
	}
	if hdr < 0 {
		return nil, fmt.Errorf("%w: no header row naming events", domain.ErrDataUnavailable)
	}
	for _, ev := range domain.Events() {
		if _, ok := cols[ev]; !ok {
			return nil, fmt.Errorf("%w: no column for %s", domain.ErrDataUnavailable, ev)
		}
	}

	m := domain.NewMonthTable(year, month)
	seq := 0
	for _, row := range rows[hdr+1:] {
		if isBlank(row) {
			continue
		}
		day := 0
		if dayCol >= 0 {
			if dayCol >= len(row) {
				continue
			}
			d, ok := parseDay(row[dayCol])
			if !ok {
				continue
			}
			day = d
		} else {
			seq++
			day = seq
		}
		if day > domain.DaysIn(year, month) {
			// Some published tables spill into the next month.
			break
		}
		for ev, idx := range cols {
			if idx >= len(row) {
				return nil, fmt.Errorf("%w: day %d has no %s cell", domain.ErrDataUnavailable, day, ev)
			}
			tod, err := domain.ParseTimeOfDay(row[idx])
			if err != nil {
				return nil, fmt.Errorf("%w: day %d %s: %v", domain.ErrDataUnavailable, day, ev, err)
			}
			if err := m.Set(day, ev, tod); err != nil {
				return nil, err
			}
		}
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows for %04d-%02d", domain.ErrDataUnavailable, year, int(month))
	}
	return m, nil
}

func headerColumns(row []string) (map[domain.Event]int, int) {
	cols := make(map[domain.Event]int)
	dayCol := -1
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "day" || name == "date" {
			dayCol = i
			continue
		}
		ev, err := domain.ParseEvent(name)
		if err != nil {
			continue
		}
		if _, dup := cols[ev]; !dup {
			cols[ev] = i
		}
	}
	return cols, dayCol
}

// parseDay accepts "17", "17.10", "17/10/2026" and "2026-10-17".
func parseDay(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Day(), true
	}
	lead := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '/' || r == ' ' })
	if len(lead) == 0 {
		return 0, false
	}
	d, err := strconv.Atoi(lead[0])
	if err != nil || d < 1 || d > 31 {
		return 0, false
	}
	return d, true
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
