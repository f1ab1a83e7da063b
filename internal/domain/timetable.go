package domain

import (
	"fmt"
	"sort"
	"time"
)

// TimeOfDay is a wall-clock time in the fixed timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return FormatMinutes(t.Hour*60 + t.Minute)
}

// On builds the absolute instant of t on the calendar day of date, directly
// in loc. No conversion from another zone is involved.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

// Occurrence is an event placed at an absolute instant.
type Occurrence struct {
	Event Event
	At    time.Time
}

// DailyTimetable maps every event to its time of day for one calendar date.
type DailyTimetable struct {
	Year  int
	Month time.Month
	Day   int
	Times map[Event]TimeOfDay
}

// Date returns midnight of the timetable's day in loc.
func (d DailyTimetable) Date(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Occurrences returns every event of the day as absolute instants, in
// event order. Times are not required to increase across events.
func (d DailyTimetable) Occurrences(loc *time.Location) []Occurrence {
	base := d.Date(loc)
	out := make([]Occurrence, 0, len(d.Times))
	for _, ev := range Events() {
		tod, ok := d.Times[ev]
		if !ok {
			continue
		}
		out = append(out, Occurrence{Event: ev, At: tod.On(base, loc)})
	}
	return out
}

// MonthTable is one month of timetable data as delivered by a source.
// days[i] holds day i+1; a nil entry means the source had no row for it.
type MonthTable struct {
	Year  int
	Month time.Month
	days  []map[Event]TimeOfDay
}

// NewMonthTable allocates an empty table sized to the month's length.
func NewMonthTable(year int, month time.Month) *MonthTable {
	return &MonthTable{
		Year:  year,
		Month: month,
		days:  make([]map[Event]TimeOfDay, DaysIn(year, month)),
	}
}

// Set records one event time. Days outside the month are rejected.
func (m *MonthTable) Set(day int, ev Event, tod TimeOfDay) error {
	if day < 1 || day > len(m.days) {
		return fmt.Errorf("%w: day %d outside %04d-%02d", ErrDataUnavailable, day, m.Year, int(m.Month))
	}
	if !ev.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownEvent, int(ev))
	}
	if m.days[day-1] == nil {
		m.days[day-1] = make(map[Event]TimeOfDay, len(eventNames))
	}
	m.days[day-1][ev] = tod
	return nil
}

// Len is the number of days that carry data.
func (m *MonthTable) Len() int {
	n := 0
	for _, d := range m.days {
		if d != nil {
			n++
		}
	}
	return n
}

// Day returns the timetable for the given day of the month. It fails with
// ErrDataUnavailable when the day is out of range or incomplete.
func (m *MonthTable) Day(day int) (DailyTimetable, error) {
	if day < 1 || day > len(m.days) || m.days[day-1] == nil {
		return DailyTimetable{}, fmt.Errorf("%w: no row for %04d-%02d-%02d", ErrDataUnavailable, m.Year, int(m.Month), day)
	}
	row := m.days[day-1]
	for _, ev := range Events() {
		if _, ok := row[ev]; !ok {
			return DailyTimetable{}, fmt.Errorf("%w: %s missing on %04d-%02d-%02d", ErrDataUnavailable, ev, m.Year, int(m.Month), day)
		}
	}
	times := make(map[Event]TimeOfDay, len(row))
	for k, v := range row {
		times[k] = v
	}
	return DailyTimetable{Year: m.Year, Month: m.Month, Day: day, Times: times}, nil
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SortOccurrences orders chronologically, ties broken by event ordinal.
func SortOccurrences(occ []Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool {
		if occ[i].At.Equal(occ[j].At) {
			return occ[i].Event < occ[j].Event
		}
		return occ[i].At.Before(occ[j].At)
	})
}
