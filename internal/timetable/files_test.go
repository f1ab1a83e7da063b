package timetable

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

const octoberCSV = `Day,Fajr,Sunrise,Dhuhr,Asr,Maghrib,Isha,Notes
1,05:40,07:22,12:43,15:32,18:03,19:35,
2,05:42,07:24,12:43,15:30,18:01,19:33,
17,5:12,6:47,12:31,15:40,19:02,20:35,scenario day
`

func TestFileSource_FetchMonth(t *testing.T) {
	fsys := fstest.MapFS{"2026/10.csv": {Data: []byte(octoberCSV)}}
	src := NewFileSource(fsys)

	m, err := src.FetchMonth(context.Background(), 2026, time.October)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("want 3 days, got %d", m.Len())
	}
	day, err := m.Day(17)
	if err != nil {
		t.Fatalf("day 17: %v", err)
	}
	if got := day.Times[domain.Isha].String(); got != "20:35" {
		t.Fatalf("want Isha 20:35, got %s", got)
	}
	if _, err := m.Day(3); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("gap day: want ErrDataUnavailable, got %v", err)
	}
}

func TestFileSource_Missing(t *testing.T) {
	src := NewFileSource(fstest.MapFS{})
	if _, err := src.FetchMonth(context.Background(), 2026, time.November); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestBuildMonth_RowOrderWithoutDayColumn(t *testing.T) {
	rows := [][]string{
		{"Prayer times, February 2026"},
		{"Fajr", "Shuruq", "Zuhr", "Asr", "Maghrib", "Isha"},
		{"06:01", "07:55", "12:50", "15:10", "17:40", "19:15"},
		{"06:00", "07:53", "12:50", "15:12", "17:42", "19:17"},
	}
	m, err := buildMonth(2026, time.February, rows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	day, err := m.Day(2)
	if err != nil {
		t.Fatalf("day 2: %v", err)
	}
	if got := day.Times[domain.Sunrise].String(); got != "07:53" {
		t.Fatalf("want Sunrise 07:53, got %s", got)
	}
}

func TestBuildMonth_Malformed(t *testing.T) {
	cases := map[string][][]string{
		"no header":      {{"a", "b"}, {"1", "2"}},
		"missing column": {{"Day", "Fajr", "Dhuhr"}, {"1", "05:00", "12:00"}},
		"bad time": {
			{"Day", "Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"},
			{"1", "05:00", "07:00", "noon", "15:00", "18:00", "19:30"},
		},
	}
	for name, rows := range cases {
		if _, err := buildMonth(2026, time.March, rows); !errors.Is(err, domain.ErrDataUnavailable) {
			t.Fatalf("%s: want ErrDataUnavailable, got %v", name, err)
		}
	}
}
