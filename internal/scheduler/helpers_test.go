package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/store"
)

var msk = time.FixedZone("MSK", 3*3600)

// stubTimetables serves fixed days keyed by YYYY-MM-DD; other days are unavailable.
type stubTimetables struct {
	days map[string]domain.DailyTimetable
}

func (s *stubTimetables) Get(_ context.Context, date time.Time) (domain.DailyTimetable, error) {
	d, ok := s.days[date.Format("2006-01-02")]
	if !ok {
		return domain.DailyTimetable{}, fmt.Errorf("%w: %s", domain.ErrDataUnavailable, date.Format("2006-01-02"))
	}
	return d, nil
}

func (s *stubTimetables) Load(ctx context.Context, date time.Time) (domain.DailyTimetable, error) {
	return s.Get(ctx, date)
}

func dayTable(t *testing.T, y int, m time.Month, d int, hhmm ...string) domain.DailyTimetable {
	t.Helper()
	times := make(map[domain.Event]domain.TimeOfDay, len(hhmm))
	for i, s := range hhmm {
		tod, err := domain.ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		times[domain.Event(i)] = tod
	}
	return domain.DailyTimetable{Year: y, Month: m, Day: d, Times: times}
}

// scenarioDay is Fajr 05:12, Sunrise 06:47, Dhuhr 12:31, Asr 15:40, Maghrib 19:02, Isha 20:35.
func scenarioTimetables(t *testing.T) *stubTimetables {
	t.Helper()
	return &stubTimetables{days: map[string]domain.DailyTimetable{
		"2026-10-17": dayTable(t, 2026, time.October, 17, "05:12", "06:47", "12:31", "15:40", "19:02", "20:35"),
		"2026-10-18": dayTable(t, 2026, time.October, 18, "05:14", "06:49", "12:31", "15:38", "19:00", "20:33"),
	}}
}

type memSubscribers struct {
	mu   sync.Mutex
	subs map[int64]*domain.Subscriber
	err  error
}

func newMemSubscribers(ids ...int64) *memSubscribers {
	m := &memSubscribers{subs: make(map[int64]*domain.Subscriber)}
	for _, id := range ids {
		m.subs[id] = &domain.Subscriber{ChatID: id, Active: true}
	}
	return m
}

func (m *memSubscribers) GetSubscriber(_ context.Context, chatID int64) (*domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.subs[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscribers) ListActive(_ context.Context) ([]domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Subscriber
	for _, s := range m.subs {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSubscribers) setActive(chatID int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[chatID].Active = active
}

type sentMessage struct {
	chatID int64
	text   string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]error
}

func (s *recordingSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[chatID]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (s *recordingSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}
