package trigger

import (
	"fmt"
	"time"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

const dateLayout = "2006-01-02"

// Key identifies one reminder: a calendar date, an event and a subscriber.
type Key struct {
	Date         string // YYYY-MM-DD in the fixed timezone
	Event        domain.Event
	SubscriberID int64
}

// NewKey builds a Key from the calendar date of day (in day's own location).
func NewKey(day time.Time, ev domain.Event, subscriberID int64) Key {
	return Key{Date: day.Format(dateLayout), Event: ev, SubscriberID: subscriberID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Date, k.Event, k.SubscriberID)
}

// Payload is what the dispatcher needs at fire time.
type Payload struct {
	Event        domain.Event
	SubscriberID int64
}

// Trigger is a scheduled one-shot reminder.
type Trigger struct {
	Key     Key
	At      time.Time
	Payload Payload
}
