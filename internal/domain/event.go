package domain

import (
	"fmt"
	"strings"
)

// Event is one named prayer in the fixed daily sequence. Its value is the
// ordinal position within the day.
type Event int

const (
	Fajr Event = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
)

var eventNames = [...]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Events returns the daily sequence in order.
func Events() []Event {
	return []Event{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}
}

// EventNames returns the canonical names in daily order.
func EventNames() []string {
	return append([]string(nil), eventNames[:]...)
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// Valid reports whether e is one of the fixed events.
func (e Event) Valid() bool {
	return e >= 0 && int(e) < len(eventNames)
}

// ParseEvent resolves a case-insensitive event name. A few common
// alternative spellings used by published timetables are accepted too.
func ParseEvent(name string) (Event, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, en := range eventNames {
		if strings.ToLower(en) == n {
			return Event(i), nil
		}
	}
	if ev, ok := eventAliases[n]; ok {
		return ev, nil
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownEvent, name, strings.Join(eventNames[:], ", "))
}

var eventAliases = map[string]Event{
	"fadjr":   Fajr,
	"subh":    Fajr,
	"shuruq":  Sunrise,
	"shurooq": Sunrise,
	"zuhr":    Dhuhr,
	"dhuhur":  Dhuhr,
	"dohr":    Dhuhr,
	"asr1":    Asr,
	"magrib":  Maghrib,
	"maghreb": Maghrib,
	"ishaa":   Isha,
	"isha'a":  Isha,
}
