package domain

import "errors"

var (
	// ErrDataUnavailable means the timetable source could not be reached or
	// parsed for the requested period.
	ErrDataUnavailable = errors.New("timetable data unavailable")
	// ErrAlreadyPast rejects a trigger whose fire instant has elapsed.
	ErrAlreadyPast     = errors.New("fire instant already past")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrNoUpcomingEvent = errors.New("no upcoming event in lookahead window")
	// ErrDeliveryFailure wraps a single-recipient transport error.
	ErrDeliveryFailure = errors.New("delivery failed")

	ErrAlreadyActive = errors.New("subscriber already active")
	ErrNotSubscribed = errors.New("subscriber not active")
)
