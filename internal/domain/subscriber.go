package domain

import "time"

// Subscriber is a chat that receives reminders while Active.
// Unsubscribing only clears Active so the record survives reactivation.
type Subscriber struct {
	ChatID    int64
	Active    bool
	CreatedAt time.Time // UTC
	UpdatedAt time.Time // UTC
}
