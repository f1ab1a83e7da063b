package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/store"
	"github.com/ykvlv/prayer-bot/internal/trigger"
)

// Sender is the message transport. telegram.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SubscriberGetter looks up a subscriber's current state.
type SubscriberGetter interface {
	GetSubscriber(ctx context.Context, chatID int64) (*domain.Subscriber, error)
}

// Dispatcher delivers a reminder when a trigger fires.
type Dispatcher struct {
	subs   SubscriberGetter
	sender Sender
	loc    *time.Location
	log    *zap.Logger
}

func NewDispatcher(subs SubscriberGetter, sender Sender, loc *time.Location, log *zap.Logger) *Dispatcher {
	return &Dispatcher{subs: subs, sender: sender, loc: loc, log: log}
}

// ReminderText is the message sent when an event starts.
func ReminderText(ev domain.Event, at time.Time) string {
	return fmt.Sprintf("🕌 It's time for %s (%s)", ev, at.Format("15:04"))
}

// Fire implements trigger.Handler. The trigger is retired on every path;
// a failed delivery is logged and never retried. The send carries no deadline
// of its own: every subscriber fires at the same instant and queues behind the
// transport's pacing, which bounds each HTTP call separately.
func (d *Dispatcher) Fire(ctx context.Context, t trigger.Trigger, retire func()) {
	defer retire()

	chatID := t.Payload.SubscriberID
	sub, err := d.subs.GetSubscriber(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		d.log.Debug("subscriber gone; reminder dropped", zap.Int64("chatID", chatID))
		return
	case err != nil:
		d.log.Warn("subscriber lookup failed; reminder dropped", zap.Int64("chatID", chatID), zap.Error(err))
		return
	case !sub.Active:
		d.log.Debug("subscriber inactive; reminder dropped", zap.Int64("chatID", chatID))
		return
	}

	if err := d.sender.SendMessage(ctx, chatID, ReminderText(t.Payload.Event, t.At.In(d.loc))); err != nil {
		d.log.Warn("reminder not delivered",
			zap.Int64("chatID", chatID),
			zap.String("event", t.Payload.Event.String()),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)),
		)
		return
	}
	d.log.Info("reminder sent", zap.Int64("chatID", chatID), zap.String("event", t.Payload.Event.String()))
}
