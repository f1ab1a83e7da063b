package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

func (r *Router) sendText(ctx context.Context, chatID int64, text string) {
	if err := r.Client.SendMessage(ctx, chatID, text); err != nil {
		r.log.Warn("reply failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithMenu(ctx context.Context, chatID int64, text string, subscribed bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard(subscribed)
	if err := r.Client.Send(ctx, msg); err != nil {
		r.log.Warn("reply failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// --- Subscription ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	err := r.Subscriptions.Subscribe(ctx, chatID)
	switch {
	case errors.Is(err, domain.ErrAlreadyActive):
		r.sendWithMenu(ctx, chatID, alreadySubscribedText, true)
	case err != nil:
		r.log.Error("subscribe failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(ctx, chatID, "Subscription error. Please try again later.")
	default:
		r.sendWithMenu(ctx, chatID, subscribedText, true)
	}
}

func (r *Router) handleStop(ctx context.Context, chatID int64) {
	err := r.Subscriptions.Unsubscribe(ctx, chatID)
	switch {
	case errors.Is(err, domain.ErrNotSubscribed):
		r.sendWithMenu(ctx, chatID, notSubscribedText, false)
	case err != nil:
		r.log.Error("unsubscribe failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(ctx, chatID, "Could not unsubscribe. Please try again later.")
	default:
		r.sendWithMenu(ctx, chatID, unsubscribedText, false)
	}
}

// --- Timetable queries ---

func (r *Router) handleNext(ctx context.Context, chatID int64, args string) {
	var requested *domain.Event
	if args != "" {
		ev, err := domain.ParseEvent(args)
		if err != nil {
			r.sendText(ctx, chatID, unknownEventText())
			return
		}
		requested = &ev
	}

	now := r.Clock.Now()
	occ, err := r.Resolver.NextEvent(ctx, now, requested)
	switch {
	case errors.Is(err, domain.ErrNoUpcomingEvent):
		r.sendText(ctx, chatID, noUpcomingText)
	case errors.Is(err, domain.ErrDataUnavailable):
		r.log.Warn("next: timetable unavailable", zap.Error(err))
		r.sendText(ctx, chatID, noUpcomingText)
	case err != nil:
		r.log.Error("next failed", zap.Error(err))
		r.sendText(ctx, chatID, "Something went wrong. Please try again later.")
	default:
		r.sendText(ctx, chatID, nextText(occ, now, r.Location))
	}
}

func (r *Router) handleDay(ctx context.Context, chatID int64, offset int) {
	day, err := r.Resolver.Day(ctx, r.Clock.Now(), offset)
	if err != nil {
		r.log.Warn("timetable unavailable", zap.Int("offset", offset), zap.Error(err))
		r.sendText(ctx, chatID, noTimetableText)
		return
	}
	r.sendText(ctx, chatID, dayText(day, r.Location))
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	active, err := r.Subscriptions.Active(ctx, chatID)
	if err != nil {
		r.log.Error("status lookup failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(ctx, chatID, "Something went wrong. Please try again later.")
		return
	}
	// Triggers left from before /stop are dropped when they fire.
	if !active {
		r.sendText(ctx, chatID, notSubscribedText)
		return
	}
	t, ok := r.Triggers.NextUnfired(chatID)
	if !ok {
		r.sendText(ctx, chatID, noPendingText)
		return
	}
	r.sendText(ctx, chatID, statusText(t.Payload.Event, t.At.In(r.Location)))
}

// --- Admin ---

func (r *Router) handleBroadcast(ctx context.Context, from *tgbotapi.User, chatID int64, text string) {
	if !r.isAdmin(from) {
		r.sendText(ctx, chatID, notAuthorizedText)
		return
	}
	if strings.TrimSpace(text) == "" {
		r.sendText(ctx, chatID, "Usage: /broadcast <message>")
		return
	}
	if !r.broadcasting.CompareAndSwap(false, true) {
		r.sendText(ctx, chatID, broadcastBusyText)
		return
	}
	r.sendText(ctx, chatID, broadcastStartedText)

	r.background.Go(func() error {
		defer r.broadcasting.Store(false)
		res, err := r.Broadcaster.Broadcast(ctx, text)
		// The report goes out even when shutdown cut the run short.
		replyCtx := context.WithoutCancel(ctx)
		if err != nil {
			r.log.Error("broadcast failed", zap.Error(err))
			r.sendText(replyCtx, chatID, "Broadcast failed: could not list subscribers.")
			return nil
		}
		r.sendText(replyCtx, chatID, broadcastResultText(res))
		return nil
	})
}

func (r *Router) handleRefresh(ctx context.Context, from *tgbotapi.User, chatID int64) {
	if !r.isAdmin(from) {
		r.sendText(ctx, chatID, notAuthorizedText)
		return
	}
	if err := r.Timetables.Refresh(ctx, r.Clock.Now().In(r.Location)); err != nil {
		r.log.Warn("timetable refresh failed", zap.Error(err))
		r.sendText(ctx, chatID, "Refresh failed: "+err.Error())
		return
	}
	r.sendText(ctx, chatID, "Timetable reloaded ✅")
}
