package telegram

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/prayer-bot/internal/broadcast"
	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/trigger"
)

// Subscriptions handles /start and /stop.
type Subscriptions interface {
	Subscribe(ctx context.Context, chatID int64) error
	Unsubscribe(ctx context.Context, chatID int64) error
	Active(ctx context.Context, chatID int64) (bool, error)
}

// Resolver answers timetable queries.
type Resolver interface {
	NextEvent(ctx context.Context, now time.Time, requested *domain.Event) (domain.Occurrence, error)
	Day(ctx context.Context, now time.Time, offset int) (domain.DailyTimetable, error)
}

// Triggers exposes the pending reminders of a chat.
type Triggers interface {
	NextUnfired(subscriberID int64) (trigger.Trigger, bool)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (broadcast.Result, error)
}

type Refresher interface {
	Refresh(ctx context.Context, date time.Time) error
}

// Deps groups the router's collaborators.
type Deps struct {
	Client        Messenger
	Subscriptions Subscriptions
	Resolver      Resolver
	Triggers      Triggers
	Broadcaster   Broadcaster
	Timetables    Refresher
	Clock         clock.Clock
	Location      *time.Location
	AdminID       int64
}

// Router wires Telegram updates to handlers.
type Router struct {
	Deps
	log *zap.Logger

	// Broadcasts run off the update loop, one at a time.
	background   errgroup.Group
	broadcasting atomic.Bool
}

// NewRouter creates a new Telegram router.
func NewRouter(d Deps, log *zap.Logger) *Router {
	return &Router{Deps: d, log: log}
}

// HandleUpdate routes a single update to the matching command handler.
// Only private chats are served.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		r.handleStart(ctx, chatID)
	case "stop":
		r.handleStop(ctx, chatID)
	case "next":
		r.handleNext(ctx, chatID, args)
	case "today":
		r.handleDay(ctx, chatID, 0)
	case "tomorrow":
		r.handleDay(ctx, chatID, 1)
	case "status":
		r.handleStatus(ctx, chatID)
	case "help":
		r.sendText(ctx, chatID, helpText)
	case "broadcast":
		r.handleBroadcast(ctx, msg.From, chatID, args)
	case "refresh":
		r.handleRefresh(ctx, msg.From, chatID)
	default:
		r.sendText(ctx, chatID, unknownCommandText)
	}
}

// Wait blocks until a running broadcast finishes or ctx is done.
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = r.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) isAdmin(u *tgbotapi.User) bool {
	return u != nil && r.AdminID != 0 && u.ID == r.AdminID
}
