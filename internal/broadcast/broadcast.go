// Package broadcast sends an operator message to every active subscriber.
package broadcast

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

type Lister interface {
	ListActive(ctx context.Context) ([]domain.Subscriber, error)
}

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Result summarises one broadcast run.
type Result struct {
	ID     string
	Sent   int
	Failed int
}

type Coordinator struct {
	subs   Lister
	sender Sender
	log    *zap.Logger
}

func New(subs Lister, sender Sender, log *zap.Logger) *Coordinator {
	return &Coordinator{subs: subs, sender: sender, log: log}
}

// Broadcast delivers text to each active subscriber in turn. Per-recipient
// failures are counted and logged; only a failure to list subscribers is
// returned.
func (c *Coordinator) Broadcast(ctx context.Context, text string) (Result, error) {
	res := Result{ID: uuid.NewString()}
	subs, err := c.subs.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("list active subscribers: %w", err)
	}
	log := c.log.With(zap.String("broadcast", res.ID))
	log.Info("broadcast started", zap.Int("recipients", len(subs)))

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			log.Warn("broadcast interrupted", zap.Error(err))
			break
		}
		if err := c.sender.SendMessage(ctx, sub.ChatID, text); err != nil {
			res.Failed++
			log.Warn("broadcast delivery failed",
				zap.Int64("chatID", sub.ChatID),
				zap.Error(fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)),
			)
			continue
		}
		res.Sent++
	}
	log.Info("broadcast finished", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	return res, nil
}
