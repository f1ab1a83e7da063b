package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Messenger is the outbound side the router replies through. Client implements it.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	Send(ctx context.Context, msg tgbotapi.Chattable) error
}

// Client is the outbound message transport. Sends are paced by a shared
// limiter to stay under Telegram's global bot rate limit.
//
// Callers queue for a slot until ctx is cancelled. Deadlines belong on the
// HTTP call (see NewSendBot): a deadline on ctx would make the limiter refuse
// any slot further out than the deadline, dropping messages when many
// reminders fire at the same instant.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewClient paces sends to perSecond messages (burst of the same size).
func NewClient(bot *tgbotapi.BotAPI, perSecond int) *Client {
	if perSecond <= 0 {
		perSecond = 25
	}
	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// NewSendBot returns a bot whose HTTP calls time out after timeout. It is kept
// apart from the long-polling bot, whose getUpdates requests outlive any
// sensible send timeout.
func NewSendBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
}

// SendMessage sends a plain text message to the given chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.Send(ctx, tgbotapi.NewMessage(chatID, text))
}

// Send sends a prepared message config (used for replies with keyboards).
func (c *Client) Send(ctx context.Context, msg tgbotapi.Chattable) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.bot.Send(msg)
	return err
}
