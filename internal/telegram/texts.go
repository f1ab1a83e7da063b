package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/prayer-bot/internal/broadcast"
	"github.com/ykvlv/prayer-bot/internal/domain"
)

// UI texts in English
const (
	subscribedText        = "✅ Subscribed. You will receive a reminder at every prayer time."
	alreadySubscribedText = "You are already subscribed. Use /stop to unsubscribe."
	unsubscribedText      = "⏸ Unsubscribed. You will no longer receive reminders. /start to come back."
	notSubscribedText     = "You are not subscribed. Use /start to subscribe."
	noUpcomingText        = "The upcoming timetable is not available yet. Please try again later."
	noTimetableText       = "The timetable for that day is not available yet."
	noPendingText         = "No more reminders scheduled for today."
	notAuthorizedText     = "You are not authorized!"
	broadcastStartedText  = "📣 Broadcast started. I will report when it is done."
	broadcastBusyText     = "A broadcast is already running. Try again when it is done."
	unknownCommandText    = "Unknown command. See /help."
	helpText              = "🕌 Prayer time reminders\n\n" +
		"/start – subscribe to reminders\n" +
		"/stop – unsubscribe\n" +
		"/next [prayer] – next prayer, or the next occurrence of one prayer\n" +
		"/today, /tomorrow – the day's timetable\n" +
		"/status – your next scheduled reminder"
)

func unknownEventText() string {
	return "Unknown prayer. Valid names: " + strings.Join(domain.EventNames(), ", ")
}

func nextText(occ domain.Occurrence, now time.Time, loc *time.Location) string {
	return fmt.Sprintf("The next %s is in %s (at %s)",
		occ.Event, domain.FormatRemaining(occ.At.Sub(now)), occ.At.In(loc).Format("15:04"))
}

func dayText(day domain.DailyTimetable, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🗓 ")
	b.WriteString(day.Date(loc).Format("Monday, 2 January 2006"))
	b.WriteString("\n")
	for _, occ := range day.Occurrences(loc) {
		fmt.Fprintf(&b, "\n• %-8s %s", occ.Event, occ.At.Format("15:04"))
	}
	return b.String()
}

func statusText(ev domain.Event, at time.Time) string {
	return fmt.Sprintf("Next reminder: %s at %s", ev, at.Format("15:04"))
}

func broadcastResultText(res broadcast.Result) string {
	return fmt.Sprintf("📣 Broadcast done: %d delivered, %d failed.", res.Sent, res.Failed)
}

// mainMenuKeyboard builds a reply keyboard; the toggle button follows the
// subscription state.
func mainMenuKeyboard(subscribed bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/stop"
	if !subscribed {
		toggle = "/start"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/next"),
			tgbotapi.NewKeyboardButton("/today"),
			tgbotapi.NewKeyboardButton("/tomorrow"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/status"),
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}
