package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// Notifier delivers reminder texts through the Bot API with a per-send
// timeout. It implements scheduler.Sender.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	timeout time.Duration
}

// NewNotifier wraps the bot with a bounded sender.
func NewNotifier(bot *tgbotapi.BotAPI, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{bot: bot, timeout: timeout}
}

// Send delivers one message. A timed-out send counts as transient; API
// rejections are classified so the scheduler can tell a dead chat from a
// hiccup.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()

	select {
	case <-ctx.Done():
		return &domain.DeliveryError{Permanent: false, Err: ctx.Err()}
	case err := <-done:
		if err == nil {
			return nil
		}
		return classifyDelivery(err)
	}
}

// classifyDelivery maps Bot API errors onto the transient/permanent split.
func classifyDelivery(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 403:
			// Bot blocked or kicked from the chat.
			return &domain.DeliveryError{Permanent: true, Err: err}
		case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "chat not found"):
			return &domain.DeliveryError{Permanent: true, Err: err}
		case apiErr.Code == 429:
			// Rate limited; retry next cycle.
			return &domain.DeliveryError{Permanent: false, Err: err}
		}
	}
	// Network issues and everything unrecognized: retry.
	return &domain.DeliveryError{Permanent: false, Err: err}
}
