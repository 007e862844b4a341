package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/scheduler"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/store"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/timeline"
)

// Router wires Telegram updates to handlers.
type Router struct {
	bot   *tgbotapi.BotAPI
	log   *zap.Logger
	repo  store.Repo
	sched *scheduler.Scheduler
	agg   *timeline.Aggregator
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, sched *scheduler.Scheduler, agg *timeline.Aggregator) *Router {
	return &Router{bot: bot, log: log, repo: repo, sched: sched, agg: agg}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		r.handleMessage(ctx, upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// Reply-keyboard buttons arrive as plain text.
	if !strings.HasPrefix(text, "/") {
		switch text {
		case "😴 Sleep":
			r.handleSleepStart(ctx, msg)
		case "🌅 Wake":
			r.handleWake(ctx, msg)
		case "📅 Calendar":
			r.handleCalendar(ctx, msg, "")
		case "⏰ Reminders":
			r.handleListReminders(ctx, msg)
		default:
			r.sendText(chatID, "I don't know that one. /help lists everything I can do.")
		}
		return
	}

	cmd, args := splitCommand(text)
	switch cmd {
	case "/start":
		r.handleStart(ctx, msg)
	case "/help":
		r.sendText(chatID, helpText)

	case "/child":
		r.handleCreateChild(ctx, msg, args)
	case "/children":
		r.handleListChildren(ctx, msg)
	case "/setchild":
		r.handleSetChild(ctx, msg, args)

	case "/sleep":
		r.handleSleepStart(ctx, msg)
	case "/wake":
		r.handleWake(ctx, msg)
	case "/feed":
		r.handleFeed(ctx, msg, args)
	case "/diaper":
		r.handleCareAction(ctx, msg, "diaper", args)
	case "/bath":
		r.handleCareAction(ctx, msg, "bath", args)
	case "/temp":
		r.handleTemperature(ctx, msg, args)
	case "/med":
		r.handleMedicine(ctx, msg, args)
	case "/doctor":
		r.handleDoctorVisit(ctx, msg, args)
	case "/growth":
		r.handleGrowth(ctx, msg, args)

	case "/calendar":
		r.handleCalendar(ctx, msg, args)

	case "/remind":
		r.handleRemind(ctx, msg, args)
	case "/reminders":
		r.handleListReminders(ctx, msg)
	case "/snooze":
		r.handleSnooze(ctx, msg, args)
	case "/delremind":
		r.handleDeleteReminder(ctx, msg, args)
	case "/editremind":
		r.handleEditReminder(ctx, msg, args)

	case "/family":
		r.handleCreateFamily(ctx, msg, args)
	case "/invite":
		r.handleInvite(ctx, msg)
	case "/join":
		r.handleJoin(ctx, msg, args)

	default:
		// Unknown input gets a gentle pointer, not an error dump.
		r.sendText(chatID, "I don't know that one. /help lists everything I can do.")
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	data := cb.Data
	switch {
	case strings.HasPrefix(data, "quality:"):
		r.handleQualityCallback(ctx, cb)
	default:
		// Unknown callback, acknowledge silently.
		_ = r.answerCallback(cb.ID, "")
	}
}

// splitCommand separates the leading command (with any @botname suffix
// stripped) from the rest of the text.
func splitCommand(text string) (cmd, args string) {
	if text == "" {
		return "", ""
	}
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if i := strings.Index(cmd, "@"); strings.HasPrefix(cmd, "/") && i > 0 {
		cmd = cmd[:i]
	}
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

func callbackQuality(recordID int64, quality string) string {
	return fmt.Sprintf("quality:%d:%s", recordID, quality)
}

// --- low-level send helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}
