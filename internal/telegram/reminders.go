package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

const remindUsage = "Usage:\n" +
	"• /remind in <dur> <text> — once (e.g. /remind in 45m check the oven)\n" +
	"• /remind every <dur> <text> — repeating (e.g. /remind every 3h feeding)"

func (r *Router) handleRemind(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		r.sendText(chatID, remindUsage)
		return
	}
	mode, durStr, text := strings.ToLower(fields[0]), fields[1], fields[2]

	dur, err := domain.ParseDurationHuman(durStr)
	if err != nil {
		r.sendText(chatID, "I can't read that duration. Try 45m, 2h or 1h30m.")
		return
	}

	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}

	now := time.Now().UTC()
	var created *domain.Reminder
	switch mode {
	case "in":
		created, err = r.sched.Create(ctx, u.ID, chatID, text, now.Add(dur), nil)
	case "every":
		created, err = r.sched.Create(ctx, u.ID, chatID, text, now.Add(dur), &dur)
	default:
		r.sendText(chatID, remindUsage)
		return
	}
	if err != nil {
		r.replyUserError(chatID, err, "The reminder text cannot be empty.")
		return
	}

	when := created.NextFireAt.Format("02.01 15:04")
	if created.Recurring() {
		r.sendText(chatID, fmt.Sprintf("⏰ Every %s starting %s UTC: %s",
			domain.FormatDuration(*created.Interval), when, created.Text))
		return
	}
	r.sendText(chatID, fmt.Sprintf("⏰ At %s UTC: %s", when, created.Text))
}

func (r *Router) handleListReminders(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	reminders, err := r.sched.List(ctx, u.ID)
	if err != nil {
		r.log.Error("list reminders failed", zap.Error(err))
		r.sendText(chatID, "Could not load reminders.")
		return
	}
	if len(reminders) == 0 {
		r.sendText(chatID, "No active reminders. Set one with /remind.")
		return
	}

	var b strings.Builder
	b.WriteString("⏰ Active reminders:\n")
	for i, rem := range reminders {
		fmt.Fprintf(&b, "%d. %s — %s UTC", i+1, rem.Text, rem.NextFireAt.Format("02.01 15:04"))
		if rem.Recurring() {
			fmt.Fprintf(&b, ", every %s", domain.FormatDuration(*rem.Interval))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n/snooze <n> <dur> delays one, /delremind <n> removes it.")
	r.sendText(chatID, b.String())
}

// reminderByOrdinal maps a 1-based position in the /reminders list onto the
// underlying reminder.
func (r *Router) reminderByOrdinal(ctx context.Context, userID int64, arg string) (*domain.Reminder, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return nil, domain.ErrInvalidInput
	}
	reminders, err := r.sched.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n > len(reminders) {
		return nil, domain.ErrNotFound
	}
	return &reminders[n-1], nil
}

func (r *Router) handleSnooze(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.Fields(args)
	if len(fields) != 2 {
		r.sendText(chatID, "Usage: /snooze <n> <dur>, e.g. /snooze 1 15m")
		return
	}
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}

	rem, err := r.reminderByOrdinal(ctx, u.ID, fields[0])
	if err != nil {
		r.replyUserError(chatID, err, "The first argument must be a number from /reminders.")
		return
	}
	dur, err := domain.ParseDurationHuman(fields[1])
	if err != nil {
		r.sendText(chatID, "I can't read that duration. Try 15m or 1h.")
		return
	}

	snoozed, err := r.sched.Snooze(ctx, u.ID, rem.ID, dur)
	if err != nil {
		r.replyUserError(chatID, err, "Could not snooze that reminder.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("😴 Snoozed until %s UTC: %s",
		snoozed.NextFireAt.Format("02.01 15:04"), snoozed.Text))
}

// handleEditReminder rewrites the text of an existing reminder, keeping its
// schedule and interval.
func (r *Router) handleEditReminder(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.SplitN(args, " ", 2)
	if len(fields) != 2 {
		r.sendText(chatID, "Usage: /editremind <n> <new text>")
		return
	}
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	rem, err := r.reminderByOrdinal(ctx, u.ID, fields[0])
	if err != nil {
		r.replyUserError(chatID, err, "The first argument must be a number from /reminders.")
		return
	}
	if err := r.sched.Retarget(ctx, u.ID, rem.ID, fields[1], rem.Interval); err != nil {
		r.replyUserError(chatID, err, "The new text cannot be empty.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("✏️ Updated: %s", strings.TrimSpace(fields[1])))
}

func (r *Router) handleDeleteReminder(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	rem, err := r.reminderByOrdinal(ctx, u.ID, args)
	if err != nil {
		r.replyUserError(chatID, err, "Usage: /delremind <number from /reminders>")
		return
	}
	if err := r.sched.Disable(ctx, u.ID, rem.ID); err != nil {
		r.replyUserError(chatID, err, "Could not remove that reminder.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("🗑 Removed: %s", rem.Text))
}
