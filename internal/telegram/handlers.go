package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

const (
	defaultCalendarHours = 24
	maxCalendarHours     = 24 * 7
	calendarCap          = 15
)

// calendarKinds is the fixed order kinds appear in on timestamp ties.
var calendarKinds = []domain.EventKind{
	domain.KindSleep, domain.KindFeeding, domain.KindHealth,
	domain.KindDiaper, domain.KindBath, domain.KindCare,
}

// ensureUser upserts the sender's account row.
func (r *Router) ensureUser(ctx context.Context, from *tgbotapi.User) (*domain.User, error) {
	return r.repo.EnsureUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
}

// activeScope resolves the caller's active child and, when they belong to a
// family, widens the scope to it.
func (r *Router) activeScope(ctx context.Context, userID int64) (domain.Scope, *domain.Child, error) {
	child, err := r.repo.ResolveActiveChild(ctx, userID)
	if err != nil {
		return domain.Scope{}, nil, err
	}
	scope := domain.Scope{ChildID: child.ID}
	if fam, err := r.repo.FamilyByUser(ctx, userID); err == nil {
		scope.FamilyID = fam.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Scope{}, nil, err
	}
	return scope, child, nil
}

func (r *Router) replyUserError(chatID int64, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.sendText(chatID, "🔍 Nothing found for that.")
	case errors.Is(err, domain.ErrForbidden):
		r.sendText(chatID, "🚫 That one isn't yours to change.")
	case errors.Is(err, domain.ErrInvalidInput):
		r.sendText(chatID, "🤔 "+fallback)
	default:
		r.sendText(chatID, "Something went wrong, please try again later.")
	}
}

// --- profile ---

func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := r.ensureUser(ctx, msg.From); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(msg.Chat.ID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendWithMarkup(msg.Chat.ID, startText, mainMenuKeyboard())
}

func (r *Router) handleCreateChild(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	if args == "" {
		r.sendText(chatID, "Usage: /child <name> [YYYY-MM-DD]")
		return
	}
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Profile error, please try again.")
		return
	}

	name := args
	var birth *time.Time
	if fields := strings.Fields(args); len(fields) > 1 {
		if d, err := domain.ParseBirthDate(fields[len(fields)-1]); err == nil {
			birth = &d
			name = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	child := &domain.Child{UserID: u.ID, Name: name, BirthDate: birth}
	id, err := r.repo.CreateChild(ctx, child)
	if err != nil {
		r.log.Error("create child failed", zap.Error(err))
		r.sendText(chatID, "Could not save the profile, please try again.")
		return
	}
	if err := r.repo.SetActiveChild(ctx, u.ID, id); err != nil {
		r.log.Warn("set active child failed", zap.Error(err))
	}
	r.sendText(chatID, fmt.Sprintf("👶 %s added and selected as active.", name))
}

func (r *Router) handleListChildren(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	children, err := r.repo.ListChildren(ctx, u.ID)
	if err != nil {
		r.log.Error("list children failed", zap.Error(err))
		r.sendText(chatID, "Could not load profiles.")
		return
	}
	if len(children) == 0 {
		r.sendText(chatID, noChildText)
		return
	}

	active, _ := r.repo.ResolveActiveChild(ctx, u.ID)
	var b strings.Builder
	b.WriteString("👶 Children:\n")
	for i, c := range children {
		mark := "  "
		if active != nil && active.ID == c.ID {
			mark = "▸ "
		}
		fmt.Fprintf(&b, "%s%d. %s", mark, i+1, c.Name)
		if c.BirthDate != nil {
			fmt.Fprintf(&b, " (%s)", c.BirthDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n/setchild <n> switches the active one.")
	r.sendText(chatID, b.String())
}

func (r *Router) handleSetChild(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 {
		r.sendText(chatID, "Usage: /setchild <number from /children>")
		return
	}
	children, err := r.repo.ListChildren(ctx, u.ID)
	if err != nil || n > len(children) {
		r.sendText(chatID, "No child with that number; see /children.")
		return
	}
	child := children[n-1]
	if err := r.repo.SetActiveChild(ctx, u.ID, child.ID); err != nil {
		r.replyUserError(chatID, err, "Could not switch the active child.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("▸ Active child: %s", child.Name))
}

// --- sleep ---

func (r *Router) handleSleepStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	scope, child, err := r.activeScope(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, noChildText)
			return
		}
		r.log.Error("resolve scope failed", zap.Error(err))
		r.sendText(chatID, "Could not resolve the active child.")
		return
	}

	_, err = r.repo.StartSleep(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC())
	if errors.Is(err, domain.ErrInvalidInput) {
		r.sendText(chatID, "Sleep is already being tracked. Tap 🌅 Wake when the child wakes up.")
		return
	}
	if err != nil {
		r.log.Error("start sleep failed", zap.Error(err))
		r.sendText(chatID, "Could not record sleep start.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("😴 Sleep started for %s. Tap 🌅 Wake later.", child.Name))
}

func (r *Router) handleWake(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	scope, child, err := r.activeScope(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, noChildText)
			return
		}
		r.sendText(chatID, "Could not resolve the active child.")
		return
	}

	open, err := r.repo.OpenSleep(ctx, child.ID)
	if err != nil {
		r.log.Error("open sleep lookup failed", zap.Error(err))
		r.sendText(chatID, "Could not look up the sleep record.")
		return
	}
	if open == nil {
		r.sendText(chatID, "No sleep in progress. Tap 😴 Sleep first.")
		return
	}

	rec, err := r.repo.EndSleep(ctx, open.ID, scope.FamilyID, u.ID, time.Now().UTC(), "")
	if err != nil {
		r.replyUserError(chatID, err, "Could not close the sleep record.")
		return
	}
	text := fmt.Sprintf("🌅 %s woke up after %dm. How was the sleep?", child.Name, *rec.DurationMin)
	r.sendWithMarkup(chatID, text, sleepQualityKeyboard(rec.ID))
}

func (r *Router) handleQualityCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// quality:<recordID>:<good|ok|bad>
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		_ = r.answerCallback(cb.ID, "")
		return
	}
	recordID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		_ = r.answerCallback(cb.ID, "")
		return
	}
	quality := parts[2]
	switch quality {
	case "good", "ok", "bad":
	default:
		_ = r.answerCallback(cb.ID, "")
		return
	}

	if err := r.repo.SetSleepQuality(ctx, recordID, quality); err != nil {
		r.log.Warn("set sleep quality failed", zap.Int64("recordID", recordID), zap.Error(err))
		_ = r.answerCallback(cb.ID, "Could not save that.")
		return
	}
	_ = r.answerCallback(cb.ID, "Noted 👌")
}

// --- feeding / health / care ---

func (r *Router) handleFeed(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.Fields(args)
	if len(fields) == 0 {
		r.sendText(chatID, "Usage: /feed <breast|formula|water|solid> [amount] [note]")
		return
	}
	kind := strings.ToLower(fields[0])
	switch kind {
	case "breast", "formula", "water", "solid":
	default:
		r.sendText(chatID, "Feeding kind must be breast, formula, water or solid.")
		return
	}

	p := domain.FeedingPayload{FeedKind: kind}
	rest := fields[1:]
	if len(rest) > 0 {
		if amount, err := strconv.Atoi(rest[0]); err == nil && amount > 0 {
			// Liquids in ml, solids in grams.
			if kind == "solid" {
				p.AmountG = &amount
			} else {
				p.AmountML = &amount
			}
			rest = rest[1:]
		}
	}
	p.Note = strings.Join(rest, " ")

	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddFeeding(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), p)
	}, "🍼 Feeding saved.")
}

func (r *Router) handleTemperature(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	temp, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil || temp < 30 || temp > 45 {
		r.sendText(chatID, "Usage: /temp <°C>, e.g. /temp 37.2")
		return
	}
	p := domain.HealthPayload{RecordKind: "temperature", TemperatureC: &temp}
	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddHealth(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), p)
	}, fmt.Sprintf("🌡 %.1f°C recorded.", temp))
}

func (r *Router) handleMedicine(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.Fields(args)
	if len(fields) < 2 {
		r.sendText(chatID, "Usage: /med <name> <dose mg>, e.g. /med paracetamol 120")
		return
	}
	dose, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || dose <= 0 {
		r.sendText(chatID, "The last argument must be the dose in mg.")
		return
	}
	name := strings.Join(fields[:len(fields)-1], " ")
	p := domain.HealthPayload{RecordKind: "medicine", Medicine: name, DoseMG: &dose}
	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddHealth(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), p)
	}, fmt.Sprintf("💊 %s %d mg recorded.", name, dose))
}

func (r *Router) handleDoctorVisit(ctx context.Context, msg *tgbotapi.Message, args string) {
	p := domain.HealthPayload{RecordKind: "doctor_visit", Note: args}
	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddHealth(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), p)
	}, "🩺 Doctor visit recorded.")
}

func (r *Router) handleGrowth(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	fields := strings.Fields(args)
	if len(fields) != 2 {
		r.sendText(chatID, "Usage: /growth <height cm> <weight g>, e.g. /growth 68 7400")
		return
	}
	height, err1 := strconv.Atoi(fields[0])
	weight, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || height <= 0 || weight <= 0 {
		r.sendText(chatID, "Height and weight must be positive numbers.")
		return
	}
	p := domain.HealthPayload{RecordKind: "growth", HeightCM: &height, WeightG: &weight}
	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddHealth(ctx, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), p)
	}, fmt.Sprintf("📏 %d cm, %d g recorded.", height, weight))
}

func (r *Router) handleCareAction(ctx context.Context, msg *tgbotapi.Message, kind string, note string) {
	eventKind := domain.EventKind(kind)
	confirm := map[string]string{"diaper": "🧷 Diaper change recorded.", "bath": "🛁 Bath recorded."}[kind]
	r.logActivity(ctx, msg, func(scope domain.Scope, child *domain.Child, u *domain.User) error {
		return r.repo.AddCareEvent(ctx, eventKind, child.ID, scope.FamilyID, u.ID, time.Now().UTC(), note)
	}, confirm)
}

// logActivity runs the boilerplate shared by every single-row write: resolve
// user and scope, persist, confirm.
func (r *Router) logActivity(ctx context.Context, msg *tgbotapi.Message, write func(domain.Scope, *domain.Child, *domain.User) error, confirm string) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	scope, child, err := r.activeScope(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, noChildText)
			return
		}
		r.log.Error("resolve scope failed", zap.Error(err))
		r.sendText(chatID, "Could not resolve the active child.")
		return
	}
	if err := write(scope, child, u); err != nil {
		r.log.Error("activity write failed", zap.Error(err))
		r.sendText(chatID, "Could not save that, please try again.")
		return
	}
	r.sendText(chatID, confirm)
}

// --- calendar ---

func (r *Router) handleCalendar(ctx context.Context, msg *tgbotapi.Message, args string) {
	chatID := msg.Chat.ID
	hours := defaultCalendarHours
	if args != "" {
		if h, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && h > 0 && h <= maxCalendarHours {
			hours = h
		}
	}

	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	scope, child, err := r.activeScope(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, noChildText)
			return
		}
		r.sendText(chatID, "Could not resolve the active child.")
		return
	}

	now := time.Now().UTC()
	entries, err := r.agg.Build(ctx, scope, domain.LastHours(now, hours), calendarCap, calendarKinds)
	if err != nil {
		r.log.Error("build timeline failed", zap.Error(err))
		r.sendText(chatID, "Could not build the calendar, please try again.")
		return
	}
	if len(entries) == 0 {
		r.sendText(chatID, fmt.Sprintf("📅 Nothing logged for %s in the last %dh yet.", child.Name, hours))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s — last %dh:\n", child.Name, hours)
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s  %s\n", e.At.Format("02.01 15:04"), e.Text)
	}
	r.sendText(chatID, b.String())
}
