package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

const inviteTTL = 48 * time.Hour

func (r *Router) handleCreateFamily(ctx context.Context, msg *tgbotapi.Message, title string) {
	chatID := msg.Chat.ID
	if title == "" {
		r.sendText(chatID, "Usage: /family <title>, e.g. /family The Ivanovs")
		return
	}
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}

	if _, err := r.repo.FamilyByUser(ctx, u.ID); err == nil {
		r.sendText(chatID, "You are already in a family. /invite shares access to it.")
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		r.log.Error("family lookup failed", zap.Error(err))
		r.sendText(chatID, "Could not check your family, please try again.")
		return
	}

	fam, err := r.repo.CreateFamily(ctx, title, u.ID)
	if err != nil {
		r.log.Error("create family failed", zap.Error(err))
		r.sendText(chatID, "Could not create the family, please try again.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("👪 Family %q created. /invite generates a join code.", fam.Title))
}

func (r *Router) handleInvite(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}
	fam, err := r.repo.FamilyByUser(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, "You have no family yet. /family <title> creates one.")
			return
		}
		r.log.Error("family lookup failed", zap.Error(err))
		r.sendText(chatID, "Could not check your family, please try again.")
		return
	}

	now := time.Now().UTC()
	expires := now.Add(inviteTTL)
	inv := &domain.FamilyInvite{
		FamilyID:  fam.ID,
		Code:      uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: &expires,
		Active:    true,
	}
	if _, err := r.repo.CreateInvite(ctx, inv); err != nil {
		r.log.Error("create invite failed", zap.Error(err))
		r.sendText(chatID, "Could not create an invite, please try again.")
		return
	}
	r.sendText(chatID, fmt.Sprintf(
		"🔑 Invite code (valid 48h):\n%s\n\nThe other person sends me:\n/join %s",
		inv.Code, inv.Code))
}

func (r *Router) handleJoin(ctx context.Context, msg *tgbotapi.Message, code string) {
	chatID := msg.Chat.ID
	if code == "" {
		r.sendText(chatID, "Usage: /join <invite code>")
		return
	}
	u, err := r.ensureUser(ctx, msg.From)
	if err != nil {
		r.sendText(chatID, "Profile error, please try again.")
		return
	}

	inv, err := r.repo.InviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, "That code doesn't match any invite.")
			return
		}
		r.log.Error("invite lookup failed", zap.Error(err))
		r.sendText(chatID, "Could not check the code, please try again.")
		return
	}
	if !inv.Usable(time.Now().UTC()) {
		r.sendText(chatID, "That invite has expired. Ask for a fresh one.")
		return
	}

	if err := r.repo.AddFamilyMember(ctx, inv.FamilyID, u.ID, domain.RoleParent); err != nil {
		r.log.Error("add family member failed", zap.Error(err))
		r.sendText(chatID, "Could not join the family, please try again.")
		return
	}
	r.sendText(chatID, "👪 Welcome to the family! /calendar now shows everyone's entries.")
}
