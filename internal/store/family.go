package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// CreateFamily creates a family and adds the creator as its owner.
func (r *SQLiteRepo) CreateFamily(ctx context.Context, title string, ownerUserID int64) (*domain.Family, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO families (title, created_at) VALUES (?, ?)`,
		title, now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)`,
		id, ownerUserID, domain.RoleOwner,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.Family{ID: id, Title: title, CreatedAt: now}, nil
}

// FamilyByUser returns the family the user belongs to, domain.ErrNotFound
// when they have none. A user belongs to at most one family.
func (r *SQLiteRepo) FamilyByUser(ctx context.Context, userID int64) (*domain.Family, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT f.id, f.title, f.created_at
		FROM family_members m
		JOIN families f ON f.id = m.family_id
		WHERE m.user_id = ?
		LIMIT 1`, userID)

	var f domain.Family
	var created int64
	if err := row.Scan(&f.ID, &f.Title, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	f.CreatedAt = time.Unix(created, 0).UTC()
	return &f, nil
}

func (r *SQLiteRepo) CreateInvite(ctx context.Context, inv *domain.FamilyInvite) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO family_invites (family_id, code, created_at, expires_at, active)
		VALUES (?, ?, ?, ?, ?)`,
		inv.FamilyID, inv.Code, inv.CreatedAt.UTC().Unix(),
		toNullInt64(inv.ExpiresAt), boolToInt(inv.Active),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) InviteByCode(ctx context.Context, code string) (*domain.FamilyInvite, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, family_id, code, created_at, expires_at, active
		FROM family_invites WHERE code = ?`, code)

	var inv domain.FamilyInvite
	var created int64
	var expires sql.NullInt64
	var active int
	if err := row.Scan(&inv.ID, &inv.FamilyID, &inv.Code, &created, &expires, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.CreatedAt = time.Unix(created, 0).UTC()
	inv.ExpiresAt = fromNullInt64(expires)
	inv.Active = active != 0
	return &inv, nil
}

func (r *SQLiteRepo) AddFamilyMember(ctx context.Context, familyID, userID int64, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT(family_id, user_id) DO NOTHING`,
		familyID, userID, role,
	)
	return err
}
