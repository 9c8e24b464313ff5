package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// CreateInvitation 删除该邮箱之前所有未使用的邀请，然后插入新的邀请
func (r *Repository) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	return r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `DELETE FROM invitations WHERE email = $1 AND used = FALSE`
		if _, err := tx.ExecContext(ctx, query, inv.Email); err != nil {
			return err
		}

		query = `
			INSERT INTO invitations (token, email, name, role, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, used, created_at
		`
		args := []any{inv.Token, inv.Email, inv.Name, inv.Role, inv.ExpiresAt}
		return tx.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &inv.Used, &inv.CreatedAt)
	})
}

func (r *Repository) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	query := `
		SELECT id, email, name, role, used, expires_at, created_at
		FROM invitations WHERE token = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	inv := &domain.Invitation{Token: token}
	dst := []any{&inv.ID, &inv.Email, &inv.Name, &inv.Role, &inv.Used, &inv.ExpiresAt, &inv.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, token).Scan(dst...); err != nil {
		return nil, err
	}

	return inv, nil
}

// AcceptInvitation 创建用户并把邀请标记为已使用
// 邀请已被使用时返回 sql.ErrNoRows
func (r *Repository) AcceptInvitation(ctx context.Context, inv *domain.Invitation, user *domain.User) error {
	return r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `UPDATE invitations SET used = TRUE WHERE id = $1 AND used = FALSE RETURNING used`
		if err := tx.QueryRowContext(ctx, query, inv.ID).Scan(&inv.Used); err != nil {
			return err
		}

		query = `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, is_deleted, created_at, version
		`
		args := []any{user.Name, user.Email, user.PasswordHash, user.Role}
		return tx.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsDeleted, &user.CreatedAt, &user.Version)
	})
}
