package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// GetShiftsInRange 返回 [from, to) 内的排班格子以及负责人的基本信息，按 (date, slot) 排序
func (r *Repository) GetShiftsInRange(ctx context.Context, from, to time.Time) ([]*domain.Shift, error) {
	query := `
		SELECT
			s.id,
			s.shift_month_id,
			s.date,
			s.user_id,
			s.is_manual,
			s.slot,
			s.created_at,
			s.updated_at,
			u.name,
			u.email
		FROM shifts s
		LEFT JOIN users u ON s.user_id = u.id
		WHERE s.date >= $1 AND s.date < $2
		ORDER BY s.date ASC, s.slot ASC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		var row struct {
			userID    sql.NullInt64
			userName  sql.NullString
			userEmail sql.NullString
		}

		shift := &domain.Shift{}
		dst := []any{
			&shift.ID,
			&shift.ShiftMonthID,
			&shift.Date,
			&row.userID,
			&shift.IsManual,
			&shift.Slot,
			&shift.CreatedAt,
			&shift.UpdatedAt,
			&row.userName,
			&row.userEmail,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		shift.Date = shift.Date.UTC()
		if row.userID.Valid {
			id := row.userID.Int64
			shift.UserID = &id
			shift.User = &domain.UserSummary{
				ID:    id,
				Name:  row.userName.String,
				Email: row.userEmail.String,
			}
		}

		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// ReplaceShifts 在一个事务中删除该月所有排班格子并按 cells 重新创建
func (r *Repository) ReplaceShifts(ctx context.Context, shiftMonthID int64, cells []domain.ShiftCell) (int, error) {
	err := r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// 锁住月份，同一个月的并发保存按顺序执行
		query := `SELECT id FROM shift_months WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, query, shiftMonthID).Scan(&shiftMonthID); err != nil {
			return err
		}

		query = `DELETE FROM shifts WHERE shift_month_id = $1`
		if _, err := tx.ExecContext(ctx, query, shiftMonthID); err != nil {
			return err
		}

		for _, cell := range cells {
			query := `
				INSERT INTO shifts (shift_month_id, date, user_id, is_manual, slot)
				VALUES ($1, $2, $3, $4, $5)
			`

			args := []any{shiftMonthID, cell.Date, cell.UserID, cell.IsManual, cell.Slot}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(cells), nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT shift_month_id, date, user_id, is_manual, slot, created_at, updated_at
		FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift := &domain.Shift{ID: id}
	var userID sql.NullInt64

	dst := []any{&shift.ShiftMonthID, &shift.Date, &userID, &shift.IsManual, &shift.Slot, &shift.CreatedAt, &shift.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	shift.Date = shift.Date.UTC()
	if userID.Valid {
		shift.UserID = &userID.Int64
	}

	return shift, nil
}

// UpdateShift 直接更新单个格子的负责人和手动标记
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			user_id = $1,
			is_manual = $2,
			updated_at = NOW()
		WHERE id = $3
		RETURNING shift_month_id, date, slot, created_at, updated_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	dst := []any{&shift.ShiftMonthID, &shift.Date, &shift.Slot, &shift.CreatedAt, &shift.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, shift.UserID, shift.IsManual, shift.ID).Scan(dst...); err != nil {
		return err
	}
	shift.Date = shift.Date.UTC()

	return nil
}

func (r *Repository) DeleteShiftsByShiftMonthID(ctx context.Context, shiftMonthID int64) (int64, error) {
	var deleted int64

	err := r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `SELECT id FROM shift_months WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, query, shiftMonthID).Scan(&shiftMonthID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE shift_month_id = $1`, shiftMonthID)
		if err != nil {
			return err
		}

		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
