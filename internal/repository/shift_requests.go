package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// ErrShiftMonthNotOpen 表示在事务内再次确认时，月份已经不是 OPEN 状态
var ErrShiftMonthNotOpen = errors.New("该月份未开放提交")

// ReplaceShiftRequests 用 dates 整体替换某个用户在 [from, to) 内的希望日期，并更新提交记录
//
// 三步在同一个事务中完成：
//  1. upsert 提交记录，同时拿到 (user, month) 这一行的行锁，同一用户的并发提交会在这里排队
//  2. 删除该用户在这个月的所有希望日期
//  3. 插入新的希望日期
func (r *Repository) ReplaceShiftRequests(
	ctx context.Context,
	userID int64,
	shiftMonthID int64,
	from, to time.Time,
	dates []time.Time,
) ([]*domain.ShiftRequest, *domain.ShiftMonthSubmission, error) {
	requests := make([]*domain.ShiftRequest, 0, len(dates))
	submission := &domain.ShiftMonthSubmission{
		UserID:       userID,
		ShiftMonthID: shiftMonthID,
	}

	err := r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// 月份状态可能在校验之后被管理员修改，这里加共享锁再确认一次
		var status domain.ShiftMonthStatus
		query := `SELECT status FROM shift_months WHERE id = $1 FOR SHARE`
		if err := tx.QueryRowContext(ctx, query, shiftMonthID).Scan(&status); err != nil {
			return err
		}
		if status != domain.ShiftMonthOpen {
			return ErrShiftMonthNotOpen
		}

		query = `
			INSERT INTO shift_month_submissions (user_id, shift_month_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, shift_month_id)
			DO UPDATE SET updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		dst := []any{&submission.ID, &submission.CreatedAt, &submission.UpdatedAt}
		if err := tx.QueryRowContext(ctx, query, userID, shiftMonthID).Scan(dst...); err != nil {
			return err
		}

		query = `DELETE FROM shift_requests WHERE user_id = $1 AND date >= $2 AND date < $3`
		if _, err := tx.ExecContext(ctx, query, userID, from, to); err != nil {
			return err
		}

		for _, date := range dates {
			query := `
				INSERT INTO shift_requests (user_id, date)
				VALUES ($1, $2)
				RETURNING id, created_at
			`

			req := &domain.ShiftRequest{
				UserID: userID,
				Date:   date,
			}
			if err := tx.QueryRowContext(ctx, query, userID, date).Scan(&req.ID, &req.CreatedAt); err != nil {
				return err
			}
			requests = append(requests, req)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return requests, submission, nil
}

func (r *Repository) GetUserShiftRequests(ctx context.Context, userID int64, from, to time.Time) ([]*domain.ShiftRequest, error) {
	query := `
		SELECT id, user_id, date, created_at
		FROM shift_requests
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanShiftRequests(rows)
}

// GetShiftRequestsInRange 返回 [from, to) 内所有用户的希望日期，按用户和日期排序
func (r *Repository) GetShiftRequestsInRange(ctx context.Context, from, to time.Time) ([]*domain.ShiftRequest, error) {
	query := `
		SELECT id, user_id, date, created_at
		FROM shift_requests
		WHERE date >= $1 AND date < $2
		ORDER BY user_id ASC, date ASC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanShiftRequests(rows)
}

func scanShiftRequests(rows *sql.Rows) ([]*domain.ShiftRequest, error) {
	requests := make([]*domain.ShiftRequest, 0)
	for rows.Next() {
		req := &domain.ShiftRequest{}
		if err := rows.Scan(&req.ID, &req.UserID, &req.Date, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.Date = req.Date.UTC()
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *Repository) GetShiftMonthSubmission(ctx context.Context, userID int64, shiftMonthID int64) (*domain.ShiftMonthSubmission, error) {
	query := `
		SELECT id, created_at, updated_at
		FROM shift_month_submissions
		WHERE user_id = $1 AND shift_month_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	submission := &domain.ShiftMonthSubmission{
		UserID:       userID,
		ShiftMonthID: shiftMonthID,
	}

	dst := []any{&submission.ID, &submission.CreatedAt, &submission.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, userID, shiftMonthID).Scan(dst...); err != nil {
		return nil, err
	}

	return submission, nil
}

func (r *Repository) GetSubmissionsByShiftMonthID(ctx context.Context, shiftMonthID int64) ([]*domain.ShiftMonthSubmission, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM shift_month_submissions
		WHERE shift_month_id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftMonthID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]*domain.ShiftMonthSubmission, 0)
	for rows.Next() {
		s := &domain.ShiftMonthSubmission{ShiftMonthID: shiftMonthID}
		if err := rows.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return submissions, nil
}
