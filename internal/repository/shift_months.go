package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

const shiftMonthColumns = `id, year_month, status, open_at, close_at, created_at, updated_at, version`

func scanShiftMonth(row interface{ Scan(...any) error }) (*domain.ShiftMonth, error) {
	m := &domain.ShiftMonth{}
	var openAt, closeAt sql.NullTime

	dst := []any{&m.ID, &m.YearMonth, &m.Status, &openAt, &closeAt, &m.CreatedAt, &m.UpdatedAt, &m.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if openAt.Valid {
		m.OpenAt = &openAt.Time
	}
	if closeAt.Valid {
		m.CloseAt = &closeAt.Time
	}

	return m, nil
}

func (r *Repository) CreateShiftMonth(ctx context.Context, m *domain.ShiftMonth) error {
	query := `
		INSERT INTO shift_months (year_month, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	dst := []any{&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, m.YearMonth, m.Status).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftMonthByYearMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	query := `SELECT ` + shiftMonthColumns + ` FROM shift_months WHERE year_month = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftMonth(r.dbpool.QueryRowContext(ctx, query, yearMonth))
}

func (r *Repository) GetShiftMonthByID(ctx context.Context, id int64) (*domain.ShiftMonth, error) {
	query := `SELECT ` + shiftMonthColumns + ` FROM shift_months WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftMonth(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetAllShiftMonths(ctx context.Context) ([]*domain.ShiftMonth, error) {
	query := `SELECT ` + shiftMonthColumns + ` FROM shift_months ORDER BY year_month DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := make([]*domain.ShiftMonth, 0)
	for rows.Next() {
		m, err := scanShiftMonth(rows)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return months, nil
}

// GetCurrentOpenShiftMonth 返回处于 OPEN 状态的月份
// 写入路径已经保证同一时间最多只有一个 OPEN 月份，按 updated_at 排序只是为了兼容历史数据
func (r *Repository) GetCurrentOpenShiftMonth(ctx context.Context) (*domain.ShiftMonth, error) {
	query := `
		SELECT ` + shiftMonthColumns + `
		FROM shift_months
		WHERE status = 'OPEN'
		ORDER BY updated_at DESC
		LIMIT 1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftMonth(r.dbpool.QueryRowContext(ctx, query))
}

// UpdateShiftMonthStatus 更新月份状态（乐观锁）
// 切换到 OPEN 时会在同一个事务里检查是否存在其他 OPEN 的月份
func (r *Repository) UpdateShiftMonthStatus(ctx context.Context, m *domain.ShiftMonth) error {
	return r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if m.Status == domain.ShiftMonthOpen {
			// 锁住所有 OPEN 的行，防止两个管理员同时开放不同的月份
			query := `SELECT id FROM shift_months WHERE status = 'OPEN' AND id <> $1 FOR UPDATE`

			var otherID int64
			err := tx.QueryRowContext(ctx, query, m.ID).Scan(&otherID)
			switch {
			case err == nil:
				return ErrOpenMonthExists
			case errors.Is(err, sql.ErrNoRows):
			default:
				return err
			}
		}

		query := `
			UPDATE shift_months
			SET
				status = $1,
				open_at = $2,
				close_at = $3,
				updated_at = NOW(),
				version = version + 1
			WHERE id = $4 AND version = $5
			RETURNING updated_at, version
		`

		args := []any{m.Status, m.OpenAt, m.CloseAt, m.ID, m.Version}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&m.UpdatedAt, &m.Version); err != nil {
			if IsUniqueViolation(err, "shift_months_single_open_idx") {
				return ErrOpenMonthExists
			}
			return err
		}

		return nil
	})
}
