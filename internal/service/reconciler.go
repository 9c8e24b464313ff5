package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
)

// Reconciler 负责员工提交和重新提交希望上班的日期
type Reconciler struct {
	months   MonthStore
	requests RequestStore
	opts     Options
}

func NewReconciler(months MonthStore, requests RequestStore, opts Options) *Reconciler {
	return &Reconciler{
		months:   months,
		requests: requests,
		opts:     opts,
	}
}

type SubmitResult struct {
	Count         int                    `json:"count"`
	Dates         []int                  `json:"dates"`
	ShiftRequests []*domain.ShiftRequest `json:"shiftRequests"`
	SubmittedAt   time.Time              `json:"submittedAt"`
}

// FilterDates 去掉定休日并检查剩下的日期是否都在当月范围内，结果升序且不重复
// 定休日的日期直接丢弃，不算错误
func FilterDates(ym calendar.YearMonth, closure time.Weekday, dates []int) ([]int, error) {
	accepted := make([]int, 0, len(dates))
	for _, day := range dates {
		if day >= 1 && day <= ym.LastDay() && ym.Weekday(day) == closure {
			continue
		}
		if day < 1 || day > ym.LastDay() {
			return nil, fmt.Errorf("%w: %d 不是 %s 中的有效日期", domain.ErrInvalidArgument, day, ym)
		}
		accepted = append(accepted, day)
	}

	slices.Sort(accepted)
	return slices.Compact(accepted), nil
}

// inWindow 按配置的时区判断今天是否在提交期间内（两端都包含）
func (s *Reconciler) inWindow() bool {
	day := s.opts.now().In(s.opts.location()).Day()
	return day >= s.opts.WindowStart && day <= s.opts.WindowEnd
}

func (s *Reconciler) SubmitShiftRequests(ctx context.Context, userID int64, yearMonth string, dates []int) (*SubmitResult, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	accepted, err := FilterDates(ym, s.opts.ClosureWeekday, dates)
	if err != nil {
		return nil, err
	}

	if !s.inWindow() {
		return nil, fmt.Errorf("%w: 只能在每月 %d 日到 %d 日之间提交", domain.ErrForbidden, s.opts.WindowStart, s.opts.WindowEnd)
	}

	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s 还没有创建，请联系管理员", domain.ErrInvalidArgument, ym)
		}
		return nil, err
	}
	if m.Status != domain.ShiftMonthOpen {
		return nil, fmt.Errorf("%w: %s 当前状态为 %s，不能提交", domain.ErrForbidden, ym, m.Status)
	}

	dateTimes := make([]time.Time, len(accepted))
	for i, day := range accepted {
		dateTimes[i] = ym.Date(day)
	}

	requests, submission, err := s.requests.ReplaceShiftRequests(ctx, userID, m.ID, ym.Start(), ym.End(), dateTimes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShiftMonthNotOpen):
			return nil, fmt.Errorf("%w: %s 已停止提交", domain.ErrForbidden, ym)
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%w: %s 还没有创建，请联系管理员", domain.ErrInvalidArgument, ym)
		default:
			return nil, err
		}
	}

	slog.Info("已提交希望日期", "userID", userID, "yearMonth", ym.String(), "count", len(requests))

	return &SubmitResult{
		Count:         len(requests),
		Dates:         accepted,
		ShiftRequests: requests,
		SubmittedAt:   submission.UpdatedAt,
	}, nil
}

func (s *Reconciler) FindUserShiftRequests(ctx context.Context, userID int64, yearMonth string) ([]*domain.ShiftRequest, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	return s.requests.GetUserShiftRequests(ctx, userID, ym.Start(), ym.End())
}

// HasSubmitted 区分「提交了空列表」和「从未提交」，月份不存在时返回 false
func (s *Reconciler) HasSubmitted(ctx context.Context, userID int64, yearMonth string) (bool, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return false, err
	}

	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if _, err := s.requests.GetShiftMonthSubmission(ctx, userID, m.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
