package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/cache"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
)

// Registry 管理月份的生命周期：DRAFT -> OPEN -> CLOSED -> PUBLISHED
type Registry struct {
	months MonthStore
	shifts ShiftStore
	users  UserDirectory
	cache  MonthCache
	mail   MailPublisher
	opts   Options
}

func NewRegistry(months MonthStore, shifts ShiftStore, users UserDirectory, cache MonthCache, mail MailPublisher, opts Options) *Registry {
	return &Registry{
		months: months,
		shifts: shifts,
		users:  users,
		cache:  cache,
		mail:   mail,
		opts:   opts,
	}
}

func (s *Registry) CreateShiftMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	m := &domain.ShiftMonth{
		YearMonth: ym.String(),
		Status:    domain.ShiftMonthDraft,
	}
	if err := s.months.CreateShiftMonth(ctx, m); err != nil {
		if repository.IsUniqueViolation(err, "shift_months_year_month_key") {
			return nil, fmt.Errorf("%w: %s 已经创建过了", domain.ErrInvalidArgument, ym)
		}
		return nil, err
	}

	return m, nil
}

func (s *Registry) GetShiftMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s 还没有创建", domain.ErrNotFound, ym)
		}
		return nil, err
	}

	return m, nil
}

func (s *Registry) ListShiftMonths(ctx context.Context) ([]*domain.ShiftMonth, error) {
	return s.months.GetAllShiftMonths(ctx)
}

// GetCurrentOpenMonth 返回当前开放提交的月份，没有时返回 ErrNotFound
// 缓存出错时直接回源数据库
func (s *Registry) GetCurrentOpenMonth(ctx context.Context) (*domain.ShiftMonth, error) {
	if s.cache != nil {
		m, err := s.cache.GetCurrentOpenMonth(ctx)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("读取当前开放月份缓存失败", "error", err)
		}
	}

	m, err := s.months.GetCurrentOpenShiftMonth(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: 当前没有开放提交的月份，请联系管理员", domain.ErrNotFound)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCurrentOpenMonth(ctx, m); err != nil {
			slog.Warn("写入当前开放月份缓存失败", "error", err)
		}
	}

	return m, nil
}

func (s *Registry) OpenMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	return s.transition(ctx, yearMonth, domain.ShiftMonthOpen)
}

func (s *Registry) CloseMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	return s.transition(ctx, yearMonth, domain.ShiftMonthClosed)
}

// Publish 把月份标记为已发布，不修改排班格子，然后给每个在职的人发一封通知邮件
func (s *Registry) Publish(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	m, err := s.transition(ctx, yearMonth, domain.ShiftMonthPublished)
	if err != nil {
		return nil, err
	}

	if s.mail != nil {
		s.notifyPublished(ctx, m)
	}

	return m, nil
}

func (s *Registry) transition(ctx context.Context, yearMonth string, next domain.ShiftMonthStatus) (*domain.ShiftMonth, error) {
	m, err := s.GetShiftMonth(ctx, yearMonth)
	if err != nil {
		return nil, err
	}

	if !m.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s 当前状态为 %s，不能变为 %s", domain.ErrForbidden, m.YearMonth, m.Status, next)
	}

	now := s.opts.now()
	m.Status = next
	switch next {
	case domain.ShiftMonthOpen:
		m.OpenAt = &now
		m.CloseAt = nil
	case domain.ShiftMonthClosed, domain.ShiftMonthPublished:
		if m.CloseAt == nil {
			m.CloseAt = &now
		}
	}

	if err := s.months.UpdateShiftMonthStatus(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrOpenMonthExists):
			return nil, fmt.Errorf("%w: 已有其他月份处于开放提交状态，请先关闭", domain.ErrForbidden)
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%w: %s 已被其他管理员修改，请重试", domain.ErrForbidden, m.YearMonth)
		default:
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateCurrentOpenMonth(ctx); err != nil {
			slog.Warn("清除当前开放月份缓存失败", "error", err)
		}
	}

	slog.Info("月份状态已更新", "yearMonth", m.YearMonth, "status", m.Status)

	return m, nil
}

func (s *Registry) notifyPublished(ctx context.Context, m *domain.ShiftMonth) {
	ym, _ := calendar.ParseYearMonth(m.YearMonth)

	shifts, err := s.shifts.GetShiftsInRange(ctx, ym.Start(), ym.End())
	if err != nil {
		slog.Error("无法读取排班表，未发送发布通知", "yearMonth", m.YearMonth, "error", err)
		return
	}

	days := make(map[int64][]int)
	for _, shift := range shifts {
		if shift.UserID != nil {
			days[*shift.UserID] = append(days[*shift.UserID], calendar.DayOf(shift.Date))
		}
	}

	users, err := s.users.GetActiveUsers(ctx)
	if err != nil {
		slog.Error("无法读取用户列表，未发送发布通知", "yearMonth", m.YearMonth, "error", err)
		return
	}

	for _, user := range users {
		msg := domain.MailMessage{
			Type: domain.MailTypeShiftPublished,
			To:   user.Email,
			Data: domain.ShiftPublishedMailData{
				Name:      user.Name,
				YearMonth: m.YearMonth,
				Days:      days[user.ID],
			},
		}
		if err := s.mail.PublishMail(ctx, msg); err != nil {
			slog.Error("发送发布通知失败", "yearMonth", m.YearMonth, "email", user.Email, "error", err)
		}
	}
}
