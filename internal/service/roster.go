package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/scheduler"
)

// Roster 保存某个月具体的排班格子
type Roster struct {
	months    MonthStore
	shifts    ShiftStore
	requests  RequestStore
	users     UserDirectory
	generator scheduler.Generator
	opts      Options
}

func NewRoster(months MonthStore, shifts ShiftStore, requests RequestStore, users UserDirectory, generator scheduler.Generator, opts Options) *Roster {
	return &Roster{
		months:    months,
		shifts:    shifts,
		requests:  requests,
		users:     users,
		generator: generator,
		opts:      opts,
	}
}

// ShiftInput 是管理员提交的一个格子，Date 为 YYYY-MM-DD
type ShiftInput struct {
	Date     string `json:"date"`
	UserID   *int64 `json:"userID"`
	IsManual bool   `json:"isManual"`
	Slot     int32  `json:"slot"`
}

type MonthRef struct {
	ID     int64                   `json:"id"`
	Status domain.ShiftMonthStatus `json:"status"`
}

type RosterView struct {
	YearMonth  string          `json:"yearMonth"`
	ShiftMonth *MonthRef       `json:"shiftMonth"` // 月份还没有创建时为 null
	Shifts     []*domain.Shift `json:"shifts"`
}

// FindByMonth 月份不存在时返回空列表而不是错误
func (s *Roster) FindByMonth(ctx context.Context, yearMonth string) (*RosterView, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	view := &RosterView{
		YearMonth: ym.String(),
		Shifts:    make([]*domain.Shift, 0),
	}

	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return view, nil
		}
		return nil, err
	}
	view.ShiftMonth = &MonthRef{ID: m.ID, Status: m.Status}

	shifts, err := s.shifts.GetShiftsInRange(ctx, ym.Start(), ym.End())
	if err != nil {
		return nil, err
	}
	view.Shifts = shifts

	return view, nil
}

func (s *Roster) SaveShifts(ctx context.Context, yearMonth string, inputs []ShiftInput) (int, error) {
	ym, m, err := s.editableMonth(ctx, yearMonth)
	if err != nil {
		return 0, err
	}

	cells, err := s.toCells(ym, inputs)
	if err != nil {
		return 0, err
	}

	assignees := make([]*int64, 0, len(cells))
	for _, c := range cells {
		assignees = append(assignees, c.UserID)
	}
	if err := s.checkAssignees(ctx, assignees...); err != nil {
		return 0, err
	}

	count, err := s.shifts.ReplaceShifts(ctx, m.ID, cells)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s 还没有创建", domain.ErrNotFound, ym)
		}
		return 0, err
	}

	slog.Info("已保存排班表", "yearMonth", ym.String(), "count", count)

	return count, nil
}

func (s *Roster) UpdateShift(ctx context.Context, id int64, userID *int64, isManual bool) (*domain.Shift, error) {
	shift, err := s.shifts.GetShiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: 排班格子 %d 不存在", domain.ErrNotFound, id)
		}
		return nil, err
	}

	if s.opts.LockPublishedRoster {
		m, err := s.months.GetShiftMonthByID(ctx, shift.ShiftMonthID)
		if err != nil {
			return nil, err
		}
		if err := s.checkLocked(m); err != nil {
			return nil, err
		}
	}

	if err := s.checkAssignees(ctx, userID); err != nil {
		return nil, err
	}

	shift.UserID = userID
	shift.IsManual = isManual
	if err := s.shifts.UpdateShift(ctx, shift); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: 排班格子 %d 不存在", domain.ErrNotFound, id)
		}
		return nil, err
	}

	return shift, nil
}

func (s *Roster) DeleteByMonth(ctx context.Context, yearMonth string) (int64, error) {
	ym, m, err := s.editableMonth(ctx, yearMonth)
	if err != nil {
		return 0, err
	}

	deleted, err := s.shifts.DeleteShiftsByShiftMonthID(ctx, m.ID)
	if err != nil {
		return 0, err
	}

	slog.Info("已删除排班表", "yearMonth", ym.String(), "count", deleted)

	return deleted, nil
}

type GenerateRequest struct {
	Preset       *scheduler.RequirementPreset `json:"preset"`
	Requirements map[string]int               `json:"requirements"` // YYYY-MM-DD -> 人数，会覆盖 preset
	Pinned       []ShiftInput                 `json:"pinned"`
}

// GenerateShifts 调用排班算法生成一份排班表并检查结果，不会保存
func (s *Roster) GenerateShifts(ctx context.Context, yearMonth string, req GenerateRequest) ([]domain.ShiftCell, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	if _, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s 还没有创建", domain.ErrNotFound, ym)
		}
		return nil, err
	}

	in := &scheduler.Input{
		YearMonth:      ym,
		Requirements:   make(map[int]int),
		ClosureWeekday: s.opts.ClosureWeekday,
		MaxPerDay:      s.opts.MaxStaffPerDay,
	}

	if req.Preset != nil {
		in.Requirements, err = req.Preset.Expand(ym, s.opts.ClosureWeekday)
		if err != nil {
			return nil, err
		}
	}
	for dateStr, n := range req.Requirements {
		date, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		if !ym.Contains(date) {
			return nil, fmt.Errorf("%w: %s 不在 %s 内", domain.ErrInvalidArgument, dateStr, ym)
		}
		in.Requirements[date.Day()] = n
	}

	for _, p := range req.Pinned {
		if p.UserID == nil {
			return nil, fmt.Errorf("%w: 手动指定的格子必须有负责人", domain.ErrInvalidArgument)
		}
		date, err := calendar.ParseDate(p.Date)
		if err != nil {
			return nil, err
		}
		in.Pinned = append(in.Pinned, scheduler.PinnedAssignment{Date: date, UserID: *p.UserID, Slot: p.Slot})
	}

	if err := scheduler.ValidateInput(in); err != nil {
		return nil, err
	}

	in.Preferences, err = s.preferences(ctx, ym)
	if err != nil {
		return nil, err
	}

	cells, err := s.generator.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Validate(in, cells); err != nil {
		return nil, err
	}

	return cells, nil
}

// preferences 只统计在职员工的希望日期
func (s *Roster) preferences(ctx context.Context, ym calendar.YearMonth) (map[int64][]int, error) {
	users, err := s.users.GetActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[int64]bool, len(users))
	for _, user := range users {
		active[user.ID] = true
	}

	requests, err := s.requests.GetShiftRequestsInRange(ctx, ym.Start(), ym.End())
	if err != nil {
		return nil, err
	}

	prefs := make(map[int64][]int)
	for _, req := range requests {
		if active[req.UserID] {
			prefs[req.UserID] = append(prefs[req.UserID], calendar.DayOf(req.Date))
		}
	}

	return prefs, nil
}

func (s *Roster) editableMonth(ctx context.Context, yearMonth string) (calendar.YearMonth, *domain.ShiftMonth, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return ym, nil, err
	}

	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ym, nil, fmt.Errorf("%w: %s 还没有创建", domain.ErrNotFound, ym)
		}
		return ym, nil, err
	}

	if err := s.checkLocked(m); err != nil {
		return ym, nil, err
	}

	return ym, m, nil
}

// checkAssignees 要求被安排的用户存在且没有被删除，nil 表示空着的格子
func (s *Roster) checkAssignees(ctx context.Context, userIDs ...*int64) error {
	checked := make(map[int64]bool)
	for _, id := range userIDs {
		if id == nil || checked[*id] {
			continue
		}
		checked[*id] = true

		u, err := s.users.GetUserByID(ctx, *id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: 用户 %d 不存在", domain.ErrNotFound, *id)
			}
			return err
		}
		if u.IsDeleted {
			return fmt.Errorf("%w: 用户 %d 已被删除", domain.ErrNotFound, *id)
		}
	}
	return nil
}

func (s *Roster) checkLocked(m *domain.ShiftMonth) error {
	if s.opts.LockPublishedRoster && m.Status == domain.ShiftMonthPublished {
		return fmt.Errorf("%w: %s 已发布，排班表不能再修改", domain.ErrForbidden, m.YearMonth)
	}
	return nil
}

func (s *Roster) toCells(ym calendar.YearMonth, inputs []ShiftInput) ([]domain.ShiftCell, error) {
	type key struct {
		date time.Time
		slot int32
	}
	seen := make(map[key]bool, len(inputs))

	cells := make([]domain.ShiftCell, 0, len(inputs))
	for _, in := range inputs {
		date, err := calendar.ParseDate(in.Date)
		if err != nil {
			return nil, err
		}
		if !ym.Contains(date) {
			return nil, fmt.Errorf("%w: %s 不在 %s 内", domain.ErrInvalidArgument, in.Date, ym)
		}
		if date.Weekday() == s.opts.ClosureWeekday {
			return nil, fmt.Errorf("%w: %s 是定休日，不能排班", domain.ErrInvalidArgument, in.Date)
		}
		if in.Slot < 1 {
			return nil, fmt.Errorf("%w: slot 必须从 1 开始", domain.ErrInvalidArgument)
		}

		k := key{date: date, slot: in.Slot}
		if seen[k] {
			return nil, fmt.Errorf("%w: %s 的第 %d 个位置重复", domain.ErrInvalidArgument, in.Date, in.Slot)
		}
		seen[k] = true

		cells = append(cells, domain.ShiftCell{
			Date:     date,
			UserID:   in.UserID,
			IsManual: in.IsManual,
			Slot:     in.Slot,
		})
	}

	return cells, nil
}
