package service

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// 下面的接口都由 *repository.Repository 实现，测试中使用内存实现替代
// 找不到记录时返回 sql.ErrNoRows

type MonthStore interface {
	CreateShiftMonth(ctx context.Context, m *domain.ShiftMonth) error
	GetShiftMonthByYearMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error)
	GetShiftMonthByID(ctx context.Context, id int64) (*domain.ShiftMonth, error)
	GetAllShiftMonths(ctx context.Context) ([]*domain.ShiftMonth, error)
	GetCurrentOpenShiftMonth(ctx context.Context) (*domain.ShiftMonth, error)
	UpdateShiftMonthStatus(ctx context.Context, m *domain.ShiftMonth) error
}

type RequestStore interface {
	ReplaceShiftRequests(ctx context.Context, userID, shiftMonthID int64, from, to time.Time, dates []time.Time) ([]*domain.ShiftRequest, *domain.ShiftMonthSubmission, error)
	GetUserShiftRequests(ctx context.Context, userID int64, from, to time.Time) ([]*domain.ShiftRequest, error)
	GetShiftRequestsInRange(ctx context.Context, from, to time.Time) ([]*domain.ShiftRequest, error)
	GetShiftMonthSubmission(ctx context.Context, userID, shiftMonthID int64) (*domain.ShiftMonthSubmission, error)
	GetSubmissionsByShiftMonthID(ctx context.Context, shiftMonthID int64) ([]*domain.ShiftMonthSubmission, error)
}

type ShiftStore interface {
	GetShiftsInRange(ctx context.Context, from, to time.Time) ([]*domain.Shift, error)
	ReplaceShifts(ctx context.Context, shiftMonthID int64, cells []domain.ShiftCell) (int, error)
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	DeleteShiftsByShiftMonthID(ctx context.Context, shiftMonthID int64) (int64, error)
}

type UserDirectory interface {
	GetActiveUsers(ctx context.Context) ([]*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type MonthCache interface {
	GetCurrentOpenMonth(ctx context.Context) (*domain.ShiftMonth, error)
	SetCurrentOpenMonth(ctx context.Context, m *domain.ShiftMonth) error
	InvalidateCurrentOpenMonth(ctx context.Context) error
}

type MailPublisher interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

// Options 是各个服务共用的业务规则
type Options struct {
	Location            *time.Location
	ClosureWeekday      time.Weekday
	WindowStart         int
	WindowEnd           int
	LockPublishedRoster bool
	MaxStaffPerDay      int // 0 时使用 scheduler.DefaultMaxPerDay
	Now                 func() time.Time
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Location:            loc,
		ClosureWeekday:      cfg.ClosureWeekday(),
		WindowStart:         cfg.Shift.SubmissionWindowStart,
		WindowEnd:           cfg.Shift.SubmissionWindowEnd,
		LockPublishedRoster: cfg.Shift.LockPublishedRoster,
		MaxStaffPerDay:      cfg.Shift.MaxStaffPerDay,
		Now:                 time.Now,
	}, nil
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}
