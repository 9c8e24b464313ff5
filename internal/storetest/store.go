// Package storetest 提供测试用的内存存储，行为与 repository.Repository 保持一致
package storetest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
)

// Store 是 repository.Repository 的内存实现，每个方法持有同一把锁，相当于串行化的事务
// 找不到记录时返回 sql.ErrNoRows，唯一约束冲突时返回带约束名的 *pgconn.PgError
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID      int64
	months      map[int64]*domain.ShiftMonth
	requests    map[int64]*domain.ShiftRequest
	submissions map[int64]*domain.ShiftMonthSubmission
	shifts      map[int64]*domain.Shift
	users       map[int64]*domain.User
	invitations map[int64]*domain.Invitation

	// FailReplace 不为空时 ReplaceShiftRequests 在删除之后返回该错误，用来验证回滚
	FailReplace error
}

func NewStore(now func() time.Time) *Store {
	return &Store{
		now:         now,
		months:      make(map[int64]*domain.ShiftMonth),
		requests:    make(map[int64]*domain.ShiftRequest),
		submissions: make(map[int64]*domain.ShiftMonthSubmission),
		shifts:      make(map[int64]*domain.Shift),
		users:       make(map[int64]*domain.User),
		invitations: make(map[int64]*domain.Invitation),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) AddUser(name, email string, role domain.Role) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &domain.User{ID: s.id(), Name: name, Email: email, Role: role, CreatedAt: s.now(), Version: 1}
	s.users[u.ID] = u
	c := *u
	return &c
}

func (s *Store) SetPasswordHash(userID int64, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID].PasswordHash = hash
}

func (s *Store) SoftDeleteUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[userID].IsDeleted = true
}

// SetMonthStatus 绕过状态机直接修改月份状态，用来模拟并发的管理员操作
func (s *Store) SetMonthStatus(monthID int64, status domain.ShiftMonthStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.months[monthID].Status = status
}

func (s *Store) AddMonth(yearMonth string, status domain.ShiftMonthStatus) *domain.ShiftMonth {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	m := &domain.ShiftMonth{ID: s.id(), YearMonth: yearMonth, Status: status, CreatedAt: now, UpdatedAt: now, Version: 1}
	s.months[m.ID] = m
	return copyMonth(m)
}

func copyMonth(m *domain.ShiftMonth) *domain.ShiftMonth {
	c := *m
	return &c
}

func (s *Store) CreateShiftMonth(ctx context.Context, m *domain.ShiftMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.months {
		if existing.YearMonth == m.YearMonth {
			return &pgconn.PgError{Code: "23505", ConstraintName: "shift_months_year_month_key"}
		}
	}

	now := s.now()
	m.ID = s.id()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Version = 1
	s.months[m.ID] = copyMonth(m)
	return nil
}

func (s *Store) GetShiftMonthByYearMonth(ctx context.Context, yearMonth string) (*domain.ShiftMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.months {
		if m.YearMonth == yearMonth {
			return copyMonth(m), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) GetShiftMonthByID(ctx context.Context, id int64) (*domain.ShiftMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.months[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyMonth(m), nil
}

func (s *Store) GetAllShiftMonths(ctx context.Context) ([]*domain.ShiftMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	months := make([]*domain.ShiftMonth, 0, len(s.months))
	for _, m := range s.months {
		months = append(months, copyMonth(m))
	}
	sort.Slice(months, func(i, j int) bool { return months[i].YearMonth > months[j].YearMonth })
	return months, nil
}

func (s *Store) GetCurrentOpenShiftMonth(ctx context.Context) (*domain.ShiftMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.ShiftMonth
	for _, m := range s.months {
		if m.Status == domain.ShiftMonthOpen && (current == nil || m.UpdatedAt.After(current.UpdatedAt)) {
			current = m
		}
	}
	if current == nil {
		return nil, sql.ErrNoRows
	}
	return copyMonth(current), nil
}

func (s *Store) UpdateShiftMonthStatus(ctx context.Context, m *domain.ShiftMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Status == domain.ShiftMonthOpen {
		for _, other := range s.months {
			if other.ID != m.ID && other.Status == domain.ShiftMonthOpen {
				return repository.ErrOpenMonthExists
			}
		}
	}

	stored, ok := s.months[m.ID]
	if !ok || stored.Version != m.Version {
		return sql.ErrNoRows
	}

	m.UpdatedAt = s.now()
	m.Version++
	s.months[m.ID] = copyMonth(m)
	return nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (s *Store) ReplaceShiftRequests(ctx context.Context, userID, shiftMonthID int64, from, to time.Time, dates []time.Time) ([]*domain.ShiftRequest, *domain.ShiftMonthSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.months[shiftMonthID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if m.Status != domain.ShiftMonthOpen {
		return nil, nil, repository.ErrShiftMonthNotOpen
	}

	// 在副本上修改，全部成功后再替换，模拟事务
	staged := make(map[int64]*domain.ShiftRequest, len(s.requests))
	for id, req := range s.requests {
		if req.UserID == userID && inRange(req.Date, from, to) {
			continue
		}
		staged[id] = req
	}
	if s.FailReplace != nil {
		return nil, nil, s.FailReplace
	}

	now := s.now()
	created := make([]*domain.ShiftRequest, 0, len(dates))
	for _, date := range dates {
		for _, req := range staged {
			if req.UserID == userID && req.Date.Equal(date) {
				return nil, nil, &pgconn.PgError{Code: "23505", ConstraintName: "shift_requests_user_id_date_key"}
			}
		}
		req := &domain.ShiftRequest{ID: s.id(), UserID: userID, Date: date, CreatedAt: now}
		staged[req.ID] = req
		created = append(created, req)
	}

	var submission *domain.ShiftMonthSubmission
	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.ShiftMonthID == shiftMonthID {
			submission = sub
		}
	}
	if submission == nil {
		submission = &domain.ShiftMonthSubmission{ID: s.id(), UserID: userID, ShiftMonthID: shiftMonthID, CreatedAt: now}
		s.submissions[submission.ID] = submission
	}
	submission.UpdatedAt = now

	s.requests = staged
	c := *submission
	return created, &c, nil
}

func (s *Store) GetUserShiftRequests(ctx context.Context, userID int64, from, to time.Time) ([]*domain.ShiftRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ShiftRequest, 0)
	for _, req := range s.requests {
		if req.UserID == userID && inRange(req.Date, from, to) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetShiftRequestsInRange(ctx context.Context, from, to time.Time) ([]*domain.ShiftRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ShiftRequest, 0)
	for _, req := range s.requests {
		if inRange(req.Date, from, to) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Store) GetShiftMonthSubmission(ctx context.Context, userID, shiftMonthID int64) (*domain.ShiftMonthSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.ShiftMonthID == shiftMonthID {
			c := *sub
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) GetSubmissionsByShiftMonthID(ctx context.Context, shiftMonthID int64) ([]*domain.ShiftMonthSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ShiftMonthSubmission, 0)
	for _, sub := range s.submissions {
		if sub.ShiftMonthID == shiftMonthID {
			c := *sub
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) GetShiftsInRange(ctx context.Context, from, to time.Time) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Shift, 0)
	for _, shift := range s.shifts {
		if !inRange(shift.Date, from, to) {
			continue
		}
		c := *shift
		if c.UserID != nil {
			if u, ok := s.users[*c.UserID]; ok {
				c.User = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (s *Store) ReplaceShifts(ctx context.Context, shiftMonthID int64, cells []domain.ShiftCell) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.months[shiftMonthID]; !ok {
		return 0, sql.ErrNoRows
	}

	for id, shift := range s.shifts {
		if shift.ShiftMonthID == shiftMonthID {
			delete(s.shifts, id)
		}
	}

	now := s.now()
	for _, cell := range cells {
		shift := &domain.Shift{
			ID:           s.id(),
			ShiftMonthID: shiftMonthID,
			Date:         cell.Date,
			UserID:       cell.UserID,
			IsManual:     cell.IsManual,
			Slot:         cell.Slot,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.shifts[shift.ID] = shift
	}
	return len(cells), nil
}

func (s *Store) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *shift
	return &c, nil
}

func (s *Store) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.shifts[shift.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.UserID = shift.UserID
	stored.IsManual = shift.IsManual
	stored.UpdatedAt = s.now()
	shift.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeleteShiftsByShiftMonthID(ctx context.Context, shiftMonthID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.months[shiftMonthID]; !ok {
		return 0, sql.ErrNoRows
	}

	var deleted int64
	for id, shift := range s.shifts {
		if shift.ShiftMonthID == shiftMonthID {
			delete(s.shifts, id)
			deleted++
		}
	}
	return deleted, nil
}

// GetActiveUsers 按码位排序，和仓库里的 COLLATE "C" 一致
func (s *Store) GetActiveUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.User, 0)
	for _, u := range s.users {
		if !u.IsDeleted {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *u
	return &c, nil
}

