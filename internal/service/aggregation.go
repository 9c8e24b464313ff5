package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
)

// Aggregation 给管理员查看所有人的提交情况，只读
type Aggregation struct {
	months   MonthStore
	requests RequestStore
	users    UserDirectory
}

func NewAggregation(months MonthStore, requests RequestStore, users UserDirectory) *Aggregation {
	return &Aggregation{
		months:   months,
		requests: requests,
		users:    users,
	}
}

type UserSubmission struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	HasSubmitted bool   `json:"hasSubmitted"`
	Dates        []int  `json:"dates"`
}

type SubmissionReport struct {
	YearMonth         string            `json:"yearMonth"`
	ShiftMonth        *MonthRef         `json:"shiftMonth"`
	Users             []*UserSubmission `json:"users"`
	SubmittedCount    int               `json:"submittedCount"`
	NotSubmittedCount int               `json:"notSubmittedCount"`
}

// BuildSubmissionReport 的用户顺序与 GetActiveUsers 一致（按姓名升序）
// 日期取 UTC 的「日」
func (s *Aggregation) BuildSubmissionReport(ctx context.Context, yearMonth string) (*SubmissionReport, error) {
	ym, err := calendar.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	report := &SubmissionReport{
		YearMonth: ym.String(),
		Users:     make([]*UserSubmission, 0),
	}

	users, err := s.users.GetActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	submitted := make(map[int64]bool)
	m, err := s.months.GetShiftMonthByYearMonth(ctx, ym.String())
	switch {
	case err == nil:
		report.ShiftMonth = &MonthRef{ID: m.ID, Status: m.Status}

		submissions, err := s.requests.GetSubmissionsByShiftMonthID(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, sub := range submissions {
			submitted[sub.UserID] = true
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	requests, err := s.requests.GetShiftRequestsInRange(ctx, ym.Start(), ym.End())
	if err != nil {
		return nil, err
	}
	days := make(map[int64][]int)
	for _, req := range requests {
		days[req.UserID] = append(days[req.UserID], calendar.DayOf(req.Date))
	}

	for _, user := range users {
		row := &UserSubmission{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			HasSubmitted: submitted[user.ID],
			Dates:        days[user.ID],
		}
		if row.Dates == nil {
			row.Dates = make([]int, 0)
		}
		slices.Sort(row.Dates)

		if row.HasSubmitted {
			report.SubmittedCount++
		} else {
			report.NotSubmittedCount++
		}
		report.Users = append(report.Users, row)
	}

	return report, nil
}
