package service

import (
	"context"
	"slices"
	"testing"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

func TestBuildSubmissionReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthOpen)
	suzuki := f.store.AddUser("鈴木", "suzuki@example.com", domain.RoleStaff)
	abe := f.store.AddUser("Abe", "abe@example.com", domain.RoleStaff)
	empty := f.store.AddUser("Chiba", "chiba@example.com", domain.RoleStaff)
	gone := f.store.AddUser("Baba", "baba@example.com", domain.RoleStaff)
	f.store.SoftDeleteUser(gone.ID)

	if _, err := f.reconciler.SubmitShiftRequests(ctx, suzuki.ID, "2026-03", []int{31, 5, 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.reconciler.SubmitShiftRequests(ctx, empty.ID, "2026-03", []int{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.reconciler.SubmitShiftRequests(ctx, gone.ID, "2026-03", []int{3}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	report, err := f.aggregation.BuildSubmissionReport(ctx, "2026-03")
	if err != nil {
		t.Fatalf("BuildSubmissionReport: %v", err)
	}

	if report.ShiftMonth == nil || report.ShiftMonth.Status != domain.ShiftMonthOpen {
		t.Fatalf("unexpected month %+v", report.ShiftMonth)
	}
	if len(report.Users) != 3 {
		t.Fatalf("deleted users must be excluded, got %d rows", len(report.Users))
	}

	names := []string{report.Users[0].Name, report.Users[1].Name, report.Users[2].Name}
	if !slices.Equal(names, []string{"Abe", "Chiba", "鈴木"}) {
		t.Fatalf("users not ordered by name: %v", names)
	}

	byID := make(map[int64]*UserSubmission)
	for _, u := range report.Users {
		byID[u.ID] = u
	}
	if row := byID[suzuki.ID]; !row.HasSubmitted || !slices.Equal(row.Dates, []int{1, 5, 31}) {
		t.Errorf("suzuki row = %+v", row)
	}
	if row := byID[empty.ID]; !row.HasSubmitted || len(row.Dates) != 0 {
		t.Errorf("empty submission row = %+v", row)
	}
	if row := byID[abe.ID]; row.HasSubmitted || row.Dates == nil {
		t.Errorf("abe row = %+v", row)
	}
	if report.SubmittedCount != 2 || report.NotSubmittedCount != 1 {
		t.Errorf("totals = %d / %d", report.SubmittedCount, report.NotSubmittedCount)
	}
}

func TestBuildSubmissionReportUnprovisioned(t *testing.T) {
	f := newFixture(t)
	f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)

	report, err := f.aggregation.BuildSubmissionReport(context.Background(), "2027-02")
	if err != nil {
		t.Fatalf("BuildSubmissionReport: %v", err)
	}
	if report.ShiftMonth != nil {
		t.Fatalf("expected nil month, got %+v", report.ShiftMonth)
	}
	if len(report.Users) != 1 || report.Users[0].HasSubmitted {
		t.Fatalf("unexpected rows %+v", report.Users)
	}

	_, err = f.aggregation.BuildSubmissionReport(context.Background(), "2027-2")
	assertErrorIs(t, err, domain.ErrInvalidArgument)
}
