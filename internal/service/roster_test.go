package service

import (
	"context"
	"testing"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/scheduler"
)

func TestSaveShiftsReplacesRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)
	u1 := f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)
	u2 := f.store.AddUser("鈴木", "suzuki@example.com", domain.RoleStaff)

	n, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{
		{Date: "2026-03-01", UserID: &u1.ID, IsManual: true, Slot: 1},
	})
	if err != nil || n != 1 {
		t.Fatalf("first save: %d, %v", n, err)
	}

	n, err = f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{
		{Date: "2026-03-04", UserID: &u2.ID, Slot: 2},
		{Date: "2026-03-04", Slot: 1},
		{Date: "2026-03-03", UserID: &u1.ID, Slot: 1},
	})
	if err != nil || n != 3 {
		t.Fatalf("second save: %d, %v", n, err)
	}

	view, err := f.roster.FindByMonth(ctx, "2026-03")
	if err != nil {
		t.Fatalf("FindByMonth: %v", err)
	}
	if len(view.Shifts) != 3 {
		t.Fatalf("expected 3 shifts, got %d", len(view.Shifts))
	}
	for _, shift := range view.Shifts {
		if calendar.DayOf(shift.Date) == 1 {
			t.Fatal("cell from the first save is still present")
		}
	}

	order := [][2]int{{3, 1}, {4, 1}, {4, 2}}
	for i, want := range order {
		got := view.Shifts[i]
		if calendar.DayOf(got.Date) != want[0] || int(got.Slot) != want[1] {
			t.Errorf("shift %d = (%d, %d), want %v", i, calendar.DayOf(got.Date), got.Slot, want)
		}
	}
	if view.Shifts[2].User == nil || view.Shifts[2].User.Name != "鈴木" {
		t.Errorf("assignee identity missing: %+v", view.Shifts[2].User)
	}
	if view.Shifts[1].User != nil {
		t.Errorf("open slot should have no assignee")
	}
}

func TestSaveShiftsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)

	_, err := f.roster.SaveShifts(ctx, "2026-04", []ShiftInput{{Date: "2026-04-01", Slot: 1}})
	assertErrorIs(t, err, domain.ErrNotFound)

	tests := []struct {
		name  string
		cells []ShiftInput
	}{
		{"bad date", []ShiftInput{{Date: "2026/03/03", Slot: 1}}},
		{"other month", []ShiftInput{{Date: "2026-04-01", Slot: 1}}},
		{"closure day", []ShiftInput{{Date: "2026-03-02", Slot: 1}}},
		{"slot zero", []ShiftInput{{Date: "2026-03-03", Slot: 0}}},
		{"duplicate slot", []ShiftInput{{Date: "2026-03-03", Slot: 1}, {Date: "2026-03-03", Slot: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.roster.SaveShifts(ctx, "2026-03", tt.cells)
			assertErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestFindByMonthUnprovisioned(t *testing.T) {
	f := newFixture(t)

	view, err := f.roster.FindByMonth(context.Background(), "2030-01")
	if err != nil {
		t.Fatalf("FindByMonth: %v", err)
	}
	if view.ShiftMonth != nil || len(view.Shifts) != 0 || view.Shifts == nil {
		t.Fatalf("expected empty roster and nil month, got %+v", view)
	}

	_, err = f.roster.FindByMonth(context.Background(), "2030-1")
	assertErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthPublished)
	u := f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)

	if _, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{{Date: "2026-03-03", Slot: 1}}); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}
	view, _ := f.roster.FindByMonth(ctx, "2026-03")
	id := view.Shifts[0].ID

	shift, err := f.roster.UpdateShift(ctx, id, &u.ID, true)
	if err != nil {
		t.Fatalf("UpdateShift on published month should be allowed by default: %v", err)
	}
	if shift.UserID == nil || *shift.UserID != u.ID || !shift.IsManual {
		t.Fatalf("unexpected shift %+v", shift)
	}

	_, err = f.roster.UpdateShift(ctx, 9999, nil, false)
	assertErrorIs(t, err, domain.ErrNotFound)
}

func TestShiftsRejectUnknownOrDeletedAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)
	u := f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)
	gone := f.store.AddUser("高橋", "takahashi@example.com", domain.RoleStaff)
	f.store.SoftDeleteUser(gone.ID)

	if _, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{{Date: "2026-03-03", UserID: &u.ID, Slot: 1}}); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	tests := []struct {
		name   string
		userID int64
	}{
		{"unknown user", 999999},
		{"deleted user", gone.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{
				{Date: "2026-03-04", UserID: &u.ID, Slot: 1},
				{Date: "2026-03-05", UserID: ptr(tt.userID), Slot: 1},
			})
			assertErrorIs(t, err, domain.ErrNotFound)

			view, _ := f.roster.FindByMonth(ctx, "2026-03")
			if len(view.Shifts) != 1 || calendar.DayOf(view.Shifts[0].Date) != 3 {
				t.Fatalf("roster changed after a rejected save: %+v", view.Shifts)
			}

			_, err = f.roster.UpdateShift(ctx, view.Shifts[0].ID, ptr(tt.userID), true)
			assertErrorIs(t, err, domain.ErrNotFound)

			view, _ = f.roster.FindByMonth(ctx, "2026-03")
			if got := view.Shifts[0].UserID; got == nil || *got != u.ID {
				t.Fatalf("assignee changed after a rejected update: %v", got)
			}
		})
	}
}

func TestLockPublishedRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)

	if _, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{{Date: "2026-03-03", Slot: 1}}); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}
	if _, err := f.registry.Publish(ctx, "2026-03"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	f.opts.LockPublishedRoster = true
	f.build()

	view, _ := f.roster.FindByMonth(ctx, "2026-03")

	_, err := f.roster.SaveShifts(ctx, "2026-03", nil)
	assertErrorIs(t, err, domain.ErrForbidden)
	_, err = f.roster.UpdateShift(ctx, view.Shifts[0].ID, nil, false)
	assertErrorIs(t, err, domain.ErrForbidden)
	_, err = f.roster.DeleteByMonth(ctx, "2026-03")
	assertErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteByMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)

	_, err := f.roster.DeleteByMonth(ctx, "2026-04")
	assertErrorIs(t, err, domain.ErrNotFound)

	if _, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{
		{Date: "2026-03-03", Slot: 1},
		{Date: "2026-03-03", Slot: 2},
	}); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	n, err := f.roster.DeleteByMonth(ctx, "2026-03")
	if err != nil || n != 2 {
		t.Fatalf("DeleteByMonth = %d, %v", n, err)
	}
	view, _ := f.roster.FindByMonth(ctx, "2026-03")
	if len(view.Shifts) != 0 {
		t.Fatalf("expected empty roster, got %d", len(view.Shifts))
	}
}

func TestGenerateShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthOpen)
	u1 := f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)
	u2 := f.store.AddUser("鈴木", "suzuki@example.com", domain.RoleStaff)

	if _, err := f.reconciler.SubmitShiftRequests(ctx, u1.ID, "2026-03", []int{3, 4}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.reconciler.SubmitShiftRequests(ctx, u2.ID, "2026-03", []int{3, 4}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	cells, err := f.roster.GenerateShifts(ctx, "2026-03", GenerateRequest{
		Requirements: map[string]int{"2026-03-03": 2, "2026-03-04": 1},
		Pinned:       []ShiftInput{{Date: "2026-03-04", UserID: &u2.ID, Slot: 1}},
	})
	if err != nil {
		t.Fatalf("GenerateShifts: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	for _, c := range cells {
		if calendar.DayOf(c.Date) == 4 && (c.UserID == nil || *c.UserID != u2.ID || !c.IsManual) {
			t.Errorf("pinned cell not preserved: %+v", c)
		}
		if calendar.DayOf(c.Date) == 3 && c.UserID == nil {
			t.Errorf("day 3 slot %d should be filled", c.Slot)
		}
	}

	view, _ := f.roster.FindByMonth(ctx, "2026-03")
	if len(view.Shifts) != 0 {
		t.Fatal("generation must not persist")
	}
}

func TestGenerateShiftsWithPresetAndManualStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)
	f.roster = NewRoster(f.store, f.store, f.store, f.store, scheduler.ManualOnly{}, f.opts)

	cells, err := f.roster.GenerateShifts(ctx, "2026-03", GenerateRequest{
		Preset:       &scheduler.RequirementPreset{Default: 1},
		Requirements: map[string]int{"2026-03-03": 0},
	})
	if err != nil {
		t.Fatalf("GenerateShifts: %v", err)
	}
	// 31 天去掉 5 个周一和被覆盖为 0 的 3 日
	if len(cells) != 25 {
		t.Fatalf("expected 25 cells, got %d", len(cells))
	}
	for _, c := range cells {
		if c.UserID != nil {
			t.Fatalf("manual strategy must leave slots open: %+v", c)
		}
	}
}

func TestGenerateShiftsRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthClosed)

	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{"closure requirement", GenerateRequest{Requirements: map[string]int{"2026-03-02": 1}}},
		{"other month", GenerateRequest{Requirements: map[string]int{"2026-04-02": 1}}},
		{"count above cap", GenerateRequest{Requirements: map[string]int{"2026-03-03": 100000000}}},
		{"pinned without user", GenerateRequest{Pinned: []ShiftInput{{Date: "2026-03-03", Slot: 1}}}},
		{"pinned same user twice", GenerateRequest{Pinned: []ShiftInput{
			{Date: "2026-03-03", UserID: ptr(int64(1)), Slot: 1},
			{Date: "2026-03-03", UserID: ptr(int64(1)), Slot: 2},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.roster.GenerateShifts(ctx, "2026-03", tt.req)
			assertErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}

	_, err := f.roster.GenerateShifts(ctx, "2026-04", GenerateRequest{})
	assertErrorIs(t, err, domain.ErrNotFound)
}
