package service

import (
	"context"
	"testing"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

func TestCreateShiftMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.registry.CreateShiftMonth(ctx, "2026-03")
	if err != nil {
		t.Fatalf("CreateShiftMonth: %v", err)
	}
	if m.Status != domain.ShiftMonthDraft || m.YearMonth != "2026-03" {
		t.Fatalf("unexpected month %+v", m)
	}

	_, err = f.registry.CreateShiftMonth(ctx, "2026-03")
	assertErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.registry.CreateShiftMonth(ctx, "2026/03")
	assertErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGetCurrentOpenMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.GetCurrentOpenMonth(ctx)
	assertErrorIs(t, err, domain.ErrNotFound)

	f.store.AddMonth("2026-03", domain.ShiftMonthDraft)
	if _, err := f.registry.OpenMonth(ctx, "2026-03"); err != nil {
		t.Fatalf("OpenMonth: %v", err)
	}

	m, err := f.registry.GetCurrentOpenMonth(ctx)
	if err != nil {
		t.Fatalf("GetCurrentOpenMonth: %v", err)
	}
	if m.YearMonth != "2026-03" || m.OpenAt == nil {
		t.Fatalf("unexpected month %+v", m)
	}
	if f.cache.CurrentMonth() == nil {
		t.Fatal("current month should be cached")
	}

	if _, err := f.registry.CloseMonth(ctx, "2026-03"); err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}
	if f.cache.CurrentMonth() != nil {
		t.Fatal("cache must be invalidated after a status change")
	}
	_, err = f.registry.GetCurrentOpenMonth(ctx)
	assertErrorIs(t, err, domain.ErrNotFound)
}

func TestOnlyOneMonthOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddMonth("2026-03", domain.ShiftMonthDraft)
	f.store.AddMonth("2026-04", domain.ShiftMonthDraft)

	if _, err := f.registry.OpenMonth(ctx, "2026-03"); err != nil {
		t.Fatalf("open march: %v", err)
	}

	_, err := f.registry.OpenMonth(ctx, "2026-04")
	assertErrorIs(t, err, domain.ErrForbidden)

	if _, err := f.registry.CloseMonth(ctx, "2026-03"); err != nil {
		t.Fatalf("close march: %v", err)
	}
	if _, err := f.registry.OpenMonth(ctx, "2026-04"); err != nil {
		t.Fatalf("open april after closing march: %v", err)
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from domain.ShiftMonthStatus
		op   string
		ok   bool
	}{
		{domain.ShiftMonthDraft, "open", true},
		{domain.ShiftMonthDraft, "close", false},
		{domain.ShiftMonthOpen, "open", false},
		{domain.ShiftMonthOpen, "close", true},
		{domain.ShiftMonthClosed, "open", true},
		{domain.ShiftMonthPublished, "open", false},
		{domain.ShiftMonthPublished, "close", false},
		{domain.ShiftMonthPublished, "publish", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+tt.op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.store.AddMonth("2026-03", tt.from)

			var err error
			switch tt.op {
			case "open":
				_, err = f.registry.OpenMonth(ctx, "2026-03")
			case "close":
				_, err = f.registry.CloseMonth(ctx, "2026-03")
			case "publish":
				_, err = f.registry.Publish(ctx, "2026-03")
			}

			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertErrorIs(t, err, domain.ErrForbidden)
		})
	}
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Publish(ctx, "2026-03")
	assertErrorIs(t, err, domain.ErrNotFound)

	_, err = f.registry.Publish(ctx, "2026-3")
	assertErrorIs(t, err, domain.ErrInvalidArgument)

	f.store.AddMonth("2026-03", domain.ShiftMonthOpen)
	sato := f.store.AddUser("佐藤", "sato@example.com", domain.RoleStaff)
	f.store.AddUser("鈴木", "suzuki@example.com", domain.RoleStaff)

	if _, err := f.roster.SaveShifts(ctx, "2026-03", []ShiftInput{
		{Date: "2026-03-03", UserID: &sato.ID, Slot: 1},
		{Date: "2026-03-05", UserID: &sato.ID, Slot: 1},
		{Date: "2026-03-05", Slot: 2},
	}); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	m, err := f.registry.Publish(ctx, "2026-03")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if m.Status != domain.ShiftMonthPublished || m.CloseAt == nil {
		t.Fatalf("unexpected month %+v", m)
	}

	view, err := f.roster.FindByMonth(ctx, "2026-03")
	if err != nil {
		t.Fatalf("FindByMonth: %v", err)
	}
	if view.ShiftMonth == nil || view.ShiftMonth.Status != domain.ShiftMonthPublished {
		t.Fatalf("roster should report PUBLISHED, got %+v", view.ShiftMonth)
	}
	if len(view.Shifts) != 3 {
		t.Fatalf("publish must not touch shifts, got %d", len(view.Shifts))
	}

	if len(f.mail.Sent()) != 2 {
		t.Fatalf("expected 2 mails, got %d", len(f.mail.Sent()))
	}
	for _, msg := range f.mail.Sent() {
		if msg.Type != domain.MailTypeShiftPublished {
			t.Errorf("unexpected mail type %q", msg.Type)
		}
		data := msg.Data.(domain.ShiftPublishedMailData)
		if msg.To == "sato@example.com" && len(data.Days) != 2 {
			t.Errorf("sato should be told about 2 days, got %v", data.Days)
		}
		if msg.To == "suzuki@example.com" && len(data.Days) != 0 {
			t.Errorf("suzuki has no shifts, got %v", data.Days)
		}
	}
}

func TestListShiftMonths(t *testing.T) {
	f := newFixture(t)
	f.store.AddMonth("2026-03", domain.ShiftMonthDraft)
	f.store.AddMonth("2026-05", domain.ShiftMonthDraft)
	f.store.AddMonth("2026-04", domain.ShiftMonthDraft)

	months, err := f.registry.ListShiftMonths(context.Background())
	if err != nil {
		t.Fatalf("ListShiftMonths: %v", err)
	}
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}
	if months[0].YearMonth != "2026-05" || months[2].YearMonth != "2026-03" {
		t.Fatalf("unexpected order: %v, %v, %v", months[0].YearMonth, months[1].YearMonth, months[2].YearMonth)
	}
}
