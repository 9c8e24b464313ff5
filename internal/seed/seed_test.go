package seed

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/export"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/storetest"
)

var jst = time.FixedZone("JST", 9*60*60)

func baseOptions() service.Options {
	return service.Options{
		Location:       jst,
		ClosureWeekday: time.Monday,
		WindowStart:    15,
		WindowEnd:      20,
		// 不在提交期间内，只有 PinnedOptions 之后才能提交
		Now: func() time.Time { return time.Date(2026, 5, 2, 9, 0, 0, 0, jst) },
	}
}

func mustYearMonth(t *testing.T, s string) calendar.YearMonth {
	t.Helper()
	ym, err := calendar.ParseYearMonth(s)
	if err != nil {
		t.Fatal(err)
	}
	return ym
}

func TestPinnedOptions(t *testing.T) {
	opts := PinnedOptions(baseOptions(), mustYearMonth(t, "2026-01"))

	want := time.Date(2025, 12, 15, 12, 0, 0, 0, jst)
	if got := opts.Now(); !got.Equal(want) {
		t.Fatalf("pinned to %v, want %v", got, want)
	}
	if opts.ClosureWeekday != time.Monday || opts.WindowEnd != 20 {
		t.Fatalf("other options should be kept: %+v", opts)
	}
}

func TestUsersAndRandomSubmissions(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(time.Now)
	store.AddMonth("2026-04", domain.ShiftMonthOpen)
	ym := mustYearMonth(t, "2026-04")

	n, err := Users(ctx, store, 3, "password", "example.com")
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	// 随机生成的邮箱极少数情况下会重复并被跳过
	if n < 1 || n > 3 {
		t.Fatalf("unexpected user count %d", n)
	}

	reconciler := service.NewReconciler(store, store, PinnedOptions(baseOptions(), ym))
	cnt, err := RandomSubmissions(ctx, store, reconciler, ym)
	if err != nil {
		t.Fatalf("RandomSubmissions: %v", err)
	}
	if cnt != n {
		t.Fatalf("expected %d submissions, got %d", n, cnt)
	}

	report, err := service.NewAggregation(store, store, store).BuildSubmissionReport(ctx, "2026-04")
	if err != nil {
		t.Fatal(err)
	}
	if report.SubmittedCount != n {
		t.Fatalf("expected everyone to have submitted, got %d", report.SubmittedCount)
	}
	for _, u := range report.Users {
		for _, day := range u.Dates {
			if ym.Weekday(day) == time.Monday {
				t.Fatalf("closure day %d leaked into %s", day, u.Email)
			}
		}
	}
}

func TestImportSubmissions(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(time.Now)
	store.AddMonth("2026-04", domain.ShiftMonthOpen)
	yamada := store.AddUser("山田", "yamada@example.com", domain.RoleStaff)
	ym := mustYearMonth(t, "2026-04")
	reconciler := service.NewReconciler(store, store, PinnedOptions(baseOptions(), ym))

	// 2026-04-06 是周一
	file := "\ufeff氏名,メールアドレス,提出,希望日数,希望日\n" +
		"山田,yamada@example.com,提出済,3,1 2 6\n" +
		"鈴木,suzuki@example.com,提出済,1,3\n" +
		"佐藤,sato@example.com,未提出,0,\n" +
		",,提出済,0,\n"

	cnt, err := ImportSubmissions(ctx, strings.NewReader(file), store, reconciler, ym, "hash")
	if err != nil {
		t.Fatalf("ImportSubmissions: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 submissions, got %d", cnt)
	}

	for _, email := range []string{"suzuki@example.com", "sato@example.com"} {
		if _, err := store.GetUserByEmail(ctx, email); err != nil {
			t.Fatalf("%s should have been created: %v", email, err)
		}
	}

	requests, err := reconciler.FindUserShiftRequests(ctx, yamada.ID, "2026-04")
	if err != nil {
		t.Fatal(err)
	}
	days := make([]int, len(requests))
	for i, r := range requests {
		days[i] = calendar.DayOf(r.Date)
	}
	if !slices.Equal(days, []int{1, 2}) {
		t.Fatalf("unexpected days for yamada: %v", days)
	}
}

func TestImportSubmissionsErrors(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(time.Now)
	store.AddMonth("2026-04", domain.ShiftMonthOpen)
	ym := mustYearMonth(t, "2026-04")
	reconciler := service.NewReconciler(store, store, PinnedOptions(baseOptions(), ym))

	tests := []struct {
		name string
		file string
	}{
		{"missing column", "氏名,メールアドレス\n山田,yamada@example.com\n"},
		{"bad day", "氏名,メールアドレス,提出,希望日\n山田,yamada@example.com,提出済,1 x\n"},
		{"day out of range", "氏名,メールアドレス,提出,希望日\n山田,yamada@example.com,提出済,31\n"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportSubmissions(ctx, strings.NewReader(tt.file), store, reconciler, ym, "hash"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

// 导出的文件可以原样导入到另一个环境
func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	ym := mustYearMonth(t, "2026-04")

	src := storetest.NewStore(time.Now)
	src.AddMonth("2026-04", domain.ShiftMonthOpen)
	a := src.AddUser("山田", "yamada@example.com", domain.RoleStaff)
	src.AddUser("田中", "tanaka@example.com", domain.RoleStaff)
	srcReconciler := service.NewReconciler(src, src, PinnedOptions(baseOptions(), ym))
	if _, err := srcReconciler.SubmitShiftRequests(ctx, a.ID, "2026-04", []int{10, 3, 17}); err != nil {
		t.Fatal(err)
	}

	report, err := service.NewAggregation(src, src, src).BuildSubmissionReport(ctx, "2026-04")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := export.WriteByUser(&buf, report); err != nil {
		t.Fatal(err)
	}

	dst := storetest.NewStore(time.Now)
	dst.AddMonth("2026-04", domain.ShiftMonthOpen)
	dstReconciler := service.NewReconciler(dst, dst, PinnedOptions(baseOptions(), ym))
	if _, err := ImportSubmissions(ctx, &buf, dst, dstReconciler, ym, "hash"); err != nil {
		t.Fatalf("ImportSubmissions: %v", err)
	}

	got, err := service.NewAggregation(dst, dst, dst).BuildSubmissionReport(ctx, "2026-04")
	if err != nil {
		t.Fatal(err)
	}
	if got.SubmittedCount != report.SubmittedCount || got.NotSubmittedCount != report.NotSubmittedCount {
		t.Fatalf("totals differ: %+v vs %+v", got, report)
	}
	for i := range report.Users {
		if got.Users[i].Email != report.Users[i].Email || !slices.Equal(got.Users[i].Dates, report.Users[i].Dates) {
			t.Fatalf("row %d differs: %+v vs %+v", i, got.Users[i], report.Users[i])
		}
	}
}
