package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

var march2026 = calendar.YearMonth{Year: 2026, Month: time.March}

func newInput() *Input {
	return &Input{
		YearMonth:      march2026,
		Requirements:   map[int]int{3: 2, 4: 1},
		ClosureWeekday: time.Monday,
	}
}

func assigned(cells []domain.ShiftCell, day int, slot int32) (int64, bool, bool) {
	for _, c := range cells {
		if calendar.DayOf(c.Date) == day && c.Slot == slot {
			if c.UserID == nil {
				return 0, c.IsManual, true
			}
			return *c.UserID, c.IsManual, true
		}
	}
	return 0, false, false
}

func TestNew(t *testing.T) {
	if _, err := New(GeneratorGreedy); err != nil {
		t.Fatalf("greedy: %v", err)
	}
	if _, err := New(GeneratorManual); err != nil {
		t.Fatalf("manual: %v", err)
	}
	if _, err := New("genetic"); err == nil {
		t.Fatal("expected error for unknown generator")
	}
}

func TestManualOnlyKeepsPinnedAndLeavesRestOpen(t *testing.T) {
	in := newInput()
	in.Pinned = []PinnedAssignment{{Date: march2026.Date(3), UserID: 7, Slot: 2}}

	cells, err := ManualOnly{}.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if uid, manual, ok := assigned(cells, 3, 2); !ok || uid != 7 || !manual {
		t.Fatalf("pinned cell lost: uid=%d manual=%v ok=%v", uid, manual, ok)
	}
	if uid, _, ok := assigned(cells, 3, 1); !ok || uid != 0 {
		t.Fatalf("slot 1 should be open, got %d", uid)
	}
	if err := Validate(in, cells); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestGreedyBalancesAndBreaksTiesByUserID(t *testing.T) {
	in := newInput()
	in.Requirements = map[int]int{3: 1, 4: 1, 5: 1}
	in.Preferences = map[int64][]int{
		2: {3, 4, 5},
		1: {3, 4, 5},
	}

	cells, err := Greedy{}.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Validate(in, cells); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := map[int]int64{3: 1, 4: 2, 5: 1}
	for day, uid := range want {
		got, manual, _ := assigned(cells, day, 1)
		if got != uid || manual {
			t.Errorf("day %d: got user %d (manual=%v), want %d", day, got, manual, uid)
		}
	}
}

func TestGreedyNeverAssignsPinnedUserTwiceOnADay(t *testing.T) {
	in := newInput()
	in.Pinned = []PinnedAssignment{{Date: march2026.Date(3), UserID: 1, Slot: 1}}
	in.Preferences = map[int64][]int{1: {3}, 2: {3}}

	cells, err := Greedy{}.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Validate(in, cells); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if uid, _, _ := assigned(cells, 3, 2); uid != 2 {
		t.Fatalf("slot 2 on day 3: got %d, want 2", uid)
	}
	if uid, _, _ := assigned(cells, 4, 1); uid != 0 {
		t.Fatalf("nobody prefers day 4, got %d", uid)
	}
}

func TestGreedyKeepsPinnedSlotBeyondRequirement(t *testing.T) {
	in := newInput()
	in.Pinned = []PinnedAssignment{{Date: march2026.Date(4), UserID: 9, Slot: 3}}

	cells, err := Greedy{}.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Validate(in, cells); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if uid, manual, ok := assigned(cells, 4, 3); !ok || uid != 9 || !manual {
		t.Fatalf("extra pinned slot missing")
	}
}

func TestGreedyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Greedy{}).Generate(ctx, newInput()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *Input)
	}{
		{"day out of month", func(in *Input) { in.Requirements[32] = 1 }},
		{"negative", func(in *Input) { in.Requirements[5] = -1 }},
		{"closure day required", func(in *Input) { in.Requirements[2] = 1 }},
		{"above default cap", func(in *Input) { in.Requirements[5] = DefaultMaxPerDay + 1 }},
		{"above configured cap", func(in *Input) { in.MaxPerDay = 2; in.Requirements[5] = 3 }},
		{"wraps int32", func(in *Input) { in.Requirements[5] = 1 << 31 }},
		{"truncates to int32", func(in *Input) { in.Requirements[5] = 1<<32 + 2 }},
		{"pinned slot above cap", func(in *Input) {
			in.Pinned = []PinnedAssignment{{Date: march2026.Date(3), UserID: 1, Slot: DefaultMaxPerDay + 1}}
		}},
		{"pinned outside month", func(in *Input) {
			in.Pinned = []PinnedAssignment{{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), UserID: 1, Slot: 1}}
		}},
		{"pinned closure day", func(in *Input) {
			in.Pinned = []PinnedAssignment{{Date: march2026.Date(9), UserID: 1, Slot: 1}}
		}},
		{"slot zero", func(in *Input) {
			in.Pinned = []PinnedAssignment{{Date: march2026.Date(3), UserID: 1, Slot: 0}}
		}},
		{"same slot twice", func(in *Input) {
			in.Pinned = []PinnedAssignment{
				{Date: march2026.Date(3), UserID: 1, Slot: 1},
				{Date: march2026.Date(3), UserID: 2, Slot: 1},
			}
		}},
		{"same user twice", func(in *Input) {
			in.Pinned = []PinnedAssignment{
				{Date: march2026.Date(3), UserID: 1, Slot: 1},
				{Date: march2026.Date(3), UserID: 1, Slot: 2},
			}
		}},
	}

	if err := ValidateInput(newInput()); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInput()
			tt.modify(in)
			if err := ValidateInput(in); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestValidateRejectsBrokenOutput(t *testing.T) {
	one, two := int64(1), int64(2)
	in := newInput()
	in.Pinned = []PinnedAssignment{{Date: march2026.Date(4), UserID: 2, Slot: 1}}
	good := []domain.ShiftCell{
		{Date: march2026.Date(3), Slot: 1, UserID: &one},
		{Date: march2026.Date(3), Slot: 2},
		{Date: march2026.Date(4), Slot: 1, UserID: &two, IsManual: true},
	}
	if err := Validate(in, good); err != nil {
		t.Fatalf("valid output rejected: %v", err)
	}

	tests := []struct {
		name  string
		cells []domain.ShiftCell
	}{
		{"missing slot", good[:2]},
		{"duplicated slot", append(append([]domain.ShiftCell{}, good...), good[1])},
		{"extra slot", append(append([]domain.ShiftCell{}, good...), domain.ShiftCell{Date: march2026.Date(3), Slot: 3})},
		{"unrequired day", append(append([]domain.ShiftCell{}, good...), domain.ShiftCell{Date: march2026.Date(5), Slot: 1})},
		{"closure day", append(append([]domain.ShiftCell{}, good...), domain.ShiftCell{Date: march2026.Date(2), Slot: 1})},
		{"same user twice", []domain.ShiftCell{good[0], {Date: march2026.Date(3), Slot: 2, UserID: &one}, good[2]}},
		{"pinned not manual", []domain.ShiftCell{good[0], good[1], {Date: march2026.Date(4), Slot: 1, UserID: &two}}},
		{"pinned replaced", []domain.ShiftCell{good[0], good[1], {Date: march2026.Date(4), Slot: 1, UserID: &one, IsManual: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(in, tt.cells); !errors.Is(err, ErrContractViolation) {
				t.Fatalf("expected ErrContractViolation, got %v", err)
			}
		})
	}
}

func TestRequirementPresetExpand(t *testing.T) {
	doc := `
default: 2
weekdays:
  Saturday: 3
  monday: 5
dates:
  "2026-03-20": 4
  "2026-04-01": 9
`
	preset, err := LoadRequirementPreset(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadRequirementPreset: %v", err)
	}

	req, err := preset.Expand(march2026, time.Monday)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if _, ok := req[2]; ok {
		t.Error("closure day must not have a requirement")
	}
	if req[3] != 2 {
		t.Errorf("tuesday: got %d, want 2", req[3])
	}
	if req[7] != 3 {
		t.Errorf("saturday: got %d, want 3", req[7])
	}
	if req[20] != 4 {
		t.Errorf("explicit date: got %d, want 4", req[20])
	}
	if len(req) != 31-5 {
		t.Errorf("expected %d days, got %d", 31-5, len(req))
	}
	if err := ValidateInput(&Input{YearMonth: march2026, Requirements: req, ClosureWeekday: time.Monday}); err != nil {
		t.Errorf("expanded preset should be valid input: %v", err)
	}
}

func TestRequirementPresetErrors(t *testing.T) {
	docs := map[string]string{
		"unknown weekday": "weekdays:\n  someday: 1\n",
		"bad date":        "dates:\n  \"2026/03/20\": 1\n",
		"closure date":    "dates:\n  \"2026-03-09\": 1\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			preset, err := LoadRequirementPreset(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("LoadRequirementPreset: %v", err)
			}
			if _, err := preset.Expand(march2026, time.Monday); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	if _, err := LoadRequirementPreset(strings.NewReader("default: [")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for malformed yaml, got %v", err)
	}
}
