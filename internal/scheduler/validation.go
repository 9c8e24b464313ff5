package scheduler

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// ErrContractViolation 表示算法的输出不满足约定，属于程序错误而不是用户输入错误
var ErrContractViolation = errors.New("排班结果不满足约定")

// ValidateInput 检查管理员提交的需求和手动指定的格子
func ValidateInput(in *Input) error {
	for day, n := range in.Requirements {
		if day < 1 || day > in.YearMonth.LastDay() {
			return fmt.Errorf("%w: 日期 %d 不在 %s 内", domain.ErrInvalidArgument, day, in.YearMonth)
		}
		if n < 0 {
			return fmt.Errorf("%w: %d 日的需求人数不能为负数", domain.ErrInvalidArgument, day)
		}
		if n > in.maxPerDay() {
			return fmt.Errorf("%w: %d 日的需求人数不能超过 %d", domain.ErrInvalidArgument, day, in.maxPerDay())
		}
		if n > 0 && in.YearMonth.Weekday(day) == in.ClosureWeekday {
			return fmt.Errorf("%w: %d 日是定休日，不能排班", domain.ErrInvalidArgument, day)
		}
	}

	seenSlot := make(map[int]map[int32]bool)
	seenUser := make(map[int]map[int64]bool)
	for _, p := range in.Pinned {
		if !in.YearMonth.Contains(p.Date) {
			return fmt.Errorf("%w: 手动指定的日期 %s 不在 %s 内", domain.ErrInvalidArgument, calendar.FormatDate(p.Date), in.YearMonth)
		}
		day := calendar.DayOf(p.Date)
		if in.YearMonth.Weekday(day) == in.ClosureWeekday {
			return fmt.Errorf("%w: %d 日是定休日，不能排班", domain.ErrInvalidArgument, day)
		}
		if p.Slot < 1 {
			return fmt.Errorf("%w: slot 必须从 1 开始", domain.ErrInvalidArgument)
		}
		if int(p.Slot) > in.maxPerDay() {
			return fmt.Errorf("%w: slot 不能超过 %d", domain.ErrInvalidArgument, in.maxPerDay())
		}
		if seenSlot[day] == nil {
			seenSlot[day] = make(map[int32]bool)
			seenUser[day] = make(map[int64]bool)
		}
		if seenSlot[day][p.Slot] {
			return fmt.Errorf("%w: %d 日的第 %d 个位置被重复指定", domain.ErrInvalidArgument, day, p.Slot)
		}
		if seenUser[day][p.UserID] {
			return fmt.Errorf("%w: 用户 %d 在 %d 日被重复指定", domain.ErrInvalidArgument, p.UserID, day)
		}
		seenSlot[day][p.Slot] = true
		seenUser[day][p.UserID] = true
	}

	return nil
}

// Validate 检查算法输出：
//   - 每一天需要的 (date, slot) 恰好出现一次，没有多余的格子
//   - 手动指定的格子原样保留并标记为手动
//   - 同一天同一个人最多出现一次
//   - 定休日没有格子
func Validate(in *Input, cells []domain.ShiftCell) error {
	expected := in.slotsByDay()
	pinned := in.pinnedByDay()

	seen := make(map[int]map[int32]bool)
	working := make(map[int]map[int64]bool)

	for _, cell := range cells {
		if !in.YearMonth.Contains(cell.Date) {
			return fmt.Errorf("%w: 日期 %s 不在 %s 内", ErrContractViolation, calendar.FormatDate(cell.Date), in.YearMonth)
		}
		day := calendar.DayOf(cell.Date)
		if in.YearMonth.Weekday(day) == in.ClosureWeekday {
			return fmt.Errorf("%w: %d 日是定休日", ErrContractViolation, day)
		}

		if seen[day] == nil {
			seen[day] = make(map[int32]bool)
			working[day] = make(map[int64]bool)
		}
		if seen[day][cell.Slot] {
			return fmt.Errorf("%w: %d 日的第 %d 个位置重复", ErrContractViolation, day, cell.Slot)
		}
		seen[day][cell.Slot] = true

		if userID, ok := pinned[day][cell.Slot]; ok {
			if cell.UserID == nil || *cell.UserID != userID || !cell.IsManual {
				return fmt.Errorf("%w: %d 日的第 %d 个位置没有保留手动指定的结果", ErrContractViolation, day, cell.Slot)
			}
		}

		if cell.UserID != nil {
			if working[day][*cell.UserID] {
				return fmt.Errorf("%w: 用户 %d 在 %d 日被重复安排", ErrContractViolation, *cell.UserID, day)
			}
			working[day][*cell.UserID] = true
		}
	}

	for day, slots := range expected {
		for _, slot := range slots {
			if !seen[day][slot] {
				return fmt.Errorf("%w: 缺少 %d 日的第 %d 个位置", ErrContractViolation, day, slot)
			}
		}
		if len(seen[day]) != len(slots) {
			return fmt.Errorf("%w: %d 日存在多余的位置", ErrContractViolation, day)
		}
	}
	for day := range seen {
		if _, ok := expected[day]; !ok {
			return fmt.Errorf("%w: %d 日没有需求却安排了人", ErrContractViolation, day)
		}
	}

	return nil
}
