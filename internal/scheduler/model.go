package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// PinnedAssignment 是管理员事先手动指定的格子，生成结果必须原样保留
type PinnedAssignment struct {
	Date   time.Time `json:"date"`
	UserID int64     `json:"userID"`
	Slot   int32     `json:"slot"`
}

type Input struct {
	YearMonth      calendar.YearMonth
	Requirements   map[int]int     // 日 -> 需要的人数
	Pinned         []PinnedAssignment
	Preferences    map[int64][]int // 用户 -> 希望上班的日
	ClosureWeekday time.Weekday
	MaxPerDay      int // 每天最多的人数，0 时为 DefaultMaxPerDay
}

const DefaultMaxPerDay = 20

func (in *Input) maxPerDay() int {
	if in.MaxPerDay > 0 {
		return in.MaxPerDay
	}
	return DefaultMaxPerDay
}

// Generator 是自动排班算法的抽象，只要输出满足 Validate 的约定即可替换
type Generator interface {
	Generate(ctx context.Context, in *Input) ([]domain.ShiftCell, error)
}

const (
	GeneratorGreedy = "greedy"
	GeneratorManual = "manual"
)

func New(name string) (Generator, error) {
	switch name {
	case GeneratorGreedy:
		return Greedy{}, nil
	case GeneratorManual:
		return ManualOnly{}, nil
	default:
		return nil, fmt.Errorf("未知的排班算法 %q", name)
	}
}

// slotsByDay 计算每一天需要输出的全部 slot：1..需求人数，再加上手动指定但超出需求的 slot
func (in *Input) slotsByDay() map[int][]int32 {
	need := make(map[int]int)
	for day, n := range in.Requirements {
		if n > 0 {
			need[day] = n
		}
	}

	extra := make(map[int]map[int32]bool)
	for _, p := range in.Pinned {
		day := calendar.DayOf(p.Date)
		if int(p.Slot) > need[day] {
			if extra[day] == nil {
				extra[day] = make(map[int32]bool)
			}
			extra[day][p.Slot] = true
		}
	}

	slots := make(map[int][]int32)
	for day := 1; day <= in.YearMonth.LastDay(); day++ {
		var s []int32
		for slot := 1; slot <= need[day]; slot++ {
			s = append(s, int32(slot))
		}
		extraSlots := make([]int32, 0, len(extra[day]))
		for slot := range extra[day] {
			extraSlots = append(extraSlots, slot)
		}
		slices.Sort(extraSlots)
		s = append(s, extraSlots...)
		if len(s) > 0 {
			slots[day] = s
		}
	}

	return slots
}

func (in *Input) pinnedByDay() map[int]map[int32]int64 {
	pinned := make(map[int]map[int32]int64)
	for _, p := range in.Pinned {
		day := calendar.DayOf(p.Date)
		if pinned[day] == nil {
			pinned[day] = make(map[int32]int64)
		}
		pinned[day][p.Slot] = p.UserID
	}
	return pinned
}
