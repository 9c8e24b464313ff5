package scheduler

import (
	"context"
	"sort"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// Greedy 按日期顺序填充空位：只从希望当天上班的人中选，
// 已经排得少的人优先，人数相同时按用户 ID 从小到大，保证结果可复现
type Greedy struct{}

func (Greedy) Generate(ctx context.Context, in *Input) ([]domain.ShiftCell, error) {
	pinned := in.pinnedByDay()
	slots := in.slotsByDay()

	// 手动指定的格子也计入工作量，避免被再次优先选中
	workCnt := make(map[int64]int)
	for _, p := range in.Pinned {
		workCnt[p.UserID]++
	}

	candidatesByDay := make(map[int][]int64)
	for userID, days := range in.Preferences {
		for _, day := range days {
			candidatesByDay[day] = append(candidatesByDay[day], userID)
		}
	}

	cells := make([]domain.ShiftCell, 0)
	for day := 1; day <= in.YearMonth.LastDay(); day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(slots[day]) == 0 {
			continue
		}

		working := make(map[int64]bool)
		for _, userID := range pinned[day] {
			working[userID] = true
		}

		candidates := make([]int64, 0, len(candidatesByDay[day]))
		for _, userID := range candidatesByDay[day] {
			if !working[userID] {
				candidates = append(candidates, userID)
			}
		}

		for _, slot := range slots[day] {
			cell := domain.ShiftCell{
				Date: in.YearMonth.Date(day),
				Slot: slot,
			}

			if userID, ok := pinned[day][slot]; ok {
				id := userID
				cell.UserID = &id
				cell.IsManual = true
				cells = append(cells, cell)
				continue
			}

			sort.Slice(candidates, func(i, j int) bool {
				if workCnt[candidates[i]] != workCnt[candidates[j]] {
					return workCnt[candidates[i]] < workCnt[candidates[j]]
				}
				return candidates[i] < candidates[j]
			})

			for len(candidates) > 0 {
				userID := candidates[0]
				candidates = candidates[1:]
				if working[userID] {
					continue
				}
				working[userID] = true
				workCnt[userID]++
				cell.UserID = &userID
				break
			}

			cells = append(cells, cell)
		}
	}

	return cells, nil
}
