package scheduler

import (
	"context"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// ManualOnly 只保留手动指定的格子，其余位置留空交给管理员填写
type ManualOnly struct{}

func (ManualOnly) Generate(ctx context.Context, in *Input) ([]domain.ShiftCell, error) {
	pinned := in.pinnedByDay()
	slots := in.slotsByDay()

	cells := make([]domain.ShiftCell, 0)
	for day := 1; day <= in.YearMonth.LastDay(); day++ {
		for _, slot := range slots[day] {
			cell := domain.ShiftCell{
				Date: in.YearMonth.Date(day),
				Slot: slot,
			}
			if userID, ok := pinned[day][slot]; ok {
				id := userID
				cell.UserID = &id
				cell.IsManual = true
			}
			cells = append(cells, cell)
		}
	}

	return cells, nil
}
