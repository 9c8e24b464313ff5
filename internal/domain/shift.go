package domain

import "time"

type Shift struct {
	ID           int64        `json:"id"`
	ShiftMonthID int64        `json:"shiftMonthID"`
	Date         time.Time    `json:"date"`
	UserID       *int64       `json:"userID"` // 为空表示该位置还没有人
	IsManual     bool         `json:"isManual"`
	Slot         int32        `json:"slot"`
	User         *UserSummary `json:"user"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ShiftCell 是保存或自动生成排班时使用的单元格，Date 为 UTC 零点
type ShiftCell struct {
	Date     time.Time `json:"date"`
	UserID   *int64    `json:"userID"`
	IsManual bool      `json:"isManual"`
	Slot     int32     `json:"slot"`
}
