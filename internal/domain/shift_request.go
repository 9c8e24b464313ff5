package domain

import "time"

// ShiftRequest 表示某个用户希望在某一天上班，Date 统一存为 UTC 零点
type ShiftRequest struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userID"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShiftMonthSubmission 只记录「提交过」这件事，与提交的内容无关
type ShiftMonthSubmission struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userID"`
	ShiftMonthID int64     `json:"shiftMonthID"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
