package domain

import "time"

type ShiftMonthStatus string

const (
	ShiftMonthDraft     ShiftMonthStatus = "DRAFT"
	ShiftMonthOpen      ShiftMonthStatus = "OPEN"
	ShiftMonthClosed    ShiftMonthStatus = "CLOSED"
	ShiftMonthPublished ShiftMonthStatus = "PUBLISHED"
)

type ShiftMonth struct {
	ID        int64            `json:"id"`
	YearMonth string           `json:"yearMonth"`
	Status    ShiftMonthStatus `json:"status"`
	OpenAt    *time.Time       `json:"openAt"`
	CloseAt   *time.Time       `json:"closeAt"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Version   int32            `json:"-"`
}

// CanTransitionTo 描述管理员可以触发的状态流转
//
//	DRAFT  -> OPEN | PUBLISHED
//	OPEN   -> CLOSED | PUBLISHED
//	CLOSED -> OPEN | PUBLISHED
//	PUBLISHED 只能再次发布（幂等）
func (s ShiftMonthStatus) CanTransitionTo(next ShiftMonthStatus) bool {
	switch next {
	case ShiftMonthPublished:
		return true
	case ShiftMonthOpen:
		return s == ShiftMonthDraft || s == ShiftMonthClosed
	case ShiftMonthClosed:
		return s == ShiftMonthOpen
	default:
		return false
	}
}
