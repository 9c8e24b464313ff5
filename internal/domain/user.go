package domain

import (
	"time"
)

type Role string

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

// UserSummary 是排班表中展示负责人时所需的最少信息
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
