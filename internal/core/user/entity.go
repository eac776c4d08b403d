package user

import (
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
)

// Status はユーザーの状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User はログイン可能なユーザーエンティティです。
type User struct {
	ID           string
	Email        string
	Name         string
	Role         authz.Role
	PasswordHash string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
