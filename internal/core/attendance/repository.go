package attendance

import (
	"context"
	"time"
)

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Repository は勤怠レコードの永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, record *Record) (*Record, error)
	Update(ctx context.Context, record *Record) (*Record, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, string, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
