package kpi

import "context"

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	EmployeeID string
	Limit      int
	Offset     int
}

// Repository は評価レコードの永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, review *Review) (*Review, error)
	Update(ctx context.Context, review *Review) (*Review, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, filter ListFilter) ([]*Review, string, error)
	ListRecent(ctx context.Context, limit int) ([]*Review, error)
}
