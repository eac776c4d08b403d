package payroll

import "context"

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	EmployeeID string
	Limit      int
	Offset     int
}

// Repository は給与レコードの永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter ListFilter) ([]*Entry, string, error)
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
