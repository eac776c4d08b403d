package employee

import (
	"context"
	"time"
)

// Repository は社員と付随する書類・雇用条件の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByCode(ctx context.Context, code string) (*Employee, error)
	List(ctx context.Context, filter ListFilter) ([]*Employee, string, error)

	// NextCodeNumber は社員コード採番用の次の連番を返します。
	NextCodeNumber(ctx context.Context) (int, error)

	// ListDueForLock は評価日時点で提出期限または猶予期限を過ぎ、
	// かつ書類受領が未記録の社員を返します。
	ListDueForLock(ctx context.Context, today time.Time) ([]*Employee, error)

	// Lock は is_locked を条件付きで真にします。既にロック済み、
	// または書類受領済みの行は変更せず false を返します。
	Lock(ctx context.Context, id string) (bool, error)

	DocumentTypes(ctx context.Context, employeeID string) ([]string, error)
	FindDocumentByID(ctx context.Context, id string) (*Document, error)
	FindDocumentByType(ctx context.Context, employeeID, docType string) (*Document, error)
	ListDocuments(ctx context.Context, employeeID string) ([]*Document, error)
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) (*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreateEmploymentDetail(ctx context.Context, detail *EmploymentDetail) (*EmploymentDetail, error)
	DeleteEmploymentDetail(ctx context.Context, id string) error
	FindEmploymentDetailByID(ctx context.Context, id string) (*EmploymentDetail, error)
	ListEmploymentDetails(ctx context.Context, employeeID string) ([]*EmploymentDetail, error)

	// LatestEmploymentDetail は effective_date が最新の行を返します。
	// 行が存在しない場合は ErrEmploymentDetailNotFound を返します。
	LatestEmploymentDetail(ctx context.Context, employeeID string) (*EmploymentDetail, error)
}

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	Limit  int
	Offset int
}
