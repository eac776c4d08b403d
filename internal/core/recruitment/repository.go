package recruitment

import "context"

// Stage は一覧・集計用の抽出区分です。選考状態に加えて
// ごみ箱(trashed)を一つの区分として扱います。
type Stage string

const (
	StageInterview Stage = "interview"
	StageCandidate Stage = "candidate"
	StageApproved  Stage = "approved"
	StageTrashed   Stage = "trashed"
)

// ListFilter は一覧取得用フィルタです。Stage が空の場合は
// 有効レコード全件が対象です。
type ListFilter struct {
	Stage  Stage
	Limit  int
	Offset int
}

// StageCounts は区分ごとの件数です。
type StageCounts struct {
	Interview int
	Candidate int
	Approved  int
	Trashed   int
}

// Repository は採用レコードと遷移履歴の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, r *Recruitment) (*Recruitment, error)
	Update(ctx context.Context, r *Recruitment) (*Recruitment, error)
	FindByID(ctx context.Context, id string) (*Recruitment, error)
	List(ctx context.Context, filter ListFilter) ([]*Recruitment, string, error)
	CountByStage(ctx context.Context) (*StageCounts, error)

	// Trash は有効レコードをごみ箱へ移します。
	Trash(ctx context.Context, id string, trashedBy *string) error
	// Restore はごみ箱のレコードを有効へ戻します。
	Restore(ctx context.Context, id string) error
	// RestoreAll はごみ箱の全レコードを戻し、件数を返します。
	RestoreAll(ctx context.Context) (int, error)
	// Purge はレコードと遷移履歴を物理削除します。
	Purge(ctx context.Context, id string) error

	// ClaimConversion は new_hire_employee_id を未設定の場合に限り
	// 設定します。設定できた場合のみ true を返します。
	ClaimConversion(ctx context.Context, id, employeeID string) (bool, error)

	CreateTransition(ctx context.Context, t *Transition) (*Transition, error)
	// ListTransitions は指定レコードの遷移履歴を changed_at 昇順で返します。
	ListTransitions(ctx context.Context, recruitmentID string) ([]*Transition, error)
	// ListTransitionsByStage は現在の区分が stage のレコードの遷移履歴を
	// changed_at 昇順で返します。候補者名を含む監査用の行です。
	ListTransitionsByStage(ctx context.Context, stage Stage) ([]*AuditRow, error)
}

// AuditRow は監査エクスポート用の遷移一行です。
type AuditRow struct {
	Transition
	CandidateName string
}
