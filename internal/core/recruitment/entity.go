package recruitment

import "time"

// Status は採用パイプライン上の選考状態を表します。
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusCandidate Status = "candidate"
	StatusApproved  Status = "approved"
	StatusOffer     Status = "offer"
	StatusHired     Status = "hired"
	StatusRejected  Status = "rejected"

	// StatusEmployee は社員化で記録される終端状態です。
	StatusEmployee Status = "employee"
)

// Lifecycle はレコードのライフサイクル(有効・ごみ箱)を表します。
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleTrashed Lifecycle = "trashed"
)

// Recruitment は応募者一件の採用レコードを表します。
type Recruitment struct {
	ID              string
	CandidateName   string
	Email           string
	Phone           string
	CNIC            string
	FatherName      string
	Address         string
	DateOfBirth     *time.Time
	PositionApplied string
	ExpectedSalary  *float64
	CVPath          string

	Education  map[string]any
	Experience map[string]any

	Status          Status
	StatusChangedBy *string
	StatusChangedAt *time.Time

	InterviewerSuitable *bool
	InterviewNotes      string

	HRApprovedBy *string
	HRApprovedAt *time.Time

	// NewHireEmployeeID は社員化で作成された社員の ID です。
	// 一度設定されたら変更されません。
	NewHireEmployeeID *string

	Lifecycle Lifecycle
	TrashedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transition は選考状態の変更一件を記録する監査行です。不変です。
type Transition struct {
	ID            string
	RecruitmentID string
	FromStatus    *Status
	ToStatus      Status
	ChangedBy     *string
	Notes         string
	ChangedAt     time.Time
}
