package employee

import "time"

// OnboardingStatus は社員オンボーディングの進行状態を表します。
type OnboardingStatus string

const (
	OnboardingDraft     OnboardingStatus = "draft"
	OnboardingSubmitted OnboardingStatus = "submitted"
	OnboardingApproved  OnboardingStatus = "approved"
	OnboardingRejected  OnboardingStatus = "rejected"
)

// EmploymentStatus は雇用形態を表します。
type EmploymentStatus string

const (
	EmploymentFullTime   EmploymentStatus = "full-time"
	EmploymentPartTime   EmploymentStatus = "part-time"
	EmploymentContractor EmploymentStatus = "contractor"
)

// Employee は社員エンティティです。オンボーディングの期限・猶予・
// ロック状態を保持します。IsLocked は「期限超過かつ書類不備かつ
// 有効な猶予なし」の場合のみ真になります。
type Employee struct {
	ID                    string
	UserID                *string
	EmployeeCode          string
	CodeNumber            int
	Name                  string
	DateOfBirth           *time.Time
	Phone                 string
	Address               string
	EmergencyPhone        string
	CNIC                  string
	Role                  string
	QRPayload             string
	OnboardingStatus      OnboardingStatus
	OnboardingSubmittedAt *time.Time
	DocumentsReceivedAt   *time.Time
	LockAt                *time.Time
	GraceApprovedAt       *time.Time
	GraceUntil            *time.Time
	IsLocked              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Documents         []*Document
	EmploymentDetails []*EmploymentDetail
}

// Document は社員の提出書類です。社員と書類種別の組につき
// 有効なファイルは常に1件で、再アップロードは置換になります。
type Document struct {
	ID         string
	EmployeeID string
	Type       string
	FilePath   string
	UploadedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmploymentDetail は社員の雇用条件の履歴行です。
// 最新の行(effective_date 降順)が現在の所属・直属マネージャーを表します。
type EmploymentDetail struct {
	ID                 string
	EmployeeID         string
	JobTitle           string
	Department         string
	ReportingManagerID *string
	EmploymentStatus   EmploymentStatus
	Position           string
	PayGrade           string
	Pay                *float64
	Allowances         *float64
	Transport          *float64
	OtherAllowances    *float64
	EffectiveDate      *time.Time
	JoiningDate        *time.Time
	CreatedAt          time.Time
}

// QRPayloadFor は社員コードと氏名から QR ペイロードを組み立てます。
func QRPayloadFor(code, name string) string {
	return "EMP:" + code + "|" + name
}
