package employee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zaylabs/erp/internal/core/user"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// FileStore は書類ファイルの保管コラボレーターです。
// 保存は論理パスを受け取り安定した参照を返します。中身は解釈しません。
type FileStore interface {
	Save(ctx context.Context, path string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Notifier は通知コラボレーターです。宛先の解決と配送は実装側の責務です。
type Notifier interface {
	EmployeeSubmittedForReview(ctx context.Context, e *Employee) error
}

// IdentityProvider はログイン発行のためのユーザー管理コラボレーターです。
type IdentityProvider interface {
	CreateLogin(ctx context.Context, in user.CreateLoginInput) (*user.CreateLoginResult, error)
}

// OnboardingPolicy はオンボーディング期限と必須書類のポリシーです。
type OnboardingPolicy struct {
	RequiredDocumentTypes []string
	SubmissionWindowDays  int
	GraceDays             int
}

// DefaultOnboardingPolicy は設定未指定時のポリシーを返します。
func DefaultOnboardingPolicy() OnboardingPolicy {
	return OnboardingPolicy{
		RequiredDocumentTypes: []string{"CV", "CNIC", "Certificate"},
		SubmissionWindowDays:  30,
		GraceDays:             30,
	}
}

func (p OnboardingPolicy) withDefaults() OnboardingPolicy {
	def := DefaultOnboardingPolicy()
	if len(p.RequiredDocumentTypes) == 0 {
		p.RequiredDocumentTypes = def.RequiredDocumentTypes
	}
	if p.SubmissionWindowDays <= 0 {
		p.SubmissionWindowDays = def.SubmissionWindowDays
	}
	if p.GraceDays <= 0 {
		p.GraceDays = def.GraceDays
	}
	return p
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200

	employeeCodePrefix = "EMP-"
)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo       Repository
	files      FileStore
	notifier   Notifier
	identities IdentityProvider
	clock      Clock
	tx         TransactionManager
	policy     OnboardingPolicy
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	DeleteEmployee(ctx context.Context, id string) error
	AddEmploymentDetail(ctx context.Context, in AddEmploymentDetailInput) (*EmploymentDetail, error)
	DeleteEmploymentDetail(ctx context.Context, employeeID, detailID string) error
	UploadDocument(ctx context.Context, in UploadDocumentInput) (*Document, error)
	DeleteDocument(ctx context.Context, employeeID, documentID string) error
	SubmitForReview(ctx context.Context, employeeID string) (*Employee, error)
	MarkDocumentsReceived(ctx context.Context, employeeID string) (*Employee, error)
	ApproveGrace(ctx context.Context, in ApproveGraceInput) (*Employee, error)
	RunLockSweep(ctx context.Context, in LockSweepInput) (*LockSweepResult, error)
	CreateLogin(ctx context.Context, in CreateLoginInput) (*CreateLoginResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, files FileStore, notifier Notifier, identities IdentityProvider, clock Clock, tx TransactionManager, policy OnboardingPolicy) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:       repo,
		files:      files,
		notifier:   notifier,
		identities: identities,
		clock:      clock,
		tx:         tx,
		policy:     policy.withDefaults(),
	}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	UserID         *string
	EmployeeCode   string
	Name           string
	DateOfBirth    *time.Time
	Phone          string
	Address        string
	EmergencyPhone string
	CNIC           string
	Role           string
}

// UpdateEmployeeInput は社員更新時の入力です。
type UpdateEmployeeInput struct {
	ID             string
	UserID         *string
	UserIDSet      bool
	EmployeeCode   *string
	Name           *string
	DateOfBirth    *time.Time
	DateOfBirthSet bool
	Phone          *string
	Address        *string
	EmergencyPhone *string
	CNIC           *string
	Role           *string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	PageSize  int
	PageToken string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	code := strings.TrimSpace(in.EmployeeCode)

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		codeNumber := 0
		if code == "" {
			next, err := s.repo.NextCodeNumber(txCtx)
			if err != nil {
				return err
			}
			codeNumber = next
			code = formatEmployeeCode(next)
		} else {
			if err := s.ensureCodeNotExists(txCtx, code); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		emp := &Employee{
			UserID:           in.UserID,
			EmployeeCode:     code,
			CodeNumber:       codeNumber,
			Name:             name,
			DateOfBirth:      normalizeDate(in.DateOfBirth),
			Phone:            strings.TrimSpace(in.Phone),
			Address:          strings.TrimSpace(in.Address),
			EmergencyPhone:   strings.TrimSpace(in.EmergencyPhone),
			CNIC:             strings.TrimSpace(in.CNIC),
			Role:             strings.TrimSpace(in.Role),
			QRPayload:        QRPayloadFor(code, name),
			OnboardingStatus: OnboardingDraft,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は社員情報を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.EmployeeCode != nil {
			code := strings.TrimSpace(*in.EmployeeCode)
			if code == "" {
				return ErrInvalidEmployeeCode
			}
			if code != existing.EmployeeCode {
				if err := s.ensureCodeNotExists(txCtx, code); err != nil {
					return err
				}
				existing.EmployeeCode = code
			}
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrInvalidName
			}
			existing.Name = name
		}
		if in.UserIDSet {
			existing.UserID = in.UserID
		}
		if in.DateOfBirthSet {
			existing.DateOfBirth = normalizeDate(in.DateOfBirth)
		}
		if in.Phone != nil {
			existing.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Address != nil {
			existing.Address = strings.TrimSpace(*in.Address)
		}
		if in.EmergencyPhone != nil {
			existing.EmergencyPhone = strings.TrimSpace(*in.EmergencyPhone)
		}
		if in.CNIC != nil {
			existing.CNIC = strings.TrimSpace(*in.CNIC)
		}
		if in.Role != nil {
			existing.Role = strings.TrimSpace(*in.Role)
		}

		existing.QRPayload = QRPayloadFor(existing.EmployeeCode, existing.Name)
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// GetEmployee は社員を書類・雇用条件付きで取得します。
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		docs, err := s.repo.ListDocuments(txCtx, id)
		if err != nil {
			return err
		}
		found.Documents = docs

		details, err := s.repo.ListEmploymentDetails(txCtx, id)
		if err != nil {
			return err
		}
		found.EmploymentDetails = details

		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	employees, nextToken, err := s.repo.List(ctx, ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// DeleteEmployee は社員を削除します。書類・雇用条件は連鎖削除されます。
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

// AddEmploymentDetailInput は雇用条件追加時の入力です。
type AddEmploymentDetailInput struct {
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
}

// AddEmploymentDetail は社員に雇用条件行を追加します。
func (s *Service) AddEmploymentDetail(ctx context.Context, in AddEmploymentDetailInput) (*EmploymentDetail, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("employee id: %w", ErrInvalidID)
	}
	if !isValidEmploymentStatus(in.EmploymentStatus) {
		return nil, ErrInvalidEmploymentStatus
	}

	var created *EmploymentDetail
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID); err != nil {
			return err
		}

		detail := &EmploymentDetail{
			EmployeeID:         in.EmployeeID,
			JobTitle:           strings.TrimSpace(in.JobTitle),
			Department:         strings.TrimSpace(in.Department),
			ReportingManagerID: in.ReportingManagerID,
			EmploymentStatus:   in.EmploymentStatus,
			Position:           strings.TrimSpace(in.Position),
			PayGrade:           strings.TrimSpace(in.PayGrade),
			Pay:                in.Pay,
			Allowances:         in.Allowances,
			Transport:          in.Transport,
			OtherAllowances:    in.OtherAllowances,
			EffectiveDate:      normalizeDate(in.EffectiveDate),
			JoiningDate:        normalizeDate(in.JoiningDate),
			CreatedAt:          s.clock.Now(),
		}

		result, err := s.repo.CreateEmploymentDetail(txCtx, detail)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// DeleteEmploymentDetail は雇用条件行を削除します。
// 行が指定社員のものでない場合は ErrEmploymentDetailMismatch を返します。
func (s *Service) DeleteEmploymentDetail(ctx context.Context, employeeID, detailID string) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		detail, err := s.repo.FindEmploymentDetailByID(txCtx, detailID)
		if err != nil {
			return err
		}
		if detail.EmployeeID != employeeID {
			return ErrEmploymentDetailMismatch
		}
		return s.repo.DeleteEmploymentDetail(txCtx, detailID)
	})
}

// UploadDocumentInput は書類アップロード時の入力です。
type UploadDocumentInput struct {
	EmployeeID string
	Type       string
	FileName   string
	Content    io.Reader
	UploadedBy *string
}

// UploadDocument は書類を保管し行を登録します。同種別の既存書類が
// ある場合は旧ファイルを削除して行を更新します(重複行は作りません)。
func (s *Service) UploadDocument(ctx context.Context, in UploadDocumentInput) (*Document, error) {
	docType := strings.TrimSpace(in.Type)
	if !s.isRequiredDocumentType(docType) {
		return nil, ErrInvalidDocumentType
	}

	var saved *Document
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID); err != nil {
			return err
		}

		ref, err := s.files.Save(ctx, "employee-docs/"+in.EmployeeID+"/"+in.FileName, in.Content)
		if err != nil {
			return fmt.Errorf("employee: store document: %w", err)
		}

		existing, err := s.repo.FindDocumentByType(txCtx, in.EmployeeID, docType)
		if err != nil && !errors.Is(err, ErrDocumentNotFound) {
			return err
		}

		now := s.clock.Now()
		if existing != nil {
			if delErr := s.files.Delete(ctx, existing.FilePath); delErr != nil {
				return fmt.Errorf("employee: delete replaced document: %w", delErr)
			}
			existing.FilePath = ref
			existing.UploadedBy = in.UploadedBy
			existing.UpdatedAt = now
			result, err := s.repo.UpdateDocument(txCtx, existing)
			if err != nil {
				return err
			}
			saved = result
			return nil
		}

		result, err := s.repo.CreateDocument(txCtx, &Document{
			EmployeeID: in.EmployeeID,
			Type:       docType,
			FilePath:   ref,
			UploadedBy: in.UploadedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}
		saved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

// DeleteDocument は書類行と保管ファイルを削除します。
// 書類が指定社員のものでない場合は ErrDocumentMismatch を返します。
func (s *Service) DeleteDocument(ctx context.Context, employeeID, documentID string) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		doc, err := s.repo.FindDocumentByID(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.EmployeeID != employeeID {
			return ErrDocumentMismatch
		}
		if err := s.files.Delete(ctx, doc.FilePath); err != nil {
			return fmt.Errorf("employee: delete stored document: %w", err)
		}
		return s.repo.DeleteDocument(txCtx, documentID)
	})
}

func (s *Service) ensureCodeNotExists(ctx context.Context, code string) error {
	found, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if found != nil {
		return ErrEmployeeCodeAlreadyExists
	}
	return nil
}

func (s *Service) isRequiredDocumentType(docType string) bool {
	for _, t := range s.policy.RequiredDocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

func formatEmployeeCode(number int) string {
	return fmt.Sprintf("%s%04d", employeeCodePrefix, number)
}

func isValidEmploymentStatus(status EmploymentStatus) bool {
	switch status {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContractor:
		return true
	default:
		return false
	}
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
