package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/user"
)

// SubmitForReview はオンボーディング情報を提出済みにします。
// 提出期限(lock_at)を設定し、Executive/Manager へ通知します。
func (s *Service) SubmitForReview(ctx context.Context, employeeID string) (*Employee, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		lockAt := dateOnly(now).AddDate(0, 0, s.policy.SubmissionWindowDays)

		emp.OnboardingStatus = OnboardingSubmitted
		emp.OnboardingSubmittedAt = &now
		emp.LockAt = &lockAt
		emp.UpdatedAt = now

		result, err := s.repo.Update(txCtx, emp)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.EmployeeSubmittedForReview(ctx, updated); err != nil {
			return nil, fmt.Errorf("employee: notify submission: %w", err)
		}
	}

	return updated, nil
}

// MarkDocumentsReceived は書類受領を記録します。提出済みのオンボーディング
// のみ受領でき、受領済みの社員はロック対象から外れ、ロック済みであれば
// 解除されます。
func (s *Service) MarkDocumentsReceived(ctx context.Context, employeeID string) (*Employee, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}
		if emp.OnboardingStatus != OnboardingSubmitted {
			return fmt.Errorf("status %q: %w", emp.OnboardingStatus, ErrOnboardingNotSubmitted)
		}

		now := s.clock.Now()
		emp.DocumentsReceivedAt = &now
		emp.IsLocked = false
		emp.OnboardingStatus = OnboardingApproved
		emp.UpdatedAt = now

		result, err := s.repo.Update(txCtx, emp)
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

// ApproveGraceInput は猶予承認時の入力です。
type ApproveGraceInput struct {
	EmployeeID  string
	ActorUserID string
	ActorRole   authz.Role
}

// ApproveGrace は提出期限の猶予を承認します。Executive/Manager ロール、
// または対象社員の現在の報告先マネージャーのみ実行できます。猶予期間中は
// ロックが解除され、再ロックの判定は猶予期限後に行われます。
func (s *Service) ApproveGrace(ctx context.Context, in ApproveGraceInput) (*Employee, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}

		allowed := authz.CanPerform(in.ActorRole, authz.ActionApproveGrace)
		if !allowed {
			isManager, err := s.isReportingManager(txCtx, in.EmployeeID, in.ActorUserID)
			if err != nil {
				return err
			}
			allowed = isManager
		}
		if !allowed {
			return ErrPermissionDenied
		}

		now := s.clock.Now()
		graceUntil := dateOnly(now).AddDate(0, 0, s.policy.GraceDays)

		emp.GraceApprovedAt = &now
		emp.GraceUntil = &graceUntil
		emp.IsLocked = false
		emp.UpdatedAt = now

		result, err := s.repo.Update(txCtx, emp)
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

func (s *Service) isReportingManager(ctx context.Context, employeeID, actorUserID string) (bool, error) {
	if strings.TrimSpace(actorUserID) == "" {
		return false, nil
	}
	detail, err := s.repo.LatestEmploymentDetail(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrEmploymentDetailNotFound) {
			return false, nil
		}
		return false, err
	}
	if detail.ReportingManagerID == nil {
		return false, nil
	}

	// ReportingManagerID は社員 ID なので、ログインユーザー ID と
	// 突き合わせるにはマネージャーの社員行を引く必要があります。
	manager, err := s.repo.FindByID(ctx, *detail.ReportingManagerID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return false, nil
		}
		return false, err
	}
	return manager.UserID != nil && *manager.UserID == actorUserID, nil
}

// LockSweepInput はロック掃引の入力です。Today が零値の場合は現在日、
// RequiredTypes が空の場合はポリシーの必須書類を使います。
type LockSweepInput struct {
	Today         time.Time
	RequiredTypes []string
}

// LockSweepResult はロック掃引の結果件数を表します。
type LockSweepResult struct {
	Scanned int
	Locked  int
	Failed  int
}

// RunLockSweep は提出期限・猶予期限を過ぎた社員を走査し、必須書類が
// 揃っていない社員をロックします。個々の社員の失敗は他の社員の判定に
// 影響しません。繰り返し実行しても結果は変わりません。
func (s *Service) RunLockSweep(ctx context.Context, in LockSweepInput) (*LockSweepResult, error) {
	today := in.Today
	if today.IsZero() {
		today = s.clock.Now()
	}
	today = dateOnly(today)

	required := in.RequiredTypes
	if len(required) == 0 {
		required = s.policy.RequiredDocumentTypes
	}

	candidates, err := s.repo.ListDueForLock(ctx, today)
	if err != nil {
		return nil, err
	}

	result := &LockSweepResult{}
	for _, emp := range candidates {
		result.Scanned++

		if emp.DocumentsReceivedAt != nil {
			continue
		}
		if emp.GraceUntil != nil && emp.GraceUntil.After(today) {
			continue
		}

		types, err := s.repo.DocumentTypes(ctx, emp.ID)
		if err != nil {
			result.Failed++
			continue
		}
		if hasAllTypes(types, required) {
			continue
		}

		locked, err := s.repo.Lock(ctx, emp.ID)
		if err != nil {
			result.Failed++
			continue
		}
		if locked {
			result.Locked++
		}
	}

	return result, nil
}

// OnboardNewHireInput は採用確定者から社員を作成する際の入力です。
type OnboardNewHireInput struct {
	UserID      *string
	Name        string
	DateOfBirth *time.Time
	Phone       string
	Address     string
	CNIC        string
	Role        string
	ResumePath  string
}

// OnboardNewHire は採用確定者を社員として登録します。社員コードを採番し、
// オンボーディングを提出済み・期限設定済みの状態で開始します。履歴書が
// あれば CV 書類として登録します。
func (s *Service) OnboardNewHire(ctx context.Context, in OnboardNewHireInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		next, err := s.repo.NextCodeNumber(txCtx)
		if err != nil {
			return err
		}
		code := formatEmployeeCode(next)

		now := s.clock.Now()
		lockAt := dateOnly(now).AddDate(0, 0, s.policy.SubmissionWindowDays)

		emp, err := s.repo.Create(txCtx, &Employee{
			UserID:                in.UserID,
			EmployeeCode:          code,
			CodeNumber:            next,
			Name:                  name,
			DateOfBirth:           normalizeDate(in.DateOfBirth),
			Phone:                 strings.TrimSpace(in.Phone),
			Address:               strings.TrimSpace(in.Address),
			CNIC:                  strings.TrimSpace(in.CNIC),
			Role:                  strings.TrimSpace(in.Role),
			QRPayload:             QRPayloadFor(code, name),
			OnboardingStatus:      OnboardingSubmitted,
			OnboardingSubmittedAt: &now,
			LockAt:                &lockAt,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
		if err != nil {
			return err
		}

		if path := strings.TrimSpace(in.ResumePath); path != "" {
			if _, err := s.repo.CreateDocument(txCtx, &Document{
				EmployeeID: emp.ID,
				Type:       "CV",
				FilePath:   path,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return err
			}
		}

		created = emp
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// CreateLoginInput はログイン発行時の入力です。
type CreateLoginInput struct {
	EmployeeID string
	Email      string
	Role       authz.Role
}

// CreateLoginResult はログイン発行の結果を表します。
// GeneratedPassword は新規発行時のみ一度だけ返されます。
type CreateLoginResult struct {
	User              *user.User
	GeneratedPassword string
	AlreadyLinked     bool
}

// CreateLogin は社員に紐付くログインユーザーを発行します。
// 既にユーザーが紐付いている場合は何もせずその旨を返します。
func (s *Service) CreateLogin(ctx context.Context, in CreateLoginInput) (*CreateLoginResult, error) {
	if s.identities == nil {
		return nil, fmt.Errorf("employee: identity provider is not configured")
	}

	var result *CreateLoginResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		if emp.UserID != nil {
			result = &CreateLoginResult{AlreadyLinked: true}
			return nil
		}

		login, err := s.identities.CreateLogin(txCtx, user.CreateLoginInput{
			Email: in.Email,
			Name:  emp.Name,
			Role:  in.Role,
		})
		if err != nil {
			return err
		}

		emp.UserID = &login.User.ID
		emp.UpdatedAt = s.clock.Now()
		if _, err := s.repo.Update(txCtx, emp); err != nil {
			return err
		}

		result = &CreateLoginResult{
			User:              login.User,
			GeneratedPassword: login.GeneratedPassword,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func hasAllTypes(have, required []string) bool {
	seen := make(map[string]struct{}, len(have))
	for _, t := range have {
		seen[t] = struct{}{}
	}
	for _, t := range required {
		if _, ok := seen[t]; !ok {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
