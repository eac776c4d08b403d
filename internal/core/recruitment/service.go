package recruitment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/employee"
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

// IdentityDirectory は社員化で使うログインユーザーの検索・作成を提供します。
type IdentityDirectory interface {
	FindOrCreateByEmail(ctx context.Context, in user.FindOrCreateInput) (*user.FindOrCreateResult, error)
}

// Onboarder は社員化で使う社員レコードの作成を提供します。
type Onboarder interface {
	OnboardNewHire(ctx context.Context, in employee.OnboardNewHireInput) (*employee.Employee, error)
}

// 遷移履歴に記録する注記です。
const (
	noteOnboardingSubmitted    = "Onboarding submitted"
	noteQualifiedByInterviewer = "Qualified by interviewer"
	noteRejectedByInterviewer  = "Rejected by interviewer"
	noteApprovedByHR           = "Approved by HR"
	noteConvertedToEmployee    = "Converted to Employee"
)

// 社員化の前提未達を表す応答メッセージです。呼び出し側は
// エラーではなくこのメッセージで結果を判定します。
const (
	MessageNotApproved      = "Recruitment not approved"
	MessageNotSuitable      = "Recruitment not suitable"
	MessageAlreadyConverted = "Already converted"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// errConversionClaimed はクレーム競合でトランザクションを巻き戻すための内部エラーです。
var errConversionClaimed = errors.New("recruitment: conversion already claimed")

// Service は採用パイプラインのユースケースをまとめます。
type Service struct {
	repo       Repository
	identities IdentityDirectory
	onboarder  Onboarder
	clock      Clock
	tx         TransactionManager
}

// UseCase は採用ユースケースの公開インターフェースです。
type UseCase interface {
	Create(ctx context.Context, in CreateRecruitmentInput) (*Recruitment, error)
	Update(ctx context.Context, in UpdateRecruitmentInput) (*Recruitment, error)
	Approve(ctx context.Context, in ApproveInput) (*Recruitment, error)
	ConvertToEmployee(ctx context.Context, in ConvertInput) (*ConvertResult, error)
	ExtendOffer(ctx context.Context, id string, actorUserID *string) (*Recruitment, error)
	MarkHired(ctx context.Context, id string, actorUserID *string) (*Recruitment, error)
	Get(ctx context.Context, id string) (*Recruitment, error)
	List(ctx context.Context, in ListRecruitmentsInput) (*ListRecruitmentsResult, error)
	CountByStage(ctx context.Context) (*StageCounts, error)
	Destroy(ctx context.Context, id string, actorUserID *string) error
	Restore(ctx context.Context, id string) error
	RestoreAll(ctx context.Context) (int, error)
	ForceDelete(ctx context.Context, id string) error
	ListTransitions(ctx context.Context, recruitmentID string) ([]*Transition, error)
	ExportTransitions(ctx context.Context, stage Stage, w io.Writer) error
}

// NewService は Service を生成します。
func NewService(repo Repository, identities IdentityDirectory, onboarder Onboarder, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:       repo,
		identities: identities,
		onboarder:  onboarder,
		clock:      clock,
		tx:         tx,
	}
}

// CreateRecruitmentInput は応募登録時の入力です。
type CreateRecruitmentInput struct {
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
	Education       map[string]any
	Experience      map[string]any
	CreatedBy       *string
}

// Create は応募を登録します。登録と同時に選考状態は interview となり、
// 最初の遷移行が記録されます。
func (s *Service) Create(ctx context.Context, in CreateRecruitmentInput) (*Recruitment, error) {
	name := strings.TrimSpace(in.CandidateName)
	if name == "" {
		return nil, ErrInvalidCandidate
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	var created *Recruitment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		r := &Recruitment{
			CandidateName:   name,
			Email:           email,
			Phone:           strings.TrimSpace(in.Phone),
			CNIC:            strings.TrimSpace(in.CNIC),
			FatherName:      strings.TrimSpace(in.FatherName),
			Address:         strings.TrimSpace(in.Address),
			DateOfBirth:     in.DateOfBirth,
			PositionApplied: strings.TrimSpace(in.PositionApplied),
			ExpectedSalary:  in.ExpectedSalary,
			CVPath:          strings.TrimSpace(in.CVPath),
			Education:       in.Education,
			Experience:      in.Experience,
			Status:          StatusInterview,
			Lifecycle:       LifecycleActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		result, err := s.repo.Create(txCtx, r)
		if err != nil {
			return err
		}

		if _, err := s.repo.CreateTransition(txCtx, &Transition{
			RecruitmentID: result.ID,
			FromStatus:    nil,
			ToStatus:      StatusInterview,
			ChangedBy:     in.CreatedBy,
			Notes:         noteOnboardingSubmitted,
			ChangedAt:     now,
		}); err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateRecruitmentInput は応募更新時の入力です。
// InterviewerSuitable を設定すると面接判定が実行されます。
type UpdateRecruitmentInput struct {
	ID                  string
	CandidateName       *string
	Email               *string
	Phone               *string
	CNIC                *string
	FatherName          *string
	Address             *string
	PositionApplied     *string
	ExpectedSalary      *float64
	CVPath              *string
	Education           map[string]any
	Experience          map[string]any
	InterviewerSuitable *bool
	InterviewNotes      *string
	ActorUserID         *string
}

// Update は応募情報を更新します。面接判定(suitable)の初回設定は
// 選考状態を candidate または rejected へ進め、遷移行を一行記録します。
// 同じ判定値での再保存は遷移を生みません。
func (s *Service) Update(ctx context.Context, in UpdateRecruitmentInput) (*Recruitment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Recruitment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.CandidateName != nil {
			name := strings.TrimSpace(*in.CandidateName)
			if name == "" {
				return ErrInvalidCandidate
			}
			existing.CandidateName = name
		}
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			existing.Email = email
		}
		if in.Phone != nil {
			existing.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.CNIC != nil {
			existing.CNIC = strings.TrimSpace(*in.CNIC)
		}
		if in.FatherName != nil {
			existing.FatherName = strings.TrimSpace(*in.FatherName)
		}
		if in.Address != nil {
			existing.Address = strings.TrimSpace(*in.Address)
		}
		if in.PositionApplied != nil {
			existing.PositionApplied = strings.TrimSpace(*in.PositionApplied)
		}
		if in.ExpectedSalary != nil {
			existing.ExpectedSalary = in.ExpectedSalary
		}
		if in.CVPath != nil {
			existing.CVPath = strings.TrimSpace(*in.CVPath)
		}
		if in.Education != nil {
			existing.Education = in.Education
		}
		if in.Experience != nil {
			existing.Experience = in.Experience
		}
		if in.InterviewNotes != nil {
			existing.InterviewNotes = strings.TrimSpace(*in.InterviewNotes)
		}

		now := s.clock.Now()

		if in.InterviewerSuitable != nil && !sameDecision(existing.InterviewerSuitable, in.InterviewerSuitable) {
			existing.InterviewerSuitable = in.InterviewerSuitable

			trigger := TriggerQualify
			note := noteQualifiedByInterviewer
			if !*in.InterviewerSuitable {
				trigger = TriggerReject
				note = noteRejectedByInterviewer
			}
			if err := s.applyTransition(txCtx, existing, trigger, in.ActorUserID, note, now); err != nil {
				return err
			}
		}

		existing.UpdatedAt = now
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

// ApproveInput は HR 承認時の入力です。
type ApproveInput struct {
	ID          string
	ActorUserID string
	ActorRole   authz.Role
}

// Approve は候補者を HR 承認します。Admin/Executive/Manager のみ実行できます。
func (s *Service) Approve(ctx context.Context, in ApproveInput) (*Recruitment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}
	if !authz.CanPerform(in.ActorRole, authz.ActionApproveRecruitment) {
		return nil, ErrPermissionDenied
	}

	var updated *Recruitment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := s.applyTransition(txCtx, existing, TriggerApprove, &in.ActorUserID, noteApprovedByHR, now); err != nil {
			return err
		}

		existing.HRApprovedBy = &in.ActorUserID
		existing.HRApprovedAt = &now
		existing.UpdatedAt = now

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

// ConvertInput は社員化時の入力です。
type ConvertInput struct {
	ID          string
	ActorUserID string
	ActorRole   authz.Role
}

// ConvertResult は社員化の結果を表します。前提未達は Converted=false と
// Message で報告され、エラーにはなりません。
type ConvertResult struct {
	Converted  bool
	Message    string
	EmployeeID string
}

// ConvertToEmployee は承認済み・適合判定済みの候補者を社員化します。
// 同一レコードに対して社員が作成されるのは一度だけです。社員化後の
// 採用レコードはごみ箱へ移されます。
func (s *Service) ConvertToEmployee(ctx context.Context, in ConvertInput) (*ConvertResult, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}
	if !authz.CanPerform(in.ActorRole, authz.ActionConvertRecruitment) {
		return nil, ErrPermissionDenied
	}

	var result *ConvertResult
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if existing.HRApprovedAt == nil {
			result = &ConvertResult{Message: MessageNotApproved}
			return nil
		}
		if existing.InterviewerSuitable == nil || !*existing.InterviewerSuitable {
			result = &ConvertResult{Message: MessageNotSuitable}
			return nil
		}
		if existing.NewHireEmployeeID != nil {
			result = &ConvertResult{Message: MessageAlreadyConverted}
			return nil
		}

		identity, err := s.identities.FindOrCreateByEmail(txCtx, user.FindOrCreateInput{
			Email: existing.Email,
			Name:  existing.CandidateName,
			Role:  authz.RoleEmployee,
		})
		if err != nil {
			return err
		}

		emp, err := s.onboarder.OnboardNewHire(txCtx, employee.OnboardNewHireInput{
			UserID:      &identity.User.ID,
			Name:        existing.CandidateName,
			DateOfBirth: existing.DateOfBirth,
			Phone:       existing.Phone,
			Address:     existing.Address,
			CNIC:        existing.CNIC,
			Role:        existing.PositionApplied,
			ResumePath:  existing.CVPath,
		})
		if err != nil {
			return err
		}

		claimed, err := s.repo.ClaimConversion(txCtx, existing.ID, emp.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// 競合した側の社員作成ごと巻き戻します。
			return errConversionClaimed
		}
		existing.NewHireEmployeeID = &emp.ID

		now := s.clock.Now()
		if err := s.applyTransition(txCtx, existing, TriggerConvert, &in.ActorUserID, noteConvertedToEmployee, now); err != nil {
			return err
		}

		existing.UpdatedAt = now
		if _, err := s.repo.Update(txCtx, existing); err != nil {
			return err
		}

		actor := in.ActorUserID
		if err := s.repo.Trash(txCtx, existing.ID, &actor); err != nil {
			return err
		}

		result = &ConvertResult{
			Converted:  true,
			Message:    noteConvertedToEmployee,
			EmployeeID: emp.ID,
		}
		return nil
	})
	if errors.Is(err, errConversionClaimed) {
		return &ConvertResult{Message: MessageAlreadyConverted}, nil
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ExtendOffer は承認済み候補者にオファーを提示した状態へ進めます。
func (s *Service) ExtendOffer(ctx context.Context, id string, actorUserID *string) (*Recruitment, error) {
	return s.advance(ctx, id, TriggerOffer, actorUserID, "Offer extended")
}

// MarkHired はオファー受諾を記録します。
func (s *Service) MarkHired(ctx context.Context, id string, actorUserID *string) (*Recruitment, error) {
	return s.advance(ctx, id, TriggerHire, actorUserID, "Offer accepted")
}

func (s *Service) advance(ctx context.Context, id string, trigger Trigger, actorUserID *string, note string) (*Recruitment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var updated *Recruitment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := s.applyTransition(txCtx, existing, trigger, actorUserID, note, now); err != nil {
			return err
		}

		existing.UpdatedAt = now
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

// applyTransition は FSM の判定を通して状態を進め、遷移行を一行記録します。
func (s *Service) applyTransition(ctx context.Context, r *Recruitment, trigger Trigger, actorUserID *string, note string, now time.Time) error {
	from := r.Status
	to, err := nextStatus(from, trigger)
	if err != nil {
		return err
	}

	r.Status = to
	r.StatusChangedBy = actorUserID
	r.StatusChangedAt = &now

	fromCopy := from
	_, err = s.repo.CreateTransition(ctx, &Transition{
		RecruitmentID: r.ID,
		FromStatus:    &fromCopy,
		ToStatus:      to,
		ChangedBy:     actorUserID,
		Notes:         note,
		ChangedAt:     now,
	})
	return err
}

// Get は採用レコードを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Recruitment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

// ListRecruitmentsInput は一覧取得時の入力です。
type ListRecruitmentsInput struct {
	Stage     Stage
	PageSize  int
	PageToken string
}

// ListRecruitmentsResult は一覧取得結果を表します。
type ListRecruitmentsResult struct {
	Recruitments  []*Recruitment
	NextPageToken string
}

// List は採用レコードの一覧を区分フィルタ付きで取得します。
func (s *Service) List(ctx context.Context, in ListRecruitmentsInput) (*ListRecruitmentsResult, error) {
	if in.Stage != "" && !isValidStage(in.Stage) {
		return nil, ErrInvalidStage
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	recruitments, nextToken, err := s.repo.List(ctx, ListFilter{Stage: in.Stage, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &ListRecruitmentsResult{Recruitments: recruitments, NextPageToken: nextToken}, nil
}

// CountByStage は区分ごとの件数を返します。
func (s *Service) CountByStage(ctx context.Context) (*StageCounts, error) {
	return s.repo.CountByStage(ctx)
}

// Destroy は採用レコードをごみ箱へ移します。
func (s *Service) Destroy(ctx context.Context, id string, actorUserID *string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Trash(txCtx, id, actorUserID)
	})
}

// Restore はごみ箱の採用レコードを元へ戻します。
func (s *Service) Restore(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Restore(txCtx, id)
	})
}

// RestoreAll はごみ箱の全レコードを戻し、件数を返します。
func (s *Service) RestoreAll(ctx context.Context) (int, error) {
	var restored int
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		count, err := s.repo.RestoreAll(txCtx)
		if err != nil {
			return err
		}
		restored = count
		return nil
	}); err != nil {
		return 0, err
	}
	return restored, nil
}

// ForceDelete は採用レコードを遷移履歴ごと物理削除します。
func (s *Service) ForceDelete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Purge(txCtx, id)
	})
}

// ListTransitions は指定レコードの遷移履歴を時系列順に返します。
func (s *Service) ListTransitions(ctx context.Context, recruitmentID string) ([]*Transition, error) {
	if strings.TrimSpace(recruitmentID) == "" {
		return nil, ErrInvalidID
	}
	return s.repo.ListTransitions(ctx, recruitmentID)
}

// exportHeader は監査エクスポートの固定列順です。
var exportHeader = []string{"recruitment_id", "candidate_name", "changed_at", "from_status", "to_status", "changed_by", "notes"}

// ExportTransitions は指定区分の遷移履歴を CSV として書き出します。
func (s *Service) ExportTransitions(ctx context.Context, stage Stage, w io.Writer) error {
	if stage != "" && !isValidStage(stage) {
		return ErrInvalidStage
	}

	rows, err := s.repo.ListTransitionsByStage(ctx, stage)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("recruitment: write export header: %w", err)
	}
	for _, row := range rows {
		from := ""
		if row.FromStatus != nil {
			from = string(*row.FromStatus)
		}
		changedBy := ""
		if row.ChangedBy != nil {
			changedBy = *row.ChangedBy
		}
		record := []string{
			row.RecruitmentID,
			row.CandidateName,
			row.ChangedAt.Format(time.RFC3339),
			from,
			string(row.ToStatus),
			changedBy,
			row.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("recruitment: write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sameDecision(current, incoming *bool) bool {
	return current != nil && incoming != nil && *current == *incoming
}

func isValidStage(stage Stage) bool {
	switch stage {
	case StageInterview, StageCandidate, StageApproved, StageTrashed:
		return true
	default:
		return false
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(trimmed), nil
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
