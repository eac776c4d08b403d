package payroll

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は給与のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase は給与ユースケースの公開インターフェースです。
type UseCase interface {
	Create(ctx context.Context, in CreateEntryInput) (*Entry, error)
	Update(ctx context.Context, in UpdateEntryInput) (*Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in ListEntriesInput) (*ListEntriesResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateEntryInput は給与登録時の入力です。
type CreateEntryInput struct {
	EmployeeID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	BasicSalary   *float64
	HourlyWage    *float64
	Allowances    map[string]any
	Deductions    map[string]any
	Compensations map[string]any
	Notes         string
}

// UpdateEntryInput は給与更新時の入力です。
type UpdateEntryInput struct {
	ID            string
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
	BasicSalary   *float64
	HourlyWage    *float64
	Allowances    map[string]any
	Deductions    map[string]any
	Compensations map[string]any
	Notes         *string
}

// ListEntriesInput は一覧取得時の入力です。
type ListEntriesInput struct {
	EmployeeID string
	PageSize   int
	PageToken  string
}

// ListEntriesResult は一覧取得結果を表します。
type ListEntriesResult struct {
	Entries       []*Entry
	NextPageToken string
}

// Create は給与レコードを登録します。期間の終了日は開始日以降で
// なければなりません。
func (s *Service) Create(ctx context.Context, in CreateEntryInput) (*Entry, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployee
	}
	if err := validatePeriod(in.PeriodStart, in.PeriodEnd); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return s.repo.Create(ctx, &Entry{
		EmployeeID:    in.EmployeeID,
		PeriodStart:   dateOnly(in.PeriodStart),
		PeriodEnd:     dateOnly(in.PeriodEnd),
		BasicSalary:   in.BasicSalary,
		HourlyWage:    in.HourlyWage,
		Allowances:    in.Allowances,
		Deductions:    in.Deductions,
		Compensations: in.Compensations,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// Update は給与レコードを更新します。
func (s *Service) Update(ctx context.Context, in UpdateEntryInput) (*Entry, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.PeriodStart != nil {
		existing.PeriodStart = dateOnly(*in.PeriodStart)
	}
	if in.PeriodEnd != nil {
		existing.PeriodEnd = dateOnly(*in.PeriodEnd)
	}
	if err := validatePeriod(existing.PeriodStart, existing.PeriodEnd); err != nil {
		return nil, err
	}

	if in.BasicSalary != nil {
		existing.BasicSalary = in.BasicSalary
	}
	if in.HourlyWage != nil {
		existing.HourlyWage = in.HourlyWage
	}
	if in.Allowances != nil {
		existing.Allowances = in.Allowances
	}
	if in.Deductions != nil {
		existing.Deductions = in.Deductions
	}
	if in.Compensations != nil {
		existing.Compensations = in.Compensations
	}
	if in.Notes != nil {
		existing.Notes = strings.TrimSpace(*in.Notes)
	}

	existing.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, existing)
}

// Get は給与レコードを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

// Delete は給与レコードを削除します。
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

// List は給与レコードの一覧を取得します。
func (s *Service) List(ctx context.Context, in ListEntriesInput) (*ListEntriesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	entries, nextToken, err := s.repo.List(ctx, ListFilter{EmployeeID: in.EmployeeID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &ListEntriesResult{Entries: entries, NextPageToken: nextToken}, nil
}

func validatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidPeriod
	}
	if dateOnly(end).Before(dateOnly(start)) {
		return ErrInvalidPeriod
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
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
