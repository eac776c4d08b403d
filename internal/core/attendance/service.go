package attendance

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

// Service は勤怠のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase は勤怠ユースケースの公開インターフェースです。
type UseCase interface {
	Create(ctx context.Context, in CreateRecordInput) (*Record, error)
	Update(ctx context.Context, in UpdateRecordInput) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in ListRecordsInput) (*ListRecordsResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateRecordInput は勤怠登録時の入力です。
type CreateRecordInput struct {
	EmployeeID string
	WorkDate   time.Time
	ClockIn    *time.Time
	ClockOut   *time.Time
	Status     Status
	LeaveType  string
	Notes      string
}

// UpdateRecordInput は勤怠更新時の入力です。
type UpdateRecordInput struct {
	ID        string
	ClockIn   *time.Time
	ClockOut  *time.Time
	Status    *Status
	LeaveType *string
	Notes     *string
}

// ListRecordsInput は一覧取得時の入力です。
type ListRecordsInput struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
	PageSize   int
	PageToken  string
}

// ListRecordsResult は一覧取得結果を表します。
type ListRecordsResult struct {
	Records       []*Record
	NextPageToken string
}

// Create は勤怠レコードを登録します。
func (s *Service) Create(ctx context.Context, in CreateRecordInput) (*Record, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployee
	}
	if in.WorkDate.IsZero() {
		return nil, ErrInvalidWorkDate
	}
	if !isValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}
	if err := validateClockRange(in.ClockIn, in.ClockOut); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return s.repo.Create(ctx, &Record{
		EmployeeID: in.EmployeeID,
		WorkDate:   dateOnly(in.WorkDate),
		ClockIn:    in.ClockIn,
		ClockOut:   in.ClockOut,
		Status:     in.Status,
		LeaveType:  strings.TrimSpace(in.LeaveType),
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Update は勤怠レコードを更新します。
func (s *Service) Update(ctx context.Context, in UpdateRecordInput) (*Record, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.ClockIn != nil {
		existing.ClockIn = in.ClockIn
	}
	if in.ClockOut != nil {
		existing.ClockOut = in.ClockOut
	}
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		existing.Status = *in.Status
	}
	if in.LeaveType != nil {
		existing.LeaveType = strings.TrimSpace(*in.LeaveType)
	}
	if in.Notes != nil {
		existing.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := validateClockRange(existing.ClockIn, existing.ClockOut); err != nil {
		return nil, err
	}

	existing.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, existing)
}

// Get は勤怠レコードを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

// Delete は勤怠レコードを削除します。
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

// List は勤怠レコードの一覧を取得します。
func (s *Service) List(ctx context.Context, in ListRecordsInput) (*ListRecordsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	records, nextToken, err := s.repo.List(ctx, ListFilter{
		EmployeeID: in.EmployeeID,
		From:       in.From,
		To:         in.To,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	return &ListRecordsResult{Records: records, NextPageToken: nextToken}, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusOnLeave, StatusHoliday:
		return true
	default:
		return false
	}
}

func validateClockRange(in, out *time.Time) error {
	if in != nil && out != nil && out.Before(*in) {
		return ErrInvalidClockRange
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
