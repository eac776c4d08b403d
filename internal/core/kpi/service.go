package kpi

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

	minRating = 1
	maxRating = 5
)

// Service は評価のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase は評価ユースケースの公開インターフェースです。
type UseCase interface {
	Create(ctx context.Context, in CreateReviewInput) (*Review, error)
	Update(ctx context.Context, in UpdateReviewInput) (*Review, error)
	Get(ctx context.Context, id string) (*Review, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in ListReviewsInput) (*ListReviewsResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateReviewInput は評価登録時の入力です。
type CreateReviewInput struct {
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Rating      int
	Notes       string
	Goals       map[string]any
	Trainings   map[string]any
	Skills      map[string]any
	ReviewedBy  *string
}

// UpdateReviewInput は評価更新時の入力です。
type UpdateReviewInput struct {
	ID          string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Rating      *int
	Notes       *string
	Goals       map[string]any
	Trainings   map[string]any
	Skills      map[string]any
}

// ListReviewsInput は一覧取得時の入力です。
type ListReviewsInput struct {
	EmployeeID string
	PageSize   int
	PageToken  string
}

// ListReviewsResult は一覧取得結果を表します。
type ListReviewsResult struct {
	Reviews       []*Review
	NextPageToken string
}

// Create は評価レコードを登録します。
func (s *Service) Create(ctx context.Context, in CreateReviewInput) (*Review, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployee
	}
	if err := validatePeriod(in.PeriodStart, in.PeriodEnd); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return s.repo.Create(ctx, &Review{
		EmployeeID:  in.EmployeeID,
		PeriodStart: dateOnly(in.PeriodStart),
		PeriodEnd:   dateOnly(in.PeriodEnd),
		Rating:      in.Rating,
		Notes:       strings.TrimSpace(in.Notes),
		Goals:       in.Goals,
		Trainings:   in.Trainings,
		Skills:      in.Skills,
		ReviewedBy:  in.ReviewedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update は評価レコードを更新します。
func (s *Service) Update(ctx context.Context, in UpdateReviewInput) (*Review, error) {
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

	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		existing.Rating = *in.Rating
	}
	if in.Notes != nil {
		existing.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Goals != nil {
		existing.Goals = in.Goals
	}
	if in.Trainings != nil {
		existing.Trainings = in.Trainings
	}
	if in.Skills != nil {
		existing.Skills = in.Skills
	}

	existing.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, existing)
}

// Get は評価レコードを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Review, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

// Delete は評価レコードを削除します。
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

// List は評価レコードの一覧を取得します。
func (s *Service) List(ctx context.Context, in ListReviewsInput) (*ListReviewsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	reviews, nextToken, err := s.repo.List(ctx, ListFilter{EmployeeID: in.EmployeeID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &ListReviewsResult{Reviews: reviews, NextPageToken: nextToken}, nil
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

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return ErrInvalidRating
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
