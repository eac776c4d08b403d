package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zaylabs/erp/internal/core/kpi"
	pgdb "github.com/zaylabs/erp/internal/platform/db/postgres"
)

const kpiColumns = `id, employee_id, period_start, period_end, rating, notes, goals, trainings, skills, reviewed_by, created_at, updated_at`

// KPIRepository は PostgreSQL を利用した評価永続化の実装です。
type KPIRepository struct {
	pool pgdb.Queryer
}

// NewKPIRepository は KPIRepository を生成します。
func NewKPIRepository(pool pgdb.Queryer) *KPIRepository {
	return &KPIRepository{pool: pool}
}

// Create は評価レコードを新規作成します。
func (r *KPIRepository) Create(ctx context.Context, review *kpi.Review) (*kpi.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO kpi_reviews (`+kpiColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING `+kpiColumns+`
    `,
		uuid.NewString(),
		review.EmployeeID,
		review.PeriodStart,
		review.PeriodEnd,
		review.Rating,
		review.Notes,
		review.Goals,
		review.Trainings,
		review.Skills,
		review.ReviewedBy,
		review.CreatedAt,
		review.UpdatedAt,
	)

	created, err := scanKPIReview(row)
	if err != nil {
		return nil, translateKPIPgError(err)
	}
	return created, nil
}

// Update は評価レコードを更新します。
func (r *KPIRepository) Update(ctx context.Context, review *kpi.Review) (*kpi.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE kpi_reviews
           SET period_start = $1,
               period_end = $2,
               rating = $3,
               notes = $4,
               goals = $5,
               trainings = $6,
               skills = $7,
               updated_at = $8
         WHERE id = $9
        RETURNING `+kpiColumns+`
    `,
		review.PeriodStart,
		review.PeriodEnd,
		review.Rating,
		review.Notes,
		review.Goals,
		review.Trainings,
		review.Skills,
		review.UpdatedAt,
		review.ID,
	)

	updated, err := scanKPIReview(row)
	if err != nil {
		return nil, translateKPIPgError(err)
	}
	return updated, nil
}

// Delete は評価レコードを削除します。
func (r *KPIRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM kpi_reviews WHERE id = $1`, id)
	if err != nil {
		return translateKPIPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return kpi.ErrReviewNotFound
	}
	return nil
}

// FindByID はIDで評価レコードを取得します。
func (r *KPIRepository) FindByID(ctx context.Context, id string) (*kpi.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+kpiColumns+`
          FROM kpi_reviews
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanKPIReview(row)
	if err != nil {
		return nil, translateKPIPgError(err)
	}
	return found, nil
}

// List は評価レコードの一覧を取得します。
func (r *KPIRepository) List(ctx context.Context, filter kpi.ListFilter) ([]*kpi.Review, string, error) {
	if filter.Limit <= 0 {
		return nil, "", kpi.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", kpi.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := []any{limitWithBuffer, filter.Offset}
	whereClause := "TRUE"
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		whereClause = "employee_id = $" + strconv.Itoa(len(args))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+kpiColumns+`
          FROM kpi_reviews
         WHERE `+whereClause+`
         ORDER BY period_start DESC, id DESC
         LIMIT $1
        OFFSET $2
    `, args...)
	if err != nil {
		return nil, "", translateKPIPgError(err)
	}
	defer rows.Close()

	reviews := make([]*kpi.Review, 0, filter.Limit)
	for rows.Next() {
		review, err := scanKPIReview(rows)
		if err != nil {
			return nil, "", translateKPIPgError(err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateKPIPgError(err)
	}

	var nextToken string
	if len(reviews) == limitWithBuffer {
		reviews = reviews[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return reviews, nextToken, nil
}

// ListRecent は直近の評価レコードを返します。
func (r *KPIRepository) ListRecent(ctx context.Context, limit int) ([]*kpi.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+kpiColumns+`
          FROM kpi_reviews
         ORDER BY created_at DESC, id DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, translateKPIPgError(err)
	}
	defer rows.Close()

	var reviews []*kpi.Review
	for rows.Next() {
		review, err := scanKPIReview(rows)
		if err != nil {
			return nil, translateKPIPgError(err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, translateKPIPgError(err)
	}
	return reviews, nil
}

func scanKPIReview(row pgx.Row) (*kpi.Review, error) {
	var (
		id          string
		employeeID  string
		periodStart time.Time
		periodEnd   time.Time
		rating      int
		notes       string
		goals       map[string]any
		trainings   map[string]any
		skills      map[string]any
		reviewedBy  sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&periodStart,
		&periodEnd,
		&rating,
		&notes,
		&goals,
		&trainings,
		&skills,
		&reviewedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kpi.ErrReviewNotFound
		}
		return nil, err
	}

	return &kpi.Review{
		ID:          id,
		EmployeeID:  employeeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Rating:      rating,
		Notes:       notes,
		Goals:       goals,
		Trainings:   trainings,
		Skills:      skills,
		ReviewedBy:  nullableString(reviewedBy),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateKPIPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return kpi.ErrInvalidEmployee
		case checkViolationCode:
			return kpi.ErrInvalidRating
		}
	}
	return err
}
