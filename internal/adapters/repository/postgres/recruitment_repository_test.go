package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/zaylabs/erp/internal/core/recruitment"
)

func TestTranslateRecruitmentPgError(t *testing.T) {
	t.Parallel()

	if err := translateRecruitmentPgError(&pgconn.PgError{Code: foreignKeyViolationCode}); !errors.Is(err, recruitment.ErrRecruitmentNotFound) {
		t.Fatalf("expected not found mapping, got %v", err)
	}

	otherErr := errors.New("random")
	if translateRecruitmentPgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestRecruitmentRepository_ClaimConversion(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	query := regexp.QuoteMeta(`
        UPDATE recruitments
           SET new_hire_employee_id = $2,
               updated_at = NOW()
         WHERE id = $1
           AND new_hire_employee_id IS NULL
    `)

	mock.ExpectExec(query).
		WithArgs("rec-1", "emp-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	claimed, err := repo.ClaimConversion(context.Background(), "rec-1", "emp-1")
	if err != nil {
		t.Fatalf("ClaimConversion returned error: %v", err)
	}
	if !claimed {
		t.Fatalf("expected claim to succeed")
	}

	mock.ExpectExec(query).
		WithArgs("rec-1", "emp-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err = repo.ClaimConversion(context.Background(), "rec-1", "emp-2")
	if err != nil {
		t.Fatalf("ClaimConversion returned error: %v", err)
	}
	if claimed {
		t.Fatalf("expected claim to lose when already set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_CountByStage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'interview'),
               COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'candidate'),
               COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'approved'),
               COUNT(*) FILTER (WHERE lifecycle = 'trashed')
          FROM recruitments
    `)

	rows := pgxmock.NewRows([]string{"interview", "candidate", "approved", "trashed"}).
		AddRow(3, 2, 1, 4)

	mock.ExpectQuery(query).WillReturnRows(rows)

	counts, err := repo.CountByStage(context.Background())
	if err != nil {
		t.Fatalf("CountByStage returned error: %v", err)
	}
	if counts.Interview != 3 || counts.Candidate != 2 || counts.Approved != 1 || counts.Trashed != 4 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_Trash_AlreadyTrashed(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	update := regexp.QuoteMeta(`
        UPDATE recruitments
           SET lifecycle = 'trashed',
               trashed_at = NOW(),
               status_changed_by = COALESCE($2, status_changed_by),
               updated_at = NOW()
         WHERE id = $1
           AND lifecycle = 'active'
    `)

	actor := "user-1"
	mock.ExpectExec(update).
		WithArgs("rec-1", &actor).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	lookup := regexp.QuoteMeta(`SELECT lifecycle FROM recruitments WHERE id = $1 LIMIT 1`)
	mock.ExpectQuery(lookup).
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows([]string{"lifecycle"}).AddRow(string(recruitment.LifecycleTrashed)))

	err = repo.Trash(context.Background(), "rec-1", &actor)
	if !errors.Is(err, recruitment.ErrAlreadyTrashed) {
		t.Fatalf("expected ErrAlreadyTrashed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_Trash_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	update := regexp.QuoteMeta(`
        UPDATE recruitments
           SET lifecycle = 'trashed',
               trashed_at = NOW(),
               status_changed_by = COALESCE($2, status_changed_by),
               updated_at = NOW()
         WHERE id = $1
           AND lifecycle = 'active'
    `)

	mock.ExpectExec(update).
		WithArgs("rec-missing", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	lookup := regexp.QuoteMeta(`SELECT lifecycle FROM recruitments WHERE id = $1 LIMIT 1`)
	mock.ExpectQuery(lookup).
		WithArgs("rec-missing").
		WillReturnError(pgx.ErrNoRows)

	err = repo.Trash(context.Background(), "rec-missing", nil)
	if !errors.Is(err, recruitment.ErrRecruitmentNotFound) {
		t.Fatalf("expected ErrRecruitmentNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_RestoreAll(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	query := regexp.QuoteMeta(`
        UPDATE recruitments
           SET lifecycle = 'active',
               trashed_at = NULL,
               updated_at = NOW()
         WHERE lifecycle = 'trashed'
    `)

	mock.ExpectExec(query).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	restored, err := repo.RestoreAll(context.Background())
	if err != nil {
		t.Fatalf("RestoreAll returned error: %v", err)
	}
	if restored != 3 {
		t.Fatalf("expected 3 restored, got %d", restored)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_Purge_OnlyTrashed(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	query := regexp.QuoteMeta(`
        DELETE FROM recruitments
         WHERE id = $1
           AND lifecycle = 'trashed'
    `)

	mock.ExpectExec(query).
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Purge(context.Background(), "rec-1"); err != nil {
		t.Fatalf("Purge returned error: %v", err)
	}

	mock.ExpectExec(query).
		WithArgs("rec-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lifecycle FROM recruitments WHERE id = $1 LIMIT 1`)).
		WithArgs("rec-2").
		WillReturnRows(pgxmock.NewRows([]string{"lifecycle"}).AddRow("active"))

	if err := repo.Purge(context.Background(), "rec-2"); !errors.Is(err, recruitment.ErrNotTrashed) {
		t.Fatalf("expected ErrNotTrashed for an active record, got %v", err)
	}

	mock.ExpectExec(query).
		WithArgs("rec-3").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lifecycle FROM recruitments WHERE id = $1 LIMIT 1`)).
		WithArgs("rec-3").
		WillReturnError(pgx.ErrNoRows)

	if err := repo.Purge(context.Background(), "rec-3"); !errors.Is(err, recruitment.ErrRecruitmentNotFound) {
		t.Fatalf("expected ErrRecruitmentNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecruitmentRepository_ListTransitionsByStage_DefaultIncludesTrashed(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRecruitmentRepository(mock)

	// 区分未指定の既定出力はライフサイクルで絞り込みません。社員化で
	// ごみ箱入りしたレコードの最終遷移も現れます。
	query := regexp.QuoteMeta(`
        SELECT t.id, t.recruitment_id, t.from_status, t.to_status, t.changed_by, t.notes, t.changed_at, r.candidate_name
          FROM recruitment_transitions t
          JOIN recruitments r ON r.id = t.recruitment_id
         WHERE TRUE
         ORDER BY t.changed_at, t.id
    `)

	changedAt := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(query).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "recruitment_id", "from_status", "to_status", "changed_by", "notes", "changed_at", "candidate_name",
		}).AddRow("tr-1", "rec-1", "hired", "employee", "user-1", "Converted to Employee", changedAt, "Sara Malik"))

	rows, err := repo.ListTransitionsByStage(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTransitionsByStage returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].ToStatus != recruitment.StatusEmployee {
		t.Fatalf("to_status = %q, want employee", rows[0].ToStatus)
	}
	if rows[0].CandidateName != "Sara Malik" {
		t.Fatalf("candidate_name = %q, want Sara Malik", rows[0].CandidateName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
