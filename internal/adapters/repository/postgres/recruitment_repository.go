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
	"github.com/zaylabs/erp/internal/core/recruitment"
	pgdb "github.com/zaylabs/erp/internal/platform/db/postgres"
)

const recruitmentColumns = `id, candidate_name, email, phone, cnic, father_name, address, date_of_birth, position_applied, expected_salary, cv_path, education, experience, status, status_changed_by, status_changed_at, interviewer_suitable, interview_notes, hr_approved_by, hr_approved_at, new_hire_employee_id, lifecycle, trashed_at, created_at, updated_at`

const transitionColumns = `id, recruitment_id, from_status, to_status, changed_by, notes, changed_at`

// RecruitmentRepository は PostgreSQL を利用した採用レコード永続化の実装です。
type RecruitmentRepository struct {
	pool pgdb.Queryer
}

// NewRecruitmentRepository は RecruitmentRepository を生成します。
func NewRecruitmentRepository(pool pgdb.Queryer) *RecruitmentRepository {
	return &RecruitmentRepository{pool: pool}
}

// Create は採用レコードを新規作成します。
func (r *RecruitmentRepository) Create(ctx context.Context, rec *recruitment.Recruitment) (*recruitment.Recruitment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO recruitments (`+recruitmentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
        RETURNING `+recruitmentColumns+`
    `,
		uuid.NewString(),
		rec.CandidateName,
		rec.Email,
		rec.Phone,
		rec.CNIC,
		rec.FatherName,
		rec.Address,
		rec.DateOfBirth,
		rec.PositionApplied,
		rec.ExpectedSalary,
		rec.CVPath,
		rec.Education,
		rec.Experience,
		string(rec.Status),
		rec.StatusChangedBy,
		rec.StatusChangedAt,
		rec.InterviewerSuitable,
		rec.InterviewNotes,
		rec.HRApprovedBy,
		rec.HRApprovedAt,
		rec.NewHireEmployeeID,
		string(rec.Lifecycle),
		rec.TrashedAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	created, err := scanRecruitment(row)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return created, nil
}

// Update は採用レコードを更新します。new_hire_employee_id は
// ClaimConversion 以外では書き換えません。
func (r *RecruitmentRepository) Update(ctx context.Context, rec *recruitment.Recruitment) (*recruitment.Recruitment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE recruitments
           SET candidate_name = $1,
               email = $2,
               phone = $3,
               cnic = $4,
               father_name = $5,
               address = $6,
               date_of_birth = $7,
               position_applied = $8,
               expected_salary = $9,
               cv_path = $10,
               education = $11,
               experience = $12,
               status = $13,
               status_changed_by = $14,
               status_changed_at = $15,
               interviewer_suitable = $16,
               interview_notes = $17,
               hr_approved_by = $18,
               hr_approved_at = $19,
               updated_at = $20
         WHERE id = $21
        RETURNING `+recruitmentColumns+`
    `,
		rec.CandidateName,
		rec.Email,
		rec.Phone,
		rec.CNIC,
		rec.FatherName,
		rec.Address,
		rec.DateOfBirth,
		rec.PositionApplied,
		rec.ExpectedSalary,
		rec.CVPath,
		rec.Education,
		rec.Experience,
		string(rec.Status),
		rec.StatusChangedBy,
		rec.StatusChangedAt,
		rec.InterviewerSuitable,
		rec.InterviewNotes,
		rec.HRApprovedBy,
		rec.HRApprovedAt,
		rec.UpdatedAt,
		rec.ID,
	)

	updated, err := scanRecruitment(row)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return updated, nil
}

// FindByID はIDで採用レコードを取得します。
func (r *RecruitmentRepository) FindByID(ctx context.Context, id string) (*recruitment.Recruitment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+recruitmentColumns+`
          FROM recruitments
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanRecruitment(row)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return found, nil
}

// List は採用レコードの一覧を区分フィルタ付きで取得します。
func (r *RecruitmentRepository) List(ctx context.Context, filter recruitment.ListFilter) ([]*recruitment.Recruitment, string, error) {
	if filter.Limit <= 0 {
		return nil, "", recruitment.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", recruitment.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	whereClause := `lifecycle = 'active'`
	args := []any{limitWithBuffer, filter.Offset}
	switch filter.Stage {
	case "":
	case recruitment.StageTrashed:
		whereClause = `lifecycle = 'trashed'`
	default:
		whereClause = `lifecycle = 'active' AND status = $3`
		args = append(args, string(filter.Stage))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+recruitmentColumns+`
          FROM recruitments
         WHERE `+whereClause+`
         ORDER BY created_at DESC, id DESC
         LIMIT $1
        OFFSET $2
    `, args...)
	if err != nil {
		return nil, "", translateRecruitmentPgError(err)
	}
	defer rows.Close()

	recruitments := make([]*recruitment.Recruitment, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanRecruitment(rows)
		if err != nil {
			return nil, "", translateRecruitmentPgError(err)
		}
		recruitments = append(recruitments, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateRecruitmentPgError(err)
	}

	var nextToken string
	if len(recruitments) == limitWithBuffer {
		recruitments = recruitments[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return recruitments, nextToken, nil
}

// CountByStage は区分ごとの件数を返します。
func (r *RecruitmentRepository) CountByStage(ctx context.Context) (*recruitment.StageCounts, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'interview'),
               COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'candidate'),
               COUNT(*) FILTER (WHERE lifecycle = 'active' AND status = 'approved'),
               COUNT(*) FILTER (WHERE lifecycle = 'trashed')
          FROM recruitments
    `)

	counts := &recruitment.StageCounts{}
	if err := row.Scan(&counts.Interview, &counts.Candidate, &counts.Approved, &counts.Trashed); err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return counts, nil
}

// Trash は有効レコードをごみ箱へ移します。
func (r *RecruitmentRepository) Trash(ctx context.Context, id string, trashedBy *string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE recruitments
           SET lifecycle = 'trashed',
               trashed_at = NOW(),
               status_changed_by = COALESCE($2, status_changed_by),
               updated_at = NOW()
         WHERE id = $1
           AND lifecycle = 'active'
    `, id, trashedBy)
	if err != nil {
		return translateRecruitmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.lifecycleConflict(ctx, id, recruitment.ErrAlreadyTrashed)
	}
	return nil
}

// Restore はごみ箱のレコードを有効へ戻します。
func (r *RecruitmentRepository) Restore(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE recruitments
           SET lifecycle = 'active',
               trashed_at = NULL,
               updated_at = NOW()
         WHERE id = $1
           AND lifecycle = 'trashed'
    `, id)
	if err != nil {
		return translateRecruitmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.lifecycleConflict(ctx, id, recruitment.ErrNotTrashed)
	}
	return nil
}

// RestoreAll はごみ箱の全レコードを戻し、件数を返します。
func (r *RecruitmentRepository) RestoreAll(ctx context.Context) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE recruitments
           SET lifecycle = 'active',
               trashed_at = NULL,
               updated_at = NOW()
         WHERE lifecycle = 'trashed'
    `)
	if err != nil {
		return 0, translateRecruitmentPgError(err)
	}
	return int(tag.RowsAffected()), nil
}

// Purge はごみ箱のレコードを物理削除します。有効なレコードは対象外です。
// 遷移履歴は外部キーの連鎖で削除されます。
func (r *RecruitmentRepository) Purge(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        DELETE FROM recruitments
         WHERE id = $1
           AND lifecycle = 'trashed'
    `, id)
	if err != nil {
		return translateRecruitmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.lifecycleConflict(ctx, id, recruitment.ErrNotTrashed)
	}
	return nil
}

// ClaimConversion は new_hire_employee_id を未設定の場合に限り設定します。
func (r *RecruitmentRepository) ClaimConversion(ctx context.Context, id, employeeID string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE recruitments
           SET new_hire_employee_id = $2,
               updated_at = NOW()
         WHERE id = $1
           AND new_hire_employee_id IS NULL
    `, id, employeeID)
	if err != nil {
		return false, translateRecruitmentPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateTransition は遷移行を追記します。
func (r *RecruitmentRepository) CreateTransition(ctx context.Context, t *recruitment.Transition) (*recruitment.Transition, error) {
	var from *string
	if t.FromStatus != nil {
		s := string(*t.FromStatus)
		from = &s
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO recruitment_transitions (`+transitionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+transitionColumns+`
    `, uuid.NewString(), t.RecruitmentID, from, string(t.ToStatus), t.ChangedBy, t.Notes, t.ChangedAt)

	created, err := scanTransition(row)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return created, nil
}

// ListTransitions は指定レコードの遷移履歴を changed_at 昇順で返します。
func (r *RecruitmentRepository) ListTransitions(ctx context.Context, recruitmentID string) ([]*recruitment.Transition, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+transitionColumns+`
          FROM recruitment_transitions
         WHERE recruitment_id = $1
         ORDER BY changed_at, id
    `, recruitmentID)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	defer rows.Close()

	var transitions []*recruitment.Transition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, translateRecruitmentPgError(err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return transitions, nil
}

// ListTransitionsByStage は現在の区分が stage のレコードの遷移履歴を
// 候補者名付き・changed_at 昇順で返します。stage が空の場合は
// ごみ箱入りのレコードも含めた全遷移が対象です。社員化された
// レコードの最終遷移はごみ箱側にあるため、既定の監査出力から
// 除外してはなりません。
func (r *RecruitmentRepository) ListTransitionsByStage(ctx context.Context, stage recruitment.Stage) ([]*recruitment.AuditRow, error) {
	whereClause := `TRUE`
	var args []any
	switch stage {
	case "":
	case recruitment.StageTrashed:
		whereClause = `r.lifecycle = 'trashed'`
	default:
		whereClause = `r.lifecycle = 'active' AND r.status = $1`
		args = append(args, string(stage))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT t.id, t.recruitment_id, t.from_status, t.to_status, t.changed_by, t.notes, t.changed_at, r.candidate_name
          FROM recruitment_transitions t
          JOIN recruitments r ON r.id = t.recruitment_id
         WHERE `+whereClause+`
         ORDER BY t.changed_at, t.id
    `, args...)
	if err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	defer rows.Close()

	var out []*recruitment.AuditRow
	for rows.Next() {
		var (
			id        string
			recID     string
			from      sql.NullString
			to        string
			changedBy sql.NullString
			notes     string
			changedAt time.Time
			candidate string
		)
		if err := rows.Scan(&id, &recID, &from, &to, &changedBy, &notes, &changedAt, &candidate); err != nil {
			return nil, translateRecruitmentPgError(err)
		}

		row := &recruitment.AuditRow{CandidateName: candidate}
		row.ID = id
		row.RecruitmentID = recID
		row.ToStatus = recruitment.Status(to)
		row.Notes = notes
		row.ChangedAt = changedAt
		if from.Valid {
			s := recruitment.Status(from.String)
			row.FromStatus = &s
		}
		row.ChangedBy = nullableString(changedBy)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translateRecruitmentPgError(err)
	}
	return out, nil
}

// lifecycleConflict はライフサイクル条件付きの更新が空振りした原因を
// 判別します。行が存在しなければ未発見、存在すれば conflict を返します。
func (r *RecruitmentRepository) lifecycleConflict(ctx context.Context, id string, conflict error) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT lifecycle FROM recruitments WHERE id = $1 LIMIT 1`, id)

	var lifecycle string
	if err := row.Scan(&lifecycle); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recruitment.ErrRecruitmentNotFound
		}
		return translateRecruitmentPgError(err)
	}
	return conflict
}

func scanRecruitment(row pgx.Row) (*recruitment.Recruitment, error) {
	var (
		id                string
		candidateName     string
		email             string
		phone             string
		cnic              string
		fatherName        string
		address           string
		dateOfBirth       sql.NullTime
		positionApplied   string
		expectedSalary    sql.NullFloat64
		cvPath            string
		education         map[string]any
		experience        map[string]any
		status            string
		statusChangedBy   sql.NullString
		statusChangedAt   sql.NullTime
		suitable          sql.NullBool
		interviewNotes    string
		hrApprovedBy      sql.NullString
		hrApprovedAt      sql.NullTime
		newHireEmployeeID sql.NullString
		lifecycle         string
		trashedAt         sql.NullTime
		createdAt         time.Time
		updatedAt         time.Time
	)

	if err := row.Scan(
		&id,
		&candidateName,
		&email,
		&phone,
		&cnic,
		&fatherName,
		&address,
		&dateOfBirth,
		&positionApplied,
		&expectedSalary,
		&cvPath,
		&education,
		&experience,
		&status,
		&statusChangedBy,
		&statusChangedAt,
		&suitable,
		&interviewNotes,
		&hrApprovedBy,
		&hrApprovedAt,
		&newHireEmployeeID,
		&lifecycle,
		&trashedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recruitment.ErrRecruitmentNotFound
		}
		return nil, err
	}

	rec := &recruitment.Recruitment{
		ID:                id,
		CandidateName:     candidateName,
		Email:             email,
		Phone:             phone,
		CNIC:              cnic,
		FatherName:        fatherName,
		Address:           address,
		DateOfBirth:       nullableTime(dateOfBirth),
		PositionApplied:   positionApplied,
		ExpectedSalary:    nullableFloat(expectedSalary),
		CVPath:            cvPath,
		Education:         education,
		Experience:        experience,
		Status:            recruitment.Status(status),
		StatusChangedBy:   nullableString(statusChangedBy),
		StatusChangedAt:   nullableTime(statusChangedAt),
		InterviewNotes:    interviewNotes,
		HRApprovedBy:      nullableString(hrApprovedBy),
		HRApprovedAt:      nullableTime(hrApprovedAt),
		NewHireEmployeeID: nullableString(newHireEmployeeID),
		Lifecycle:         recruitment.Lifecycle(lifecycle),
		TrashedAt:         nullableTime(trashedAt),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
	if suitable.Valid {
		v := suitable.Bool
		rec.InterviewerSuitable = &v
	}
	return rec, nil
}

func scanTransition(row pgx.Row) (*recruitment.Transition, error) {
	var (
		id        string
		recID     string
		from      sql.NullString
		to        string
		changedBy sql.NullString
		notes     string
		changedAt time.Time
	)

	if err := row.Scan(&id, &recID, &from, &to, &changedBy, &notes, &changedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recruitment.ErrRecruitmentNotFound
		}
		return nil, err
	}

	t := &recruitment.Transition{
		ID:            id,
		RecruitmentID: recID,
		ToStatus:      recruitment.Status(to),
		ChangedBy:     nullableString(changedBy),
		Notes:         notes,
		ChangedAt:     changedAt,
	}
	if from.Valid {
		s := recruitment.Status(from.String)
		t.FromStatus = &s
	}
	return t, nil
}

func translateRecruitmentPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == foreignKeyViolationCode {
			return recruitment.ErrRecruitmentNotFound
		}
	}
	return err
}
