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
	"github.com/zaylabs/erp/internal/core/employee"
	pgdb "github.com/zaylabs/erp/internal/platform/db/postgres"
)

const (
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

const employeeColumns = `id, user_id, employee_code, code_number, name, date_of_birth, phone, address, emergency_phone, cnic, role, qr_payload, onboarding_status, onboarding_submitted_at, documents_received_at, lock_at, grace_approved_at, grace_until, is_locked, created_at, updated_at`

const documentColumns = `id, employee_id, doc_type, file_path, uploaded_by, created_at, updated_at`

const employmentDetailColumns = `id, employee_id, job_title, department, reporting_manager_id, employment_status, position, pay_grade, pay, allowances, transport, other_allowances, effective_date, joining_date, created_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (`+employeeColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
        RETURNING `+employeeColumns+`
    `,
		uuid.NewString(),
		e.UserID,
		e.EmployeeCode,
		e.CodeNumber,
		e.Name,
		e.DateOfBirth,
		e.Phone,
		e.Address,
		e.EmergencyPhone,
		e.CNIC,
		e.Role,
		e.QRPayload,
		string(e.OnboardingStatus),
		e.OnboardingSubmittedAt,
		e.DocumentsReceivedAt,
		e.LockAt,
		e.GraceApprovedAt,
		e.GraceUntil,
		e.IsLocked,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET user_id = $1,
               employee_code = $2,
               name = $3,
               date_of_birth = $4,
               phone = $5,
               address = $6,
               emergency_phone = $7,
               cnic = $8,
               role = $9,
               qr_payload = $10,
               onboarding_status = $11,
               onboarding_submitted_at = $12,
               documents_received_at = $13,
               lock_at = $14,
               grace_approved_at = $15,
               grace_until = $16,
               is_locked = $17,
               updated_at = $18
         WHERE id = $19
        RETURNING `+employeeColumns+`
    `,
		e.UserID,
		e.EmployeeCode,
		e.Name,
		e.DateOfBirth,
		e.Phone,
		e.Address,
		e.EmergencyPhone,
		e.CNIC,
		e.Role,
		e.QRPayload,
		string(e.OnboardingStatus),
		e.OnboardingSubmittedAt,
		e.DocumentsReceivedAt,
		e.LockAt,
		e.GraceApprovedAt,
		e.GraceUntil,
		e.IsLocked,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。書類・雇用条件は外部キーの連鎖で削除されます。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID はIDで社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByCode は社員コードで社員を取得します。
func (r *EmployeeRepository) FindByCode(ctx context.Context, code string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE employee_code = $1
         LIMIT 1
    `, code)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         ORDER BY created_at DESC, id DESC
         LIMIT $1
        OFFSET $2
    `, limitWithBuffer, filter.Offset)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

// NextCodeNumber は社員コード採番用の次の連番を返します。
func (r *EmployeeRepository) NextCodeNumber(ctx context.Context) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT COALESCE(MAX(code_number), 0) + 1 FROM employees`)

	var next int
	if err := row.Scan(&next); err != nil {
		return 0, translateEmployeePgError(err)
	}
	return next, nil
}

// ListDueForLock は評価日時点で提出期限または猶予期限を過ぎ、
// 書類受領が未記録の社員を返します。
func (r *EmployeeRepository) ListDueForLock(ctx context.Context, today time.Time) ([]*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE documents_received_at IS NULL
           AND (lock_at <= $1 OR grace_until <= $1)
         ORDER BY created_at, id
    `, today)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return employees, nil
}

// Lock は is_locked を条件付きで真にします。既にロック済み、または
// 書類受領済みの行は変更されず false が返ります。
func (r *EmployeeRepository) Lock(ctx context.Context, id string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET is_locked = TRUE,
               updated_at = NOW()
         WHERE id = $1
           AND is_locked = FALSE
           AND documents_received_at IS NULL
    `, id)
	if err != nil {
		return false, translateEmployeePgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DocumentTypes は社員の書類種別の一覧を重複なしで返します。
func (r *EmployeeRepository) DocumentTypes(ctx context.Context, employeeID string) ([]string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT doc_type
          FROM employee_documents
         WHERE employee_id = $1
    `, employeeID)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var docType string
		if err := rows.Scan(&docType); err != nil {
			return nil, translateEmployeePgError(err)
		}
		types = append(types, docType)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return types, nil
}

// FindDocumentByID はIDで書類を取得します。
func (r *EmployeeRepository) FindDocumentByID(ctx context.Context, id string) (*employee.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+documentColumns+`
          FROM employee_documents
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanDocument(row)
}

// FindDocumentByType は社員と種別で書類を取得します。
func (r *EmployeeRepository) FindDocumentByType(ctx context.Context, employeeID, docType string) (*employee.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+documentColumns+`
          FROM employee_documents
         WHERE employee_id = $1 AND doc_type = $2
         LIMIT 1
    `, employeeID, docType)

	return scanDocument(row)
}

// ListDocuments は社員の書類一覧を取得します。
func (r *EmployeeRepository) ListDocuments(ctx context.Context, employeeID string) ([]*employee.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+documentColumns+`
          FROM employee_documents
         WHERE employee_id = $1
         ORDER BY created_at, id
    `, employeeID)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var docs []*employee.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return docs, nil
}

// CreateDocument は書類行を作成します。
func (r *EmployeeRepository) CreateDocument(ctx context.Context, doc *employee.Document) (*employee.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_documents (`+documentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+documentColumns+`
    `, uuid.NewString(), doc.EmployeeID, doc.Type, doc.FilePath, doc.UploadedBy, doc.CreatedAt, doc.UpdatedAt)

	created, err := scanDocument(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// UpdateDocument は書類行を更新します。
func (r *EmployeeRepository) UpdateDocument(ctx context.Context, doc *employee.Document) (*employee.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employee_documents
           SET file_path = $1,
               uploaded_by = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+documentColumns+`
    `, doc.FilePath, doc.UploadedBy, doc.UpdatedAt, doc.ID)

	return scanDocument(row)
}

// DeleteDocument は書類行を削除します。
func (r *EmployeeRepository) DeleteDocument(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employee_documents WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrDocumentNotFound
	}
	return nil
}

// CreateEmploymentDetail は雇用条件行を作成します。
func (r *EmployeeRepository) CreateEmploymentDetail(ctx context.Context, detail *employee.EmploymentDetail) (*employee.EmploymentDetail, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employment_details (`+employmentDetailColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING `+employmentDetailColumns+`
    `,
		uuid.NewString(),
		detail.EmployeeID,
		detail.JobTitle,
		detail.Department,
		detail.ReportingManagerID,
		string(detail.EmploymentStatus),
		detail.Position,
		detail.PayGrade,
		detail.Pay,
		detail.Allowances,
		detail.Transport,
		detail.OtherAllowances,
		detail.EffectiveDate,
		detail.JoiningDate,
		detail.CreatedAt,
	)

	created, err := scanEmploymentDetail(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// DeleteEmploymentDetail は雇用条件行を削除します。
func (r *EmployeeRepository) DeleteEmploymentDetail(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employment_details WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmploymentDetailNotFound
	}
	return nil
}

// FindEmploymentDetailByID はIDで雇用条件行を取得します。
func (r *EmployeeRepository) FindEmploymentDetailByID(ctx context.Context, id string) (*employee.EmploymentDetail, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employmentDetailColumns+`
          FROM employment_details
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanEmploymentDetail(row)
}

// ListEmploymentDetails は社員の雇用条件一覧を取得します。
func (r *EmployeeRepository) ListEmploymentDetails(ctx context.Context, employeeID string) ([]*employee.EmploymentDetail, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employmentDetailColumns+`
          FROM employment_details
         WHERE employee_id = $1
         ORDER BY effective_date DESC NULLS LAST, created_at DESC
    `, employeeID)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var details []*employee.EmploymentDetail
	for rows.Next() {
		detail, err := scanEmploymentDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return details, nil
}

// LatestEmploymentDetail は effective_date が最新の雇用条件行を返します。
func (r *EmployeeRepository) LatestEmploymentDetail(ctx context.Context, employeeID string) (*employee.EmploymentDetail, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employmentDetailColumns+`
          FROM employment_details
         WHERE employee_id = $1
         ORDER BY effective_date DESC NULLS LAST, created_at DESC
         LIMIT 1
    `, employeeID)

	return scanEmploymentDetail(row)
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id                    string
		userID                sql.NullString
		code                  string
		codeNumber            int
		name                  string
		dateOfBirth           sql.NullTime
		phone                 string
		address               string
		emergencyPhone        string
		cnic                  string
		role                  string
		qrPayload             string
		onboardingStatus      string
		onboardingSubmittedAt sql.NullTime
		documentsReceivedAt   sql.NullTime
		lockAt                sql.NullTime
		graceApprovedAt       sql.NullTime
		graceUntil            sql.NullTime
		isLocked              bool
		createdAt             time.Time
		updatedAt             time.Time
	)

	if err := row.Scan(
		&id,
		&userID,
		&code,
		&codeNumber,
		&name,
		&dateOfBirth,
		&phone,
		&address,
		&emergencyPhone,
		&cnic,
		&role,
		&qrPayload,
		&onboardingStatus,
		&onboardingSubmittedAt,
		&documentsReceivedAt,
		&lockAt,
		&graceApprovedAt,
		&graceUntil,
		&isLocked,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:                    id,
		UserID:                nullableString(userID),
		EmployeeCode:          code,
		CodeNumber:            codeNumber,
		Name:                  name,
		DateOfBirth:           nullableTime(dateOfBirth),
		Phone:                 phone,
		Address:               address,
		EmergencyPhone:        emergencyPhone,
		CNIC:                  cnic,
		Role:                  role,
		QRPayload:             qrPayload,
		OnboardingStatus:      employee.OnboardingStatus(onboardingStatus),
		OnboardingSubmittedAt: nullableTime(onboardingSubmittedAt),
		DocumentsReceivedAt:   nullableTime(documentsReceivedAt),
		LockAt:                nullableTime(lockAt),
		GraceApprovedAt:       nullableTime(graceApprovedAt),
		GraceUntil:            nullableTime(graceUntil),
		IsLocked:              isLocked,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}, nil
}

func scanDocument(row pgx.Row) (*employee.Document, error) {
	var (
		id         string
		employeeID string
		docType    string
		filePath   string
		uploadedBy sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&id, &employeeID, &docType, &filePath, &uploadedBy, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrDocumentNotFound
		}
		return nil, err
	}

	return &employee.Document{
		ID:         id,
		EmployeeID: employeeID,
		Type:       docType,
		FilePath:   filePath,
		UploadedBy: nullableString(uploadedBy),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func scanEmploymentDetail(row pgx.Row) (*employee.EmploymentDetail, error) {
	var (
		id                 string
		employeeID         string
		jobTitle           string
		department         string
		reportingManagerID sql.NullString
		employmentStatus   string
		position           string
		payGrade           string
		pay                sql.NullFloat64
		allowances         sql.NullFloat64
		transport          sql.NullFloat64
		otherAllowances    sql.NullFloat64
		effectiveDate      sql.NullTime
		joiningDate        sql.NullTime
		createdAt          time.Time
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&jobTitle,
		&department,
		&reportingManagerID,
		&employmentStatus,
		&position,
		&payGrade,
		&pay,
		&allowances,
		&transport,
		&otherAllowances,
		&effectiveDate,
		&joiningDate,
		&createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmploymentDetailNotFound
		}
		return nil, err
	}

	return &employee.EmploymentDetail{
		ID:                 id,
		EmployeeID:         employeeID,
		JobTitle:           jobTitle,
		Department:         department,
		ReportingManagerID: nullableString(reportingManagerID),
		EmploymentStatus:   employee.EmploymentStatus(employmentStatus),
		Position:           position,
		PayGrade:           payGrade,
		Pay:                nullableFloat(pay),
		Allowances:         nullableFloat(allowances),
		Transport:          nullableFloat(transport),
		OtherAllowances:    nullableFloat(otherAllowances),
		EffectiveDate:      nullableTime(effectiveDate),
		JoiningDate:        nullableTime(joiningDate),
		CreatedAt:          createdAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrEmployeeCodeAlreadyExists
		case foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		}
	}
	return err
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
