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
	"github.com/zaylabs/erp/internal/core/attendance"
	pgdb "github.com/zaylabs/erp/internal/platform/db/postgres"
)

const attendanceColumns = `id, employee_id, work_date, clock_in, clock_out, status, leave_type, notes, created_at, updated_at`

// AttendanceRepository は PostgreSQL を利用した勤怠永続化の実装です。
type AttendanceRepository struct {
	pool pgdb.Queryer
}

// NewAttendanceRepository は AttendanceRepository を生成します。
func NewAttendanceRepository(pool pgdb.Queryer) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Create は勤怠レコードを新規作成します。
func (r *AttendanceRepository) Create(ctx context.Context, record *attendance.Record) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO attendance_records (`+attendanceColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+attendanceColumns+`
    `,
		uuid.NewString(),
		record.EmployeeID,
		record.WorkDate,
		record.ClockIn,
		record.ClockOut,
		string(record.Status),
		record.LeaveType,
		record.Notes,
		record.CreatedAt,
		record.UpdatedAt,
	)

	created, err := scanAttendance(row)
	if err != nil {
		return nil, translateAttendancePgError(err)
	}
	return created, nil
}

// Update は勤怠レコードを更新します。
func (r *AttendanceRepository) Update(ctx context.Context, record *attendance.Record) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE attendance_records
           SET clock_in = $1,
               clock_out = $2,
               status = $3,
               leave_type = $4,
               notes = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+attendanceColumns+`
    `, record.ClockIn, record.ClockOut, string(record.Status), record.LeaveType, record.Notes, record.UpdatedAt, record.ID)

	updated, err := scanAttendance(row)
	if err != nil {
		return nil, translateAttendancePgError(err)
	}
	return updated, nil
}

// Delete は勤怠レコードを削除します。
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return translateAttendancePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// FindByID はIDで勤怠レコードを取得します。
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+attendanceColumns+`
          FROM attendance_records
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAttendance(row)
	if err != nil {
		return nil, translateAttendancePgError(err)
	}
	return found, nil
}

// List は勤怠レコードの一覧を取得します。
func (r *AttendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]*attendance.Record, string, error) {
	if filter.Limit <= 0 {
		return nil, "", attendance.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", attendance.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := []any{limitWithBuffer, filter.Offset}
	whereClause := "TRUE"
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		whereClause = "employee_id = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		whereClause += " AND work_date >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		whereClause += " AND work_date <= $" + strconv.Itoa(len(args))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+attendanceColumns+`
          FROM attendance_records
         WHERE `+whereClause+`
         ORDER BY work_date DESC, id DESC
         LIMIT $1
        OFFSET $2
    `, args...)
	if err != nil {
		return nil, "", translateAttendancePgError(err)
	}
	defer rows.Close()

	records := make([]*attendance.Record, 0, filter.Limit)
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, "", translateAttendancePgError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateAttendancePgError(err)
	}

	var nextToken string
	if len(records) == limitWithBuffer {
		records = records[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return records, nextToken, nil
}

// ListRecent は直近の勤怠レコードを返します。
func (r *AttendanceRepository) ListRecent(ctx context.Context, limit int) ([]*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+attendanceColumns+`
          FROM attendance_records
         ORDER BY work_date DESC, id DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, translateAttendancePgError(err)
	}
	defer rows.Close()

	var records []*attendance.Record
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, translateAttendancePgError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAttendancePgError(err)
	}
	return records, nil
}

func scanAttendance(row pgx.Row) (*attendance.Record, error) {
	var (
		id         string
		employeeID string
		workDate   time.Time
		clockIn    sql.NullTime
		clockOut   sql.NullTime
		status     string
		leaveType  string
		notes      string
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&id, &employeeID, &workDate, &clockIn, &clockOut, &status, &leaveType, &notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, err
	}

	return &attendance.Record{
		ID:         id,
		EmployeeID: employeeID,
		WorkDate:   workDate,
		ClockIn:    nullableTime(clockIn),
		ClockOut:   nullableTime(clockOut),
		Status:     attendance.Status(status),
		LeaveType:  leaveType,
		Notes:      notes,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func translateAttendancePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return attendance.ErrDuplicateWorkDate
		case foreignKeyViolationCode:
			return attendance.ErrInvalidEmployee
		}
	}
	return err
}
