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
	"github.com/zaylabs/erp/internal/core/payroll"
	pgdb "github.com/zaylabs/erp/internal/platform/db/postgres"
)

const payrollColumns = `id, employee_id, period_start, period_end, basic_salary, hourly_wage, allowances, deductions, compensations, notes, created_at, updated_at`

// PayrollRepository は PostgreSQL を利用した給与永続化の実装です。
type PayrollRepository struct {
	pool pgdb.Queryer
}

// NewPayrollRepository は PayrollRepository を生成します。
func NewPayrollRepository(pool pgdb.Queryer) *PayrollRepository {
	return &PayrollRepository{pool: pool}
}

// Create は給与レコードを新規作成します。
func (r *PayrollRepository) Create(ctx context.Context, entry *payroll.Entry) (*payroll.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO payroll_entries (`+payrollColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING `+payrollColumns+`
    `,
		uuid.NewString(),
		entry.EmployeeID,
		entry.PeriodStart,
		entry.PeriodEnd,
		entry.BasicSalary,
		entry.HourlyWage,
		entry.Allowances,
		entry.Deductions,
		entry.Compensations,
		entry.Notes,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	created, err := scanPayroll(row)
	if err != nil {
		return nil, translatePayrollPgError(err)
	}
	return created, nil
}

// Update は給与レコードを更新します。
func (r *PayrollRepository) Update(ctx context.Context, entry *payroll.Entry) (*payroll.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE payroll_entries
           SET period_start = $1,
               period_end = $2,
               basic_salary = $3,
               hourly_wage = $4,
               allowances = $5,
               deductions = $6,
               compensations = $7,
               notes = $8,
               updated_at = $9
         WHERE id = $10
        RETURNING `+payrollColumns+`
    `,
		entry.PeriodStart,
		entry.PeriodEnd,
		entry.BasicSalary,
		entry.HourlyWage,
		entry.Allowances,
		entry.Deductions,
		entry.Compensations,
		entry.Notes,
		entry.UpdatedAt,
		entry.ID,
	)

	updated, err := scanPayroll(row)
	if err != nil {
		return nil, translatePayrollPgError(err)
	}
	return updated, nil
}

// Delete は給与レコードを削除します。
func (r *PayrollRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM payroll_entries WHERE id = $1`, id)
	if err != nil {
		return translatePayrollPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrEntryNotFound
	}
	return nil
}

// FindByID はIDで給与レコードを取得します。
func (r *PayrollRepository) FindByID(ctx context.Context, id string) (*payroll.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+payrollColumns+`
          FROM payroll_entries
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanPayroll(row)
	if err != nil {
		return nil, translatePayrollPgError(err)
	}
	return found, nil
}

// List は給与レコードの一覧を取得します。
func (r *PayrollRepository) List(ctx context.Context, filter payroll.ListFilter) ([]*payroll.Entry, string, error) {
	if filter.Limit <= 0 {
		return nil, "", payroll.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", payroll.ErrInvalidPageToken
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
        SELECT `+payrollColumns+`
          FROM payroll_entries
         WHERE `+whereClause+`
         ORDER BY period_start DESC, id DESC
         LIMIT $1
        OFFSET $2
    `, args...)
	if err != nil {
		return nil, "", translatePayrollPgError(err)
	}
	defer rows.Close()

	entries := make([]*payroll.Entry, 0, filter.Limit)
	for rows.Next() {
		entry, err := scanPayroll(rows)
		if err != nil {
			return nil, "", translatePayrollPgError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translatePayrollPgError(err)
	}

	var nextToken string
	if len(entries) == limitWithBuffer {
		entries = entries[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return entries, nextToken, nil
}

// ListRecent は直近の給与レコードを返します。
func (r *PayrollRepository) ListRecent(ctx context.Context, limit int) ([]*payroll.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+payrollColumns+`
          FROM payroll_entries
         ORDER BY created_at DESC, id DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, translatePayrollPgError(err)
	}
	defer rows.Close()

	var entries []*payroll.Entry
	for rows.Next() {
		entry, err := scanPayroll(rows)
		if err != nil {
			return nil, translatePayrollPgError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePayrollPgError(err)
	}
	return entries, nil
}

func scanPayroll(row pgx.Row) (*payroll.Entry, error) {
	var (
		id            string
		employeeID    string
		periodStart   time.Time
		periodEnd     time.Time
		basicSalary   sql.NullFloat64
		hourlyWage    sql.NullFloat64
		allowances    map[string]any
		deductions    map[string]any
		compensations map[string]any
		notes         string
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&employeeID,
		&periodStart,
		&periodEnd,
		&basicSalary,
		&hourlyWage,
		&allowances,
		&deductions,
		&compensations,
		&notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payroll.ErrEntryNotFound
		}
		return nil, err
	}

	return &payroll.Entry{
		ID:            id,
		EmployeeID:    employeeID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		BasicSalary:   nullableFloat(basicSalary),
		HourlyWage:    nullableFloat(hourlyWage),
		Allowances:    allowances,
		Deductions:    deductions,
		Compensations: compensations,
		Notes:         notes,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func translatePayrollPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return payroll.ErrInvalidEmployee
		case checkViolationCode:
			return payroll.ErrInvalidPeriod
		}
	}
	return err
}
