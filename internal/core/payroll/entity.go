package payroll

import "time"

// Entry は社員一人の一給与期間分の支給レコードを表します。
// 金額は登録値をそのまま保持します。計算は行いません。
type Entry struct {
	ID          string
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time

	BasicSalary   *float64
	HourlyWage    *float64
	Allowances    map[string]any
	Deductions    map[string]any
	Compensations map[string]any

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
