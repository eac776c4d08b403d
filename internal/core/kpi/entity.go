package kpi

import "time"

// Review は社員一人の一評価期間分の評価レコードを表します。
type Review struct {
	ID          string
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Rating は 1〜5 の総合評価です。
	Rating int
	Notes  string

	Goals     map[string]any
	Trainings map[string]any
	Skills    map[string]any

	ReviewedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
