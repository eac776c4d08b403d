package attendance

import "time"

// Status は一日の勤怠区分を表します。
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
	StatusHoliday Status = "holiday"
)

// Record は社員一人の一日分の勤怠を表します。
type Record struct {
	ID         string
	EmployeeID string
	WorkDate   time.Time
	ClockIn    *time.Time
	ClockOut   *time.Time
	Status     Status
	LeaveType  string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
