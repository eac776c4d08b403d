package payroll

import "errors"

var (
	ErrEntryNotFound    = errors.New("payroll: entry not found")
	ErrInvalidID        = errors.New("payroll: id is invalid")
	ErrInvalidEmployee  = errors.New("payroll: employee id is required")
	ErrInvalidPeriod    = errors.New("payroll: period end must not precede period start")
	ErrInvalidPageSize  = errors.New("payroll: page size is invalid")
	ErrInvalidPageToken = errors.New("payroll: page token is invalid")
)
