package attendance

import "errors"

var (
	ErrRecordNotFound    = errors.New("attendance: record not found")
	ErrInvalidID         = errors.New("attendance: id is invalid")
	ErrInvalidEmployee   = errors.New("attendance: employee id is required")
	ErrInvalidWorkDate   = errors.New("attendance: work date is required")
	ErrInvalidStatus     = errors.New("attendance: status is invalid")
	ErrInvalidClockRange = errors.New("attendance: clock out must not precede clock in")
	ErrDuplicateWorkDate = errors.New("attendance: record already exists for work date")
	ErrInvalidPageSize   = errors.New("attendance: page size is invalid")
	ErrInvalidPageToken  = errors.New("attendance: page token is invalid")
)
