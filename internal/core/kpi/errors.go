package kpi

import "errors"

var (
	ErrReviewNotFound   = errors.New("kpi: review not found")
	ErrInvalidID        = errors.New("kpi: id is invalid")
	ErrInvalidEmployee  = errors.New("kpi: employee id is required")
	ErrInvalidPeriod    = errors.New("kpi: period end must not precede period start")
	ErrInvalidRating    = errors.New("kpi: rating must be between 1 and 5")
	ErrInvalidPageSize  = errors.New("kpi: page size is invalid")
	ErrInvalidPageToken = errors.New("kpi: page token is invalid")
)
