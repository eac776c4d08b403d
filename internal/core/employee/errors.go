package employee

import "errors"

var (
	ErrInvalidID                 = errors.New("employee: invalid id")
	ErrInvalidName               = errors.New("employee: invalid name")
	ErrInvalidEmployeeCode       = errors.New("employee: invalid employee code")
	ErrInvalidDocumentType       = errors.New("employee: invalid document type")
	ErrInvalidEmploymentStatus   = errors.New("employee: invalid employment status")
	ErrInvalidPageSize           = errors.New("employee: invalid page size")
	ErrInvalidPageToken          = errors.New("employee: invalid page token")
	ErrEmployeeNotFound          = errors.New("employee: not found")
	ErrEmployeeCodeAlreadyExists = errors.New("employee: employee code already exists")
	ErrDocumentNotFound          = errors.New("employee: document not found")
	ErrDocumentMismatch          = errors.New("employee: document does not belong to employee")
	ErrEmploymentDetailNotFound  = errors.New("employee: employment detail not found")
	ErrEmploymentDetailMismatch  = errors.New("employee: employment detail does not belong to employee")
	ErrPermissionDenied          = errors.New("employee: permission denied")
	ErrOnboardingNotSubmitted    = errors.New("employee: onboarding not submitted")
)
