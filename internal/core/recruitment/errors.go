package recruitment

import "errors"

var (
	ErrRecruitmentNotFound = errors.New("recruitment: recruitment not found")
	ErrInvalidID           = errors.New("recruitment: id is invalid")
	ErrInvalidCandidate    = errors.New("recruitment: candidate name is required")
	ErrInvalidEmail        = errors.New("recruitment: email is invalid")
	ErrInvalidStatus       = errors.New("recruitment: status is invalid")
	ErrInvalidStage        = errors.New("recruitment: stage filter is invalid")
	ErrInvalidTransition   = errors.New("recruitment: transition is not allowed")
	ErrInvalidPageSize     = errors.New("recruitment: page size is invalid")
	ErrInvalidPageToken    = errors.New("recruitment: page token is invalid")
	ErrPermissionDenied    = errors.New("recruitment: permission denied")
	ErrNotTrashed          = errors.New("recruitment: recruitment is not trashed")
	ErrAlreadyTrashed      = errors.New("recruitment: recruitment is already trashed")
)
