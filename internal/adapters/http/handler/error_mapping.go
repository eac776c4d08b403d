package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/attendance"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/core/kpi"
	"github.com/zaylabs/erp/internal/core/payroll"
	"github.com/zaylabs/erp/internal/core/recruitment"
	"github.com/zaylabs/erp/internal/core/user"
)

func toHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidName),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrInvalidStatus),
		errors.Is(err, user.ErrInvalidID),
		errors.Is(err, user.ErrInvalidPassword),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidEmployeeCode),
		errors.Is(err, employee.ErrInvalidDocumentType),
		errors.Is(err, employee.ErrInvalidEmploymentStatus),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, recruitment.ErrInvalidID),
		errors.Is(err, recruitment.ErrInvalidCandidate),
		errors.Is(err, recruitment.ErrInvalidEmail),
		errors.Is(err, recruitment.ErrInvalidStatus),
		errors.Is(err, recruitment.ErrInvalidStage),
		errors.Is(err, recruitment.ErrInvalidPageSize),
		errors.Is(err, recruitment.ErrInvalidPageToken),
		errors.Is(err, attendance.ErrInvalidID),
		errors.Is(err, attendance.ErrInvalidEmployee),
		errors.Is(err, attendance.ErrInvalidWorkDate),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidClockRange),
		errors.Is(err, attendance.ErrInvalidPageSize),
		errors.Is(err, attendance.ErrInvalidPageToken),
		errors.Is(err, payroll.ErrInvalidID),
		errors.Is(err, payroll.ErrInvalidEmployee),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidPageSize),
		errors.Is(err, payroll.ErrInvalidPageToken),
		errors.Is(err, kpi.ErrInvalidID),
		errors.Is(err, kpi.ErrInvalidEmployee),
		errors.Is(err, kpi.ErrInvalidPeriod),
		errors.Is(err, kpi.ErrInvalidRating),
		errors.Is(err, kpi.ErrInvalidPageSize),
		errors.Is(err, kpi.ErrInvalidPageToken):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrUserInactive):
		return http.StatusUnauthorized
	case errors.Is(err, employee.ErrPermissionDenied),
		errors.Is(err, recruitment.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, employee.ErrDocumentNotFound),
		errors.Is(err, employee.ErrDocumentMismatch),
		errors.Is(err, employee.ErrEmploymentDetailNotFound),
		errors.Is(err, employee.ErrEmploymentDetailMismatch),
		errors.Is(err, recruitment.ErrRecruitmentNotFound),
		errors.Is(err, attendance.ErrRecordNotFound),
		errors.Is(err, payroll.ErrEntryNotFound),
		errors.Is(err, kpi.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailAlreadyExists),
		errors.Is(err, employee.ErrEmployeeCodeAlreadyExists),
		errors.Is(err, employee.ErrOnboardingNotSubmitted),
		errors.Is(err, recruitment.ErrInvalidTransition),
		errors.Is(err, recruitment.ErrAlreadyTrashed),
		errors.Is(err, recruitment.ErrNotTrashed),
		errors.Is(err, attendance.ErrDuplicateWorkDate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(toHTTPStatus(err), gin.H{"error": err.Error()})
}
