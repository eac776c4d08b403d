package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/attendance"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/core/kpi"
	"github.com/zaylabs/erp/internal/core/payroll"
	"github.com/zaylabs/erp/internal/core/recruitment"
)

// overviewLimit はダッシュボードで表示する直近レコードの件数です。
const overviewLimit = 5

type recentAttendanceLister interface {
	ListRecent(ctx context.Context, limit int) ([]*attendance.Record, error)
}

type recentPayrollLister interface {
	ListRecent(ctx context.Context, limit int) ([]*payroll.Entry, error)
}

type recentKPILister interface {
	ListRecent(ctx context.Context, limit int) ([]*kpi.Review, error)
}

// OverviewHandler は HR ダッシュボード向けのスナップショットを返します。
type OverviewHandler struct {
	employees    employee.UseCase
	recruitments recruitment.UseCase
	attendance   recentAttendanceLister
	payroll      recentPayrollLister
	kpis         recentKPILister
}

// NewOverviewHandler は OverviewHandler を生成します。
func NewOverviewHandler(
	employees employee.UseCase,
	recruitments recruitment.UseCase,
	attendanceRepo recentAttendanceLister,
	payrollRepo recentPayrollLister,
	kpiRepo recentKPILister,
) *OverviewHandler {
	return &OverviewHandler{
		employees:    employees,
		recruitments: recruitments,
		attendance:   attendanceRepo,
		payroll:      payrollRepo,
		kpis:         kpiRepo,
	}
}

// Show は直近の社員・勤怠・給与・評価と採用区分件数をまとめて返します。
func (h *OverviewHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()

	employeesResult, err := h.employees.ListEmployees(ctx, employee.ListEmployeesInput{PageSize: overviewLimit})
	if err != nil {
		respondError(c, err)
		return
	}
	recentEmployees := make([]employeeResponse, 0, len(employeesResult.Employees))
	for _, e := range employeesResult.Employees {
		recentEmployees = append(recentEmployees, toEmployeeResponse(e))
	}

	records, err := h.attendance.ListRecent(ctx, overviewLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	recentAttendance := make([]attendanceResponse, 0, len(records))
	for _, r := range records {
		recentAttendance = append(recentAttendance, toAttendanceResponse(r))
	}

	entries, err := h.payroll.ListRecent(ctx, overviewLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	recentPayroll := make([]payrollResponse, 0, len(entries))
	for _, e := range entries {
		recentPayroll = append(recentPayroll, toPayrollResponse(e))
	}

	reviews, err := h.kpis.ListRecent(ctx, overviewLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	recentKPIs := make([]kpiResponse, 0, len(reviews))
	for _, r := range reviews {
		recentKPIs = append(recentKPIs, toKPIResponse(r))
	}

	counts, err := h.recruitments.CountByStage(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recent_employees":  recentEmployees,
		"recent_attendance": recentAttendance,
		"recent_payroll":    recentPayroll,
		"recent_kpis":       recentKPIs,
		"recruitment_stage_counts": gin.H{
			"interview": counts.Interview,
			"candidate": counts.Candidate,
			"approved":  counts.Approved,
			"trashed":   counts.Trashed,
		},
	})
}
